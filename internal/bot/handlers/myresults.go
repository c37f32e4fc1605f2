package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Spok95/stepik-test-bot/internal/db"
	"github.com/Spok95/stepik-test-bot/internal/format"
	"github.com/Spok95/stepik-test-bot/internal/models"
	"github.com/Spok95/stepik-test-bot/internal/tg"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// HandleMyResults — «📋 Мои результаты»: история работ студента и сводка.
func HandleMyResults(ctx context.Context, bot *tgbotapi.BotAPI, database *sql.DB, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	user, err := db.GetUser(ctx, database, chatID)
	if err != nil || user == nil || !user.IsApproved || user.Role != models.Student {
		tg.Send(bot, tgbotapi.NewMessage(chatID, "Результаты доступны только зарегистрированным студентам."))
		return
	}

	tests, err := db.GetStudentTests(ctx, database, chatID)
	if err != nil {
		tg.Send(bot, tgbotapi.NewMessage(chatID, "Не удалось получить результаты. Попробуйте позже."))
		return
	}
	if len(tests) == 0 {
		tg.Send(bot, tgbotapi.NewMessage(chatID, "📋 Вы ещё не отправляли тестов. Нажмите «📤 Отправить тест»."))
		return
	}

	reviewed := 0
	totalScore := 0
	for _, t := range tests {
		if t.IsReviewed {
			reviewed++
			totalScore += t.Score
		}
	}

	now := time.Now()
	var b strings.Builder
	b.WriteString("📋 <b>Ваши результаты</b>\n\n")
	for i, t := range tests {
		if i == 10 {
			fmt.Fprintf(&b, "… и ещё %d\n", len(tests)-10)
			break
		}
		if t.IsReviewed {
			comment := ""
			if t.TeacherComment != nil && *t.TeacherComment != "" {
				comment = " 💬 " + *t.TeacherComment
			}
			maxScore := 3
			if t.TestType == models.TestType5 {
				maxScore = 5
			}
			fmt.Fprintf(&b, "%s Тест №%d: %d/%s%s\n", format.ScoreEmoji(t.Score, maxScore), t.ID, t.Score, t.TestType, comment)
		} else {
			fmt.Fprintf(&b, "⏳ Тест №%d: на проверке (%s)\n", t.ID, format.TimeAgo(t.SubmittedAt, now))
		}
	}
	fmt.Fprintf(&b, "\n📝 Всего работ: %d\n", len(tests))
	fmt.Fprintf(&b, "✅ Проверено: %d\n", reviewed)
	fmt.Fprintf(&b, "🏆 Сумма баллов: %d\n", totalScore)
	fmt.Fprintf(&b, "📈 Прогресс: %s\n", format.ProgressBar(reviewed, len(tests), 10))

	tg.SendHTML(bot, chatID, b.String())
}
