package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Spok95/stepik-test-bot/internal/db"
	"github.com/Spok95/stepik-test-bot/internal/format"
	"github.com/Spok95/stepik-test-bot/internal/models"
	"github.com/Spok95/stepik-test-bot/internal/tg"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// HandleStats — «📊 Статистика» для преподавателя: сводка + топ студентов.
func HandleStats(ctx context.Context, bot *tgbotapi.BotAPI, database *sql.DB, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if !requireTeacher(ctx, bot, database, chatID) {
		return
	}

	stats, err := db.GetStatistics(ctx, database)
	if err != nil {
		tg.Send(bot, tgbotapi.NewMessage(chatID, "Не удалось получить статистику. Попробуйте позже."))
		return
	}

	var b strings.Builder
	b.WriteString(format.StatisticsSummary(stats))

	scores, err := db.GetStudentsScores(ctx, database)
	if err == nil && len(scores) > 0 {
		b.WriteString("\n🏆 <b>Топ студентов:</b>\n")
		for i, s := range scores {
			if i == 10 {
				break
			}
			fmt.Fprintf(&b, "%d. %s — %d баллов (%d/%d проверено)\n", i+1, s.FullName, s.TotalScore, s.ReviewedTests, s.TotalTests)
		}
	}

	tg.SendHTML(bot, chatID, b.String())
}

// HandleStudentsList — «👥 Студенты»: полный рейтинг.
func HandleStudentsList(ctx context.Context, bot *tgbotapi.BotAPI, database *sql.DB, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if !requireTeacher(ctx, bot, database, chatID) {
		return
	}

	scores, err := db.GetStudentsScores(ctx, database)
	if err != nil {
		tg.Send(bot, tgbotapi.NewMessage(chatID, "Не удалось получить список студентов. Попробуйте позже."))
		return
	}
	if len(scores) == 0 {
		tg.Send(bot, tgbotapi.NewMessage(chatID, "👥 Одобренных студентов пока нет."))
		return
	}

	var b strings.Builder
	b.WriteString("👥 <b>Студенты</b>\n\n")
	for i, s := range scores {
		fmt.Fprintf(&b, "%d. %s (ID %d) — %d баллов, работ: %d, проверено: %d\n",
			i+1, s.FullName, s.UserID, s.TotalScore, s.TotalTests, s.ReviewedTests)
	}
	tg.SendHTML(bot, chatID, b.String())
}

func requireTeacher(ctx context.Context, bot *tgbotapi.BotAPI, database *sql.DB, chatID int64) bool {
	user, err := db.GetUser(ctx, database, chatID)
	if err != nil || user == nil || !user.IsApproved || user.Role != models.Teacher {
		tg.Send(bot, tgbotapi.NewMessage(chatID, "Эта команда доступна только преподавателям."))
		return false
	}
	return true
}
