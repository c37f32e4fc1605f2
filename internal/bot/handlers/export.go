package handlers

import (
	"context"
	"database/sql"
	"time"

	"github.com/Spok95/stepik-test-bot/internal/db"
	"github.com/Spok95/stepik-test-bot/internal/export"
	"github.com/Spok95/stepik-test-bot/internal/tg"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// HandleExport — «📥 Экспорт отчёта»: xlsx с рейтингом студентов.
func HandleExport(ctx context.Context, bot *tgbotapi.BotAPI, database *sql.DB, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if !requireTeacher(ctx, bot, database, chatID) {
		return
	}

	scores, err := db.GetStudentsScores(ctx, database)
	if err != nil {
		tg.Send(bot, tgbotapi.NewMessage(chatID, "Не удалось собрать отчёт. Попробуйте позже."))
		return
	}
	if len(scores) == 0 {
		tg.Send(bot, tgbotapi.NewMessage(chatID, "👥 Одобренных студентов пока нет — отчёт пуст."))
		return
	}

	buf, err := export.ScoresWorkbook(scores)
	if err != nil {
		tg.Send(bot, tgbotapi.NewMessage(chatID, "Не удалось сформировать файл отчёта."))
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  export.ScoresReportFilename(time.Now()),
		Bytes: buf.Bytes(),
	})
	tg.Send(bot, doc)
}
