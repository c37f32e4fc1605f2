package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/Spok95/stepik-test-bot/internal/bot/shared/fsmutil"
	"github.com/Spok95/stepik-test-bot/internal/db"
	"github.com/Spok95/stepik-test-bot/internal/models"
	"github.com/Spok95/stepik-test-bot/internal/tg"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type FeedbackState struct {
	Step int
	Type models.FeedbackType
}

const feedbackStepMessage = 1

var feedbackStates sync.Map

func GetFeedbackState(chatID int64) *FeedbackState {
	v, ok := feedbackStates.Load(chatID)
	if !ok {
		return nil
	}
	return v.(*FeedbackState)
}

// StartFeedbackFSM — «💬 Обратная связь»: выбор категории.
func StartFeedbackFSM(ctx context.Context, bot *tgbotapi.BotAPI, database *sql.DB, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	user, err := db.GetUser(ctx, database, chatID)
	if err != nil || user == nil || !user.IsApproved {
		tg.Send(bot, tgbotapi.NewMessage(chatID, "Обратная связь доступна после регистрации. Нажмите /start."))
		return
	}

	feedbackStates.Delete(chatID)
	out := tgbotapi.NewMessage(chatID, "💬 Что вы хотите сообщить?")
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🐛 Сообщить об ошибке", "feedback_bug")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("💡 Предложение", "feedback_suggestion")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("👍 Похвалить", "feedback_compliment")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("❓ Задать вопрос", "feedback_question")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📊 Оценить бота", "feedback_rating")),
	)
	tg.Send(bot, out)
}

// HandleFeedbackCallback — категория, либо звёзды для «оценить бота».
func HandleFeedbackCallback(ctx context.Context, bot *tgbotapi.BotAPI, database *sql.DB, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	tg.Request(bot, tgbotapi.NewCallback(cq.ID, ""))
	fsmutil.DisableMarkup(bot, chatID, cq.Message.MessageID)

	switch {
	case cq.Data == "feedback_rating":
		out := tgbotapi.NewMessage(chatID, "Оцените бота:")
		out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("⭐ 1", "rating_1"),
				tgbotapi.NewInlineKeyboardButtonData("⭐⭐ 2", "rating_2"),
				tgbotapi.NewInlineKeyboardButtonData("⭐⭐⭐ 3", "rating_3"),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("⭐⭐⭐⭐ 4", "rating_4"),
				tgbotapi.NewInlineKeyboardButtonData("⭐⭐⭐⭐⭐ 5", "rating_5"),
			),
		)
		tg.Send(bot, out)

	case strings.HasPrefix(cq.Data, "rating_"):
		rating, err := strconv.Atoi(strings.TrimPrefix(cq.Data, "rating_"))
		if err != nil {
			return
		}
		message := fmt.Sprintf("Оценка бота: %d звёзд", rating)
		if err := db.SubmitFeedback(ctx, database, chatID, models.FeedbackRating, message, &rating); err != nil {
			tg.Send(bot, tgbotapi.NewMessage(chatID, "Не удалось сохранить оценку. Попробуйте позже."))
			return
		}
		tg.Send(bot, tgbotapi.NewMessage(chatID, fmt.Sprintf("Спасибо! Вы оценили бота на %d звёзд. ⭐", rating)))

	case strings.HasPrefix(cq.Data, "feedback_"):
		ft := models.FeedbackType(strings.TrimPrefix(cq.Data, "feedback_"))
		feedbackStates.Store(chatID, &FeedbackState{Step: feedbackStepMessage, Type: ft})
		tg.Send(bot, tgbotapi.NewMessage(chatID, "Опишите подробнее (или «отмена»):"))
	}
}

// HandleFeedbackText — текст отзыва.
func HandleFeedbackText(ctx context.Context, bot *tgbotapi.BotAPI, database *sql.DB, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	state := GetFeedbackState(chatID)
	if state == nil {
		return
	}
	if fsmutil.IsCancelText(msg.Text) {
		feedbackStates.Delete(chatID)
		tg.Send(bot, tgbotapi.NewMessage(chatID, "Отправка отзыва отменена."))
		return
	}
	feedbackStates.Delete(chatID)

	if err := db.SubmitFeedback(ctx, database, chatID, state.Type, strings.TrimSpace(msg.Text), nil); err != nil {
		tg.Send(bot, tgbotapi.NewMessage(chatID, "Не удалось сохранить отзыв. Попробуйте позже."))
		return
	}

	// о багах предупреждаем преподавателей (журнал уведомлений, не пуш)
	if state.Type == models.FeedbackBug {
		teachers, err := db.ListTeachers(ctx, database)
		if err == nil {
			alert := fmt.Sprintf("⚠️ Пользователь %d сообщил об ошибке: %s", chatID, strings.TrimSpace(msg.Text))
			for _, t := range teachers {
				_ = db.SendNotification(ctx, database, t.ID, alert, models.NotifyWarning)
			}
		}
	}

	tg.Send(bot, tgbotapi.NewMessage(chatID, "✅ Спасибо за обратную связь!"))
}

// HandleFeedbackStats — /feedback_stats для админов: сводка и разбор отзывов.
func HandleFeedbackStats(ctx context.Context, bot *tgbotapi.BotAPI, database *sql.DB, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	stats, err := db.GetFeedbackStats(ctx, database)
	if err != nil {
		tg.Send(bot, tgbotapi.NewMessage(chatID, "Не удалось получить статистику отзывов."))
		return
	}

	var b strings.Builder
	b.WriteString("💬 <b>Статистика отзывов</b>\n\n")
	fmt.Fprintf(&b, "Всего: %d\n", stats.Total)
	fmt.Fprintf(&b, "⭐ Средняя оценка: %.2f\n", stats.AverageRating)
	fmt.Fprintf(&b, "⏳ Необработанных: %d\n", stats.Unprocessed)
	if len(stats.ByType) > 0 {
		b.WriteString("\nПо типам:\n")
		for _, ft := range []string{"bug", "suggestion", "compliment", "question", "rating"} {
			if n, ok := stats.ByType[ft]; ok {
				fmt.Fprintf(&b, "• %s: %d\n", ft, n)
			}
		}
	}
	tg.SendHTML(bot, chatID, b.String())

	unprocessed, err := db.ListUnprocessedFeedback(ctx, database, 5)
	if err != nil || len(unprocessed) == 0 {
		return
	}
	for _, f := range unprocessed {
		text := fmt.Sprintf("[%s] от %d: %s", f.Type, f.UserID, f.Message)
		out := tgbotapi.NewMessage(chatID, text)
		out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Обработано", fmt.Sprintf("fbdone_%d", f.ID)),
			),
		)
		tg.Send(bot, out)
	}
}

// HandleFeedbackDoneCallback — отметка «отзыв разобран».
func HandleFeedbackDoneCallback(ctx context.Context, bot *tgbotapi.BotAPI, database *sql.DB, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	tg.Request(bot, tgbotapi.NewCallback(cq.ID, ""))

	id, err := strconv.ParseInt(strings.TrimPrefix(cq.Data, "fbdone_"), 10, 64)
	if err != nil {
		return
	}
	if err := db.MarkFeedbackProcessed(ctx, database, id); err != nil {
		tg.Send(bot, tgbotapi.NewMessage(chatID, "Не удалось отметить отзыв."))
		return
	}
	fsmutil.DisableMarkup(bot, chatID, cq.Message.MessageID)
	tg.Send(bot, tgbotapi.NewMessage(chatID, "✅ Отзыв отмечен как обработанный."))
}
