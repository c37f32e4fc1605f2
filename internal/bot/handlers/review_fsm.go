package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Spok95/stepik-test-bot/internal/bot/shared/fsmutil"
	"github.com/Spok95/stepik-test-bot/internal/db"
	"github.com/Spok95/stepik-test-bot/internal/format"
	"github.com/Spok95/stepik-test-bot/internal/metrics"
	"github.com/Spok95/stepik-test-bot/internal/models"
	"github.com/Spok95/stepik-test-bot/internal/tg"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type ReviewState struct {
	Step      int
	TestID    int64
	StudentID int64
	MaxScore  int
	Score     int
}

const (
	reviewStepScore = iota + 1
	reviewStepComment
)

// в списке показываем не больше 10 работ за раз
const pendingPageSize = 10

var reviewStates sync.Map

func GetReviewState(chatID int64) *ReviewState {
	v, ok := reviewStates.Load(chatID)
	if !ok {
		return nil
	}
	return v.(*ReviewState)
}

// StartReviewFSM — «📝 Тесты на проверку»: список непроверенных работ.
func StartReviewFSM(ctx context.Context, bot *tgbotapi.BotAPI, database *sql.DB, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	user, err := db.GetUser(ctx, database, chatID)
	if err != nil || user == nil || !user.IsApproved || user.Role != models.Teacher {
		tg.Send(bot, tgbotapi.NewMessage(chatID, "Проверка тестов доступна только преподавателям."))
		return
	}

	pending, err := db.GetPendingTests(ctx, database)
	if err != nil {
		tg.Send(bot, tgbotapi.NewMessage(chatID, "Не удалось получить список тестов. Попробуйте позже."))
		return
	}
	if len(pending) == 0 {
		tg.Send(bot, tgbotapi.NewMessage(chatID, "🎉 Все тесты проверены, новых работ нет."))
		return
	}

	now := time.Now()
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, t := range pending {
		if i == pendingPageSize {
			break
		}
		label := fmt.Sprintf("%s (тип %s) — %s", t.FullName, t.TestType, format.TimeAgo(t.SubmittedAt, now))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("review_test_%d", t.ID)),
		))
	}
	rows = append(rows, fsmutil.CancelRow("review_cancel"))

	text := fmt.Sprintf("⏳ Тестов на проверку: %d. Выберите работу:", len(pending))
	out := tgbotapi.NewMessage(chatID, text)
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	tg.Send(bot, out)
}

// HandleReviewCallback — выбор работы из списка.
func HandleReviewCallback(ctx context.Context, bot *tgbotapi.BotAPI, database *sql.DB, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	tg.Request(bot, tgbotapi.NewCallback(cq.ID, ""))
	fsmutil.DisableMarkup(bot, chatID, cq.Message.MessageID)

	if cq.Data == "review_cancel" {
		reviewStates.Delete(chatID)
		tg.Send(bot, tgbotapi.NewMessage(chatID, "Проверка отменена."))
		return
	}

	idStr := strings.TrimPrefix(cq.Data, "review_test_")
	testID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return
	}

	test, err := db.GetTest(ctx, database, testID)
	if err != nil || test == nil || test.IsReviewed {
		// работу могли проверить параллельно — просто сообщаем
		tg.Send(bot, tgbotapi.NewMessage(chatID, "Тест не найден или уже проверен."))
		return
	}

	maxScore, _ := strconv.Atoi(test.TestType)
	reviewStates.Store(chatID, &ReviewState{
		Step:      reviewStepScore,
		TestID:    test.ID,
		StudentID: test.StudentID,
		MaxScore:  maxScore,
	})

	card := fmt.Sprintf(`📝 <b>Работа №%d</b>

ФИО: %s
ID Степика: %s
Ссылка: %s
Тип теста: %s баллов
Отправлено: %s

Введите оценку от 0 до %d:`,
		test.ID, test.FullName, test.StepikID, test.TestURL, test.TestType,
		format.DateTime(test.SubmittedAt), maxScore)
	tg.SendHTML(bot, chatID, card)
}

// HandleReviewText — оценка, затем комментарий.
func HandleReviewText(ctx context.Context, bot *tgbotapi.BotAPI, database *sql.DB, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	state := GetReviewState(chatID)
	if state == nil {
		return
	}
	if fsmutil.IsCancelText(msg.Text) {
		reviewStates.Delete(chatID)
		tg.Send(bot, tgbotapi.NewMessage(chatID, "Проверка отменена."))
		return
	}

	switch state.Step {
	case reviewStepScore:
		score, err := strconv.Atoi(strings.TrimSpace(msg.Text))
		if err != nil || score < 0 || score > state.MaxScore {
			tg.Send(bot, tgbotapi.NewMessage(chatID, fmt.Sprintf("❌ Оценка должна быть числом от 0 до %d.", state.MaxScore)))
			return
		}
		state.Score = score
		state.Step = reviewStepComment
		tg.Send(bot, tgbotapi.NewMessage(chatID, "Комментарий к работе (или «-», чтобы пропустить):"))

	case reviewStepComment:
		comment := strings.TrimSpace(msg.Text)
		if comment == "-" {
			comment = ""
		}
		finishReview(ctx, bot, database, chatID, state, comment)
	}
}

func finishReview(ctx context.Context, bot *tgbotapi.BotAPI, database *sql.DB, chatID int64, state *ReviewState, comment string) {
	reviewStates.Delete(chatID)

	if err := db.ReviewTest(ctx, database, state.TestID, state.Score, comment); err != nil {
		tg.Send(bot, tgbotapi.NewMessage(chatID, "Ошибка при сохранении оценки. Попробуйте позже."))
		return
	}
	metrics.TestsReviewed.Inc()

	// уведомление студенту — запись в журнал; он увидит его по /notifications
	note := format.ReviewFeedback(state.Score, state.MaxScore, comment)
	_ = db.SendNotification(ctx, database, state.StudentID, note, models.NotifySuccess)

	tg.Send(bot, tgbotapi.NewMessage(chatID, fmt.Sprintf("✅ Работа №%d оценена: %d/%d.", state.TestID, state.Score, state.MaxScore)))
}
