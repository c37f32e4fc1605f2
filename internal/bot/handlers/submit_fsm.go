package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/Spok95/stepik-test-bot/internal/bot/shared/fsmutil"
	"github.com/Spok95/stepik-test-bot/internal/db"
	"github.com/Spok95/stepik-test-bot/internal/metrics"
	"github.com/Spok95/stepik-test-bot/internal/models"
	"github.com/Spok95/stepik-test-bot/internal/tg"
	"github.com/Spok95/stepik-test-bot/internal/validate"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type SubmitState struct {
	Step     int
	FullName string
	StepikID string
	TestURL  string
	TestType string
}

const (
	submitStepName = iota + 1
	submitStepID
	submitStepURL
	submitStepType
	submitStepConfirm
)

var submitStates sync.Map

func GetSubmitState(chatID int64) *SubmitState {
	v, ok := submitStates.Load(chatID)
	if !ok {
		return nil
	}
	return v.(*SubmitState)
}

// StartSubmitFSM — «📤 Отправить тест». Только для одобренных студентов.
func StartSubmitFSM(ctx context.Context, bot *tgbotapi.BotAPI, database *sql.DB, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	user, err := db.GetUser(ctx, database, chatID)
	if err != nil || user == nil || !user.IsApproved || user.Role != models.Student {
		tg.Send(bot, tgbotapi.NewMessage(chatID, "Отправка тестов доступна только зарегистрированным студентам."))
		return
	}

	submitStates.Store(chatID, &SubmitState{Step: submitStepName})
	tg.Send(bot, tgbotapi.NewMessage(chatID, "Введите ваше ФИО (например: Иванов Иван Иванович):"))
}

// HandleSubmitText — текстовые шаги: ФИО → ID → ссылка.
func HandleSubmitText(ctx context.Context, bot *tgbotapi.BotAPI, database *sql.DB, checker *validate.Checker, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	state := GetSubmitState(chatID)
	if state == nil {
		return
	}
	if fsmutil.IsCancelText(msg.Text) {
		submitStates.Delete(chatID)
		tg.Send(bot, tgbotapi.NewMessage(chatID, "Отправка отменена."))
		return
	}

	text := strings.TrimSpace(msg.Text)

	switch state.Step {
	case submitStepName:
		if !validate.FullName(text) {
			tg.Send(bot, tgbotapi.NewMessage(chatID, "❌ Некорректное ФИО. Нужны минимум фамилия и имя, только буквы."))
			return
		}
		state.FullName = text
		state.Step = submitStepID
		tg.Send(bot, tgbotapi.NewMessage(chatID, "Введите ваш ID Степика (числовой, от 3 цифр):"))

	case submitStepID:
		if !validate.StepikID(text) {
			tg.Send(bot, tgbotapi.NewMessage(chatID, "❌ Некорректный ID Степика. Только цифры, минимум 3."))
			return
		}
		state.StepikID = text
		state.Step = submitStepURL
		tg.Send(bot, tgbotapi.NewMessage(chatID, "Отправьте ссылку на тест (например: https://stepik.org/lesson/123456/step/1):"))

	case submitStepURL:
		if !checker.TestURL(text) {
			tg.Send(bot, tgbotapi.NewMessage(chatID, "❌ Некорректная ссылка на тест. Нужна ссылка вида https://stepik.org/lesson/<номер>."))
			return
		}
		state.TestURL = text
		state.Step = submitStepType
		out := tgbotapi.NewMessage(chatID, "Выберите тип теста:")
		out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("3 балла", "submit_type_3"),
				tgbotapi.NewInlineKeyboardButtonData("5 баллов", "submit_type_5"),
			),
			fsmutil.CancelRow("submit_cancel"),
		)
		tg.Send(bot, out)
	}
}

// HandleSubmitCallback — выбор типа и подтверждение.
func HandleSubmitCallback(ctx context.Context, bot *tgbotapi.BotAPI, database *sql.DB, checker *validate.Checker, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	state := GetSubmitState(chatID)
	tg.Request(bot, tgbotapi.NewCallback(cq.ID, ""))
	if state == nil {
		return
	}
	fsmutil.DisableMarkup(bot, chatID, cq.Message.MessageID)

	switch {
	case cq.Data == "submit_cancel":
		submitStates.Delete(chatID)
		tg.Send(bot, tgbotapi.NewMessage(chatID, "Отправка отменена."))

	case strings.HasPrefix(cq.Data, "submit_type_"):
		state.TestType = strings.TrimPrefix(cq.Data, "submit_type_")
		state.Step = submitStepConfirm

		summary := fmt.Sprintf(`📋 <b>Проверьте данные:</b>

ФИО: %s
ID Степика: %s
Ссылка: %s
Тип теста: %s баллов

Отправить?`, state.FullName, state.StepikID, state.TestURL, state.TestType)
		out := tgbotapi.NewMessage(chatID, summary)
		out.ParseMode = tgbotapi.ModeHTML
		out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Отправить", "submit_confirm"),
				tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", "submit_cancel"),
			),
		)
		tg.Send(bot, out)

	case cq.Data == "submit_confirm":
		finishSubmit(ctx, bot, database, checker, chatID, state)
	}
}

func finishSubmit(ctx context.Context, bot *tgbotapi.BotAPI, database *sql.DB, checker *validate.Checker, chatID int64, state *SubmitState) {
	submitStates.Delete(chatID)

	// финальная проверка всей формы целиком: все замечания одним списком
	ok, errs := checker.CheckSubmission(validate.Submission{
		FullName: state.FullName,
		StepikID: state.StepikID,
		TestURL:  state.TestURL,
		TestType: state.TestType,
	})
	if !ok {
		tg.Send(bot, tgbotapi.NewMessage(chatID, "❌ Ошибки в данных: "+strings.Join(errs, ", ")))
		return
	}

	if err := db.CreateTest(ctx, database, chatID, state.FullName, state.StepikID, state.TestURL, state.TestType); err != nil {
		tg.Send(bot, tgbotapi.NewMessage(chatID, "Ошибка при сохранении теста. Попробуйте позже."))
		return
	}
	metrics.TestsSubmitted.Inc()
	tg.Send(bot, tgbotapi.NewMessage(chatID, "✅ Тест успешно отправлен! Преподаватель оценит его в ближайшее время."))
}
