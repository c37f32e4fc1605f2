package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/Spok95/stepik-test-bot/internal/bot/menu"
	"github.com/Spok95/stepik-test-bot/internal/bot/shared/fsmutil"
	"github.com/Spok95/stepik-test-bot/internal/config"
	"github.com/Spok95/stepik-test-bot/internal/db"
	"github.com/Spok95/stepik-test-bot/internal/format"
	"github.com/Spok95/stepik-test-bot/internal/models"
	"github.com/Spok95/stepik-test-bot/internal/tg"
	"github.com/Spok95/stepik-test-bot/internal/validate"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type RegState struct {
	Step int
	Role models.Role
}

const (
	regStepTeacherPassword = 1
	regStepStudentName     = 2
)

// Состояния сценариев живут в sync.Map: лимитер сериализует апдейты только
// внутри одного чата, разные чаты ходят сюда параллельно.
var regStates sync.Map

func GetRegState(chatID int64) *RegState {
	v, ok := regStates.Load(chatID)
	if !ok {
		return nil
	}
	return v.(*RegState)
}

func ClearRegState(chatID int64) { regStates.Delete(chatID) }

// ResetChatState сбрасывает все сценарии чата: /start всегда начинает с чистого листа.
func ResetChatState(chatID int64) {
	regStates.Delete(chatID)
	submitStates.Delete(chatID)
	reviewStates.Delete(chatID)
	feedbackStates.Delete(chatID)
}

// HandleStart — /start: зарегистрированным показываем меню, остальным — выбор роли.
func HandleStart(ctx context.Context, bot *tgbotapi.BotAPI, database *sql.DB, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	ResetChatState(chatID)

	user, err := db.GetUser(ctx, database, chatID)
	if err == nil && user != nil && user.IsApproved {
		// телеграмный username мог смениться с прошлого визита
		if user.Username != msg.From.UserName {
			_ = db.UpdateProfile(ctx, database, chatID, msg.From.UserName, user.FirstName, user.LastName)
		}
		out := tgbotapi.NewMessage(chatID, "С возвращением! Выберите действие:")
		out.ReplyMarkup = menu.GetRoleMenu(string(user.Role))
		tg.Send(bot, out)
		return
	}

	welcome := fmt.Sprintf(`🎓 <b>Добро пожаловать в бот для оценки тестов Степика!</b>

Привет, %s! 👋

Этот бот поможет:
• Студентам отправлять данные о пройденных тестах
• Преподавателям оценивать работы и выставлять баллы

Выберите свою роль:`, msg.From.FirstName)

	out := tgbotapi.NewMessage(chatID, welcome)
	out.ParseMode = tgbotapi.ModeHTML
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👨‍🏫 Я преподаватель", "role_teacher"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👨‍🎓 Я студент", "role_student"),
		),
	)
	tg.Send(bot, out)
}

// HandleRegCallback — выбор роли из приветственного сообщения.
func HandleRegCallback(ctx context.Context, bot *tgbotapi.BotAPI, database *sql.DB, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	tg.Request(bot, tgbotapi.NewCallback(cq.ID, ""))
	fsmutil.DisableMarkup(bot, chatID, cq.Message.MessageID)

	switch cq.Data {
	case "role_teacher":
		regStates.Store(chatID, &RegState{Step: regStepTeacherPassword, Role: models.Teacher})
		tg.SendHTML(bot, chatID, "🔐 <b>Регистрация преподавателя</b>\n\nВведите пароль для регистрации преподавателя:")
	case "role_student":
		regStates.Store(chatID, &RegState{Step: regStepStudentName, Role: models.Student})
		tg.SendHTML(bot, chatID, "👨‍🎓 <b>Регистрация студента</b>\n\nВведите ваше ФИО (например: Иванов Иван Иванович):")
	}
}

// HandleRegText — шаги регистрации (пароль преподавателя / ФИО студента).
func HandleRegText(ctx context.Context, bot *tgbotapi.BotAPI, database *sql.DB, cfg *config.Config, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	state := GetRegState(chatID)
	if state == nil {
		return
	}
	if fsmutil.IsCancelText(msg.Text) {
		regStates.Delete(chatID)
		tg.Send(bot, tgbotapi.NewMessage(chatID, "Регистрация отменена. Нажмите /start, чтобы начать заново."))
		return
	}

	switch state.Step {
	case regStepTeacherPassword:
		if msg.Text != cfg.AdminPassword {
			tg.Send(bot, tgbotapi.NewMessage(chatID, "❌ Неверный пароль. Попробуйте ещё раз или отправьте /cancel."))
			return
		}
		registerUser(ctx, bot, database, msg, msg.From.FirstName, msg.From.LastName, models.Teacher)

	case regStepStudentName:
		fullName := strings.TrimSpace(msg.Text)
		if !validate.FullName(fullName) {
			tg.Send(bot, tgbotapi.NewMessage(chatID, "❌ Некорректное ФИО. Нужны минимум фамилия и имя, только буквы."))
			return
		}
		// ФИО: «Фамилия Имя [Отчество]»
		parts := strings.Fields(fullName)
		registerUser(ctx, bot, database, msg, parts[1], parts[0], models.Student)
	}
}

func registerUser(ctx context.Context, bot *tgbotapi.BotAPI, database *sql.DB, msg *tgbotapi.Message, firstName, lastName string, role models.Role) {
	chatID := msg.Chat.ID
	regStates.Delete(chatID)

	if err := db.SaveUser(ctx, database, chatID, msg.From.UserName, firstName, lastName, role); err != nil {
		tg.Send(bot, tgbotapi.NewMessage(chatID, "Ошибка регистрации. Попробуйте ещё раз."))
		return
	}
	// модерации нет: каждый путь регистрации сразу одобряет
	if err := db.ApproveUser(ctx, database, chatID); err != nil {
		tg.Send(bot, tgbotapi.NewMessage(chatID, "Ошибка регистрации. Попробуйте ещё раз."))
		return
	}

	out := tgbotapi.NewMessage(chatID, "✅ Регистрация успешна! Добро пожаловать!")
	out.ReplyMarkup = menu.GetRoleMenu(string(role))
	tg.Send(bot, out)

	if role == models.Student {
		tg.SendHTML(bot, chatID, format.SubmissionGuide())
	}
}
