package app

import (
	"context"
	"database/sql"
	"strings"

	"github.com/Spok95/stepik-test-bot/internal/bot/handlers"
	"github.com/Spok95/stepik-test-bot/internal/config"
	"github.com/Spok95/stepik-test-bot/internal/ctxutil"
	"github.com/Spok95/stepik-test-bot/internal/db"
	"github.com/Spok95/stepik-test-bot/internal/metrics"
	"github.com/Spok95/stepik-test-bot/internal/tg"
	"github.com/Spok95/stepik-test-bot/internal/validate"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Dispatcher — маршрутизация апдейтов. Стор и конфиг передаются явно при
// создании: никаких глобальных синглтонов.
type Dispatcher struct {
	bot     *tgbotapi.BotAPI
	db      *sql.DB
	cfg     *config.Config
	checker *validate.Checker
	limiter *ChatLimiter
	log     *zap.SugaredLogger
}

func NewDispatcher(bot *tgbotapi.BotAPI, database *sql.DB, cfg *config.Config, checker *validate.Checker, log *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{
		bot:     bot,
		db:      database,
		cfg:     cfg,
		checker: checker,
		limiter: NewChatLimiter(),
		log:     log,
	}
}

func (d *Dispatcher) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	metrics.BotUpdates.Inc()

	switch {
	case update.CallbackQuery != nil:
		d.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		d.handleMessage(ctx, update.Message)
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	unlock := d.limiter.lock(chatID)
	defer unlock()

	ctx = ctxutil.WithChatID(ctx, chatID)
	text := normalizeCommand(msg.Text)

	if text == "/start" {
		handlers.HandleStart(ctx, d.bot, d.db, msg)
		return
	}

	// режим обслуживания: админы управляют, остальных не пускаем
	if strings.HasPrefix(text, "/maintenance") && d.cfg.IsAdminID(chatID) {
		d.handleMaintenance(ctx, chatID, text)
		return
	}
	if v, err := db.GetSetting(ctx, d.db, "maintenance"); err == nil && v == "on" && !d.cfg.IsAdminID(chatID) {
		tg.Send(d.bot, tgbotapi.NewMessage(chatID, "🔧 Бот временно на обслуживании. Попробуйте позже."))
		return
	}

	// активные сценарии обрабатывают текст первыми
	if handlers.GetRegState(chatID) != nil {
		handlers.HandleRegText(ctx, d.bot, d.db, d.cfg, msg)
		return
	}
	if handlers.GetSubmitState(chatID) != nil {
		handlers.HandleSubmitText(ctx, d.bot, d.db, d.checker, msg)
		return
	}
	if handlers.GetReviewState(chatID) != nil {
		handlers.HandleReviewText(ctx, d.bot, d.db, msg)
		return
	}
	if handlers.GetFeedbackState(chatID) != nil {
		handlers.HandleFeedbackText(ctx, d.bot, d.db, msg)
		return
	}

	switch text {
	case "/submit", "📤 Отправить тест":
		handlers.StartSubmitFSM(ctx, d.bot, d.db, msg)
	case "/results", "📋 Мои результаты":
		handlers.HandleMyResults(ctx, d.bot, d.db, msg)
	case "/pending", "📝 Тесты на проверку":
		handlers.StartReviewFSM(ctx, d.bot, d.db, msg)
	case "/stats", "📊 Статистика":
		handlers.HandleStats(ctx, d.bot, d.db, msg)
	case "/students", "👥 Студенты":
		handlers.HandleStudentsList(ctx, d.bot, d.db, msg)
	case "/export", "📥 Экспорт отчёта":
		handlers.HandleExport(ctx, d.bot, d.db, msg)
	case "/notifications", "🔔 Уведомления":
		handlers.HandleNotifications(ctx, d.bot, d.db, msg)
	case "/feedback", "💬 Обратная связь":
		handlers.StartFeedbackFSM(ctx, d.bot, d.db, msg)
	case "/feedback_stats":
		if d.cfg.IsAdminID(chatID) {
			handlers.HandleFeedbackStats(ctx, d.bot, d.db, msg)
		}
	default:
		tg.Send(d.bot, tgbotapi.NewMessage(chatID, "⚠️ Неизвестная команда. Используйте /start"))
	}
}

// normalizeCommand убирает адресацию "@имябота" из команды: в группах
// Telegram присылает "/start@StepikTestBot".
func normalizeCommand(text string) string {
	if !strings.HasPrefix(text, "/") {
		return text
	}
	cmd, rest, hasArgs := strings.Cut(text, " ")
	if at := strings.Index(cmd, "@"); at != -1 {
		cmd = cmd[:at]
	}
	if hasArgs {
		return cmd + " " + rest
	}
	return cmd
}

func (d *Dispatcher) handleMaintenance(ctx context.Context, chatID int64, text string) {
	switch strings.TrimSpace(strings.TrimPrefix(text, "/maintenance")) {
	case "on":
		if err := db.SetSetting(ctx, d.db, "maintenance", "on"); err != nil {
			tg.Send(d.bot, tgbotapi.NewMessage(chatID, "Не удалось включить режим обслуживания."))
			return
		}
		tg.Send(d.bot, tgbotapi.NewMessage(chatID, "🔧 Режим обслуживания включён."))
	case "off":
		if err := db.SetSetting(ctx, d.db, "maintenance", "off"); err != nil {
			tg.Send(d.bot, tgbotapi.NewMessage(chatID, "Не удалось выключить режим обслуживания."))
			return
		}
		tg.Send(d.bot, tgbotapi.NewMessage(chatID, "✅ Режим обслуживания выключен."))
	default:
		v, _ := db.GetSetting(ctx, d.db, "maintenance")
		if v == "" {
			v = "off"
		}
		tg.Send(d.bot, tgbotapi.NewMessage(chatID, "Режим обслуживания: "+v+". Используйте /maintenance on|off."))
	}
}

func (d *Dispatcher) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil {
		return
	}
	chatID := cq.Message.Chat.ID
	unlock := d.limiter.lock(chatID)
	defer unlock()

	ctx = ctxutil.WithChatID(ctx, chatID)
	data := cq.Data
	d.log.Debugw("callback", "chat_id", chatID, "data", data)

	switch {
	case strings.HasPrefix(data, "role_"):
		handlers.HandleRegCallback(ctx, d.bot, d.db, cq)
	case strings.HasPrefix(data, "submit_"):
		handlers.HandleSubmitCallback(ctx, d.bot, d.db, d.checker, cq)
	case strings.HasPrefix(data, "review_"):
		handlers.HandleReviewCallback(ctx, d.bot, d.db, cq)
	case strings.HasPrefix(data, "feedback_"), strings.HasPrefix(data, "rating_"):
		handlers.HandleFeedbackCallback(ctx, d.bot, d.db, cq)
	case strings.HasPrefix(data, "fbdone_"):
		if d.cfg.IsAdminID(cq.From.ID) {
			handlers.HandleFeedbackDoneCallback(ctx, d.bot, d.db, cq)
		}
	default:
		tg.Request(d.bot, tgbotapi.NewCallback(cq.ID, ""))
	}
}
