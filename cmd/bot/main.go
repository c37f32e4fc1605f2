package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/Spok95/stepik-test-bot/internal/app"
	"github.com/Spok95/stepik-test-bot/internal/config"
	"github.com/Spok95/stepik-test-bot/internal/db"
	"github.com/Spok95/stepik-test-bot/internal/jobs"
	"github.com/Spok95/stepik-test-bot/internal/logging"
	"github.com/Spok95/stepik-test-bot/internal/observability"
	"github.com/Spok95/stepik-test-bot/internal/validate"
)

// version подставляется через -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Загрузка переменных окружения
	if err := godotenv.Load(); err != nil {
		log.Println("Не удалось загрузить .env файл, используем переменные окружения")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}
	// все времена в сообщениях и отчётах — в настроенном поясе (TZ)
	time.Local = cfg.Location

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("Ошибка инициализации логгера: %v", err)
	}
	defer lg.Closer()

	closeSentry, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, version)
	if err != nil {
		lg.Sugar.Warnw("sentry init", "err", err)
	} else {
		defer closeSentry()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		lg.Sugar.Fatalw("подключение к БД", "err", err)
	}
	defer database.Close()

	if err := db.Migrate(ctx, database); err != nil {
		lg.Sugar.Fatalw("миграция не удалась", "err", err)
	}
	if v, err := db.MigrationVersion(ctx, database); err == nil {
		lg.Sugar.Infow("миграции применены", "version", v)
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		lg.Sugar.Fatalw("запуск бота", "err", err)
	}
	lg.Sugar.Infow("бот запущен", "username", bot.Self.UserName, "version", version)

	checker := validate.New(cfg.StepikHost)

	app.StartHTTP(ctx, cfg, database, checker, lg.Named("http"), version)

	runner := jobs.New(ctx)
	runner.Every(time.Minute, "pending_gauge", jobs.RefreshPendingGauge(database))

	d := app.NewDispatcher(bot, database, cfg, checker, lg.Named("dispatcher"))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			lg.Sugar.Info("остановка по сигналу")
			bot.StopReceivingUpdates()
			return
		case update := <-updates:
			go d.HandleUpdate(ctx, update)
		}
	}
}
