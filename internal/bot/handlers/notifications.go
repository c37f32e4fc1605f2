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

var notifyEmoji = map[models.NotificationType]string{
	models.NotifyInfo:    "ℹ️",
	models.NotifyWarning: "⚠️",
	models.NotifySuccess: "✅",
	models.NotifyError:   "❌",
}

// HandleNotifications — «🔔 Уведомления»: показываем непрочитанные и помечаем
// их прочитанными, чтобы они не возвращались при каждом запросе.
func HandleNotifications(ctx context.Context, bot *tgbotapi.BotAPI, database *sql.DB, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	user, err := db.GetUser(ctx, database, chatID)
	if err != nil || user == nil || !user.IsApproved {
		tg.Send(bot, tgbotapi.NewMessage(chatID, "❌ Вы не зарегистрированы. Нажмите /start."))
		return
	}

	notifications, err := db.GetUserNotifications(ctx, database, chatID, true)
	if err != nil {
		tg.Send(bot, tgbotapi.NewMessage(chatID, "Не удалось получить уведомления. Попробуйте позже."))
		return
	}
	if len(notifications) == 0 {
		tg.Send(bot, tgbotapi.NewMessage(chatID, "🔔 У вас нет новых уведомлений."))
		return
	}

	var b strings.Builder
	b.WriteString("🔔 <b>Ваши уведомления:</b>\n\n")
	for _, n := range notifications {
		emoji, ok := notifyEmoji[n.Type]
		if !ok {
			emoji = "📢"
		}
		fmt.Fprintf(&b, "%s %s\n📅 %s\n\n", emoji, n.Message, format.DateTime(n.CreatedAt))
	}
	tg.SendHTML(bot, chatID, b.String())

	_ = db.MarkNotificationsRead(ctx, database, chatID)
}
