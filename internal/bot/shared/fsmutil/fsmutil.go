package fsmutil

import (
	"strings"

	"github.com/Spok95/stepik-test-bot/internal/metrics"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// DisableMarkup «гасит» inline-клавиатуру у сообщения (one-shot клавиатура).
// Вызываем сразу после обработки callback'а, чтобы предотвратить повторные клики.
func DisableMarkup(bot *tgbotapi.BotAPI, chatID int64, messageID int) {
	empty := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: make([][]tgbotapi.InlineKeyboardButton, 0)}
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, empty)
	if _, err := bot.Send(edit); err != nil {
		metrics.HandlerErrors.Inc()
	}
}

// CancelRow — готовая строка с кнопкой «Отмена».
func CancelRow(cancelData string) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", cancelData),
	)
}

// IsCancelText — «текстовая» отмена на шагах, где пользователь вводит текст.
func IsCancelText(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	return s == "отмена" || s == "/cancel" || s == "cancel"
}
