package menu

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// GetRoleMenu возвращает меню в зависимости от роли пользователя
func GetRoleMenu(role string) tgbotapi.ReplyKeyboardMarkup {
	switch role {
	case "student":
		return studentMenu()
	case "teacher":
		return teacherMenu()
	default:
		return tgbotapi.NewReplyKeyboard() // пустое меню
	}
}

func studentMenu() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("📤 Отправить тест"),
			tgbotapi.NewKeyboardButton("📋 Мои результаты"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("🔔 Уведомления"),
			tgbotapi.NewKeyboardButton("💬 Обратная связь"),
		),
	)
}

func teacherMenu() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("📝 Тесты на проверку"),
			tgbotapi.NewKeyboardButton("📊 Статистика"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("👥 Студенты"),
			tgbotapi.NewKeyboardButton("📥 Экспорт отчёта"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("🔔 Уведомления"),
			tgbotapi.NewKeyboardButton("💬 Обратная связь"),
		),
	)
}
