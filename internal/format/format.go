// Package format — текстовое оформление для бота: оценки, прогресс, сводки.
// Только отображение, ничего не сохраняется.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/Spok95/stepik-test-bot/internal/models"
)

// GradeLabel — словесная оценка по проценту набранных баллов.
// Пороги 90/80/70, ниже — «Неудовлетворительно».
func GradeLabel(score, maxScore int) string {
	if maxScore == 0 {
		return "0%"
	}
	p := float64(score) / float64(maxScore) * 100
	switch {
	case p >= 90:
		return fmt.Sprintf("%.1f%% (Отлично)", p)
	case p >= 80:
		return fmt.Sprintf("%.1f%% (Хорошо)", p)
	case p >= 70:
		return fmt.Sprintf("%.1f%% (Удовлетворительно)", p)
	default:
		return fmt.Sprintf("%.1f%% (Неудовлетворительно)", p)
	}
}

// ScoreEmoji — значок к оценке.
func ScoreEmoji(score, maxScore int) string {
	if maxScore == 0 {
		return "❌"
	}
	p := float64(score) / float64(maxScore) * 100
	switch {
	case p >= 90:
		return "🌟"
	case p >= 80:
		return "✅"
	case p >= 70:
		return "👍"
	case p >= 50:
		return "⚠️"
	default:
		return "❌"
	}
}

// ProgressBar — █░-полоска длиной length с процентом.
func ProgressBar(current, total, length int) string {
	if total == 0 {
		return strings.Repeat("░", length)
	}
	filled := current * length / total
	p := float64(current) / float64(total) * 100
	return strings.Repeat("█", filled) + strings.Repeat("░", length-filled) + fmt.Sprintf(" %.1f%%", p)
}

// TimeAgo — «N дн. назад» и т.п.
func TimeAgo(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%d дн. назад", int(d.Hours())/24)
	case d >= time.Hour:
		return fmt.Sprintf("%d ч. назад", int(d.Hours()))
	case d >= time.Minute:
		return fmt.Sprintf("%d мин. назад", int(d.Minutes()))
	default:
		return "только что"
	}
}

func DateTime(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}

// StatisticsSummary — сводка для преподавателя.
func StatisticsSummary(s models.Statistics) string {
	var b strings.Builder
	b.WriteString("📊 <b>Сводка статистики</b>\n\n")
	fmt.Fprintf(&b, "👥 Студентов: %d\n", s.TotalStudents)
	fmt.Fprintf(&b, "📝 Всего тестов: %d\n", s.TotalTests)
	fmt.Fprintf(&b, "✅ Оценено: %d\n", s.ReviewedTests)
	fmt.Fprintf(&b, "⏳ Ожидает: %d\n\n", s.PendingTests)
	fmt.Fprintf(&b, "📈 Прогресс: %s\n", ProgressBar(s.ReviewedTests, s.TotalTests, 10))
	fmt.Fprintf(&b, "📊 Средний балл: %.2f\n", s.AverageScore)
	return b.String()
}

// ReviewFeedback — сообщение студенту после проверки работы.
func ReviewFeedback(score, maxScore int, comment string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>Ваша оценка: %d/%d</b>\n", ScoreEmoji(score, maxScore), score, maxScore)
	fmt.Fprintf(&b, "📊 %s\n", GradeLabel(score, maxScore))
	if comment != "" {
		fmt.Fprintf(&b, "\n💬 <b>Комментарий преподавателя:</b>\n%s\n", comment)
	}
	switch {
	case score == maxScore:
		b.WriteString("\n🎉 Отличная работа! Продолжайте в том же духе!")
	case float64(score) >= float64(maxScore)*0.8:
		b.WriteString("\n👍 Хорошая работа! Есть небольшие недочеты.")
	case float64(score) >= float64(maxScore)*0.6:
		b.WriteString("\n📚 Неплохо, но есть над чем поработать.")
	default:
		b.WriteString("\n💪 Не расстраивайтесь! Изучите материал еще раз и попробуйте снова.")
	}
	return b.String()
}

// SubmissionGuide — инструкция для студента перед отправкой.
func SubmissionGuide() string {
	return `📤 <b>Как отправить тест:</b>

Бот спросит по шагам:
• ФИО — минимум имя и фамилия
• ID Степика — числовой идентификатор (от 3 цифр)
• Ссылка на тест — с stepik.org
• Тип теста — 3 или 5 баллов

<b>Примеры ссылок:</b>
• https://stepik.org/lesson/123456/step/1
• https://stepik.org/course/789012/step/2`
}
