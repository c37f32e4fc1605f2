package app

import "testing"

func TestNormalizeCommand(t *testing.T) {
	cases := []struct{ in, want string }{
		{"/start", "/start"},
		{"/start@StepikTestBot", "/start"}, // групповая адресация
		{"/maintenance@StepikTestBot on", "/maintenance on"},
		{"/maintenance on", "/maintenance on"},
		{"/feedback_stats@StepikTestBot", "/feedback_stats"},
		{"📤 Отправить тест", "📤 Отправить тест"},
		{"текст с @упоминанием", "текст с @упоминанием"},
		{"", ""},
	}
	for _, c := range cases {
		if got := normalizeCommand(c.in); got != c.want {
			t.Errorf("normalizeCommand(%q) = %q, ожидали %q", c.in, got, c.want)
		}
	}
}
