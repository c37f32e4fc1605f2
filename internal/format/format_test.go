package format

import (
	"strings"
	"testing"
	"time"

	"github.com/Spok95/stepik-test-bot/internal/models"
)

func TestGradeLabel(t *testing.T) {
	cases := []struct {
		score, max int
		want       string
	}{
		{5, 5, "Отлично"},          // 100%
		{9, 10, "Отлично"},         // ровно 90
		{4, 5, "Хорошо"},           // 80
		{7, 10, "Удовлетворительно"},
		{3, 5, "Неудовлетворительно"}, // 60
		{0, 5, "Неудовлетворительно"},
	}
	for _, c := range cases {
		got := GradeLabel(c.score, c.max)
		if !strings.Contains(got, c.want) {
			t.Errorf("GradeLabel(%d, %d) = %q, ожидали %q", c.score, c.max, got, c.want)
		}
	}
	if GradeLabel(3, 0) != "0%" {
		t.Error("деление на ноль: при max=0 ожидали \"0%\"")
	}
}

func TestProgressBar(t *testing.T) {
	if got := ProgressBar(0, 0, 10); got != "░░░░░░░░░░" {
		t.Errorf("пустой прогресс: %q", got)
	}
	if got := ProgressBar(5, 10, 10); !strings.HasPrefix(got, "█████░░░░░") {
		t.Errorf("половина: %q", got)
	}
	if got := ProgressBar(10, 10, 10); !strings.HasPrefix(got, "██████████") {
		t.Errorf("полный: %q", got)
	}
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "только что"},
		{5 * time.Minute, "5 мин. назад"},
		{3 * time.Hour, "3 ч. назад"},
		{49 * time.Hour, "2 дн. назад"},
	}
	for _, c := range cases {
		if got := TimeAgo(now.Add(-c.d), now); got != c.want {
			t.Errorf("TimeAgo(-%v) = %q, ожидали %q", c.d, got, c.want)
		}
	}
}

func TestReviewFeedback(t *testing.T) {
	msg := ReviewFeedback(5, 5, "молодец")
	if !strings.Contains(msg, "5/5") || !strings.Contains(msg, "молодец") {
		t.Errorf("нет оценки или комментария: %q", msg)
	}
	if !strings.Contains(msg, "Отличная работа") {
		t.Errorf("нет мотивации за максимум: %q", msg)
	}

	msg = ReviewFeedback(1, 5, "")
	if strings.Contains(msg, "Комментарий преподавателя") {
		t.Errorf("пустой комментарий не должен печататься: %q", msg)
	}
}

func TestStatisticsSummary(t *testing.T) {
	s := models.Statistics{TotalStudents: 2, TotalTests: 4, ReviewedTests: 3, PendingTests: 1, AverageScore: 4.33}
	out := StatisticsSummary(s)
	for _, want := range []string{"Студентов: 2", "Всего тестов: 4", "Оценено: 3", "Ожидает: 1", "4.33"} {
		if !strings.Contains(out, want) {
			t.Errorf("в сводке нет %q:\n%s", want, out)
		}
	}
}
