//go:build testutil
// +build testutil

package db_test

import (
	"context"
	"testing"

	"github.com/Spok95/stepik-test-bot/internal/db"
	"github.com/Spok95/stepik-test-bot/internal/models"
	"github.com/Spok95/stepik-test-bot/internal/testutil/testdb"
)

// Полный путь студента: регистрация → одобрение → отправка теста →
// проверка преподавателем → статистика.
func TestStudentFlow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	if err := db.SaveUser(ctx, h.DB, 1001, "ivanov", "Иван", "Иванов", models.Student); err != nil {
		t.Fatal(err)
	}
	u, err := db.GetUser(ctx, h.DB, 1001)
	if err != nil {
		t.Fatal(err)
	}
	if u == nil || u.IsApproved {
		t.Fatalf("новый пользователь должен существовать и быть неодобренным: %+v", u)
	}
	if err := db.ApproveUser(ctx, h.DB, 1001); err != nil {
		t.Fatal(err)
	}

	if err := db.CreateTest(ctx, h.DB, 1001, "Иванов Иван", "12345",
		"https://stepik.org/lesson/98765/step/1", models.TestType3); err != nil {
		t.Fatal(err)
	}

	u, err = db.GetUser(ctx, h.DB, 1001)
	if err != nil {
		t.Fatal(err)
	}
	if u.StepikID == nil || *u.StepikID != "12345" {
		t.Fatalf("stepik_id не закэширован на пользователе: %+v", u.StepikID)
	}

	pending, err := db.GetPendingTests(ctx, h.DB)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("в очереди должен быть один тест, а их %d", len(pending))
	}
	if pending[0].StudentID != 1001 || pending[0].Username != "ivanov" {
		t.Fatalf("очередь вернула не того студента: %+v", pending[0])
	}

	if err := db.ReviewTest(ctx, h.DB, pending[0].ID, 3, "Отличная работа"); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetTest(ctx, h.DB, pending[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsReviewed || got.Score != 3 || got.ReviewedAt == nil {
		t.Fatalf("тест не отмечен проверенным: %+v", got)
	}
	if got.TeacherComment == nil || *got.TeacherComment != "Отличная работа" {
		t.Fatalf("комментарий потерян: %+v", got.TeacherComment)
	}

	stats, err := db.GetStatistics(ctx, h.DB)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalStudents != 1 || stats.TotalTests != 1 || stats.ReviewedTests != 1 {
		t.Fatalf("неожиданная статистика: %+v", stats)
	}
	if stats.PendingTests != 0 {
		t.Fatalf("очередь должна быть пустой: %+v", stats)
	}
	if stats.AverageScore != 3.0 {
		t.Fatalf("средний балл должен быть 3.0, а он %v", stats.AverageScore)
	}

	n, err := db.CountPendingTests(ctx, h.DB)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("CountPendingTests после проверки: %d", n)
	}
}

// Повторный /start перезаписывает профиль, но не сбрасывает одобрение.
func TestSaveUser_ReRegistrationKeepsApproval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	if err := db.SaveUser(ctx, h.DB, 2001, "petrov", "Пётр", "Петров", models.Student); err != nil {
		t.Fatal(err)
	}
	if err := db.ApproveUser(ctx, h.DB, 2001); err != nil {
		t.Fatal(err)
	}

	if err := db.SaveUser(ctx, h.DB, 2001, "petrov_new", "Пётр", "Петров", models.Teacher); err != nil {
		t.Fatal(err)
	}

	u, err := db.GetUser(ctx, h.DB, 2001)
	if err != nil {
		t.Fatal(err)
	}
	if u.Username != "petrov_new" || u.Role != models.Teacher {
		t.Fatalf("профиль не обновился: %+v", u)
	}
	if !u.IsApproved {
		t.Fatal("одобрение сброшено при повторной регистрации")
	}
}

func TestCreateUserIfAbsent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	created, err := db.CreateUserIfAbsent(ctx, h.DB, 3001, "sidorov", "Сидор", "Сидоров", models.Student)
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Fatal("первая вставка должна создать пользователя")
	}

	created, err = db.CreateUserIfAbsent(ctx, h.DB, 3001, "other", "Другой", "Другов", models.Teacher)
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Fatal("повторная вставка не должна трогать существующего")
	}
	u, _ := db.GetUser(ctx, h.DB, 3001)
	if u.Username != "sidorov" || u.Role != models.Student {
		t.Fatalf("существующий пользователь перезаписан: %+v", u)
	}

	id, err := db.NewStudentID(ctx, h.DB)
	if err != nil {
		t.Fatal(err)
	}
	if id < 100000 || id > 999999 {
		t.Fatalf("сгенерированный ID вне диапазона: %d", id)
	}
}

func TestGetStudentsScores(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	for _, id := range []int64{4001, 4002} {
		if err := db.SaveUser(ctx, h.DB, id, "student", "Имя", "Фамилия", models.Student); err != nil {
			t.Fatal(err)
		}
		if err := db.ApproveUser(ctx, h.DB, id); err != nil {
			t.Fatal(err)
		}
	}

	// У 4001 два проверенных теста, у 4002 один без проверки.
	mustTest := func(studentID int64, name string) {
		t.Helper()
		if err := db.CreateTest(ctx, h.DB, studentID, name, "54321",
			"https://stepik.org/lesson/1/step/1", models.TestType5); err != nil {
			t.Fatal(err)
		}
	}

	mustTest(4001, "Иванов Иван")
	mustTest(4001, "Иванов Иван")
	mustTest(4002, "Петров Пётр")

	tests, err := db.GetStudentTests(ctx, h.DB, 4001)
	if err != nil {
		t.Fatal(err)
	}
	if len(tests) != 2 {
		t.Fatalf("у 4001 должно быть два теста: %d", len(tests))
	}
	if err := db.ReviewTest(ctx, h.DB, tests[0].ID, 5, ""); err != nil {
		t.Fatal(err)
	}
	if err := db.ReviewTest(ctx, h.DB, tests[1].ID, 4, ""); err != nil {
		t.Fatal(err)
	}

	scores, err := db.GetStudentsScores(ctx, h.DB)
	if err != nil {
		t.Fatal(err)
	}
	if len(scores) != 2 {
		t.Fatalf("ожидались два студента, а их %d", len(scores))
	}
	// Сортировка по сумме баллов: первым идёт 4001.
	if scores[0].UserID != 4001 || scores[0].TotalScore != 9 {
		t.Fatalf("неверный лидер рейтинга: %+v", scores[0])
	}
	if scores[0].TotalTests != 2 || scores[0].ReviewedTests != 2 {
		t.Fatalf("неверные счётчики у лидера: %+v", scores[0])
	}
	if scores[0].FullName != "Иванов Иван" {
		t.Fatalf("ФИО должно браться из последней отправки: %q", scores[0].FullName)
	}
	if scores[1].UserID != 4002 || scores[1].TotalScore != 0 || scores[1].ReviewedTests != 0 {
		t.Fatalf("неверная строка второго студента: %+v", scores[1])
	}
}

func TestFeedbackAndNotifications(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	if err := db.SaveUser(ctx, h.DB, 5001, "student", "Иван", "Иванов", models.Student); err != nil {
		t.Fatal(err)
	}

	rating := 5
	if err := db.SubmitFeedback(ctx, h.DB, 5001, models.FeedbackRating, "Всё отлично", &rating); err != nil {
		t.Fatal(err)
	}
	if err := db.SubmitFeedback(ctx, h.DB, 5001, models.FeedbackBug, "Кнопка не работает", nil); err != nil {
		t.Fatal(err)
	}

	bad := 7
	if err := db.SubmitFeedback(ctx, h.DB, 5001, models.FeedbackRating, "?", &bad); err == nil {
		t.Fatal("оценка вне 1..5 должна отклоняться")
	}

	stats, err := db.GetFeedbackStats(ctx, h.DB)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 2 || stats.Unprocessed != 2 {
		t.Fatalf("неожиданная сводка: %+v", stats)
	}
	if stats.ByType["bug"] != 1 || stats.ByType["rating"] != 1 {
		t.Fatalf("неверная разбивка по типам: %+v", stats.ByType)
	}
	if stats.AverageRating != 5.0 {
		t.Fatalf("средняя оценка должна быть 5.0: %v", stats.AverageRating)
	}

	unprocessed, err := db.ListUnprocessedFeedback(ctx, h.DB, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(unprocessed) != 2 {
		t.Fatalf("необработанных должно быть два: %d", len(unprocessed))
	}
	if err := db.MarkFeedbackProcessed(ctx, h.DB, unprocessed[0].ID); err != nil {
		t.Fatal(err)
	}
	stats, _ = db.GetFeedbackStats(ctx, h.DB)
	if stats.Unprocessed != 1 {
		t.Fatalf("после обработки остаться должен один: %+v", stats)
	}

	// Уведомления: свежие первыми, отметка о прочтении скрывает из непрочитанных.
	for i := 0; i < 12; i++ {
		if err := db.SendNotification(ctx, h.DB, 5001, "сообщение", models.NotifyInfo); err != nil {
			t.Fatal(err)
		}
	}
	notifs, err := db.GetUserNotifications(ctx, h.DB, 5001, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(notifs) != 10 {
		t.Fatalf("выдача должна быть ограничена десятью: %d", len(notifs))
	}
	if err := db.MarkNotificationsRead(ctx, h.DB, 5001); err != nil {
		t.Fatal(err)
	}
	notifs, err = db.GetUserNotifications(ctx, h.DB, 5001, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(notifs) != 0 {
		t.Fatalf("после отметки непрочитанных быть не должно: %d", len(notifs))
	}
	all, err := db.GetUserNotifications(ctx, h.DB, 5001, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 10 {
		t.Fatalf("полная выдача тоже ограничена десятью: %d", len(all))
	}
}

func TestSettings(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	v, err := db.GetSetting(ctx, h.DB, "greeting")
	if err != nil {
		t.Fatal(err)
	}
	if v != "" {
		t.Fatalf("отсутствующий ключ должен давать пустую строку: %q", v)
	}

	if err := db.SetSetting(ctx, h.DB, "greeting", "Привет"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetSetting(ctx, h.DB, "greeting", "Здравствуйте"); err != nil {
		t.Fatal(err)
	}
	v, err = db.GetSetting(ctx, h.DB, "greeting")
	if err != nil {
		t.Fatal(err)
	}
	if v != "Здравствуйте" {
		t.Fatalf("upsert не обновил значение: %q", v)
	}
}
