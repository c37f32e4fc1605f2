package db

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/Spok95/stepik-test-bot/internal/ctxutil"
	"github.com/Spok95/stepik-test-bot/internal/models"
)

// CreateTest — новая работа на проверку. Форму валидирует вызывающий (validate);
// здесь остаются только CHECK-и схемы.
func CreateTest(ctx context.Context, database *sql.DB, studentID int64, fullName, stepikID, testURL, testType string) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `
INSERT INTO tests (student_id, full_name, stepik_id, test_url, test_type)
VALUES ($1, $2, $3, $4, $5)`,
		studentID, fullName, stepikID, testURL, testType)
	if err != nil {
		log.Println("Ошибка добавления теста:", err)
		return err
	}

	// кэшируем актуальный stepik_id на пользователе (см. миграцию 0003)
	if _, err := database.ExecContext(ctx, `
UPDATE users SET stepik_id = $2 WHERE user_id = $1`, studentID, stepikID); err != nil {
		log.Println("Ошибка обновления stepik_id пользователя:", err)
	}
	return nil
}

// GetPendingTests — все непроверенные работы, новые сверху, с данными отправителя.
func GetPendingTests(ctx context.Context, database *sql.DB) ([]models.TestWithStudent, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
SELECT t.id, t.student_id, t.full_name, t.stepik_id, t.test_url, t.test_type,
       t.submitted_at, t.is_reviewed, t.score, t.teacher_comment, t.reviewed_at,
       u.username, u.first_name, u.last_name
FROM tests t
JOIN users u ON t.student_id = u.user_id
WHERE NOT t.is_reviewed
ORDER BY t.submitted_at DESC`)
	if err != nil {
		log.Println("Ошибка получения тестов на проверку:", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.TestWithStudent
	for rows.Next() {
		var t models.TestWithStudent
		if err := rows.Scan(&t.ID, &t.StudentID, &t.FullName, &t.StepikID, &t.TestURL, &t.TestType,
			&t.SubmittedAt, &t.IsReviewed, &t.Score, &t.TeacherComment, &t.ReviewedAt,
			&t.Username, &t.FirstName, &t.LastName); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTest — одна работа по ID; (nil, nil) если такой нет.
func GetTest(ctx context.Context, database *sql.DB, testID int64) (*models.Test, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	row := database.QueryRowContext(ctx, `
SELECT id, student_id, full_name, stepik_id, test_url, test_type,
       submitted_at, is_reviewed, score, teacher_comment, reviewed_at
FROM tests WHERE id = $1`, testID)

	var t models.Test
	err := row.Scan(&t.ID, &t.StudentID, &t.FullName, &t.StepikID, &t.TestURL, &t.TestType,
		&t.SubmittedAt, &t.IsReviewed, &t.Score, &t.TeacherComment, &t.ReviewedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Println("Ошибка получения теста:", err)
		return nil, err
	}
	return &t, nil
}

// ReviewTest выставляет оценку. Соответствие score типу теста проверяет вызывающий.
func ReviewTest(ctx context.Context, database *sql.DB, testID int64, score int, comment string) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `
UPDATE tests
SET is_reviewed = TRUE, score = $2, teacher_comment = $3, reviewed_at = now()
WHERE id = $1`, testID, score, comment)
	if err != nil {
		log.Println("Ошибка оценки теста:", err)
	}
	return err
}

// GetStudentTests — история работ студента, новые сверху.
func GetStudentTests(ctx context.Context, database *sql.DB, studentID int64) ([]models.Test, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
SELECT id, student_id, full_name, stepik_id, test_url, test_type,
       submitted_at, is_reviewed, score, teacher_comment, reviewed_at
FROM tests WHERE student_id = $1
ORDER BY submitted_at DESC`, studentID)
	if err != nil {
		log.Println("Ошибка получения тестов студента:", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.Test
	for rows.Next() {
		var t models.Test
		if err := rows.Scan(&t.ID, &t.StudentID, &t.FullName, &t.StepikID, &t.TestURL, &t.TestType,
			&t.SubmittedAt, &t.IsReviewed, &t.Score, &t.TeacherComment, &t.ReviewedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CountPendingTests — для gauge в метриках.
func CountPendingTests(ctx context.Context, database *sql.DB) (int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var n int
	err := database.QueryRowContext(ctx, `SELECT COUNT(*) FROM tests WHERE NOT is_reviewed`).Scan(&n)
	return n, err
}
