package db

import (
	"context"
	"database/sql"
	"log"

	"github.com/Spok95/stepik-test-bot/internal/ctxutil"
	"github.com/Spok95/stepik-test-bot/internal/models"
)

// GetStatistics — сводка по всей системе. Средний балл считается только по
// проверенным работам; без проверенных работ он равен 0 (а не NULL).
func GetStatistics(ctx context.Context, database *sql.DB) (models.Statistics, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var s models.Statistics
	err := database.QueryRowContext(ctx, `
SELECT
    (SELECT COUNT(*) FROM users WHERE role = 'student' AND is_approved),
    (SELECT COUNT(*) FROM tests),
    (SELECT COUNT(*) FROM tests WHERE is_reviewed),
    (SELECT COALESCE(AVG(score), 0) FROM tests WHERE is_reviewed)`,
	).Scan(&s.TotalStudents, &s.TotalTests, &s.ReviewedTests, &s.AverageScore)
	if err != nil {
		log.Println("Ошибка получения статистики:", err)
		return models.Statistics{}, err
	}
	s.PendingTests = s.TotalTests - s.ReviewedTests
	return s, nil
}

// GetStudentsScores — рейтинг одобренных студентов по сумме баллов за проверенные
// работы. Имя берём из последней отправленной работы (канонического поля имени
// в users нет). Равные суммы упорядочиваем по user_id.
func GetStudentsScores(ctx context.Context, database *sql.DB) ([]models.StudentScore, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
SELECT u.user_id,
       COALESCE((SELECT t2.full_name FROM tests t2
                 WHERE t2.student_id = u.user_id
                 ORDER BY t2.submitted_at DESC LIMIT 1), 'Не указано'),
       COALESCE(SUM(t.score) FILTER (WHERE t.is_reviewed), 0),
       COUNT(t.id),
       COUNT(t.id) FILTER (WHERE t.is_reviewed)
FROM users u
LEFT JOIN tests t ON t.student_id = u.user_id
WHERE u.role = 'student' AND u.is_approved
GROUP BY u.user_id
ORDER BY 3 DESC, u.user_id`)
	if err != nil {
		log.Println("Ошибка получения баллов студентов:", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.StudentScore
	for rows.Next() {
		var s models.StudentScore
		if err := rows.Scan(&s.UserID, &s.FullName, &s.TotalScore, &s.TotalTests, &s.ReviewedTests); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
