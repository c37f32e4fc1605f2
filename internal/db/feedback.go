package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/Spok95/stepik-test-bot/internal/ctxutil"
	"github.com/Spok95/stepik-test-bot/internal/models"
)

// SubmitFeedback — отзыв пользователя. Рейтинг проверяем до вставки, чтобы
// отдать понятную ошибку, а не нарушение CHECK-а.
func SubmitFeedback(ctx context.Context, database *sql.DB, userID int64, ft models.FeedbackType, message string, rating *int) error {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return fmt.Errorf("рейтинг должен быть от 1 до 5, получен %d", *rating)
	}

	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `
INSERT INTO feedback (user_id, feedback_type, message, rating)
VALUES ($1, $2, $3, $4)`, userID, string(ft), message, rating)
	if err != nil {
		log.Println("Ошибка отправки отзыва:", err)
	}
	return err
}

// GetFeedbackStats — сводка по отзывам: всего, по типам, средний рейтинг
// (по отзывам с рейтингом), необработанные.
func GetFeedbackStats(ctx context.Context, database *sql.DB) (models.FeedbackStats, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	stats := models.FeedbackStats{ByType: make(map[string]int)}

	err := database.QueryRowContext(ctx, `
SELECT COUNT(*),
       COALESCE(AVG(rating) FILTER (WHERE rating IS NOT NULL), 0),
       COUNT(*) FILTER (WHERE NOT is_processed)
FROM feedback`).Scan(&stats.Total, &stats.AverageRating, &stats.Unprocessed)
	if err != nil {
		log.Println("Ошибка получения статистики отзывов:", err)
		return models.FeedbackStats{}, err
	}

	rows, err := database.QueryContext(ctx, `
SELECT feedback_type, COUNT(*) FROM feedback GROUP BY feedback_type`)
	if err != nil {
		log.Println("Ошибка получения статистики отзывов:", err)
		return models.FeedbackStats{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var ft string
		var n int
		if err := rows.Scan(&ft, &n); err != nil {
			return models.FeedbackStats{}, err
		}
		stats.ByType[ft] = n
	}
	return stats, rows.Err()
}

// ListUnprocessedFeedback — необработанные отзывы для админского разбора.
func ListUnprocessedFeedback(ctx context.Context, database *sql.DB, limit int) ([]models.Feedback, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
SELECT id, user_id, feedback_type, message, rating, is_processed, created_at
FROM feedback WHERE NOT is_processed
ORDER BY created_at
LIMIT $1`, limit)
	if err != nil {
		log.Println("Ошибка получения отзывов:", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.Feedback
	for rows.Next() {
		var f models.Feedback
		if err := rows.Scan(&f.ID, &f.UserID, &f.Type, &f.Message, &f.Rating, &f.IsProcessed, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// MarkFeedbackProcessed — отзыв разобран.
func MarkFeedbackProcessed(ctx context.Context, database *sql.DB, feedbackID int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `UPDATE feedback SET is_processed = TRUE WHERE id = $1`, feedbackID)
	if err != nil {
		log.Println("Ошибка отметки отзыва:", err)
	}
	return err
}

// SendNotification — запись в журнал уведомлений. Доставка — только при
// следующем запросе пользователя (/notifications), пушей нет.
func SendNotification(ctx context.Context, database *sql.DB, userID int64, message string, nt models.NotificationType) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `
INSERT INTO notifications (user_id, message, notification_type)
VALUES ($1, $2, $3)`, userID, message, string(nt))
	if err != nil {
		log.Println("Ошибка отправки уведомления:", err)
	}
	return err
}

// GetUserNotifications — до 10 уведомлений, новые сверху.
func GetUserNotifications(ctx context.Context, database *sql.DB, userID int64, unreadOnly bool) ([]models.Notification, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	q := `
SELECT id, user_id, message, notification_type, is_read, created_at
FROM notifications WHERE user_id = $1`
	if unreadOnly {
		q += ` AND NOT is_read`
	}
	q += ` ORDER BY created_at DESC LIMIT 10`

	rows, err := database.QueryContext(ctx, q, userID)
	if err != nil {
		log.Println("Ошибка получения уведомлений:", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Type, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkNotificationRead — одно уведомление прочитано.
func MarkNotificationRead(ctx context.Context, database *sql.DB, notificationID int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, notificationID)
	if err != nil {
		log.Println("Ошибка отметки уведомления:", err)
	}
	return err
}

// MarkNotificationsRead — всё показанное пользователю помечаем прочитанным.
func MarkNotificationsRead(ctx context.Context, database *sql.DB, userID int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		log.Println("Ошибка отметки уведомлений:", err)
	}
	return err
}
