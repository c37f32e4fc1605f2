package db

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"math/rand"

	"github.com/Spok95/stepik-test-bot/internal/ctxutil"
	"github.com/Spok95/stepik-test-bot/internal/models"
)

// SaveUser — регистрация пользователя. Повторная регистрация перезаписывает
// профиль целиком (username, имя, роль), но НЕ трогает is_approved: одобрение
// живёт отдельной операцией ApproveUser.
func SaveUser(ctx context.Context, database *sql.DB, id int64, username, firstName, lastName string, role models.Role) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `
INSERT INTO users (user_id, username, first_name, last_name, role)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id) DO UPDATE
SET username   = excluded.username,
    first_name = excluded.first_name,
    last_name  = excluded.last_name,
    role       = excluded.role`,
		id, username, firstName, lastName, string(role))
	if err != nil {
		log.Println("Ошибка сохранения пользователя:", err)
	}
	return err
}

// CreateUserIfAbsent — вставка без перезаписи. Возвращает true, если строка создана.
func CreateUserIfAbsent(ctx context.Context, database *sql.DB, id int64, username, firstName, lastName string, role models.Role) (bool, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := database.ExecContext(ctx, `
INSERT INTO users (user_id, username, first_name, last_name, role)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id) DO NOTHING`,
		id, username, firstName, lastName, string(role))
	if err != nil {
		log.Println("Ошибка создания пользователя:", err)
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// UpdateProfile — обновление только полей профиля (роль и одобрение не трогаем).
func UpdateProfile(ctx context.Context, database *sql.DB, id int64, username, firstName, lastName string) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `
UPDATE users SET username = $2, first_name = $3, last_name = $4 WHERE user_id = $1`,
		id, username, firstName, lastName)
	if err != nil {
		log.Println("Ошибка обновления профиля:", err)
	}
	return err
}

// GetUser возвращает (nil, nil), если пользователя нет: отсутствие — не ошибка.
func GetUser(ctx context.Context, database *sql.DB, id int64) (*models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	row := database.QueryRowContext(ctx, `
SELECT user_id, username, first_name, last_name, stepik_id, role, is_approved, created_at
FROM users WHERE user_id = $1`, id)

	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.StepikID, &u.Role, &u.IsApproved, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Println("Ошибка получения пользователя:", err)
		return nil, err
	}
	return &u, nil
}

// ApproveUser — идемпотентное одобрение.
func ApproveUser(ctx context.Context, database *sql.DB, id int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `UPDATE users SET is_approved = TRUE WHERE user_id = $1`, id)
	if err != nil {
		log.Println("Ошибка одобрения пользователя:", err)
	}
	return err
}

// ListTeachers — все зарегистрированные преподаватели (для алертов по отзывам).
func ListTeachers(ctx context.Context, database *sql.DB) ([]models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
SELECT user_id, username, first_name, last_name, stepik_id, role, is_approved, created_at
FROM users WHERE role = 'teacher' AND is_approved`)
	if err != nil {
		log.Println("Ошибка при запросе преподавателей:", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.StepikID, &u.Role, &u.IsApproved, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// NewStudentID подбирает свободный числовой ID для регистрации через веб-форму
// (там нет Telegram ID). Контракт: сгенерировать, проверить занятость, повторить.
func NewStudentID(ctx context.Context, database *sql.DB) (int64, error) {
	for i := 0; i < 20; i++ {
		id := rand.Int63n(900000) + 100000
		u, err := GetUser(ctx, database, id)
		if err != nil {
			return 0, err
		}
		if u == nil {
			return id, nil
		}
	}
	return 0, errors.New("не удалось подобрать свободный ID")
}
