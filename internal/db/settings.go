package db

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/Spok95/stepik-test-bot/internal/ctxutil"
)

// GetSetting — значение по ключу; ("", nil), если ключа нет.
func GetSetting(ctx context.Context, database *sql.DB, key string) (string, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var v sql.NullString
	err := database.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		log.Println("Ошибка чтения настройки:", err)
		return "", err
	}
	return v.String, nil
}

func SetSetting(ctx context.Context, database *sql.DB, key, value string) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `
INSERT INTO settings (key, value) VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = now()`, key, value)
	if err != nil {
		log.Println("Ошибка записи настройки:", err)
	}
	return err
}
