package jobs

import (
	"context"
	"database/sql"

	"github.com/Spok95/stepik-test-bot/internal/ctxutil"
	"github.com/Spok95/stepik-test-bot/internal/db"
	"github.com/Spok95/stepik-test-bot/internal/metrics"
)

// RefreshPendingGauge обновляет gauge очереди проверки по данным БД.
// Счётчики submitted/reviewed инкрементируются в обработчиках, а gauge
// нужно пересчитывать целиком, иначе после рестарта он врёт.
func RefreshPendingGauge(database *sql.DB) Job {
	return func(ctx context.Context) error {
		ctx, cancel := ctxutil.WithDBTimeout(ctx)
		defer cancel()
		n, err := db.CountPendingTests(ctx, database)
		if err != nil {
			return err
		}
		metrics.PendingTests.Set(float64(n))
		return nil
	}
}
