package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Spok95/stepik-test-bot/internal/config"
	"github.com/Spok95/stepik-test-bot/internal/metrics"
	"github.com/Spok95/stepik-test-bot/internal/validate"
	"go.uber.org/zap"
)

type HTTPServer struct {
	srv *http.Server
}

// StartHTTP поднимает операционный эндпоинт (/health, /metrics) и тонкий
// JSON API для веб-форм. Гасится по ctx.Done().
func StartHTTP(ctx context.Context, cfg *config.Config, database *sql.DB, checker *validate.Checker, log *zap.SugaredLogger, version string) *HTTPServer {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
		defer cancel()
		t0 := time.Now()
		if err := database.PingContext(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status": "unhealthy", "database": "unreachable", "version": version,
			})
			return
		}
		metrics.ObserveDBPing(time.Since(t0))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy", "database": "connected", "version": version,
		})
	})

	mux.Handle("GET /metrics", metrics.Handler())

	api := &apiServer{db: database, cfg: cfg, checker: checker, log: log}
	api.register(mux)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorw("http server", "err", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	return &HTTPServer{srv: srv}
}
