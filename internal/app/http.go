package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/guardian/internal/transport/http/handlers"
)

const opsRequestTimeout = 15 * time.Second

type OpsDependencies struct {
	Checks map[string]handlers.Check
	Stats  handlers.StatsSource
	Logger *zap.Logger
}

// NewOpsRouter serves health and aggregate statistics for operators.
func NewOpsRouter(deps OpsDependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(opsRequestTimeout))
	r.Use(requestLogger(deps.Logger))

	healthHandler := handlers.NewHealthHandler(deps.Checks)
	statsHandler := handlers.NewStatsHandler(deps.Stats)

	r.Get("/healthz", healthHandler.Get)
	r.Get("/v1/stats", statsHandler.Get)

	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			if log != nil {
				log.Debug("http_request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("request_id", chimiddleware.GetReqID(r.Context())),
					zap.Duration("duration", time.Since(start)),
				)
			}
		})
	}
}
