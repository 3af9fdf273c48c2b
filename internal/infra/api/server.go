package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"cgn-operator-search/internal/infra/api/apiv1"
	"cgn-operator-search/internal/infra/metrics"
	"cgn-operator-search/internal/usecase"
)

// NewRouter mounts the operator search API behind the guard chain, plus
// /health and /metrics.
func NewRouter(uc usecase.BucketCodeUseCase, requestTimeout time.Duration, logger *zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(
		Recover(logger),
		TraceID(),
		RequestLog(logger),
		Timeout(requestTimeout),
	)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	apiv1.RegisterAPIV1(r, apiv1.NewServer(uc, logger))
	return r
}
