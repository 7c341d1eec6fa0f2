package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"calcpad/internal/calculator"
	"calcpad/internal/handlers"
	"calcpad/internal/observability"
)

// Deps are the collaborators the router mounts. A nil Gatherer serves the
// default Prometheus registry.
type Deps struct {
	Calculator *calculator.Handler
	Gatherer   prometheus.Gatherer
}

func NewRouter(d Deps) http.Handler {

	r := chi.NewRouter()

	r.Use(observability.RequestIDMiddleware)
	r.Use(observability.TracingMiddleware)
	r.Use(observability.LoggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/health", handlers.Health)

	r.Handle("/metrics", observability.PrometheusHandler(d.Gatherer))

	calculator.RegisterRoutes(r, d.Calculator)

	return r
}
