package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/rollstitch/backend/internal/api/handlers"
	"github.com/wonny/rollstitch/backend/pkg/logger"
)

// HealthFunc reports the health of a backing dependency
type HealthFunc func(ctx context.Context) error

// RouterDeps groups what the router serves
type RouterDeps struct {
	Instruments *handlers.InstrumentHandler
	Metrics     http.Handler // nil disables /metrics
	Health      HealthFunc   // nil means always healthy
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(deps RouterDeps, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(deps.Health)).Methods("GET")

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	// Instrument endpoints
	api.HandleFunc("/instruments", deps.Instruments.List).Methods("GET")
	api.HandleFunc("/instruments/{code}/roll-calendar", deps.Instruments.GetRollCalendar).Methods("GET")
	api.HandleFunc("/instruments/{code}/multiple-prices", deps.Instruments.GetMultiplePrices).Methods("GET")
	api.HandleFunc("/instruments/{code}/adjusted-prices", deps.Instruments.GetAdjustedPrices).Methods("GET")
	api.HandleFunc("/instruments/{code}/report", deps.Instruments.GetReport).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(check HealthFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		body := map[string]interface{}{
			"service": "rollstitch-api",
		}

		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				status, code = "degraded", http.StatusServiceUnavailable
				body["error"] = err.Error()
			}
		}
		body["status"] = status

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(body)
	}
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      rec.status,
				"duration_ms": time.Since(start).Milliseconds(),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
