package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/qpcr/internal/api/handlers"
	"github.com/wonny/qpcr/pkg/logger"
)

// RouterConfig holds the handlers and limits of the router
type RouterConfig struct {
	Analysis *handlers.AnalysisHandler
	Runs     *handlers.RunsHandler // nil when persistence is disabled

	Limiter      Limiter // nil = unlimited
	MaxBodyBytes int64   // 0 = unlimited
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(rc RouterConfig, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(rc.Runs != nil)).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	if rc.Limiter != nil {
		api.Use(rateLimitMiddleware(rc.Limiter, log))
	}
	if rc.MaxBodyBytes > 0 {
		api.Use(maxBodyMiddleware(rc.MaxBodyBytes))
	}

	// Analysis endpoints (S0-S3)
	api.HandleFunc("/tidy", rc.Analysis.Tidy).Methods("POST")
	api.HandleFunc("/efficiency", rc.Analysis.Efficiency).Methods("POST")
	api.HandleFunc("/pfaffl", rc.Analysis.Pfaffl).Methods("POST")
	api.HandleFunc("/polysome", rc.Analysis.Polysome).Methods("POST")

	// Run endpoints
	if rc.Runs != nil {
		api.HandleFunc("/runs", rc.Runs.ListRuns).Methods("GET")
		api.HandleFunc("/runs/{id:[0-9]+}", rc.Runs.GetRun).Methods("GET")
	} else {
		api.PathPrefix("/runs").HandlerFunc(persistenceDisabledHandler)
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(persistence bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "ok",
			"service":     "qpcr-api",
			"persistence": persistence,
		})
	}
}

func persistenceDisabledHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	json.NewEncoder(w).Encode(map[string]string{
		"error": "Run persistence is disabled (DATABASE_URL not set)",
	})
}
