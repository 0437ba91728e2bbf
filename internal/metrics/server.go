package metrics

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// StatusFunc reports the current sender status for /status.
type StatusFunc func() any

// NewServer returns an HTTP server exposing /metrics, /healthz and /status.
// The caller starts it with ListenAndServe and stops it with Shutdown.
func NewServer(addr string, m *Metrics, status StatusFunc) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      newRouter(m, status),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func newRouter(m *Metrics, status StatusFunc) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, "/metrics", m.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		if status == nil {
			respondJSON(w, http.StatusNotFound, map[string]string{"error": "no status available"})
			return
		}
		respondJSON(w, http.StatusOK, status())
	})
	return r
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
