package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/20lawsobk/maxbooster7.5-sub011/internal/config"
	"github.com/20lawsobk/maxbooster7.5-sub011/internal/sim"
)

// SetupRoutes configures the router: health and Prometheus endpoints at the
// root, the simulation control surface under /api/simulation, plus the
// websocket live feed.
func SetupRoutes(cfg config.ServerConfig, h *SimulationHandlers, hub *Hub, registry *Registry) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// Server identity header
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-Server-Identity", "maxbooster-sim-v7.5")
			next.ServeHTTP(w, req)
		})
	})

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	startedAt := time.Now()
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		running, completed, total := registry.Counts()
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"status":                "ok",
			"uptime":                time.Since(startedAt).Round(time.Second).String(),
			"acceleration_percent":  sim.AccelerationPercent,
			"simulations_running":   running,
			"simulations_completed": completed,
			"simulations_total":     total,
		})
	})

	// Prometheus scrape endpoint
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/simulation", func(r chi.Router) {
		h.Routes(r)

		// Websocket live feed: events, progress, snapshots, completion.
		r.Get("/live/{id}", func(w http.ResponseWriter, req *http.Request) {
			id := chi.URLParam(req, "id")
			if _, ok := registry.Get(id); !ok {
				respondError(w, http.StatusNotFound, "simulation "+id+" not found")
				return
			}
			hub.ServeLive(w, req, id)
		})
	})

	return r
}
