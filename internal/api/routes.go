package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/badges", s.handleListBadges)
		r.Get("/badges/{badgeID}", s.handleGetBadge)
		r.Post("/events", s.handlePostEvent)
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/badges", s.handleUserBadges)
			r.Get("/progress", s.handleUserProgress)
			r.Get("/stats", s.handleUserStats)
			r.Delete("/", s.handleDeleteUser)
		})
	})
	return r
}
