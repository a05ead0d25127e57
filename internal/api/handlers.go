package api

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/soonerbadges/internal/badges"
	"github.com/vytor/soonerbadges/internal/errors"
	"github.com/vytor/soonerbadges/internal/logger"
	"github.com/vytor/soonerbadges/internal/models"
	"github.com/vytor/soonerbadges/internal/services"
)

const maxEventBytes = 64 << 10

type Server struct {
	BadgeService services.BadgeService
	Metrics      http.Handler
	// Now stamps events that arrive without a timestamp. Defaults to time.Now.
	Now func() time.Time
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Server) handleListBadges(w http.ResponseWriter, r *http.Request) {
	catalog := s.BadgeService.ListBadges(r.Context())
	writeJSON(w, r, http.StatusOK, badgeViews(catalog))
}

func (s *Server) handleGetBadge(w http.ResponseWriter, r *http.Request) {
	b, err := s.BadgeService.GetBadge(r.Context(), chi.URLParam(r, "badgeID"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newBadgeView(b))
}

func (s *Server) handlePostEvent(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBytes))
	if err != nil {
		handleError(w, r, errors.NewBadRequestError("could not read request body"))
		return
	}
	ev, err := models.DecodeEvent(body)
	if err != nil {
		log.Debug("rejecting event: %v", err)
		handleError(w, r, errors.NewBadRequestError(err.Error()))
		return
	}
	ev = stampEvent(ev, s.now())

	result, err := s.BadgeService.ProcessEvent(r.Context(), ev)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newAwardResultView(result))
}

func (s *Server) handleUserBadges(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	held, err := s.BadgeService.GetUserBadges(r.Context(), userID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, userBadgesView{
		UserID: userID,
		Badges: badgeViews(held),
		Points: badges.TotalPoints(held),
	})
}

func (s *Server) handleUserProgress(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	progress, err := s.BadgeService.GetProgress(r.Context(), userID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, progressView{UserID: userID, Progress: progress})
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	stats, err := s.BadgeService.GetStats(r.Context(), userID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newStatsView(stats))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	if err := s.BadgeService.DeleteUser(r.Context(), userID); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// stampEvent fills a missing timestamp with now.
func stampEvent(ev models.Event, now time.Time) models.Event {
	switch e := ev.(type) {
	case models.QuizFinished:
		if e.FinishedAt.IsZero() {
			e.FinishedAt = now
		}
		return e
	case models.UserLogin:
		if e.When.IsZero() {
			e.When = now
		}
		return e
	case models.AnswerResult:
		if e.When.IsZero() {
			e.When = now
		}
		return e
	}
	return ev
}
