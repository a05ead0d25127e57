package services

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/vytor/soonerbadges/internal/badges"
	"github.com/vytor/soonerbadges/internal/errors"
	"github.com/vytor/soonerbadges/internal/logger"
	"github.com/vytor/soonerbadges/internal/models"
	"github.com/vytor/soonerbadges/internal/repository"
)

// BadgeService validates player events and exposes the engine's queries
type BadgeService interface {
	ProcessEvent(ctx context.Context, ev models.Event) (*badges.AwardResult, error)
	ListBadges(ctx context.Context) []badges.Badge
	GetBadge(ctx context.Context, badgeID string) (badges.Badge, error)
	GetUserBadges(ctx context.Context, userID string) ([]badges.Badge, error)
	GetProgress(ctx context.Context, userID string) (map[string]models.Progress, error)
	GetStats(ctx context.Context, userID string) (*models.PlayerStats, error)
	DeleteUser(ctx context.Context, userID string) error
	Ready(ctx context.Context) error
}

type badgeService struct {
	engine *badges.Engine
	repo   repository.PlayerRepository
}

// NewBadgeService creates a new BadgeService
func NewBadgeService(engine *badges.Engine, repo repository.PlayerRepository) BadgeService {
	return &badgeService{engine: engine, repo: repo}
}

func (s *badgeService) ProcessEvent(ctx context.Context, ev models.Event) (*badges.AwardResult, error) {
	log := logger.FromContext(ctx)
	if isNilEvent(ev) {
		return nil, errors.NewBadRequestError("event is required")
	}
	log.Debug("processing event: kind=%s user_id=%s", ev.Kind(), ev.Subject())

	if err := validateEvent(ev); err != nil {
		return nil, err
	}

	result, err := s.engine.Process(ctx, ev)
	if err != nil {
		log.Error("failed to process event: %v", err)
		return nil, translate(err)
	}
	return result, nil
}

func (s *badgeService) ListBadges(ctx context.Context) []badges.Badge {
	return s.engine.Catalog()
}

func (s *badgeService) GetBadge(ctx context.Context, badgeID string) (badges.Badge, error) {
	b, ok := s.engine.Badge(badgeID)
	if !ok {
		logger.FromContext(ctx).Debug("badge not in catalog: %s", badgeID)
		return badges.Badge{}, errors.NewNotFoundError("badge", badgeID)
	}
	return b, nil
}

func (s *badgeService) GetUserBadges(ctx context.Context, userID string) ([]badges.Badge, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting badges: user_id=%s", userID)

	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	held, err := s.engine.UserBadges(ctx, userID)
	if err != nil {
		log.Error("failed to get badges: %v", err)
		return nil, translate(err)
	}
	return held, nil
}

func (s *badgeService) GetProgress(ctx context.Context, userID string) (map[string]models.Progress, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting progress: user_id=%s", userID)

	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	progress, err := s.engine.Progress(ctx, userID)
	if err != nil {
		log.Error("failed to get progress: %v", err)
		return nil, translate(err)
	}
	return progress, nil
}

func (s *badgeService) GetStats(ctx context.Context, userID string) (*models.PlayerStats, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting stats: user_id=%s", userID)

	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	stats, err := s.engine.Stats(ctx, userID)
	if err != nil {
		log.Error("failed to get stats: %v", err)
		return nil, translate(err)
	}
	return stats, nil
}

// DeleteUser drops stats and earned badges. Deleting an unseen user is not an error.
func (s *badgeService) DeleteUser(ctx context.Context, userID string) error {
	log := logger.FromContext(ctx)
	log.Debug("deleting user: user_id=%s", userID)

	if err := validateUserID(userID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		log.Error("failed to delete user: %v", err)
		return errors.NewStorageError(err)
	}
	log.Info("user deleted: user_id=%s", userID)
	return nil
}

func (s *badgeService) Ready(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		logger.FromContext(ctx).Warn("storage not ready: %v", err)
		return errors.NewStorageError(err)
	}
	return nil
}

func translate(err error) error {
	if stderrors.Is(err, badges.ErrStorage) {
		return errors.NewStorageError(err)
	}
	return errors.NewInternalError(err)
}

func validateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return errors.NewValidationError("user_id", "cannot be empty")
	}
	return nil
}

// isNilEvent also catches nil pointers to the event structs.
func isNilEvent(ev models.Event) bool {
	switch e := ev.(type) {
	case nil:
		return true
	case *models.QuizFinished:
		return e == nil
	case *models.AnswerResult:
		return e == nil
	case *models.UserLogin:
		return e == nil
	}
	return false
}

func validateEvent(ev models.Event) error {
	if err := validateUserID(ev.Subject()); err != nil {
		return err
	}
	switch e := ev.(type) {
	case models.QuizFinished:
		return validateQuiz(e)
	case *models.QuizFinished:
		return validateQuiz(*e)
	}
	return nil
}

func validateQuiz(q models.QuizFinished) error {
	switch {
	case q.Score < 0 || q.Score > 100:
		return errors.NewValidationError("score", "must be between 0 and 100")
	case q.Correct < 0:
		return errors.NewValidationError("correct", "cannot be negative")
	case q.Total < 0:
		return errors.NewValidationError("total", "cannot be negative")
	case q.Correct > q.Total:
		return errors.NewValidationError("correct", "cannot exceed total")
	}
	return nil
}
