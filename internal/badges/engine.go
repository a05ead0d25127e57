package badges

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vytor/soonerbadges/internal/logger"
	"github.com/vytor/soonerbadges/internal/models"
	"github.com/vytor/soonerbadges/internal/repository"
)

// ErrStorage marks errors that came from the PlayerRepository.
var ErrStorage = errors.New("badge storage failure")

var errNoRequirement = errors.New("badge has no requirement")

// AwardResult describes one Process call. Progress covers every badge that was not
// already held, in catalog order, computed on the stats after the event.
type AwardResult struct {
	NewlyAwarded []Badge
	AlreadyHad   []Badge
	Progress     []models.BadgeProgress
}

func emptyResult() *AwardResult {
	return &AwardResult{
		NewlyAwarded: []Badge{},
		AlreadyHad:   []Badge{},
		Progress:     []models.BadgeProgress{},
	}
}

// Recorder observes engine activity. Implementations must be safe for concurrent use.
type Recorder interface {
	EventProcessed(kind models.EventKind)
	BadgeAwarded(badgeID string)
	RequirementFailed(badgeID string)
}

type nopRecorder struct{}

func (nopRecorder) EventProcessed(models.EventKind) {}
func (nopRecorder) BadgeAwarded(string)             {}
func (nopRecorder) RequirementFailed(string)        {}

type Option func(*Engine)

// WithRecorder attaches a Recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.rec = r
		}
	}
}

// Engine turns player events into stat updates and badge awards.
//
// Calls for the same user are serialized for the whole load, mutate, save,
// evaluate, save round trip. Calls for different users run concurrently.
// Serialization is per Engine: two engines, or two processes, sharing one
// repository can still lose updates.
type Engine struct {
	repo       repository.PlayerRepository
	catalog    []Badge
	byID       map[string]Badge
	thresholds []float64
	locks      *userLocks
	rec        Recorder
}

// NewEngine builds an engine over repo. An empty catalog selects DefaultCatalog.
func NewEngine(repo repository.PlayerRepository, catalog []Badge, opts ...Option) *Engine {
	if len(catalog) == 0 {
		catalog = DefaultCatalog()
	}
	e := &Engine{
		repo:    repo,
		catalog: append([]Badge(nil), catalog...),
		byID:    make(map[string]Badge, len(catalog)),
		locks:   newUserLocks(),
		rec:     nopRecorder{},
	}
	for _, b := range e.catalog {
		e.byID[b.ID] = b
	}
	e.thresholds = scoreThresholds(e.catalog)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the badges in evaluation order.
func (e *Engine) Catalog() []Badge {
	return append([]Badge(nil), e.catalog...)
}

// Badge looks up a catalog entry by id.
func (e *Engine) Badge(id string) (Badge, bool) {
	b, ok := e.byID[id]
	return b, ok
}

// Process applies ev to its user's stats and awards any badges it unlocks.
// Events of an unrecognized type yield an empty result and touch nothing.
// Storage failures are returned wrapped in ErrStorage; a failing requirement only
// affects its own badge.
func (e *Engine) Process(ctx context.Context, ev models.Event) (*AwardResult, error) {
	log := logger.FromContext(ctx).WithPrefix("engine")

	var apply func(*models.PlayerStats)
	switch ev := deref(ev).(type) {
	case models.QuizFinished:
		apply = func(s *models.PlayerStats) {
			bumpScoreCounters(s, ev, e.thresholds)
			s.OnQuizFinished(ev)
		}
	case models.AnswerResult:
		apply = func(s *models.PlayerStats) {
			s.OnAnswer(ev.IsCorrect, ev.When)
		}
	case models.UserLogin:
		apply = func(s *models.PlayerStats) {
			s.OnLogin(ev.When)
		}
	default:
		log.Warn("ignoring event of unknown type %T", ev)
		return emptyResult(), nil
	}

	userID := ev.Subject()
	log = log.WithFields(map[string]any{"user_id": userID, "event": ev.Kind()})

	unlock := e.locks.lock(userID)
	defer unlock()

	stats, earned, err := e.repo.Load(ctx, userID)
	if err != nil {
		log.Error("failed to load player: %v", err)
		return nil, fmt.Errorf("%w: load %s: %w", ErrStorage, userID, err)
	}

	apply(stats)
	// Persist the mutation before evaluating so streaks and counters survive a
	// failure later in the call.
	if err := e.repo.Save(ctx, stats, earned); err != nil {
		log.Error("failed to save stats: %v", err)
		return nil, fmt.Errorf("%w: save %s: %w", ErrStorage, userID, err)
	}

	result := e.evaluate(ctx, stats, earned)

	if err := e.repo.Save(ctx, stats, earned); err != nil {
		log.Error("failed to save awards: %v", err)
		return nil, fmt.Errorf("%w: save %s: %w", ErrStorage, userID, err)
	}

	e.rec.EventProcessed(ev.Kind())
	for _, b := range result.NewlyAwarded {
		e.rec.BadgeAwarded(b.ID)
		log.Info("badge awarded: %s (+%d)", b.ID, b.Points)
	}
	log.Debug("event processed: new=%d held=%d", len(result.NewlyAwarded), len(result.AlreadyHad))
	return result, nil
}

// evaluate walks the catalog once. Held badges are never re-checked, so an award
// is never revoked. New awards are added to earned in place.
func (e *Engine) evaluate(ctx context.Context, stats *models.PlayerStats, earned models.Set) *AwardResult {
	log := logger.FromContext(ctx).WithPrefix("engine")
	result := emptyResult()

	for _, b := range e.catalog {
		if earned.Has(b.ID) {
			result.AlreadyHad = append(result.AlreadyHad, b)
			continue
		}
		met, prog, err := checkRequirement(b.Requirement, stats)
		if err != nil {
			log.Warn("requirement for badge %s failed: %v", b.ID, err)
			e.rec.RequirementFailed(b.ID)
			continue
		}
		if met {
			earned.Add(b.ID)
			result.NewlyAwarded = append(result.NewlyAwarded, b)
		}
		result.Progress = append(result.Progress, models.BadgeProgress{BadgeID: b.ID, Progress: prog})
	}
	return result
}

// UserBadges returns the catalog entries the user has earned, in catalog order.
// Earned ids no longer in the catalog are skipped.
func (e *Engine) UserBadges(ctx context.Context, userID string) ([]Badge, error) {
	_, earned, err := e.repo.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", ErrStorage, userID, err)
	}
	out := []Badge{}
	for _, b := range e.catalog {
		if earned.Has(b.ID) {
			out = append(out, b)
		}
	}
	return out, nil
}

// Progress returns current/goal for every badge the user has not earned. Badges
// whose requirement cannot report progress are left out.
func (e *Engine) Progress(ctx context.Context, userID string) (map[string]models.Progress, error) {
	log := logger.FromContext(ctx).WithPrefix("engine")

	stats, earned, err := e.repo.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", ErrStorage, userID, err)
	}
	out := make(map[string]models.Progress, len(e.catalog))
	for _, b := range e.catalog {
		if earned.Has(b.ID) {
			continue
		}
		prog, err := requirementProgress(b.Requirement, stats)
		if err != nil {
			log.Debug("no progress for badge %s: %v", b.ID, err)
			continue
		}
		out[b.ID] = prog
	}
	return out, nil
}

// Stats returns the stored stats for userID, or fresh stats for an unseen user.
func (e *Engine) Stats(ctx context.Context, userID string) (*models.PlayerStats, error) {
	stats, _, err := e.repo.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", ErrStorage, userID, err)
	}
	return stats, nil
}

// scoreThresholds returns models.MasteryScore plus every distinct MinScore used by
// a ScoreRequirement in catalog, ascending.
func scoreThresholds(catalog []Badge) []float64 {
	seen := map[float64]bool{models.MasteryScore: true}
	out := []float64{models.MasteryScore}
	for _, b := range catalog {
		r, ok := b.Requirement.(ScoreRequirement)
		if !ok || seen[r.MinScore] {
			continue
		}
		seen[r.MinScore] = true
		out = append(out, r.MinScore)
	}
	sort.Float64s(out)
	return out
}

// bumpScoreCounters feeds ScoreRequirement: for each threshold the quiz reaches,
// one counter for any category and one for the quiz's own category.
func bumpScoreCounters(s *models.PlayerStats, q models.QuizFinished, thresholds []float64) {
	for _, t := range thresholds {
		if q.Score < t {
			return
		}
		s.Increment(models.ScoreCounterKey(t, ""), 1)
		if q.Category != "" {
			s.Increment(models.ScoreCounterKey(t, q.Category), 1)
		}
	}
}

func checkRequirement(req Requirement, stats *models.PlayerStats) (met bool, prog models.Progress, err error) {
	defer func() {
		if r := recover(); r != nil {
			met, prog, err = false, models.Progress{}, fmt.Errorf("requirement panicked: %v", r)
		}
	}()
	if req == nil {
		return false, models.Progress{}, errNoRequirement
	}
	if met, err = req.Met(stats); err != nil {
		return false, models.Progress{}, err
	}
	if prog, err = req.Progress(stats); err != nil {
		return false, models.Progress{}, err
	}
	return met, prog, nil
}

func requirementProgress(req Requirement, stats *models.PlayerStats) (prog models.Progress, err error) {
	defer func() {
		if r := recover(); r != nil {
			prog, err = models.Progress{}, fmt.Errorf("requirement panicked: %v", r)
		}
	}()
	if req == nil {
		return models.Progress{}, errNoRequirement
	}
	return req.Progress(stats)
}

// deref lets callers pass pointers to the event structs.
func deref(ev models.Event) models.Event {
	switch e := ev.(type) {
	case *models.QuizFinished:
		if e != nil {
			return *e
		}
	case *models.AnswerResult:
		if e != nil {
			return *e
		}
	case *models.UserLogin:
		if e != nil {
			return *e
		}
	}
	return ev
}
