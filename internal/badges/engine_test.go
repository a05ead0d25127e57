package badges_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/vytor/soonerbadges/internal/badges"
	"github.com/vytor/soonerbadges/internal/models"
	"github.com/vytor/soonerbadges/internal/repository/memory"
	"github.com/vytor/soonerbadges/internal/testutil/mocks"
)

var day0 = time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

func badgeIDs(bs []badges.Badge) []string {
	ids := make([]string, 0, len(bs))
	for _, b := range bs {
		ids = append(ids, b.ID)
	}
	return ids
}

func progressFor(res *badges.AwardResult, id string) (models.Progress, bool) {
	for _, p := range res.Progress {
		if p.BadgeID == id {
			return p.Progress, true
		}
	}
	return models.Progress{}, false
}

type EngineTestSuite struct {
	suite.Suite
	ctx    context.Context
	engine *badges.Engine
}

func (s *EngineTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.engine = badges.NewEngine(memory.NewPlayerRepository(), badges.DefaultCatalog())
}

func (s *EngineTestSuite) process(ev models.Event) *badges.AwardResult {
	res, err := s.engine.Process(s.ctx, ev)
	s.Require().NoError(err)
	s.Require().NotNil(res)
	return res
}

func (s *EngineTestSuite) TestFirstQuizAwardsFirstBoomer() {
	res := s.process(models.QuizFinished{
		UserID: "u1", Category: "OU History", Correct: 5, Total: 5, Score: 100, FinishedAt: day0,
	})

	s.Contains(badgeIDs(res.NewlyAwarded), "first_boomer")
	s.Empty(res.AlreadyHad)
}

func (s *EngineTestSuite) TestTenCorrectAnswersAwardTenacious() {
	var awarded []string
	for i := 0; i < 10; i++ {
		res := s.process(models.AnswerResult{UserID: "u1", IsCorrect: true, When: day0.Add(time.Duration(i) * time.Minute)})
		awarded = append(awarded, badgeIDs(res.NewlyAwarded)...)
	}

	s.Contains(awarded, "tenacious_sooner")
	s.Contains(awarded, "boomer_streak_5")
}

func (s *EngineTestSuite) TestNinetyScoreAwardsExpertAndMasterTogether() {
	res := s.process(models.QuizFinished{
		UserID: "u1", Category: "OU History", Correct: 18, Total: 20, Score: 90.0, FinishedAt: day0,
	})

	ids := badgeIDs(res.NewlyAwarded)
	s.Contains(ids, "campus_expert_90")
	s.Contains(ids, "history_master")
	s.NotContains(ids, "athletics_ace")

	stats, err := s.engine.Stats(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal(1, stats.Counter("score_90_any"))
	s.Equal(1, stats.Counter("score_90_OU History"))
}

func (s *EngineTestSuite) TestSevenConsecutiveLoginsAwardLoyal() {
	var res *badges.AwardResult
	for i := 0; i < 7; i++ {
		res = s.process(models.UserLogin{UserID: "u1", When: day0.AddDate(0, 0, i)})
		if i < 6 {
			s.NotContains(badgeIDs(res.NewlyAwarded), "loyal_sooner_7", "day %d", i+1)
		}
	}

	s.Contains(badgeIDs(res.NewlyAwarded), "loyal_sooner_7")
}

func (s *EngineTestSuite) TestLoginJustAcrossMidnightCountsAsNextDay() {
	late := time.Date(2025, 9, 1, 23, 59, 0, 0, time.UTC)
	s.process(models.UserLogin{UserID: "u1", When: late})
	s.process(models.UserLogin{UserID: "u1", When: late.Add(2 * time.Minute)})

	stats, err := s.engine.Stats(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal(2, stats.DailyLoginStreak)
}

func (s *EngineTestSuite) TestSameDayLoginIsNoop() {
	s.process(models.UserLogin{UserID: "u1", When: day0})
	s.process(models.UserLogin{UserID: "u1", When: day0.Add(3 * time.Hour)})

	stats, err := s.engine.Stats(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal(1, stats.DailyLoginStreak)
}

func (s *EngineTestSuite) TestFreshUserProgress() {
	progress, err := s.engine.Progress(s.ctx, "nobody")
	s.Require().NoError(err)

	s.Equal(models.Progress{Current: 0, Goal: 1}, progress["first_boomer"])
	s.Equal(models.Progress{Current: 0, Goal: 10}, progress["tenacious_sooner"])
	s.Equal(models.Progress{Current: 0, Goal: 3}, progress["academic_all_star"])
	s.Len(progress, 8)
}

func (s *EngineTestSuite) TestProgressExcludesEarned() {
	s.process(models.QuizFinished{UserID: "u1", Category: "Athletics", Score: 50, FinishedAt: day0})

	progress, err := s.engine.Progress(s.ctx, "u1")
	s.Require().NoError(err)
	s.NotContains(progress, "first_boomer")
	s.Contains(progress, "athletics_ace")
}

func (s *EngineTestSuite) TestEarnedBadgesAreNeverRevoked() {
	for i := 0; i < 5; i++ {
		s.process(models.AnswerResult{UserID: "u1", IsCorrect: true, When: day0})
	}
	res := s.process(models.AnswerResult{UserID: "u1", IsCorrect: false, When: day0})

	s.Contains(badgeIDs(res.AlreadyHad), "boomer_streak_5")
	_, ok := progressFor(res, "boomer_streak_5")
	s.False(ok, "held badges carry no progress entry")

	held, err := s.engine.UserBadges(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal([]string{"boomer_streak_5"}, badgeIDs(held))
}

func (s *EngineTestSuite) TestResultProgressFollowsCatalogOrder() {
	res := s.process(models.AnswerResult{UserID: "u1", IsCorrect: true, When: day0})

	ids := make([]string, 0, len(res.Progress))
	for _, p := range res.Progress {
		ids = append(ids, p.BadgeID)
	}
	s.Equal(badgeIDs(badges.DefaultCatalog()), ids)

	p, ok := progressFor(res, "tenacious_sooner")
	s.True(ok)
	s.Equal(models.Progress{Current: 1, Goal: 10}, p)
}

func (s *EngineTestSuite) TestPointerEventsAreAccepted() {
	res := s.process(&models.QuizFinished{UserID: "u1", Category: "Athletics", Score: 95, FinishedAt: day0})
	s.Contains(badgeIDs(res.NewlyAwarded), "athletics_ace")
}

func (s *EngineTestSuite) TestUsersAreIsolated() {
	s.process(models.QuizFinished{UserID: "u1", Category: "Athletics", Score: 95, FinishedAt: day0})

	held, err := s.engine.UserBadges(s.ctx, "u2")
	s.Require().NoError(err)
	s.Empty(held)
	s.NotNil(held)
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

type unknownEvent struct{}

func (unknownEvent) Subject() string        { return "u1" }
func (unknownEvent) Kind() models.EventKind { return "mystery" }

func TestProcess_UnknownEventIsNoop(t *testing.T) {
	repo := new(mocks.MockPlayerRepository)
	engine := badges.NewEngine(repo, nil)

	res, err := engine.Process(context.Background(), unknownEvent{})

	require.NoError(t, err)
	assert.Empty(t, res.NewlyAwarded)
	assert.Empty(t, res.AlreadyHad)
	assert.Empty(t, res.Progress)
	assert.NotNil(t, res.NewlyAwarded)
	repo.AssertNotCalled(t, "Load", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_LoadFailureIsFatal(t *testing.T) {
	repo := new(mocks.MockPlayerRepository)
	boom := errors.New("disk on fire")
	repo.On("Load", mock.Anything, "u1").Return(nil, nil, boom)
	engine := badges.NewEngine(repo, nil)

	res, err := engine.Process(context.Background(), models.UserLogin{UserID: "u1", When: day0})

	assert.Nil(t, res)
	assert.ErrorIs(t, err, badges.ErrStorage)
	assert.ErrorIs(t, err, boom)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_SaveFailureIsFatal(t *testing.T) {
	repo := new(mocks.MockPlayerRepository)
	boom := errors.New("read-only filesystem")
	repo.On("Load", mock.Anything, "u1").Return(models.NewPlayerStats("u1"), models.NewSet(), nil)
	repo.On("Save", mock.Anything, mock.Anything, mock.Anything).Return(boom).Once()
	engine := badges.NewEngine(repo, nil)

	res, err := engine.Process(context.Background(), models.UserLogin{UserID: "u1", When: day0})

	assert.Nil(t, res)
	assert.ErrorIs(t, err, badges.ErrStorage)
	repo.AssertNumberOfCalls(t, "Save", 1)
}

func TestProcess_SavesMutationThenAwards(t *testing.T) {
	repo := new(mocks.MockPlayerRepository)
	repo.On("Load", mock.Anything, "u1").Return(models.NewPlayerStats("u1"), models.NewSet(), nil)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(s *models.PlayerStats) bool {
		return s.TotalQuizzes == 1
	}), mock.Anything).Return(nil).Twice()
	engine := badges.NewEngine(repo, nil)

	res, err := engine.Process(context.Background(), models.QuizFinished{UserID: "u1", Category: "Athletics", Score: 10})

	require.NoError(t, err)
	assert.Equal(t, []string{"first_boomer"}, badgeIDs(res.NewlyAwarded))
	repo.AssertNumberOfCalls(t, "Save", 2)
	earned := repo.Calls[len(repo.Calls)-1].Arguments.Get(2).(models.Set)
	assert.True(t, earned.Has("first_boomer"))
}

func TestStorageFailureOnQueries(t *testing.T) {
	repo := new(mocks.MockPlayerRepository)
	repo.On("Load", mock.Anything, "u1").Return(nil, nil, errors.New("timeout"))
	engine := badges.NewEngine(repo, nil)
	ctx := context.Background()

	_, err := engine.UserBadges(ctx, "u1")
	assert.ErrorIs(t, err, badges.ErrStorage)
	_, err = engine.Progress(ctx, "u1")
	assert.ErrorIs(t, err, badges.ErrStorage)
	_, err = engine.Stats(ctx, "u1")
	assert.ErrorIs(t, err, badges.ErrStorage)
}

type brokenRequirement struct{ panics bool }

func (r brokenRequirement) Met(*models.PlayerStats) (bool, error) {
	if r.panics {
		panic("nil map somewhere")
	}
	return false, errors.New("counter missing")
}

func (r brokenRequirement) Progress(*models.PlayerStats) (models.Progress, error) {
	return models.Progress{}, errors.New("counter missing")
}

func (brokenRequirement) Describe() string { return "broken" }

type countingRecorder struct {
	mu       sync.Mutex
	events   []models.EventKind
	awarded  []string
	failures []string
}

func (r *countingRecorder) EventProcessed(kind models.EventKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind)
}

func (r *countingRecorder) BadgeAwarded(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.awarded = append(r.awarded, id)
}

func (r *countingRecorder) RequirementFailed(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, id)
}

func TestProcess_RequirementFailuresAreIsolated(t *testing.T) {
	catalog := []badges.Badge{
		{ID: "erroring", Points: 1, Requirement: brokenRequirement{}},
		{ID: "panicking", Points: 1, Requirement: brokenRequirement{panics: true}},
		{ID: "missing", Points: 1},
		{ID: "first_boomer", Points: 25, Requirement: badges.MinQuizzesRequirement{N: 1}},
		{ID: "ten_quizzes", Points: 50, Requirement: badges.MinQuizzesRequirement{N: 10}},
	}
	rec := &countingRecorder{}
	engine := badges.NewEngine(memory.NewPlayerRepository(), catalog, badges.WithRecorder(rec))

	res, err := engine.Process(context.Background(), models.QuizFinished{UserID: "u1", Category: "Athletics", Score: 20})

	require.NoError(t, err)
	assert.Equal(t, []string{"first_boomer"}, badgeIDs(res.NewlyAwarded))
	require.Len(t, res.Progress, 2)
	assert.Equal(t, "first_boomer", res.Progress[0].BadgeID)
	assert.Equal(t, "ten_quizzes", res.Progress[1].BadgeID)

	assert.Equal(t, []string{"erroring", "panicking", "missing"}, rec.failures)
	assert.Equal(t, []string{"first_boomer"}, rec.awarded)
	assert.Equal(t, []models.EventKind{models.KindQuizFinished}, rec.events)

	progress, err := engine.Progress(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]models.Progress{"ten_quizzes": {Current: 1, Goal: 10}}, progress)
}

func TestUserBadges_SkipsIdsMissingFromCatalog(t *testing.T) {
	repo := memory.NewPlayerRepository()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, models.NewPlayerStats("u1"), models.NewSet("retired_badge", "athletics_ace", "first_boomer")))
	engine := badges.NewEngine(repo, nil)

	held, err := engine.UserBadges(ctx, "u1")

	require.NoError(t, err)
	assert.Equal(t, []string{"first_boomer", "athletics_ace"}, badgeIDs(held))
}

func TestNewEngine_EmptyCatalogUsesDefault(t *testing.T) {
	engine := badges.NewEngine(memory.NewPlayerRepository(), nil)

	assert.Equal(t, badgeIDs(badges.DefaultCatalog()), badgeIDs(engine.Catalog()))
	b, ok := engine.Badge("loyal_sooner_7")
	assert.True(t, ok)
	assert.Equal(t, 150, b.Points)
	_, ok = engine.Badge("nope")
	assert.False(t, ok)
}

func TestProcess_CatalogScoreThresholdsAreTracked(t *testing.T) {
	catalog, err := badges.LoadCatalog(strings.NewReader(`
badges:
  - id: sharpshooter
    points: 40
    requirement: {type: score, min_score: 95, category: Athletics}
  - id: solid
    points: 10
    requirement: {type: score, min_score: 80, count: 2}
`))
	require.NoError(t, err)
	engine := badges.NewEngine(memory.NewPlayerRepository(), catalog)
	ctx := context.Background()

	res, err := engine.Process(ctx, models.QuizFinished{UserID: "u1", Category: "Athletics", Score: 92, FinishedAt: day0})
	require.NoError(t, err)
	assert.Empty(t, res.NewlyAwarded)
	prog, _ := progressFor(res, "solid")
	assert.Equal(t, models.Progress{Current: 1, Goal: 2}, prog)
	prog, _ = progressFor(res, "sharpshooter")
	assert.Equal(t, models.Progress{Current: 0, Goal: 1}, prog)

	res, err = engine.Process(ctx, models.QuizFinished{UserID: "u1", Category: "Athletics", Score: 100, FinishedAt: day0})
	require.NoError(t, err)
	assert.Equal(t, []string{"sharpshooter", "solid"}, badgeIDs(res.NewlyAwarded))

	stats, err := engine.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Counter(models.ScoreCounterKey(models.MasteryScore, "")))
	assert.Equal(t, 2, stats.Counter(models.ScoreCounterKey(models.MasteryScore, "Athletics")))
	assert.Equal(t, 1, stats.Counter(models.ScoreCounterKey(95, "Athletics")))
}

func TestProcess_ConcurrentEventsForOneUser(t *testing.T) {
	engine := badges.NewEngine(memory.NewPlayerRepository(), nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := engine.Process(ctx, models.AnswerResult{UserID: "u1", IsCorrect: i%2 == 0, When: day0})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stats, err := engine.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 100, stats.TotalQuestions)
	assert.Equal(t, 50, stats.TotalCorrect)
}
