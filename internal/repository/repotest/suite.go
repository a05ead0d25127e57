// Package repotest holds the behavior every repository.PlayerRepository must share.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vytor/soonerbadges/internal/models"
	"github.com/vytor/soonerbadges/internal/repository"
)

// PlayerRepositorySuite runs against the repository returned by NewRepo, called once per test.
type PlayerRepositorySuite struct {
	suite.Suite
	NewRepo func(t *testing.T) repository.PlayerRepository

	repo repository.PlayerRepository
}

func (s *PlayerRepositorySuite) SetupTest() {
	s.repo = s.NewRepo(s.T())
}

func sampleStats(userID string) *models.PlayerStats {
	st := models.NewPlayerStats(userID)
	st.OnLogin(time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC))
	st.OnLogin(time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC))
	st.OnAnswer(true, time.Date(2025, 1, 2, 9, 5, 0, 0, time.UTC))
	st.OnAnswer(true, time.Date(2025, 1, 2, 9, 6, 0, 0, time.UTC))
	st.OnAnswer(false, time.Date(2025, 1, 2, 9, 7, 0, 0, time.UTC))
	st.Increment(models.ScoreCounterKey(90, ""), 1)
	st.Increment(models.ScoreCounterKey(90, "OU History"), 1)
	st.OnQuizFinished(models.QuizFinished{UserID: userID, Category: "OU History", Score: 95})
	st.OnQuizFinished(models.QuizFinished{UserID: userID, Category: "Athletics", Score: 50})
	return st
}

func (s *PlayerRepositorySuite) TestLoadUnknownUserReturnsDefaults() {
	stats, earned, err := s.repo.Load(context.Background(), "nobody")
	s.Require().NoError(err)
	s.Require().NotNil(stats)
	s.Equal("nobody", stats.UserID)
	s.Zero(stats.TotalQuizzes)
	s.Nil(stats.LastLoginDay)
	s.NotNil(stats.Counters)
	s.NotNil(stats.CategoryQuizzes)
	s.NotNil(stats.CategoriesMastered)
	s.Equal(0, earned.Len())
}

func (s *PlayerRepositorySuite) TestSaveThenLoadRoundTrip() {
	ctx := context.Background()
	want := sampleStats("u1")

	s.Require().NoError(s.repo.Save(ctx, want, models.NewSet("first_boomer", "history_master")))

	got, earned, err := s.repo.Load(ctx, "u1")
	s.Require().NoError(err)
	s.Equal(want.TotalQuizzes, got.TotalQuizzes)
	s.Equal(3, got.TotalQuestions)
	s.Equal(2, got.TotalCorrect)
	s.Equal(2, got.BestStreak)
	s.Equal(0, got.CurrentStreak)
	s.Equal(2, got.DailyLoginStreak)
	s.Equal("2025-01-02", models.FormatDay(got.LastLoginDay))
	s.Equal("2025-01-02", models.FormatDay(got.LastAnswerDay))
	s.Equal(map[string]int{"OU History": 1, "Athletics": 1}, got.CategoryQuizzes)
	s.Equal([]string{"OU History"}, got.CategoriesMastered.Sorted())
	s.Equal(want.Counters, got.Counters)
	s.Equal([]string{"first_boomer", "history_master"}, earned.Sorted())
}

func (s *PlayerRepositorySuite) TestSaveReplacesStats() {
	ctx := context.Background()
	st := sampleStats("u1")
	s.Require().NoError(s.repo.Save(ctx, st, models.NewSet("first_boomer")))

	st.OnQuizFinished(models.QuizFinished{UserID: "u1", Category: "Campus Life", Score: 91})
	st.Increment(models.ScoreCounterKey(90, ""), 1)
	s.Require().NoError(s.repo.Save(ctx, st, models.NewSet("first_boomer", "campus_expert_90")))

	got, earned, err := s.repo.Load(ctx, "u1")
	s.Require().NoError(err)
	s.Equal(3, got.TotalQuizzes)
	s.Equal(2, got.Counter(models.ScoreCounterKey(90, "")))
	s.True(got.CategoriesMastered.Has("Campus Life"))
	s.Equal([]string{"campus_expert_90", "first_boomer"}, earned.Sorted())
}

func (s *PlayerRepositorySuite) TestLoadedValuesAreNotShared() {
	ctx := context.Background()
	s.Require().NoError(s.repo.Save(ctx, sampleStats("u1"), models.NewSet("first_boomer")))

	stats, earned, err := s.repo.Load(ctx, "u1")
	s.Require().NoError(err)
	stats.TotalQuizzes = 99
	stats.Increment("scratch", 1)
	earned.Add("not_saved")

	again, earnedAgain, err := s.repo.Load(ctx, "u1")
	s.Require().NoError(err)
	s.Equal(2, again.TotalQuizzes)
	s.Zero(again.Counter("scratch"))
	s.False(earnedAgain.Has("not_saved"))
}

func (s *PlayerRepositorySuite) TestSavedValuesAreNotRetained() {
	ctx := context.Background()
	st := sampleStats("u1")
	earned := models.NewSet("first_boomer")
	s.Require().NoError(s.repo.Save(ctx, st, earned))

	st.TotalQuizzes = 42
	earned.Add("later")

	got, gotEarned, err := s.repo.Load(ctx, "u1")
	s.Require().NoError(err)
	s.Equal(2, got.TotalQuizzes)
	s.False(gotEarned.Has("later"))
}

func (s *PlayerRepositorySuite) TestUsersAreIsolated() {
	ctx := context.Background()
	s.Require().NoError(s.repo.Save(ctx, sampleStats("u1"), models.NewSet("first_boomer")))
	s.Require().NoError(s.repo.Save(ctx, models.NewPlayerStats("u2"), models.NewSet()))

	stats, earned, err := s.repo.Load(ctx, "u2")
	s.Require().NoError(err)
	s.Zero(stats.TotalQuizzes)
	s.Equal(0, earned.Len())
}

func (s *PlayerRepositorySuite) TestDelete() {
	ctx := context.Background()
	s.Require().NoError(s.repo.Save(ctx, sampleStats("u1"), models.NewSet("first_boomer")))
	s.Require().NoError(s.repo.Delete(ctx, "u1"))

	stats, earned, err := s.repo.Load(ctx, "u1")
	s.Require().NoError(err)
	s.Zero(stats.TotalQuizzes)
	s.Equal(0, earned.Len())

	s.NoError(s.repo.Delete(ctx, "never-existed"))
}

func (s *PlayerRepositorySuite) TestPing() {
	s.NoError(s.repo.Ping(context.Background()))
}
