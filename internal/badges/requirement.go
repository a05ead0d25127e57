package badges

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/vytor/soonerbadges/internal/models"
)

var errNilStats = errors.New("nil player stats")

// Requirement is a predicate over a player's accumulated stats.
//
// Progress is a display hint for not-yet-earned badges; it never decides an award.
// An error from either method makes the engine treat the badge as not met and
// report no progress for it.
type Requirement interface {
	Met(stats *models.PlayerStats) (bool, error)
	Progress(stats *models.PlayerStats) (models.Progress, error)
	Describe() string
}

// MinQuizzesRequirement: at least N quizzes finished.
type MinQuizzesRequirement struct{ N int }

func (r MinQuizzesRequirement) Met(s *models.PlayerStats) (bool, error) {
	if s == nil {
		return false, errNilStats
	}
	return s.TotalQuizzes >= r.N, nil
}

func (r MinQuizzesRequirement) Progress(s *models.PlayerStats) (models.Progress, error) {
	if s == nil {
		return models.Progress{}, errNilStats
	}
	return capped(s.TotalQuizzes, r.N), nil
}

func (r MinQuizzesRequirement) Describe() string {
	return fmt.Sprintf("finish %d %s", r.N, plural(r.N, "quiz", "quizzes"))
}

// MinCorrectAnswersRequirement: at least N correct answers overall.
type MinCorrectAnswersRequirement struct{ N int }

func (r MinCorrectAnswersRequirement) Met(s *models.PlayerStats) (bool, error) {
	if s == nil {
		return false, errNilStats
	}
	return s.TotalCorrect >= r.N, nil
}

func (r MinCorrectAnswersRequirement) Progress(s *models.PlayerStats) (models.Progress, error) {
	if s == nil {
		return models.Progress{}, errNilStats
	}
	return capped(s.TotalCorrect, r.N), nil
}

func (r MinCorrectAnswersRequirement) Describe() string {
	return fmt.Sprintf("answer %d %s correctly", r.N, plural(r.N, "question", "questions"))
}

// StreakRequirement compares against the best streak, so a later wrong answer
// does not undo progress.
type StreakRequirement struct{ N int }

func (r StreakRequirement) Met(s *models.PlayerStats) (bool, error) {
	if s == nil {
		return false, errNilStats
	}
	return s.BestStreak >= r.N, nil
}

func (r StreakRequirement) Progress(s *models.PlayerStats) (models.Progress, error) {
	if s == nil {
		return models.Progress{}, errNilStats
	}
	return capped(s.BestStreak, r.N), nil
}

func (r StreakRequirement) Describe() string {
	return fmt.Sprintf("reach a %d-answer correct streak", r.N)
}

// ScoreRequirement: Count quizzes scored at or above MinScore, in Category or in
// any category when Category is empty. It reads the counter named by
// models.ScoreCounterKey, which the engine maintains for models.MasteryScore and
// for every MinScore in its catalog.
type ScoreRequirement struct {
	MinScore float64
	Count    int
	Category string
}

func (r ScoreRequirement) goal() int {
	if r.Count < 1 {
		return 1
	}
	return r.Count
}

func (r ScoreRequirement) CounterKey() string {
	return models.ScoreCounterKey(r.MinScore, r.Category)
}

func (r ScoreRequirement) Met(s *models.PlayerStats) (bool, error) {
	if s == nil {
		return false, errNilStats
	}
	return s.Counter(r.CounterKey()) >= r.goal(), nil
}

func (r ScoreRequirement) Progress(s *models.PlayerStats) (models.Progress, error) {
	if s == nil {
		return models.Progress{}, errNilStats
	}
	return capped(s.Counter(r.CounterKey()), r.goal()), nil
}

func (r ScoreRequirement) Describe() string {
	where := "any category"
	if r.Category != "" {
		where = r.Category
	}
	n := r.goal()
	return fmt.Sprintf("score %s+ on %d %s in %s",
		strconv.FormatFloat(r.MinScore, 'f', -1, 64), n, plural(n, "quiz", "quizzes"), where)
}

// CategoryMasterRequirement: the category has been mastered at least once.
type CategoryMasterRequirement struct{ Category string }

func (r CategoryMasterRequirement) Met(s *models.PlayerStats) (bool, error) {
	if s == nil {
		return false, errNilStats
	}
	return s.CategoriesMastered.Has(r.Category), nil
}

func (r CategoryMasterRequirement) Progress(s *models.PlayerStats) (models.Progress, error) {
	if s == nil {
		return models.Progress{}, errNilStats
	}
	if s.CategoriesMastered.Has(r.Category) {
		return models.Progress{Current: 1, Goal: 1}, nil
	}
	return models.Progress{Current: 0, Goal: 1}, nil
}

func (r CategoryMasterRequirement) Describe() string {
	return fmt.Sprintf("master the %s category", r.Category)
}

// DailyLoginStreakRequirement: logged in on N consecutive calendar days.
type DailyLoginStreakRequirement struct{ N int }

func (r DailyLoginStreakRequirement) Met(s *models.PlayerStats) (bool, error) {
	if s == nil {
		return false, errNilStats
	}
	return s.DailyLoginStreak >= r.N, nil
}

func (r DailyLoginStreakRequirement) Progress(s *models.PlayerStats) (models.Progress, error) {
	if s == nil {
		return models.Progress{}, errNilStats
	}
	return capped(s.DailyLoginStreak, r.N), nil
}

func (r DailyLoginStreakRequirement) Describe() string {
	return fmt.Sprintf("log in %d days in a row", r.N)
}

func capped(current, goal int) models.Progress {
	if current > goal {
		current = goal
	}
	return models.Progress{Current: current, Goal: goal}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
