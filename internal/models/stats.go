package models

import (
	"fmt"
	"strconv"
	"time"
)

// MasteryScore is the quiz score at or above which a category counts as mastered
// and the score counters are bumped.
const MasteryScore = 90.0

const dayLayout = "2006-01-02"

// PlayerStats is the accumulated state of one player. The zero value is not usable;
// build one with NewPlayerStats.
type PlayerStats struct {
	UserID             string         `json:"user_id"`
	TotalQuizzes       int            `json:"total_quizzes"`
	TotalCorrect       int            `json:"total_correct"`
	TotalQuestions     int            `json:"total_questions"`
	BestStreak         int            `json:"best_streak"`
	CurrentStreak      int            `json:"current_streak"`
	LastAnswerDay      *time.Time     `json:"last_answer_day"`
	DailyLoginStreak   int            `json:"daily_login_streak"`
	LastLoginDay       *time.Time     `json:"last_login_day"`
	CategoriesMastered Set            `json:"categories_mastered"`
	CategoryQuizzes    map[string]int `json:"category_quizzes"`
	Counters           map[string]int `json:"counters"`
}

func NewPlayerStats(userID string) *PlayerStats {
	return &PlayerStats{
		UserID:             userID,
		CategoriesMastered: NewSet(),
		CategoryQuizzes:    map[string]int{},
		Counters:           map[string]int{},
	}
}

// Normalize replaces nil collections left behind by decoding.
func (s *PlayerStats) Normalize() {
	if s.CategoriesMastered == nil {
		s.CategoriesMastered = NewSet()
	}
	if s.CategoryQuizzes == nil {
		s.CategoryQuizzes = map[string]int{}
	}
	if s.Counters == nil {
		s.Counters = map[string]int{}
	}
}

func (s *PlayerStats) Clone() *PlayerStats {
	c := *s
	c.LastAnswerDay = cloneDay(s.LastAnswerDay)
	c.LastLoginDay = cloneDay(s.LastLoginDay)
	c.CategoriesMastered = s.CategoriesMastered.Clone()
	c.CategoryQuizzes = make(map[string]int, len(s.CategoryQuizzes))
	for k, v := range s.CategoryQuizzes {
		c.CategoryQuizzes[k] = v
	}
	c.Counters = make(map[string]int, len(s.Counters))
	for k, v := range s.Counters {
		c.Counters[k] = v
	}
	return &c
}

// OnAnswer applies a single answer outcome.
func (s *PlayerStats) OnAnswer(correct bool, when time.Time) {
	s.TotalQuestions++
	if correct {
		s.TotalCorrect++
		s.CurrentStreak++
		if s.CurrentStreak > s.BestStreak {
			s.BestStreak = s.CurrentStreak
		}
	} else {
		s.CurrentStreak = 0
	}
	day := DayOf(when)
	s.LastAnswerDay = &day
}

// OnLogin advances the consecutive-day login streak. Only calendar dates matter:
// 23:59 followed by 00:01 the next day is a one-day step.
func (s *PlayerStats) OnLogin(when time.Time) {
	today := DayOf(when)
	if s.LastLoginDay == nil {
		s.DailyLoginStreak = 1
	} else {
		switch DaysBetween(*s.LastLoginDay, today) {
		case 0:
		case 1:
			s.DailyLoginStreak++
		default:
			s.DailyLoginStreak = 1
		}
	}
	s.LastLoginDay = &today
}

// OnQuizFinished records a completed quiz. Score counters are bumped separately
// by the engine before this runs.
func (s *PlayerStats) OnQuizFinished(q QuizFinished) {
	s.TotalQuizzes++
	s.CategoryQuizzes[q.Category]++
	if q.Score >= MasteryScore {
		s.CategoriesMastered.Add(q.Category)
	}
}

// Increment adds by to the named counter.
func (s *PlayerStats) Increment(key string, by int) {
	s.Counters[key] += by
}

func (s *PlayerStats) Counter(key string) int {
	return s.Counters[key]
}

// ScoreCounterKey names the counter of quizzes scored at or above threshold.
// An empty category means any category.
func ScoreCounterKey(threshold float64, category string) string {
	if category == "" {
		category = "any"
	}
	return fmt.Sprintf("score_%s_%s", strconv.FormatFloat(threshold, 'f', -1, 64), category)
}

// DayOf returns t's calendar date, taken in t's own location, as UTC midnight.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole number of days from one day to another.
// Both arguments must be values produced by DayOf.
func DaysBetween(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}

// FormatDay renders a day as YYYY-MM-DD; nil renders as "".
func FormatDay(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.Format(dayLayout)
}

// ParseDay is the inverse of FormatDay.
func ParseDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(dayLayout, s)
	if err != nil {
		return nil, fmt.Errorf("parse day %q: %w", s, err)
	}
	return &d, nil
}

func cloneDay(d *time.Time) *time.Time {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
