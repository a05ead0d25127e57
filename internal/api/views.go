package api

import (
	"github.com/vytor/soonerbadges/internal/badges"
	"github.com/vytor/soonerbadges/internal/models"
)

type badgeView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Points      int    `json:"points"`
	Icon        string `json:"icon,omitempty"`
	Requirement string `json:"requirement"`
}

func newBadgeView(b badges.Badge) badgeView {
	v := badgeView{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		Points:      b.Points,
		Icon:        b.Icon,
	}
	if b.Requirement != nil {
		v.Requirement = b.Requirement.Describe()
	}
	return v
}

func badgeViews(bs []badges.Badge) []badgeView {
	out := make([]badgeView, 0, len(bs))
	for _, b := range bs {
		out = append(out, newBadgeView(b))
	}
	return out
}

type awardResultView struct {
	NewlyAwarded []badgeView            `json:"newly_awarded"`
	AlreadyHad   []string               `json:"already_had"`
	Progress     []models.BadgeProgress `json:"progress"`
	Points       int                    `json:"points_awarded"`
}

func newAwardResultView(res *badges.AwardResult) awardResultView {
	held := make([]string, 0, len(res.AlreadyHad))
	for _, b := range res.AlreadyHad {
		held = append(held, b.ID)
	}
	return awardResultView{
		NewlyAwarded: badgeViews(res.NewlyAwarded),
		AlreadyHad:   held,
		Progress:     res.Progress,
		Points:       badges.TotalPoints(res.NewlyAwarded),
	}
}

type userBadgesView struct {
	UserID string      `json:"user_id"`
	Badges []badgeView `json:"badges"`
	Points int         `json:"points"`
}

type progressView struct {
	UserID   string                     `json:"user_id"`
	Progress map[string]models.Progress `json:"progress"`
}

type statsView struct {
	UserID             string         `json:"user_id"`
	TotalQuizzes       int            `json:"total_quizzes"`
	TotalCorrect       int            `json:"total_correct"`
	TotalQuestions     int            `json:"total_questions"`
	BestStreak         int            `json:"best_streak"`
	CurrentStreak      int            `json:"current_streak"`
	LastAnswerDay      string         `json:"last_answer_day,omitempty"`
	DailyLoginStreak   int            `json:"daily_login_streak"`
	LastLoginDay       string         `json:"last_login_day,omitempty"`
	CategoriesMastered []string       `json:"categories_mastered"`
	CategoryQuizzes    map[string]int `json:"category_quizzes"`
	Counters           map[string]int `json:"counters"`
}

func newStatsView(s *models.PlayerStats) statsView {
	return statsView{
		UserID:             s.UserID,
		TotalQuizzes:       s.TotalQuizzes,
		TotalCorrect:       s.TotalCorrect,
		TotalQuestions:     s.TotalQuestions,
		BestStreak:         s.BestStreak,
		CurrentStreak:      s.CurrentStreak,
		LastAnswerDay:      models.FormatDay(s.LastAnswerDay),
		DailyLoginStreak:   s.DailyLoginStreak,
		LastLoginDay:       models.FormatDay(s.LastLoginDay),
		CategoriesMastered: s.CategoriesMastered.Sorted(),
		CategoryQuizzes:    s.CategoryQuizzes,
		Counters:           s.Counters,
	}
}
