package models

// Progress is a (current, goal) pair for progress bars. Current never exceeds Goal
// for the built-in requirements.
type Progress struct {
	Current int `json:"current"`
	Goal    int `json:"goal"`
}

// BadgeProgress ties a Progress to the badge it belongs to.
type BadgeProgress struct {
	BadgeID string `json:"badge_id"`
	Progress
}
