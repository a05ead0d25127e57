package jobs

import "github.com/vytor/soonerbadges/internal/models"

// JobQueue provides an abstraction for enqueueing background jobs
type JobQueue interface {
	EnqueueReplay(userID string, events []models.Event) error
}
