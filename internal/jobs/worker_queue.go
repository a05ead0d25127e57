package jobs

import (
	"github.com/vytor/soonerbadges/internal/models"
	"github.com/vytor/soonerbadges/internal/worker"
)

// WorkerQueue implements JobQueue using a worker pool
type WorkerQueue struct {
	pool      *worker.Pool
	processor worker.EventProcessor
	onResult  func(worker.ReplayResult)
}

// NewWorkerQueue creates a new WorkerQueue implementation. onResult may be nil.
func NewWorkerQueue(pool *worker.Pool, processor worker.EventProcessor, onResult func(worker.ReplayResult)) *WorkerQueue {
	return &WorkerQueue{
		pool:      pool,
		processor: processor,
		onResult:  onResult,
	}
}

func (q *WorkerQueue) EnqueueReplay(userID string, events []models.Event) error {
	return q.pool.Submit(&worker.ReplayUserJob{
		Processor: q.processor,
		UserID:    userID,
		Events:    events,
		OnResult:  q.onResult,
	})
}

// GroupByUser splits events per user, keeping each user's events in input order.
// Users are returned in order of first appearance.
func GroupByUser(events []models.Event) (users []string, byUser map[string][]models.Event) {
	byUser = make(map[string][]models.Event)
	for _, ev := range events {
		id := ev.Subject()
		if _, ok := byUser[id]; !ok {
			users = append(users, id)
		}
		byUser[id] = append(byUser[id], ev)
	}
	return users, byUser
}
