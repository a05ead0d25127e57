// Package memory keeps player records in process memory. Nothing survives a restart.
package memory

import (
	"context"
	"sync"

	"github.com/vytor/soonerbadges/internal/logger"
	"github.com/vytor/soonerbadges/internal/models"
	"github.com/vytor/soonerbadges/internal/repository"
)

type record struct {
	stats  *models.PlayerStats
	earned models.Set
}

type playerRepository struct {
	mu      sync.RWMutex
	records map[string]record
}

// NewPlayerRepository creates an empty in-memory PlayerRepository.
func NewPlayerRepository() repository.PlayerRepository {
	return &playerRepository{records: map[string]record{}}
}

func (r *playerRepository) Load(ctx context.Context, userID string) (*models.PlayerStats, models.Set, error) {
	log := logger.FromContext(ctx).WithPrefix("memory_repo")

	r.mu.RLock()
	rec, ok := r.records[userID]
	r.mu.RUnlock()
	if !ok {
		log.Debug("no record for user_id=%s, using defaults", userID)
		return models.NewPlayerStats(userID), models.NewSet(), nil
	}
	return rec.stats.Clone(), rec.earned.Clone(), nil
}

func (r *playerRepository) Save(ctx context.Context, stats *models.PlayerStats, earned models.Set) error {
	log := logger.FromContext(ctx).WithPrefix("memory_repo")
	log.Debug("saving user_id=%s earned=%d", stats.UserID, earned.Len())

	rec := record{stats: stats.Clone(), earned: earned.Clone()}
	r.mu.Lock()
	r.records[stats.UserID] = rec
	r.mu.Unlock()
	return nil
}

func (r *playerRepository) Delete(ctx context.Context, userID string) error {
	r.mu.Lock()
	delete(r.records, userID)
	r.mu.Unlock()
	return nil
}

func (r *playerRepository) Ping(context.Context) error {
	return nil
}
