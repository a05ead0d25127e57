package repository

import (
	"context"

	"github.com/vytor/soonerbadges/internal/models"
)

// PlayerRepository persists one player's stats together with the ids of the badges
// they have earned.
//
// Load never fails for an unseen user: it returns fresh stats and an empty set.
// Save writes both halves atomically; a later Load observes either the old pair or
// the new pair, never a mix. Save may only grow the earned set: callers always pass
// a superset of what they loaded, and a backend is free to keep ids missing from a
// later Save (the sqlite backend never deletes earned rows). Implementations must
// not retain the values passed to Save or hand out values they still reference.
type PlayerRepository interface {
	Load(ctx context.Context, userID string) (*models.PlayerStats, models.Set, error)
	Save(ctx context.Context, stats *models.PlayerStats, earned models.Set) error
	Delete(ctx context.Context, userID string) error
	Ping(ctx context.Context) error
}
