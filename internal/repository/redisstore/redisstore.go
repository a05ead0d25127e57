// Package redisstore stores each player as one JSON document under "<prefix>player:<user_id>".
// A single SET replaces stats and earned badges together.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/vytor/soonerbadges/internal/logger"
	"github.com/vytor/soonerbadges/internal/models"
	"github.com/vytor/soonerbadges/internal/repository"
)

type record struct {
	Stats  *models.PlayerStats `json:"stats"`
	Earned models.Set          `json:"earned"`
}

type playerRepository struct {
	rdb    *redis.Client
	prefix string
}

// Options configures the client used by NewClient.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient connects and pings.
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

// NewPlayerRepository creates a PlayerRepository on top of rdb.
func NewPlayerRepository(rdb *redis.Client, prefix string) repository.PlayerRepository {
	return &playerRepository{rdb: rdb, prefix: prefix}
}

func (r *playerRepository) key(userID string) string {
	return r.prefix + "player:" + userID
}

func (r *playerRepository) Load(ctx context.Context, userID string) (*models.PlayerStats, models.Set, error) {
	log := logger.FromContext(ctx).WithPrefix("redis_repo")

	data, err := r.rdb.Get(ctx, r.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		log.Debug("no record for user_id=%s, using defaults", userID)
		return models.NewPlayerStats(userID), models.NewSet(), nil
	}
	if err != nil {
		log.Error("failed to get player: %v", err)
		return nil, nil, err
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, nil, fmt.Errorf("decode player %s: %w", userID, err)
	}
	if rec.Stats == nil {
		rec.Stats = models.NewPlayerStats(userID)
	}
	rec.Stats.Normalize()
	if rec.Earned == nil {
		rec.Earned = models.NewSet()
	}
	return rec.Stats, rec.Earned, nil
}

func (r *playerRepository) Save(ctx context.Context, stats *models.PlayerStats, earned models.Set) error {
	log := logger.FromContext(ctx).WithPrefix("redis_repo")
	log.Debug("saving user_id=%s earned=%d", stats.UserID, earned.Len())

	data, err := json.Marshal(record{Stats: stats, Earned: earned})
	if err != nil {
		return fmt.Errorf("encode player %s: %w", stats.UserID, err)
	}
	if err := r.rdb.Set(ctx, r.key(stats.UserID), data, 0).Err(); err != nil {
		log.Error("failed to set player: %v", err)
		return err
	}
	return nil
}

func (r *playerRepository) Delete(ctx context.Context, userID string) error {
	return r.rdb.Del(ctx, r.key(userID)).Err()
}

func (r *playerRepository) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}
