package worker

import (
	"context"

	"github.com/vytor/soonerbadges/internal/badges"
	"github.com/vytor/soonerbadges/internal/logger"
	"github.com/vytor/soonerbadges/internal/models"
)

// EventProcessor is the part of badges.Engine a replay needs.
type EventProcessor interface {
	Process(ctx context.Context, ev models.Event) (*badges.AwardResult, error)
}

// ReplayResult summarizes one user's replay.
type ReplayResult struct {
	UserID    string
	Processed int
	Awarded   []badges.Badge
	Err       error
}

// ReplayUserJob feeds one user's events to the processor in order. It stops at
// the first error, since later events would be applied to stale stats.
type ReplayUserJob struct {
	Processor EventProcessor
	UserID    string
	Events    []models.Event
	OnResult  func(ReplayResult)
}

func (j *ReplayUserJob) Name() string { return "replay_user" }

func (j *ReplayUserJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithFields(map[string]any{
		"user_id": j.UserID,
		"events":  len(j.Events),
	})
	log.Debug("replaying events")

	res := ReplayResult{UserID: j.UserID, Awarded: []badges.Badge{}}
	defer func() {
		if j.OnResult != nil {
			j.OnResult(res)
		}
	}()

	for _, ev := range j.Events {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return err
		}
		out, err := j.Processor.Process(ctx, ev)
		if err != nil {
			log.Error("replay stopped after %d events: %v", res.Processed, err)
			res.Err = err
			return err
		}
		res.Processed++
		res.Awarded = append(res.Awarded, out.NewlyAwarded...)
	}
	log.Debug("replayed %d events, %d badges awarded", res.Processed, len(res.Awarded))
	return nil
}
