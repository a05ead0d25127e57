package worker_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/soonerbadges/internal/badges"
	"github.com/vytor/soonerbadges/internal/models"
	"github.com/vytor/soonerbadges/internal/repository/memory"
	"github.com/vytor/soonerbadges/internal/worker"
)

type funcJob struct {
	fn func(context.Context) error
}

func (j funcJob) Name() string                  { return "func" }
func (j funcJob) Run(ctx context.Context) error { return j.fn(ctx) }

func TestPool_RunsQueuedJobsBeforeStopping(t *testing.T) {
	pool := worker.NewPool(3, 4)
	pool.Start(context.Background())

	var ran atomic.Int32
	for i := 0; i < 20; i++ {
		err := pool.Submit(funcJob{fn: func(context.Context) error {
			time.Sleep(time.Millisecond)
			ran.Add(1)
			return nil
		}})
		require.NoError(t, err)
	}
	pool.Stop()

	assert.Equal(t, int32(20), ran.Load())
	assert.Equal(t, 0, pool.QueueSize())
}

func TestPool_SubmitAfterStop(t *testing.T) {
	pool := worker.NewPool(1, 1)
	pool.Start(context.Background())
	pool.Stop()
	pool.Stop()

	err := pool.Submit(funcJob{fn: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, worker.ErrPoolStopped)
}

func TestPool_SurvivesFailingAndPanickingJobs(t *testing.T) {
	pool := worker.NewPool(1, 4)
	pool.Start(context.Background())

	var ran atomic.Int32
	require.NoError(t, pool.Submit(funcJob{fn: func(context.Context) error { return errors.New("boom") }}))
	require.NoError(t, pool.Submit(funcJob{fn: func(context.Context) error { panic("worse") }}))
	require.NoError(t, pool.Submit(funcJob{fn: func(context.Context) error {
		ran.Add(1)
		return nil
	}}))
	pool.Stop()

	assert.Equal(t, int32(1), ran.Load())
}

func TestPool_SubmitUnblocksWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := worker.NewPool(1, 1)
	pool.Start(ctx)

	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	block := funcJob{fn: func(context.Context) error {
		once.Do(func() { close(started) })
		<-release
		return nil
	}}
	require.NoError(t, pool.Submit(block))
	<-started
	require.NoError(t, pool.Submit(block), "fills the queue")

	done := make(chan error, 1)
	go func() { done <- pool.Submit(block) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, worker.ErrPoolStopped)
	case <-time.After(2 * time.Second):
		t.Fatal("Submit did not return after cancel")
	}
	close(release)
	pool.Stop()
}

func TestReplayUserJob(t *testing.T) {
	engine := badges.NewEngine(memory.NewPlayerRepository(), nil)
	start := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	var events []models.Event
	for i := 0; i < 7; i++ {
		events = append(events, models.UserLogin{UserID: "u1", When: start.AddDate(0, 0, i)})
	}

	var (
		mu      sync.Mutex
		results []worker.ReplayResult
	)
	job := &worker.ReplayUserJob{
		Processor: engine,
		UserID:    "u1",
		Events:    events,
		OnResult: func(r worker.ReplayResult) {
			mu.Lock()
			defer mu.Unlock()
			results = append(results, r)
		},
	}

	require.NoError(t, job.Run(context.Background()))
	require.Len(t, results, 1)
	assert.Equal(t, 7, results[0].Processed)
	require.Len(t, results[0].Awarded, 1)
	assert.Equal(t, "loyal_sooner_7", results[0].Awarded[0].ID)
	assert.NoError(t, results[0].Err)
}

type failingProcessor struct{ after int }

func (p *failingProcessor) Process(ctx context.Context, ev models.Event) (*badges.AwardResult, error) {
	if p.after == 0 {
		return nil, badges.ErrStorage
	}
	p.after--
	return &badges.AwardResult{}, nil
}

func TestReplayUserJob_StopsAtFirstError(t *testing.T) {
	var got worker.ReplayResult
	job := &worker.ReplayUserJob{
		Processor: &failingProcessor{after: 2},
		UserID:    "u1",
		Events: []models.Event{
			models.UserLogin{UserID: "u1"}, models.UserLogin{UserID: "u1"},
			models.UserLogin{UserID: "u1"}, models.UserLogin{UserID: "u1"},
		},
		OnResult: func(r worker.ReplayResult) { got = r },
	}

	err := job.Run(context.Background())

	assert.ErrorIs(t, err, badges.ErrStorage)
	assert.Equal(t, 2, got.Processed)
	assert.ErrorIs(t, got.Err, badges.ErrStorage)
}
