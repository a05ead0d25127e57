// Command replay feeds a JSON-lines event log through the badge engine.
//
//	replay [-workers N] events.jsonl
//
// Each line is one event envelope. Events are grouped by user and replayed in
// file order per user; different users run in parallel.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/vytor/soonerbadges/internal/app"
	"github.com/vytor/soonerbadges/internal/badges"
	"github.com/vytor/soonerbadges/internal/config"
	"github.com/vytor/soonerbadges/internal/jobs"
	"github.com/vytor/soonerbadges/internal/logger"
	"github.com/vytor/soonerbadges/internal/models"
	"github.com/vytor/soonerbadges/internal/worker"
)

const maxLineBytes = 1 << 20

func main() {
	cfg := config.Load()
	workers := flag.Int("workers", cfg.ReplayWorkerCount, "number of users replayed in parallel")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: replay [-workers N] events.jsonl")
		os.Exit(2)
	}
	cfg.ReplayWorkerCount = *workers

	log, logCloser := app.NewLogger(cfg, false)
	logger.SetDefault(log)
	defer logCloser.Close()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = logger.NewContext(ctx, log)

	if err := run(ctx, cfg, flag.Arg(0), os.Stdout); err != nil {
		log.Error("replay failed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, path string, out io.Writer) error {
	log := logger.FromContext(ctx).WithPrefix("replay")

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open events: %w", err)
	}
	defer f.Close()

	events, err := readEvents(f)
	if err != nil {
		return err
	}
	log.Info("read %d events from %s", len(events), path)

	repo, closer, err := app.OpenRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	catalog, err := app.LoadCatalog(cfg)
	if err != nil {
		return err
	}
	engine := badges.NewEngine(repo, catalog)

	var (
		mu      sync.Mutex
		results []worker.ReplayResult
	)
	pool := worker.NewPool(cfg.ReplayWorkerCount, cfg.ReplayQueueSize)
	pool.Start(ctx)
	queue := jobs.NewWorkerQueue(pool, engine, func(r worker.ReplayResult) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, r)
	})

	users, byUser := jobs.GroupByUser(events)
	for _, u := range users {
		if err := queue.EnqueueReplay(u, byUser[u]); err != nil {
			log.Warn("could not queue user %s: %v", u, err)
			break
		}
	}
	pool.Stop()

	return printSummary(out, results, len(users))
}

// readEvents decodes one envelope per non-blank line. Lines starting with # are skipped.
func readEvents(r io.Reader) ([]models.Event, error) {
	var events []models.Event
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		ev, err := models.DecodeEvent([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return events, nil
}

func printSummary(out io.Writer, results []worker.ReplayResult, users int) error {
	sort.Slice(results, func(i, j int) bool { return results[i].UserID < results[j].UserID })

	var processed, awarded, failed int
	for _, r := range results {
		processed += r.Processed
		awarded += len(r.Awarded)
		ids := make([]string, 0, len(r.Awarded))
		for _, b := range r.Awarded {
			ids = append(ids, b.ID)
		}
		status := "ok"
		if r.Err != nil {
			failed++
			status = "error: " + r.Err.Error()
		}
		fmt.Fprintf(out, "%s\tevents=%d\tpoints=%d\tawarded=[%s]\t%s\n",
			r.UserID, r.Processed, badges.TotalPoints(r.Awarded), strings.Join(ids, ","), status)
	}
	fmt.Fprintf(out, "users=%d events=%d awarded=%d failed=%d\n", len(results), processed, awarded, failed)

	if skipped := users - len(results); skipped > 0 {
		return fmt.Errorf("%d users were not replayed", skipped)
	}
	if failed > 0 {
		return fmt.Errorf("%d users failed", failed)
	}
	return nil
}
