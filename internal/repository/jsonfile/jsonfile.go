// Package jsonfile stores every player in a single JSON document on disk.
//
// Each Load re-reads the whole file and each Save rewrites it through a temporary
// file and a rename, so a crash mid-write leaves the previous document intact.
// Writers in one process are serialized; separate processes sharing a file are not
// coordinated.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vytor/soonerbadges/internal/logger"
	"github.com/vytor/soonerbadges/internal/models"
	"github.com/vytor/soonerbadges/internal/repository"
)

type document struct {
	Stats  map[string]*models.PlayerStats `json:"stats"`
	Earned map[string]models.Set          `json:"earned"`
}

type playerRepository struct {
	mu   sync.Mutex
	path string
}

// NewPlayerRepository opens (creating if needed) the document at path.
func NewPlayerRepository(path string) (repository.PlayerRepository, error) {
	r := &playerRepository{path: path}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Default().WithPrefix("jsonfile_repo").Info("creating badge file: %s", path)
		if err := r.writeAll(&document{}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return r, nil
}

func (r *playerRepository) Load(ctx context.Context, userID string) (*models.PlayerStats, models.Set, error) {
	log := logger.FromContext(ctx).WithPrefix("jsonfile_repo")

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.readAll()
	if err != nil {
		log.Error("failed to read %s: %v", r.path, err)
		return nil, nil, err
	}

	stats, ok := doc.Stats[userID]
	if !ok || stats == nil {
		stats = models.NewPlayerStats(userID)
	}
	stats.Normalize()
	earned := doc.Earned[userID]
	if earned == nil {
		earned = models.NewSet()
	}
	return stats, earned, nil
}

func (r *playerRepository) Save(ctx context.Context, stats *models.PlayerStats, earned models.Set) error {
	log := logger.FromContext(ctx).WithPrefix("jsonfile_repo")
	log.Debug("saving user_id=%s earned=%d", stats.UserID, earned.Len())

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.readAll()
	if err != nil {
		log.Error("failed to read %s: %v", r.path, err)
		return err
	}
	doc.Stats[stats.UserID] = stats
	doc.Earned[stats.UserID] = earned
	if err := r.writeAll(doc); err != nil {
		log.Error("failed to write %s: %v", r.path, err)
		return err
	}
	return nil
}

func (r *playerRepository) Delete(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.readAll()
	if err != nil {
		return err
	}
	delete(doc.Stats, userID)
	delete(doc.Earned, userID)
	return r.writeAll(doc)
}

func (r *playerRepository) Ping(context.Context) error {
	_, err := os.Stat(r.path)
	return err
}

func (r *playerRepository) readAll() (*document, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.path, err)
	}
	if doc.Stats == nil {
		doc.Stats = map[string]*models.PlayerStats{}
	}
	if doc.Earned == nil {
		doc.Earned = map[string]models.Set{}
	}
	return &doc, nil
}

func (r *playerRepository) writeAll(doc *document) error {
	if doc.Stats == nil {
		doc.Stats = map[string]*models.PlayerStats{}
	}
	if doc.Earned == nil {
		doc.Earned = map[string]models.Set{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", r.path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replace %s: %w", r.path, err)
	}
	return nil
}
