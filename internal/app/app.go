// Package app builds the storage backend and badge catalog selected by config.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/vytor/soonerbadges/internal/badges"
	"github.com/vytor/soonerbadges/internal/config"
	"github.com/vytor/soonerbadges/internal/db"
	"github.com/vytor/soonerbadges/internal/logger"
	"github.com/vytor/soonerbadges/internal/repository"
	"github.com/vytor/soonerbadges/internal/repository/jsonfile"
	"github.com/vytor/soonerbadges/internal/repository/memory"
	"github.com/vytor/soonerbadges/internal/repository/redisstore"
	"github.com/vytor/soonerbadges/internal/repository/sqlite"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenRepository returns the PlayerRepository for cfg.Storage and the resource
// backing it, which the caller must close.
func OpenRepository(ctx context.Context, cfg config.Config) (repository.PlayerRepository, io.Closer, error) {
	log := logger.FromContext(ctx).WithPrefix("app")

	switch cfg.Storage {
	case config.StorageMemory:
		log.Info("using in-memory storage")
		return memory.NewPlayerRepository(), nopCloser{}, nil
	case config.StorageFile:
		log.Info("using file storage: %s", cfg.BadgeFilePath)
		repo, err := jsonfile.NewPlayerRepository(cfg.BadgeFilePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open badge file: %w", err)
		}
		return repo, nopCloser{}, nil
	case config.StorageSQLite:
		log.Info("using sqlite storage: %s", cfg.DBPath)
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		return sqlite.NewPlayerRepository(database.DB), database, nil
	case config.StorageRedis:
		log.Info("using redis storage: %s db=%d", cfg.RedisAddr, cfg.RedisDB)
		rdb, err := redisstore.NewClient(ctx, redisstore.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return redisstore.NewPlayerRepository(rdb, cfg.RedisPrefix), rdb, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}

// LoadCatalog reads cfg.CatalogPath, or returns the built-in catalog when it is unset.
func LoadCatalog(cfg config.Config) ([]badges.Badge, error) {
	if cfg.CatalogPath == "" {
		return badges.DefaultCatalog(), nil
	}
	catalog, err := badges.LoadCatalogFile(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", cfg.CatalogPath, err)
	}
	return catalog, nil
}

// NewLogger builds the process logger: stdout, plus a rotating file when
// cfg.LogFile is set. The returned closer flushes the file.
func NewLogger(cfg config.Config, colors bool) (*logger.Logger, io.Closer) {
	opts := []logger.Option{logger.WithLevel(logger.ParseLevel(cfg.LogLevel))}
	if cfg.LogFile == "" {
		return logger.New(append(opts, logger.WithColors(colors))...), nopCloser{}
	}
	file := logger.RotatingFile(cfg.LogFile)
	opts = append(opts,
		logger.WithOutput(io.MultiWriter(os.Stdout, file)),
		logger.WithColors(false),
	)
	return logger.New(opts...), file
}
