package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/soonerbadges/internal/logger"
	"github.com/vytor/soonerbadges/internal/models"
	"github.com/vytor/soonerbadges/internal/repository"
)

type playerRepository struct {
	db *sql.DB
}

// NewPlayerRepository creates a PlayerRepository over a migrated SQLite database.
// Earned badges are insert-only: Save never removes a row from earned_badges.
func NewPlayerRepository(db *sql.DB) repository.PlayerRepository {
	return &playerRepository{db: db}
}

func (r *playerRepository) Load(ctx context.Context, userID string) (*models.PlayerStats, models.Set, error) {
	log := logger.FromContext(ctx).WithPrefix("player_repo")
	log.Debug("loading player: user_id=%s", userID)

	query, args, err := sqlBuilder.Select(
		"total_quizzes", "total_correct", "total_questions", "best_streak", "current_streak",
		"last_answer_day", "daily_login_streak", "last_login_day",
	).From("player_stats").Where(squirrel.Eq{"user_id": userID}).ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, nil, err
	}

	stats := models.NewPlayerStats(userID)
	var lastAnswer, lastLogin sql.NullString
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.TotalQuizzes, &stats.TotalCorrect, &stats.TotalQuestions, &stats.BestStreak, &stats.CurrentStreak,
		&lastAnswer, &stats.DailyLoginStreak, &lastLogin,
	)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("player not found, using defaults: user_id=%s", userID)
		return stats, models.NewSet(), nil
	}
	if err != nil {
		log.Error("failed to load player stats: %v", err)
		return nil, nil, err
	}
	if stats.LastAnswerDay, err = dayFromNull(lastAnswer); err != nil {
		return nil, nil, err
	}
	if stats.LastLoginDay, err = dayFromNull(lastLogin); err != nil {
		return nil, nil, err
	}

	if err := r.loadCategories(ctx, stats); err != nil {
		log.Error("failed to load categories: %v", err)
		return nil, nil, err
	}
	if err := r.loadCounters(ctx, stats); err != nil {
		log.Error("failed to load counters: %v", err)
		return nil, nil, err
	}
	earned, err := r.loadEarned(ctx, userID)
	if err != nil {
		log.Error("failed to load earned badges: %v", err)
		return nil, nil, err
	}

	log.Debug("player loaded: user_id=%s quizzes=%d earned=%d", userID, stats.TotalQuizzes, earned.Len())
	return stats, earned, nil
}

func (r *playerRepository) loadCategories(ctx context.Context, stats *models.PlayerStats) error {
	query, args, err := sqlBuilder.Select("category", "quizzes", "mastered").
		From("player_categories").
		Where(squirrel.Eq{"user_id": stats.UserID}).
		ToSql()
	if err != nil {
		return err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var quizzes int
		var mastered bool
		if err := rows.Scan(&category, &quizzes, &mastered); err != nil {
			return err
		}
		if quizzes > 0 {
			stats.CategoryQuizzes[category] = quizzes
		}
		if mastered {
			stats.CategoriesMastered.Add(category)
		}
	}
	return rows.Err()
}

func (r *playerRepository) loadCounters(ctx context.Context, stats *models.PlayerStats) error {
	query, args, err := sqlBuilder.Select("counter_key", "value").
		From("player_counters").
		Where(squirrel.Eq{"user_id": stats.UserID}).
		ToSql()
	if err != nil {
		return err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var value int
		if err := rows.Scan(&key, &value); err != nil {
			return err
		}
		stats.Counters[key] = value
	}
	return rows.Err()
}

func (r *playerRepository) loadEarned(ctx context.Context, userID string) (models.Set, error) {
	query, args, err := sqlBuilder.Select("badge_id").
		From("earned_badges").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	earned := models.NewSet()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		earned.Add(id)
	}
	return earned, rows.Err()
}

func (r *playerRepository) Save(ctx context.Context, stats *models.PlayerStats, earned models.Set) error {
	log := logger.FromContext(ctx).WithPrefix("player_repo")
	log.Debug("saving player: user_id=%s quizzes=%d earned=%d", stats.UserID, stats.TotalQuizzes, earned.Len())

	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		upsert := sqlBuilder.Insert("player_stats").
			Columns(
				"user_id", "total_quizzes", "total_correct", "total_questions", "best_streak", "current_streak",
				"last_answer_day", "daily_login_streak", "last_login_day",
			).
			Values(
				stats.UserID, stats.TotalQuizzes, stats.TotalCorrect, stats.TotalQuestions, stats.BestStreak, stats.CurrentStreak,
				nullDay(stats.LastAnswerDay), stats.DailyLoginStreak, nullDay(stats.LastLoginDay),
			).
			Suffix(`ON CONFLICT(user_id) DO UPDATE SET
    total_quizzes = excluded.total_quizzes,
    total_correct = excluded.total_correct,
    total_questions = excluded.total_questions,
    best_streak = excluded.best_streak,
    current_streak = excluded.current_streak,
    last_answer_day = excluded.last_answer_day,
    daily_login_streak = excluded.daily_login_streak,
    last_login_day = excluded.last_login_day,
    updated_at = CURRENT_TIMESTAMP`)
		if err := execBuilt(ctx, tx, upsert); err != nil {
			return fmt.Errorf("upsert player_stats: %w", err)
		}

		if err := execBuilt(ctx, tx, sqlBuilder.Delete("player_categories").Where(squirrel.Eq{"user_id": stats.UserID})); err != nil {
			return fmt.Errorf("clear player_categories: %w", err)
		}
		if categories := categoryNames(stats); len(categories) > 0 {
			ins := sqlBuilder.Insert("player_categories").Columns("user_id", "category", "quizzes", "mastered")
			for _, c := range categories {
				ins = ins.Values(stats.UserID, c, stats.CategoryQuizzes[c], boolToInt(stats.CategoriesMastered.Has(c)))
			}
			if err := execBuilt(ctx, tx, ins); err != nil {
				return fmt.Errorf("insert player_categories: %w", err)
			}
		}

		if err := execBuilt(ctx, tx, sqlBuilder.Delete("player_counters").Where(squirrel.Eq{"user_id": stats.UserID})); err != nil {
			return fmt.Errorf("clear player_counters: %w", err)
		}
		if len(stats.Counters) > 0 {
			ins := sqlBuilder.Insert("player_counters").Columns("user_id", "counter_key", "value")
			for _, k := range sortedKeys(stats.Counters) {
				ins = ins.Values(stats.UserID, k, stats.Counters[k])
			}
			if err := execBuilt(ctx, tx, ins); err != nil {
				return fmt.Errorf("insert player_counters: %w", err)
			}
		}

		if earned.Len() > 0 {
			ins := sqlBuilder.Insert("earned_badges").Options("OR IGNORE").Columns("user_id", "badge_id")
			for _, id := range earned.Sorted() {
				ins = ins.Values(stats.UserID, id)
			}
			if err := execBuilt(ctx, tx, ins); err != nil {
				return fmt.Errorf("insert earned_badges: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to save player: %v", err)
	}
	return err
}

func (r *playerRepository) Delete(ctx context.Context, userID string) error {
	log := logger.FromContext(ctx).WithPrefix("player_repo")
	log.Debug("deleting player: user_id=%s", userID)

	query, args, err := sqlBuilder.Delete("player_stats").Where(squirrel.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to delete player: %v", err)
		return err
	}
	return nil
}

func (r *playerRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// categoryNames returns every category with a quiz count or mastery flag, sorted.
func categoryNames(stats *models.PlayerStats) []string {
	names := stats.CategoriesMastered.Clone()
	for c := range stats.CategoryQuizzes {
		names.Add(c)
	}
	return names.Sorted()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
