package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/setlist/internal/gate"
	"github.com/desertthunder/setlist/internal/models"
)

// RateLimitRepository implements [gate.Store] over the rate_limits table.
type RateLimitRepository struct {
	db *sql.DB
}

var _ gate.Store = (*RateLimitRepository)(nil)

// NewRateLimitRepository creates a new [RateLimitRepository] with the given database connection
func NewRateLimitRepository(db *sql.DB) *RateLimitRepository {
	return &RateLimitRepository{db: db}
}

// Update loads the entry for key, applies fn and upserts the result in one transaction.
func (r *RateLimitRepository) Update(ctx context.Context, key string, fn gate.UpdateFunc) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		current, err := getEntry(ctx, tx, key)
		if err != nil {
			return err
		}

		next := fn(current)
		query := `
			INSERT INTO rate_limits (subject_key, count, window_reset_at, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(subject_key) DO UPDATE SET
				count = excluded.count,
				window_reset_at = excluded.window_reset_at,
				updated_at = excluded.updated_at
		`
		if _, err := tx.ExecContext(ctx, query, key, next.Count, dbTime(next.WindowResetAt), dbTime(time.Now())); err != nil {
			return fmt.Errorf("failed to upsert rate limit: %w", err)
		}
		return nil
	})
}

// Get retrieves the entry for key, or nil when none exists.
func (r *RateLimitRepository) Get(ctx context.Context, key string) (*models.RateLimitEntry, error) {
	var entry *models.RateLimitEntry
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		entry, err = getEntry(ctx, tx, key)
		return err
	})
	return entry, err
}

// Prune deletes entries whose window ended before the given time.
func (r *RateLimitRepository) Prune(ctx context.Context, before time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rate_limits WHERE window_reset_at < ?`, dbTime(before))
	if err != nil {
		return 0, fmt.Errorf("failed to prune rate limits: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned rows: %w", err)
	}
	return int(n), nil
}

func getEntry(ctx context.Context, tx *sql.Tx, key string) (*models.RateLimitEntry, error) {
	query := `SELECT subject_key, count, window_reset_at FROM rate_limits WHERE subject_key = ?`

	var entry models.RateLimitEntry
	err := tx.QueryRowContext(ctx, query, key).Scan(&entry.SubjectKey, &entry.Count, &entry.WindowResetAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query rate limit: %w", err)
	}

	entry.WindowResetAt = entry.WindowResetAt.UTC()
	return &entry, nil
}

// dbTime normalizes timestamps so stored values compare correctly as text.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
