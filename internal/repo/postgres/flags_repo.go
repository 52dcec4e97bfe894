package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type FlagsRepo struct {
	pool *pgxpool.Pool
}

func NewFlagsRepo(pool *pgxpool.Pool) *FlagsRepo {
	return &FlagsRepo{pool: pool}
}

// Flag inserts the pair once. A repeated flag is not an error; inserted
// reports whether this call created the record.
func (r *FlagsRepo) Flag(ctx context.Context, spaceID, userID int64, at time.Time) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO hitrun_flags (space_id, user_id, flagged_on)
		VALUES ($1, $2, $3)
		ON CONFLICT (space_id, user_id) DO NOTHING
	`, spaceID, userID, at.UTC())
	if err != nil {
		return false, fmt.Errorf("insert hitrun flag: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *FlagsRepo) IsFlagged(ctx context.Context, spaceID, userID int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM hitrun_flags WHERE space_id = $1 AND user_id = $2)
	`, spaceID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check hitrun flag: %w", err)
	}
	return exists, nil
}
