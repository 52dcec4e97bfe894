package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/tgapp/guardian/internal/domain/enums"
	"github.com/ivankudzin/tgapp/guardian/internal/domain/model"
)

type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) Save(ctx context.Context, entry model.Audit) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_log (id, space_id, action, detail, created_at)
		VALUES ($1::text::uuid, $2, $3, $4, $5)
	`, entry.ID, entry.SpaceID, string(entry.Action), entry.Detail, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepo) ListRecent(ctx context.Context, spaceID int64, limit int) ([]model.Audit, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id::text, space_id, action, detail, created_at
		FROM audit_log
		WHERE space_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, spaceID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent audit: %w", err)
	}
	defer rows.Close()

	return collectAudit(rows, limit)
}

// ListOlderThan returns up to limit entries created before cutoff, oldest first.
func (r *AuditRepo) ListOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]model.Audit, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 500
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id::text, space_id, action, detail, created_at
		FROM audit_log
		WHERE created_at < $1
		ORDER BY created_at
		LIMIT $2
	`, cutoff.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("list expired audit: %w", err)
	}
	defer rows.Close()

	return collectAudit(rows, limit)
}

func (r *AuditRepo) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}
	if len(ids) == 0 {
		return 0, nil
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM audit_log WHERE id = ANY($1::text[]::uuid[])`, ids)
	if err != nil {
		return 0, fmt.Errorf("delete audit entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

func collectAudit(rows pgx.Rows, capacity int) ([]model.Audit, error) {
	result := make([]model.Audit, 0, capacity)
	for rows.Next() {
		var entry model.Audit
		var action string
		if err := rows.Scan(&entry.ID, &entry.SpaceID, &action, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		entry.Action = enums.AuditAction(action)
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit rows: %w", err)
	}
	return result, nil
}
