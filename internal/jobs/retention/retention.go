package retention

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/guardian/internal/domain/model"
)

const (
	defaultRetention = 90 * 24 * time.Hour
	defaultBatchSize = 500
)

type Store interface {
	ListOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]model.Audit, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

type Archiver interface {
	Archive(ctx context.Context, at time.Time, entries []model.Audit) (string, error)
}

// Job removes audit entries older than the retention period. With an
// archiver attached, each batch is archived before it is deleted.
type Job struct {
	store     Store
	archiver  Archiver
	retention time.Duration
	batchSize int
	now       func() time.Time
	logger    *zap.Logger
}

func NewJob(store Store, retention time.Duration, logger *zap.Logger) *Job {
	if retention <= 0 {
		retention = defaultRetention
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Job{
		store:     store,
		retention: retention,
		batchSize: defaultBatchSize,
		now:       time.Now,
		logger:    logger,
	}
}

func (j *Job) AttachArchiver(archiver Archiver) {
	j.archiver = archiver
}

func (j *Job) Run(ctx context.Context) error {
	if j.store == nil {
		return nil
	}

	now := j.now().UTC()
	cutoff := now.Add(-j.retention)

	var deleted int64
	for {
		entries, err := j.store.ListOlderThan(ctx, cutoff, j.batchSize)
		if err != nil {
			return fmt.Errorf("list expired audit entries: %w", err)
		}
		if len(entries) == 0 {
			break
		}

		if j.archiver != nil {
			key, err := j.archiver.Archive(ctx, now, entries)
			if err != nil {
				return fmt.Errorf("archive expired audit entries: %w", err)
			}
			j.logger.Debug("audit batch archived", zap.String("object_key", key), zap.Int("entries", len(entries)))
		}

		ids := make([]string, 0, len(entries))
		for _, entry := range entries {
			ids = append(ids, entry.ID)
		}
		rows, err := j.store.DeleteByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("delete expired audit entries: %w", err)
		}
		deleted += rows

		if len(entries) < j.batchSize {
			break
		}
	}

	if deleted > 0 {
		j.logger.Info("audit retention completed", zap.Int64("deleted", deleted), zap.Time("cutoff", cutoff))
	}
	return nil
}

// Loop runs the job immediately and then every interval until ctx is done.
// Failed runs are logged and retried on the next tick.
func (j *Job) Loop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	j.runLogged(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.runLogged(ctx)
		}
	}
}

func (j *Job) runLogged(ctx context.Context) {
	if err := j.Run(ctx); err != nil && ctx.Err() == nil {
		j.logger.Warn("audit retention failed", zap.Error(err))
	}
}
