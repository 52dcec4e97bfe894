package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/guardian/internal/domain/enums"
	"github.com/ivankudzin/tgapp/guardian/internal/domain/model"
)

const (
	defaultRecentLimit = 10
	maxDetailLength    = 512
)

type Store interface {
	Save(ctx context.Context, entry model.Audit) error
	ListRecent(ctx context.Context, spaceID int64, limit int) ([]model.Audit, error)
}

type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

// Log appends an audit entry. It never fails: storage errors are only logged.
func (s *Service) Log(ctx context.Context, spaceID int64, action enums.AuditAction, detail string) {
	if s == nil || s.store == nil {
		return
	}

	entry := model.Audit{
		ID:        s.newID(),
		SpaceID:   spaceID,
		Action:    action,
		Detail:    truncate(strings.TrimSpace(detail), maxDetailLength),
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Save(ctx, entry); err != nil {
		s.logger.Warn("audit write failed",
			zap.Int64("space_id", spaceID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}

func (s *Service) ListRecent(ctx context.Context, spaceID int64, limit int) ([]model.Audit, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("audit store is nil")
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	entries, err := s.store.ListRecent(ctx, spaceID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent audit for %d: %w", spaceID, err)
	}
	return entries, nil
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}
