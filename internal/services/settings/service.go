package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/guardian/internal/domain/enums"
	"github.com/ivankudzin/tgapp/guardian/internal/domain/model"
)

var ErrUnknownSetting = errors.New("unknown setting")

type Repo interface {
	GetOrCreate(ctx context.Context, spaceID int64) (model.SpaceDocument, bool, error)
	SaveUpgrade(ctx context.Context, spaceID int64, fromVersion, toVersion int) (bool, error)
	SetSetting(ctx context.Context, spaceID int64, key enums.SettingKey, value any) error
	ToggleSetting(ctx context.Context, spaceID int64, key enums.SettingKey) (bool, error)
	IncrementStat(ctx context.Context, spaceID int64, field enums.StatField) error
	AddSupervisor(ctx context.Context, spaceID, userID int64) (bool, error)
	RemoveSupervisor(ctx context.Context, spaceID, userID int64) (bool, error)
	IsSupervisor(ctx context.Context, spaceID, userID int64) (bool, error)
	ListAll(ctx context.Context) ([]model.SpaceDocument, error)
	GlobalStats(ctx context.Context) (model.GlobalStats, error)
}

type AuditLogger interface {
	Log(ctx context.Context, spaceID int64, action enums.AuditAction, detail string)
}

type Service struct {
	repo   Repo
	audit  AuditLogger
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo Repo, audit AuditLogger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		audit:  audit,
		logger: logger,
		now:    time.Now,
	}
}

// GetSettings returns the space record, creating it with defaults on first
// access. Storage failures yield an unsaved default record.
func (s *Service) GetSettings(ctx context.Context, spaceID int64) model.Space {
	if s.repo == nil {
		return model.DefaultSpace(spaceID, s.now())
	}

	doc, created, err := s.repo.GetOrCreate(ctx, spaceID)
	if err != nil {
		s.logger.Error("load space settings", zap.Int64("space_id", spaceID), zap.Error(err))
		return model.DefaultSpace(spaceID, s.now())
	}
	if created {
		s.logger.Info("space registered", zap.Int64("space_id", spaceID))
	}

	if doc.SchemaVersion < model.CurrentSettingsVersion {
		upgraded, changed := model.UpgradeSettings(doc.Settings, doc.SchemaVersion)
		doc.Settings = upgraded
		if changed {
			s.saveUpgrade(ctx, spaceID, doc.SchemaVersion)
		}
	}

	return model.SpaceFromDocument(doc)
}

// saveUpgrade asks the store to upgrade the record in place rather than
// writing back the document read above, which may already be stale.
func (s *Service) saveUpgrade(ctx context.Context, spaceID int64, fromVersion int) {
	saved, err := s.repo.SaveUpgrade(ctx, spaceID, fromVersion, model.CurrentSettingsVersion)
	if err != nil {
		s.logger.Warn("save upgraded settings",
			zap.Int64("space_id", spaceID),
			zap.Int("from_version", fromVersion),
			zap.Error(err),
		)
		return
	}
	if saved {
		s.logger.Info("space settings upgraded",
			zap.Int64("space_id", spaceID),
			zap.Int("from_version", fromVersion),
			zap.Int("to_version", model.CurrentSettingsVersion),
		)
	}
}

func (s *Service) UpdateSetting(ctx context.Context, spaceID int64, key enums.SettingKey, value bool) error {
	if !key.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownSetting, key)
	}
	if s.repo == nil {
		return fmt.Errorf("settings repo is nil")
	}
	if err := s.repo.SetSetting(ctx, spaceID, key, value); err != nil {
		return fmt.Errorf("update setting %s for %d: %w", key, spaceID, err)
	}
	return nil
}

// ToggleSetting flips a setting and returns its new value.
func (s *Service) ToggleSetting(ctx context.Context, spaceID int64, key enums.SettingKey) (bool, error) {
	if !key.Valid() {
		return false, fmt.Errorf("%w: %q", ErrUnknownSetting, key)
	}
	if s.repo == nil {
		return false, fmt.Errorf("settings repo is nil")
	}
	value, err := s.repo.ToggleSetting(ctx, spaceID, key)
	if err != nil {
		return false, fmt.Errorf("toggle setting %s for %d: %w", key, spaceID, err)
	}
	return value, nil
}

func (s *Service) IncrementStat(ctx context.Context, spaceID int64, field enums.StatField) {
	if !field.Valid() || s.repo == nil {
		return
	}
	if err := s.repo.IncrementStat(ctx, spaceID, field); err != nil {
		s.logger.Warn("increment stat",
			zap.Int64("space_id", spaceID),
			zap.String("field", string(field)),
			zap.Error(err),
		)
	}
}

func (s *Service) AddSupervisor(ctx context.Context, spaceID, userID int64) bool {
	if s.repo == nil {
		return false
	}
	added, err := s.repo.AddSupervisor(ctx, spaceID, userID)
	if err != nil {
		s.logger.Warn("add supervisor", zap.Int64("space_id", spaceID), zap.Int64("user_id", userID), zap.Error(err))
		return false
	}
	return added
}

func (s *Service) RemoveSupervisor(ctx context.Context, spaceID, userID int64) bool {
	if s.repo == nil {
		return false
	}
	removed, err := s.repo.RemoveSupervisor(ctx, spaceID, userID)
	if err != nil {
		s.logger.Warn("remove supervisor", zap.Int64("space_id", spaceID), zap.Int64("user_id", userID), zap.Error(err))
		return false
	}
	return removed
}

func (s *Service) IsSupervisor(ctx context.Context, spaceID, userID int64) bool {
	if s.repo == nil {
		return false
	}
	ok, err := s.repo.IsSupervisor(ctx, spaceID, userID)
	if err != nil {
		s.logger.Warn("check supervisor", zap.Int64("space_id", spaceID), zap.Int64("user_id", userID), zap.Error(err))
		return false
	}
	return ok
}

func (s *Service) ListSpaces(ctx context.Context) []model.Space {
	if s.repo == nil {
		return []model.Space{}
	}
	docs, err := s.repo.ListAll(ctx)
	if err != nil {
		s.logger.Error("list spaces", zap.Error(err))
		return []model.Space{}
	}

	spaces := make([]model.Space, 0, len(docs))
	for _, doc := range docs {
		if doc.SchemaVersion < model.CurrentSettingsVersion {
			doc.Settings, _ = model.UpgradeSettings(doc.Settings, doc.SchemaVersion)
		}
		spaces = append(spaces, model.SpaceFromDocument(doc))
	}
	return spaces
}

func (s *Service) GlobalStats(ctx context.Context) model.GlobalStats {
	if s.repo == nil {
		return model.GlobalStats{}
	}
	stats, err := s.repo.GlobalStats(ctx)
	if err != nil {
		s.logger.Error("aggregate global stats", zap.Error(err))
		return model.GlobalStats{}
	}
	return stats
}

func (s *Service) LogAction(ctx context.Context, spaceID int64, action enums.AuditAction, detail string) {
	if s.audit == nil {
		return
	}
	s.audit.Log(ctx, spaceID, action, detail)
}
