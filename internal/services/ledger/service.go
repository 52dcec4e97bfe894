package ledger

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// JoinStore keeps the most recent join time per (space, user). Take must
// fetch and delete in one step.
type JoinStore interface {
	Put(ctx context.Context, spaceID, userID int64, joinedAt time.Time) error
	Take(ctx context.Context, spaceID, userID int64) (time.Time, bool, error)
}

type FlagStore interface {
	Flag(ctx context.Context, spaceID, userID int64, at time.Time) (bool, error)
	IsFlagged(ctx context.Context, spaceID, userID int64) (bool, error)
}

type Service struct {
	joins  JoinStore
	flags  FlagStore
	logger *zap.Logger
	now    func() time.Time
}

func NewService(joins JoinStore, flags FlagStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		joins:  joins,
		flags:  flags,
		logger: logger,
		now:    time.Now,
	}
}

// RecordJoin stores the current time as the user's join time, replacing any
// earlier record.
func (s *Service) RecordJoin(ctx context.Context, spaceID, userID int64) error {
	if s.joins == nil {
		return fmt.Errorf("join store is nil")
	}
	if err := s.joins.Put(ctx, spaceID, userID, s.now().UTC()); err != nil {
		return fmt.Errorf("record join of %d in %d: %w", userID, spaceID, err)
	}
	return nil
}

// TakeJoinTime returns and removes the join record. Store errors are reported
// as an absent record.
func (s *Service) TakeJoinTime(ctx context.Context, spaceID, userID int64) (time.Time, bool) {
	if s.joins == nil {
		return time.Time{}, false
	}
	joinedAt, ok, err := s.joins.Take(ctx, spaceID, userID)
	if err != nil {
		s.logger.Warn("take join time",
			zap.Int64("space_id", spaceID),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return time.Time{}, false
	}
	return joinedAt, ok
}

func (s *Service) IsFlagged(ctx context.Context, spaceID, userID int64) bool {
	if s.flags == nil {
		return false
	}
	flagged, err := s.flags.IsFlagged(ctx, spaceID, userID)
	if err != nil {
		s.logger.Warn("check flag",
			zap.Int64("space_id", spaceID),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return false
	}
	return flagged
}

// Flag marks the user as a hit-and-run offender. Flagging twice is not an
// error.
func (s *Service) Flag(ctx context.Context, spaceID, userID int64) error {
	if s.flags == nil {
		return fmt.Errorf("flag store is nil")
	}
	inserted, err := s.flags.Flag(ctx, spaceID, userID, s.now().UTC())
	if err != nil {
		return fmt.Errorf("flag %d in %d: %w", userID, spaceID, err)
	}
	if !inserted {
		s.logger.Debug("user already flagged", zap.Int64("space_id", spaceID), zap.Int64("user_id", userID))
	}
	return nil
}
