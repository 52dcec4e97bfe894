package access

import (
	"context"

	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/guardian/internal/domain/enums"
)

type Access struct {
	HasAccess bool
	IsAdmin   bool
}

type RoleSource interface {
	MemberStatus(ctx context.Context, spaceID, userID int64) (enums.MemberStatus, error)
}

type SupervisorChecker interface {
	IsSupervisor(ctx context.Context, spaceID, userID int64) bool
}

type Service struct {
	ownerID     int64
	roles       RoleSource
	supervisors SupervisorChecker
	logger      *zap.Logger
}

func NewService(ownerID int64, roles RoleSource, supervisors SupervisorChecker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		ownerID:     ownerID,
		roles:       roles,
		supervisors: supervisors,
		logger:      logger,
	}
}

func (s *Service) IsOwner(userID int64) bool {
	return s.ownerID != 0 && userID == s.ownerID
}

// ResolveAccess grants the owner everything. Other users get access as space
// admins or supervisors; a failed role lookup denies access entirely.
func (s *Service) ResolveAccess(ctx context.Context, spaceID, userID int64) Access {
	if s.IsOwner(userID) {
		return Access{HasAccess: true, IsAdmin: true}
	}
	if s.roles == nil {
		return Access{}
	}

	status, err := s.roles.MemberStatus(ctx, spaceID, userID)
	if err != nil {
		s.logger.Debug("member role lookup failed",
			zap.Int64("space_id", spaceID),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return Access{}
	}

	isAdmin := status.IsAdmin()
	supervisor := s.supervisors != nil && s.supervisors.IsSupervisor(ctx, spaceID, userID)
	return Access{HasAccess: isAdmin || supervisor, IsAdmin: isAdmin}
}

// IsSpaceAdmin reports whether the user administers the space. The owner is
// not implied.
func (s *Service) IsSpaceAdmin(ctx context.Context, spaceID, userID int64) bool {
	if s.roles == nil {
		return false
	}
	status, err := s.roles.MemberStatus(ctx, spaceID, userID)
	if err != nil {
		return false
	}
	return status.IsAdmin()
}
