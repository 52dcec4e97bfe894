package model

import (
	"errors"
	"strings"

	"github.com/ivankudzin/tgapp/guardian/internal/domain/enums"
)

var ErrInvalidMemberUpdate = errors.New("invalid member update")

type UserRef struct {
	ID        int64
	FirstName string
	Username  string
	IsBot     bool
}

func (u UserRef) DisplayName() string {
	if name := strings.TrimSpace(u.FirstName); name != "" {
		return name
	}
	if name := strings.TrimSpace(u.Username); name != "" {
		return "@" + name
	}
	return "Unknown"
}

// MemberUpdate is a membership transition of one user in one space.
type MemberUpdate struct {
	SpaceID   int64
	SpaceKind enums.SpaceKind
	User      UserRef
	OldStatus enums.MemberStatus
	NewStatus enums.MemberStatus
}

func (u MemberUpdate) Validate() error {
	if u.SpaceID == 0 || u.User.ID == 0 {
		return ErrInvalidMemberUpdate
	}
	if !u.SpaceKind.IsMultiUser() {
		return ErrInvalidMemberUpdate
	}
	return nil
}

// IsJoin reports a transition from outside the space to member or administrator.
// Lifting restrictions from a member is not a join.
func (u MemberUpdate) IsJoin() bool {
	return !u.OldStatus.InSpace() &&
		(u.NewStatus == enums.MemberStatusMember || u.NewStatus == enums.MemberStatusAdministrator)
}

// IsVoluntaryLeave reports a member leaving on their own. Kicks and bans
// are not voluntary.
func (u MemberUpdate) IsVoluntaryLeave() bool {
	return (u.OldStatus == enums.MemberStatusMember || u.OldStatus == enums.MemberStatusAdministrator) &&
		u.NewStatus == enums.MemberStatusLeft
}
