package enums

import "strings"

type MemberStatus string

const (
	MemberStatusNone          MemberStatus = "none"
	MemberStatusMember        MemberStatus = "member"
	MemberStatusAdministrator MemberStatus = "administrator"
	MemberStatusCreator       MemberStatus = "creator"
	MemberStatusRestricted    MemberStatus = "restricted"
	MemberStatusLeft          MemberStatus = "left"
	MemberStatusKicked        MemberStatus = "kicked"
)

// ParseMemberStatus maps a Telegram chat member status. An empty status means
// the user had no membership record at all.
func ParseMemberStatus(raw string) (MemberStatus, bool) {
	switch status := MemberStatus(strings.ToLower(strings.TrimSpace(raw))); status {
	case "":
		return MemberStatusNone, true
	case MemberStatusNone, MemberStatusMember, MemberStatusAdministrator, MemberStatusCreator,
		MemberStatusRestricted, MemberStatusLeft, MemberStatusKicked:
		return status, true
	default:
		return MemberStatusNone, false
	}
}

// InSpace reports whether the user is currently inside the space. A
// restricted status always means a restricted member; restricted users who
// are not in the chat are mapped to left at the transport boundary.
func (s MemberStatus) InSpace() bool {
	switch s {
	case MemberStatusMember, MemberStatusAdministrator, MemberStatusCreator, MemberStatusRestricted:
		return true
	default:
		return false
	}
}

func (s MemberStatus) IsAdmin() bool {
	return s == MemberStatusAdministrator || s == MemberStatusCreator
}
