package enums

type SpaceKind string

const (
	SpaceKindPrivate    SpaceKind = "private"
	SpaceKindGroup      SpaceKind = "group"
	SpaceKindSupergroup SpaceKind = "supergroup"
	SpaceKindChannel    SpaceKind = "channel"
)

func (k SpaceKind) IsMultiUser() bool {
	return k == SpaceKindGroup || k == SpaceKindSupergroup || k == SpaceKindChannel
}
