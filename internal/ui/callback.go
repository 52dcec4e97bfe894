package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrBadCallback = errors.New("bad callback data")

// Callback scopes.
const (
	ScopeSpace = "cfg"
	ScopeMain  = "main"
	ScopeOwner = "own"
)

// Space-scoped actions.
const (
	ActionMenu             = "menu"
	ActionToggleHitRun     = "hitrun"
	ActionToggleMaint      = "maint"
	ActionSupervisors      = "sups"
	ActionAddSupervisor    = "supadd"
	ActionRemoveSupervisor = "suprem"
	ActionStats            = "stats"
	ActionLog              = "log"
)

// Space-less actions.
const (
	ActionAbout    = "about"
	ActionHelp     = "help"
	ActionBack     = "back"
	ActionNoAccess = "noaccess"
	ActionSpaces   = "spaces"
)

type Callback struct {
	Scope   string
	Action  string
	SpaceID int64
	Target  int64
}

func SpaceCallback(action string, spaceID int64) string {
	return fmt.Sprintf("%s:%s:%d", ScopeSpace, action, spaceID)
}

func TargetCallback(action string, spaceID, target int64) string {
	return fmt.Sprintf("%s:%s:%d:%d", ScopeSpace, action, spaceID, target)
}

func MainCallback(action string) string {
	return ScopeMain + ":" + action
}

func OwnerCallback(action string) string {
	return ScopeOwner + ":" + action
}

// ParseCallback decodes callback data. Space-scoped data must carry a
// numeric space ID; suprem also needs a numeric target.
func ParseCallback(data string) (Callback, error) {
	parts := strings.Split(strings.TrimSpace(data), ":")
	if len(parts) < 2 || parts[1] == "" {
		return Callback{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
	}

	cb := Callback{Scope: parts[0], Action: parts[1]}
	switch cb.Scope {
	case ScopeMain, ScopeOwner:
		if len(parts) != 2 {
			return Callback{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
		}
		return cb, nil
	case ScopeSpace:
	default:
		return Callback{}, fmt.Errorf("%w: unknown scope %q", ErrBadCallback, cb.Scope)
	}

	if len(parts) < 3 || len(parts) > 4 {
		return Callback{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
	}
	spaceID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || spaceID == 0 {
		return Callback{}, fmt.Errorf("%w: space id %q", ErrBadCallback, parts[2])
	}
	cb.SpaceID = spaceID

	if cb.Action == ActionRemoveSupervisor {
		if len(parts) != 4 {
			return Callback{}, fmt.Errorf("%w: missing target in %q", ErrBadCallback, data)
		}
		target, err := strconv.ParseInt(parts[3], 10, 64)
		if err != nil || target == 0 {
			return Callback{}, fmt.Errorf("%w: target %q", ErrBadCallback, parts[3])
		}
		cb.Target = target
	} else if len(parts) == 4 {
		return Callback{}, fmt.Errorf("%w: unexpected target in %q", ErrBadCallback, data)
	}

	return cb, nil
}
