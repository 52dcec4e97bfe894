package model

import (
	"time"

	"github.com/ivankudzin/tgapp/guardian/internal/domain/enums"
)

// CurrentSettingsVersion is the schema version of the settings document
// written by this build.
const CurrentSettingsVersion = 1

type Stats struct {
	Joins           int64 `json:"joins"`
	Bans            int64 `json:"bans"`
	MaintenanceHits int64 `json:"maintenance_hits"`
}

type Space struct {
	ID          int64
	Maintenance bool
	AntiHitRun  bool
	Supervisors []int64
	Stats       Stats
	AddedOn     time.Time
}

// SpaceDocument is the stored form of a Space. Settings keeps the raw
// key/value document so older schema versions can be upgraded on read.
type SpaceDocument struct {
	ID            int64
	Settings      map[string]any
	Supervisors   []int64
	Stats         Stats
	SchemaVersion int
	AddedOn       time.Time
}

type GlobalStats struct {
	Spaces          int64 `json:"spaces"`
	Joins           int64 `json:"joins"`
	Bans            int64 `json:"bans"`
	MaintenanceHits int64 `json:"maintenance_hits"`
}

func DefaultSettings() map[string]any {
	return map[string]any{
		string(enums.SettingAntiHitRun):  false,
		string(enums.SettingMaintenance): false,
	}
}

func DefaultSpace(spaceID int64, now time.Time) Space {
	return Space{
		ID:          spaceID,
		Supervisors: []int64{},
		AddedOn:     now.UTC(),
	}
}

func (s Space) IsSupervisor(userID int64) bool {
	for _, id := range s.Supervisors {
		if id == userID {
			return true
		}
	}
	return false
}

// Setting returns the boolean value of a known setting key.
func (s Space) Setting(key enums.SettingKey) bool {
	switch key {
	case enums.SettingMaintenance:
		return s.Maintenance
	case enums.SettingAntiHitRun:
		return s.AntiHitRun
	default:
		return false
	}
}

// UpgradeSettings brings a settings document from version to
// CurrentSettingsVersion. The input map is not modified. changed reports
// whether the stored document needs to be rewritten.
func UpgradeSettings(settings map[string]any, version int) (upgraded map[string]any, changed bool) {
	upgraded = make(map[string]any, len(settings))
	for k, v := range settings {
		upgraded[k] = v
	}
	if version >= CurrentSettingsVersion {
		return upgraded, false
	}

	if version < 1 {
		legacy, hasLegacy := upgraded[string(enums.SettingLegacyRejoinBan)]
		_, hasCurrent := upgraded[string(enums.SettingAntiHitRun)]
		if hasLegacy && !hasCurrent {
			upgraded[string(enums.SettingAntiHitRun)] = legacy
			delete(upgraded, string(enums.SettingLegacyRejoinBan))
		}
	}

	return upgraded, true
}

func SpaceFromDocument(doc SpaceDocument) Space {
	supervisors := doc.Supervisors
	if supervisors == nil {
		supervisors = []int64{}
	}
	return Space{
		ID:          doc.ID,
		Maintenance: boolSetting(doc.Settings, enums.SettingMaintenance),
		AntiHitRun:  boolSetting(doc.Settings, enums.SettingAntiHitRun),
		Supervisors: supervisors,
		Stats:       doc.Stats,
		AddedOn:     doc.AddedOn,
	}
}

func boolSetting(settings map[string]any, key enums.SettingKey) bool {
	value, ok := settings[string(key)].(bool)
	return ok && value
}
