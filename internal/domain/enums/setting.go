package enums

type SettingKey string

const (
	SettingMaintenance SettingKey = "maintenance"
	SettingAntiHitRun  SettingKey = "anti_hitrun"

	// SettingLegacyRejoinBan is the pre-hit-and-run name of SettingAntiHitRun.
	SettingLegacyRejoinBan SettingKey = "rejoin_ban"
)

func (k SettingKey) Valid() bool {
	return k == SettingMaintenance || k == SettingAntiHitRun
}

// StoredAliases lists older names the key may still be stored under in
// records that were never upgraded.
func (k SettingKey) StoredAliases() []SettingKey {
	if k == SettingAntiHitRun {
		return []SettingKey{SettingLegacyRejoinBan}
	}
	return nil
}

type StatField string

const (
	StatJoins           StatField = "joins"
	StatBans            StatField = "bans"
	StatMaintenanceHits StatField = "maintenance_hits"
)

func (f StatField) Valid() bool {
	return f == StatJoins || f == StatBans || f == StatMaintenanceHits
}
