package enums

import "testing"

func TestSettingKeyStoredAliases(t *testing.T) {
	aliases := SettingAntiHitRun.StoredAliases()
	if len(aliases) != 1 || aliases[0] != SettingLegacyRejoinBan {
		t.Fatalf("anti_hitrun must alias rejoin_ban, got %v", aliases)
	}
	if got := SettingMaintenance.StoredAliases(); len(got) != 0 {
		t.Fatalf("maintenance has no aliases, got %v", got)
	}
	if SettingLegacyRejoinBan.Valid() {
		t.Fatalf("legacy key must not be accepted for writes")
	}
}
