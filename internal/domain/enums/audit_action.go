package enums

type AuditAction string

const (
	AuditActionHitRunBan         AuditAction = "anti_hitrun_ban"
	AuditActionHitRunFlag        AuditAction = "anti_hitrun_flag"
	AuditActionError             AuditAction = "error"
	AuditActionToggleHitRun      AuditAction = "toggle_anti_hitrun"
	AuditActionToggleMaintenance AuditAction = "toggle_maintenance"
	AuditActionAddSupervisor     AuditAction = "add_supervisor"
	AuditActionRemoveSupervisor  AuditAction = "remove_supervisor"
)
