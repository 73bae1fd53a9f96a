package config

const (
	// DefaultDatabasePath is the default path for the catalog database
	DefaultDatabasePath = "./bookshelf.db"

	// DefaultReconcileSchedule runs the catalog reconcile daily at 03:00
	DefaultReconcileSchedule = "0 3 * * *"

	// DefaultAuditCleanupSchedule prunes old audit events daily at 04:00
	DefaultAuditCleanupSchedule = "0 4 * * *"
)
