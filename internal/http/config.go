package http

import "github.com/mrlokans/bookshelf/internal/logger"

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Catalog  CatalogService
	Database Pinger
	Logger   *logger.Logger

	// Audit trail (optional)
	Audit AuditReader

	// Task queue client (optional)
	TaskClient TaskQueue

	// Maintenance scheduler (optional)
	Maintenance MaintenanceRunner

	// AuditRetentionDays is passed to cleanup tasks started over HTTP
	AuditRetentionDays int

	// Application info
	Version string
}
