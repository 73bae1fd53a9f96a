package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/bookshelf/internal/audit"
	"github.com/mrlokans/bookshelf/internal/catalog"
	"github.com/mrlokans/bookshelf/internal/database"
	auditRepo "github.com/mrlokans/bookshelf/internal/database/audit"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/comments"
	"github.com/mrlokans/bookshelf/internal/http"
	"github.com/mrlokans/bookshelf/internal/scheduler"
	"github.com/mrlokans/bookshelf/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ catalog.BookStore = (*books.Repository)(nil)
var _ catalog.CommentStore = (*comments.Repository)(nil)
var _ catalog.Transactor = (*database.Database)(nil)
var _ http.Pinger = (*database.Database)(nil)

// =============================================================================
// Catalog
// =============================================================================

var _ http.CatalogService = (*catalog.Service)(nil)
var _ catalog.AuditRecorder = (*audit.Service)(nil)
var _ catalog.Snapshotter = (*audit.Snapshotter)(nil)

// RepairTrigger implementations
var _ catalog.RepairTrigger = (*catalog.Reconciler)(nil)
var _ catalog.RepairTrigger = (*tasks.RepairEnqueuer)(nil)

// =============================================================================
// Audit Trail
// =============================================================================

var _ http.AuditReader = (*audit.Service)(nil)
var _ http.AuditReader = (*auditRepo.Repository)(nil)

// =============================================================================
// Background Tasks
// =============================================================================

var _ http.TaskQueue = (*tasks.Client)(nil)
var _ tasks.TaskAdder = (*tasks.Client)(nil)
var _ tasks.CatalogReconciler = (*catalog.Reconciler)(nil)
var _ tasks.OrphanCommentsCleaner = (*comments.Repository)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
var _ http.MaintenanceRunner = (*scheduler.MaintenanceScheduler)(nil)
