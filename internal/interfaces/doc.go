// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Storage Interfaces
//
//   - BookStore: Book persistence with ordered comment refs (internal/catalog/stores.go)
//   - CommentStore: Comment persistence keyed by owning book (internal/catalog/stores.go)
//   - Transactor: Runs a function inside one database transaction (internal/catalog/stores.go)
//   - Pinger: Storage connectivity check (internal/http/stores.go)
//
// ## Catalog Interfaces
//
//   - CatalogService: Everything served under /api/books (internal/http/stores.go)
//   - AuditRecorder: Receives a record of every catalog mutation (internal/catalog/stores.go)
//   - Snapshotter: Saves the catalog before a full delete (internal/catalog/stores.go)
//   - RepairTrigger: Asks for one book's refs to be repaired (internal/catalog/stores.go)
//
// ## Background Work Interfaces
//
//   - CatalogReconciler: Full and single-book repair passes (internal/tasks/reconcile.go)
//   - OrphanCommentsCleaner: Removes comments of missing books (internal/tasks/cleanup_comments.go)
//   - AuditEventCleaner: Applies audit retention (internal/tasks/cleanup_audit.go)
//   - TaskQueue: Enqueue and inspect tasks over HTTP (internal/http/stores.go)
//   - MaintenanceRunner: Scheduled job status and manual runs (internal/http/stores.go)
//
// # Adding a New Repair Trigger
//
// The read path only reports that a book needs repair; what happens next is
// up to the RepairTrigger wired in entrypoint. To add one:
//
//  1. Implement RequestBookRepair without blocking the caller:
//
//     type LoggingTrigger struct{ log *logger.Logger }
//
//     func (t *LoggingTrigger) RequestBookRepair(bookID string) {
//     t.log.Warn("Book needs repair", "book_id", bookID)
//     }
//
//     var _ catalog.RepairTrigger = (*LoggingTrigger)(nil)
//
//  2. Pass it to catalog.Service.SetRepairTrigger in entrypoint/app.go
//
// # Adding a New Background Task
//
//  1. Define the task and its queue config in internal/tasks/
//
//  2. Write a processor that depends on a narrow interface
//
//  3. Register the queue in entrypoint/app.go and, if it should be
//     triggerable over HTTP, add it to internal/http/tasks.go
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
