package http

import (
	"context"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookshelf/internal/catalog"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/scheduler"
)

// This file consolidates the interfaces HTTP controllers depend on.
// Each controller takes only what it uses.

// CatalogService is the catalog surface served under /api/books.
type CatalogService interface {
	ListBooks(ctx context.Context) ([]catalog.BookView, error)
	GetBook(ctx context.Context, id string) (*catalog.BookView, error)
	CreateBook(ctx context.Context, title string) (*entities.Book, error)
	AttachComment(ctx context.Context, bookID, text string) (*catalog.BookView, error)
	DeleteBook(ctx context.Context, id string) (catalog.DeleteOutcome, error)
	DeleteAllBooks(ctx context.Context) error
}

// AuditReader provides read access to the audit trail.
type AuditReader interface {
	GetEvents(eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error)
	GetEventsForEntity(entityID string) ([]entities.AuditEvent, error)
}

// TaskQueue enqueues background tasks and reports their status.
type TaskQueue interface {
	Add(tasks ...backlite.Task) *backlite.TaskAddOp
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// MaintenanceRunner reports on scheduled maintenance jobs and runs them on demand.
type MaintenanceRunner interface {
	Jobs() []scheduler.Job
	IsRunning() bool
	IsJobActive(name string) bool
	NextRunTime(name string) *time.Time
	RunNow(ctx context.Context, name string) error
}

// Pinger checks storage connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
