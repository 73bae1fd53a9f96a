package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookshelf/internal/logger"
)

// RepairBookTask reconciles one book's comment refs with its comments.
type RepairBookTask struct {
	BookID string `json:"book_id"`
}

// Config returns the queue configuration for book repair tasks.
func (t RepairBookTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "repair_book",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// RepairBookProcessor creates a processor function for RepairBookTask.
func RepairBookProcessor(reconciler CatalogReconciler, log *logger.Logger) backlite.QueueProcessor[RepairBookTask] {
	return func(ctx context.Context, task RepairBookTask) error {
		if reconciler == nil {
			return fmt.Errorf("reconciler not configured")
		}

		report, err := reconciler.RepairBook(ctx, task.BookID)
		if err != nil {
			return fmt.Errorf("repair book %s: %w", task.BookID, err)
		}

		if report.Changed() {
			log.Info("Repaired book", "book_id", task.BookID, "report", report.String())
		} else {
			log.Debug("Book needed no repair", "book_id", task.BookID)
		}
		return nil
	}
}

// NewRepairBookQueue creates a backlite queue for book repair tasks.
func NewRepairBookQueue(reconciler CatalogReconciler, log *logger.Logger) backlite.Queue {
	return backlite.NewQueue(RepairBookProcessor(reconciler, log))
}

// TaskAdder enqueues tasks.
type TaskAdder interface {
	Add(tasks ...backlite.Task) *backlite.TaskAddOp
}

// RepairEnqueuer turns repair requests from the read path into queued
// RepairBookTasks. Repeated requests for one book within the debounce
// window are coalesced.
type RepairEnqueuer struct {
	client   TaskAdder
	log      *logger.Logger
	debounce time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

func NewRepairEnqueuer(client TaskAdder, debounce time.Duration, log *logger.Logger) *RepairEnqueuer {
	return &RepairEnqueuer{
		client:   client,
		log:      log.With("component", "repair_enqueuer"),
		debounce: debounce,
		now:      time.Now,
		last:     make(map[string]time.Time),
	}
}

// RequestBookRepair enqueues a RepairBookTask unless one was enqueued for
// the same book within the debounce window.
func (e *RepairEnqueuer) RequestBookRepair(bookID string) {
	if !e.claim(bookID) {
		e.log.Debug("Repair already requested recently", "book_id", bookID)
		return
	}

	ids, err := e.client.Add(RepairBookTask{BookID: bookID}).Save()
	if err != nil {
		e.log.Error("Failed to enqueue book repair", "book_id", bookID, "error", err)
		e.release(bookID)
		return
	}
	e.log.Info("Book repair enqueued", "book_id", bookID, "task_id", ids[0])
}

func (e *RepairEnqueuer) claim(bookID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	if at, ok := e.last[bookID]; ok && now.Sub(at) < e.debounce {
		return false
	}
	for id, at := range e.last {
		if now.Sub(at) >= e.debounce {
			delete(e.last, id)
		}
	}
	e.last[bookID] = now
	return true
}

func (e *RepairEnqueuer) release(bookID string) {
	e.mu.Lock()
	delete(e.last, bookID)
	e.mu.Unlock()
}
