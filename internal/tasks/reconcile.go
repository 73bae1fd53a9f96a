package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookshelf/internal/catalog"
	"github.com/mrlokans/bookshelf/internal/logger"
)

// CatalogReconciler repairs drift between books and comments.
type CatalogReconciler interface {
	Reconcile(ctx context.Context) (catalog.ReconcileReport, error)
	RepairBook(ctx context.Context, bookID string) (catalog.ReconcileReport, error)
}

// ReconcileCatalogTask runs a full reconcile pass over the catalog.
type ReconcileCatalogTask struct {
	Reason string `json:"reason,omitempty"`
}

// Config returns the queue configuration for catalog reconcile tasks.
func (t ReconcileCatalogTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "reconcile_catalog",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     30 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ReconcileCatalogProcessor creates a processor function for ReconcileCatalogTask.
func ReconcileCatalogProcessor(reconciler CatalogReconciler, log *logger.Logger) backlite.QueueProcessor[ReconcileCatalogTask] {
	return func(ctx context.Context, task ReconcileCatalogTask) error {
		if reconciler == nil {
			return fmt.Errorf("reconciler not configured")
		}

		report, err := reconciler.Reconcile(ctx)
		if err != nil {
			return fmt.Errorf("reconcile catalog: %w", err)
		}

		log.Info("Reconcile task complete", "reason", task.Reason, "report", report.String())
		return nil
	}
}

// NewReconcileCatalogQueue creates a backlite queue for catalog reconcile tasks.
func NewReconcileCatalogQueue(reconciler CatalogReconciler, log *logger.Logger) backlite.Queue {
	return backlite.NewQueue(ReconcileCatalogProcessor(reconciler, log))
}
