package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mrlokans/bookshelf/internal/audit"
	"github.com/mrlokans/bookshelf/internal/catalog"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	auditRepo "github.com/mrlokans/bookshelf/internal/database/audit"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/comments"
	"github.com/mrlokans/bookshelf/internal/logger"
	"github.com/mrlokans/bookshelf/internal/scheduler"
	"github.com/mrlokans/bookshelf/internal/tasks"
)

// App holds the wired components shared by the server and the CLI commands.
type App struct {
	DB         *database.Database
	Catalog    *catalog.Service
	Reconciler *catalog.Reconciler
	Audit      *audit.Service
	Tasks      *tasks.Client // nil when the task queue is disabled

	log *logger.Logger
}

// NewApp opens the database and wires the catalog, audit trail, reconciler
// and, when enabled, the task queue. Task workers are not started.
func NewApp(cfg *config.Config, log *logger.Logger) (*App, error) {
	db, err := database.NewDatabase(cfg.Database.Path, log)
	if err != nil {
		return nil, err
	}

	bookRepo := books.NewRepository(db.DB, log)
	commentRepo := comments.NewRepository(db.DB, log)
	auditService := audit.NewService(auditRepo.NewRepository(db.DB), log)

	catalogService := catalog.NewService(bookRepo, commentRepo, db, log)
	catalogService.SetAuditRecorder(auditService)
	if cfg.Audit.SnapshotDir != "" {
		catalogService.SetSnapshotter(audit.NewSnapshotter(cfg.Audit.SnapshotDir, log))
		log.Info("Catalog snapshots enabled", "dir", cfg.Audit.SnapshotDir)
	}

	reconciler := catalog.NewReconciler(bookRepo, commentRepo, db, log)
	reconciler.SetAuditRecorder(auditService)

	app := &App{
		DB:         db,
		Catalog:    catalogService,
		Reconciler: reconciler,
		Audit:      auditService,
		log:        log,
	}

	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
			RepairDebounce:  cfg.Tasks.RepairDebounce,
		}

		client, err := tasks.NewClient(cfg.Database.Path, taskCfg, log)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize task queue: %w", err)
		}

		client.Register(
			tasks.NewReconcileCatalogQueue(reconciler, log),
			tasks.NewRepairBookQueue(reconciler, log),
			tasks.NewCleanupOrphanCommentsQueue(commentRepo, log),
			tasks.NewCleanupAuditEventsQueue(auditService, log),
		)
		app.Tasks = client
	}

	if cfg.Reconcile.OnRead {
		if app.Tasks != nil {
			catalogService.SetRepairTrigger(tasks.NewRepairEnqueuer(app.Tasks, repairDebounce(cfg), log))
		} else {
			catalogService.SetRepairTrigger(reconciler)
		}
	}

	return app, nil
}

func repairDebounce(cfg *config.Config) time.Duration {
	if cfg.Tasks.RepairDebounce > 0 {
		return cfg.Tasks.RepairDebounce
	}
	return tasks.DefaultConfig().RepairDebounce
}

// MaintenanceJobs returns the periodic jobs enabled by cfg. With a task queue
// the jobs only enqueue work; without one they run inline.
func (a *App) MaintenanceJobs(cfg *config.Config) []scheduler.Job {
	var jobs []scheduler.Job

	if cfg.Reconcile.Enabled {
		jobs = append(jobs, scheduler.Job{
			Name:     "reconcile",
			Schedule: cfg.Reconcile.Schedule,
			Run: func(ctx context.Context) error {
				if a.Tasks != nil {
					_, err := a.Tasks.Add(tasks.ReconcileCatalogTask{Reason: "scheduled"}).Save()
					return err
				}
				_, err := a.Reconciler.Reconcile(ctx)
				return err
			},
		})
	}

	if cfg.Audit.RetentionDays > 0 {
		retention := time.Duration(cfg.Audit.RetentionDays) * 24 * time.Hour
		jobs = append(jobs, scheduler.Job{
			Name:     "audit_cleanup",
			Schedule: cfg.Audit.CleanupSchedule,
			Run: func(ctx context.Context) error {
				if a.Tasks != nil {
					_, err := a.Tasks.Add(tasks.CleanupAuditEventsTask{RetentionDays: cfg.Audit.RetentionDays}).Save()
					return err
				}
				deleted, err := a.Audit.DeleteOldEvents(retention)
				if err == nil {
					a.log.Info("Cleaned up audit events", "deleted", deleted)
				}
				return err
			},
		})
	}

	return jobs
}

// Close waits for background repairs and audit writes, then releases the
// task queue and the database.
func (a *App) Close() error {
	a.Reconciler.Wait()
	a.Audit.Wait()

	var errs []error
	if a.Tasks != nil {
		if err := a.Tasks.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close task client: %w", err))
		}
	}
	if err := a.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	return errors.Join(errs...)
}
