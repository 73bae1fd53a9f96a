package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookshelf/internal/database/dbctx"
	"github.com/mrlokans/bookshelf/internal/logger"
)

// OrphanCommentsCleaner deletes comments whose book no longer exists.
type OrphanCommentsCleaner interface {
	DeleteOrphans(dbc dbctx.Context) (int64, error)
}

// CleanupOrphanCommentsTask removes comments that point at a missing book.
type CleanupOrphanCommentsTask struct{}

// Config returns the queue configuration for cleanup tasks.
func (t CleanupOrphanCommentsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_orphan_comments",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupOrphanCommentsProcessor creates a processor function for CleanupOrphanCommentsTask.
func CleanupOrphanCommentsProcessor(cleaner OrphanCommentsCleaner, log *logger.Logger) backlite.QueueProcessor[CleanupOrphanCommentsTask] {
	return func(ctx context.Context, task CleanupOrphanCommentsTask) error {
		if cleaner == nil {
			return fmt.Errorf("orphan comments cleaner not configured")
		}

		deleted, err := cleaner.DeleteOrphans(dbctx.Context{Ctx: ctx})
		if err != nil {
			return fmt.Errorf("cleanup orphan comments: %w", err)
		}

		log.Info("Cleaned up orphan comments", "deleted", deleted)
		return nil
	}
}

// NewCleanupOrphanCommentsQueue creates a backlite queue for comment cleanup tasks.
func NewCleanupOrphanCommentsQueue(cleaner OrphanCommentsCleaner, log *logger.Logger) backlite.Queue {
	return backlite.NewQueue(CleanupOrphanCommentsProcessor(cleaner, log))
}
