package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookshelf/internal/logger"
	"github.com/mrlokans/bookshelf/internal/tasks"
)

// TasksController handles task queue management endpoints.
type TasksController struct {
	client             TaskQueue
	auditRetentionDays int
	log                *logger.Logger
}

// NewTasksController creates a new TasksController.
func NewTasksController(client TaskQueue, auditRetentionDays int, log *logger.Logger) *TasksController {
	return &TasksController{
		client:             client,
		auditRetentionDays: auditRetentionDays,
		log:                log.With("controller", "tasks"),
	}
}

// TaskTypeInfo describes an available task type.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Queue       string `json:"queue"`
}

var taskTypes = []TaskTypeInfo{
	{
		Type:        "reconcile_catalog",
		Description: "Repair drift between books and comments across the whole catalog",
		Queue:       tasks.ReconcileCatalogTask{}.Config().Name,
	},
	{
		Type:        "repair_book",
		Description: "Repair one book's comment references",
		Queue:       tasks.RepairBookTask{}.Config().Name,
	},
	{
		Type:        "cleanup_orphan_comments",
		Description: "Delete comments whose book no longer exists",
		Queue:       tasks.CleanupOrphanCommentsTask{}.Config().Name,
	},
	{
		Type:        "cleanup_audit_events",
		Description: "Delete audit events past the retention period",
		Queue:       tasks.CleanupAuditEventsTask{}.Config().Name,
	},
}

// ListTaskTypes handles GET /api/tasks/types
// Returns the list of available task types that can be triggered.
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"task_types": taskTypes,
	})
}

// GetTaskStatus handles GET /api/tasks/:id
// Returns the status of a specific task.
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		respondBadRequest(c, "task ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.client.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, tc.log, err, "task status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

// RunTaskRequest is the request body for running a task.
type RunTaskRequest struct {
	// BookID is required for repair_book task
	BookID string `json:"book_id,omitempty" form:"book_id"`
	// RetentionDays overrides the configured retention for cleanup_audit_events
	RetentionDays int `json:"retention_days,omitempty" form:"retention_days"`
}

// RunTask handles POST /api/tasks/:type/run
// Manually triggers a task of the specified type.
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	var req RunTaskRequest
	if c.Request.ContentLength > 0 {
		_ = c.ShouldBind(&req)
	}

	var task backlite.Task
	switch taskType {
	case "reconcile_catalog":
		task = tasks.ReconcileCatalogTask{Reason: "manual"}

	case "repair_book":
		if _, err := uuid.Parse(req.BookID); err != nil {
			respondBadRequest(c, "a valid book_id is required for repair_book task")
			return
		}
		task = tasks.RepairBookTask{BookID: req.BookID}

	case "cleanup_orphan_comments":
		task = tasks.CleanupOrphanCommentsTask{}

	case "cleanup_audit_events":
		days := req.RetentionDays
		if days <= 0 {
			days = tc.auditRetentionDays
		}
		task = tasks.CleanupAuditEventsTask{RetentionDays: days}

	default:
		respondBadRequest(c, fmt.Sprintf("unknown task type: %s", taskType))
		return
	}

	ids, err := tc.client.Add(task).Save()
	if err != nil {
		respondInternalError(c, tc.log, err, "enqueue "+taskType)
		return
	}

	tc.log.Info("Task enqueued", "type", taskType, "task_id", ids[0])
	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"task_id": ids[0],
		"type":    taskType,
		"message": "task enqueued",
	})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
