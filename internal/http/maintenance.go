package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/logger"
	"github.com/mrlokans/bookshelf/internal/scheduler"
)

// MaintenanceController exposes the maintenance scheduler: job status and
// manual runs.
type MaintenanceController struct {
	scheduler MaintenanceRunner
	log       *logger.Logger
}

// NewMaintenanceController creates a new controller
func NewMaintenanceController(sched MaintenanceRunner, log *logger.Logger) *MaintenanceController {
	return &MaintenanceController{
		scheduler: sched,
		log:       log.With("controller", "maintenance"),
	}
}

// MaintenanceJobInfo describes one scheduled job.
type MaintenanceJobInfo struct {
	Name        string     `json:"name"`
	Schedule    string     `json:"schedule"`
	Description string     `json:"description"`
	NextRun     *time.Time `json:"next_run,omitempty"`
	IsRunning   bool       `json:"is_running"`
}

// ListJobs handles GET /api/maintenance
func (mc *MaintenanceController) ListJobs(c *gin.Context) {
	jobs := mc.scheduler.Jobs()
	infos := make([]MaintenanceJobInfo, 0, len(jobs))
	for _, job := range jobs {
		infos = append(infos, MaintenanceJobInfo{
			Name:        job.Name,
			Schedule:    job.Schedule,
			Description: scheduler.CronDescription(job.Schedule),
			NextRun:     mc.scheduler.NextRunTime(job.Name),
			IsRunning:   mc.scheduler.IsJobActive(job.Name),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"scheduler_running": mc.scheduler.IsRunning(),
		"jobs":              infos,
	})
}

// RunJob handles POST /api/maintenance/:job/run
// The job runs in the request and the response reports its result.
func (mc *MaintenanceController) RunJob(c *gin.Context) {
	name := c.Param("job")

	start := time.Now()
	err := mc.scheduler.RunNow(c.Request.Context(), name)
	switch {
	case errors.Is(err, scheduler.ErrUnknownJob):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, scheduler.ErrJobActive):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		return
	case err != nil:
		respondInternalError(c, mc.log, err, "run maintenance job "+name)
		return
	}

	duration := time.Since(start).Round(time.Millisecond)
	mc.log.Info("Maintenance job run manually", "job", name, "duration", duration)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"job":      name,
		"duration": duration.String(),
	})
}
