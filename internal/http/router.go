package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Optional dependencies left nil in cfg disable their routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Version)
	booksController := NewBooksController(cfg.Catalog, cfg.Logger)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Books API endpoints
	router.GET("/api/books", booksController.ListBooks)
	router.POST("/api/books", booksController.CreateBook)
	router.DELETE("/api/books", booksController.DeleteAllBooks)
	router.GET("/api/books/:id", booksController.GetBook)
	router.POST("/api/books/:id", booksController.AttachComment)
	router.DELETE("/api/books/:id", booksController.DeleteBook)

	// Audit trail
	if cfg.Audit != nil {
		auditController := NewAuditController(cfg.Audit, cfg.Logger)
		router.GET("/api/audit", auditController.GetAuditEvents)
	}

	// Maintenance jobs
	if cfg.Maintenance != nil {
		maintenanceController := NewMaintenanceController(cfg.Maintenance, cfg.Logger)
		router.GET("/api/maintenance", maintenanceController.ListJobs)
		router.POST("/api/maintenance/:job/run", maintenanceController.RunJob)
	}

	// Task management endpoints
	if cfg.TaskClient != nil {
		tasksController := NewTasksController(cfg.TaskClient, cfg.AuditRetentionDays, cfg.Logger)
		router.GET("/api/tasks/types", tasksController.ListTaskTypes)
		router.GET("/api/tasks/:id", tasksController.GetTaskStatus)
		router.POST("/api/tasks/:type/run", tasksController.RunTask)
	}

	return router
}
