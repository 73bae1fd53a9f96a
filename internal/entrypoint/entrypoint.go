package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/config"
	http_controllers "github.com/mrlokans/bookshelf/internal/http"
	"github.com/mrlokans/bookshelf/internal/logger"
	"github.com/mrlokans/bookshelf/internal/scheduler"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, log *logger.Logger, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Info("Starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", "error", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 sends SIGINT. SIGKILL can't be caught.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server", "timeout", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop accepting requests before background work is torn down.
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown", "error", err)
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Info("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting Bookshelf", "version", version)

	app, err := NewApp(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize application", "error", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error("Error closing application", "error", err)
		}
	}()

	// Start task workers in background
	var taskCtxCancel context.CancelFunc
	if app.Tasks != nil {
		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go app.Tasks.Start(taskCtx)
	}

	maintenance := scheduler.NewMaintenanceScheduler(log, app.MaintenanceJobs(cfg)...)
	schedCtx, schedCancel := context.WithCancel(context.Background())
	if err := maintenance.Start(schedCtx); err != nil {
		log.Fatal("Failed to start maintenance scheduler", "error", err)
	}

	routerCfg := http_controllers.RouterConfig{
		Catalog:            app.Catalog,
		Database:           app.DB,
		Logger:             log,
		Audit:              app.Audit,
		Maintenance:        maintenance,
		AuditRetentionDays: cfg.Audit.RetentionDays,
		Version:            version,
	}
	// A nil *tasks.Client stored in the interface would not compare equal to nil.
	if app.Tasks != nil {
		routerCfg.TaskClient = app.Tasks
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		maintenance.Stop()
		schedCancel()
		if app.Tasks != nil && taskCtxCancel != nil {
			app.Tasks.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, log, onShutdown)
}
