package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/entrypoint"
	"github.com/mrlokans/bookshelf/internal/logger"
)

// ReconcileCommand runs one reconciliation pass over the catalog database
type ReconcileCommand struct {
	DatabasePath string
	Verbose      bool

	cfg *config.Config
}

// NewReconcileCommand creates a new ReconcileCommand
func NewReconcileCommand(cfg *config.Config) *ReconcileCommand {
	return &ReconcileCommand{cfg: cfg}
}

// ParseFlags parses command line flags
func (cmd *ReconcileCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("reconcile", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", cmd.cfg.Database.Path, "Path to the catalog database file")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s reconcile [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Repair drift between books and their comments.\n\n")
		fmt.Fprintf(os.Stderr, "This command:\n")
		fmt.Fprintf(os.Stderr, "  1. Deletes comments whose book no longer exists\n")
		fmt.Fprintf(os.Stderr, "  2. Drops comment refs that no longer resolve\n")
		fmt.Fprintf(os.Stderr, "  3. Restores refs to comments missing from their book\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s reconcile\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s reconcile -db /var/lib/bookshelf/bookshelf.db -verbose\n", os.Args[0])
	}

	return fs.Parse(args)
}

// Run executes the reconcile command
func (cmd *ReconcileCommand) Run() error {
	cfg := *cmd.cfg
	cfg.Database.Path = cmd.DatabasePath
	// The pass runs in-process, so no task workers are needed.
	cfg.Tasks.Enabled = false
	if cmd.Verbose {
		cfg.Log.Mode = "dev"
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	app, err := entrypoint.NewApp(&cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	report, err := app.Reconciler.Reconcile(context.Background())
	if err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}

	fmt.Printf("Database: %s\n", cfg.Database.Path)
	fmt.Printf("Orphan comments removed: %d\n", report.OrphansRemoved)
	fmt.Printf("Dangling refs removed:   %d\n", report.DanglingRefsRemoved)
	fmt.Printf("Refs restored:           %d\n", report.RefsRestored)
	fmt.Printf("Books repaired:          %d\n", report.BooksRepaired)
	return nil
}
