// Command seed creates a catalog database filled with sample books and comments.
// Usage: go run ./cmd/seed [-db path/to/seed.db]
package main

import (
	"context"
	"flag"
	"os"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/entrypoint"
	"github.com/mrlokans/bookshelf/internal/logger"
)

const defaultSeedDatabasePath = "./seed/bookshelf.db"

type seedBook struct {
	Title    string
	Comments []string
}

func main() {
	dbPath := flag.String("db", defaultSeedDatabasePath, "path to the seed database file")
	flag.Parse()

	log, err := logger.New("dev")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("Generating seed database", "path", *dbPath)

	// Start fresh
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.Fatal("Failed to remove existing seed database", "error", err)
	}

	cfg := config.NewConfig()
	cfg.Database.Path = *dbPath
	cfg.Tasks.Enabled = false
	cfg.Reconcile.OnRead = false

	app, err := entrypoint.NewApp(cfg, log)
	if err != nil {
		log.Fatal("Failed to open database", "error", err)
	}
	defer app.Close()

	ctx := context.Background()
	for _, b := range seedBooks() {
		book, err := app.Catalog.CreateBook(ctx, b.Title)
		if err != nil {
			log.Error("Failed to create book", "title", b.Title, "error", err)
			continue
		}
		for _, text := range b.Comments {
			if _, err := app.Catalog.AttachComment(ctx, book.ID, text); err != nil {
				log.Error("Failed to attach comment", "book_id", book.ID, "error", err)
			}
		}
		log.Info("Saved book", "title", b.Title, "comments", len(b.Comments))
	}

	log.Info("Seed database generated")
}

func seedBooks() []seedBook {
	return []seedBook{
		{
			Title: "Meditations",
			Comments: []string{
				"You have power over your mind - not outside events.",
				"The happiness of your life depends upon the quality of your thoughts.",
				"Waste no more time arguing about what a good man should be. Be one.",
			},
		},
		{
			Title: "Letters from a Stoic",
			Comments: []string{
				"We suffer more often in imagination than in reality.",
				"Luck is what happens when preparation meets opportunity.",
			},
		},
		{
			Title: "Pride and Prejudice",
			Comments: []string{
				"I could easily forgive his pride, if he had not mortified mine.",
			},
		},
		{
			Title: "Walden",
		},
		{
			Title: "Testowy",
			Comments: []string{
				"nice",
				"great",
			},
		},
	}
}
