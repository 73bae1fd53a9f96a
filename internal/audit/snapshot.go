package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/bookshelf/internal/logger"
)

// Snapshotter writes JSON copies of catalog data into a directory before it
// is destroyed, one file per snapshot.
type Snapshotter struct {
	Dir string
	log *logger.Logger
}

func NewSnapshotter(dir string, log *logger.Logger) *Snapshotter {
	return &Snapshotter{
		Dir: dir,
		log: log.With("component", "snapshot"),
	}
}

// SaveJSON writes data to <label>-<timestamp>-<uuid>.json and returns the file name.
func (s *Snapshotter) SaveJSON(label string, data any) (string, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	filename := fmt.Sprintf("%s-%s-%s.json", label, time.Now().UTC().Format("20060102T150405"), uuid.NewString())
	path := filepath.Join(s.Dir, filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot file: %w", err)
	}

	s.log.Info("Saved snapshot", "path", path)
	return filename, nil
}
