package catalog

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/comments"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/logger"
)

type testCatalog struct {
	db         *database.Database
	books      *books.Repository
	comments   *comments.Repository
	service    *Service
	reconciler *Reconciler
	audit      *recordingAudit
}

func setupCatalog(t *testing.T) *testCatalog {
	t.Helper()
	log := logger.NewNop()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "catalog.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	bookRepo := books.NewRepository(db.DB, log)
	commentRepo := comments.NewRepository(db.DB, log)
	audit := &recordingAudit{}

	service := NewService(bookRepo, commentRepo, db, log)
	service.SetAuditRecorder(audit)

	reconciler := NewReconciler(bookRepo, commentRepo, db, log)
	reconciler.SetAuditRecorder(audit)

	return &testCatalog{
		db:         db,
		books:      bookRepo,
		comments:   commentRepo,
		service:    service,
		reconciler: reconciler,
		audit:      audit,
	}
}

type auditRecord struct {
	eventType entities.AuditEventType
	action    string
	entityID  string
	err       error
}

type recordingAudit struct {
	mu      sync.Mutex
	records []auditRecord
}

func (a *recordingAudit) Record(eventType entities.AuditEventType, action, entityType, entityID, description string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, auditRecord{eventType: eventType, action: action, entityID: entityID, err: err})
}

func (a *recordingAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.records))
	for _, r := range a.records {
		out = append(out, r.action)
	}
	return out
}

type recordingTrigger struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingTrigger) RequestBookRepair(bookID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, bookID)
}

func (r *recordingTrigger) requested() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}
