package audit

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	auditRepo "github.com/mrlokans/bookshelf/internal/database/audit"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/logger"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	path := filepath.Join(t.TempDir(), "audit.db")
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.AuditEvent{})
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	repo := auditRepo.NewRepository(db)
	svc := NewService(repo, logger.NewNop())

	return svc, db
}

func TestService_LogAsync(t *testing.T) {
	svc, db := setupTestService(t)

	event := &entities.AuditEvent{
		EventType:   entities.AuditEventCreate,
		Action:      "book_create",
		Description: "Created book: Dune",
		Status:      entities.AuditStatusSuccess,
	}

	svc.LogAsync(event)
	svc.Wait()

	var saved entities.AuditEvent
	err := db.First(&saved, event.ID).Error
	require.NoError(t, err)
	assert.Equal(t, "book_create", saved.Action)
}

func TestService_Record(t *testing.T) {
	svc, db := setupTestService(t)

	t.Run("successful mutation", func(t *testing.T) {
		svc.Record(entities.AuditEventDelete, "book_delete", "book", "b-1", "Deleted book: Dune (2 comments)", nil)
		svc.Wait()

		var event entities.AuditEvent
		err := db.Where("action = ?", "book_delete").First(&event).Error
		require.NoError(t, err)
		assert.Equal(t, entities.AuditStatusSuccess, event.Status)
		assert.Equal(t, "book", event.EntityType)
		assert.Equal(t, "b-1", event.EntityID)
		assert.Equal(t, "Deleted book: Dune (2 comments)", event.Description)
	})

	t.Run("failed mutation", func(t *testing.T) {
		svc.Record(entities.AuditEventReconcile, "catalog_reconcile", "catalog", "", "pass aborted", errors.New("database is locked"))
		svc.Wait()

		var event entities.AuditEvent
		err := db.Where("action = ?", "catalog_reconcile").First(&event).Error
		require.NoError(t, err)
		assert.Equal(t, entities.AuditStatusFailed, event.Status)
		assert.Contains(t, event.ErrorMsg, "database is locked")
	})
}

func TestService_GetEvents(t *testing.T) {
	svc, _ := setupTestService(t)

	for i := 0; i < 5; i++ {
		svc.Record(entities.AuditEventComment, "comment_create", "comment", "c-1", "Attached comment to book b-1", nil)
	}
	svc.Wait()

	events, total, err := svc.GetEvents("", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, events, 5)

	forEntity, err := svc.GetEventsForEntity("c-1")
	require.NoError(t, err)
	assert.Len(t, forEntity, 5)
}

func TestService_DeleteOldEvents(t *testing.T) {
	svc, db := setupTestService(t)

	oldEvent := &entities.AuditEvent{
		EventType: entities.AuditEventCreate,
		Action:    "old",
		Status:    entities.AuditStatusSuccess,
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	require.NoError(t, db.Create(oldEvent).Error)

	newEvent := &entities.AuditEvent{
		EventType: entities.AuditEventDelete,
		Action:    "new",
		Status:    entities.AuditStatusSuccess,
		CreatedAt: time.Now(),
	}
	require.NoError(t, db.Create(newEvent).Error)

	deleted, err := svc.DeleteOldEvents(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining []entities.AuditEvent
	db.Find(&remaining)
	assert.Len(t, remaining, 1)
	assert.Equal(t, "new", remaining[0].Action)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10c", 10, "exactly10c"},
		{"this is a very long string", 10, "this is..."},
		{"", 5, ""},
	}

	for _, tc := range tests {
		result := truncate(tc.input, tc.maxLen)
		assert.Equal(t, tc.expected, result)
	}
}
