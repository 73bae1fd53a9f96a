package books

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/database/dbctx"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "books.db")
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Book{}, &entities.Comment{})
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestRepository_Create(t *testing.T) {
	repo := NewRepository(setupTestDB(t), logger.NewNop())
	dbc := dbctx.Background()

	t.Run("assigns id and empty refs", func(t *testing.T) {
		book, err := repo.Create(dbc, "  Dune  ")
		require.NoError(t, err)

		_, err = uuid.Parse(book.ID)
		assert.NoError(t, err)
		assert.Equal(t, "  Dune  ", book.Title)
		assert.Empty(t, book.CommentRefs)
		assert.NotNil(t, book.CommentRefs)
		assert.Zero(t, book.Revision)
	})

	t.Run("rejects blank title", func(t *testing.T) {
		_, err := repo.Create(dbc, "   ")
		assert.ErrorIs(t, err, apperr.ErrValidation)

		count, err := repo.Count(dbc)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func TestRepository_FindByID(t *testing.T) {
	repo := NewRepository(setupTestDB(t), logger.NewNop())
	dbc := dbctx.Background()

	created, err := repo.Create(dbc, "Emma")
	require.NoError(t, err)

	found, err := repo.FindByID(dbc, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Emma", found.Title)

	_, err = repo.FindByID(dbc, uuid.NewString())
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = repo.FindByID(dbc, "not-a-uuid")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRepository_AppendCommentRef(t *testing.T) {
	repo := NewRepository(setupTestDB(t), logger.NewNop())
	dbc := dbctx.Background()

	book, err := repo.Create(dbc, "Testowy")
	require.NoError(t, err)

	updated, err := repo.AppendCommentRef(dbc, book.ID, "c-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c-1"}, []string(updated.CommentRefs))
	assert.Equal(t, 1, updated.Revision)

	updated, err = repo.AppendCommentRef(dbc, book.ID, "c-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"c-1", "c-2"}, []string(updated.CommentRefs))
	assert.Equal(t, 2, updated.Revision)

	stored, err := repo.FindByID(dbc, book.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"c-1", "c-2"}, []string(stored.CommentRefs))
	assert.Equal(t, 2, stored.Revision)

	_, err = repo.AppendCommentRef(dbc, uuid.NewString(), "c-3")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

// bumpBeforeUpdate makes another writer move the book's revision right before
// each ref update, as long as times > 0.
func bumpBeforeUpdate(t *testing.T, db *gorm.DB, bookID string, times int) {
	t.Helper()
	remaining := times
	err := db.Callback().Update().Before("gorm:update").Register("test:concurrent_writer", func(tx *gorm.DB) {
		if remaining == 0 {
			return
		}
		remaining--
		db.Exec("UPDATE books SET comment_refs = ?, revision = revision + 1 WHERE id = ?", `["c-other"]`, bookID)
	})
	require.NoError(t, err)
}

func TestRepository_AppendCommentRefRetriesOnConflict(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, logger.NewNop())
	dbc := dbctx.Background()

	book, err := repo.Create(dbc, "Testowy")
	require.NoError(t, err)
	bumpBeforeUpdate(t, db, book.ID, 1)

	updated, err := repo.AppendCommentRef(dbc, book.ID, "c-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c-other", "c-1"}, []string(updated.CommentRefs))
	assert.Equal(t, 2, updated.Revision)

	stored, err := repo.FindByID(dbc, book.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"c-other", "c-1"}, []string(stored.CommentRefs))
	assert.Equal(t, 2, stored.Revision)
}

func TestRepository_AppendCommentRefGivesUp(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, logger.NewNop())
	dbc := dbctx.Background()

	book, err := repo.Create(dbc, "Testowy")
	require.NoError(t, err)
	bumpBeforeUpdate(t, db, book.ID, maxAppendAttempts)

	_, err = repo.AppendCommentRef(dbc, book.ID, "c-1")
	assert.ErrorIs(t, err, apperr.ErrStorage)
	assert.ErrorIs(t, err, ErrRevisionConflict)

	stored, err := repo.FindByID(dbc, book.ID)
	require.NoError(t, err)
	assert.NotContains(t, []string(stored.CommentRefs), "c-1")
	assert.Equal(t, maxAppendAttempts, stored.Revision)
}

func TestRepository_ReplaceCommentRefs(t *testing.T) {
	repo := NewRepository(setupTestDB(t), logger.NewNop())
	dbc := dbctx.Background()

	book, err := repo.Create(dbc, "Walden")
	require.NoError(t, err)

	t.Run("stale revision is rejected", func(t *testing.T) {
		ok, err := repo.ReplaceCommentRefs(dbc, book.ID, []string{"x"}, book.Revision+1)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("current revision wins", func(t *testing.T) {
		ok, err := repo.ReplaceCommentRefs(dbc, book.ID, []string{"x", "y"}, book.Revision)
		require.NoError(t, err)
		assert.True(t, ok)

		stored, err := repo.FindByID(dbc, book.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y"}, []string(stored.CommentRefs))
		assert.Equal(t, book.Revision+1, stored.Revision)
	})

	t.Run("nil refs are stored as empty", func(t *testing.T) {
		stored, err := repo.FindByID(dbc, book.ID)
		require.NoError(t, err)

		ok, err := repo.ReplaceCommentRefs(dbc, book.ID, nil, stored.Revision)
		require.NoError(t, err)
		assert.True(t, ok)

		stored, err = repo.FindByID(dbc, book.ID)
		require.NoError(t, err)
		assert.NotNil(t, stored.CommentRefs)
		assert.Empty(t, stored.CommentRefs)
	})
}

func TestRepository_Delete(t *testing.T) {
	repo := NewRepository(setupTestDB(t), logger.NewNop())
	dbc := dbctx.Background()

	first, err := repo.Create(dbc, "First")
	require.NoError(t, err)
	_, err = repo.Create(dbc, "Second")
	require.NoError(t, err)

	deleted, err := repo.DeleteByID(dbc, first.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteByID(dbc, first.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = repo.DeleteByID(dbc, "garbage")
	require.NoError(t, err)
	assert.False(t, deleted)

	removed, err := repo.DeleteAll(dbc)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	removed, err = repo.DeleteAll(dbc)
	require.NoError(t, err)
	assert.Zero(t, removed)

	all, err := repo.FindAll(dbc)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRepository_ListWithComments(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, logger.NewNop())
	dbc := dbctx.Background()

	withComments, err := repo.Create(dbc, "Testowy")
	require.NoError(t, err)
	empty, err := repo.Create(dbc, "Empty")
	require.NoError(t, err)

	for _, text := range []string{"nice", "great"} {
		require.NoError(t, db.Create(&entities.Comment{BookID: withComments.ID, Text: text}).Error)
	}

	rows, err := repo.ListWithComments(dbc)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	byBook := map[string][]string{}
	for _, row := range rows {
		if row.CommentText == nil {
			byBook[row.BookID] = append(byBook[row.BookID], "")
			continue
		}
		byBook[row.BookID] = append(byBook[row.BookID], *row.CommentText)
	}
	assert.Equal(t, []string{"nice", "great"}, byBook[withComments.ID])
	assert.Equal(t, []string{""}, byBook[empty.ID])
}
