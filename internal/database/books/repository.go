// Package books provides database operations for catalog books.
//
// A book owns an ordered list of comment ids (CommentRefs). The repository
// appends to it under an optimistic revision check so concurrent writers never
// lose each other's refs.
//
// # Interface Implementation
//
//	var _ catalog.BookStore = (*Repository)(nil)
//
// # Usage
//
//	repo := books.NewRepository(db, log)
//	book, err := repo.Create(dbctx.Background(), "Dune")
package books

import (
	"errors"
	"slices"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/database/dbctx"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/logger"
	"github.com/mrlokans/bookshelf/internal/validation"
)

// maxAppendAttempts bounds how often AppendCommentRef re-reads a book whose
// revision moved underneath it.
const maxAppendAttempts = 5

// ErrRevisionConflict is the cause reported when a book kept changing while
// its refs were being updated.
var ErrRevisionConflict = errors.New("book revision changed concurrently")

// Repository handles all book database operations.
type Repository struct {
	db       *gorm.DB
	log      *logger.Logger
	validate *validation.Validator
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB, log *logger.Logger) *Repository {
	return &Repository{
		db:       db,
		log:      log.With("repo", "books"),
		validate: validation.New(),
	}
}

// Create persists a new book with an empty comment list. The title is stored
// as given.
func (r *Repository) Create(dbc dbctx.Context, title string) (*entities.Book, error) {
	book := &entities.Book{Title: title}
	if err := r.validate.Validate(book); err != nil {
		return nil, err
	}
	if err := dbc.DB(r.db).Create(book).Error; err != nil {
		return nil, r.storageErr("create book", err)
	}
	return book, nil
}

// FindByID retrieves a book. Ids that are not UUIDs resolve to not found.
func (r *Repository) FindByID(dbc dbctx.Context, id string) (*entities.Book, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.NotFound("book not found")
	}
	var book entities.Book
	err := dbc.DB(r.db).Where("id = ?", id).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("book not found")
	}
	if err != nil {
		return nil, r.storageErr("find book", err)
	}
	return &book, nil
}

// FindAll retrieves every book in creation order.
func (r *Repository) FindAll(dbc dbctx.Context) ([]entities.Book, error) {
	var books []entities.Book
	if err := dbc.DB(r.db).Order("created_at ASC, id ASC").Find(&books).Error; err != nil {
		return nil, r.storageErr("list books", err)
	}
	return books, nil
}

// AppendCommentRef adds commentID to the end of the book's refs and bumps its
// revision. Inside an immediate transaction the revision cannot move between
// the read and the write; the retry covers callers running without one.
func (r *Repository) AppendCommentRef(dbc dbctx.Context, bookID, commentID string) (*entities.Book, error) {
	for attempt := 0; attempt < maxAppendAttempts; attempt++ {
		book, err := r.FindByID(dbc, bookID)
		if err != nil {
			return nil, err
		}

		refs := append(slices.Clone(book.CommentRefs), commentID)
		ok, err := r.ReplaceCommentRefs(dbc, book.ID, refs, book.Revision)
		if err != nil {
			return nil, err
		}
		if ok {
			book.CommentRefs = refs
			book.Revision++
			return book, nil
		}
		r.log.Debug("Book revision moved, retrying append", "book_id", bookID, "attempt", attempt+1)
	}
	return nil, r.storageErr("append comment ref", ErrRevisionConflict)
}

// ReplaceCommentRefs overwrites the book's refs if its revision still equals
// expectedRevision. It reports false, without error, when the revision moved.
func (r *Repository) ReplaceCommentRefs(dbc dbctx.Context, bookID string, refs []string, expectedRevision int) (bool, error) {
	if refs == nil {
		refs = []string{}
	}
	result := dbc.DB(r.db).Model(&entities.Book{}).
		Where("id = ? AND revision = ?", bookID, expectedRevision).
		Updates(map[string]any{
			"comment_refs": datatypes.JSONSlice[string](refs),
			"revision":     gorm.Expr("revision + 1"),
		})
	if result.Error != nil {
		return false, r.storageErr("update comment refs", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// DeleteByID removes a book. Its comments are left alone.
func (r *Repository) DeleteByID(dbc dbctx.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	result := dbc.DB(r.db).Where("id = ?", id).Delete(&entities.Book{})
	if result.Error != nil {
		return false, r.storageErr("delete book", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// DeleteAll removes every book and returns how many were removed.
func (r *Repository) DeleteAll(dbc dbctx.Context) (int64, error) {
	result := dbc.DB(r.db).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&entities.Book{})
	if result.Error != nil {
		return 0, r.storageErr("delete all books", result.Error)
	}
	return result.RowsAffected, nil
}

// ListWithComments joins every book with the comments whose book_id points at
// it. Rows come back grouped by book in creation order, comments within a
// book in creation order.
func (r *Repository) ListWithComments(dbc dbctx.Context) ([]entities.BookCommentRow, error) {
	var rows []entities.BookCommentRow
	err := dbc.DB(r.db).Table("books").
		Select("books.id AS book_id, books.title AS title, books.revision AS revision, " +
			"comments.id AS comment_id, comments.text AS comment_text").
		Joins("LEFT JOIN comments ON comments.book_id = books.id").
		Order("books.created_at ASC, books.id ASC, comments.created_at ASC, comments.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, r.storageErr("join books with comments", err)
	}
	return rows, nil
}

// Count returns the number of books.
func (r *Repository) Count(dbc dbctx.Context) (int64, error) {
	var count int64
	if err := dbc.DB(r.db).Model(&entities.Book{}).Count(&count).Error; err != nil {
		return 0, r.storageErr("count books", err)
	}
	return count, nil
}

func (r *Repository) storageErr(op string, err error) error {
	r.log.Error("Storage operation failed", "op", op, "error", err)
	return apperr.Storage(op, err)
}
