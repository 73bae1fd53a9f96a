// Package comments provides database operations for book comments.
//
// Comments point at their book through BookID. The repository does not check
// that the book exists; callers that need that guarantee create the comment
// and update the book inside one transaction.
//
// # Interface Implementation
//
//	var _ catalog.CommentStore = (*Repository)(nil)
package comments

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/database/dbctx"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/logger"
	"github.com/mrlokans/bookshelf/internal/validation"
)

// Repository handles all comment database operations.
type Repository struct {
	db       *gorm.DB
	log      *logger.Logger
	validate *validation.Validator
}

// NewRepository creates a new comments repository.
func NewRepository(db *gorm.DB, log *logger.Logger) *Repository {
	return &Repository{
		db:       db,
		log:      log.With("repo", "comments"),
		validate: validation.New(),
	}
}

// Create persists a comment for bookID. The text is stored as given.
func (r *Repository) Create(dbc dbctx.Context, text, bookID string) (*entities.Comment, error) {
	comment := &entities.Comment{
		Text:   text,
		BookID: bookID,
	}
	if err := r.validate.Validate(comment); err != nil {
		return nil, err
	}
	if err := dbc.DB(r.db).Create(comment).Error; err != nil {
		return nil, r.storageErr("create comment", err)
	}
	return comment, nil
}

// FindByID retrieves a comment.
func (r *Repository) FindByID(dbc dbctx.Context, id string) (*entities.Comment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.NotFound("comment not found")
	}
	var comment entities.Comment
	err := dbc.DB(r.db).Where("id = ?", id).First(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("comment not found")
	}
	if err != nil {
		return nil, r.storageErr("find comment", err)
	}
	return &comment, nil
}

// FindByIDs loads the comments with the given ids in one query, keyed by id.
// Ids that do not resolve are simply absent from the result.
func (r *Repository) FindByIDs(dbc dbctx.Context, ids []string) (map[string]entities.Comment, error) {
	result := make(map[string]entities.Comment, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var found []entities.Comment
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, r.storageErr("find comments", err)
	}
	for _, c := range found {
		result[c.ID] = c
	}
	return result, nil
}

// ListIDsByBookID returns the ids of the comments owned by bookID, oldest first.
func (r *Repository) ListIDsByBookID(dbc dbctx.Context, bookID string) ([]string, error) {
	var ids []string
	err := dbc.DB(r.db).Model(&entities.Comment{}).
		Where("book_id = ?", bookID).
		Order("created_at ASC, id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, r.storageErr("list comment ids", err)
	}
	return ids, nil
}

// DeleteByBookID removes every comment owned by bookID.
func (r *Repository) DeleteByBookID(dbc dbctx.Context, bookID string) (int64, error) {
	result := dbc.DB(r.db).Where("book_id = ?", bookID).Delete(&entities.Comment{})
	if result.Error != nil {
		return 0, r.storageErr("delete comments by book", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteAll removes every comment.
func (r *Repository) DeleteAll(dbc dbctx.Context) (int64, error) {
	result := dbc.DB(r.db).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&entities.Comment{})
	if result.Error != nil {
		return 0, r.storageErr("delete all comments", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteOrphans removes comments whose book no longer exists.
func (r *Repository) DeleteOrphans(dbc dbctx.Context) (int64, error) {
	result := dbc.DB(r.db).Exec(`
		DELETE FROM comments
		WHERE book_id NOT IN (SELECT id FROM books)
	`)
	if result.Error != nil {
		return 0, r.storageErr("delete orphan comments", result.Error)
	}
	return result.RowsAffected, nil
}

// Count returns the number of comments.
func (r *Repository) Count(dbc dbctx.Context) (int64, error) {
	var count int64
	if err := dbc.DB(r.db).Model(&entities.Comment{}).Count(&count).Error; err != nil {
		return 0, r.storageErr("count comments", err)
	}
	return count, nil
}

func (r *Repository) storageErr(op string, err error) error {
	r.log.Error("Storage operation failed", "op", op, "error", err)
	return apperr.Storage(op, err)
}
