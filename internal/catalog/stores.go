// Package catalog coordinates books and their comments.
//
// Two collections back the catalog: books, each carrying an ordered list of
// comment ids, and comments, each carrying the id of its book. Views combine
// the two, and writes that touch both run in one transaction so the ref list
// and the comments' book ids describe the same set. A Reconciler repairs any
// drift between them that entered by other means.
package catalog

import (
	"context"

	"github.com/mrlokans/bookshelf/internal/database/dbctx"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// BookStore persists books.
type BookStore interface {
	Create(dbc dbctx.Context, title string) (*entities.Book, error)
	FindByID(dbc dbctx.Context, id string) (*entities.Book, error)
	FindAll(dbc dbctx.Context) ([]entities.Book, error)
	AppendCommentRef(dbc dbctx.Context, bookID, commentID string) (*entities.Book, error)
	ReplaceCommentRefs(dbc dbctx.Context, bookID string, refs []string, expectedRevision int) (bool, error)
	DeleteByID(dbc dbctx.Context, id string) (bool, error)
	DeleteAll(dbc dbctx.Context) (int64, error)
	ListWithComments(dbc dbctx.Context) ([]entities.BookCommentRow, error)
}

// CommentStore persists comments.
type CommentStore interface {
	Create(dbc dbctx.Context, text, bookID string) (*entities.Comment, error)
	FindByIDs(dbc dbctx.Context, ids []string) (map[string]entities.Comment, error)
	ListIDsByBookID(dbc dbctx.Context, bookID string) ([]string, error)
	DeleteByBookID(dbc dbctx.Context, bookID string) (int64, error)
	DeleteAll(dbc dbctx.Context) (int64, error)
	DeleteOrphans(dbc dbctx.Context) (int64, error)
}

// Transactor runs fn inside one store transaction.
type Transactor interface {
	Transaction(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

// AuditRecorder receives a record of every catalog mutation.
type AuditRecorder interface {
	Record(eventType entities.AuditEventType, action, entityType, entityID, description string, err error)
}

// RepairTrigger asks for a book's refs to be repaired soon. Implementations
// must not block the caller.
type RepairTrigger interface {
	RequestBookRepair(bookID string)
}

// Snapshotter saves a JSON copy of data under a label.
type Snapshotter interface {
	SaveJSON(label string, data any) (string, error)
}
