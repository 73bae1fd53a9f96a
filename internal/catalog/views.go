package catalog

import (
	"context"

	"github.com/mrlokans/bookshelf/internal/database/dbctx"
	"github.com/mrlokans/bookshelf/internal/logger"
)

// BookView is the client-facing shape of a book.
type BookView struct {
	ID           string   `json:"_id"`
	Title        string   `json:"title"`
	Comments     []string `json:"comments"`
	CommentCount int      `json:"commentcount"`
	Revision     int      `json:"__v"`
}

// Views builds BookViews. ListAll joins comments by their book id; GetOne
// walks the book's ordered comment refs. The two agree whenever every ref
// resolves to a comment of that book and every such comment is referenced.
type Views struct {
	books    BookStore
	comments CommentStore
	log      *logger.Logger
	repair   RepairTrigger
}

func NewViews(books BookStore, comments CommentStore, log *logger.Logger) *Views {
	return &Views{
		books:    books,
		comments: comments,
		log:      log.With("component", "views"),
	}
}

// SetRepairTrigger sets where GetOne reports dangling refs.
func (v *Views) SetRepairTrigger(trigger RepairTrigger) {
	v.repair = trigger
}

// ListAll returns a view of every book built from a single join query.
// Comment order within a book is creation order.
func (v *Views) ListAll(ctx context.Context) ([]BookView, error) {
	rows, err := v.books.ListWithComments(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, err
	}

	views := make([]BookView, 0)
	index := make(map[string]int)
	for _, row := range rows {
		i, ok := index[row.BookID]
		if !ok {
			i = len(views)
			index[row.BookID] = i
			views = append(views, BookView{
				ID:       row.BookID,
				Title:    row.Title,
				Comments: []string{},
				Revision: row.Revision,
			})
		}
		if row.CommentID == nil || row.CommentText == nil {
			continue
		}
		views[i].Comments = append(views[i].Comments, *row.CommentText)
		views[i].CommentCount++
	}
	return views, nil
}

// GetOne returns the view of one book, resolving its refs in stored order.
// Refs that no longer resolve are dropped and not counted, and a repair of the
// book is requested.
func (v *Views) GetOne(ctx context.Context, id string) (*BookView, error) {
	return v.getOne(dbctx.Context{Ctx: ctx}, id)
}

func (v *Views) getOne(dbc dbctx.Context, id string) (*BookView, error) {
	book, err := v.books.FindByID(dbc, id)
	if err != nil {
		return nil, err
	}

	resolved, err := v.comments.FindByIDs(dbc, book.CommentRefs)
	if err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(book.CommentRefs))
	dangling := 0
	for _, ref := range book.CommentRefs {
		comment, ok := resolved[ref]
		if !ok || comment.BookID != book.ID {
			dangling++
			continue
		}
		texts = append(texts, comment.Text)
	}

	if dangling > 0 {
		v.log.Warn("Book has dangling comment refs", "book_id", book.ID, "dangling", dangling)
		if v.repair != nil {
			v.repair.RequestBookRepair(book.ID)
		}
	}

	return &BookView{
		ID:           book.ID,
		Title:        book.Title,
		Comments:     texts,
		CommentCount: len(texts),
		Revision:     book.Revision,
	}, nil
}
