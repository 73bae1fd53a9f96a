package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/database/dbctx"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/logger"
)

// DeleteOutcome reports what a book deletion found.
type DeleteOutcome int

const (
	OutcomeDeleted DeleteOutcome = iota
	OutcomeNotFound
)

func (o DeleteOutcome) String() string {
	if o == OutcomeDeleted {
		return "deleted"
	}
	return "not_found"
}

// Service is the entry point for catalog operations. Writes spanning both
// collections run in one transaction.
type Service struct {
	books    BookStore
	comments CommentStore
	tx       Transactor
	views    *Views
	log      *logger.Logger
	audit    AuditRecorder
	snapshot Snapshotter
}

func NewService(books BookStore, comments CommentStore, tx Transactor, log *logger.Logger) *Service {
	return &Service{
		books:    books,
		comments: comments,
		tx:       tx,
		views:    NewViews(books, comments, log),
		log:      log.With("component", "catalog"),
	}
}

// SetAuditRecorder enables audit records for catalog mutations.
func (s *Service) SetAuditRecorder(audit AuditRecorder) {
	s.audit = audit
}

// SetSnapshotter makes DeleteAllBooks save the catalog before emptying it.
func (s *Service) SetSnapshotter(snapshot Snapshotter) {
	s.snapshot = snapshot
}

// SetRepairTrigger sets where dangling refs found on reads are reported.
func (s *Service) SetRepairTrigger(trigger RepairTrigger) {
	s.views.SetRepairTrigger(trigger)
}

// ListBooks returns a view of every book.
func (s *Service) ListBooks(ctx context.Context) ([]BookView, error) {
	return s.views.ListAll(ctx)
}

// GetBook returns the view of one book.
func (s *Service) GetBook(ctx context.Context, id string) (*BookView, error) {
	return s.views.GetOne(ctx, id)
}

// CreateBook adds a book with no comments.
func (s *Service) CreateBook(ctx context.Context, title string) (*entities.Book, error) {
	if strings.TrimSpace(title) == "" {
		return nil, apperr.Validation("missing required field title")
	}
	book, err := s.books.Create(dbctx.Context{Ctx: ctx}, title)
	if err != nil {
		return nil, err
	}
	s.record(entities.AuditEventCreate, "book_create", "book", book.ID, "Created book: "+book.Title, nil)
	return book, nil
}

// AttachComment creates a comment on a book and returns the updated view.
// The comment and the book's ref are written in one transaction, so a missing
// book leaves no comment behind. Retrying after an unseen success attaches a
// second comment.
func (s *Service) AttachComment(ctx context.Context, bookID, text string) (*BookView, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Validation("missing required field comment")
	}

	var commentID string
	err := s.tx.Transaction(ctx, func(dbc dbctx.Context) error {
		if _, err := s.books.FindByID(dbc, bookID); err != nil {
			return err
		}
		comment, err := s.comments.Create(dbc, text, bookID)
		if err != nil {
			return err
		}
		if _, err := s.books.AppendCommentRef(dbc, bookID, comment.ID); err != nil {
			return err
		}
		commentID = comment.ID
		return nil
	})
	if err != nil {
		return nil, apperr.AsStorage("attach comment", err)
	}

	s.record(entities.AuditEventComment, "comment_create", "comment", commentID,
		fmt.Sprintf("Attached comment to book %s", bookID), nil)

	return s.views.GetOne(ctx, bookID)
}

// DeleteBook removes a book together with its comments. Comments carrying
// the id are removed even when the book itself is already gone.
func (s *Service) DeleteBook(ctx context.Context, id string) (DeleteOutcome, error) {
	outcome := OutcomeNotFound
	var title string
	var removedComments int64

	err := s.tx.Transaction(ctx, func(dbc dbctx.Context) error {
		book, err := s.books.FindByID(dbc, id)
		switch {
		case err == nil:
			title = book.Title
		case apperr.KindOf(err) != apperr.KindNotFound:
			return err
		}

		removedComments, err = s.comments.DeleteByBookID(dbc, id)
		if err != nil {
			return err
		}
		deleted, err := s.books.DeleteByID(dbc, id)
		if err != nil {
			return err
		}
		if deleted {
			outcome = OutcomeDeleted
		}
		return nil
	})
	if err != nil {
		return OutcomeNotFound, apperr.AsStorage("delete book", err)
	}

	if outcome == OutcomeDeleted {
		s.log.Info("Book deleted", "book_id", id, "comments_removed", removedComments)
		s.record(entities.AuditEventDelete, "book_delete", "book", id,
			fmt.Sprintf("Deleted book: %s (%d comments)", title, removedComments), nil)
	}
	return outcome, nil
}

// DeleteAllBooks empties the catalog. Deleting an empty catalog succeeds.
// With a snapshotter set, the catalog is saved first and a failed save
// leaves it untouched.
func (s *Service) DeleteAllBooks(ctx context.Context) error {
	if s.snapshot != nil {
		if err := s.saveSnapshot(ctx); err != nil {
			return err
		}
	}

	var books, comments int64
	err := s.tx.Transaction(ctx, func(dbc dbctx.Context) error {
		var err error
		if comments, err = s.comments.DeleteAll(dbc); err != nil {
			return err
		}
		books, err = s.books.DeleteAll(dbc)
		return err
	})
	if err != nil {
		return apperr.AsStorage("delete all books", err)
	}

	s.log.Info("Catalog emptied", "books_removed", books, "comments_removed", comments)
	s.record(entities.AuditEventDelete, "catalog_delete", "catalog", "",
		fmt.Sprintf("Deleted %d books and %d comments", books, comments), nil)
	return nil
}

func (s *Service) saveSnapshot(ctx context.Context) error {
	views, err := s.views.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(views) == 0 {
		return nil
	}
	filename, err := s.snapshot.SaveJSON("catalog", views)
	if err != nil {
		s.log.Error("Failed to snapshot catalog", "error", err)
		return apperr.Storage("snapshot catalog", err)
	}
	s.log.Info("Catalog snapshot saved", "file", filename, "books", len(views))
	return nil
}

func (s *Service) record(eventType entities.AuditEventType, action, entityType, entityID, description string, err error) {
	if s.audit == nil {
		return
	}
	s.audit.Record(eventType, action, entityType, entityID, description, err)
}
