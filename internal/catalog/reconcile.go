package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/dbctx"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/logger"
)

// ReconcileReport summarizes one reconcile pass.
type ReconcileReport struct {
	OrphansRemoved      int64 `json:"orphans_removed"`
	DanglingRefsRemoved int   `json:"dangling_refs_removed"`
	RefsRestored        int   `json:"refs_restored"`
	BooksRepaired       int   `json:"books_repaired"`
}

// Changed reports whether the pass modified anything.
func (r ReconcileReport) Changed() bool {
	return r.OrphansRemoved > 0 || r.BooksRepaired > 0
}

func (r ReconcileReport) String() string {
	return fmt.Sprintf("removed %d orphan comments, repaired %d books (%d dangling refs dropped, %d refs restored)",
		r.OrphansRemoved, r.BooksRepaired, r.DanglingRefsRemoved, r.RefsRestored)
}

// Reconciler brings book refs back in line with the comments collection.
// A comment's book id is authoritative: comments whose book is gone are
// deleted, refs to comments that are missing or belong elsewhere are dropped,
// and comments missing from their book's refs are appended in creation order.
type Reconciler struct {
	books    BookStore
	comments CommentStore
	tx       Transactor
	log      *logger.Logger
	audit    AuditRecorder

	mu      sync.Mutex
	pending sync.WaitGroup
}

func NewReconciler(books BookStore, comments CommentStore, tx Transactor, log *logger.Logger) *Reconciler {
	return &Reconciler{
		books:    books,
		comments: comments,
		tx:       tx,
		log:      log.With("component", "reconciler"),
	}
}

// SetAuditRecorder enables an audit record for every pass that repairs something.
func (r *Reconciler) SetAuditRecorder(audit AuditRecorder) {
	r.audit = audit
}

// Reconcile runs one pass. Passes never overlap. Each book is repaired in
// its own transaction, so a failure part way leaves earlier repairs in place.
func (r *Reconciler) Reconcile(ctx context.Context) (ReconcileReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var report ReconcileReport

	err := r.tx.Transaction(ctx, func(dbc dbctx.Context) error {
		n, err := r.comments.DeleteOrphans(dbc)
		report.OrphansRemoved = n
		return err
	})
	if err != nil {
		return report, r.fail(report, apperr.AsStorage("delete orphan comments", err))
	}

	all, err := r.books.FindAll(dbctx.Context{Ctx: ctx})
	if err != nil {
		return report, r.fail(report, err)
	}

	for _, b := range all {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		err := r.tx.Transaction(ctx, func(dbc dbctx.Context) error {
			return r.repairBook(dbc, b.ID, &report)
		})
		if err != nil {
			return report, r.fail(report, apperr.AsStorage("repair book", err))
		}
	}

	if report.Changed() {
		r.log.Info("Catalog reconciled", "report", report.String())
		r.record(report, nil)
	} else {
		r.log.Debug("Catalog consistent, nothing to reconcile")
	}
	return report, nil
}

// RepairBook reconciles a single book's refs with its comments.
func (r *Reconciler) RepairBook(ctx context.Context, bookID string) (ReconcileReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var report ReconcileReport
	err := r.tx.Transaction(ctx, func(dbc dbctx.Context) error {
		return r.repairBook(dbc, bookID, &report)
	})
	if err != nil {
		return report, r.fail(report, apperr.AsStorage("repair book", err))
	}
	if report.Changed() {
		r.record(report, nil)
	}
	return report, nil
}

// RequestBookRepair repairs bookID in the background.
func (r *Reconciler) RequestBookRepair(bookID string) {
	r.log.Info("Book repair requested", "book_id", bookID)
	r.pending.Add(1)
	go func() {
		defer r.pending.Done()
		if _, err := r.RepairBook(context.Background(), bookID); err != nil {
			r.log.Error("Book repair failed", "book_id", bookID, "error", err)
		}
	}()
}

// Wait blocks until background repairs started by RequestBookRepair finish.
func (r *Reconciler) Wait() {
	r.pending.Wait()
}

func (r *Reconciler) repairBook(dbc dbctx.Context, bookID string, report *ReconcileReport) error {
	book, err := r.books.FindByID(dbc, bookID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil
		}
		return err
	}

	owned, err := r.comments.ListIDsByBookID(dbc, book.ID)
	if err != nil {
		return err
	}

	refs, dropped, restored := repairRefs(book.CommentRefs, owned)
	if dropped == 0 && restored == 0 {
		return nil
	}

	ok, err := r.books.ReplaceCommentRefs(dbc, book.ID, refs, book.Revision)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Storage("replace comment refs", books.ErrRevisionConflict)
	}

	r.log.Info("Repaired book comment refs", "book_id", book.ID, "dropped", dropped, "restored", restored)
	report.BooksRepaired++
	report.DanglingRefsRemoved += dropped
	report.RefsRestored += restored
	return nil
}

// repairRefs keeps the refs that name an owned comment, in their stored order
// and without repeats, then appends owned comments that were not referenced.
func repairRefs(refs, owned []string) (repaired []string, dropped, restored int) {
	ownedSet := make(map[string]struct{}, len(owned))
	for _, id := range owned {
		ownedSet[id] = struct{}{}
	}

	repaired = make([]string, 0, len(owned))
	seen := make(map[string]struct{}, len(owned))
	for _, ref := range refs {
		if _, ok := ownedSet[ref]; !ok {
			dropped++
			continue
		}
		if _, dup := seen[ref]; dup {
			dropped++
			continue
		}
		seen[ref] = struct{}{}
		repaired = append(repaired, ref)
	}

	for _, id := range owned {
		if _, ok := seen[id]; ok {
			continue
		}
		repaired = append(repaired, id)
		restored++
	}
	return repaired, dropped, restored
}

func (r *Reconciler) fail(report ReconcileReport, err error) error {
	r.log.Error("Reconcile pass failed", "report", report.String(), "error", err)
	r.record(report, err)
	return err
}

func (r *Reconciler) record(report ReconcileReport, err error) {
	if r.audit == nil {
		return
	}
	r.audit.Record(entities.AuditEventReconcile, "catalog_reconcile", "catalog", "", report.String(), err)
}
