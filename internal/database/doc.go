// Package database provides the data access layer for the catalog.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, transactions
//	├── dbctx/           # Request context + optional transaction handle
//	├── books/           # Book CRUD, ordered comment refs, books/comments join
//	├── comments/        # Comment CRUD and orphan cleanup
//	└── audit/           # Audit event persistence
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type constructed with the shared
// *gorm.DB handle. The handle's lifecycle belongs to the process entry point:
//
//	db, err := database.NewDatabase("./catalog.db", log)
//	booksRepo := books.NewRepository(db.DB, log)
//	commentsRepo := comments.NewRepository(db.DB, log)
//
// # Transactions
//
// Repository methods take a dbctx.Context. When its Tx field is set the call
// joins that transaction, otherwise it runs on the shared handle:
//
//	err := db.Transaction(ctx, func(dbc dbctx.Context) error {
//	    c, err := commentsRepo.Create(dbc, "nice", bookID)
//	    if err != nil {
//	        return err
//	    }
//	    _, err = booksRepo.AppendCommentRef(dbc, bookID, c.ID)
//	    return err
//	})
//
// # Errors
//
// Repositories return *apperr.Error values: not found and validation failures
// are reported as such, anything the store rejects is a storage error and is
// logged where it is detected.
package database
