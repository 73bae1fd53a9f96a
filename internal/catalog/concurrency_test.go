package catalog

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/database/dbctx"
)

func TestService_ConcurrentAttachKeepsEveryComment(t *testing.T) {
	const writers = 20

	c := setupCatalog(t)
	ctx := context.Background()

	book, err := c.service.CreateBook(ctx, "Testowy")
	require.NoError(t, err)

	errs := make(chan error, writers*2)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			if _, err := c.service.AttachComment(ctx, book.ID, fmt.Sprintf("comment %d", i)); err != nil {
				errs <- err
			}
		}(i)
		go func() {
			defer wg.Done()
			if _, err := c.service.ListBooks(ctx); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent call failed: %v", err)
	}

	want := make([]string, 0, writers)
	for i := 0; i < writers; i++ {
		want = append(want, fmt.Sprintf("comment %d", i))
	}

	one, err := c.service.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, writers, one.CommentCount)
	assert.Equal(t, writers, one.Revision)
	assert.ElementsMatch(t, want, one.Comments)

	list, err := c.service.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, one.ID, list[0].ID)
	assert.Equal(t, one.CommentCount, list[0].CommentCount)
	assert.Equal(t, one.Revision, list[0].Revision)
	assert.ElementsMatch(t, one.Comments, list[0].Comments)

	stored, err := c.books.FindByID(dbctx.Background(), book.ID)
	require.NoError(t, err)
	assert.Len(t, stored.CommentRefs, writers)
}

func TestService_AttachRacingDeleteLeavesNoComments(t *testing.T) {
	const (
		rounds  = 10
		writers = 5
	)

	c := setupCatalog(t)
	ctx := context.Background()

	for round := 0; round < rounds; round++ {
		book, err := c.service.CreateBook(ctx, fmt.Sprintf("Round %d", round))
		require.NoError(t, err)

		attachErrs := make(chan error, writers)
		var outcome DeleteOutcome
		var deleteErr error

		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := c.service.AttachComment(ctx, book.ID, fmt.Sprintf("comment %d", i))
				attachErrs <- err
			}(i)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, deleteErr = c.service.DeleteBook(ctx, book.ID)
		}()
		wg.Wait()
		close(attachErrs)

		require.NoError(t, deleteErr)
		assert.Equal(t, OutcomeDeleted, outcome)
		for err := range attachErrs {
			// An attach that lost the race sees the book as gone.
			if err != nil {
				assert.ErrorIs(t, err, apperr.ErrNotFound)
			}
		}

		_, err = c.service.GetBook(ctx, book.ID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	}

	count, err := c.comments.Count(dbctx.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	books, err := c.books.Count(dbctx.Background())
	require.NoError(t, err)
	assert.Zero(t, books)
}
