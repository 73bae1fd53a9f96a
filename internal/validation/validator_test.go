package validation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/entities"
)

func TestValidate(t *testing.T) {
	v := New()

	t.Run("valid book", func(t *testing.T) {
		assert.NoError(t, v.Validate(&entities.Book{Title: "Dune"}))
	})

	t.Run("missing title uses json name", func(t *testing.T) {
		err := v.Validate(&entities.Book{})
		require.ErrorIs(t, err, apperr.ErrValidation)

		var appErr *apperr.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "title is required", appErr.Message)
		assert.Equal(t, map[string]string{"title": "is required"}, appErr.Details)
	})

	t.Run("whitespace-only text is blank", func(t *testing.T) {
		err := v.Validate(&entities.Comment{Text: " \t ", BookID: uuid.NewString()})
		var appErr *apperr.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "comment is required", appErr.Message)

		assert.NoError(t, v.Validate(&entities.Book{Title: "  Dune  "}))
	})

	t.Run("comment needs a uuid book id", func(t *testing.T) {
		err := v.Validate(&entities.Comment{Text: "nice", BookID: "abc"})
		var appErr *apperr.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "bookId must be a valid identifier", appErr.Message)

		assert.NoError(t, v.Validate(&entities.Comment{Text: "nice", BookID: uuid.NewString()}))
	})
}
