package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/logger"
)

func TestSnapshotter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snapshots")
	snap := NewSnapshotter(dir, logger.NewNop())

	t.Run("SaveJSON creates directory and saves file", func(t *testing.T) {
		data := map[string]interface{}{
			"title":    "Testowy",
			"comments": []string{"nice", "great"},
		}

		filename, err := snap.SaveJSON("catalog", data)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(filename, "catalog-"))
		assert.True(t, strings.HasSuffix(filename, ".json"))

		content, err := os.ReadFile(filepath.Join(dir, filename))
		require.NoError(t, err)

		var saved map[string]interface{}
		require.NoError(t, json.Unmarshal(content, &saved))
		assert.Equal(t, "Testowy", saved["title"])
		assert.Equal(t, []interface{}{"nice", "great"}, saved["comments"])
	})

	t.Run("SaveJSON generates unique filenames", func(t *testing.T) {
		first, err := snap.SaveJSON("catalog", []string{})
		require.NoError(t, err)
		second, err := snap.SaveJSON("catalog", []string{})
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("SaveJSON rejects unmarshalable data", func(t *testing.T) {
		_, err := snap.SaveJSON("catalog", make(chan int))
		assert.Error(t, err)
	})
}
