// AngelaMos | 2026
// store_test.go

package wordfilter_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/moderation-admin/internal/testutil"
	"github.com/carterperez-dev/moderation-admin/internal/wordfilter"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lists", "words.txt")
	store := wordfilter.NewFileStore(path)

	words, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, words, "missing file is an empty list")

	require.NoError(t, store.Save(ctx, []string{"bad", "rude"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "bad\nrude\n", string(raw))

	words, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bad", "rude"}, words)
}

func TestFileStoreSkipsCommentsAndBlanks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("# seed list\n\n  bad  \nrude\n"), 0o600))

	words, err := wordfilter.NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"bad", "rude"}, words)
}

func TestSQLStoreBacksFilter(t *testing.T) {
	ctx := context.Background()
	store := wordfilter.NewSQLStore(testutil.NewDB(t))

	f, err := wordfilter.NewFilter(ctx, store)
	require.NoError(t, err)
	assert.Zero(t, f.Count())

	require.NoError(t, f.Add(ctx, "bad"))
	require.NoError(t, f.Add(ctx, "rude"))
	require.NoError(t, f.Delete(ctx, "bad"))

	stored, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"rude"}, stored)

	reloaded, err := wordfilter.NewFilter(ctx, store)
	require.NoError(t, err)
	assert.True(t, reloaded.Check("how rude!"))
}
