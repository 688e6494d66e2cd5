// AngelaMos | 2026
// filter_test.go

package wordfilter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/moderation-admin/internal/core"
)

type memoryStore struct {
	words   []string
	saves   int
	failing bool
}

func (m *memoryStore) Load(context.Context) ([]string, error) {
	return append([]string(nil), m.words...), nil
}

func (m *memoryStore) Save(_ context.Context, words []string) error {
	if m.failing {
		return errors.New("disk full")
	}
	m.saves++
	m.words = append([]string(nil), words...)
	return nil
}

func newFilter(t *testing.T, words ...string) (*Filter, *memoryStore) {
	t.Helper()
	store := &memoryStore{words: words}
	f, err := NewFilter(context.Background(), store)
	require.NoError(t, err)
	return f, store
}

func TestTokenize(t *testing.T) {
	assert.Equal(t,
		[]string{"hello", "world", "is", "this", "ok"},
		Tokenize("Hello, WORLD!\r\nIs this;ok?"),
	)
	assert.Empty(t, Tokenize(" ,.!?;:\n\r"))
}

func TestCheck(t *testing.T) {
	f, _ := newFilter(t, "bad", "Awful")

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", false},
		{"whitespace", "  \n\t ", false},
		{"clean", "fine content", false},
		{"exact token", "bad word here", true},
		{"case insensitive", "This is AWFUL.", true},
		{"delimited", "really;bad!", true},
		{"embedded substring is not matched", "badness everywhere", false},
		{"hyphen is not a delimiter", "not-bad", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Check(tt.text))
		})
	}
}

func TestMatches(t *testing.T) {
	f, _ := newFilter(t, "bad", "awful")

	assert.Equal(t, []string{"awful", "bad"}, f.Matches("Awful and bad and BAD"))
	assert.Nil(t, f.Matches("all good"))
}

func TestAddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f, store := newFilter(t)

	require.NoError(t, f.Add(ctx, "Rude"))
	require.NoError(t, f.Add(ctx, "rude"))
	require.NoError(t, f.Add(ctx, "   "))

	assert.Equal(t, []string{"rude"}, f.List())
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, []string{"rude"}, store.words)
	assert.True(t, f.Check("so RUDE"))
}

func TestAddRejectsWordsWithDelimiters(t *testing.T) {
	ctx := context.Background()
	f, store := newFilter(t)

	for _, word := range []string{"bad word", "rude!", "a,b", "two\nlines"} {
		err := f.Add(ctx, word)
		assert.ErrorIs(t, err, core.ErrInvalidInput, word)
	}

	assert.Empty(t, f.List())
	assert.Zero(t, store.saves)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f, store := newFilter(t, "bad", "rude")

	require.NoError(t, f.Delete(ctx, "BAD"))
	assert.Equal(t, []string{"rude"}, f.List())
	assert.False(t, f.Check("bad"))

	require.NoError(t, f.Delete(ctx, "absent"))
	require.NoError(t, f.Delete(ctx, ""))
	assert.Equal(t, []string{"rude"}, f.List())
	assert.Equal(t, 1, store.saves)
}

func TestWriteThroughFailureLeavesSetUnchanged(t *testing.T) {
	ctx := context.Background()
	f, store := newFilter(t, "bad")
	store.failing = true

	err := f.Add(ctx, "rude")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrExternal)
	assert.Equal(t, []string{"bad"}, f.List())

	err = f.Delete(ctx, "bad")
	require.Error(t, err)
	assert.Equal(t, []string{"bad"}, f.List())
	assert.True(t, f.Check("bad"))
}

func TestListReturnsCopy(t *testing.T) {
	f, _ := newFilter(t, "bad")

	words := f.List()
	words[0] = "mutated"

	assert.Equal(t, []string{"bad"}, f.List())
	assert.Equal(t, 1, f.Count())
}

func TestReload(t *testing.T) {
	ctx := context.Background()
	f, store := newFilter(t, "bad")

	store.words = []string{"worse"}
	require.NoError(t, f.Reload(ctx))

	assert.Equal(t, []string{"worse"}, f.List())
}
