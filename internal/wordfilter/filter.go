// AngelaMos | 2026
// filter.go

// Package wordfilter holds the offensive-word blocklist and the rule-based
// check run against review text.
//
// Matching is whole-token: text is split on space , . ! ? ; : and line
// breaks, and a token matches when it equals a listed word under Unicode case
// folding. A listed word embedded inside a longer token ("badness" for
// "bad") is not detected. For the same reason a listed word can never
// contain a delimiter; Add rejects such words with core.ErrInvalidInput.
package wordfilter

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"github.com/carterperez-dev/moderation-admin/internal/core"
)

const delimiters = " ,.!?;:\n\r"

// Tokenize splits text on the filter delimiters, drops empty tokens and
// case-folds the rest.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return strings.ContainsRune(delimiters, r)
	})

	folder := cases.Fold()
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, folder.String(f))
	}
	return tokens
}

func normalize(word string) string {
	return cases.Fold().String(strings.TrimSpace(word))
}

// Filter is the in-memory word set backed by a Store. Mutations are written
// through: the store is saved first and the set only changes once the save
// succeeded.
type Filter struct {
	store Store

	mu    sync.RWMutex
	words map[string]struct{}
}

func NewFilter(ctx context.Context, store Store) (*Filter, error) {
	f := &Filter{store: store, words: map[string]struct{}{}}
	if err := f.Reload(ctx); err != nil {
		return nil, err
	}
	return f, nil
}

// Reload replaces the in-memory set with the store's contents.
func (f *Filter) Reload(ctx context.Context) error {
	words, err := f.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load offensive words: %w: %w", core.ErrExternal, err)
	}

	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if n := normalize(w); n != "" {
			set[n] = struct{}{}
		}
	}

	f.mu.Lock()
	f.words = set
	f.mu.Unlock()
	return nil
}

// Check reports whether any token of text is a listed word. Blank text
// passes.
func (f *Filter) Check(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, tok := range Tokenize(text) {
		if _, ok := f.words[tok]; ok {
			return true
		}
	}
	return false
}

// Matches returns the distinct listed words found in text, in order of first
// appearance.
func (f *Filter) Matches(text string) []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var found []string
	for _, tok := range Tokenize(text) {
		if _, ok := f.words[tok]; ok && !slices.Contains(found, tok) {
			found = append(found, tok)
		}
	}
	return found
}

// Add inserts word. Blank or already listed words are a no-op; a word
// containing a delimiter is rejected with core.ErrInvalidInput.
func (f *Filter) Add(ctx context.Context, word string) error {
	n := normalize(word)
	if n == "" {
		return nil
	}
	if strings.ContainsAny(n, delimiters) {
		return fmt.Errorf("add word %q: would never match a token: %w", word, core.ErrInvalidInput)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.words[n]; ok {
		return nil
	}

	next := make(map[string]struct{}, len(f.words)+1)
	for w := range f.words {
		next[w] = struct{}{}
	}
	next[n] = struct{}{}

	if err := f.store.Save(ctx, sortedKeys(next)); err != nil {
		return fmt.Errorf("add word: %w: %w", core.ErrExternal, err)
	}

	f.words = next
	return nil
}

// Delete removes word. Blank or unlisted words are a no-op.
func (f *Filter) Delete(ctx context.Context, word string) error {
	n := normalize(word)
	if n == "" {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.words[n]; !ok {
		return nil
	}

	next := make(map[string]struct{}, len(f.words))
	for w := range f.words {
		if w != n {
			next[w] = struct{}{}
		}
	}

	if err := f.store.Save(ctx, sortedKeys(next)); err != nil {
		return fmt.Errorf("delete word: %w: %w", core.ErrExternal, err)
	}

	f.words = next
	return nil
}

// List returns a sorted copy of the listed words.
func (f *Filter) List() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return sortedKeys(f.words)
}

func (f *Filter) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.words)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for w := range set {
		out = append(out, w)
	}
	slices.Sort(out)
	return out
}
