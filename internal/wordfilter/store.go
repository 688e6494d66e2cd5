// AngelaMos | 2026
// store.go

package wordfilter

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/moderation-admin/internal/config"
	"github.com/carterperez-dev/moderation-admin/internal/core"
)

// Store persists the whole word list. Load returns every stored word and
// Save replaces the stored list with words.
type Store interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, words []string) error
}

// NewStore picks the backend named by cfg.Backend.
func NewStore(cfg config.WordsConfig, db *sqlx.DB) (Store, error) {
	switch cfg.Backend {
	case config.WordsBackendSQL:
		if db == nil {
			return nil, fmt.Errorf("words backend %q needs a database", cfg.Backend)
		}
		return NewSQLStore(db), nil
	case config.WordsBackendFile, "":
		return NewFileStore(cfg.Path), nil
	default:
		return nil, fmt.Errorf("unknown words backend %q", cfg.Backend)
	}
}

// FileStore keeps one word per line. Blank lines and lines starting with #
// are skipped on load. A missing file is an empty list.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(_ context.Context) ([]string, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close() //nolint:errcheck // read-only handle

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	return words, nil
}

// Save rewrites the file through a temp file and rename so readers never see
// a partial list.
func (s *FileStore) Save(_ context.Context, words []string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".words-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	w := bufio.NewWriter(tmp)
	for _, word := range words {
		if _, err := w.WriteString(word + "\n"); err != nil {
			_ = tmp.Close() //nolint:errcheck // already failing
			return fmt.Errorf("write words: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close() //nolint:errcheck // already failing
		return fmt.Errorf("flush words: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close() //nolint:errcheck // already failing
		return fmt.Errorf("sync words: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close words: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

// SQLStore keeps the list in the offensive_words table.
type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Load(ctx context.Context) ([]string, error) {
	words := []string{}
	if err := s.db.SelectContext(ctx, &words, `SELECT word FROM offensive_words ORDER BY word`); err != nil {
		return nil, fmt.Errorf("load offensive words: %w", err)
	}
	return words, nil
}

func (s *SQLStore) Save(ctx context.Context, words []string) error {
	return core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM offensive_words`); err != nil {
			return fmt.Errorf("clear offensive words: %w", err)
		}

		insert := tx.Rebind(`INSERT INTO offensive_words (word) VALUES (?)`)
		for _, w := range words {
			if _, err := tx.ExecContext(ctx, insert, w); err != nil {
				return fmt.Errorf("insert offensive word %q: %w", w, err)
			}
		}
		return nil
	})
}
