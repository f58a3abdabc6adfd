// Package index keeps extracted file text fresh. Entries are validated
// with a cheap size check first and a content hash only when the size
// still matches; anything stale is re-extracted and replaced wholesale.
package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vqtran/docpin/internal/errors"
	"github.com/vqtran/docpin/internal/extract"
	"github.com/vqtran/docpin/internal/pool"
	"github.com/vqtran/docpin/internal/store"
)

// DefaultCacheSize bounds the in-memory entry cache.
const DefaultCacheSize = 256

// Manager answers "give me the current text of this file" backed by
// the persistent store, re-extracting only when the file changed.
//
// Concurrent refreshes of the same path may race; the store's
// wholesale replace keeps the entry consistent and the loser's work is
// just redundant.
type Manager struct {
	pool      *pool.Pool
	extractor *extract.Extractor
	cache     *lru.Cache[string, *store.Entry]
	logger    *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithCacheSize sets the in-memory entry cache capacity.
func WithCacheSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			cache, err := lru.New[string, *store.Entry](n)
			if err == nil {
				m.cache = cache
			}
		}
	}
}

// WithLogger sets the manager's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates an index manager over a handle pool and an
// extractor.
func NewManager(p *pool.Pool, ex *extract.Extractor, opts ...Option) *Manager {
	cache, _ := lru.New[string, *store.Entry](DefaultCacheSize)
	m := &Manager{
		pool:      p,
		extractor: ex,
		cache:     cache,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetOrRefresh returns the index entry for a path, re-extracting when
// the stored entry no longer matches the file on disk. Size is checked
// before hashing so unchanged large files cost one stat, and the hash
// is only computed when the size still matches.
func (m *Manager) GetOrRefresh(ctx context.Context, filePath string) (*store.Entry, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "file not found: "+filePath, err)
		}
		return nil, errors.New(errors.ErrCodeFilePermission, "cannot stat file: "+filePath, err)
	}
	size := info.Size()

	// Lazily compute the hash at most once across both checks.
	hash := ""
	currentHash := func() (string, error) {
		if hash == "" {
			h, err := hashFile(filePath)
			if err != nil {
				return "", err
			}
			hash = h
		}
		return hash, nil
	}

	if cached, ok := m.cache.Get(filePath); ok {
		fresh, err := entryFresh(cached, size, currentHash)
		if err != nil {
			return nil, err
		}
		if fresh {
			return cached, nil
		}
	}

	var stored *store.Entry
	err = m.pool.With(ctx, func(h *store.Handle) error {
		var err error
		stored, err = h.GetEntry(ctx, filePath)
		return err
	})
	if err != nil {
		return nil, err
	}

	if stored != nil {
		fresh, err := entryFresh(stored, size, currentHash)
		if err != nil {
			return nil, err
		}
		if fresh {
			m.cache.Add(filePath, stored)
			return stored, nil
		}
	}

	return m.refresh(ctx, filePath, info.ModTime().Unix(), size, currentHash)
}

// Invalidate drops a path from the in-memory cache. The persisted
// entry stays; the next GetOrRefresh revalidates it.
func (m *Manager) Invalidate(filePath string) {
	m.cache.Remove(filePath)
}

// Clear empties the in-memory cache, e.g. on project switch.
func (m *Manager) Clear() {
	m.cache.Purge()
}

func (m *Manager) refresh(ctx context.Context, filePath string, mtime, size int64, currentHash func() (string, error)) (*store.Entry, error) {
	result, err := m.extractor.Extract(filePath)
	if err != nil {
		return nil, err
	}

	contentHash, err := currentHash()
	if err != nil {
		return nil, err
	}

	entry := &store.Entry{
		FilePath:      filePath,
		ExtractedText: extract.Flatten(result.Blocks),
		LastModified:  mtime,
		ContentHash:   contentHash,
		FileSize:      size,
	}

	err = m.pool.With(ctx, func(h *store.Handle) error {
		return h.SaveEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	m.cache.Add(filePath, entry)
	m.logger.Debug("index_refreshed",
		"path", filePath, "size", size, "blocks", len(result.Blocks), "partial", result.Partial)
	return entry, nil
}

// entryFresh reports whether an entry still matches the file. The size
// comparison short-circuits; the hash is only computed on a size match.
func entryFresh(e *store.Entry, size int64, currentHash func() (string, error)) (bool, error) {
	if e.FileSize != size {
		return false, nil
	}
	h, err := currentHash()
	if err != nil {
		return false, err
	}
	return e.ContentHash == h, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.New(errors.ErrCodeFilePermission, "cannot open file: "+path, err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.New(errors.ErrCodeFilePermission, "cannot read file: "+path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
