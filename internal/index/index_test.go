package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vqtran/docpin/internal/extract"
	"github.com/vqtran/docpin/internal/pool"
	"github.com/vqtran/docpin/internal/store"
)

func newTestManager(t *testing.T) (*Manager, *pool.Pool) {
	t.Helper()
	p := pool.New(pool.WithSize(2))
	require.NoError(t, p.Init(filepath.Join(t.TempDir(), "index.db")))
	t.Cleanup(func() { _ = p.Close() })
	return NewManager(p, extract.New()), p
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGetOrRefresh_FirstAccessExtracts(t *testing.T) {
	m, _ := newTestManager(t)
	path := writeFile(t, t.TempDir(), "notes.txt", "alpha\nbeta\n")

	entry, err := m.GetOrRefresh(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "alpha\n\nbeta", entry.ExtractedText)
	assert.Equal(t, int64(len("alpha\nbeta\n")), entry.FileSize)
	assert.NotEmpty(t, entry.ContentHash)
}

func TestGetOrRefresh_UnchangedFileReturnsStoredEntry(t *testing.T) {
	m, p := newTestManager(t)
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "notes.txt", "stable content\n")

	first, err := m.GetOrRefresh(ctx, path)
	require.NoError(t, err)

	// Poison the stored text. An unchanged file must not re-extract,
	// so the poisoned text survives the freshness check.
	m.Clear()
	require.NoError(t, p.With(ctx, func(h *store.Handle) error {
		poisoned := *first
		poisoned.ExtractedText = "poisoned"
		return h.SaveEntry(ctx, &poisoned)
	}))

	second, err := m.GetOrRefresh(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "poisoned", second.ExtractedText, "fresh entry must be served as stored")
}

func TestGetOrRefresh_SizeChangeTriggersReextract(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.txt", "short\n")

	_, err := m.GetOrRefresh(ctx, path)
	require.NoError(t, err)

	writeFile(t, dir, "notes.txt", "much longer content\n")
	entry, err := m.GetOrRefresh(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "much longer content", entry.ExtractedText)
}

func TestGetOrRefresh_SameSizeDifferentContentTriggersReextract(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.txt", "aaaa\n")

	first, err := m.GetOrRefresh(ctx, path)
	require.NoError(t, err)

	// Same byte length, different bytes: the hash check must catch it.
	writeFile(t, dir, "notes.txt", "bbbb\n")
	second, err := m.GetOrRefresh(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, first.FileSize, second.FileSize)
	assert.NotEqual(t, first.ContentHash, second.ContentHash)
	assert.Equal(t, "bbbb", second.ExtractedText)
}

func TestGetOrRefresh_MissingFile(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.GetOrRefresh(context.Background(), filepath.Join(t.TempDir(), "ghost.txt"))
	require.Error(t, err)
}

func TestGetOrRefresh_PersistsAcrossManagers(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "index.db")
	path := writeFile(t, t.TempDir(), "notes.txt", "durable\n")

	p1 := pool.New(pool.WithSize(1))
	require.NoError(t, p1.Init(dbPath))
	m1 := NewManager(p1, extract.New())
	first, err := m1.GetOrRefresh(ctx, path)
	require.NoError(t, err)
	require.NoError(t, p1.Close())

	p2 := pool.New(pool.WithSize(1))
	require.NoError(t, p2.Init(dbPath))
	defer func() { _ = p2.Close() }()

	var stored *store.Entry
	require.NoError(t, p2.With(ctx, func(h *store.Handle) error {
		var err error
		stored, err = h.GetEntry(ctx, path)
		return err
	}))
	require.NotNil(t, stored)
	assert.Equal(t, first.ContentHash, stored.ContentHash)
}

func TestInvalidate_ForcesRevalidation(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "notes.txt", "content\n")

	_, err := m.GetOrRefresh(ctx, path)
	require.NoError(t, err)

	m.Invalidate(path)
	entry, err := m.GetOrRefresh(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "content", entry.ExtractedText)
}
