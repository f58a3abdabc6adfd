package anchor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vqtran/docpin/internal/errors"
	"github.com/vqtran/docpin/internal/extract"
	"github.com/vqtran/docpin/internal/filetype"
	"github.com/vqtran/docpin/internal/pool"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	p := pool.New(pool.WithSize(2))
	require.NoError(t, p.Init(filepath.Join(t.TempDir(), "index.db")))
	t.Cleanup(func() { _ = p.Close() })
	return NewManager(p, extract.New(), nil)
}

func TestManager_SaveAndLoad(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	block := extract.TextBlock{Text: "important line", LineNumber: 3, Kind: extract.KindLine}
	d := Create(filetype.Text, block, 0, 9, "important")

	id, err := m.Save(ctx, "/project/notes.txt", d)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, path, err := m.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "/project/notes.txt", path)
	assert.Equal(t, d.TextHash, got.TextHash)
	assert.Equal(t, d.LineNumber, got.LineNumber)
}

func TestManager_LoadUnknownID(t *testing.T) {
	m := newTestManager(t)

	_, _, err := m.Load(context.Background(), "no-such-anchor")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAnchorNotFound, errors.GetCode(err))
}

func TestManager_ResolveByID_ExactThenDrift(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("first\nsecond target line\n"), 0o644))

	block := extract.TextBlock{Text: "second target line", LineNumber: 2, Ordinal: 1, Kind: extract.KindLine}
	d := Create(filetype.Text, block, len("second "), len("target"), "target")

	id, err := m.Save(ctx, path, d)
	require.NoError(t, err)

	// Unchanged file resolves exactly.
	res, gotPath, err := m.ResolveByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, path, gotPath)
	assert.Equal(t, Exact, res.Status)
	assert.Equal(t, 2, res.Block.LineNumber)

	// Edit the anchored line: the keyword moved to line 1.
	require.NoError(t, os.WriteFile(path, []byte("moved target here\nsecond line rewritten\n"), 0o644))

	res, _, err = m.ResolveByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, Drifted, res.Status)
	assert.True(t, res.Relocated)
	assert.Equal(t, 1, res.Block.LineNumber)
	assert.Equal(t, len("moved "), res.CharOffset)
}
