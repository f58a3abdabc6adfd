package anchor

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vqtran/docpin/internal/errors"
	"github.com/vqtran/docpin/internal/extract"
	"github.com/vqtran/docpin/internal/pool"
	"github.com/vqtran/docpin/internal/store"
)

// Manager persists anchors and resolves them against fresh
// extractions.
type Manager struct {
	pool      *pool.Pool
	extractor *extract.Extractor
	logger    *slog.Logger
}

// NewManager creates an anchor manager over a handle pool and an
// extractor.
func NewManager(p *pool.Pool, ex *extract.Extractor, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{pool: p, extractor: ex, logger: logger}
}

// Save persists an anchor for a file and returns its generated ID.
func (m *Manager) Save(ctx context.Context, filePath string, d *Data) (string, error) {
	payload, err := Marshal(d)
	if err != nil {
		return "", errors.New(errors.ErrCodeInternal, "cannot serialize anchor", err)
	}

	rec := &store.AnchorRecord{
		ID:        uuid.NewString(),
		FilePath:  filePath,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
	err = m.pool.With(ctx, func(h *store.Handle) error {
		return h.SaveAnchor(ctx, rec)
	})
	if err != nil {
		return "", err
	}

	m.logger.Info("anchor_created", "id", rec.ID, "path", filePath, "file_type", d.FileType)
	return rec.ID, nil
}

// Load fetches an anchor by ID along with the file it points into.
func (m *Manager) Load(ctx context.Context, id string) (*Data, string, error) {
	var rec *store.AnchorRecord
	err := m.pool.With(ctx, func(h *store.Handle) error {
		var err error
		rec, err = h.GetAnchor(ctx, id)
		return err
	})
	if err != nil {
		return nil, "", err
	}
	if rec == nil {
		return nil, "", errors.AnchorNotFound("no anchor with id " + id)
	}

	d, err := Unmarshal(rec.Payload)
	if err != nil {
		return nil, "", errors.New(errors.ErrCodeInvalidAnchor, "stored anchor is unreadable: "+id, err)
	}
	return d, rec.FilePath, nil
}

// ResolveByID loads an anchor, re-extracts its file and resolves the
// position. The stored anchor is never rewritten, whatever the outcome.
func (m *Manager) ResolveByID(ctx context.Context, id string) (*Resolution, string, error) {
	d, filePath, err := m.Load(ctx, id)
	if err != nil {
		return nil, "", err
	}

	extraction, err := m.extractor.Extract(filePath)
	if err != nil {
		return nil, "", err
	}

	res := Resolve(d, extraction)
	m.logger.Info("anchor_resolved", "id", id, "status", res.Status, "relocated", res.Relocated)
	return res, filePath, nil
}
