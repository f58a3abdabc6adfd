package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/vqtran/docpin/internal/errors"
)

// Handle is one leased storage connection. It is not safe for
// concurrent use; the pool guarantees exclusive access while leased.
type Handle struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	closed bool

	// staged holds entries buffered on this handle until Flush.
	// Reset clears it before the handle is recycled.
	staged []*Entry
}

// validateIntegrity checks a database file before opening it.
// A missing file is fine: it will be created.
func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

// New opens a storage handle at path. An empty path opens an in-memory
// database for testing. WAL mode lets multiple handles on the same
// file read concurrently with a single writer.
func New(path string) (*Handle, error) {
	var dsn string
	if path == "" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		if err := validateIntegrity(path); err != nil {
			return nil, errors.New(errors.ErrCodeStoreCorrupt, "store validation failed: "+path, err)
		}
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection per handle; the pool provides the concurrency.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// modernc.org/sqlite ignores some DSN params; set pragmas explicitly.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	h := &Handle{db: db, path: path}
	if err := h.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return h, nil
}

func (h *Handle) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS content_index (
		file_path     TEXT PRIMARY KEY,
		content       TEXT NOT NULL,
		last_modified INTEGER NOT NULL,
		content_hash  TEXT NOT NULL,
		file_size     INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS anchors (
		id         TEXT PRIMARY KEY,
		file_path  TEXT NOT NULL,
		payload    TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_anchors_file_path ON anchors(file_path);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`
	_, err := h.db.Exec(schema)
	return err
}

// SaveEntry persists an entry, replacing any previous entry for the
// same path in one statement so readers never observe a partial write.
func (h *Handle) SaveEntry(ctx context.Context, e *Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errors.New(errors.ErrCodeInternal, "handle is closed", nil)
	}

	_, err := h.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO content_index
			(file_path, content, last_modified, content_hash, file_size)
		VALUES (?, ?, ?, ?, ?)`,
		e.FilePath, e.ExtractedText, e.LastModified, e.ContentHash, e.FileSize)
	if err != nil {
		return wrapBusy(err)
	}
	return nil
}

// GetEntry fetches the entry for a path. Returns (nil, nil) when the
// path has never been indexed.
func (h *Handle) GetEntry(ctx context.Context, filePath string) (*Entry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, errors.New(errors.ErrCodeInternal, "handle is closed", nil)
	}

	row := h.db.QueryRowContext(ctx, `
		SELECT file_path, content, last_modified, content_hash, file_size
		FROM content_index WHERE file_path = ?`, filePath)

	var e Entry
	err := row.Scan(&e.FilePath, &e.ExtractedText, &e.LastModified, &e.ContentHash, &e.FileSize)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapBusy(err)
	}
	return &e, nil
}

// DeleteEntries removes index entries and their anchors for a set of
// paths, used when the owning project is deleted.
func (h *Handle) DeleteEntries(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errors.New(errors.ErrCodeInternal, "handle is closed", nil)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapBusy(err)
	}
	defer func() { _ = tx.Rollback() }()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(paths)), ",")
	args := make([]any, len(paths))
	for i, p := range paths {
		args[i] = p
	}

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM content_index WHERE file_path IN (%s)", placeholders), args...); err != nil {
		return wrapBusy(err)
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM anchors WHERE file_path IN (%s)", placeholders), args...); err != nil {
		return wrapBusy(err)
	}
	return tx.Commit()
}

// StageEntry buffers an entry on this handle for a later Flush.
// Staged entries are handle-local state; Reset discards them.
func (h *Handle) StageEntry(e *Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.staged = append(h.staged, e)
}

// StagedCount returns the number of buffered entries.
func (h *Handle) StagedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.staged)
}

// Flush writes all staged entries in one transaction and clears the
// buffer. Entries for the same path replace wholesale.
func (h *Handle) Flush(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errors.New(errors.ErrCodeInternal, "handle is closed", nil)
	}
	if len(h.staged) == 0 {
		return nil
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapBusy(err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO content_index
			(file_path, content, last_modified, content_hash, file_size)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return wrapBusy(err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range h.staged {
		if _, err := stmt.ExecContext(ctx,
			e.FilePath, e.ExtractedText, e.LastModified, e.ContentHash, e.FileSize); err != nil {
			return wrapBusy(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return wrapBusy(err)
	}

	h.staged = nil
	return nil
}

// SaveAnchor persists a serialized anchor blob.
func (h *Handle) SaveAnchor(ctx context.Context, rec *AnchorRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errors.New(errors.ErrCodeInternal, "handle is closed", nil)
	}

	_, err := h.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO anchors (id, file_path, payload, created_at)
		VALUES (?, ?, ?, ?)`,
		rec.ID, rec.FilePath, string(rec.Payload), rec.CreatedAt.Unix())
	if err != nil {
		return wrapBusy(err)
	}
	return nil
}

// GetAnchor fetches an anchor blob by ID. Returns (nil, nil) when absent.
func (h *Handle) GetAnchor(ctx context.Context, id string) (*AnchorRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, errors.New(errors.ErrCodeInternal, "handle is closed", nil)
	}

	row := h.db.QueryRowContext(ctx, `
		SELECT id, file_path, payload, created_at FROM anchors WHERE id = ?`, id)

	var rec AnchorRecord
	var payload string
	var createdAt int64
	err := row.Scan(&rec.ID, &rec.FilePath, &payload, &createdAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapBusy(err)
	}
	rec.Payload = []byte(payload)
	rec.CreatedAt = time.Unix(createdAt, 0)
	return &rec, nil
}

// GetStats returns entry and anchor counts for status reporting.
func (h *Handle) GetStats(ctx context.Context) (*Stats, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, errors.New(errors.ErrCodeInternal, "handle is closed", nil)
	}

	var s Stats
	if err := h.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(LENGTH(content)), 0) FROM content_index`).
		Scan(&s.EntryCount, &s.TextBytes); err != nil {
		return nil, wrapBusy(err)
	}
	if err := h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM anchors`).Scan(&s.AnchorCount); err != nil {
		return nil, wrapBusy(err)
	}
	return &s, nil
}

// Reset returns the handle to a clean state before reuse: staged
// entries are discarded and the connection is verified. A failing
// reset tells the pool to destroy the handle instead of recycling it.
func (h *Handle) Reset() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errors.New(errors.ErrCodeInternal, "handle is closed", nil)
	}

	h.staged = nil
	if err := h.db.Ping(); err != nil {
		return fmt.Errorf("handle unusable: %w", err)
	}
	return nil
}

// Close closes the handle. Idempotent.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	h.staged = nil
	if h.db != nil {
		return h.db.Close()
	}
	return nil
}

// Path returns the database path this handle is bound to.
func (h *Handle) Path() string {
	return h.path
}

// wrapBusy converts SQLite lock contention into the retryable
// store-busy error; everything else passes through.
func wrapBusy(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY") {
		return errors.New(errors.ErrCodeStoreBusy, "store busy", err)
	}
	return err
}
