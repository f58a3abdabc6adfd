// Package store provides SQLite persistence for content index entries
// and serialized anchors. Handles returned by New are the reusable
// resource the bounded pool leases out; each handle owns its own
// database connection plus a handle-local staging buffer.
package store

import (
	"time"
)

// Entry tracks the last known state of one indexed file.
//
// An entry is fresh iff the file's current size equals FileSize AND its
// current content hash equals ContentHash. Size is compared first as a
// cheap short-circuit before hashing. Entries are replaced wholesale,
// never partially updated.
type Entry struct {
	FilePath      string // unique key
	ExtractedText string // flattened block text
	LastModified  int64  // file mtime, unix seconds
	ContentHash   string // SHA-256 of raw bytes, hex
	FileSize      int64
}

// AnchorRecord is a serialized anchor owned by a task or note.
// Payload is the opaque JSON blob; the store never inspects it.
type AnchorRecord struct {
	ID        string // uuid
	FilePath  string
	Payload   []byte
	CreatedAt time.Time
}

// Stats summarizes store contents for the status command.
type Stats struct {
	EntryCount  int
	AnchorCount int
	TextBytes   int64
}
