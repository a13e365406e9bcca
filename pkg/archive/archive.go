// Package archive persists the raw JSON payloads fetched for each note.
// The archive is a diagnostic trail: when rendering goes wrong the
// original payload is what gets inspected.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Kind labels the payload being archived.
type Kind string

const (
	KindNote        Kind = "note_data"
	KindCommentList Kind = "comment_list_data"
)

// Saver stores a raw payload for a note. Backends are interchangeable;
// a failed save never blocks the pipeline.
type Saver interface {
	Save(ctx context.Context, noteID string, kind Kind, payload []byte) error
}

// FileArchive writes payloads as JSON files under a directory.
type FileArchive struct {
	dir string
}

// NewFileArchive creates a file-backed archive rooted at dir.
func NewFileArchive(dir string) (*FileArchive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &FileArchive{dir: dir}, nil
}

// Save writes the payload to <dir>/<kind>-<noteID>.json, replacing any
// earlier capture of the same note.
func (a *FileArchive) Save(ctx context.Context, noteID string, kind Kind, payload []byte) error {
	name := fmt.Sprintf("%s-%s.json", kind, noteID)
	path := filepath.Join(a.dir, name)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// NopArchive discards every payload.
type NopArchive struct{}

func (NopArchive) Save(ctx context.Context, noteID string, kind Kind, payload []byte) error {
	return nil
}

// record is the shape shared by the database backends.
type record struct {
	NoteID     string    `bson:"note_id"`
	Kind       string    `bson:"kind"`
	Payload    string    `bson:"payload"`
	CapturedAt time.Time `bson:"captured_at"`
}
