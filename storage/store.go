package storage

import (
	"context"

	"github.com/pkg/errors"

	"github.com/gitpress/gitpress/model"
)

// ErrNotFound is returned when a record does not exist at the given path.
var ErrNotFound = errors.New("record not found")

// Entry is one item of a directory listing.
type Entry struct {
	Name string
	Path string
}

// DurableStore is the storage of record for blog content. Records are
// addressed by a repository-relative path and guarded by an opaque revision
// token for conditional overwrite. Writes may carry an author attribution.
type DurableStore interface {
	// Read returns the record content at path, or ErrNotFound.
	Read(ctx context.Context, path string) ([]byte, error)

	// Write creates or replaces the record at path. An empty revisionToken
	// creates; a non-empty one performs a conditional overwrite of that
	// revision. author may be nil for unattributed writes.
	Write(ctx context.Context, path string, content []byte, message string, revisionToken string, author *model.Author) error

	// Delete removes the record at the given revision.
	Delete(ctx context.Context, path string, revisionToken string, message string, author *model.Author) error

	// ListDirectory returns the entries under path. A missing directory is
	// an empty listing, not an error.
	ListDirectory(ctx context.Context, path string) ([]Entry, error)

	// GetRevisionToken returns the current revision of the record at path,
	// or ErrNotFound.
	GetRevisionToken(ctx context.Context, path string) (string, error)
}
