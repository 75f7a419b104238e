package showcase

import (
	"context"
	"io"
	"time"
)

// Source exposes the two read capabilities of the source code host.
type Source interface {
	// ListBranches returns branch names in host-reported order.
	ListBranches(ctx context.Context, projectID int) ([]string, error)
	// FetchFile returns the file content and true, or false when the host
	// does not serve the file. Errors are reserved for transport failures.
	FetchFile(ctx context.Context, projectID int, branch, path string) (string, bool, error)
}

// RecordStore persists records keyed by project id.
type RecordStore interface {
	UpsertProject(ctx context.Context, record ProjectRecord) error
}

// BlobStore writes snapshot artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error)
}

// Publisher pushes sync events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}
