package interfaces

import (
	"context"

	"github.com/mentor-lab/chiron/pkg/domain/model"
)

// FileOp is the kind of change reported by the file gateway's watcher
type FileOp string

const (
	FileOpAdd    FileOp = "add"
	FileOpChange FileOp = "change"
	FileOpDelete FileOp = "delete"
)

// FileEvent reports a change to a file inside the permission boundary
type FileEvent struct {
	Op   FileOp
	Path string
}

// FileGateway mediates every file read through the permission boundary:
// a path must sit under an allow-listed root and must not match any
// exclusion pattern. All indexing I/O goes through this interface so the
// read path and the watch path enforce the same two checks.
type FileGateway interface {
	// Allowed reports whether the path passes both permission checks
	Allowed(path string) bool

	// Read returns the file content, or ErrPermissionDenied
	Read(ctx context.Context, path string) ([]byte, error)

	// Reference builds the metadata-only reference for a file
	Reference(ctx context.Context, path string) (*model.FileReference, error)

	// Discover walks the allowed roots and returns references for every
	// readable, non-excluded file.
	Discover(ctx context.Context) ([]*model.FileReference, error)

	// Watch delivers change events for allowed paths to handler until ctx
	// is done. Events for excluded or out-of-boundary paths are dropped
	// before handler sees them.
	Watch(ctx context.Context, handler func(FileEvent)) error
}
