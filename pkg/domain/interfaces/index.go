package interfaces

import (
	"context"

	"github.com/mentor-lab/chiron/pkg/domain/model"
)

// IndexRepository defines persistence for local memory indexes. An index
// is keyed by the user+device pair; only vectors, hashes, and file
// metadata are ever stored.
type IndexRepository interface {
	// Get retrieves the index for a user+device pair.
	// Returns ErrNotFound when no index exists yet.
	Get(ctx context.Context, userID, deviceID string) (*model.MemoryIndex, error)

	// Put stores or replaces an index
	Put(ctx context.Context, index *model.MemoryIndex) error
}
