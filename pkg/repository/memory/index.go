package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mentor-lab/chiron/pkg/domain/model"
)

type indexKey struct {
	userID   string
	deviceID string
}

type indexRepository struct {
	mu      sync.RWMutex
	indexes map[indexKey]*model.MemoryIndex
}

func newIndexRepository() *indexRepository {
	return &indexRepository{
		indexes: make(map[indexKey]*model.MemoryIndex),
	}
}

// copyIndex creates a deep copy of a memory index, including every vector
func copyIndex(idx *model.MemoryIndex) *model.MemoryIndex {
	copied := *idx

	copied.Chunks = append([]model.EmbeddingChunk(nil), idx.Chunks...)
	for i, c := range copied.Chunks {
		if c.Vector != nil {
			copied.Chunks[i].Vector = make([]float32, len(c.Vector))
			copy(copied.Chunks[i].Vector, c.Vector)
		}
	}
	copied.TrackedFiles = append([]model.FileReference(nil), idx.TrackedFiles...)
	copied.ConceptGraph = append([]model.ConceptLink(nil), idx.ConceptGraph...)

	return &copied
}

func (r *indexRepository) Get(ctx context.Context, userID, deviceID string) (*model.MemoryIndex, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, exists := r.indexes[indexKey{userID: userID, deviceID: deviceID}]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "index not found",
			goerr.V("userID", userID), goerr.V("deviceID", deviceID))
	}

	return copyIndex(idx), nil
}

func (r *indexRepository) Put(ctx context.Context, index *model.MemoryIndex) error {
	if err := index.Validate(); err != nil {
		return goerr.Wrap(err, "invalid index")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copyIndex(index)
	stored.UpdatedAt = time.Now().UTC()
	r.indexes[indexKey{userID: stored.UserID, deviceID: stored.DeviceID}] = stored
	return nil
}
