package indexer

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mentor-lab/chiron/pkg/domain/interfaces"
	"github.com/mentor-lab/chiron/pkg/domain/model"
	"github.com/mentor-lab/chiron/pkg/domain/types"
	"github.com/mentor-lab/chiron/pkg/service/gateway"
	"github.com/mentor-lab/chiron/pkg/utils/logging"
)

// Indexer builds and maintains the local memory index. All file reads go
// through the gateway's permission boundary, and all embedding runs on
// the local embedder, so nothing here ever performs remote I/O with file
// content.
type Indexer struct {
	gateway  interfaces.FileGateway
	embedder interfaces.Embedder
}

func New(fileGateway interfaces.FileGateway, embedder interfaces.Embedder) *Indexer {
	return &Indexer{
		gateway:  fileGateway,
		embedder: embedder,
	}
}

// Dimension returns the embedder's output dimensionality
func (x *Indexer) Dimension() int {
	return x.embedder.Dimension()
}

// EmbedChunk embeds a chunk of text into a content-addressed
// EmbeddingChunk. Identical content always hashes identically, which is
// what lets callers skip re-embedding unchanged chunks.
func (x *Indexer) EmbedChunk(ctx context.Context, raw RawChunk, path string) (*model.EmbeddingChunk, error) {
	vector, err := x.embedder.Embed(ctx, raw.Content)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed chunk", goerr.V("path", path))
	}

	return &model.EmbeddingChunk{
		ID:          model.NewChunkID(),
		Vector:      vector,
		ContentHash: model.HashContent([]byte(raw.Content)),
		Source: model.ChunkSource{
			Path:      path,
			StartLine: raw.StartLine,
			EndLine:   raw.EndLine,
		},
		ChunkType:  raw.ChunkType,
		EmbeddedAt: time.Now().UTC(),
	}, nil
}

// BuildIndex chunks and embeds a batch of files into a fresh index.
// Files the gateway denies are skipped with a log entry; the permission
// boundary guarantees no denied path ever appears in a chunk source.
func (x *Indexer) BuildIndex(ctx context.Context, userID, deviceID string, refs []*model.FileReference) (*model.MemoryIndex, error) {
	index := model.NewMemoryIndex(userID, deviceID, x.embedder.Dimension())

	for _, ref := range refs {
		if err := x.indexFile(ctx, index, ref); err != nil {
			if errors.Is(err, gateway.ErrPermissionDenied) {
				logging.From(ctx).Warn("skipping denied file", "path", ref.Path)
				continue
			}
			return nil, err
		}
	}

	return index, nil
}

// UpdateIndex re-indexes exactly one changed file: its prior chunks are
// removed and rebuilt, every other file's chunks are left untouched. A
// file that no longer exists is simply dropped from the index.
func (x *Indexer) UpdateIndex(ctx context.Context, index *model.MemoryIndex, path string) error {
	known := make(map[string][]float32)
	for _, c := range index.Chunks {
		if c.Source.Path == path {
			known[c.ContentHash] = c.Vector
		}
	}

	index.RemoveFile(path)

	ref, err := x.gateway.Reference(ctx, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, gateway.ErrPermissionDenied) {
			return nil
		}
		return err
	}

	return x.indexFileReusing(ctx, index, ref, known)
}

func (x *Indexer) indexFile(ctx context.Context, index *model.MemoryIndex, ref *model.FileReference) error {
	return x.indexFileReusing(ctx, index, ref, nil)
}

// indexFileReusing embeds a file's chunks, reusing prior vectors for
// chunk content that did not change.
func (x *Indexer) indexFileReusing(ctx context.Context, index *model.MemoryIndex, ref *model.FileReference, known map[string][]float32) error {
	content, err := x.gateway.Read(ctx, ref.Path)
	if err != nil {
		return err
	}

	var added []model.ChunkID
	for _, raw := range Chunk(string(content), ref.Type) {
		hash := model.HashContent([]byte(raw.Content))

		var chunk *model.EmbeddingChunk
		if vector, ok := known[hash]; ok {
			chunk = &model.EmbeddingChunk{
				ID:          model.NewChunkID(),
				Vector:      vector,
				ContentHash: hash,
				Source: model.ChunkSource{
					Path:      ref.Path,
					StartLine: raw.StartLine,
					EndLine:   raw.EndLine,
				},
				ChunkType:  raw.ChunkType,
				EmbeddedAt: time.Now().UTC(),
			}
		} else {
			chunk, err = x.EmbedChunk(ctx, raw, ref.Path)
			if err != nil {
				return err
			}
		}

		index.Chunks = append(index.Chunks, *chunk)
		added = append(added, chunk.ID)
	}

	// Same-file chunks are linked pairwise so forward traversal can pull
	// neighboring context of a hit.
	for i := 0; i < len(added); i++ {
		for j := i + 1; j < len(added); j++ {
			index.ConceptGraph = append(index.ConceptGraph, model.ConceptLink{
				FromChunk:    added[i],
				ToChunk:      added[j],
				Relationship: types.RelRelated,
				Strength:     0.5,
			})
		}
	}

	index.TrackFile(*ref)
	return nil
}
