package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mentor-lab/chiron/pkg/domain/interfaces"
	"github.com/mentor-lab/chiron/pkg/domain/model"
	"github.com/mentor-lab/chiron/pkg/service/indexer"
	modelsvc "github.com/mentor-lab/chiron/pkg/service/model"
	"github.com/mentor-lab/chiron/pkg/utils/logging"
)

// IndexingUseCase manages the local embedding index for one process. All
// file reads go through the gateway's permission boundary, embedding runs
// locally, and only vectors plus metadata reach the repository.
type IndexingUseCase struct {
	repo    interfaces.Repository
	gateway interfaces.FileGateway
	indexer *indexer.Indexer
	models  *modelsvc.Router
}

func NewIndexingUseCase(repo interfaces.Repository, gateway interfaces.FileGateway, idx *indexer.Indexer, models *modelsvc.Router) *IndexingUseCase {
	return &IndexingUseCase{
		repo:    repo,
		gateway: gateway,
		indexer: idx,
		models:  models,
	}
}

// Build discovers every readable file under the allowed roots, indexes
// them from scratch, and persists the result.
func (uc *IndexingUseCase) Build(ctx context.Context, userID, deviceID string) (*model.MemoryIndex, error) {
	refs, err := uc.gateway.Discover(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "file discovery failed", goerr.V(UserIDKey, userID))
	}

	index, err := uc.indexer.BuildIndex(ctx, userID, deviceID, refs)
	if err != nil {
		return nil, err
	}

	if err := uc.repo.Index().Put(ctx, index); err != nil {
		return nil, goerr.Wrap(err, "failed to store index",
			goerr.V(UserIDKey, userID), goerr.V("device_id", deviceID))
	}

	logging.From(ctx).Info("index built",
		"user_id", userID,
		"device_id", deviceID,
		"files", len(index.TrackedFiles),
		"chunks", len(index.Chunks))
	return index, nil
}

// Refresh re-indexes a single changed file, leaving every other file's
// chunks untouched, and persists the result.
func (uc *IndexingUseCase) Refresh(ctx context.Context, userID, deviceID, path string) (*model.MemoryIndex, error) {
	index, err := uc.repo.Index().Get(ctx, userID, deviceID)
	if err != nil {
		if isNotFound(err) {
			index = model.NewMemoryIndex(userID, deviceID, uc.indexer.Dimension())
		} else {
			return nil, goerr.Wrap(err, "failed to load index", goerr.V(UserIDKey, userID))
		}
	}

	if err := uc.indexer.UpdateIndex(ctx, index, path); err != nil {
		return nil, err
	}
	if err := uc.repo.Index().Put(ctx, index); err != nil {
		return nil, goerr.Wrap(err, "failed to store index", goerr.V(UserIDKey, userID))
	}
	return index, nil
}

// Query embeds the query locally and returns the top-K most similar
// chunks. A user without an index gets an empty result, not an error.
func (uc *IndexingUseCase) Query(ctx context.Context, userID, deviceID, text string, topK int) ([]indexer.Hit, error) {
	index, err := uc.repo.Index().Get(ctx, userID, deviceID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to load index", goerr.V(UserIDKey, userID))
	}
	return uc.indexer.Query(ctx, index, text, topK)
}

// AnnotateChunk asks the reasoning backend to describe one indexed chunk.
// This is the only operation that moves raw file content toward a remote
// model, so it fails closed without an explicit consent grant, and every
// grant is logged with the path it covers.
func (uc *IndexingUseCase) AnnotateChunk(ctx context.Context, userID, deviceID string, chunkID model.ChunkID, consent bool) (string, error) {
	if !consent {
		return "", goerr.Wrap(ErrConsentRequired, "chunk annotation sends raw content to the reasoning model",
			goerr.V(UserIDKey, userID), goerr.V("chunk_id", string(chunkID)))
	}

	reasoning, ok := uc.models.Reasoning()
	if !ok {
		return "", goerr.Wrap(ErrModelUnavailable, "no reasoning backend configured")
	}

	index, err := uc.repo.Index().Get(ctx, userID, deviceID)
	if err != nil {
		if isNotFound(err) {
			return "", goerr.New("no index for device",
				goerr.V(UserIDKey, userID), goerr.V("device_id", deviceID))
		}
		return "", goerr.Wrap(err, "failed to load index", goerr.V(UserIDKey, userID))
	}

	chunk, ok := findChunk(index, chunkID)
	if !ok {
		return "", goerr.New("chunk not in index", goerr.V("chunk_id", string(chunkID)))
	}

	content, err := uc.gateway.Read(ctx, chunk.Source.Path)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read chunk source", goerr.V("path", chunk.Source.Path))
	}
	text := sliceLines(string(content), chunk.Source.StartLine, chunk.Source.EndLine)

	logging.From(ctx).Info("consent granted for remote content transfer",
		"user_id", userID,
		"path", chunk.Source.Path,
		"chunk_id", chunkID)

	prompt := fmt.Sprintf("Describe in one sentence what this %s fragment is about:\n\n%s", chunk.ChunkType, text)
	return reasoning.Reason(ctx, prompt)
}

func findChunk(index *model.MemoryIndex, id model.ChunkID) (model.EmbeddingChunk, bool) {
	for _, c := range index.Chunks {
		if c.ID == id {
			return c, true
		}
	}
	return model.EmbeddingChunk{}, false
}

// sliceLines extracts the 1-based inclusive line range from content,
// clamping out-of-range bounds.
func sliceLines(content string, start, end int) string {
	lines := strings.Split(content, "\n")
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return ""
	}
	return strings.Join(lines[start-1:end], "\n")
}
