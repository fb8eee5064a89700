package indexer

import (
	"context"
	"math"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mentor-lab/chiron/pkg/domain/model"
)

// Hit is one ranked query result
type Hit struct {
	Chunk      model.EmbeddingChunk
	Similarity float64
}

// Query embeds the query text locally and ranks every chunk by cosine
// similarity, returning the top-K. Ties break toward the most recently
// embedded chunk.
func (x *Indexer) Query(ctx context.Context, index *model.MemoryIndex, text string, topK int) ([]Hit, error) {
	if topK <= 0 {
		return nil, goerr.New("topK must be positive", goerr.V("topK", topK))
	}

	queryVec, err := x.embedder.Embed(ctx, text)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query")
	}

	hits := make([]Hit, 0, len(index.Chunks))
	for _, chunk := range index.Chunks {
		hits = append(hits, Hit{
			Chunk:      chunk,
			Similarity: cosineSimilarity(queryVec, chunk.Vector),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].Chunk.EmbeddedAt.After(hits[j].Chunk.EmbeddedAt)
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Related returns the chunks linked to the given chunk in the concept graph
func Related(index *model.MemoryIndex, id model.ChunkID) []model.ChunkID {
	var related []model.ChunkID
	for _, link := range index.ConceptGraph {
		switch id {
		case link.FromChunk:
			related = append(related, link.ToChunk)
		case link.ToChunk:
			related = append(related, link.FromChunk)
		}
	}
	return related
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
