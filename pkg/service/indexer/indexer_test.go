package indexer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/mentor-lab/chiron/pkg/domain/model"
	"github.com/mentor-lab/chiron/pkg/domain/types"
	"github.com/mentor-lab/chiron/pkg/service/gateway"
	"github.com/mentor-lab/chiron/pkg/service/indexer"
	svcmodel "github.com/mentor-lab/chiron/pkg/service/model"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	gt.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755)).Required()
	gt.NoError(t, os.WriteFile(path, []byte(content), 0o644)).Required()
}

func newIndexer(t *testing.T, root string, opts ...gateway.Option) *indexer.Indexer {
	t.Helper()
	g, err := gateway.New([]string{root}, opts...)
	gt.NoError(t, err).Required()
	return indexer.New(g, svcmodel.NewLocalEmbedder())
}

func TestBuildIndex(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "notes.md"), "How to bleed brakes.\n\nPump the pedal first.")
	writeFile(t, filepath.Join(root, "src", "check.go"), "package check\n\nfunc Voltage() int {\n\treturn 12\n}\n")

	x := newIndexer(t, root)
	g, err := gateway.New([]string{root})
	gt.NoError(t, err).Required()

	ctx := context.Background()
	refs, err := g.Discover(ctx)
	gt.NoError(t, err).Required()

	index, err := x.BuildIndex(ctx, "user-1", "laptop", refs)
	gt.NoError(t, err).Required()

	gt.NoError(t, index.Validate())
	gt.Value(t, index.Dimension).Equal(svcmodel.DefaultDimension)
	gt.Array(t, index.TrackedFiles).Length(2)
	gt.Bool(t, len(index.Chunks) >= 3).True()

	for _, c := range index.Chunks {
		gt.Bool(t, index.Tracks(c.Source.Path)).True()
		gt.Array(t, c.Vector).Length(svcmodel.DefaultDimension)
		gt.String(t, c.ContentHash).NotEqual("")
	}
}

func TestBuildIndexSkipsDeniedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "notes.md"), "Allowed content about brakes.")
	writeFile(t, filepath.Join(root, "keys.secret"), "never index this")

	x := newIndexer(t, root, gateway.WithExclusions("*.secret"))

	// References created before the exclusion was configured must still
	// be refused at read time.
	refs := []*model.FileReference{
		{Path: filepath.Join(root, "notes.md"), Type: types.FileDocument},
		{Path: filepath.Join(root, "keys.secret"), Type: types.FileOther},
	}

	index, err := x.BuildIndex(context.Background(), "user-1", "laptop", refs)
	gt.NoError(t, err).Required()

	for _, c := range index.Chunks {
		gt.Value(t, c.Source.Path).NotEqual(filepath.Join(root, "keys.secret"))
	}
	gt.Array(t, index.TrackedFiles).Length(1)
}

func TestUpdateIndex(t *testing.T) {
	root := t.TempDir()
	keep := filepath.Join(root, "keep.md")
	change := filepath.Join(root, "change.md")
	writeFile(t, keep, "Stable paragraph.")
	writeFile(t, change, "Old first paragraph.\n\nOld second paragraph.")

	x := newIndexer(t, root)
	g, err := gateway.New([]string{root})
	gt.NoError(t, err).Required()

	ctx := context.Background()
	refs, err := g.Discover(ctx)
	gt.NoError(t, err).Required()
	index, err := x.BuildIndex(ctx, "user-1", "laptop", refs)
	gt.NoError(t, err).Required()

	var keepIDs []model.ChunkID
	for _, c := range index.Chunks {
		if c.Source.Path == keep {
			keepIDs = append(keepIDs, c.ID)
		}
	}
	gt.Array(t, keepIDs).Length(1)

	t.Run("changed file is rebuilt, others untouched", func(t *testing.T) {
		writeFile(t, change, "New single paragraph.")
		gt.NoError(t, x.UpdateIndex(ctx, index, change)).Required()
		gt.NoError(t, index.Validate())

		var changed, kept int
		for _, c := range index.Chunks {
			switch c.Source.Path {
			case change:
				changed++
			case keep:
				kept++
				gt.Value(t, c.ID).Equal(keepIDs[0])
			}
		}
		gt.Value(t, changed).Equal(1)
		gt.Value(t, kept).Equal(1)
	})

	t.Run("deleted file is dropped from the index", func(t *testing.T) {
		gt.NoError(t, os.Remove(change))
		gt.NoError(t, x.UpdateIndex(ctx, index, change)).Required()

		for _, c := range index.Chunks {
			gt.Value(t, c.Source.Path).NotEqual(change)
		}
		gt.Bool(t, index.Tracks(change)).False()
		gt.Bool(t, index.Tracks(keep)).True()
	})
}

func TestUpdateIndexReusesUnchangedVectors(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "doc.md")
	writeFile(t, path, "Same paragraph.\n\nChanging paragraph, v1.")

	x := newIndexer(t, root)
	g, err := gateway.New([]string{root})
	gt.NoError(t, err).Required()

	ctx := context.Background()
	refs, err := g.Discover(ctx)
	gt.NoError(t, err).Required()
	index, err := x.BuildIndex(ctx, "user-1", "laptop", refs)
	gt.NoError(t, err).Required()

	var sameHash string
	for _, c := range index.Chunks {
		if c.ContentHash == model.HashContent([]byte("Same paragraph.")) {
			sameHash = c.ContentHash
		}
	}
	gt.String(t, sameHash).NotEqual("")

	writeFile(t, path, "Same paragraph.\n\nChanging paragraph, v2.")
	gt.NoError(t, x.UpdateIndex(ctx, index, path)).Required()

	var found bool
	for _, c := range index.Chunks {
		if c.ContentHash == sameHash {
			found = true
		}
	}
	gt.Bool(t, found).True()
}

func TestQueryRanking(t *testing.T) {
	x := indexer.New(nil, svcmodel.NewLocalEmbedder())
	ctx := context.Background()

	index := model.NewMemoryIndex("user-1", "laptop", svcmodel.DefaultDimension)
	embedder := svcmodel.NewLocalEmbedder()

	addChunk := func(text, path string, at time.Time) model.ChunkID {
		vec, err := embedder.Embed(ctx, text)
		gt.NoError(t, err).Required()
		chunk := model.EmbeddingChunk{
			ID:          model.NewChunkID(),
			Vector:      vec,
			ContentHash: model.HashContent([]byte(text)),
			Source:      model.ChunkSource{Path: path},
			ChunkType:   types.ChunkParagraph,
			EmbeddedAt:  at,
		}
		index.Chunks = append(index.Chunks, chunk)
		index.TrackFile(model.FileReference{Path: path, Type: types.FileDocument})
		return chunk.ID
	}

	now := time.Now().UTC()
	best := addChunk("battery voltage check battery terminals", "a.md", now)
	second := addChunk("battery replacement guide", "b.md", now)
	addChunk("garden irrigation schedule", "c.md", now)

	t.Run("top-2 returns the two most similar in order", func(t *testing.T) {
		hits, err := x.Query(ctx, index, "battery voltage", 2)
		gt.NoError(t, err).Required()
		gt.Array(t, hits).Length(2)
		gt.Value(t, hits[0].Chunk.ID).Equal(best)
		gt.Value(t, hits[1].Chunk.ID).Equal(second)
		gt.Bool(t, hits[0].Similarity >= hits[1].Similarity).True()
	})

	t.Run("ties break toward the most recent chunk", func(t *testing.T) {
		older := addChunk("identical text", "d.md", now.Add(-time.Hour))
		newer := addChunk("identical text", "e.md", now)
		_ = older

		hits, err := x.Query(ctx, index, "identical text", 1)
		gt.NoError(t, err).Required()
		gt.Array(t, hits).Length(1)
		gt.Value(t, hits[0].Chunk.ID).Equal(newer)
	})

	t.Run("topK must be positive", func(t *testing.T) {
		_, err := x.Query(ctx, index, "anything", 0)
		gt.Error(t, err)
	})
}

func TestRelated(t *testing.T) {
	index := model.NewMemoryIndex("user-1", "laptop", 4)
	a, b, c := model.NewChunkID(), model.NewChunkID(), model.NewChunkID()
	index.ConceptGraph = []model.ConceptLink{
		{FromChunk: a, ToChunk: b, Relationship: types.RelRelated, Strength: 0.5},
		{FromChunk: c, ToChunk: a, Relationship: types.RelRelated, Strength: 0.5},
	}

	related := indexer.Related(index, a)
	gt.Array(t, related).Length(2)
	gt.Value(t, related[0]).Equal(b)
	gt.Value(t, related[1]).Equal(c)

	gt.Array(t, indexer.Related(index, model.NewChunkID())).Length(0)
}
