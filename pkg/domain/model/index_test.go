package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/mentor-lab/chiron/pkg/domain/model"
	"github.com/mentor-lab/chiron/pkg/domain/types"
)

func testChunk(path string, dim int) model.EmbeddingChunk {
	return model.EmbeddingChunk{
		ID:          model.NewChunkID(),
		Vector:      make([]float32, dim),
		ContentHash: model.HashContent([]byte(path)),
		Source:      model.ChunkSource{Path: path, StartLine: 1, EndLine: 10},
		ChunkType:   types.ChunkWindow,
		EmbeddedAt:  time.Now().UTC(),
	}
}

func TestHashContent(t *testing.T) {
	t.Run("identical content hashes identically", func(t *testing.T) {
		gt.Value(t, model.HashContent([]byte("abc"))).Equal(model.HashContent([]byte("abc")))
	})

	t.Run("different content hashes differently", func(t *testing.T) {
		gt.Value(t, model.HashContent([]byte("abc"))).NotEqual(model.HashContent([]byte("abd")))
	})

	t.Run("digest is 64 hex chars", func(t *testing.T) {
		gt.Number(t, len(model.HashContent([]byte("x")))).Equal(64)
	})
}

func TestMemoryIndex_RemoveFile(t *testing.T) {
	idx := model.NewMemoryIndex("u1", "d1", 4)
	idx.TrackFile(model.FileReference{Path: "/home/u1/a.go", Type: types.FileCode})
	idx.TrackFile(model.FileReference{Path: "/home/u1/b.md", Type: types.FileDocument})

	a1 := testChunk("/home/u1/a.go", 4)
	a2 := testChunk("/home/u1/a.go", 4)
	b1 := testChunk("/home/u1/b.md", 4)
	idx.Chunks = []model.EmbeddingChunk{a1, a2, b1}
	idx.ConceptGraph = []model.ConceptLink{
		{FromChunk: a1.ID, ToChunk: a2.ID, Relationship: types.RelRelated, Strength: 0.5},
		{FromChunk: a1.ID, ToChunk: b1.ID, Relationship: types.RelDependsOn, Strength: 0.3},
	}

	idx.RemoveFile("/home/u1/a.go")

	// Only chunks of the removed file go away
	gt.Number(t, len(idx.Chunks)).Equal(1)
	gt.Value(t, idx.Chunks[0].ID).Equal(b1.ID)

	// Links touching removed chunks go with them
	gt.Number(t, len(idx.ConceptGraph)).Equal(0)

	// Tracked file is gone, the other stays
	gt.B(t, idx.Tracks("/home/u1/a.go")).False()
	gt.B(t, idx.Tracks("/home/u1/b.md")).True()

	gt.NoError(t, idx.Validate())
}

func TestMemoryIndex_Validate(t *testing.T) {
	t.Run("chunk without tracked file fails", func(t *testing.T) {
		idx := model.NewMemoryIndex("u1", "d1", 4)
		idx.Chunks = []model.EmbeddingChunk{testChunk("/etc/passwd", 4)}
		gt.Error(t, idx.Validate())
	})

	t.Run("dimension mismatch fails", func(t *testing.T) {
		idx := model.NewMemoryIndex("u1", "d1", 8)
		idx.TrackFile(model.FileReference{Path: "/home/u1/a.go"})
		idx.Chunks = []model.EmbeddingChunk{testChunk("/home/u1/a.go", 4)}
		gt.Error(t, idx.Validate())
	})
}

func TestMemoryIndex_TrackFile(t *testing.T) {
	idx := model.NewMemoryIndex("u1", "d1", 4)
	idx.TrackFile(model.FileReference{Path: "/home/u1/a.go", ContentHash: "h1"})
	idx.TrackFile(model.FileReference{Path: "/home/u1/a.go", ContentHash: "h2"})

	gt.Number(t, len(idx.TrackedFiles)).Equal(1)
	gt.Value(t, idx.TrackedFiles[0].ContentHash).Equal("h2")
}
