package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mentor-lab/chiron/pkg/domain/types"
)

// HashContent returns the SHA-256 hex digest of the given content.
// The hash is the content address of a chunk: identical content always
// maps to the same hash, so it never re-embeds.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// FileReference is metadata about a tracked file. The content itself is
// never persisted; only the hash, path, and stat-level attributes are.
type FileReference struct {
	Path        string
	ContentHash string
	Type        types.FileType
	Language    string
	SizeBytes   int64
	ModifiedAt  time.Time
}

// ChunkSource is the provenance of an embedding chunk within a file
type ChunkSource struct {
	Path      string
	StartLine int
	EndLine   int
}

// ChunkID is a UUID-based identifier for EmbeddingChunk
type ChunkID string

// NewChunkID generates a new UUID v4 ChunkID
func NewChunkID() ChunkID {
	return ChunkID(uuid.New().String())
}

// EmbeddingChunk holds a fixed-dimension vector for one chunk of a tracked
// file, keyed by the content hash of the chunk text. Raw text never
// appears here.
type EmbeddingChunk struct {
	ID          ChunkID
	Vector      []float32
	ContentHash string
	Source      ChunkSource
	ChunkType   types.ChunkType
	EmbeddedAt  time.Time
}

// ConceptLink is a typed, weighted edge between two chunks in the concept graph
type ConceptLink struct {
	FromChunk    ChunkID
	ToChunk      ChunkID
	Relationship types.Relationship
	Strength     float64 // [0, 1]
}

// MemoryIndex aggregates the embedding chunks, tracked files, and concept
// graph for one user+device pair. It is the only artifact the indexing
// path persists.
type MemoryIndex struct {
	UserID       string
	DeviceID     string
	Dimension    int
	Chunks       []EmbeddingChunk
	TrackedFiles []FileReference
	ConceptGraph []ConceptLink
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewMemoryIndex creates an empty index for a user+device pair
func NewMemoryIndex(userID, deviceID string, dimension int) *MemoryIndex {
	now := time.Now().UTC()
	return &MemoryIndex{
		UserID:    userID,
		DeviceID:  deviceID,
		Dimension: dimension,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Tracks reports whether the index tracks the given file path
func (idx *MemoryIndex) Tracks(path string) bool {
	for _, f := range idx.TrackedFiles {
		if f.Path == path {
			return true
		}
	}
	return false
}

// TrackFile adds or replaces the file reference for ref.Path
func (idx *MemoryIndex) TrackFile(ref FileReference) {
	for i, f := range idx.TrackedFiles {
		if f.Path == ref.Path {
			idx.TrackedFiles[i] = ref
			return
		}
	}
	idx.TrackedFiles = append(idx.TrackedFiles, ref)
}

// RemoveFile removes the tracked file and all of its chunks atomically.
// Links touching a removed chunk are dropped with it.
func (idx *MemoryIndex) RemoveFile(path string) {
	removed := make(map[ChunkID]bool)
	kept := idx.Chunks[:0]
	for _, c := range idx.Chunks {
		if c.Source.Path == path {
			removed[c.ID] = true
			continue
		}
		kept = append(kept, c)
	}
	idx.Chunks = kept

	if len(removed) > 0 {
		links := idx.ConceptGraph[:0]
		for _, link := range idx.ConceptGraph {
			if removed[link.FromChunk] || removed[link.ToChunk] {
				continue
			}
			links = append(links, link)
		}
		idx.ConceptGraph = links
	}

	files := idx.TrackedFiles[:0]
	for _, f := range idx.TrackedFiles {
		if f.Path != path {
			files = append(files, f)
		}
	}
	idx.TrackedFiles = files
	idx.UpdatedAt = time.Now().UTC()
}

// Validate checks the index invariant: every chunk's source path must
// appear in the tracked files, and every vector must match the index
// dimension.
func (idx *MemoryIndex) Validate() error {
	tracked := make(map[string]bool, len(idx.TrackedFiles))
	for _, f := range idx.TrackedFiles {
		tracked[f.Path] = true
	}

	for _, c := range idx.Chunks {
		if !tracked[c.Source.Path] {
			return goerr.New("chunk source is not tracked",
				goerr.V("chunkID", c.ID), goerr.V("path", c.Source.Path))
		}
		if len(c.Vector) != idx.Dimension {
			return goerr.New("chunk vector dimension mismatch",
				goerr.V("chunkID", c.ID),
				goerr.V("got", len(c.Vector)), goerr.V("want", idx.Dimension))
		}
	}
	return nil
}
