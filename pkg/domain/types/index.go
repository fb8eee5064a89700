package types

import "fmt"

// FileType classifies a tracked file for chunking purposes
type FileType string

const (
	FileCode     FileType = "code"
	FileDocument FileType = "document"
	FileChat     FileType = "chat"
	FileOther    FileType = "other"
)

// IsValid checks if the file type is valid
func (f FileType) IsValid() bool {
	switch f {
	case FileCode, FileDocument, FileChat, FileOther:
		return true
	default:
		return false
	}
}

// String returns the string representation of the file type
func (f FileType) String() string {
	return string(f)
}

// ChunkType classifies the semantic unit an embedding chunk was cut along
type ChunkType string

const (
	ChunkFunction  ChunkType = "function"
	ChunkParagraph ChunkType = "paragraph"
	ChunkWindow    ChunkType = "window"
	ChunkQuery     ChunkType = "query"
)

// IsValid checks if the chunk type is valid
func (c ChunkType) IsValid() bool {
	switch c {
	case ChunkFunction, ChunkParagraph, ChunkWindow, ChunkQuery:
		return true
	default:
		return false
	}
}

// String returns the string representation of the chunk type
func (c ChunkType) String() string {
	return string(c)
}

// Relationship is the typed edge between two concepts in the concept graph
type Relationship string

const (
	RelRelated     Relationship = "related"
	RelDependsOn   Relationship = "depends_on"
	RelImplements  Relationship = "implements"
	RelExtends     Relationship = "extends"
	RelContradicts Relationship = "contradicts"
	RelExampleOf   Relationship = "example_of"
)

// AllRelationships returns all valid relationships
func AllRelationships() []Relationship {
	return []Relationship{
		RelRelated,
		RelDependsOn,
		RelImplements,
		RelExtends,
		RelContradicts,
		RelExampleOf,
	}
}

// IsValid checks if the relationship is valid
func (r Relationship) IsValid() bool {
	switch r {
	case RelRelated, RelDependsOn, RelImplements,
		RelExtends, RelContradicts, RelExampleOf:
		return true
	default:
		return false
	}
}

// String returns the string representation of the relationship
func (r Relationship) String() string {
	return string(r)
}

// ParseRelationship parses a string into a Relationship
func ParseRelationship(s string) (Relationship, error) {
	r := Relationship(s)
	if !r.IsValid() {
		return "", fmt.Errorf("invalid relationship: %s", s)
	}
	return r, nil
}
