package model

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"strings"
	"unicode"

	"github.com/mentor-lab/chiron/pkg/domain/interfaces"
)

// DefaultDimension is the vector size of the local embedder
const DefaultDimension = 256

// LocalEmbedder embeds text with deterministic feature hashing: each
// token is hashed into a fixed bucket with a hash-derived sign, and the
// result is L2-normalized. It runs entirely in-process, which is what
// the ownership boundary requires of the indexing path: identical text
// always yields the identical vector, and no text ever leaves the host.
type LocalEmbedder struct {
	dimension int
}

var _ interfaces.Embedder = &LocalEmbedder{}

func NewLocalEmbedder() *LocalEmbedder {
	return &LocalEmbedder{dimension: DefaultDimension}
}

func (e *LocalEmbedder) Dimension() int {
	return e.dimension
}

func (e *LocalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimension)

	for _, token := range tokenize(text) {
		sum := sha256.Sum256([]byte(token))
		bucket := binary.BigEndian.Uint32(sum[:4]) % uint32(e.dimension)
		if sum[4]&1 == 0 {
			vec[bucket]++
		} else {
			vec[bucket]--
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}

	return vec, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
