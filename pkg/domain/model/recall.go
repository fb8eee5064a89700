package model

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/mentor-lab/chiron/pkg/domain/types"
)

// PatchID is a UUID-based identifier for KnowledgePatch
type PatchID string

// NewPatchID generates a new UUID v4 PatchID
func NewPatchID() PatchID {
	return PatchID(uuid.New().String())
}

// KnowledgePatch is a single immutable fragment in a user's recall ledger.
// Patches are append-only; they are never edited or removed.
type KnowledgePatch struct {
	ID        PatchID
	Content   string
	Type      types.PatchType
	CreatedAt time.Time
}

// RecallScoreThreshold is the minimum score (exclusive) for a patch to be
// considered relevant to a query.
const RecallScoreThreshold = 5

// RecallKeywords tokenizes a free-text query for recall scoring. Tokens
// are split on runs of non-alphanumeric characters, so punctuation never
// sticks to a word, and tokens of two characters or fewer are dropped as
// noise.
func RecallKeywords(query string) []string {
	fields := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var keywords []string
	for _, word := range fields {
		if len(word) > 2 {
			keywords = append(keywords, word)
		}
	}
	return keywords
}

// ScoreRecall computes the relevance score of a patch against query
// keywords at the given reference time: +10 per keyword found in the
// content, +5 more when the keyword appears within the first 50
// characters, a fixed weight per patch type, and a recency bonus of
// max(0, 20 - ageInDays).
func (p *KnowledgePatch) ScoreRecall(keywords []string, now time.Time) int {
	score := 0
	content := strings.ToLower(p.Content)

	for _, word := range keywords {
		idx := strings.Index(content, strings.ToLower(word))
		if idx < 0 {
			continue
		}
		score += 10
		if idx < 50 {
			score += 5
		}
	}

	score += p.Type.Weight()

	ageDays := int(now.Sub(p.CreatedAt).Hours() / 24)
	if bonus := 20 - ageDays; bonus > 0 {
		score += bonus
	}

	return score
}
