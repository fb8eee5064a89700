package model

import (
	"time"

	"github.com/mentor-lab/chiron/pkg/domain/types"
)

// ProblemSnapshot is a compact record of a solved (or abandoned) problem,
// stored at session completion for backward retrieval.
type ProblemSnapshot struct {
	SessionID    SessionID
	Domain       string
	ProblemType  types.ProblemType
	Observation  string
	SolutionPath []string
	Resolved     bool
	OccurredAt   time.Time
}

// Profile is a user's long-lived diagnostic profile. It is owned by the
// backward-retrieval direction and updated after each completed session.
type Profile struct {
	UserID           string
	LearningStyle    types.LearningStyle
	ExplanationDepth types.ExplanationDepth
	SkillLevels      map[string]types.SkillLevel // key = domain
	RiskTolerance    types.RiskTolerance
	PastProblems     []ProblemSnapshot
	SuccessPatterns  []string
	RepeatedMistakes []string
	UpdatedAt        time.Time
}

// NewProfile creates a profile with neutral defaults for a first-time user
func NewProfile(userID string) *Profile {
	return &Profile{
		UserID:           userID,
		LearningStyle:    types.LearningConceptual,
		ExplanationDepth: types.DepthModerate,
		SkillLevels:      make(map[string]types.SkillLevel),
		RiskTolerance:    types.RiskMedium,
		UpdatedAt:        time.Now().UTC(),
	}
}

// SkillIn returns the user's skill level for a domain, defaulting to beginner
func (p *Profile) SkillIn(domain string) types.SkillLevel {
	if level, ok := p.SkillLevels[domain]; ok {
		return level
	}
	return types.SkillBeginner
}

// SimilarPastProblems returns past snapshots matching domain and problem type
func (p *Profile) SimilarPastProblems(domain string, problemType types.ProblemType) []ProblemSnapshot {
	var matched []ProblemSnapshot
	for _, snap := range p.PastProblems {
		if snap.Domain == domain && snap.ProblemType == problemType {
			matched = append(matched, snap)
		}
	}
	return matched
}
