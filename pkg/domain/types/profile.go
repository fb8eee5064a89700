package types

// SkillLevel represents a user's proficiency in a domain
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
	SkillExpert       SkillLevel = "expert"
)

// AllSkillLevels returns all valid skill levels in ascending order
func AllSkillLevels() []SkillLevel {
	return []SkillLevel{
		SkillBeginner,
		SkillIntermediate,
		SkillAdvanced,
		SkillExpert,
	}
}

// IsValid checks if the skill level is valid
func (s SkillLevel) IsValid() bool {
	switch s {
	case SkillBeginner, SkillIntermediate, SkillAdvanced, SkillExpert:
		return true
	default:
		return false
	}
}

// Rank returns the ordinal of the skill level. Unknown levels rank as beginner.
func (s SkillLevel) Rank() int {
	for i, level := range AllSkillLevels() {
		if s == level {
			return i
		}
	}
	return 0
}

// AtLeast reports whether the skill level is at or above other
func (s SkillLevel) AtLeast(other SkillLevel) bool {
	return s.Rank() >= other.Rank()
}

// String returns the string representation of the skill level
func (s SkillLevel) String() string {
	return string(s)
}

// LearningStyle represents how a user prefers to absorb explanations
type LearningStyle string

const (
	LearningConceptual LearningStyle = "conceptual"
	LearningVisual     LearningStyle = "visual"
	LearningHandsOn    LearningStyle = "hands_on"
)

// IsValid checks if the learning style is valid
func (l LearningStyle) IsValid() bool {
	switch l {
	case LearningConceptual, LearningVisual, LearningHandsOn:
		return true
	default:
		return false
	}
}

// String returns the string representation of the learning style
func (l LearningStyle) String() string {
	return string(l)
}

// ExplanationDepth represents how detailed an explanation the user prefers
type ExplanationDepth string

const (
	DepthBrief    ExplanationDepth = "brief"
	DepthModerate ExplanationDepth = "moderate"
	DepthDeep     ExplanationDepth = "deep"
)

// IsValid checks if the explanation depth is valid
func (d ExplanationDepth) IsValid() bool {
	switch d {
	case DepthBrief, DepthModerate, DepthDeep:
		return true
	default:
		return false
	}
}

// RiskTolerance represents how much diagnostic risk a user accepts
type RiskTolerance string

const (
	RiskLow    RiskTolerance = "low"
	RiskMedium RiskTolerance = "medium"
	RiskHigh   RiskTolerance = "high"
)

// IsValid checks if the risk tolerance is valid
func (r RiskTolerance) IsValid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	default:
		return false
	}
}
