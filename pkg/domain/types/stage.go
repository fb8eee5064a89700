package types

import "fmt"

// Stage represents the current phase of a diagnostic session
type Stage string

const (
	StageObserve    Stage = "observe"
	StageBaseline   Stage = "baseline"
	StageQuestions  Stage = "questions"
	StagePainPoints Stage = "pain_points"
	StageFrame      Stage = "frame"
	StageGuide      Stage = "guide"
	StageComplete   Stage = "complete"
)

// AllStages returns all valid stages in their intended order
func AllStages() []Stage {
	return []Stage{
		StageObserve,
		StageBaseline,
		StageQuestions,
		StagePainPoints,
		StageFrame,
		StageGuide,
		StageComplete,
	}
}

// IsValid checks if the stage is valid
func (s Stage) IsValid() bool {
	switch s {
	case StageObserve,
		StageBaseline,
		StageQuestions,
		StagePainPoints,
		StageFrame,
		StageGuide,
		StageComplete:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the stage ends the session
func (s Stage) IsTerminal() bool {
	return s == StageComplete
}

// Order returns the position of the stage in the mentor loop.
// Returns -1 for invalid stages.
func (s Stage) Order() int {
	for i, stage := range AllStages() {
		if s == stage {
			return i
		}
	}
	return -1
}

// Before reports whether s comes before other in the mentor loop
func (s Stage) Before(other Stage) bool {
	return s.Order() < other.Order()
}

// String returns the string representation of the stage
func (s Stage) String() string {
	return string(s)
}

// ParseStage parses a string into a Stage
func ParseStage(s string) (Stage, error) {
	stage := Stage(s)
	if !stage.IsValid() {
		return "", fmt.Errorf("invalid stage: %s", s)
	}
	return stage, nil
}
