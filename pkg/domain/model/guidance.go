package model

import "github.com/mentor-lab/chiron/pkg/domain/types"

// GuidanceStep is one ordered step of mentor guidance. Every step names
// what to do, what success looks like, what to do on failure, and how to
// verify the outcome.
type GuidanceStep struct {
	StepNumber      int
	Action          string
	SuccessCriteria string
	FailureHandling string
	Verification    string
}

// MentorAction is the decision the mentor engine emits: ask more, explain,
// guide, or loop back to an earlier stage.
type MentorAction struct {
	Type      types.ActionType
	Content   string
	Questions []Question     // populated for ask
	Guidance  []GuidanceStep // populated for guide
	Reasoning string
}
