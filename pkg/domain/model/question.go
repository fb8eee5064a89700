package model

import (
	"github.com/google/uuid"
	"github.com/mentor-lab/chiron/pkg/domain/types"
)

// MaxQuestionsPerRound caps how many questions the mentor asks at once.
// The cap bounds cognitive load on the user, not throughput.
const MaxQuestionsPerRound = 3

// Question is a single diagnostic question presented to the user
type Question struct {
	ID            string
	Text          string
	Priority      types.QuestionPriority
	AnswerOptions []string
	Narrows       []types.ProblemType // problem types this question discriminates
	MinSkill      types.SkillLevel    // hidden below this skill level
}

// NewQuestionID generates a new question identifier
func NewQuestionID() string {
	return uuid.New().String()
}

// PainPoint is a blocker or friction source derived from the user's answers
type PainPoint struct {
	ID          string
	Category    string // "blocker", "constraint", "assumption", ...
	Description string
	Severity    types.Severity
	Identified  bool
}

// NewPainPointID generates a new pain point identifier
func NewPainPointID() string {
	return uuid.New().String()
}
