package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/mentor-lab/chiron/pkg/domain/types"
)

// ProblemFrame is the diagnosis: what the problem is, what it is not,
// why, and with how much confidence.
type ProblemFrame struct {
	PrimaryType    types.ProblemType
	SecondaryTypes []types.ProblemType
	IsntTypes      []types.ProblemType // types explicitly ruled out
	RootCause      types.RootCause
	DomainRules    []string
	Reasoning      string
	Confidence     float64 // [0, 1], derived from indicator strength
	UserConfirmed  bool
}

// Validate checks the frame's structural invariants
func (f *ProblemFrame) Validate() error {
	if f.PrimaryType == "" {
		return goerr.New("problem frame requires a primary type")
	}
	if f.Confidence < 0 || f.Confidence > 1 {
		return goerr.New("confidence out of range", goerr.V("confidence", f.Confidence))
	}
	return nil
}

// RulesOut reports whether the frame explicitly excludes the given type
func (f *ProblemFrame) RulesOut(p types.ProblemType) bool {
	for _, t := range f.IsntTypes {
		if t == p {
			return true
		}
	}
	return false
}
