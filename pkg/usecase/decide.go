package usecase

import (
	"context"
	"fmt"

	"github.com/mentor-lab/chiron/pkg/domain/model"
	"github.com/mentor-lab/chiron/pkg/domain/types"
)

// Decide applies the mentor's priority-ordered decision table and is
// re-runnable at any point in a session's life:
//
//  1. no baseline: ask for the baseline
//  2. no problem frame: ask the generated diagnostic questions
//  3. otherwise: guide with ordered steps
//
// Ambiguity always resolves toward asking before guiding. Missing data is
// masked by the table, never an error; only an unknown session ID fails.
func (uc *SessionUseCase) Decide(ctx context.Context, id model.SessionID) (*model.MentorAction, error) {
	s, err := uc.getSession(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.Baseline == nil {
		return &model.MentorAction{
			Type:      types.ActionAsk,
			Content:   "Before diagnosing, establish the baseline: what still works, what does not, and what you have already tried.",
			Reasoning: "baseline incomplete",
		}, nil
	}

	if s.Frame == nil {
		questions := s.Questions
		if len(questions) == 0 {
			result := uc.classifier.Classify(s.Domain, s.Observation, s.Baseline)
			questions, err = uc.retrieval.CustomizedQuestions(ctx, s.UserID, s.Domain, result.Indicators)
			if err != nil {
				return nil, err
			}
		}
		return &model.MentorAction{
			Type:      types.ActionAsk,
			Content:   "Answer these to narrow down the problem type.",
			Questions: questions,
			Reasoning: "problem type unclear",
		}, nil
	}

	guidance := s.Guidance
	if len(guidance) == 0 {
		guidance, err = uc.buildGuidance(ctx, s)
		if err != nil {
			return nil, err
		}
		if _, err := uc.mutateSession(ctx, id, func(s *model.Session) error {
			s.Guidance = guidance
			return nil
		}); err != nil {
			return nil, err
		}
	}

	return &model.MentorAction{
		Type:      types.ActionGuide,
		Content:   fmt.Sprintf("Work through these %d steps in order.", len(guidance)),
		Guidance:  guidance,
		Reasoning: "diagnostic phases complete",
	}, nil
}

// buildGuidance turns the fused next-step recommendation into ordered
// guidance steps, preferring the user's own previously successful path
// over the domain's generic pattern.
func (uc *SessionUseCase) buildGuidance(ctx context.Context, s *model.Session) ([]model.GuidanceStep, error) {
	steps, err := uc.retrieval.RecommendedNextSteps(ctx, s.UserID, s.Domain, s.Frame.PrimaryType)
	if err != nil {
		return nil, err
	}

	path := steps.Preferred()
	if len(path) == 0 {
		path = []string{fallbackAction(s.Frame.RootCause)}
	}

	guidance := make([]model.GuidanceStep, 0, len(path))
	for i, action := range path {
		guidance = append(guidance, model.GuidanceStep{
			StepNumber:      i + 1,
			Action:          action,
			SuccessCriteria: "the reported symptom is narrowed or no longer reproduces",
			FailureHandling: "record what happened and continue with the next step",
			Verification:    "re-test the original symptom before moving on",
		})
	}
	return guidance, nil
}

// fallbackAction gives one generic first step when neither the user's
// history nor the domain module offers a solution path.
func fallbackAction(rootCause types.RootCause) string {
	switch rootCause {
	case types.RootCauseErrorHandling:
		return "Reproduce the failure and capture the exact error output"
	case types.RootCauseResources:
		return "Measure where the time or resources are spent before changing anything"
	case types.RootCauseLogicFault:
		return "Isolate the smallest input that still shows the wrong behavior"
	default:
		return "Gather more evidence: note what changed last before the problem appeared"
	}
}
