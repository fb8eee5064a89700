package retrieval

import (
	"context"
	"sort"

	"github.com/mentor-lab/chiron/pkg/domain/model"
	"github.com/mentor-lab/chiron/pkg/domain/types"
	"golang.org/x/sync/errgroup"
)

// CustomizedQuestions fuses both retrieval directions into at most
// MaxQuestionsPerRound diagnostic questions: the domain tree supplies the
// base questions, the profile's skill level filters out questions too
// advanced for the user, the classifier's indicators pull questions that
// discriminate the indicated problem types to the front, and the profile's
// learning style breaks the remaining ties.
func (s *Service) CustomizedQuestions(ctx context.Context, userID, domain string, indicators []types.Indicator) ([]model.Question, error) {
	profile, module, err := s.fuse(ctx, userID, domain)
	if err != nil {
		return nil, err
	}

	if module.DiagnosticTree == nil {
		return nil, nil
	}

	skill := profile.SkillIn(domain)
	style := profile.LearningStyle
	indicated := indicatedTypes(indicators)

	var questions []model.Question
	for _, q := range module.DiagnosticTree.Questions() {
		if q.MinSkill != "" && !skill.AtLeast(q.MinSkill) {
			continue
		}
		questions = append(questions, q)
	}

	sort.SliceStable(questions, func(i, j int) bool {
		ni, nj := narrowsIndicated(questions[i], indicated), narrowsIndicated(questions[j], indicated)
		if ni != nj {
			return ni
		}
		pi, pj := priorityRank(questions[i].Priority), priorityRank(questions[j].Priority)
		if pi != pj {
			return pi < pj
		}
		return styleRank(questions[i], style) < styleRank(questions[j], style)
	})

	if len(questions) > model.MaxQuestionsPerRound {
		questions = questions[:model.MaxQuestionsPerRound]
	}
	return questions, nil
}

// indicatedTypes maps fired indicators to the problem types they suggest,
// mirroring the classifier's priority table.
func indicatedTypes(indicators []types.Indicator) map[types.ProblemType]bool {
	has := make(map[types.Indicator]bool, len(indicators))
	for _, ind := range indicators {
		has[ind] = true
	}

	indicated := make(map[types.ProblemType]bool)
	if has[types.IndicatorHasError] && has[types.IndicatorSystemFailure] {
		indicated[types.ProblemCrashError] = true
	}
	if has[types.IndicatorPerformance] {
		indicated[types.ProblemPerformance] = true
	}
	if has[types.IndicatorBrokenFunction] {
		indicated[types.ProblemBrokenFeature] = true
	}
	return indicated
}

func narrowsIndicated(q model.Question, indicated map[types.ProblemType]bool) bool {
	for _, p := range q.Narrows {
		if indicated[p] {
			return true
		}
	}
	return false
}

// styleRank breaks priority ties by learning style. Hands-on learners get
// questions with concrete answer options first, since those read as "try
// this and tell me what happened". Other styles keep the tree order.
func styleRank(q model.Question, style types.LearningStyle) int {
	if style != types.LearningHandsOn {
		return 0
	}
	if len(q.AnswerOptions) > 0 {
		return 0
	}
	return 1
}

func priorityRank(p types.QuestionPriority) int {
	switch p {
	case types.PriorityPrimary:
		return 0
	case types.PrioritySecondary:
		return 1
	case types.PriorityFollowUp:
		return 2
	default:
		return 3
	}
}

// NextSteps is the fused recommendation for a framed problem
type NextSteps struct {
	SuccessPath      []string // the user's own previously-successful path
	RecommendedPath  []string // the domain's generic pattern
	AlternativePaths [][]string
}

// Preferred returns the path to guide with: the user's own successful
// path when one exists, else the domain's recommended pattern.
func (n NextSteps) Preferred() []string {
	if len(n.SuccessPath) > 0 {
		return n.SuccessPath
	}
	return n.RecommendedPath
}

// RecommendedNextSteps fuses the user's history of similar problems with
// the domain's solution patterns for the problem type.
func (s *Service) RecommendedNextSteps(ctx context.Context, userID, domain string, problemType types.ProblemType) (*NextSteps, error) {
	var (
		similar []model.ProblemSnapshot
		module  *model.DomainModule
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		snaps, err := s.SimilarPastProblems(ctx, userID, domain, problemType)
		if err != nil {
			return err
		}
		similar = snaps
		return nil
	})
	eg.Go(func() error {
		module = s.ForwardContext(ctx, domain)
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	steps := &NextSteps{}
	for _, snap := range similar {
		if !snap.Resolved || len(snap.SolutionPath) == 0 {
			continue
		}
		if len(steps.SuccessPath) == 0 {
			steps.SuccessPath = snap.SolutionPath
		} else {
			steps.AlternativePaths = append(steps.AlternativePaths, snap.SolutionPath)
		}
	}

	if def, ok := module.TypeDef(problemType); ok {
		steps.RecommendedPath = def.SolutionPatterns
	}

	return steps, nil
}
