package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mentor-lab/chiron/pkg/domain/interfaces"
	"github.com/mentor-lab/chiron/pkg/domain/model"
	"github.com/mentor-lab/chiron/pkg/domain/types"
	"github.com/mentor-lab/chiron/pkg/service/classifier"
	modelsvc "github.com/mentor-lab/chiron/pkg/service/model"
	"github.com/mentor-lab/chiron/pkg/service/retrieval"
	"github.com/mentor-lab/chiron/pkg/utils/async"
	"github.com/mentor-lab/chiron/pkg/utils/errutil"
	"github.com/mentor-lab/chiron/pkg/utils/logging"
)

// SessionUseCase orchestrates the six-stage diagnostic mentor loop. All
// session mutation goes through the repository's Mutate so concurrent
// stage transitions against one session are serialized.
type SessionUseCase struct {
	repo       interfaces.Repository
	classifier *classifier.Classifier
	retrieval  *retrieval.Service
	models     *modelsvc.Router
}

func NewSessionUseCase(repo interfaces.Repository, cls *classifier.Classifier, ret *retrieval.Service, models *modelsvc.Router) *SessionUseCase {
	return &SessionUseCase{
		repo:       repo,
		classifier: cls,
		retrieval:  ret,
		models:     models,
	}
}

// Create starts a new diagnostic session in the observe stage. The
// initial problem description, when given, becomes the first observation
// but never advances the stage on its own: sufficiency also needs
// evidence.
func (uc *SessionUseCase) Create(ctx context.Context, userID, threadID, domain, description string) (*model.Session, error) {
	if userID == "" {
		return nil, goerr.New("session requires a user ID")
	}
	if domain == "" {
		return nil, goerr.New("session requires a domain", goerr.V(UserIDKey, userID))
	}

	session := model.NewSession(userID, threadID, domain)
	session.Observation.Description = description

	created, err := uc.repo.Session().Create(ctx, session)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create session", goerr.V(UserIDKey, userID))
	}

	logging.From(ctx).Info("session created",
		"session_id", created.ID,
		"user_id", userID,
		"domain", domain)
	return created, nil
}

// Get retrieves a session by ID
func (uc *SessionUseCase) Get(ctx context.Context, id model.SessionID) (*model.Session, error) {
	return uc.getSession(ctx, id)
}

// List retrieves all sessions of a user, newest first
func (uc *SessionUseCase) List(ctx context.Context, userID string) ([]*model.Session, error) {
	sessions, err := uc.repo.Session().ListByUser(ctx, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list sessions", goerr.V(UserIDKey, userID))
	}
	return sessions, nil
}

// RecordObservation stores the observation and auto-advances to the
// baseline stage only when the observation is sufficient: a description
// above the minimum length plus at least one evidence item. Insufficient
// observations keep the session in observe so the user can resubmit.
func (uc *SessionUseCase) RecordObservation(ctx context.Context, id model.SessionID, observation model.Observation) (*model.Session, error) {
	return uc.mutateSession(ctx, id, func(s *model.Session) error {
		s.Observation = observation
		if observation.Sufficient() {
			s.Advance(types.StageBaseline)
		}
		return nil
	})
}

// RecordBaseline stores the baseline, enriched with constraints the
// classifier derives from it, and unconditionally advances to questions.
func (uc *SessionUseCase) RecordBaseline(ctx context.Context, id model.SessionID, baseline model.Baseline) (*model.Session, error) {
	for _, derived := range uc.classifier.ExtractConstraints(&baseline) {
		if !hasConstraint(baseline.Constraints, derived) {
			baseline.Constraints = append(baseline.Constraints, derived)
		}
	}

	return uc.mutateSession(ctx, id, func(s *model.Session) error {
		s.Baseline = &baseline
		s.Advance(types.StageQuestions)
		return nil
	})
}

func hasConstraint(constraints []model.ConstraintInfo, c model.ConstraintInfo) bool {
	for _, existing := range constraints {
		if existing.Type == c.Type && existing.Value == c.Value {
			return true
		}
	}
	return false
}

// GenerateQuestions produces up to three diagnostic questions from the
// domain tree, narrowed by the classifier's indicators and the user's
// skill level. The user's profile is snapshotted onto the session so the
// rest of the loop sees a consistent view, and the session advances to
// pain_points.
func (uc *SessionUseCase) GenerateQuestions(ctx context.Context, id model.SessionID) ([]model.Question, error) {
	s, err := uc.getSession(ctx, id)
	if err != nil {
		return nil, err
	}

	result := uc.classifier.Classify(s.Domain, s.Observation, s.Baseline)
	questions, err := uc.retrieval.CustomizedQuestions(ctx, s.UserID, s.Domain, result.Indicators)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to customize questions", goerr.V(SessionIDKey, string(id)))
	}

	profile, err := uc.retrieval.BackwardContext(ctx, s.UserID, retrieval.BackwardOptions{
		RelatedDomains: []string{s.Domain},
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load user profile", goerr.V(UserIDKey, s.UserID))
	}

	if _, err := uc.mutateSession(ctx, id, func(s *model.Session) error {
		s.Profile = profile
		s.Questions = questions
		s.Advance(types.StagePainPoints)
		return nil
	}); err != nil {
		return nil, err
	}
	return questions, nil
}

// Answer records the user's answer to a generated question and returns
// the next mentor action.
func (uc *SessionUseCase) Answer(ctx context.Context, id model.SessionID, questionID, answer string) (*model.MentorAction, error) {
	if _, err := uc.mutateSession(ctx, id, func(s *model.Session) error {
		if !hasQuestion(s.Questions, questionID) {
			return goerr.New("question does not belong to session",
				goerr.V(SessionIDKey, string(id)), goerr.V("question_id", questionID))
		}
		if s.Answers == nil {
			s.Answers = make(map[string]string)
		}
		s.Answers[questionID] = answer
		return nil
	}); err != nil {
		return nil, err
	}

	return uc.Decide(ctx, id)
}

func hasQuestion(questions []model.Question, id string) bool {
	for _, q := range questions {
		if q.ID == id {
			return true
		}
	}
	return false
}

var (
	blockerPattern = regexp.MustCompile(`(?i)stuck|blocked|can't|cannot|unable|fail`)
	urgentPattern  = regexp.MustCompile(`(?i)stuck|blocked`)
)

// IdentifyPainPoints merges the given answers into the session, derives
// pain points from the answers, baseline constraints, and misconception
// signals, and advances to the frame stage.
func (uc *SessionUseCase) IdentifyPainPoints(ctx context.Context, id model.SessionID, answers map[string]string) ([]model.PainPoint, error) {
	var painPoints []model.PainPoint
	if _, err := uc.mutateSession(ctx, id, func(s *model.Session) error {
		if s.Answers == nil {
			s.Answers = make(map[string]string)
		}
		for questionID, answer := range answers {
			s.Answers[questionID] = answer
		}
		painPoints = uc.derivePainPoints(s)
		s.PainPoints = painPoints
		s.Advance(types.StageFrame)
		return nil
	}); err != nil {
		return nil, err
	}
	return painPoints, nil
}

// derivePainPoints walks questions in presentation order so the result is
// deterministic regardless of answer-map iteration order.
func (uc *SessionUseCase) derivePainPoints(s *model.Session) []model.PainPoint {
	var points []model.PainPoint

	for _, q := range s.Questions {
		answer, ok := s.Answers[q.ID]
		if !ok || !blockerPattern.MatchString(answer) {
			continue
		}
		severity := types.SeverityMedium
		if urgentPattern.MatchString(answer) {
			severity = types.SeverityHigh
		}
		points = append(points, model.PainPoint{
			ID:          model.NewPainPointID(),
			Category:    "blocker",
			Description: answer,
			Severity:    severity,
			Identified:  true,
		})
	}

	if s.Baseline != nil {
		for _, c := range s.Baseline.Constraints {
			if c.Severity != types.SeverityHigh {
				continue
			}
			points = append(points, model.PainPoint{
				ID:          model.NewPainPointID(),
				Category:    "constraint",
				Description: c.Value,
				Severity:    c.Severity,
				Identified:  true,
			})
		}
	}

	for _, m := range uc.classifier.DetectMisconceptions(s.Observation, s.Baseline) {
		points = append(points, model.PainPoint{
			ID:          model.NewPainPointID(),
			Category:    "assumption",
			Description: m,
			Severity:    types.SeverityMedium,
			Identified:  true,
		})
	}

	return points
}

// FrameProblem classifies the session's evidence into a problem frame and
// advances to the guide stage. Called before a baseline exists, it still
// returns a frame computed from the observation alone, with accordingly
// low confidence, but does not persist it: a stored frame always implies
// a stored baseline.
func (uc *SessionUseCase) FrameProblem(ctx context.Context, id model.SessionID) (*model.ProblemFrame, error) {
	s, err := uc.getSession(ctx, id)
	if err != nil {
		return nil, err
	}

	result := uc.classifier.Classify(s.Domain, s.Observation, s.Baseline)
	module := uc.retrieval.ForwardContext(ctx, s.Domain)

	frame := &model.ProblemFrame{
		PrimaryType:    result.ProblemType,
		SecondaryTypes: result.SecondaryTypes,
		IsntTypes:      ruledOutTypes(result),
		RootCause:      result.RootCause,
		DomainRules:    module.Standards,
		Reasoning:      uc.frameReasoning(ctx, s, result),
		Confidence:     result.Confidence,
	}
	if err := frame.Validate(); err != nil {
		return nil, err
	}

	if s.Baseline == nil {
		logging.From(ctx).Debug("framing without baseline, frame not persisted",
			"session_id", id, "confidence", frame.Confidence)
		return frame, nil
	}

	if _, err := uc.mutateSession(ctx, id, func(s *model.Session) error {
		s.Frame = frame
		s.Advance(types.StageGuide)
		return nil
	}); err != nil {
		return nil, err
	}
	return frame, nil
}

// ruledOutTypes returns the concrete problem types whose indicator
// families stayed silent while others fired. An unknown classification
// rules nothing out.
func ruledOutTypes(result classifier.Result) []types.ProblemType {
	if result.ProblemType == types.ProblemUnknown {
		return nil
	}

	in := map[types.ProblemType]bool{result.ProblemType: true}
	for _, t := range result.SecondaryTypes {
		in[t] = true
	}

	var out []types.ProblemType
	for _, t := range []types.ProblemType{types.ProblemCrashError, types.ProblemPerformance, types.ProblemBrokenFeature} {
		if !in[t] {
			out = append(out, t)
		}
	}
	return out
}

// frameReasoning produces the frame's reasoning text. When a reasoning
// backend is available it rewrites the deterministic summary; only
// structured classification fields go into the prompt, never raw file
// content. On any backend failure the deterministic text stands.
func (uc *SessionUseCase) frameReasoning(ctx context.Context, s *model.Session, result classifier.Result) string {
	summary := fmt.Sprintf("Classified as %s (root cause category: %s) from %d indicators: %s.",
		result.ProblemType, result.RootCause, len(result.Indicators), joinIndicators(result.Indicators))
	if s.Baseline == nil {
		summary += " No baseline was available; confidence reflects observation text only."
	}

	reasoning, ok := uc.models.Reasoning()
	if !ok {
		return summary
	}

	prompt := fmt.Sprintf(
		"Rewrite the following diagnostic summary as two plain sentences for the user. Do not add facts.\n\n%s",
		summary)
	text, err := reasoning.Reason(ctx, prompt)
	if err != nil {
		errutil.Handle(ctx, err, "reasoning backend failed, using deterministic summary")
		return summary
	}
	return strings.TrimSpace(text)
}

func joinIndicators(indicators []types.Indicator) string {
	if len(indicators) == 0 {
		return "none"
	}
	names := make([]string, 0, len(indicators))
	for _, ind := range indicators {
		names = append(names, ind.String())
	}
	return strings.Join(names, ", ")
}

// LoopBack deliberately re-enters a prior stage. Completed sessions and
// forward targets are rejected by the session model itself.
func (uc *SessionUseCase) LoopBack(ctx context.Context, id model.SessionID, stage types.Stage) (*model.Session, error) {
	if !stage.IsValid() {
		return nil, goerr.New("invalid loop-back stage", goerr.V("stage", string(stage)))
	}
	return uc.mutateSession(ctx, id, func(s *model.Session) error {
		s.LoopBack(stage)
		return nil
	})
}

// Complete moves the session to the terminal stage and stamps the
// completion time. It is idempotent for already-complete sessions and
// rejects sessions missing a baseline or frame. The user's profile gains
// a problem snapshot asynchronously; the mentor loop never waits on it.
func (uc *SessionUseCase) Complete(ctx context.Context, id model.SessionID) (*model.Session, error) {
	var alreadyComplete bool
	completed, err := uc.mutateSession(ctx, id, func(s *model.Session) error {
		if s.IsComplete() {
			alreadyComplete = true
			return nil
		}
		if !s.CanComplete() {
			return goerr.New("session cannot complete without baseline and frame",
				goerr.V(SessionIDKey, string(id)), goerr.V("stage", s.Stage.String()))
		}
		now := time.Now().UTC()
		s.CompletedAt = &now
		s.Advance(types.StageComplete)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if alreadyComplete {
		return completed, nil
	}

	snapshot := model.ProblemSnapshot{
		SessionID:    completed.ID,
		Domain:       completed.Domain,
		ProblemType:  completed.Frame.PrimaryType,
		Observation:  completed.Observation.Description,
		SolutionPath: solutionPath(completed.Guidance),
		Resolved:     completed.Feedback != nil && completed.Feedback.Resolved,
		OccurredAt:   *completed.CompletedAt,
	}
	userID := completed.UserID
	async.Dispatch(ctx, func(ctx context.Context) error {
		return uc.retrieval.RecordProblemSnapshot(ctx, userID, snapshot)
	})

	return completed, nil
}

func solutionPath(guidance []model.GuidanceStep) []string {
	path := make([]string, 0, len(guidance))
	for _, step := range guidance {
		path = append(path, step.Action)
	}
	return path
}

// RecordFeedback stores the user's post-hoc assessment. A resolved
// outcome with a frame also appends a fact to the recall ledger so future
// backward retrieval can surface what worked.
func (uc *SessionUseCase) RecordFeedback(ctx context.Context, id model.SessionID, resolved bool, comment string) (*model.Session, error) {
	updated, err := uc.mutateSession(ctx, id, func(s *model.Session) error {
		s.Feedback = &model.SessionFeedback{
			Resolved: resolved,
			Comment:  comment,
			GivenAt:  time.Now().UTC(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if resolved && updated.Frame != nil {
		patch := &model.KnowledgePatch{
			Content: fmt.Sprintf("Resolved %s problem in %s: %s",
				updated.Frame.PrimaryType, updated.Domain, updated.Observation.Description),
			Type: types.PatchFact,
		}
		userID := updated.UserID
		async.Dispatch(ctx, func(ctx context.Context) error {
			_, err := uc.repo.Recall().Append(ctx, userID, patch)
			return err
		})
	}

	return updated, nil
}

// Summary renders a compact human-readable summary of the session
func (uc *SessionUseCase) Summary(ctx context.Context, id model.SessionID) (string, error) {
	s, err := uc.getSession(ctx, id)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Session %s (%s) in stage %s\n", s.ID, s.Domain, s.Stage)
	if s.Observation.Description != "" {
		fmt.Fprintf(&b, "Observation: %s\n", s.Observation.Description)
	}
	if s.Baseline != nil {
		fmt.Fprintf(&b, "Baseline: %d working, %d failing, %d attempts\n",
			len(s.Baseline.WhatWorks), len(s.Baseline.WhatDoesntWork), len(s.Baseline.PreviousAttempts))
	}
	if len(s.PainPoints) > 0 {
		fmt.Fprintf(&b, "Pain points: %d identified\n", len(s.PainPoints))
	}
	if s.Frame != nil {
		fmt.Fprintf(&b, "Frame: %s (confidence %.2f)\n", s.Frame.PrimaryType, s.Frame.Confidence)
	}
	if s.CompletedAt != nil {
		fmt.Fprintf(&b, "Completed at %s\n", s.CompletedAt.Format(time.RFC3339))
	}
	return b.String(), nil
}

func (uc *SessionUseCase) getSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	s, err := uc.repo.Session().Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(ErrSessionNotFound, "no session for id", goerr.V(SessionIDKey, string(id)))
		}
		return nil, goerr.Wrap(err, "failed to load session", goerr.V(SessionIDKey, string(id)))
	}
	return s, nil
}

func (uc *SessionUseCase) mutateSession(ctx context.Context, id model.SessionID, fn func(*model.Session) error) (*model.Session, error) {
	s, err := uc.repo.Session().Mutate(ctx, id, fn)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(ErrSessionNotFound, "no session for id", goerr.V(SessionIDKey, string(id)))
		}
		return nil, err
	}
	return s, nil
}
