package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mentor-lab/chiron/pkg/domain/model"
	"github.com/mentor-lab/chiron/pkg/domain/types"
	"github.com/mentor-lab/chiron/pkg/utils/errutil"
)

// sessionStatus is the envelope every session endpoint carries so the
// caller can render progress without re-deriving the state machine.
type sessionStatus struct {
	SessionID  string `json:"session_id"`
	UserID     string `json:"user_id"`
	Domain     string `json:"domain"`
	Stage      string `json:"stage"`
	Status     string `json:"status"`
	NextStage  string `json:"next_stage,omitempty"`
	NextPrompt string `json:"next_prompt,omitempty"`
}

func statusOfSession(s *model.Session) sessionStatus {
	status := "in_progress"
	if s.IsComplete() {
		status = "complete"
	}
	return sessionStatus{
		SessionID:  string(s.ID),
		UserID:     s.UserID,
		Domain:     s.Domain,
		Stage:      s.Stage.String(),
		Status:     status,
		NextStage:  nextStage(s.Stage),
		NextPrompt: nextPrompt(s.Stage),
	}
}

func nextStage(stage types.Stage) string {
	stages := types.AllStages()
	for i, candidate := range stages {
		if candidate == stage && i+1 < len(stages) {
			return stages[i+1].String()
		}
	}
	return ""
}

func nextPrompt(stage types.Stage) string {
	switch stage {
	case types.StageObserve:
		return "Describe the problem and attach at least one piece of evidence."
	case types.StageBaseline:
		return "List what still works, what does not, and what you already tried."
	case types.StageQuestions:
		return "Request the diagnostic questions."
	case types.StagePainPoints:
		return "Answer the questions so blockers can be identified."
	case types.StageFrame:
		return "Request the problem frame."
	case types.StageGuide:
		return "Follow the guidance steps, then complete the session."
	default:
		return ""
	}
}

type questionResponse struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Priority      string   `json:"priority"`
	AnswerOptions []string `json:"answer_options,omitempty"`
}

func toQuestionResponses(questions []model.Question) []questionResponse {
	out := make([]questionResponse, len(questions))
	for i, q := range questions {
		out[i] = questionResponse{
			ID:            q.ID,
			Text:          q.Text,
			Priority:      string(q.Priority),
			AnswerOptions: q.AnswerOptions,
		}
	}
	return out
}

type guidanceResponse struct {
	StepNumber      int    `json:"step_number"`
	Action          string `json:"action"`
	SuccessCriteria string `json:"success_criteria"`
	FailureHandling string `json:"failure_handling"`
	Verification    string `json:"verification"`
}

func toGuidanceResponses(steps []model.GuidanceStep) []guidanceResponse {
	out := make([]guidanceResponse, len(steps))
	for i, step := range steps {
		out[i] = guidanceResponse{
			StepNumber:      step.StepNumber,
			Action:          step.Action,
			SuccessCriteria: step.SuccessCriteria,
			FailureHandling: step.FailureHandling,
			Verification:    step.Verification,
		}
	}
	return out
}

type actionResponse struct {
	Type      string             `json:"type"`
	Content   string             `json:"content"`
	Reasoning string             `json:"reasoning"`
	Questions []questionResponse `json:"questions,omitempty"`
	Guidance  []guidanceResponse `json:"guidance,omitempty"`
}

func toActionResponse(action *model.MentorAction) actionResponse {
	resp := actionResponse{
		Type:      action.Type.String(),
		Content:   action.Content,
		Reasoning: action.Reasoning,
	}
	if len(action.Questions) > 0 {
		resp.Questions = toQuestionResponses(action.Questions)
	}
	if len(action.Guidance) > 0 {
		resp.Guidance = toGuidanceResponses(action.Guidance)
	}
	return resp
}

type frameResponse struct {
	PrimaryType    string   `json:"primary_type"`
	SecondaryTypes []string `json:"secondary_types,omitempty"`
	IsntTypes      []string `json:"isnt_types,omitempty"`
	RootCause      string   `json:"root_cause"`
	DomainRules    []string `json:"domain_rules,omitempty"`
	Reasoning      string   `json:"reasoning"`
	Confidence     float64  `json:"confidence"`
}

func toFrameResponse(frame *model.ProblemFrame) *frameResponse {
	if frame == nil {
		return nil
	}
	resp := &frameResponse{
		PrimaryType: frame.PrimaryType.String(),
		RootCause:   frame.RootCause.String(),
		Reasoning:   frame.Reasoning,
		Confidence:  frame.Confidence,
		DomainRules: frame.DomainRules,
	}
	for _, t := range frame.SecondaryTypes {
		resp.SecondaryTypes = append(resp.SecondaryTypes, t.String())
	}
	for _, t := range frame.IsntTypes {
		resp.IsntTypes = append(resp.IsntTypes, t.String())
	}
	return resp
}

func sessionID(r *http.Request) model.SessionID {
	return model.SessionID(chi.URLParam(r, "sessionID"))
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		UserID      string `json:"user_id"`
		ThreadID    string `json:"thread_id"`
		Domain      string `json:"domain"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.Domain == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("user_id and domain are required"), http.StatusBadRequest)
		return
	}

	session, err := s.uc.Session.Create(ctx, req.UserID, req.ThreadID, req.Domain, req.Description)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, statusOfSession(session))
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("user_id query parameter is required"), http.StatusBadRequest)
		return
	}

	sessions, err := s.uc.Session.List(ctx, userID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	resp := struct {
		Sessions []sessionStatus `json:"sessions"`
	}{Sessions: make([]sessionStatus, len(sessions))}
	for i, session := range sessions {
		resp.Sessions[i] = statusOfSession(session)
	}
	respondJSON(ctx, w, http.StatusOK, resp)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, err := s.uc.Session.Get(ctx, sessionID(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	resp := struct {
		sessionStatus
		Frame       *frameResponse `json:"frame,omitempty"`
		CompletedAt *time.Time     `json:"completed_at,omitempty"`
	}{
		sessionStatus: statusOfSession(session),
		Frame:         toFrameResponse(session.Frame),
		CompletedAt:   session.CompletedAt,
	}
	respondJSON(ctx, w, http.StatusOK, resp)
}

func (s *Server) sessionSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	summary, err := s.uc.Session.Summary(ctx, sessionID(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]string{"summary": summary})
}

func (s *Server) recordObservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		Description string `json:"description"`
		Evidence    []struct {
			Kind string `json:"kind"`
			Ref  string `json:"ref"`
		} `json:"evidence"`
		Tags []string `json:"tags"`
	}
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	observation := model.Observation{
		Description: req.Description,
		Tags:        req.Tags,
	}
	for _, e := range req.Evidence {
		observation.Evidence = append(observation.Evidence, model.EvidenceItem{Kind: e.Kind, Ref: e.Ref})
	}

	session, err := s.uc.Session.RecordObservation(ctx, sessionID(r), observation)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	resp := struct {
		sessionStatus
		Sufficient bool `json:"sufficient"`
	}{
		sessionStatus: statusOfSession(session),
		Sufficient:    session.Observation.Sufficient(),
	}
	respondJSON(ctx, w, http.StatusOK, resp)
}

func (s *Server) recordBaseline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		WhatWorks        []string `json:"what_works"`
		WhatDoesntWork   []string `json:"what_doesnt_work"`
		PreviousAttempts []string `json:"previous_attempts"`
		Standards        []string `json:"standards"`
		Constraints      []struct {
			Type     string `json:"type"`
			Value    string `json:"value"`
			Severity string `json:"severity"`
		} `json:"constraints"`
	}
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	baseline := model.Baseline{
		WhatWorks:        req.WhatWorks,
		WhatDoesntWork:   req.WhatDoesntWork,
		PreviousAttempts: req.PreviousAttempts,
		Standards:        req.Standards,
	}
	for _, c := range req.Constraints {
		severity, err := types.ParseSeverity(c.Severity)
		if err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "invalid constraint severity"), http.StatusBadRequest)
			return
		}
		baseline.Constraints = append(baseline.Constraints, model.ConstraintInfo{
			Type:     types.ConstraintType(c.Type),
			Value:    c.Value,
			Severity: severity,
		})
	}

	session, err := s.uc.Session.RecordBaseline(ctx, sessionID(r), baseline)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, statusOfSession(session))
}

func (s *Server) generateQuestions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := sessionID(r)
	questions, err := s.uc.Session.GenerateQuestions(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	session, err := s.uc.Session.Get(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	resp := struct {
		sessionStatus
		Questions []questionResponse `json:"questions"`
	}{
		sessionStatus: statusOfSession(session),
		Questions:     toQuestionResponses(questions),
	}
	respondJSON(ctx, w, http.StatusOK, resp)
}

func (s *Server) answerQuestion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		QuestionID string `json:"question_id"`
		Answer     string `json:"answer"`
	}
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	id := sessionID(r)
	action, err := s.uc.Session.Answer(ctx, id, req.QuestionID, req.Answer)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	session, err := s.uc.Session.Get(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	resp := struct {
		sessionStatus
		Action actionResponse `json:"action"`
	}{
		sessionStatus: statusOfSession(session),
		Action:        toActionResponse(action),
	}
	respondJSON(ctx, w, http.StatusOK, resp)
}

func (s *Server) identifyPainPoints(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		Answers map[string]string `json:"answers"`
	}
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	id := sessionID(r)
	points, err := s.uc.Session.IdentifyPainPoints(ctx, id, req.Answers)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	session, err := s.uc.Session.Get(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	type painPointResponse struct {
		ID          string `json:"id"`
		Category    string `json:"category"`
		Description string `json:"description"`
		Severity    string `json:"severity"`
	}
	resp := struct {
		sessionStatus
		PainPoints []painPointResponse `json:"pain_points"`
	}{sessionStatus: statusOfSession(session)}
	for _, p := range points {
		resp.PainPoints = append(resp.PainPoints, painPointResponse{
			ID:          p.ID,
			Category:    p.Category,
			Description: p.Description,
			Severity:    p.Severity.String(),
		})
	}
	respondJSON(ctx, w, http.StatusOK, resp)
}

func (s *Server) frameProblem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := sessionID(r)
	frame, err := s.uc.Session.FrameProblem(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	session, err := s.uc.Session.Get(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	resp := struct {
		sessionStatus
		Frame *frameResponse `json:"frame"`
	}{
		sessionStatus: statusOfSession(session),
		Frame:         toFrameResponse(frame),
	}
	respondJSON(ctx, w, http.StatusOK, resp)
}

func (s *Server) getGuidance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	action, err := s.uc.Session.Decide(ctx, sessionID(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if action.Type != types.ActionGuide {
		respondJSON(ctx, w, http.StatusConflict, map[string]string{
			"error":     "session is not ready for guidance",
			"reasoning": action.Reasoning,
		})
		return
	}
	respondJSON(ctx, w, http.StatusOK, struct {
		Guidance []guidanceResponse `json:"guidance"`
	}{Guidance: toGuidanceResponses(action.Guidance)})
}

func (s *Server) decideAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := sessionID(r)
	action, err := s.uc.Session.Decide(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	session, err := s.uc.Session.Get(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	resp := struct {
		sessionStatus
		Action actionResponse `json:"action"`
	}{
		sessionStatus: statusOfSession(session),
		Action:        toActionResponse(action),
	}
	respondJSON(ctx, w, http.StatusOK, resp)
}

func (s *Server) loopBack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		Stage string `json:"stage"`
	}
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}
	stage, err := types.ParseStage(req.Stage)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "invalid stage"), http.StatusBadRequest)
		return
	}

	session, err := s.uc.Session.LoopBack(ctx, sessionID(r), stage)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, statusOfSession(session))
}

func (s *Server) completeSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, err := s.uc.Session.Complete(ctx, sessionID(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	resp := struct {
		sessionStatus
		CompletedAt *time.Time `json:"completed_at"`
	}{
		sessionStatus: statusOfSession(session),
		CompletedAt:   session.CompletedAt,
	}
	respondJSON(ctx, w, http.StatusOK, resp)
}

func (s *Server) recordFeedback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		Resolved bool   `json:"resolved"`
		Comment  string `json:"comment"`
	}
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	session, err := s.uc.Session.RecordFeedback(ctx, sessionID(r), req.Resolved, req.Comment)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, statusOfSession(session))
}

func (s *Server) listDomains(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusOK, struct {
		Domains []string `json:"domains"`
	}{Domains: s.uc.Domains()})
}
