package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/mentor-lab/chiron/pkg/domain/types"
)

// SessionID is a UUID-based identifier for DiagnosticSession
type SessionID string

// NewSessionID generates a new UUID v7 SessionID.
// V7 keeps session IDs time-sortable for listing.
func NewSessionID() SessionID {
	return SessionID(uuid.Must(uuid.NewV7()).String())
}

// MinObservationLength is the minimum description length for an
// observation to count as sufficient evidence to leave the observe stage.
const MinObservationLength = 20

// EvidenceItem references a piece of evidence attached to an observation.
// It carries a reference (path or URL), never raw bytes.
type EvidenceItem struct {
	Kind string // "file", "image", "log", ...
	Ref  string
}

// Observation is the user's free-text description of the problem plus
// attached evidence references and tags extracted from them.
type Observation struct {
	Description string
	Evidence    []EvidenceItem
	Tags        []string
	Metadata    map[string]string
}

// Sufficient reports whether the observation carries enough signal to
// advance past the observe stage: a description above the minimum length
// and at least one evidence item.
func (o Observation) Sufficient() bool {
	return len(o.Description) > MinObservationLength && len(o.Evidence) > 0
}

// ConstraintInfo describes a single constraint the user operates under
type ConstraintInfo struct {
	Type     types.ConstraintType
	Value    string
	Severity types.Severity
}

// Baseline captures the user's starting context: what works, what does
// not, what has already been tried, and the constraints on any solution.
type Baseline struct {
	WhatWorks        []string
	WhatDoesntWork   []string
	PreviousAttempts []string
	Constraints      []ConstraintInfo
	Standards        []string
}

// SessionFeedback is the user's post-hoc assessment of a completed session
type SessionFeedback struct {
	Resolved bool
	Comment  string
	GivenAt  time.Time
}

// Session represents a single diagnostic mentor session. It is created in
// the observe stage and mutated only through the stage-transition
// operations; completion is terminal but the record is never deleted.
type Session struct {
	ID       SessionID
	UserID   string
	ThreadID string
	Domain   string

	Stage       types.Stage
	Observation Observation
	Baseline    *Baseline
	Profile     *Profile // snapshot taken at question generation
	Questions   []Question
	Answers     map[string]string // key = Question.ID
	PainPoints  []PainPoint
	Frame       *ProblemFrame
	Guidance    []GuidanceStep

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
	Feedback    *SessionFeedback
}

// NewSession creates a session in the observe stage
func NewSession(userID, threadID, domain string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        NewSessionID(),
		UserID:    userID,
		ThreadID:  threadID,
		Domain:    domain,
		Stage:     types.StageObserve,
		Answers:   make(map[string]string),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CanComplete reports whether the session satisfies the completion
// invariant: both baseline and problem frame are present.
func (s *Session) CanComplete() bool {
	return s.Baseline != nil && s.Frame != nil
}

// IsComplete reports whether the session has reached the terminal stage
func (s *Session) IsComplete() bool {
	return s.Stage.IsTerminal()
}

// Advance moves the session to the given stage and touches UpdatedAt.
// Backward moves must go through LoopBack so they are always deliberate.
func (s *Session) Advance(stage types.Stage) {
	if stage.Before(s.Stage) {
		return
	}
	s.Stage = stage
	s.UpdatedAt = time.Now().UTC()
}

// LoopBack deliberately re-enters a prior stage. It is the only way a
// session moves backward.
func (s *Session) LoopBack(stage types.Stage) {
	if !stage.Before(s.Stage) || s.IsComplete() {
		return
	}
	s.Stage = stage
	s.UpdatedAt = time.Now().UTC()
}
