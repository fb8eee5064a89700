package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mentor-lab/chiron/pkg/domain/model"
	"github.com/mentor-lab/chiron/pkg/domain/types"
)

type sessionRepository struct {
	mu       sync.RWMutex
	sessions map[model.SessionID]*model.Session
	locks    map[model.SessionID]*sync.Mutex
}

func newSessionRepository() *sessionRepository {
	return &sessionRepository{
		sessions: make(map[model.SessionID]*model.Session),
		locks:    make(map[model.SessionID]*sync.Mutex),
	}
}

// copySession creates a deep copy of a session
func copySession(s *model.Session) *model.Session {
	copied := *s

	copied.Observation.Evidence = append([]model.EvidenceItem(nil), s.Observation.Evidence...)
	copied.Observation.Tags = append([]string(nil), s.Observation.Tags...)
	if s.Observation.Metadata != nil {
		copied.Observation.Metadata = make(map[string]string, len(s.Observation.Metadata))
		for k, v := range s.Observation.Metadata {
			copied.Observation.Metadata[k] = v
		}
	}

	if s.Baseline != nil {
		b := *s.Baseline
		b.WhatWorks = append([]string(nil), s.Baseline.WhatWorks...)
		b.WhatDoesntWork = append([]string(nil), s.Baseline.WhatDoesntWork...)
		b.PreviousAttempts = append([]string(nil), s.Baseline.PreviousAttempts...)
		b.Constraints = append([]model.ConstraintInfo(nil), s.Baseline.Constraints...)
		b.Standards = append([]string(nil), s.Baseline.Standards...)
		copied.Baseline = &b
	}

	if s.Profile != nil {
		copied.Profile = copyProfile(s.Profile)
	}

	copied.Questions = append([]model.Question(nil), s.Questions...)
	for i, q := range copied.Questions {
		copied.Questions[i].AnswerOptions = append([]string(nil), q.AnswerOptions...)
		copied.Questions[i].Narrows = append([]types.ProblemType(nil), q.Narrows...)
	}
	if s.Answers != nil {
		copied.Answers = make(map[string]string, len(s.Answers))
		for k, v := range s.Answers {
			copied.Answers[k] = v
		}
	}
	copied.PainPoints = append([]model.PainPoint(nil), s.PainPoints...)

	if s.Frame != nil {
		f := *s.Frame
		f.SecondaryTypes = append([]types.ProblemType(nil), s.Frame.SecondaryTypes...)
		f.IsntTypes = append([]types.ProblemType(nil), s.Frame.IsntTypes...)
		f.DomainRules = append([]string(nil), s.Frame.DomainRules...)
		copied.Frame = &f
	}

	copied.Guidance = append([]model.GuidanceStep(nil), s.Guidance...)

	if s.CompletedAt != nil {
		t := *s.CompletedAt
		copied.CompletedAt = &t
	}
	if s.Feedback != nil {
		fb := *s.Feedback
		copied.Feedback = &fb
	}

	return &copied
}

func (r *sessionRepository) Create(ctx context.Context, session *model.Session) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copySession(session)
	if created.ID == "" {
		created.ID = model.NewSessionID()
	}
	if _, exists := r.sessions[created.ID]; exists {
		return nil, goerr.New("session already exists", goerr.V("id", created.ID))
	}

	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	r.sessions[created.ID] = created
	return copySession(created), nil
}

func (r *sessionRepository) Get(ctx context.Context, id model.SessionID) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, exists := r.sessions[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "session not found", goerr.V("id", id))
	}

	return copySession(session), nil
}

// sessionLock returns the per-session mutex, creating it on first use
func (r *sessionRepository) sessionLock(id model.SessionID) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, exists := r.locks[id]
	if !exists {
		lock = &sync.Mutex{}
		r.locks[id] = lock
	}
	return lock
}

func (r *sessionRepository) Mutate(ctx context.Context, id model.SessionID, fn func(*model.Session) error) (*model.Session, error) {
	lock := r.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	r.mu.RLock()
	session, exists := r.sessions[id]
	r.mu.RUnlock()
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "session not found", goerr.V("id", id))
	}

	mutated := copySession(session)
	if err := fn(mutated); err != nil {
		return nil, err
	}
	mutated.UpdatedAt = time.Now().UTC()

	r.mu.Lock()
	r.sessions[id] = mutated
	r.mu.Unlock()

	return copySession(mutated), nil
}

func (r *sessionRepository) ListByUser(ctx context.Context, userID string) ([]*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.Session
	for _, s := range r.sessions {
		if s.UserID == userID {
			result = append(result, copySession(s))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}
