package memory

import (
	"github.com/mentor-lab/chiron/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is the in-memory Repository implementation. It is the default
// backend for local runs and tests; nothing survives a restart.
type Memory struct {
	session *sessionRepository
	recall  *recallRepository
	profile *profileRepository
	index   *indexRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		session: newSessionRepository(),
		recall:  newRecallRepository(),
		profile: newProfileRepository(),
		index:   newIndexRepository(),
	}
}

func (m *Memory) Session() interfaces.SessionRepository {
	return m.session
}

func (m *Memory) Recall() interfaces.RecallRepository {
	return m.recall
}

func (m *Memory) Profile() interfaces.ProfileRepository {
	return m.profile
}

func (m *Memory) Index() interfaces.IndexRepository {
	return m.index
}

func (m *Memory) Close() error {
	return nil
}
