package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mentor-lab/chiron/pkg/domain/model"
	"github.com/mentor-lab/chiron/pkg/domain/types"
)

type profileRepository struct {
	mu       sync.RWMutex
	profiles map[string]*model.Profile
}

func newProfileRepository() *profileRepository {
	return &profileRepository{
		profiles: make(map[string]*model.Profile),
	}
}

// copyProfile creates a deep copy of a profile
func copyProfile(p *model.Profile) *model.Profile {
	copied := *p

	if p.SkillLevels != nil {
		copied.SkillLevels = make(map[string]types.SkillLevel, len(p.SkillLevels))
		for k, v := range p.SkillLevels {
			copied.SkillLevels[k] = v
		}
	}

	copied.PastProblems = append([]model.ProblemSnapshot(nil), p.PastProblems...)
	for i, snap := range copied.PastProblems {
		copied.PastProblems[i].SolutionPath = append([]string(nil), snap.SolutionPath...)
	}
	copied.SuccessPatterns = append([]string(nil), p.SuccessPatterns...)
	copied.RepeatedMistakes = append([]string(nil), p.RepeatedMistakes...)

	return &copied
}

func (r *profileRepository) Get(ctx context.Context, userID string) (*model.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, exists := r.profiles[userID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "profile not found", goerr.V("userID", userID))
	}

	return copyProfile(profile), nil
}

func (r *profileRepository) Put(ctx context.Context, profile *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copyProfile(profile)
	stored.UpdatedAt = time.Now().UTC()
	r.profiles[stored.UserID] = stored
	return nil
}

func (r *profileRepository) AddSnapshot(ctx context.Context, userID string, snapshot model.ProblemSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	profile, exists := r.profiles[userID]
	if !exists {
		profile = model.NewProfile(userID)
	}
	profile.PastProblems = append(profile.PastProblems, snapshot)
	profile.UpdatedAt = time.Now().UTC()
	r.profiles[userID] = profile
	return nil
}
