package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mentor-lab/chiron/pkg/domain/model"
)

type recallRepository struct {
	mu      sync.RWMutex
	patches map[string][]*model.KnowledgePatch // key = userID
}

func newRecallRepository() *recallRepository {
	return &recallRepository{
		patches: make(map[string][]*model.KnowledgePatch),
	}
}

func copyPatch(p *model.KnowledgePatch) *model.KnowledgePatch {
	copied := *p
	return &copied
}

func (r *recallRepository) Append(ctx context.Context, userID string, patch *model.KnowledgePatch) (*model.KnowledgePatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyPatch(patch)
	if created.ID == "" {
		created.ID = model.NewPatchID()
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	r.patches[userID] = append(r.patches[userID], created)
	return copyPatch(created), nil
}

func (r *recallRepository) List(ctx context.Context, userID string) ([]*model.KnowledgePatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.KnowledgePatch, 0, len(r.patches[userID]))
	for _, p := range r.patches[userID] {
		result = append(result, copyPatch(p))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (r *recallRepository) Search(ctx context.Context, userID, query string, limit int) ([]*model.KnowledgePatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keywords := model.RecallKeywords(query)
	now := time.Now().UTC()

	type scored struct {
		patch *model.KnowledgePatch
		score int
	}

	var candidates []scored
	for _, p := range r.patches[userID] {
		score := p.ScoreRecall(keywords, now)
		if score <= model.RecallScoreThreshold {
			continue
		}
		candidates = append(candidates, scored{patch: copyPatch(p), score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	result := make([]*model.KnowledgePatch, 0, len(candidates))
	for _, c := range candidates {
		result = append(result, c.patch)
	}
	return result, nil
}
