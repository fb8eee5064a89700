package firestore

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mentor-lab/chiron/pkg/domain/model"
	"google.golang.org/api/iterator"
)

type recallRepository struct {
	client *firestore.Client
}

func newRecallRepository(client *firestore.Client) *recallRepository {
	return &recallRepository{
		client: client,
	}
}

// patchesCollection returns the per-user ledger subcollection:
// users/{userID}/patches
func (r *recallRepository) patchesCollection(userID string) *firestore.CollectionRef {
	return r.client.Collection("users").Doc(userID).Collection("patches")
}

func (r *recallRepository) Append(ctx context.Context, userID string, patch *model.KnowledgePatch) (*model.KnowledgePatch, error) {
	if patch.ID == "" {
		patch.ID = model.NewPatchID()
	}
	if patch.CreatedAt.IsZero() {
		patch.CreatedAt = time.Now().UTC()
	}

	docRef := r.patchesCollection(userID).Doc(string(patch.ID))
	if _, err := docRef.Create(ctx, patch); err != nil {
		return nil, goerr.Wrap(err, "failed to append patch",
			goerr.V("userID", userID), goerr.V("id", patch.ID))
	}

	return patch, nil
}

func (r *recallRepository) List(ctx context.Context, userID string) ([]*model.KnowledgePatch, error) {
	iter := r.patchesCollection(userID).
		OrderBy("CreatedAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	patches := make([]*model.KnowledgePatch, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate patches", goerr.V("userID", userID))
		}

		var patch model.KnowledgePatch
		if err := doc.DataTo(&patch); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal patch")
		}
		patches = append(patches, &patch)
	}

	return patches, nil
}

// Search loads the full ledger and scores it locally. Relevance scoring
// is a pure function of patch content and age, so there is no query-side
// equivalent to push down to Firestore.
func (r *recallRepository) Search(ctx context.Context, userID, query string, limit int) ([]*model.KnowledgePatch, error) {
	patches, err := r.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	keywords := model.RecallKeywords(query)
	now := time.Now().UTC()

	type scored struct {
		patch *model.KnowledgePatch
		score int
	}

	var candidates []scored
	for _, p := range patches {
		score := p.ScoreRecall(keywords, now)
		if score <= model.RecallScoreThreshold {
			continue
		}
		candidates = append(candidates, scored{patch: p, score: score})
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
