package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mentor-lab/chiron/pkg/domain/interfaces"
	"github.com/mentor-lab/chiron/pkg/domain/model"
	"github.com/mentor-lab/chiron/pkg/domain/types"
)

// DefaultRecallLimit bounds search results when the caller gives no limit
const DefaultRecallLimit = 10

// RecallUseCase manages the per-user append-only recall ledger
type RecallUseCase struct {
	repo interfaces.Repository
}

func NewRecallUseCase(repo interfaces.Repository) *RecallUseCase {
	return &RecallUseCase{repo: repo}
}

// AddPatch appends an immutable knowledge fragment to the user's ledger
func (uc *RecallUseCase) AddPatch(ctx context.Context, userID, content string, patchType types.PatchType) (*model.KnowledgePatch, error) {
	if userID == "" {
		return nil, goerr.New("patch requires a user ID")
	}
	if content == "" {
		return nil, goerr.New("patch requires content", goerr.V(UserIDKey, userID))
	}
	if !patchType.IsValid() {
		return nil, goerr.New("invalid patch type",
			goerr.V(UserIDKey, userID), goerr.V("type", string(patchType)))
	}

	patch, err := uc.repo.Recall().Append(ctx, userID, &model.KnowledgePatch{
		Content: content,
		Type:    patchType,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to append patch", goerr.V(UserIDKey, userID))
	}
	return patch, nil
}

// Search returns the user's most relevant patches for a query, highest
// score first. Patches at or below the relevance threshold never appear.
func (uc *RecallUseCase) Search(ctx context.Context, userID, query string, limit int) ([]*model.KnowledgePatch, error) {
	if limit <= 0 {
		limit = DefaultRecallLimit
	}
	patches, err := uc.repo.Recall().Search(ctx, userID, query, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "recall search failed", goerr.V(UserIDKey, userID))
	}
	return patches, nil
}

// List returns the user's full ledger, newest first
func (uc *RecallUseCase) List(ctx context.Context, userID string) ([]*model.KnowledgePatch, error) {
	patches, err := uc.repo.Recall().List(ctx, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list patches", goerr.V(UserIDKey, userID))
	}
	return patches, nil
}
