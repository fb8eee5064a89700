package interfaces

import (
	"context"

	"github.com/mentor-lab/chiron/pkg/domain/model"
)

// RecallRepository defines persistence for the per-user recall ledger.
// The ledger is append-only: patches are immutable once written.
type RecallRepository interface {
	// Append adds a patch to the user's ledger
	Append(ctx context.Context, userID string, patch *model.KnowledgePatch) (*model.KnowledgePatch, error)

	// List retrieves all patches of a user, newest first
	List(ctx context.Context, userID string) ([]*model.KnowledgePatch, error)

	// Search scores every patch against the query and returns up to limit
	// patches above the relevance threshold, highest score first.
	Search(ctx context.Context, userID, query string, limit int) ([]*model.KnowledgePatch, error)
}
