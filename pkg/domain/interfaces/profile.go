package interfaces

import (
	"context"

	"github.com/mentor-lab/chiron/pkg/domain/model"
)

// ProfileRepository defines persistence for user diagnostic profiles
type ProfileRepository interface {
	// Get retrieves a user's profile. Returns ErrNotFound for unknown users.
	Get(ctx context.Context, userID string) (*model.Profile, error)

	// Put stores or replaces a user's profile
	Put(ctx context.Context, profile *model.Profile) error

	// AddSnapshot appends a problem snapshot to the user's history,
	// creating a default profile if none exists.
	AddSnapshot(ctx context.Context, userID string, snapshot model.ProblemSnapshot) error
}
