package interfaces

import (
	"context"

	"github.com/mentor-lab/chiron/pkg/domain/model"
)

// SessionRepository defines persistence for diagnostic sessions.
//
// Mutate is the only write path after creation: it loads the session,
// applies fn, and stores the result while holding a per-session lock, so
// concurrent stage transitions against one session are serialized and can
// never silently overwrite each other. Sessions are never deleted.
type SessionRepository interface {
	// Create stores a new session
	Create(ctx context.Context, session *model.Session) (*model.Session, error)

	// Get retrieves a session by ID
	Get(ctx context.Context, id model.SessionID) (*model.Session, error)

	// Mutate applies fn to the session under a per-session lock and
	// persists the result. fn returning an error aborts the mutation.
	Mutate(ctx context.Context, id model.SessionID, fn func(*model.Session) error) (*model.Session, error)

	// ListByUser retrieves all sessions owned by a user, newest first
	ListByUser(ctx context.Context, userID string) ([]*model.Session, error)
}
