package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mentor-lab/chiron/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type sessionRepository struct {
	client *firestore.Client
}

func newSessionRepository(client *firestore.Client) *sessionRepository {
	return &sessionRepository{
		client: client,
	}
}

func (r *sessionRepository) sessionsCollection() *firestore.CollectionRef {
	return r.client.Collection("sessions")
}

func (r *sessionRepository) Create(ctx context.Context, session *model.Session) (*model.Session, error) {
	if session.ID == "" {
		session.ID = model.NewSessionID()
	}
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	docRef := r.sessionsCollection().Doc(string(session.ID))
	if _, err := docRef.Create(ctx, session); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, goerr.New("session already exists", goerr.V("id", session.ID))
		}
		return nil, goerr.Wrap(err, "failed to create session", goerr.V("id", session.ID))
	}

	return session, nil
}

func (r *sessionRepository) Get(ctx context.Context, id model.SessionID) (*model.Session, error) {
	doc, err := r.sessionsCollection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "session not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get session", goerr.V("id", id))
	}

	var session model.Session
	if err := doc.DataTo(&session); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal session", goerr.V("id", id))
	}

	return &session, nil
}

// Mutate applies fn inside a Firestore transaction. The transaction gives
// the same serialization guarantee as the in-memory per-session lock:
// concurrent mutations of one session retry instead of overwriting.
func (r *sessionRepository) Mutate(ctx context.Context, id model.SessionID, fn func(*model.Session) error) (*model.Session, error) {
	docRef := r.sessionsCollection().Doc(string(id))

	var mutated model.Session
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrNotFound, "session not found", goerr.V("id", id))
			}
			return goerr.Wrap(err, "failed to get session", goerr.V("id", id))
		}

		var session model.Session
		if err := doc.DataTo(&session); err != nil {
			return goerr.Wrap(err, "failed to unmarshal session", goerr.V("id", id))
		}

		if err := fn(&session); err != nil {
			return err
		}
		session.UpdatedAt = time.Now().UTC()

		if err := tx.Set(docRef, &session); err != nil {
			return goerr.Wrap(err, "failed to store session", goerr.V("id", id))
		}

		mutated = session
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &mutated, nil
}

func (r *sessionRepository) ListByUser(ctx context.Context, userID string) ([]*model.Session, error) {
	iter := r.sessionsCollection().
		Where("UserID", "==", userID).
		OrderBy("CreatedAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	sessions := make([]*model.Session, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate sessions", goerr.V("userID", userID))
		}

		var session model.Session
		if err := doc.DataTo(&session); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal session")
		}
		sessions = append(sessions, &session)
	}

	return sessions, nil
}
