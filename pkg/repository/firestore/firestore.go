package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mentor-lab/chiron/pkg/domain/interfaces"
)

// Firestore is the persistent Repository implementation backed by Google
// Cloud Firestore. All collections are isolated per user.
type Firestore struct {
	client  *firestore.Client
	session *sessionRepository
	recall  *recallRepository
	profile *profileRepository
	index   *indexRepository
}

var _ interfaces.Repository = &Firestore{}

func New(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID), goerr.V("databaseID", databaseID))
	}

	return &Firestore{
		client:  client,
		session: newSessionRepository(client),
		recall:  newRecallRepository(client),
		profile: newProfileRepository(client),
		index:   newIndexRepository(client),
	}, nil
}

func (f *Firestore) Session() interfaces.SessionRepository {
	return f.session
}

func (f *Firestore) Recall() interfaces.RecallRepository {
	return f.recall
}

func (f *Firestore) Profile() interfaces.ProfileRepository {
	return f.profile
}

func (f *Firestore) Index() interfaces.IndexRepository {
	return f.index
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
