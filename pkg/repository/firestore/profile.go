package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mentor-lab/chiron/pkg/domain/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type profileRepository struct {
	client *firestore.Client
}

func newProfileRepository(client *firestore.Client) *profileRepository {
	return &profileRepository{
		client: client,
	}
}

func (r *profileRepository) profileDoc(userID string) *firestore.DocumentRef {
	return r.client.Collection("profiles").Doc(userID)
}

func (r *profileRepository) Get(ctx context.Context, userID string) (*model.Profile, error) {
	doc, err := r.profileDoc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "profile not found", goerr.V("userID", userID))
		}
		return nil, goerr.Wrap(err, "failed to get profile", goerr.V("userID", userID))
	}

	var profile model.Profile
	if err := doc.DataTo(&profile); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal profile", goerr.V("userID", userID))
	}

	return &profile, nil
}

func (r *profileRepository) Put(ctx context.Context, profile *model.Profile) error {
	profile.UpdatedAt = time.Now().UTC()
	if _, err := r.profileDoc(profile.UserID).Set(ctx, profile); err != nil {
		return goerr.Wrap(err, "failed to store profile", goerr.V("userID", profile.UserID))
	}
	return nil
}

func (r *profileRepository) AddSnapshot(ctx context.Context, userID string, snapshot model.ProblemSnapshot) error {
	docRef := r.profileDoc(userID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)

		var profile model.Profile
		switch {
		case err == nil:
			if err := doc.DataTo(&profile); err != nil {
				return goerr.Wrap(err, "failed to unmarshal profile", goerr.V("userID", userID))
			}
		case status.Code(err) == codes.NotFound:
			profile = *model.NewProfile(userID)
		default:
			return goerr.Wrap(err, "failed to get profile", goerr.V("userID", userID))
		}

		profile.PastProblems = append(profile.PastProblems, snapshot)
		profile.UpdatedAt = time.Now().UTC()

		return tx.Set(docRef, &profile)
	})
	if err != nil {
		return goerr.Wrap(err, "failed to add snapshot", goerr.V("userID", userID))
	}

	return nil
}
