package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/mentor-lab/chiron/pkg/domain/interfaces"
	"github.com/mentor-lab/chiron/pkg/domain/model"
	"github.com/mentor-lab/chiron/pkg/domain/types"
	"github.com/mentor-lab/chiron/pkg/repository/firestore"
	"github.com/mentor-lab/chiron/pkg/repository/memory"
)

func isNotFound(err error) bool {
	return errors.Is(err, memory.ErrNotFound) || errors.Is(err, firestore.ErrNotFound)
}

func runSessionRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Create stores session with generated ID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		uid := newUserID()

		session := model.NewSession(uid, "thread-1", "car_repair")
		created, err := repo.Session().Create(ctx, session)
		gt.NoError(t, err).Required()

		gt.String(t, string(created.ID)).NotEqual("")
		gt.Value(t, created.Stage).Equal(types.StageObserve)
		gt.Bool(t, created.CreatedAt.IsZero()).False()
	})

	t.Run("Get retrieves stored session", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		uid := newUserID()

		session := model.NewSession(uid, "thread-1", "car_repair")
		session.Observation = model.Observation{
			Description: "Engine makes a grinding noise when starting",
			Evidence:    []model.EvidenceItem{{Kind: "log", Ref: "garage/startup.log"}},
			Tags:        []string{"engine", "noise"},
		}

		created, err := repo.Session().Create(ctx, session)
		gt.NoError(t, err).Required()

		got, err := repo.Session().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.ID).Equal(created.ID)
		gt.Value(t, got.Observation.Description).Equal("Engine makes a grinding noise when starting")
		gt.Array(t, got.Observation.Evidence).Length(1)
		gt.Array(t, got.Observation.Tags).Length(2)
	})

	t.Run("Get returns ErrNotFound for unknown session", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		_ = newUserID()

		_, err := repo.Session().Get(ctx, model.NewSessionID())
		gt.Error(t, err)
		gt.Bool(t, isNotFound(err)).True()
	})

	t.Run("Mutate persists changes", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		uid := newUserID()

		created, err := repo.Session().Create(ctx, model.NewSession(uid, "thread-1", "car_repair"))
		gt.NoError(t, err).Required()

		mutated, err := repo.Session().Mutate(ctx, created.ID, func(s *model.Session) error {
			s.Baseline = &model.Baseline{
				WhatWorks:      []string{"car started fine yesterday"},
				WhatDoesntWork: []string{"grinding noise on cold start"},
			}
			s.Advance(types.StageBaseline)
			return nil
		})
		gt.NoError(t, err).Required()
		gt.Value(t, mutated.Stage).Equal(types.StageBaseline)

		got, err := repo.Session().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Stage).Equal(types.StageBaseline)
		gt.Bool(t, got.Baseline != nil).True()
		gt.Array(t, got.Baseline.WhatWorks).Length(1)
	})

	t.Run("Mutate aborts when fn fails", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		uid := newUserID()

		created, err := repo.Session().Create(ctx, model.NewSession(uid, "thread-1", "car_repair"))
		gt.NoError(t, err).Required()

		wantErr := errors.New("rejected")
		_, err = repo.Session().Mutate(ctx, created.ID, func(s *model.Session) error {
			s.Advance(types.StageComplete)
			return wantErr
		})
		gt.Error(t, err)

		got, err := repo.Session().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Stage).Equal(types.StageObserve)
	})

	t.Run("Mutate returns ErrNotFound for unknown session", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		_ = newUserID()

		_, err := repo.Session().Mutate(ctx, model.NewSessionID(), func(s *model.Session) error {
			return nil
		})
		gt.Error(t, err)
		gt.Bool(t, isNotFound(err)).True()
	})

	t.Run("ListByUser returns own sessions newest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		uid := newUserID()

		first, err := repo.Session().Create(ctx, model.NewSession(uid, "thread-1", "car_repair"))
		gt.NoError(t, err).Required()
		second, err := repo.Session().Create(ctx, model.NewSession(uid, "thread-2", "plumbing"))
		gt.NoError(t, err).Required()
		_, err = repo.Session().Create(ctx, model.NewSession(newUserID(), "thread-3", "car_repair"))
		gt.NoError(t, err).Required()

		sessions, err := repo.Session().ListByUser(ctx, uid)
		gt.NoError(t, err).Required()
		gt.Array(t, sessions).Length(2)
		gt.Value(t, sessions[0].ID).Equal(second.ID)
		gt.Value(t, sessions[1].ID).Equal(first.ID)
	})

	t.Run("returned session is isolated from store", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		uid := newUserID()

		created, err := repo.Session().Create(ctx, model.NewSession(uid, "thread-1", "car_repair"))
		gt.NoError(t, err).Required()

		created.Stage = types.StageComplete
		created.Observation.Description = "tampered"

		got, err := repo.Session().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Stage).Equal(types.StageObserve)
		gt.Value(t, got.Observation.Description).Equal("")
	})
}

func TestMemorySessionRepository(t *testing.T) {
	runSessionRepositoryTest(t, newMemoryRepository)
}

func TestFirestoreSessionRepository(t *testing.T) {
	runSessionRepositoryTest(t, newFirestoreRepository)
}

func TestMemorySessionMutateConcurrency(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	created, err := repo.Session().Create(ctx, model.NewSession("user-1", "thread-1", "car_repair"))
	gt.NoError(t, err).Required()

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Session().Mutate(ctx, created.ID, func(s *model.Session) error {
				s.Observation.Tags = append(s.Observation.Tags, "tag")
				return nil
			})
			gt.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.Session().Get(ctx, created.ID)
	gt.NoError(t, err).Required()
	gt.Array(t, got.Observation.Tags).Length(workers)
}
