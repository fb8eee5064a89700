package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/mentor-lab/chiron/pkg/domain/interfaces"
	"github.com/mentor-lab/chiron/pkg/repository/firestore"
	"github.com/mentor-lab/chiron/pkg/repository/memory"
)

// newFirestoreRepository connects to a real Firestore database. The tests
// are skipped unless the TEST_FIRESTORE_* environment variables are set.
func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}

	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if databaseID == "" {
		t.Skip("TEST_FIRESTORE_DATABASE_ID not set")
	}

	ctx := context.Background()
	repo, err := firestore.New(ctx, projectID, databaseID)
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})
	return repo
}

func newMemoryRepository(t *testing.T) interfaces.Repository {
	t.Helper()
	return memory.New()
}

// newUserID returns a user ID unique per call so tests against a shared
// Firestore database never see each other's data.
func newUserID() string {
	return fmt.Sprintf("test-user-%d", time.Now().UnixNano())
}
