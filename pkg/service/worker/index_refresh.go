package worker

import (
	"context"
	"errors"
	"time"

	"github.com/mentor-lab/chiron/pkg/domain/interfaces"
	"github.com/mentor-lab/chiron/pkg/domain/model"
	"github.com/mentor-lab/chiron/pkg/repository/firestore"
	"github.com/mentor-lab/chiron/pkg/repository/memory"
	"github.com/mentor-lab/chiron/pkg/service/indexer"
	"github.com/mentor-lab/chiron/pkg/utils/logging"
)

// IndexRefreshWorker keeps one user+device memory index current with the
// filesystem: file-watch events from the gateway are debounced into a
// queue and applied as incremental index updates. Watch callbacks never
// touch session state; the index is the only thing they refresh.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - One worker per user+device pair
type IndexRefreshWorker struct {
	repo     interfaces.Repository
	gateway  interfaces.FileGateway
	indexer  *indexer.Indexer
	userID   string
	deviceID string

	events chan interfaces.FileEvent
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewIndexRefreshWorker creates a worker that refreshes the index for a
// user+device pair from file-watch events.
func NewIndexRefreshWorker(repo interfaces.Repository, fileGateway interfaces.FileGateway, idx *indexer.Indexer, userID, deviceID string) *IndexRefreshWorker {
	return &IndexRefreshWorker{
		repo:     repo,
		gateway:  fileGateway,
		indexer:  idx,
		userID:   userID,
		deviceID: deviceID,
		events:   make(chan interfaces.FileEvent, 128),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins watching and applying events. It does not block; the
// watch and the apply loop each run in their own goroutine.
func (w *IndexRefreshWorker) Start(ctx context.Context) error {
	logging.Default().Info("index refresh worker starting",
		"user_id", w.userID, "device_id", w.deviceID)

	go func() {
		if err := w.gateway.Watch(ctx, w.enqueue); err != nil && !errors.Is(err, context.Canceled) {
			logging.Default().Error("file watch terminated", "error", err.Error())
		}
	}()
	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for the apply loop to drain
func (w *IndexRefreshWorker) Stop() {
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("index refresh worker stopped",
		"user_id", w.userID, "device_id", w.deviceID)
}

// enqueue hands a watch event to the apply loop. Events are dropped when
// the queue is full; a dropped event is recovered by the next change to
// the same file or a full rebuild.
func (w *IndexRefreshWorker) enqueue(event interfaces.FileEvent) {
	select {
	case w.events <- event:
	default:
		logging.Default().Warn("index refresh queue full, dropping event",
			"path", event.Path, "op", string(event.Op))
	}
}

func (w *IndexRefreshWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	for {
		select {
		case event := <-w.events:
			if err := w.apply(ctx, event); err != nil {
				logging.Default().Error("index refresh failed (will retry on next change)",
					"path", event.Path, "error", err.Error())
			}

		case <-w.stopCh:
			return

		case <-ctx.Done():
			return
		}
	}
}

// apply performs one incremental index update for a changed file
func (w *IndexRefreshWorker) apply(ctx context.Context, event interfaces.FileEvent) error {
	index, err := w.repo.Index().Get(ctx, w.userID, w.deviceID)
	if err != nil {
		if errors.Is(err, memory.ErrNotFound) || errors.Is(err, firestore.ErrNotFound) {
			index = model.NewMemoryIndex(w.userID, w.deviceID, w.indexer.Dimension())
		} else {
			return err
		}
	}

	start := time.Now()
	if err := w.indexer.UpdateIndex(ctx, index, event.Path); err != nil {
		return err
	}
	if err := w.repo.Index().Put(ctx, index); err != nil {
		return err
	}

	logging.From(ctx).Debug("index refreshed",
		"path", event.Path,
		"op", string(event.Op),
		"chunks", len(index.Chunks),
		"elapsed", time.Since(start).String())
	return nil
}
