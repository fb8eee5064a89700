package gateway

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mentor-lab/chiron/pkg/domain/interfaces"
	"github.com/mentor-lab/chiron/pkg/utils/logging"
	"github.com/mentor-lab/chiron/pkg/utils/safe"
)

// Watch delivers change events for allowed paths to handler until ctx is
// done. The watch path enforces the same permission boundary as the read
// path: events for excluded or out-of-boundary files never reach handler.
// Newly created directories under a root are picked up automatically.
func (g *Local) Watch(ctx context.Context, handler func(interfaces.FileEvent)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return goerr.Wrap(err, "failed to create file watcher")
	}
	defer safe.Close(ctx, watcher)

	for _, root := range g.roots {
		if err := g.watchTree(watcher, root); err != nil {
			return err
		}
	}

	logger := logging.From(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !g.excluded(filepath.Clean(event.Name)) {
						if err := g.watchTree(watcher, event.Name); err != nil {
							logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
						}
					}
					continue
				}
			}

			if !g.Allowed(event.Name) {
				continue
			}

			var op interfaces.FileOp
			switch {
			case event.Op&fsnotify.Create != 0:
				op = interfaces.FileOpAdd
			case event.Op&fsnotify.Write != 0:
				op = interfaces.FileOpChange
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				op = interfaces.FileOpDelete
			default:
				continue
			}

			handler(interfaces.FileEvent{Op: op, Path: event.Name})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher error", "error", err)
		}
	}
}

// watchTree registers root and every non-excluded subdirectory
func (g *Local) watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if g.excluded(filepath.Clean(path)) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return goerr.Wrap(err, "failed to watch directory", goerr.V("path", path))
		}
		return nil
	})
}
