package gateway

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mentor-lab/chiron/pkg/domain/interfaces"
	"github.com/mentor-lab/chiron/pkg/domain/model"
	"github.com/mentor-lab/chiron/pkg/utils/logging"
)

// ErrPermissionDenied is returned when a path fails the permission boundary
var ErrPermissionDenied = errors.New("permission denied")

// Local is the file gateway over the local filesystem. Every read goes
// through the same two checks: the path must sit under an allow-listed
// root, and it must not match any exclusion pattern. Raw content is only
// ever returned to the caller; the gateway itself keeps nothing.
type Local struct {
	roots      []string
	exclusions []string
}

var _ interfaces.FileGateway = &Local{}

// Option is a functional option for gateway configuration
type Option func(*Local)

// WithExclusions adds exclusion patterns. A pattern matches a path when
// it glob-matches the base name or appears as a substring of the path.
func WithExclusions(patterns ...string) Option {
	return func(g *Local) {
		g.exclusions = append(g.exclusions, patterns...)
	}
}

func New(allowedRoots []string, opts ...Option) (*Local, error) {
	if len(allowedRoots) == 0 {
		return nil, goerr.New("at least one allowed root is required")
	}

	g := &Local{}
	for _, root := range allowedRoots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid allowed root", goerr.V("root", root))
		}
		g.roots = append(g.roots, filepath.Clean(abs))
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// Allowed reports whether the path passes both permission checks
func (g *Local) Allowed(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	abs = filepath.Clean(abs)

	return g.underRoot(abs) && !g.excluded(abs)
}

func (g *Local) underRoot(abs string) bool {
	for _, root := range g.roots {
		if abs == root || strings.HasPrefix(abs, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (g *Local) excluded(abs string) bool {
	base := filepath.Base(abs)
	for _, pattern := range g.exclusions {
		if ok, err := filepath.Match(pattern, base); err == nil && ok {
			return true
		}
		if strings.Contains(abs, pattern) {
			return true
		}
	}
	return false
}

// Read returns the file content after the permission checks. Denials are
// logged and returned as ErrPermissionDenied so callers can skip the file
// without aborting a batch.
func (g *Local) Read(ctx context.Context, path string) ([]byte, error) {
	if !g.Allowed(path) {
		logging.From(ctx).Warn("file read denied by permission boundary", "path", path)
		return nil, goerr.Wrap(ErrPermissionDenied, "path outside permission boundary", goerr.V("path", path))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read file", goerr.V("path", path))
	}
	return content, nil
}

// Reference builds the metadata-only reference for a file: path, content
// hash, detected type and language, size, and modification time.
func (g *Local) Reference(ctx context.Context, path string) (*model.FileReference, error) {
	content, err := g.Read(ctx, path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to stat file", goerr.V("path", path))
	}

	return &model.FileReference{
		Path:        path,
		ContentHash: model.HashContent(content),
		Type:        DetectFileType(path),
		Language:    DetectLanguage(path),
		SizeBytes:   info.Size(),
		ModifiedAt:  info.ModTime().UTC(),
	}, nil
}

// Discover walks the allowed roots and returns references for every
// readable, non-excluded regular file. Unreadable files are skipped with
// a log entry rather than failing the walk.
func (g *Local) Discover(ctx context.Context) ([]*model.FileReference, error) {
	logger := logging.From(ctx)
	var refs []*model.FileReference

	for _, root := range g.roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warn("skipping unreadable path", "path", path, "error", err)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if g.excluded(filepath.Clean(path)) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || !g.Allowed(path) {
				return nil
			}

			ref, err := g.Reference(ctx, path)
			if err != nil {
				logger.Warn("skipping file", "path", path, "error", err)
				return nil
			}
			refs = append(refs, ref)
			return nil
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to walk allowed root", goerr.V("root", root))
		}
	}

	return refs, nil
}
