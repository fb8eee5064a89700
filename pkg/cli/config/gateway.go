package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mentor-lab/chiron/pkg/service/gateway"
	"github.com/urfave/cli/v3"
)

// Gateway holds CLI flags for the local file access boundary
type Gateway struct {
	allowedRoots []string
	exclusions   []string
}

// Flags returns CLI flags for gateway configuration
func (g *Gateway) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "allowed-root",
			Usage:       "Directory the file gateway may read (repeatable). File indexing is disabled when none is given",
			Sources:     cli.EnvVars("CHIRON_ALLOWED_ROOTS"),
			Destination: &g.allowedRoots,
		},
		&cli.StringSliceFlag{
			Name:        "exclude",
			Usage:       "Path pattern excluded from file access even under an allowed root (repeatable)",
			Sources:     cli.EnvVars("CHIRON_EXCLUDE"),
			Destination: &g.exclusions,
		},
	}
}

// IsConfigured reports whether any allowed root was given
func (g *Gateway) IsConfigured() bool {
	return len(g.allowedRoots) > 0
}

// LogAttrs returns log attributes for the gateway configuration
func (g *Gateway) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.Any("allowed_roots", g.allowedRoots),
		slog.Any("exclusions", g.exclusions),
	}
}

// Configure builds the local file gateway from the configured flags.
// Returns an error when no allowed root is given; callers should check
// IsConfigured first.
func (g *Gateway) Configure() (*gateway.Local, error) {
	gw, err := gateway.New(g.allowedRoots, gateway.WithExclusions(g.exclusions...))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure file gateway")
	}
	return gw, nil
}
