package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/mentor-lab/chiron/pkg/cli/config"
	"github.com/mentor-lab/chiron/pkg/service/indexer"
	modelsvc "github.com/mentor-lab/chiron/pkg/service/model"
	"github.com/mentor-lab/chiron/pkg/usecase"
	"github.com/mentor-lab/chiron/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdIndex() *cli.Command {
	var userID string
	var deviceID string
	var repoCfg config.Repository
	var gatewayCfg config.Gateway

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "user-id",
			Usage:       "User ID that owns the index",
			Value:       "local",
			Sources:     cli.EnvVars("CHIRON_INDEX_USER_ID"),
			Destination: &userID,
		},
		&cli.StringFlag{
			Name:        "device-id",
			Usage:       "Device ID of the index (defaults to the hostname)",
			Sources:     cli.EnvVars("CHIRON_INDEX_DEVICE_ID"),
			Destination: &deviceID,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, gatewayCfg.Flags()...)

	return &cli.Command{
		Name:    "index",
		Aliases: []string{"i"},
		Usage:   "Build the local file index once and exit",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if !gatewayCfg.IsConfigured() {
				return goerr.New("at least one --allowed-root is required to build an index")
			}

			gw, err := gatewayCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure file gateway")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			if deviceID == "" {
				deviceID = defaultDeviceID()
			}

			embedder := modelsvc.NewLocalEmbedder()
			idx := indexer.New(gw, embedder)
			indexing := usecase.NewIndexingUseCase(repo, gw, idx, modelsvc.NewRouter(embedder))

			index, err := indexing.Build(ctx, userID, deviceID)
			if err != nil {
				return goerr.Wrap(err, "failed to build index")
			}

			logging.Default().Info("Index built",
				"user_id", index.UserID,
				"device_id", index.DeviceID,
				"tracked_files", len(index.TrackedFiles),
				"chunks", len(index.Chunks),
			)
			return nil
		},
	}
}
