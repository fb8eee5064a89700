package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/mentor-lab/chiron/pkg/cli/config"
	httpctrl "github.com/mentor-lab/chiron/pkg/controller/http"
	"github.com/mentor-lab/chiron/pkg/service/indexer"
	modelsvc "github.com/mentor-lab/chiron/pkg/service/model"
	"github.com/mentor-lab/chiron/pkg/service/worker"
	"github.com/mentor-lab/chiron/pkg/usecase"
	"github.com/mentor-lab/chiron/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var indexUserID string
	var indexDeviceID string
	var watchFiles bool
	var repoCfg config.Repository
	var geminiCfg config.Gemini
	var gatewayCfg config.Gateway
	var modulesCfg config.Modules

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       "127.0.0.1:8080",
			Sources:     cli.EnvVars("CHIRON_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "index-user-id",
			Usage:       "User ID that owns the local file index",
			Value:       "local",
			Sources:     cli.EnvVars("CHIRON_INDEX_USER_ID"),
			Destination: &indexUserID,
		},
		&cli.StringFlag{
			Name:        "index-device-id",
			Usage:       "Device ID of the local file index (defaults to the hostname)",
			Sources:     cli.EnvVars("CHIRON_INDEX_DEVICE_ID"),
			Destination: &indexDeviceID,
		},
		&cli.BoolFlag{
			Name:        "watch",
			Usage:       "Keep the file index current with filesystem changes while serving",
			Value:       true,
			Sources:     cli.EnvVars("CHIRON_WATCH"),
			Destination: &watchFiles,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, gatewayCfg.Flags()...)
	flags = append(flags, modulesCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			// Load domain modules and build the retrieval registry
			configs, registry, err := modulesCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load domain modules")
			}
			logging.Default().Info("Domain modules loaded",
				"count", len(configs), "domains", registry.Domains())

			// Initialize repository based on backend type
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			// Model router: local embedder always, remote reasoning when configured
			embedder := modelsvc.NewLocalEmbedder()
			routerOpts := []modelsvc.RouterOption{}
			llmClient, err := geminiCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure Gemini client")
			}
			if llmClient != nil {
				reasoning, err := modelsvc.NewReasoning(llmClient)
				if err != nil {
					return goerr.Wrap(err, "failed to configure reasoning model")
				}
				routerOpts = append(routerOpts, modelsvc.WithReasoning(reasoning))
				logging.Default().Info("Remote reasoning model enabled")
			} else {
				logging.Default().Info("No Gemini project configured, chunk annotation will be unavailable")
			}
			router := modelsvc.NewRouter(embedder, routerOpts...)

			ucOpts := []usecase.Option{
				usecase.WithModels(router),
				usecase.WithRegistry(registry),
			}

			// File gateway and indexing are optional: without an allowed
			// root the mentor loop still works, only file retrieval is off.
			var indexWorker *worker.IndexRefreshWorker
			if gatewayCfg.IsConfigured() {
				gw, err := gatewayCfg.Configure()
				if err != nil {
					return goerr.Wrap(err, "failed to configure file gateway")
				}
				idx := indexer.New(gw, embedder)
				ucOpts = append(ucOpts, usecase.WithIndexing(gw, idx))

				if indexDeviceID == "" {
					indexDeviceID = defaultDeviceID()
				}
				if watchFiles {
					indexWorker = worker.NewIndexRefreshWorker(repo, gw, idx, indexUserID, indexDeviceID)
					if err := indexWorker.Start(ctx); err != nil {
						return goerr.Wrap(err, "failed to start index refresh worker")
					}
				}
				logging.Default().Info("File indexing enabled",
					"user_id", indexUserID, "device_id", indexDeviceID, "watch", watchFiles)
			} else {
				logging.Default().Info("No allowed roots configured, file indexing disabled")
			}

			uc := usecase.New(repo, ucOpts...)

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Wait for shutdown signal or server error
			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				// Stop the index refresh worker first
				if indexWorker != nil {
					indexWorker.Stop()
				}

				// Create shutdown context with timeout
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				// Attempt graceful shutdown
				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}

func defaultDeviceID() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return "local"
	}
	return hostname
}
