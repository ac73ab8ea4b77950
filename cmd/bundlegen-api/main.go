package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/dukex/bundlegen/pkg/log"
	"github.com/dukex/bundlegen/pkg/otelhelper"
	"github.com/dukex/bundlegen/pkg/persistence"
	"github.com/dukex/bundlegen/pkg/persistence/file"
	"github.com/dukex/bundlegen/pkg/services"
	"github.com/dukex/bundlegen/pkg/workspace"
	"go.opentelemetry.io/otel/trace"
)

const defaultPort = 9092

func main() {
	logger := log.WithModule("api")

	cmd := &cli.Command{
		Name:                  "bundlegen-api",
		Usage:                 "Serve the workflow-to-bundle generation API",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "workspace-host",
				Usage:    "Workspace base URL, e.g. https://acme.cloud.example.com",
				Required: true,
				Sources:  cli.EnvVars("WORKSPACE_HOST"),
			},
			&cli.StringFlag{
				Name:     "workspace-token",
				Usage:    "API token used to authenticate against the workspace",
				Required: true,
				Sources:  cli.EnvVars("WORKSPACE_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "bundle-store",
				Usage:   "Directory where generated bundles are stored",
				Value:   "./bundles",
				Sources: cli.EnvVars("BUNDLE_STORE"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces via OTLP/HTTP (endpoint from OTEL_EXPORTER_OTLP_ENDPOINT)",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing bundlegen API")

			var tracer trace.Tracer

			if command.Bool("tracing") {
				t, shutdown, err := otelhelper.NewTracer(ctx, "bundlegen-api")
				if err != nil {
					return err
				}

				tracer = t

				defer func() {
					if err := shutdown(ctx); err != nil {
						logger.ErrorContext(ctx, "Failed to shut down tracer", "error", err)
					}
				}()
			}

			client := workspace.NewRestClient(
				command.String("workspace-host"),
				command.String("workspace-token"),
			)

			var store persistence.Persistence
			if root := command.String("bundle-store"); root != "" {
				store = file.NewPersistence(root)

				defer func() {
					if err := store.Close(ctx); err != nil {
						logger.ErrorContext(ctx, "Failed to close bundle store", "error", err)
					}
				}()
			}

			api := NewAPI(logger, services.NewBundle(client, store, tracer))

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)

				return err
			}

			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Error("bundlegen-api exited", "error", err)
		os.Exit(1)
	}
}
