package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/dukex/bundlegen/pkg/log"
)

func main() {
	logger := log.WithModule("cli")

	workspaceFlags := []cli.Flag{
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
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
	}

	cmd := &cli.Command{
		Name:                  "bundlegen",
		Usage:                 "Generate declarative bundles from workspace workflows",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			{
				Name:    "workflows",
				Aliases: []string{"w"},
				Usage:   "Inspect workflows in the remote workspace",
				Commands: []*cli.Command{
					{
						Name:    "list",
						Aliases: []string{"ls"},
						Usage:   "List workflows available in the workspace",
						Flags: append([]cli.Flag{
							&cli.IntFlag{
								Name:  "limit",
								Usage: "Maximum number of workflows to list",
								Value: 25,
							},
						}, workspaceFlags...),
						Action: func(ctx context.Context, cmd *cli.Command) error {
							return listWorkflows(ctx, cmd)
						},
					},
					{
						Name:      "show",
						Usage:     "Show a single workflow definition as YAML",
						ArgsUsage: "<workflow-id>",
						Flags:     workspaceFlags,
						Action: func(ctx context.Context, cmd *cli.Command) error {
							return showWorkflow(ctx, cmd)
						},
					},
				},
			},
			{
				Name:      "generate",
				Aliases:   []string{"g"},
				Usage:     "Generate a bundle descriptor from a workflow",
				ArgsUsage: "<workflow-id>",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "Bundle name (lowercase words separated by hyphens)",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "target",
						Aliases: []string{"t"},
						Usage:   "Target environment for the bundle",
						Value:   "dev",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the bundle to this file instead of stdout",
					},
					&cli.StringFlag{
						Name:    "store",
						Usage:   "Also save the bundle as a record under this directory",
						Sources: cli.EnvVars("BUNDLE_STORE"),
					},
					&cli.StringFlag{
						Name:  "upload",
						Usage: "Also upload the bundle to this workspace path",
					},
					&cli.BoolFlag{
						Name:  "include-dependencies",
						Usage: "Collect task library coordinates into a dependencies section",
					},
					&cli.BoolFlag{
						Name:  "resources-only",
						Usage: "Emit only the resources section of the bundle",
					},
				}, workspaceFlags...),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return generateBundle(ctx, cmd)
				},
			},
			{
				Name:      "validate",
				Aliases:   []string{"v"},
				Usage:     "Validate a bundle descriptor file",
				ArgsUsage: "<bundle-file>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "log-level",
						Usage:   "Log level (debug, info, warn, error)",
						Value:   "info",
						Sources: cli.EnvVars("LOG_LEVEL"),
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return validateBundle(ctx, cmd)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Error("bundlegen exited", "error", err)
		os.Exit(1)
	}
}
