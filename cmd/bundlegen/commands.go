package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
	cli "github.com/urfave/cli/v3"

	"github.com/dukex/bundlegen/pkg/bundle"
	"github.com/dukex/bundlegen/pkg/log"
	"github.com/dukex/bundlegen/pkg/persistence"
	"github.com/dukex/bundlegen/pkg/persistence/file"
	"github.com/dukex/bundlegen/pkg/services"
	"github.com/dukex/bundlegen/pkg/workspace"
)

var errMissingArgument = errors.New("missing required argument")

func newBundleService(cmd *cli.Command) *services.Bundle {
	log.Setup(cmd.String("log-level"))

	client := workspace.NewRestClient(
		cmd.String("workspace-host"),
		cmd.String("workspace-token"),
	)

	var store persistence.Persistence
	if root := cmd.String("store"); root != "" {
		store = file.NewPersistence(root)
	}

	return services.NewBundle(client, store, nil)
}

func listWorkflows(ctx context.Context, cmd *cli.Command) error {
	service := newBundleService(cmd)

	workflows, err := service.ListWorkflows(ctx, cmd.Int("limit"))
	if err != nil {
		return err
	}

	return printWorkflows(os.Stdout, workflows)
}

func printWorkflows(w io.Writer, workflows []workspace.JobSummary) error {
	for _, workflow := range workflows {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", workflow.JobID, workflow.Name, workflow.CreatorUserName); err != nil {
			return err
		}
	}

	return nil
}

func showWorkflow(ctx context.Context, cmd *cli.Command) error {
	workflowID := cmd.Args().First()
	if workflowID == "" {
		return fmt.Errorf("%w: workflow id", errMissingArgument)
	}

	service := newBundleService(cmd)

	workflow, err := service.GetWorkflow(ctx, workflowID)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(workflow)
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(out)

	return err
}

func generateBundle(ctx context.Context, cmd *cli.Command) error {
	workflowID := cmd.Args().First()
	if workflowID == "" {
		return fmt.Errorf("%w: workflow id", errMissingArgument)
	}

	service := newBundleService(cmd)

	resp, err := service.Generate(ctx, services.GenerateRequest{
		WorkflowID:          workflowID,
		BundleName:          cmd.String("name"),
		TargetEnvironment:   cmd.String("target"),
		IncludeDependencies: cmd.Bool("include-dependencies"),
		ResourcesOnly:       cmd.Bool("resources-only"),
	})
	if err != nil {
		if resp != nil {
			printFindings(os.Stderr, resp.Result.Findings)
		}

		return err
	}

	printFindings(os.Stderr, resp.Result.Findings)

	if cmd.String("store") != "" {
		if _, err := service.SaveBundle(ctx, resp); err != nil {
			return err
		}
	}

	if path := cmd.String("upload"); path != "" {
		if err := service.UploadBundle(ctx, path, resp.Text); err != nil {
			return err
		}
	}

	if output := cmd.String("output"); output != "" {
		return os.WriteFile(output, []byte(resp.Text), 0o644)
	}

	_, err = fmt.Fprint(os.Stdout, resp.Text)

	return err
}

func validateBundle(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("%w: bundle file", errMissingArgument)
	}

	log.Setup(cmd.String("log-level"))

	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	service := services.NewBundle(nil, nil, nil)

	result, err := service.ValidateDocument(ctx, string(content))
	if err != nil {
		if line, column, ok := services.ParseLocation(err); ok {
			return fmt.Errorf("%s:%d:%d: %w", path, line, column, err)
		}

		return err
	}

	printFindings(os.Stderr, result.Findings)

	if !result.Valid() {
		return fmt.Errorf("%s: bundle is invalid (%d errors)", path, len(result.Errors()))
	}

	fmt.Fprintf(os.Stdout, "%s: bundle is valid\n", path)

	return nil
}

func printFindings(w io.Writer, findings []bundle.Finding) {
	for _, finding := range findings {
		fmt.Fprintf(w, "%s\t%s\t%s: %s\n", finding.Severity, finding.Code, finding.Path, finding.Message)
	}
}
