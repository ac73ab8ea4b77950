// Package services orchestrates workspace discovery, bundle generation and storage.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dukex/bundlegen/pkg/bundle"
	"github.com/dukex/bundlegen/pkg/models"
	"github.com/dukex/bundlegen/pkg/otelhelper"
	"github.com/dukex/bundlegen/pkg/persistence"
	"github.com/dukex/bundlegen/pkg/workspace"
)

// Bundle is the application service behind both the CLI and the HTTP API. The
// transformation core stays pure; everything ambient (clock, workspace
// client, store, tracer) is injected here.
type Bundle struct {
	client   workspace.Client
	store    persistence.Persistence
	tracer   trace.Tracer
	validate *validator.Validate
	now      func() time.Time
}

// NewBundle creates a new bundle service. The store may be nil when bundle
// storage is not configured.
func NewBundle(client workspace.Client, store persistence.Persistence, tracer trace.Tracer) *Bundle {
	if tracer == nil {
		tracer = otelhelper.NoopTracer()
	}

	return &Bundle{
		client:   client,
		store:    store,
		tracer:   tracer,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *Bundle) HealthCheck(ctx context.Context) (string, bool) {
	if s.store == nil {
		return "Bundle store not configured", true
	}

	if err := s.store.HealthCheck(ctx); err != nil {
		return "Bundle store is unhealthy: " + err.Error(), false
	}

	return "Bundle store is healthy", true
}

// ListWorkflows returns up to limit workflow summaries from the workspace.
func (s *Bundle) ListWorkflows(ctx context.Context, limit int) ([]workspace.JobSummary, error) {
	summaries, err := s.client.ListJobs(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return summaries, nil
}

// GetWorkflow fetches one workflow snapshot by id.
func (s *Bundle) GetWorkflow(ctx context.Context, workflowID string) (*models.Workflow, error) {
	if workflowID == "" {
		return nil, NewValidationError("GetWorkflow", "EMPTY_WORKFLOW_ID", "workflow id is required", ErrInvalidRequest)
	}

	workflow, err := s.client.GetJob(ctx, workflowID)
	if err != nil {
		if workspace.IsNotFound(err) {
			return nil, &ServiceError{Op: "GetWorkflow", Code: "WORKFLOW_NOT_FOUND", Err: ErrWorkflowNotFound}
		}

		return nil, fmt.Errorf("failed to get workflow %s: %w", workflowID, err)
	}

	return workflow, nil
}

// GenerateRequest describes one bundle generation.
type GenerateRequest struct {
	WorkflowID          string `json:"workflow_id"        validate:"required"`
	BundleName          string `json:"bundle_name"        validate:"required"`
	TargetEnvironment   string `json:"target_environment"`
	IncludeDependencies bool   `json:"include_dependencies"`
	ResourcesOnly       bool   `json:"resources_only"`
}

// GenerateResponse carries the generated document, its rendered text and the
// validation findings. Warnings do not block generation; errors do.
type GenerateResponse struct {
	Document *bundle.Document `json:"-"`
	Text     string           `json:"text"`
	Result   bundle.Result    `json:"result"`
}

// Generate fetches the workflow snapshot, builds and validates a bundle
// document, and renders it. Error-severity findings abort the generation with
// ErrValidationFailed; the findings are still returned so callers can render
// them.
func (s *Bundle) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, NewValidationError("Generate", "INVALID_REQUEST", err.Error(), ErrInvalidRequest)
	}

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "bundle.generate",
		attribute.String(otelhelper.WorkflowIDKey, req.WorkflowID),
		attribute.String(otelhelper.BundleNameKey, req.BundleName),
		attribute.String(otelhelper.TargetEnvKey, req.TargetEnvironment),
	)
	defer span.End()

	workflow, err := s.GetWorkflow(ctx, req.WorkflowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	span.SetAttributes(attribute.String(otelhelper.WorkflowNameKey, workflow.Name))

	config := bundle.BuildConfig{
		Config: bundle.Config{
			BundleName:          req.BundleName,
			TargetEnvironment:   req.TargetEnvironment,
			IncludeDependencies: req.IncludeDependencies,
			GeneratedAt:         s.now().UTC().Truncate(time.Second),
		},
		WorkspaceHost: s.client.Host(),
	}

	// Best effort; the document is still useful without the user pinned in.
	if user, userErr := s.client.CurrentUser(ctx); userErr == nil {
		config.CurrentUser = user
	}

	document, err := bundle.Build(workflow, config)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	result := bundle.Validate(document)
	span.SetAttributes(attribute.Int(otelhelper.FindingCountKey, len(result.Findings)))

	if !result.Valid() {
		err := &ServiceError{
			Op:      "Generate",
			Code:    "VALIDATION_FAILED",
			Message: fmt.Sprintf("document has %d error finding(s)", len(result.Errors())),
			Err:     bundle.ErrValidationFailed,
		}
		otelhelper.SetError(span, err)

		return &GenerateResponse{Document: document, Result: result}, err
	}

	var text string
	if req.ResourcesOnly {
		text, err = bundle.RenderResources(document)
	} else {
		text, err = bundle.Render(document)
	}

	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to render bundle: %w", err)
	}

	return &GenerateResponse{Document: document, Text: text, Result: result}, nil
}

// ValidateDocument parses and validates bundle text that may come from
// anywhere, not just our own generator.
func (s *Bundle) ValidateDocument(_ context.Context, text string) (bundle.Result, error) {
	document, err := bundle.Parse(text)
	if err != nil {
		return bundle.Result{}, err
	}

	return bundle.Validate(document), nil
}

// SaveBundle stores a generated bundle for later retrieval.
func (s *Bundle) SaveBundle(ctx context.Context, resp *GenerateResponse) (*persistence.StoredBundle, error) {
	if s.store == nil {
		return nil, &ServiceError{Op: "SaveBundle", Code: "STORE_NOT_CONFIGURED", Err: ErrStoreNotConfigured}
	}

	if resp == nil || resp.Document == nil || resp.Document.Bundle == nil {
		return nil, NewValidationError("SaveBundle", "EMPTY_BUNDLE", "no generated bundle to save", ErrInvalidRequest)
	}

	stored := &persistence.StoredBundle{
		ID:                uuid.New().String(),
		Name:              resp.Document.Bundle.Name,
		TargetEnvironment: targetOf(resp.Document),
		WorkflowID:        resp.Document.Metadata.SourceWorkflowID,
		GeneratedAt:       resp.Document.Metadata.GeneratedAt,
		SavedAt:           s.now().UTC(),
		Content:           resp.Text,
	}

	if err := s.store.BundleRepository().Save(ctx, stored); err != nil {
		return nil, fmt.Errorf("failed to save bundle: %w", err)
	}

	return stored, nil
}

// ListBundles returns the stored bundles, sorted by name.
func (s *Bundle) ListBundles(ctx context.Context) ([]*persistence.StoredBundle, error) {
	if s.store == nil {
		return nil, &ServiceError{Op: "ListBundles", Code: "STORE_NOT_CONFIGURED", Err: ErrStoreNotConfigured}
	}

	return s.store.BundleRepository().List(ctx)
}

// GetBundle returns one stored bundle by name.
func (s *Bundle) GetBundle(ctx context.Context, name string) (*persistence.StoredBundle, error) {
	if s.store == nil {
		return nil, &ServiceError{Op: "GetBundle", Code: "STORE_NOT_CONFIGURED", Err: ErrStoreNotConfigured}
	}

	return s.store.BundleRepository().GetByName(ctx, name)
}

// DeleteBundle removes one stored bundle by name.
func (s *Bundle) DeleteBundle(ctx context.Context, name string) error {
	if s.store == nil {
		return &ServiceError{Op: "DeleteBundle", Code: "STORE_NOT_CONFIGURED", Err: ErrStoreNotConfigured}
	}

	return s.store.BundleRepository().Delete(ctx, name)
}

// UploadBundle writes rendered bundle text to a workspace path.
func (s *Bundle) UploadBundle(ctx context.Context, path, text string) error {
	if path == "" {
		return NewValidationError("UploadBundle", "EMPTY_PATH", "workspace path is required", ErrInvalidRequest)
	}

	if err := s.client.UploadFile(ctx, path, []byte(text)); err != nil {
		return fmt.Errorf("failed to upload bundle to %s: %w", path, err)
	}

	return nil
}

// WithClock overrides the service clock, for tests.
func (s *Bundle) WithClock(now func() time.Time) *Bundle {
	s.now = now

	return s
}

func targetOf(document *bundle.Document) string {
	for name, target := range document.Targets {
		if target.Default {
			return name
		}
	}

	// Single-target documents without a default still have a primary target.
	if len(document.Targets) == 1 {
		for name := range document.Targets {
			return name
		}
	}

	return ""
}

// ParseLocation extracts the source location from a parse failure, when the
// error is one.
func ParseLocation(err error) (line, column int, ok bool) {
	var parseErr *bundle.ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Line, parseErr.Column, true
	}

	return 0, 0, false
}
