// Package web provides HTTP request and response types for the bundle API.
package web

import (
	"github.com/dukex/bundlegen/pkg/bundle"
	"github.com/dukex/bundlegen/pkg/persistence"
)

// GenerateBundleRequest represents the request body for generating a bundle
// from a workspace workflow.
type GenerateBundleRequest struct {
	WorkflowID          string `json:"workflow_id"          validate:"required"`
	BundleName          string `json:"bundle_name"          validate:"required,min=1"`
	TargetEnvironment   string `json:"target_environment"`
	IncludeDependencies bool   `json:"include_dependencies"`
	ResourcesOnly       bool   `json:"resources_only"`
	Save                bool   `json:"save"`
}

// ValidateBundleRequest represents the request body for validating bundle text.
type ValidateBundleRequest struct {
	Content string `json:"content" validate:"required"`
}

// GenerateBundleResponse is the API shape of a generation result.
type GenerateBundleResponse struct {
	BundleName string           `json:"bundle_name"`
	Content    string           `json:"content"`
	Findings   []bundle.Finding `json:"findings"`
	Saved      bool             `json:"saved,omitempty"`
}

// ValidateBundleResponse reports the findings for submitted bundle text.
type ValidateBundleResponse struct {
	Valid    bool             `json:"valid"`
	Findings []bundle.Finding `json:"findings"`
}

// StoredBundleResponse is the listing view of a stored bundle, without the
// full content payload.
type StoredBundleResponse struct {
	Name              string `json:"name"`
	TargetEnvironment string `json:"target_environment"`
	WorkflowID        string `json:"workflow_id"`
	GeneratedAt       string `json:"generated_at"`
	SavedAt           string `json:"saved_at"`
}

// TransformStoredBundleResponse strips the content from a stored bundle for
// listing endpoints.
func TransformStoredBundleResponse(stored *persistence.StoredBundle) StoredBundleResponse {
	return StoredBundleResponse{
		Name:              stored.Name,
		TargetEnvironment: stored.TargetEnvironment,
		WorkflowID:        stored.WorkflowID,
		GeneratedAt:       stored.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
		SavedAt:           stored.SavedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
