// Package persistence defines the storage contract for generated bundles.
package persistence

import (
	"context"
	"time"
)

// StoredBundle is a generated bundle kept for later download or comparison.
type StoredBundle struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	TargetEnvironment string    `json:"target_environment"`
	WorkflowID        string    `json:"workflow_id"`
	GeneratedAt       time.Time `json:"generated_at"`
	SavedAt           time.Time `json:"saved_at"`
	Content           string    `json:"content"`
}

// BundleRepository stores and retrieves generated bundles by name.
type BundleRepository interface {
	Save(ctx context.Context, bundle *StoredBundle) error
	GetByName(ctx context.Context, name string) (*StoredBundle, error)
	List(ctx context.Context) ([]*StoredBundle, error)
	Delete(ctx context.Context, name string) error
}

// Persistence aggregates the repositories an application wires up.
type Persistence interface {
	BundleRepository() BundleRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
