// Package file provides a file-based bundle store, one JSON record per bundle.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/dukex/bundlegen/pkg/persistence"
)

var storageNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root       string
	bundleRepo *BundleRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:       cleanRoot,
		bundleRepo: NewBundleRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks the file persistence layer by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) BundleRepository() persistence.BundleRepository {
	return fp.bundleRepo
}

// BundleRepository stores bundles as <root>/<name>.json.
type BundleRepository struct {
	root string
}

func NewBundleRepository(root string) *BundleRepository {
	return &BundleRepository{root: root}
}

func (r *BundleRepository) path(name string) string {
	return filepath.Join(r.root, name+".json")
}

func (r *BundleRepository) Save(_ context.Context, bundle *persistence.StoredBundle) error {
	if !storageNamePattern.MatchString(bundle.Name) {
		return persistence.NewBundleError("Save", bundle.Name, persistence.ErrInvalidBundleName)
	}

	if err := os.MkdirAll(r.root, 0o755); err != nil {
		return persistence.NewBundleError("Save", bundle.Name, err)
	}

	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return persistence.NewBundleError("Save", bundle.Name, err)
	}

	if err := os.WriteFile(r.path(bundle.Name), data, 0o644); err != nil {
		return persistence.NewBundleError("Save", bundle.Name, err)
	}

	return nil
}

func (r *BundleRepository) GetByName(_ context.Context, name string) (*persistence.StoredBundle, error) {
	if !storageNamePattern.MatchString(name) {
		return nil, persistence.NewBundleError("GetByName", name, persistence.ErrInvalidBundleName)
	}

	data, err := os.ReadFile(r.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewBundleError("GetByName", name, persistence.ErrBundleNotFound)
		}

		return nil, persistence.NewBundleError("GetByName", name, err)
	}

	var bundle persistence.StoredBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, persistence.NewBundleError("GetByName", name, fmt.Errorf("corrupt bundle record: %w", err))
	}

	return &bundle, nil
}

func (r *BundleRepository) List(_ context.Context) ([]*persistence.StoredBundle, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, persistence.NewBundleError("List", "", err)
	}

	var bundles []*persistence.StoredBundle

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(r.root, entry.Name()))
		if err != nil {
			return nil, persistence.NewBundleError("List", entry.Name(), err)
		}

		var bundle persistence.StoredBundle
		if err := json.Unmarshal(data, &bundle); err != nil {
			// Skip records other tools may have dropped into the directory.
			continue
		}

		bundles = append(bundles, &bundle)
	}

	sort.Slice(bundles, func(i, j int) bool {
		return bundles[i].Name < bundles[j].Name
	})

	return bundles, nil
}

func (r *BundleRepository) Delete(_ context.Context, name string) error {
	if !storageNamePattern.MatchString(name) {
		return persistence.NewBundleError("Delete", name, persistence.ErrInvalidBundleName)
	}

	if err := os.Remove(r.path(name)); err != nil {
		if os.IsNotExist(err) {
			return persistence.NewBundleError("Delete", name, persistence.ErrBundleNotFound)
		}

		return persistence.NewBundleError("Delete", name, err)
	}

	return nil
}
