package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/bundlegen/pkg/models"
	"github.com/dukex/bundlegen/pkg/persistence/file"
	"github.com/dukex/bundlegen/pkg/services"
	"github.com/dukex/bundlegen/pkg/web"
	"github.com/dukex/bundlegen/pkg/workspace"
)

type stubClient struct {
	workflows map[string]*models.Workflow
}

func newStubClient() *stubClient {
	return &stubClient{
		workflows: map[string]*models.Workflow{
			"501": {
				ID:   "501",
				Name: "Daily ETL",
				Tasks: []*models.Task{
					{Key: "extract", Notebook: &models.NotebookTask{NotebookPath: "/jobs/extract"}},
					{Key: "load", DependsOn: []string{"extract"}, SparkPython: &models.SparkPythonTask{PythonFile: "load.py"}},
				},
			},
			"666": {
				ID:   "666",
				Name: "Cyclic",
				Tasks: []*models.Task{
					{Key: "p", DependsOn: []string{"q"}},
					{Key: "q", DependsOn: []string{"p"}},
				},
			},
		},
	}
}

func (c *stubClient) CurrentUser(_ context.Context) (string, error) {
	return "ops@example.com", nil
}

func (c *stubClient) ListJobs(_ context.Context, _ int) ([]workspace.JobSummary, error) {
	summaries := make([]workspace.JobSummary, 0, len(c.workflows))
	for id, workflow := range c.workflows {
		summaries = append(summaries, workspace.JobSummary{JobID: id, Name: workflow.Name})
	}

	return summaries, nil
}

func (c *stubClient) GetJob(_ context.Context, jobID string) (*models.Workflow, error) {
	workflow, ok := c.workflows[jobID]
	if !ok {
		return nil, &workspace.APIError{Op: "GetJob", StatusCode: 404, Code: "RESOURCE_DOES_NOT_EXIST"}
	}

	return workflow, nil
}

func (c *stubClient) UploadFile(_ context.Context, _ string, _ []byte) error {
	return nil
}

func (c *stubClient) Host() string {
	return "https://acme.cloud.example.com"
}

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	store := file.NewPersistence(t.TempDir())
	service := services.NewBundle(newStubClient(), store, nil).WithClock(func() time.Time {
		return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	})

	handlers := web.NewAPIHandlers(service, validator.New(validator.WithRequiredStructEnabled()))

	app := fiber.New()

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Get("/:id", handlers.GetWorkflow)

	b := app.Group("/bundles")
	b.Post("/generate", handlers.GenerateBundle)
	b.Post("/validate", handlers.ValidateBundle)
	b.Get("/", handlers.GetBundles)
	b.Get("/:name", handlers.GetBundle)
	b.Delete("/:name", handlers.DeleteBundle)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload any) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader

	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)

		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	return resp, out
}

func TestAPIHandlers_GetWorkflows(t *testing.T) {
	app := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/workflows/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Workflows []workspace.JobSummary `json:"workflows"`
		Count     int                    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, 2, out.Count)
	assert.Len(t, out.Workflows, 2)
}

func TestAPIHandlers_GetWorkflows_InvalidLimit(t *testing.T) {
	app := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/workflows/?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIHandlers_GetWorkflow(t *testing.T) {
	app := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/workflows/501", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var workflow models.Workflow
	require.NoError(t, json.Unmarshal(body, &workflow))
	assert.Equal(t, "Daily ETL", workflow.Name)
	assert.Len(t, workflow.Tasks, 2)
}

func TestAPIHandlers_GetWorkflow_NotFound(t *testing.T) {
	app := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/workflows/999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_GenerateBundle(t *testing.T) {
	app := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/bundles/generate", web.GenerateBundleRequest{
		WorkflowID: "501",
		BundleName: "daily-etl",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var out web.GenerateBundleResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "daily-etl", out.BundleName)
	assert.Contains(t, out.Content, "# Bundle: daily-etl")
	assert.False(t, out.Saved)
}

func TestAPIHandlers_GenerateBundle_AndSave(t *testing.T) {
	app := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/bundles/generate", web.GenerateBundleRequest{
		WorkflowID: "501",
		BundleName: "daily-etl",
		Save:       true,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var out web.GenerateBundleResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.True(t, out.Saved)

	resp, body = doJSON(t, app, http.MethodGet, "/bundles/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Bundles []web.StoredBundleResponse `json:"bundles"`
		Count   int                        `json:"count"`
	}
	require.NoError(t, json.Unmarshal(body, &listing))
	require.Equal(t, 1, listing.Count)
	assert.Equal(t, "daily-etl", listing.Bundles[0].Name)
	assert.Equal(t, "501", listing.Bundles[0].WorkflowID)
}

func TestAPIHandlers_GenerateBundle_MissingFields(t *testing.T) {
	app := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/bundles/generate", web.GenerateBundleRequest{
		WorkflowID: "501",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIHandlers_GenerateBundle_Cycle(t *testing.T) {
	app := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/bundles/generate", web.GenerateBundleRequest{
		WorkflowID: "666",
		BundleName: "cyclic",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestAPIHandlers_GenerateBundle_UnknownWorkflow(t *testing.T) {
	app := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/bundles/generate", web.GenerateBundleRequest{
		WorkflowID: "999",
		BundleName: "ghost",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_ValidateBundle(t *testing.T) {
	app := setupTestApp(t)

	// Generate a valid bundle first, then feed its content back in.
	_, body := doJSON(t, app, http.MethodPost, "/bundles/generate", web.GenerateBundleRequest{
		WorkflowID: "501",
		BundleName: "daily-etl",
	})

	var generated web.GenerateBundleResponse
	require.NoError(t, json.Unmarshal(body, &generated))

	resp, body := doJSON(t, app, http.MethodPost, "/bundles/validate", web.ValidateBundleRequest{
		Content: generated.Content,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out web.ValidateBundleResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.True(t, out.Valid)
}

func TestAPIHandlers_ValidateBundle_Malformed(t *testing.T) {
	app := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/bundles/validate", web.ValidateBundleRequest{
		Content: "resources:\n  jobs: [oops",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIHandlers_GetBundle_NotFound(t *testing.T) {
	app := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/bundles/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_DeleteBundle(t *testing.T) {
	app := setupTestApp(t)

	_, _ = doJSON(t, app, http.MethodPost, "/bundles/generate", web.GenerateBundleRequest{
		WorkflowID: "501",
		BundleName: "daily-etl",
		Save:       true,
	})

	resp, _ := doJSON(t, app, http.MethodDelete, "/bundles/daily-etl", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/bundles/daily-etl", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	app := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "healthy", out.Status)
}
