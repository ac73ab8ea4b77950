// Package workspace implements the remote workspace API client used to
// discover job definitions and write generated bundles back.
package workspace

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dukex/bundlegen/pkg/models"
)

const defaultTimeout = 30 * time.Second

// Client is the surface the bundle service depends on. Implementations must
// be safe for concurrent use.
type Client interface {
	// CurrentUser returns the user name the client is authenticated as.
	CurrentUser(ctx context.Context) (string, error)

	// ListJobs returns summaries of up to limit jobs in the workspace.
	ListJobs(ctx context.Context, limit int) ([]JobSummary, error)

	// GetJob fetches a full job definition and maps it into an immutable
	// workflow snapshot.
	GetJob(ctx context.Context, jobID string) (*models.Workflow, error)

	// UploadFile writes content to a workspace path, creating parent
	// directories as needed and overwriting any existing file.
	UploadFile(ctx context.Context, path string, content []byte) error

	// Host returns the workspace base URL the client talks to.
	Host() string
}

// JobSummary is the listing view of a job, enough to drive selection.
type JobSummary struct {
	JobID           string    `json:"job_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	CreatorUserName string    `json:"creator_user_name,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
	TaskCount       int       `json:"task_count"`
	HasSchedule     bool      `json:"has_schedule"`
}

// RestClient talks to the workspace REST API with bearer-token auth.
type RestClient struct {
	http *resty.Client
	host string
}

var _ Client = (*RestClient)(nil)

// NewRestClient creates a workspace client for the given host and token. The
// caller sources both explicitly (flags or environment); nothing here reads
// ambient process state.
func NewRestClient(host, token string) *RestClient {
	http := resty.New().
		SetBaseURL(host).
		SetAuthToken(token).
		SetTimeout(defaultTimeout).
		SetHeader("Accept", "application/json")

	return &RestClient{http: http, host: host}
}

func (c *RestClient) Host() string {
	return c.host
}

type currentUserResponse struct {
	UserName string `json:"userName"`
}

func (c *RestClient) CurrentUser(ctx context.Context) (string, error) {
	var user currentUserResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&user).
		Get("/api/2.0/preview/scim/v2/Me")
	if err != nil {
		return "", fmt.Errorf("get current user: %w", err)
	}

	if resp.IsError() {
		return "", apiError("CurrentUser", resp)
	}

	return user.UserName, nil
}

// jobsListResponse mirrors the jobs list API payload.
type jobsListResponse struct {
	Jobs    []jobEnvelope `json:"jobs"`
	HasMore bool          `json:"has_more"`
}

type jobEnvelope struct {
	JobID             int64                `json:"job_id"`
	CreatorUserName   string               `json:"creator_user_name"`
	CreatedTime       int64                `json:"created_time"`
	Settings          *models.Workflow     `json:"settings"`
	AccessControlList []accessControlEntry `json:"access_control_list,omitempty"`
}

// accessControlEntry is one grant in the job's access control list. Exactly
// one of the principal fields is set per entry.
type accessControlEntry struct {
	UserName             string `json:"user_name,omitempty"`
	GroupName            string `json:"group_name,omitempty"`
	ServicePrincipalName string `json:"service_principal_name,omitempty"`
	PermissionLevel      string `json:"permission_level"`
}

func (e accessControlEntry) principal() string {
	switch {
	case e.UserName != "":
		return e.UserName
	case e.GroupName != "":
		return e.GroupName
	default:
		return e.ServicePrincipalName
	}
}

func (c *RestClient) ListJobs(ctx context.Context, limit int) ([]JobSummary, error) {
	if limit <= 0 {
		limit = 100
	}

	var list jobsListResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetQueryParam("expand_tasks", "true").
		SetResult(&list).
		Get("/api/2.1/jobs/list")
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	if resp.IsError() {
		return nil, apiError("ListJobs", resp)
	}

	summaries := make([]JobSummary, 0, len(list.Jobs))

	for _, job := range list.Jobs {
		summary := JobSummary{
			JobID:           strconv.FormatInt(job.JobID, 10),
			CreatorUserName: job.CreatorUserName,
		}

		if job.CreatedTime > 0 {
			summary.CreatedAt = time.UnixMilli(job.CreatedTime).UTC()
		}

		if job.Settings != nil {
			summary.Name = job.Settings.Name
			summary.Description = job.Settings.Description
			summary.TaskCount = len(job.Settings.Tasks)
			summary.HasSchedule = job.Settings.Schedule != nil
		}

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

func (c *RestClient) GetJob(ctx context.Context, jobID string) (*models.Workflow, error) {
	var job jobEnvelope

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("job_id", jobID).
		SetResult(&job).
		Get("/api/2.1/jobs/get")
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", jobID, err)
	}

	if resp.IsError() {
		return nil, apiError("GetJob", resp)
	}

	if job.Settings == nil {
		return nil, &APIError{Op: "GetJob", StatusCode: resp.StatusCode(), Code: "EMPTY_SETTINGS", Message: "job has no settings"}
	}

	workflow := job.Settings
	workflow.ID = strconv.FormatInt(job.JobID, 10)
	workflow.CreatorUserName = job.CreatorUserName

	if job.CreatedTime > 0 {
		workflow.CreatedAt = time.UnixMilli(job.CreatedTime).UTC()
	}

	for _, entry := range job.AccessControlList {
		if principal := entry.principal(); principal != "" {
			workflow.Permissions = append(workflow.Permissions, models.Permission{
				Principal: principal,
				Level:     models.PermissionLevel(entry.PermissionLevel),
			})
		}
	}

	return workflow, nil
}

// ObjectStatus describes a workspace path, as returned by GetStatus.
type ObjectStatus struct {
	Path       string `json:"path"`
	ObjectType string `json:"object_type"`
	ObjectID   int64  `json:"object_id"`
}

// GetStatus reports whether a workspace path exists and what it is.
func (c *RestClient) GetStatus(ctx context.Context, path string) (*ObjectStatus, error) {
	var status ObjectStatus

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("path", path).
		SetResult(&status).
		Get("/api/2.0/workspace/get-status")
	if err != nil {
		return nil, fmt.Errorf("get status %s: %w", path, err)
	}

	if resp.IsError() {
		return nil, apiError("GetStatus", resp)
	}

	return &status, nil
}

func (c *RestClient) UploadFile(ctx context.Context, path string, content []byte) error {
	if err := c.mkdirs(ctx, parentDir(path)); err != nil {
		return err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"path":      path,
			"content":   base64.StdEncoding.EncodeToString(content),
			"format":    "AUTO",
			"overwrite": true,
		}).
		Post("/api/2.0/workspace/import")
	if err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}

	if resp.IsError() {
		return apiError("UploadFile", resp)
	}

	return nil
}

func (c *RestClient) mkdirs(ctx context.Context, dir string) error {
	if dir == "" || dir == "/" {
		return nil
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"path": dir}).
		Post("/api/2.0/workspace/mkdirs")
	if err != nil {
		return fmt.Errorf("mkdirs %s: %w", dir, err)
	}

	if resp.IsError() {
		return apiError("Mkdirs", resp)
	}

	return nil
}

func parentDir(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}

	return ""
}
