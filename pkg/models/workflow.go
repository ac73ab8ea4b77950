// Package models defines the core domain models for workspace jobs and their tasks.
package models

import "time"

// PauseStatus represents whether a job schedule is active.
type PauseStatus string

const (
	PauseStatusUnpaused PauseStatus = "UNPAUSED"
	PauseStatusPaused   PauseStatus = "PAUSED"
)

// Schedule is a quartz-cron trigger attached to a workflow.
type Schedule struct {
	QuartzCronExpression string      `json:"quartz_cron_expression" validate:"required"`
	TimezoneID           string      `json:"timezone_id"            validate:"required"`
	PauseStatus          PauseStatus `json:"pause_status,omitempty"`
}

// EmailNotifications lists addresses alerted on job lifecycle events.
type EmailNotifications struct {
	OnStart               []string `json:"on_start,omitempty"`
	OnSuccess             []string `json:"on_success,omitempty"`
	OnFailure             []string `json:"on_failure,omitempty"`
	NoAlertForSkippedRuns bool     `json:"no_alert_for_skipped_runs,omitempty"`
}

// Webhook references a notification destination registered in the workspace.
type Webhook struct {
	ID string `json:"id" validate:"required"`
}

// WebhookNotifications lists webhook destinations per job lifecycle event.
type WebhookNotifications struct {
	OnStart   []Webhook `json:"on_start,omitempty"`
	OnSuccess []Webhook `json:"on_success,omitempty"`
	OnFailure []Webhook `json:"on_failure,omitempty"`
}

// PermissionLevel is the access level granted to a principal on a workflow.
type PermissionLevel string

const (
	PermissionCanView      PermissionLevel = "CAN_VIEW"
	PermissionCanManageRun PermissionLevel = "CAN_MANAGE_RUN"
	PermissionCanManage    PermissionLevel = "CAN_MANAGE"
	PermissionIsOwner      PermissionLevel = "IS_OWNER"
)

// Permission grants an access level to a user, group or service principal.
type Permission struct {
	Principal string          `json:"principal" validate:"required"`
	Level     PermissionLevel `json:"level"     validate:"required,oneof=CAN_VIEW CAN_MANAGE_RUN CAN_MANAGE IS_OWNER"`
}

// JobCluster is a shared cluster definition reusable by several tasks in the
// same workflow, referenced by its key.
type JobCluster struct {
	JobClusterKey string       `json:"job_cluster_key" validate:"required"`
	NewCluster    *ClusterSpec `json:"new_cluster"     validate:"required"`
}

// Workflow is an immutable snapshot of a job definition discovered in the
// remote workspace. Snapshots are constructed once per discovery event and
// never mutated; bundle generation reads them concurrently without locking.
type Workflow struct {
	ID          string            `json:"id"   validate:"required"`
	Name        string            `json:"name" validate:"required"`
	Description string            `json:"description,omitempty"`
	Tasks       []*Task           `json:"tasks"`
	JobClusters []*JobCluster     `json:"job_clusters,omitempty"`
	Schedule    *Schedule         `json:"schedule,omitempty"`
	Permissions []Permission      `json:"permissions,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`

	EmailNotifications   *EmailNotifications   `json:"email_notifications,omitempty"`
	WebhookNotifications *WebhookNotifications `json:"webhook_notifications,omitempty"`

	MaxConcurrentRuns int       `json:"max_concurrent_runs,omitempty"`
	TimeoutSeconds    int       `json:"timeout_seconds,omitempty"`
	CreatorUserName   string    `json:"creator_user_name,omitempty"`
	CreatedAt         time.Time `json:"created_at,omitempty"`
}

// TaskByKey returns the task with the given key, or nil when absent.
func (w *Workflow) TaskByKey(key string) *Task {
	for _, task := range w.Tasks {
		if task.Key == key {
			return task
		}
	}

	return nil
}

// TaskKeys returns the keys of all tasks in declaration order.
func (w *Workflow) TaskKeys() []string {
	keys := make([]string, 0, len(w.Tasks))
	for _, task := range w.Tasks {
		keys = append(keys, task.Key)
	}

	return keys
}
