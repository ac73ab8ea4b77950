package bundle

import (
	"time"

	"github.com/dukex/bundlegen/pkg/models"
)

// GeneratorVersion is stamped into every document's metadata so downstream
// tooling can detect stale or foreign documents.
const GeneratorVersion = "bundlegen/1.0.0"

// Config selects what Build produces. GeneratedAt is supplied by the caller
// rather than read from the clock, keeping Build a pure function of its
// arguments.
type Config struct {
	BundleName          string    `json:"bundle_name"        validate:"required"`
	TargetEnvironment   string    `json:"target_environment" validate:"required"`
	IncludeDependencies bool      `json:"include_dependencies"`
	GeneratedAt         time.Time `json:"generated_at"`
}

// GitSpec parameterizes the bundle's source repository.
type GitSpec struct {
	OriginURL string `yaml:"origin_url,omitempty" json:"origin_url,omitempty"`
	Branch    string `yaml:"branch,omitempty"     json:"branch,omitempty"`
}

// BundleSpec is the document's identity section.
type BundleSpec struct {
	Name        string   `yaml:"name"                  json:"name" validate:"required"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Git         *GitSpec `yaml:"git,omitempty"         json:"git,omitempty"`
}

// Variable is a named, defaultable deployment input.
type Variable struct {
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Default     string `yaml:"default,omitempty"     json:"default,omitempty"`
}

// TargetUser pins the deploying user inside a target workspace.
type TargetUser struct {
	UserName string `yaml:"user_name,omitempty" json:"user_name,omitempty"`
}

// TargetWorkspace points a target at a concrete workspace.
type TargetWorkspace struct {
	Host        string      `yaml:"host,omitempty"         json:"host,omitempty"`
	CurrentUser *TargetUser `yaml:"current_user,omitempty" json:"current_user,omitempty"`
}

// Target describes one deployment environment.
type Target struct {
	Mode      string              `yaml:"mode,omitempty"      json:"mode,omitempty"`
	Default   bool                `yaml:"default,omitempty"   json:"default,omitempty"`
	Workspace *TargetWorkspace    `yaml:"workspace,omitempty" json:"workspace,omitempty"`
	Variables map[string]Variable `yaml:"variables,omitempty" json:"variables,omitempty"`
}

// TaskDependency is one upstream edge of a task resource.
type TaskDependency struct {
	TaskKey string `yaml:"task_key" json:"task_key"`
}

// JobClusterResource is a shared cluster entry inside a job resource,
// referenced from tasks by key.
type JobClusterResource struct {
	JobClusterKey string              `yaml:"job_cluster_key" json:"job_cluster_key"`
	NewCluster    *models.ClusterSpec `yaml:"new_cluster"     json:"new_cluster"`
}

// TaskResource is the emitted form of a workflow task. DependsOn preserves
// the source workflow's edge order; topological order is never used to
// resequence it.
type TaskResource struct {
	TaskKey     string           `yaml:"task_key"              json:"task_key"`
	Description string           `yaml:"description,omitempty" json:"description,omitempty"`
	DependsOn   []TaskDependency `yaml:"depends_on,omitempty"  json:"depends_on,omitempty"`

	JobClusterKey     string              `yaml:"job_cluster_key,omitempty"     json:"job_cluster_key,omitempty"`
	ExistingClusterID string              `yaml:"existing_cluster_id,omitempty" json:"existing_cluster_id,omitempty"`
	NewCluster        *models.ClusterSpec `yaml:"new_cluster,omitempty"         json:"new_cluster,omitempty"`

	Libraries []models.Library `yaml:"libraries,omitempty" json:"libraries,omitempty"`

	TimeoutSeconds         int  `yaml:"timeout_seconds,omitempty"           json:"timeout_seconds,omitempty"`
	MaxRetries             int  `yaml:"max_retries,omitempty"               json:"max_retries,omitempty"`
	MinRetryIntervalMillis int  `yaml:"min_retry_interval_millis,omitempty" json:"min_retry_interval_millis,omitempty"`
	RetryOnTimeout         bool `yaml:"retry_on_timeout,omitempty"          json:"retry_on_timeout,omitempty"`

	Notebook    *models.NotebookTask    `yaml:"notebook_task,omitempty"     json:"notebook_task,omitempty"`
	SparkPython *models.SparkPythonTask `yaml:"spark_python_task,omitempty" json:"spark_python_task,omitempty"`
	PythonWheel *models.PythonWheelTask `yaml:"python_wheel_task,omitempty" json:"python_wheel_task,omitempty"`
	SparkJar    *models.SparkJarTask    `yaml:"spark_jar_task,omitempty"    json:"spark_jar_task,omitempty"`
	SparkSubmit *models.SparkSubmitTask `yaml:"spark_submit_task,omitempty" json:"spark_submit_task,omitempty"`
	Pipeline    *models.PipelineTask    `yaml:"pipeline_task,omitempty"     json:"pipeline_task,omitempty"`
	SQL         *models.SQLTask         `yaml:"sql_task,omitempty"          json:"sql_task,omitempty"`
}

// EmailNotificationsResource is the emitted form of job email notifications.
type EmailNotificationsResource struct {
	OnStart               []string `yaml:"on_start,omitempty"   json:"on_start,omitempty"`
	OnSuccess             []string `yaml:"on_success,omitempty" json:"on_success,omitempty"`
	OnFailure             []string `yaml:"on_failure,omitempty" json:"on_failure,omitempty"`
	NoAlertForSkippedRuns bool     `yaml:"no_alert_for_skipped_runs,omitempty" json:"no_alert_for_skipped_runs,omitempty"`
}

// WebhookResource references a notification destination by id.
type WebhookResource struct {
	ID string `yaml:"id" json:"id"`
}

// WebhookNotificationsResource is the emitted form of job webhook
// notifications.
type WebhookNotificationsResource struct {
	OnStart   []WebhookResource `yaml:"on_start,omitempty"   json:"on_start,omitempty"`
	OnSuccess []WebhookResource `yaml:"on_success,omitempty" json:"on_success,omitempty"`
	OnFailure []WebhookResource `yaml:"on_failure,omitempty" json:"on_failure,omitempty"`
}

// PermissionResource grants an access level to a principal on the deployed
// job.
type PermissionResource struct {
	Level     string `yaml:"level"     json:"level"`
	Principal string `yaml:"principal" json:"principal"`
}

// ScheduleResource is the emitted form of a workflow schedule.
type ScheduleResource struct {
	QuartzCronExpression string `yaml:"quartz_cron_expression" json:"quartz_cron_expression"`
	TimezoneID           string `yaml:"timezone_id"            json:"timezone_id"`
	PauseStatus          string `yaml:"pause_status,omitempty" json:"pause_status,omitempty"`
}

// JobResource is one job entry under resources.jobs.
type JobResource struct {
	Name              string               `yaml:"name"                          json:"name"`
	Description       string               `yaml:"description,omitempty"         json:"description,omitempty"`
	Tags              map[string]string    `yaml:"tags,omitempty"                json:"tags,omitempty"`
	TimeoutSeconds    int                  `yaml:"timeout_seconds,omitempty"     json:"timeout_seconds,omitempty"`
	MaxConcurrentRuns int                  `yaml:"max_concurrent_runs,omitempty" json:"max_concurrent_runs,omitempty"`

	EmailNotifications   *EmailNotificationsResource   `yaml:"email_notifications,omitempty"   json:"email_notifications,omitempty"`
	WebhookNotifications *WebhookNotificationsResource `yaml:"webhook_notifications,omitempty" json:"webhook_notifications,omitempty"`
	Permissions          []PermissionResource          `yaml:"permissions,omitempty"           json:"permissions,omitempty"`

	Schedule *ScheduleResource `yaml:"schedule,omitempty" json:"schedule,omitempty"`
	JobClusters       []JobClusterResource `yaml:"job_clusters,omitempty"        json:"job_clusters,omitempty"`
	Tasks             []TaskResource       `yaml:"tasks,omitempty"               json:"tasks,omitempty"`
}

// Resources maps resource kind to named resource bodies.
type Resources struct {
	Jobs map[string]*JobResource `yaml:"jobs" json:"jobs"`
}

// Dependencies lists the library coordinates pulled into the bundle when
// dependency inclusion was requested, deduplicated and sorted.
type Dependencies struct {
	Libraries []string `yaml:"libraries" json:"libraries"`
}

// Metadata stamps provenance into the document.
type Metadata struct {
	GeneratedAt      time.Time `yaml:"generated_at"       json:"generated_at"`
	SourceWorkflowID string    `yaml:"source_workflow_id" json:"source_workflow_id"`
	GeneratorVersion string    `yaml:"generator_version"  json:"generator_version"`
}

// Document is the declarative, version-controllable descriptor produced from
// a workflow. Documents are built fresh per generation request and never
// mutated in place.
type Document struct {
	Bundle       *BundleSpec         `yaml:"bundle,omitempty"       json:"bundle,omitempty"`
	Variables    map[string]Variable `yaml:"variables,omitempty"    json:"variables,omitempty"`
	Targets      map[string]Target   `yaml:"targets,omitempty"      json:"targets,omitempty"`
	Resources    Resources           `yaml:"resources"              json:"resources"`
	Dependencies *Dependencies       `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	Metadata     Metadata            `yaml:"metadata"               json:"metadata"`
}
