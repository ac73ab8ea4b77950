package models

import "errors"

// TaskType identifies the payload variant carried by a task. The set is
// closed so builders and validators can switch exhaustively over it.
type TaskType string

const (
	TaskTypeNotebook    TaskType = "notebook"
	TaskTypeSparkPython TaskType = "spark_python"
	TaskTypePythonWheel TaskType = "python_wheel"
	TaskTypeSparkJar    TaskType = "spark_jar"
	TaskTypeSparkSubmit TaskType = "spark_submit"
	TaskTypePipeline    TaskType = "pipeline"
	TaskTypeSQL         TaskType = "sql"
	TaskTypeUnknown     TaskType = ""
)

// ErrAmbiguousTaskPayload is returned when a task carries more than one
// type-specific payload.
var ErrAmbiguousTaskPayload = errors.New("task defines more than one payload")

// NotebookTask runs a workspace notebook.
type NotebookTask struct {
	NotebookPath   string            `yaml:"notebook_path"             json:"notebook_path" validate:"required"`
	Source         string            `yaml:"source,omitempty"          json:"source,omitempty"`
	BaseParameters map[string]string `yaml:"base_parameters,omitempty" json:"base_parameters,omitempty"`
}

// SparkPythonTask runs a python file on a cluster.
type SparkPythonTask struct {
	PythonFile string   `yaml:"python_file"          json:"python_file" validate:"required"`
	Source     string   `yaml:"source,omitempty"     json:"source,omitempty"`
	Parameters []string `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// PythonWheelTask runs an entry point of an installed wheel package.
type PythonWheelTask struct {
	PackageName     string            `yaml:"package_name"               json:"package_name" validate:"required"`
	EntryPoint      string            `yaml:"entry_point"                json:"entry_point"  validate:"required"`
	Parameters      []string          `yaml:"parameters,omitempty"       json:"parameters,omitempty"`
	NamedParameters map[string]string `yaml:"named_parameters,omitempty" json:"named_parameters,omitempty"`
}

// SparkJarTask runs the main class of a jar.
type SparkJarTask struct {
	MainClassName string   `yaml:"main_class_name"      json:"main_class_name" validate:"required"`
	Parameters    []string `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// SparkSubmitTask runs a raw spark-submit invocation.
type SparkSubmitTask struct {
	Parameters []string `yaml:"parameters" json:"parameters" validate:"required,min=1"`
}

// PipelineTask triggers a pipeline refresh.
type PipelineTask struct {
	PipelineID  string `yaml:"pipeline_id"            json:"pipeline_id" validate:"required"`
	FullRefresh bool   `yaml:"full_refresh,omitempty" json:"full_refresh,omitempty"`
}

// SQLTask runs a saved query, dashboard or alert on a SQL warehouse.
type SQLTask struct {
	WarehouseID string            `yaml:"warehouse_id"         json:"warehouse_id" validate:"required"`
	Query       string            `yaml:"query,omitempty"      json:"query,omitempty"`
	Dashboard   string            `yaml:"dashboard,omitempty"  json:"dashboard,omitempty"`
	Alert       string            `yaml:"alert,omitempty"      json:"alert,omitempty"`
	Parameters  map[string]string `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// Task is one unit of work inside a workflow. The common envelope (key,
// upstream dependencies, cluster attachment, libraries, retry knobs) is shared
// by all variants; exactly one payload pointer is set and Type reports which.
type Task struct {
	Key         string   `json:"task_key" validate:"required"`
	Description string   `json:"description,omitempty"`
	DependsOn   []string `json:"depends_on,omitempty"`

	// Cluster attachment: a shared job-cluster key, an existing cluster id,
	// or an inline spec. At most one is set.
	JobClusterKey     string       `json:"job_cluster_key,omitempty"`
	ExistingClusterID string       `json:"existing_cluster_id,omitempty"`
	NewCluster        *ClusterSpec `json:"new_cluster,omitempty"`

	Libraries []Library `json:"libraries,omitempty"`

	TimeoutSeconds         int  `json:"timeout_seconds,omitempty"`
	MaxRetries             int  `json:"max_retries,omitempty"`
	MinRetryIntervalMillis int  `json:"min_retry_interval_millis,omitempty"`
	RetryOnTimeout         bool `json:"retry_on_timeout,omitempty"`

	Notebook    *NotebookTask    `json:"notebook_task,omitempty"`
	SparkPython *SparkPythonTask `json:"spark_python_task,omitempty"`
	PythonWheel *PythonWheelTask `json:"python_wheel_task,omitempty"`
	SparkJar    *SparkJarTask    `json:"spark_jar_task,omitempty"`
	SparkSubmit *SparkSubmitTask `json:"spark_submit_task,omitempty"`
	Pipeline    *PipelineTask    `json:"pipeline_task,omitempty"`
	SQL         *SQLTask         `json:"sql_task,omitempty"`
}

// Type returns the variant tag for the single payload set on the task, or
// TaskTypeUnknown when none is set. Payloads are checked in a fixed order;
// use CheckPayload to detect tasks carrying more than one.
func (t *Task) Type() TaskType {
	switch {
	case t.Notebook != nil:
		return TaskTypeNotebook
	case t.SparkPython != nil:
		return TaskTypeSparkPython
	case t.PythonWheel != nil:
		return TaskTypePythonWheel
	case t.SparkJar != nil:
		return TaskTypeSparkJar
	case t.SparkSubmit != nil:
		return TaskTypeSparkSubmit
	case t.Pipeline != nil:
		return TaskTypePipeline
	case t.SQL != nil:
		return TaskTypeSQL
	default:
		return TaskTypeUnknown
	}
}

// CheckPayload verifies that at most one type-specific payload is set.
func (t *Task) CheckPayload() error {
	count := 0

	for _, set := range []bool{
		t.Notebook != nil,
		t.SparkPython != nil,
		t.PythonWheel != nil,
		t.SparkJar != nil,
		t.SparkSubmit != nil,
		t.Pipeline != nil,
		t.SQL != nil,
	} {
		if set {
			count++
		}
	}

	if count > 1 {
		return ErrAmbiguousTaskPayload
	}

	return nil
}

// HasClusterSpec reports whether this task type runs on a cluster it
// declares itself (as opposed to, e.g., pipeline and SQL tasks).
func (t TaskType) HasClusterSpec() bool {
	switch t {
	case TaskTypeNotebook, TaskTypeSparkPython, TaskTypePythonWheel, TaskTypeSparkJar, TaskTypeSparkSubmit:
		return true
	case TaskTypePipeline, TaskTypeSQL, TaskTypeUnknown:
		return false
	default:
		return false
	}
}

// HasLibraryRefs reports whether library references are meaningful for this
// task type.
func (t TaskType) HasLibraryRefs() bool {
	return t.HasClusterSpec()
}
