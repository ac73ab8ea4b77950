package bundle

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/robfig/cron/v3"
	"github.com/xeipuuv/gojsonschema"
)

// Severity classifies a validation finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is one validation violation, addressed by resource path.
type Finding struct {
	Severity Severity `json:"severity"`
	Path     string   `json:"path"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}

// Result is the outcome of validating a document. A document with no
// error-severity findings is emittable; warnings are advisory.
type Result struct {
	Findings []Finding `json:"findings"`
}

// Valid reports whether the result carries no error-severity findings.
func (r Result) Valid() bool {
	for _, finding := range r.Findings {
		if finding.Severity == SeverityError {
			return false
		}
	}

	return true
}

// Errors returns only the error-severity findings.
func (r Result) Errors() []Finding {
	var errs []Finding

	for _, finding := range r.Findings {
		if finding.Severity == SeverityError {
			errs = append(errs, finding)
		}
	}

	return errs
}

var (
	bundleNamePattern   = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	resourceNamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

	// Quartz-style expressions with 5 or 6 fields; '?' is accepted where the
	// workspace emits it.
	cronParser = cron.NewParser(
		cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
	)
)

// documentSchema is the structural contract a document must satisfy before
// the semantic checks run. Parsed documents may not originate from Build, so
// the shape is re-verified here rather than assumed.
const documentSchema = `{
	"type": "object",
	"required": ["resources", "metadata"],
	"properties": {
		"resources": {
			"type": "object",
			"properties": {
				"jobs": {
					"type": "object",
					"additionalProperties": {
						"type": "object",
						"required": ["name"],
						"properties": {
							"name": {"type": "string"},
							"tasks": {
								"type": "array",
								"items": {
									"type": "object",
									"required": ["task_key"]
								}
							}
						}
					}
				}
			}
		},
		"metadata": {
			"type": "object",
			"required": ["source_workflow_id", "generator_version"]
		}
	}
}`

// Validate checks a bundle document for structural completeness, naming
// collisions and reference integrity. It is a pure function: the document is
// unchanged regardless of outcome, and findings are returned in a
// deterministic order. The caller decides whether warnings block emission;
// errors always should.
func Validate(document *Document) Result {
	var result Result

	result.Findings = append(result.Findings, schemaFindings(document)...)

	if document.Bundle == nil {
		result.Findings = append(result.Findings, Finding{
			Severity: SeverityError,
			Path:     "bundle",
			Code:     "missing_bundle_section",
			Message:  "document has no bundle section",
		})
	} else if !bundleNamePattern.MatchString(document.Bundle.Name) {
		result.Findings = append(result.Findings, Finding{
			Severity: SeverityError,
			Path:     "bundle.name",
			Code:     "invalid_bundle_name",
			Message:  fmt.Sprintf("bundle name %q does not match %s", document.Bundle.Name, bundleNamePattern),
		})
	}

	jobKeys := make([]string, 0, len(document.Resources.Jobs))
	for key := range document.Resources.Jobs {
		jobKeys = append(jobKeys, key)
	}

	sort.Strings(jobKeys)

	totalTasks := 0
	namesSeen := make(map[string]string) // display name -> first job key

	for _, key := range jobKeys {
		job := document.Resources.Jobs[key]
		path := "resources.jobs." + key

		if !resourceNamePattern.MatchString(key) {
			result.Findings = append(result.Findings, Finding{
				Severity: SeverityError,
				Path:     path,
				Code:     "invalid_resource_name",
				Message:  fmt.Sprintf("job resource key %q does not match %s", key, resourceNamePattern),
			})
		}

		if first, dup := namesSeen[job.Name]; dup {
			result.Findings = append(result.Findings, Finding{
				Severity: SeverityError,
				Path:     path,
				Code:     "duplicate_resource_name",
				Message:  fmt.Sprintf("job name %q already used by resource %q", job.Name, first),
			})
		} else {
			namesSeen[job.Name] = key
		}

		totalTasks += len(job.Tasks)

		result.Findings = append(result.Findings, jobFindings(path, job)...)
	}

	if totalTasks == 0 {
		result.Findings = append(result.Findings, Finding{
			Severity: SeverityWarning,
			Path:     "resources",
			Code:     "empty_resources",
			Message:  "bundle defines no tasks; this is almost certainly a mistake",
		})
	}

	if document.Metadata.GeneratorVersion != "" && document.Metadata.GeneratorVersion != GeneratorVersion {
		result.Findings = append(result.Findings, Finding{
			Severity: SeverityWarning,
			Path:     "metadata.generator_version",
			Code:     "foreign_generator",
			Message:  fmt.Sprintf("document was generated by %q, current generator is %q", document.Metadata.GeneratorVersion, GeneratorVersion),
		})
	}

	return result
}

func schemaFindings(document *Document) []Finding {
	schemaResult, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(documentSchema),
		gojsonschema.NewGoLoader(document),
	)
	if err != nil {
		return []Finding{{
			Severity: SeverityError,
			Path:     "",
			Code:     "schema_check_failed",
			Message:  err.Error(),
		}}
	}

	var findings []Finding

	for _, desc := range schemaResult.Errors() {
		findings = append(findings, Finding{
			Severity: SeverityError,
			Path:     desc.Field(),
			Code:     "schema_violation",
			Message:  desc.Description(),
		})
	}

	return findings
}

func jobFindings(path string, job *JobResource) []Finding {
	var findings []Finding

	clusterKeys := make(map[string]bool, len(job.JobClusters))
	for _, cluster := range job.JobClusters {
		clusterKeys[cluster.JobClusterKey] = true
	}

	taskKeys := make(map[string]bool, len(job.Tasks))

	for _, task := range job.Tasks {
		if taskKeys[task.TaskKey] {
			findings = append(findings, Finding{
				Severity: SeverityError,
				Path:     path + ".tasks." + task.TaskKey,
				Code:     "duplicate_task_key",
				Message:  fmt.Sprintf("task key %q appears more than once", task.TaskKey),
			})
		}

		taskKeys[task.TaskKey] = true
	}

	for _, task := range job.Tasks {
		taskPath := path + ".tasks." + task.TaskKey

		for _, dep := range task.DependsOn {
			if !taskKeys[dep.TaskKey] {
				findings = append(findings, Finding{
					Severity: SeverityError,
					Path:     taskPath,
					Code:     "unknown_task_dependency",
					Message:  fmt.Sprintf("task %q depends on %q, which is not defined in this job", task.TaskKey, dep.TaskKey),
				})
			}
		}

		if task.JobClusterKey != "" && !clusterKeys[task.JobClusterKey] {
			findings = append(findings, Finding{
				Severity: SeverityError,
				Path:     taskPath + ".job_cluster_key",
				Code:     "unknown_cluster_key",
				Message:  fmt.Sprintf("task %q references job cluster %q, which is not defined", task.TaskKey, task.JobClusterKey),
			})
		}

		for i, library := range task.Libraries {
			if err := library.Check(); err != nil {
				findings = append(findings, Finding{
					Severity: SeverityError,
					Path:     fmt.Sprintf("%s.libraries[%d]", taskPath, i),
					Code:     "invalid_library_coordinate",
					Message:  err.Error(),
				})
			}
		}

		if taskResourceType(task) == "" {
			findings = append(findings, Finding{
				Severity: SeverityWarning,
				Path:     taskPath,
				Code:     "missing_task_payload",
				Message:  fmt.Sprintf("task %q carries no task-type payload", task.TaskKey),
			})
		}
	}

	if job.Schedule != nil {
		if _, err := cronParser.Parse(job.Schedule.QuartzCronExpression); err != nil {
			findings = append(findings, Finding{
				Severity: SeverityError,
				Path:     path + ".schedule.quartz_cron_expression",
				Code:     "invalid_cron",
				Message:  err.Error(),
			})
		}
	}

	return findings
}

func taskResourceType(task TaskResource) string {
	switch {
	case task.Notebook != nil:
		return "notebook"
	case task.SparkPython != nil:
		return "spark_python"
	case task.PythonWheel != nil:
		return "python_wheel"
	case task.SparkJar != nil:
		return "spark_jar"
	case task.SparkSubmit != nil:
		return "spark_submit"
	case task.Pipeline != nil:
		return "pipeline"
	case task.SQL != nil:
		return "sql"
	default:
		return ""
	}
}
