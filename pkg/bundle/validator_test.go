package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/bundlegen/pkg/models"
)

func findingCodes(findings []Finding) []string {
	codes := make([]string, 0, len(findings))
	for _, finding := range findings {
		codes = append(codes, finding.Code)
	}

	return codes
}

func TestValidate_BuiltDocumentIsValid(t *testing.T) {
	doc, err := Build(testWorkflow(), testBuildConfig())
	require.NoError(t, err)

	result := Validate(doc)
	assert.True(t, result.Valid(), "unexpected findings: %v", result.Findings)
	assert.Empty(t, result.Errors())
}

func TestValidate_EmptyWorkflowWarnsOnce(t *testing.T) {
	workflow := &models.Workflow{ID: "1", Name: "Empty"}

	doc, err := Build(workflow, testBuildConfig())
	require.NoError(t, err)

	result := Validate(doc)
	assert.True(t, result.Valid())
	require.Len(t, result.Findings, 1)
	assert.Equal(t, "empty_resources", result.Findings[0].Code)
	assert.Equal(t, SeverityWarning, result.Findings[0].Severity)
}

func TestValidate_MissingBundleSection(t *testing.T) {
	doc, err := Build(testWorkflow(), testBuildConfig())
	require.NoError(t, err)

	doc.Bundle = nil

	result := Validate(doc)
	assert.False(t, result.Valid())
	assert.Contains(t, findingCodes(result.Errors()), "missing_bundle_section")
}

func TestValidate_InvalidBundleName(t *testing.T) {
	doc, err := Build(testWorkflow(), testBuildConfig())
	require.NoError(t, err)

	for _, name := range []string{"Has Spaces", "UPPER", "trailing-", "-leading", "double--hyphen", ""} {
		doc.Bundle.Name = name

		result := Validate(doc)
		assert.False(t, result.Valid(), "name %q should be rejected", name)
		assert.Contains(t, findingCodes(result.Errors()), "invalid_bundle_name")
	}
}

func TestValidate_DuplicateTaskKey(t *testing.T) {
	doc, err := Build(testWorkflow(), testBuildConfig())
	require.NoError(t, err)

	job := doc.Resources.Jobs["daily_etl"]
	job.Tasks = append(job.Tasks, TaskResource{
		TaskKey:  "extract",
		Notebook: &models.NotebookTask{NotebookPath: "/dup"},
	})

	result := Validate(doc)
	assert.False(t, result.Valid())
	assert.Contains(t, findingCodes(result.Errors()), "duplicate_task_key")
}

func TestValidate_UnknownTaskDependency(t *testing.T) {
	doc, err := Build(testWorkflow(), testBuildConfig())
	require.NoError(t, err)

	job := doc.Resources.Jobs["daily_etl"]
	job.Tasks[1].DependsOn = append(job.Tasks[1].DependsOn, TaskDependency{TaskKey: "ghost"})

	result := Validate(doc)
	assert.False(t, result.Valid())
	assert.Contains(t, findingCodes(result.Errors()), "unknown_task_dependency")
}

func TestValidate_UnknownClusterKey(t *testing.T) {
	doc, err := Build(testWorkflow(), testBuildConfig())
	require.NoError(t, err)

	job := doc.Resources.Jobs["daily_etl"]
	job.Tasks[0].JobClusterKey = "cluster-nonexistent"

	result := Validate(doc)
	assert.False(t, result.Valid())
	assert.Contains(t, findingCodes(result.Errors()), "unknown_cluster_key")
}

func TestValidate_InvalidLibraryCoordinate(t *testing.T) {
	doc, err := Build(testWorkflow(), testBuildConfig())
	require.NoError(t, err)

	job := doc.Resources.Jobs["daily_etl"]
	job.Tasks[0].Libraries = []models.Library{
		{Maven: &models.MavenLibrary{Coordinates: "noartifact"}},
	}

	result := Validate(doc)
	assert.False(t, result.Valid())
	assert.Contains(t, findingCodes(result.Errors()), "invalid_library_coordinate")
}

func TestValidate_MissingTaskPayloadIsWarning(t *testing.T) {
	doc, err := Build(testWorkflow(), testBuildConfig())
	require.NoError(t, err)

	job := doc.Resources.Jobs["daily_etl"]
	job.Tasks[0].Notebook = nil

	result := Validate(doc)
	assert.True(t, result.Valid())
	assert.Contains(t, findingCodes(result.Findings), "missing_task_payload")
}

func TestValidate_InvalidCron(t *testing.T) {
	doc, err := Build(testWorkflow(), testBuildConfig())
	require.NoError(t, err)

	job := doc.Resources.Jobs["daily_etl"]
	job.Schedule.QuartzCronExpression = "not a cron"

	result := Validate(doc)
	assert.False(t, result.Valid())
	assert.Contains(t, findingCodes(result.Errors()), "invalid_cron")
}

func TestValidate_FiveFieldCronAccepted(t *testing.T) {
	doc, err := Build(testWorkflow(), testBuildConfig())
	require.NoError(t, err)

	job := doc.Resources.Jobs["daily_etl"]
	job.Schedule.QuartzCronExpression = "0 2 * * *"

	result := Validate(doc)
	assert.True(t, result.Valid(), "unexpected findings: %v", result.Findings)
}

func TestValidate_DuplicateJobName(t *testing.T) {
	doc, err := Build(testWorkflow(), testBuildConfig())
	require.NoError(t, err)

	doc.Resources.Jobs["daily_etl_copy"] = &JobResource{
		Name: "Daily ETL",
		Tasks: []TaskResource{
			{TaskKey: "noop", Notebook: &models.NotebookTask{NotebookPath: "/noop"}},
		},
	}

	result := Validate(doc)
	assert.False(t, result.Valid())
	assert.Contains(t, findingCodes(result.Errors()), "duplicate_resource_name")
}

func TestValidate_InvalidResourceName(t *testing.T) {
	doc, err := Build(testWorkflow(), testBuildConfig())
	require.NoError(t, err)

	doc.Resources.Jobs["Bad-Key"] = doc.Resources.Jobs["daily_etl"]
	delete(doc.Resources.Jobs, "daily_etl")

	result := Validate(doc)
	assert.False(t, result.Valid())
	assert.Contains(t, findingCodes(result.Errors()), "invalid_resource_name")
}

func TestValidate_ForeignGenerator(t *testing.T) {
	doc, err := Build(testWorkflow(), testBuildConfig())
	require.NoError(t, err)

	doc.Metadata.GeneratorVersion = "othergen/9.9.9"

	result := Validate(doc)
	assert.True(t, result.Valid())
	assert.Contains(t, findingCodes(result.Findings), "foreign_generator")
}

func TestValidate_SchemaViolation(t *testing.T) {
	// A nil jobs map serializes as null, which the structural schema rejects.
	doc := &Document{
		Bundle: &BundleSpec{Name: "ok-name"},
	}

	result := Validate(doc)
	assert.False(t, result.Valid())
	assert.Contains(t, findingCodes(result.Errors()), "schema_violation")
}
