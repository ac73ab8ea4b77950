package bundle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/bundlegen/pkg/models"
)

var testGeneratedAt = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func testBuildConfig() BuildConfig {
	return BuildConfig{
		Config: Config{
			BundleName:        "daily-etl",
			TargetEnvironment: "dev",
			GeneratedAt:       testGeneratedAt,
		},
		WorkspaceHost: "https://acme.cloud.example.com",
		CurrentUser:   "ops@example.com",
	}
}

func testWorkflow() *models.Workflow {
	return &models.Workflow{
		ID:          "501",
		Name:        "Daily ETL",
		Description: "Nightly ingest",
		Tasks: []*models.Task{
			{
				Key:      "extract",
				Notebook: &models.NotebookTask{NotebookPath: "/jobs/extract"},
			},
			{
				Key:         "transform",
				DependsOn:   []string{"extract"},
				SparkPython: &models.SparkPythonTask{PythonFile: "transform.py"},
			},
		},
		Schedule: &models.Schedule{
			QuartzCronExpression: "0 0 2 * * ?",
			TimezoneID:           "UTC",
		},
	}
}

func TestBuild_Basic(t *testing.T) {
	doc, err := Build(testWorkflow(), testBuildConfig())
	require.NoError(t, err)

	require.NotNil(t, doc.Bundle)
	assert.Equal(t, "daily-etl", doc.Bundle.Name)

	job := doc.Resources.Jobs["daily_etl"]
	require.NotNil(t, job)
	assert.Equal(t, "Daily ETL", job.Name)
	require.Len(t, job.Tasks, 2)

	// Declaration order and original edges are preserved.
	assert.Equal(t, "extract", job.Tasks[0].TaskKey)
	assert.Equal(t, "transform", job.Tasks[1].TaskKey)
	assert.Equal(t, []TaskDependency{{TaskKey: "extract"}}, job.Tasks[1].DependsOn)

	require.NotNil(t, job.Schedule)
	assert.Equal(t, "0 0 2 * * ?", job.Schedule.QuartzCronExpression)
	assert.Equal(t, string(models.PauseStatusUnpaused), job.Schedule.PauseStatus)

	assert.Equal(t, "501", doc.Metadata.SourceWorkflowID)
	assert.Equal(t, GeneratorVersion, doc.Metadata.GeneratorVersion)
	assert.Equal(t, testGeneratedAt, doc.Metadata.GeneratedAt)
}

func TestBuild_Notifications(t *testing.T) {
	workflow := testWorkflow()
	workflow.EmailNotifications = &models.EmailNotifications{
		OnFailure:             []string{"oncall@example.com", "ops@example.com"},
		NoAlertForSkippedRuns: true,
	}
	workflow.WebhookNotifications = &models.WebhookNotifications{
		OnSuccess: []models.Webhook{{ID: "wh-1"}},
		OnFailure: []models.Webhook{{ID: "wh-2"}, {ID: "wh-3"}},
	}

	doc, err := Build(workflow, testBuildConfig())
	require.NoError(t, err)

	job := doc.Resources.Jobs["daily_etl"]
	require.NotNil(t, job)

	require.NotNil(t, job.EmailNotifications)
	assert.Equal(t, []string{"oncall@example.com", "ops@example.com"}, job.EmailNotifications.OnFailure)
	assert.Empty(t, job.EmailNotifications.OnStart)
	assert.True(t, job.EmailNotifications.NoAlertForSkippedRuns)

	require.NotNil(t, job.WebhookNotifications)
	assert.Equal(t, []WebhookResource{{ID: "wh-1"}}, job.WebhookNotifications.OnSuccess)
	assert.Equal(t, []WebhookResource{{ID: "wh-2"}, {ID: "wh-3"}}, job.WebhookNotifications.OnFailure)
	assert.Empty(t, job.WebhookNotifications.OnStart)
}

func TestBuild_WithoutNotifications(t *testing.T) {
	doc, err := Build(testWorkflow(), testBuildConfig())
	require.NoError(t, err)

	job := doc.Resources.Jobs["daily_etl"]
	require.NotNil(t, job)
	assert.Nil(t, job.EmailNotifications)
	assert.Nil(t, job.WebhookNotifications)
}

func TestBuild_Permissions(t *testing.T) {
	workflow := testWorkflow()
	workflow.Permissions = []models.Permission{
		{Principal: "data-platform", Level: models.PermissionCanManage},
		{Principal: "analysts", Level: models.PermissionCanView},
	}

	doc, err := Build(workflow, testBuildConfig())
	require.NoError(t, err)

	job := doc.Resources.Jobs["daily_etl"]
	require.NotNil(t, job)
	assert.Equal(t, []PermissionResource{
		{Level: "CAN_MANAGE", Principal: "data-platform"},
		{Level: "CAN_VIEW", Principal: "analysts"},
	}, job.Permissions)
}

func TestBuild_Scaffolding(t *testing.T) {
	doc, err := Build(testWorkflow(), testBuildConfig())
	require.NoError(t, err)

	// A dev target brings staging and prod skeletons along.
	require.Contains(t, doc.Targets, "dev")
	require.Contains(t, doc.Targets, "staging")
	require.Contains(t, doc.Targets, "prod")

	dev := doc.Targets["dev"]
	assert.True(t, dev.Default)
	assert.Equal(t, "development", dev.Mode)
	require.NotNil(t, dev.Workspace.CurrentUser)
	assert.Equal(t, "ops@example.com", dev.Workspace.CurrentUser.UserName)
	assert.Equal(t, "https://acme.cloud.example.com", dev.Variables["workspace_host"].Default)

	assert.Equal(t, "production", doc.Targets["prod"].Mode)
}

func TestBuild_NonDevTarget(t *testing.T) {
	config := testBuildConfig()
	config.TargetEnvironment = "prod"

	doc, err := Build(testWorkflow(), config)
	require.NoError(t, err)

	require.Contains(t, doc.Targets, "prod")
	assert.NotContains(t, doc.Targets, "staging")
	assert.NotContains(t, doc.Targets, "dev")
	assert.False(t, doc.Targets["prod"].Default)
	assert.Equal(t, "production", doc.Targets["prod"].Mode)
}

func TestBuild_DefaultTargetEnvironment(t *testing.T) {
	config := testBuildConfig()
	config.TargetEnvironment = ""

	doc, err := Build(testWorkflow(), config)
	require.NoError(t, err)
	assert.Contains(t, doc.Targets, "dev")
}

func TestBuild_InvalidBundleName(t *testing.T) {
	config := testBuildConfig()
	config.BundleName = "!!!"

	_, err := Build(testWorkflow(), config)
	require.Error(t, err)
	assert.True(t, IsInvalidConfiguration(err))
}

func TestBuild_CycleFails(t *testing.T) {
	workflow := &models.Workflow{
		ID:   "7",
		Name: "Cyclic",
		Tasks: []*models.Task{
			{Key: "p", DependsOn: []string{"q"}},
			{Key: "q", DependsOn: []string{"p"}},
		},
	}

	doc, err := Build(workflow, testBuildConfig())
	require.Error(t, err)
	assert.Nil(t, doc)
	assert.True(t, IsCycleDetected(err))

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, []string{"p", "q"}, buildErr.TaskKeys)
}

func TestBuild_DanglingReferenceFails(t *testing.T) {
	workflow := &models.Workflow{
		ID:   "8",
		Name: "Dangling",
		Tasks: []*models.Task{
			{Key: "x", DependsOn: []string{"y"}},
		},
	}

	doc, err := Build(workflow, testBuildConfig())
	require.Error(t, err)
	assert.Nil(t, doc)
	assert.True(t, IsDanglingReference(err))

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, []string{"x"}, buildErr.TaskKeys)
	assert.Equal(t, "y", buildErr.Missing)
}

func TestBuild_SharedClusterFactoring(t *testing.T) {
	spec := func() *models.ClusterSpec {
		return &models.ClusterSpec{
			SparkVersion: "13.3.x-scala2.12",
			NodeTypeID:   "i3.xlarge",
			NumWorkers:   2,
		}
	}
	distinct := &models.ClusterSpec{
		SparkVersion: "13.3.x-scala2.12",
		NodeTypeID:   "i3.2xlarge",
		NumWorkers:   8,
	}

	workflow := &models.Workflow{
		ID:   "9",
		Name: "Cluster Dedup",
		Tasks: []*models.Task{
			{Key: "a", NewCluster: spec(), Notebook: &models.NotebookTask{NotebookPath: "/a"}},
			{Key: "b", NewCluster: spec(), Notebook: &models.NotebookTask{NotebookPath: "/b"}},
			{Key: "c", NewCluster: distinct, Notebook: &models.NotebookTask{NotebookPath: "/c"}},
		},
	}

	doc, err := Build(workflow, testBuildConfig())
	require.NoError(t, err)

	job := doc.Resources.Jobs["cluster_dedup"]
	require.NotNil(t, job)

	// The spec shared by a and b is factored out exactly once.
	require.Len(t, job.JobClusters, 1)

	sharedKey := job.JobClusters[0].JobClusterKey
	assert.Equal(t, spec().CanonicalKey(), sharedKey)

	assert.Equal(t, sharedKey, job.Tasks[0].JobClusterKey)
	assert.Nil(t, job.Tasks[0].NewCluster)
	assert.Equal(t, sharedKey, job.Tasks[1].JobClusterKey)
	assert.Nil(t, job.Tasks[1].NewCluster)

	// The unshared spec stays inline.
	assert.Empty(t, job.Tasks[2].JobClusterKey)
	require.NotNil(t, job.Tasks[2].NewCluster)
	assert.Equal(t, "i3.2xlarge", job.Tasks[2].NewCluster.NodeTypeID)
}

func TestBuild_ExplicitClusterKeyNotRewritten(t *testing.T) {
	workflow := &models.Workflow{
		ID:   "10",
		Name: "Explicit Keys",
		JobClusters: []*models.JobCluster{
			{
				JobClusterKey: "main",
				NewCluster: &models.ClusterSpec{
					SparkVersion: "13.3.x-scala2.12",
					NodeTypeID:   "i3.xlarge",
				},
			},
		},
		Tasks: []*models.Task{
			{Key: "a", JobClusterKey: "main", Notebook: &models.NotebookTask{NotebookPath: "/a"}},
			{Key: "b", JobClusterKey: "main", Notebook: &models.NotebookTask{NotebookPath: "/b"}},
		},
	}

	doc, err := Build(workflow, testBuildConfig())
	require.NoError(t, err)

	job := doc.Resources.Jobs["explicit_keys"]
	require.Len(t, job.JobClusters, 1)
	assert.Equal(t, "main", job.JobClusters[0].JobClusterKey)
	assert.Equal(t, "main", job.Tasks[0].JobClusterKey)
}

func TestBuild_CollectDependencies(t *testing.T) {
	workflow := testWorkflow()
	workflow.Tasks[0].Libraries = []models.Library{
		{PyPI: &models.PyPILibrary{Package: "requests"}},
		{Maven: &models.MavenLibrary{Coordinates: "org.example:lib:1.0"}},
	}
	workflow.Tasks[1].Libraries = []models.Library{
		{PyPI: &models.PyPILibrary{Package: "requests"}}, // duplicate
	}

	config := testBuildConfig()
	config.IncludeDependencies = true

	doc, err := Build(workflow, config)
	require.NoError(t, err)

	require.NotNil(t, doc.Dependencies)
	assert.Equal(t, []string{"maven:org.example:lib:1.0", "pypi:requests"}, doc.Dependencies.Libraries)
}

func TestBuild_WithoutDependencies(t *testing.T) {
	doc, err := Build(testWorkflow(), testBuildConfig())
	require.NoError(t, err)
	assert.Nil(t, doc.Dependencies)
}
