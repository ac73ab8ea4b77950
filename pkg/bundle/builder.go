package bundle

import (
	"sort"

	"github.com/dukex/bundlegen/pkg/dag"
	"github.com/dukex/bundlegen/pkg/models"
)

// BuildConfig extends Config with workspace context the surrounding
// application already holds. Everything Build needs arrives through its
// parameters; the builder reads no ambient state.
type BuildConfig struct {
	Config

	// WorkspaceHost and CurrentUser seed the generated target defaults when
	// known. Both are optional.
	WorkspaceHost string
	CurrentUser   string
}

// Build maps a workflow snapshot into a fresh bundle document. It fails
// before producing any document when the dependency graph has a cycle or a
// dangling reference, or when the configuration is unusable. The emitted task
// list keeps the workflow's declaration order and original edge lists;
// resolution is used for consistency checking only.
func Build(workflow *models.Workflow, config BuildConfig) (*Document, error) {
	slug := Slugify(config.BundleName)
	if slug == "" {
		return nil, &BuildError{Op: "Build", Err: ErrInvalidConfiguration}
	}

	if config.TargetEnvironment == "" {
		config.TargetEnvironment = "dev"
	}

	resolution := dag.Resolve(workflow)

	if len(resolution.Dangling) > 0 {
		ref := resolution.Dangling[0]

		return nil, &BuildError{
			Op:       "Build",
			TaskKeys: []string{ref.TaskKey},
			Missing:  ref.Missing,
			Err:      ErrDanglingReference,
		}
	}

	if resolution.CycleFound {
		return nil, &BuildError{
			Op:       "Build",
			TaskKeys: resolution.Remainder,
			Err:      ErrCycleDetected,
		}
	}

	job := &JobResource{
		Name:              workflow.Name,
		Description:       workflow.Description,
		Tags:              workflow.Tags,
		TimeoutSeconds:    workflow.TimeoutSeconds,
		MaxConcurrentRuns: workflow.MaxConcurrentRuns,

		EmailNotifications:   convertEmailNotifications(workflow.EmailNotifications),
		WebhookNotifications: convertWebhookNotifications(workflow.WebhookNotifications),
		Permissions:          convertPermissions(workflow.Permissions),

		Schedule:    convertSchedule(workflow.Schedule),
		JobClusters: convertJobClusters(workflow.JobClusters),
	}

	shared := sharedClusterKeys(workflow.Tasks)
	for _, key := range sortedKeys(shared) {
		job.JobClusters = append(job.JobClusters, JobClusterResource{
			JobClusterKey: key,
			NewCluster:    shared[key],
		})
	}

	for _, task := range workflow.Tasks {
		job.Tasks = append(job.Tasks, convertTask(task, shared))
	}

	doc := &Document{
		Resources: Resources{
			Jobs: map[string]*JobResource{
				jobKey(workflow.Name): job,
			},
		},
		Metadata: Metadata{
			GeneratedAt:      config.GeneratedAt.UTC(),
			SourceWorkflowID: workflow.ID,
			GeneratorVersion: GeneratorVersion,
		},
	}

	addScaffolding(doc, workflow, slug, config)

	if config.IncludeDependencies {
		doc.Dependencies = collectDependencies(workflow.Tasks)
	}

	return doc, nil
}

// sharedClusterKeys finds inline cluster specs used byte-identically by two
// or more tasks. The returned map is keyed by the content-derived cluster
// key, so the factoring is stable under task reordering.
func sharedClusterKeys(tasks []*models.Task) map[string]*models.ClusterSpec {
	counts := make(map[string]int)
	specs := make(map[string]*models.ClusterSpec)

	for _, task := range tasks {
		if task.NewCluster == nil || task.JobClusterKey != "" || task.ExistingClusterID != "" {
			continue
		}

		key := task.NewCluster.CanonicalKey()
		counts[key]++
		specs[key] = task.NewCluster
	}

	shared := make(map[string]*models.ClusterSpec)

	for key, count := range counts {
		if count >= 2 {
			shared[key] = specs[key]
		}
	}

	return shared
}

func sortedKeys(specs map[string]*models.ClusterSpec) []string {
	keys := make([]string, 0, len(specs))
	for key := range specs {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

func convertTask(task *models.Task, shared map[string]*models.ClusterSpec) TaskResource {
	resource := TaskResource{
		TaskKey:     task.Key,
		Description: task.Description,

		JobClusterKey:     task.JobClusterKey,
		ExistingClusterID: task.ExistingClusterID,
		NewCluster:        task.NewCluster,

		Libraries: task.Libraries,

		TimeoutSeconds:         task.TimeoutSeconds,
		MaxRetries:             task.MaxRetries,
		MinRetryIntervalMillis: task.MinRetryIntervalMillis,
		RetryOnTimeout:         task.RetryOnTimeout,
	}

	for _, upstream := range task.DependsOn {
		resource.DependsOn = append(resource.DependsOn, TaskDependency{TaskKey: upstream})
	}

	if task.NewCluster != nil && task.JobClusterKey == "" && task.ExistingClusterID == "" {
		if key := task.NewCluster.CanonicalKey(); shared[key] != nil {
			resource.JobClusterKey = key
			resource.NewCluster = nil
		}
	}

	switch task.Type() {
	case models.TaskTypeNotebook:
		resource.Notebook = task.Notebook
	case models.TaskTypeSparkPython:
		resource.SparkPython = task.SparkPython
	case models.TaskTypePythonWheel:
		resource.PythonWheel = task.PythonWheel
	case models.TaskTypeSparkJar:
		resource.SparkJar = task.SparkJar
	case models.TaskTypeSparkSubmit:
		resource.SparkSubmit = task.SparkSubmit
	case models.TaskTypePipeline:
		resource.Pipeline = task.Pipeline
	case models.TaskTypeSQL:
		resource.SQL = task.SQL
	case models.TaskTypeUnknown:
		// Tasks without a payload are emitted bare; the validator flags them.
	}

	return resource
}

func convertSchedule(schedule *models.Schedule) *ScheduleResource {
	if schedule == nil {
		return nil
	}

	pause := schedule.PauseStatus
	if pause == "" {
		pause = models.PauseStatusUnpaused
	}

	return &ScheduleResource{
		QuartzCronExpression: schedule.QuartzCronExpression,
		TimezoneID:           schedule.TimezoneID,
		PauseStatus:          string(pause),
	}
}

func convertEmailNotifications(notifications *models.EmailNotifications) *EmailNotificationsResource {
	if notifications == nil {
		return nil
	}

	return &EmailNotificationsResource{
		OnStart:               notifications.OnStart,
		OnSuccess:             notifications.OnSuccess,
		OnFailure:             notifications.OnFailure,
		NoAlertForSkippedRuns: notifications.NoAlertForSkippedRuns,
	}
}

func convertWebhookNotifications(notifications *models.WebhookNotifications) *WebhookNotificationsResource {
	if notifications == nil {
		return nil
	}

	return &WebhookNotificationsResource{
		OnStart:   convertWebhooks(notifications.OnStart),
		OnSuccess: convertWebhooks(notifications.OnSuccess),
		OnFailure: convertWebhooks(notifications.OnFailure),
	}
}

func convertWebhooks(webhooks []models.Webhook) []WebhookResource {
	if len(webhooks) == 0 {
		return nil
	}

	resources := make([]WebhookResource, 0, len(webhooks))
	for _, webhook := range webhooks {
		resources = append(resources, WebhookResource{ID: webhook.ID})
	}

	return resources
}

func convertPermissions(permissions []models.Permission) []PermissionResource {
	if len(permissions) == 0 {
		return nil
	}

	resources := make([]PermissionResource, 0, len(permissions))
	for _, permission := range permissions {
		resources = append(resources, PermissionResource{
			Level:     string(permission.Level),
			Principal: permission.Principal,
		})
	}

	return resources
}

func convertJobClusters(clusters []*models.JobCluster) []JobClusterResource {
	resources := make([]JobClusterResource, 0, len(clusters))

	for _, cluster := range clusters {
		resources = append(resources, JobClusterResource{
			JobClusterKey: cluster.JobClusterKey,
			NewCluster:    cluster.NewCluster,
		})
	}

	return resources
}

func collectDependencies(tasks []*models.Task) *Dependencies {
	seen := make(map[string]bool)

	var coordinates []string

	for _, task := range tasks {
		for _, library := range task.Libraries {
			coordinate := library.Coordinate()
			if coordinate == "" || seen[coordinate] {
				continue
			}

			seen[coordinate] = true
			coordinates = append(coordinates, coordinate)
		}
	}

	sort.Strings(coordinates)

	return &Dependencies{Libraries: coordinates}
}

// addScaffolding fills in the bundle identity, variables and targets sections
// around the resources, mirroring the layout the workspace tooling expects. A
// dev target brings staging and prod skeletons along with it.
func addScaffolding(doc *Document, workflow *models.Workflow, slug string, config BuildConfig) {
	doc.Bundle = &BundleSpec{
		Name:        slug,
		Description: "Asset bundle for workflow: " + workflow.Name,
		Git: &GitSpec{
			OriginURL: "${var.git_origin_url}",
			Branch:    "${var.git_branch}",
		},
	}

	doc.Variables = map[string]Variable{
		"git_origin_url": {
			Description: "Git repository origin URL",
			Default:     "https://github.com/your-org/your-repo.git",
		},
		"git_branch": {
			Description: "Git branch to use",
			Default:     "main",
		},
	}

	mode := "production"
	if config.TargetEnvironment == "dev" {
		mode = "development"
	}

	target := Target{
		Mode:    mode,
		Default: config.TargetEnvironment == "dev",
		Workspace: &TargetWorkspace{
			Host: "${var.workspace_host}",
		},
		Variables: map[string]Variable{
			"workspace_host": {
				Description: "Workspace host URL",
				Default:     config.WorkspaceHost,
			},
		},
	}

	if config.CurrentUser != "" {
		target.Workspace.CurrentUser = &TargetUser{UserName: config.CurrentUser}
	}

	doc.Targets = map[string]Target{
		config.TargetEnvironment: target,
	}

	if config.TargetEnvironment == "dev" {
		doc.Targets["staging"] = Target{
			Mode:      "development",
			Workspace: &TargetWorkspace{Host: "${var.staging_workspace_host}"},
			Variables: map[string]Variable{
				"staging_workspace_host": {Description: "Staging workspace host URL"},
			},
		}
		doc.Targets["prod"] = Target{
			Mode:      "production",
			Workspace: &TargetWorkspace{Host: "${var.prod_workspace_host}"},
			Variables: map[string]Variable{
				"prod_workspace_host": {Description: "Production workspace host URL"},
			},
		}
	}
}
