package app

import "github.com/felixgeelhaar/cadence/adapter/cli"

// NewCLIApp creates a CLI application instance backed by the provided container.
func NewCLIApp(container *Container) *cli.App {
	cliApp := &cli.App{
		CreateTaskHandler:     container.CreateTask,
		UpdateTaskHandler:     container.UpdateTask,
		CompleteTaskHandler:   container.CompleteTask,
		LockPriorityHandler:   container.LockPriority,
		UnlockPriorityHandler: container.UnlockPriority,
		ListTasksHandler:      container.ListTasks,
		GetTaskHandler:        container.GetTask,

		CreateProjectHandler:       container.CreateProject,
		ChangeProjectStatusHandler: container.ChangeProjectStatus,
		ListProjectsHandler:        container.ListProjects,

		RecomputeHandler:       container.Recompute,
		GetScheduleHandler:     container.GetSchedule,
		FindSlotsHandler:       container.FindSlots,
		DetectConflictsHandler: container.DetectConflicts,

		AddManualEventHandler: container.AddManualEvent,
		ListEventsHandler:     container.ListEvents,

		Preferences:        container.Repos.Preferences,
		DefaultPreferences: container.DefaultPreferences,

		Clock:    container.Clock,
		Location: container.Location,
	}
	cliApp.SetCurrentUserID(container.UserID)

	if container.CalendarSync != nil {
		cliApp.CalendarSyncer = container.CalendarSync
	}

	return cliApp
}
