package cli

import (
	"time"

	"github.com/alexanderramin/gantry/internal/events"
	"github.com/alexanderramin/gantry/internal/service"
	"github.com/spf13/cobra"
)

// App holds the services and terminal hooks used by CLI commands.
type App struct {
	Projects    service.ProjectService
	Tasks       service.TaskService
	Deps        service.DependencyService
	Resources   service.ResourceService
	Allocations service.AllocationService
	Schedule    service.ScheduleService
	Import      service.ImportService

	// SnapMinutes rounds durations given in days.
	SnapMinutes int

	// Subscribe opens a live event stream. Nil when no broker is configured.
	Subscribe func(topic string) (<-chan events.Message, func(), error)

	// IsInteractive reports whether stdin is a terminal; prompts are skipped
	// when it returns false.
	IsInteractive func() bool
	// Confirm asks a yes/no question. Defaults to a huh confirm form.
	Confirm func(title string) (bool, error)

	Now func() time.Time
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) confirm(title string) (bool, error) {
	if a.Confirm != nil {
		return a.Confirm(title)
	}
	return huhConfirm(title)
}

// NewRootCmd creates the top-level "gantry" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "gantry",
		Short:         "Gantt scheduling: tasks, predecessor constraints and cascades",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newProjectCmd(app),
		newTaskCmd(app),
		newDepCmd(app),
		newResourceCmd(app),
		newAllocCmd(app),
		newScheduleCmd(app),
		newWatchCmd(app),
	)

	return root
}
