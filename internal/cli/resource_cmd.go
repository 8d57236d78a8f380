package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/gantry/internal/calendar"
	"github.com/alexanderramin/gantry/internal/cli/formatter"
	"github.com/alexanderramin/gantry/internal/domain"
	"github.com/spf13/cobra"
)

func newResourceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resource",
		Short: "Manage the people tasks are allocated to",
	}

	cmd.AddCommand(
		newResourceAddCmd(app),
		newResourceListCmd(app),
		newResourceRemoveCmd(app),
	)

	return cmd
}

func newResourceAddCmd(app *App) *cobra.Command {
	var name, role, manager string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a resource",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r := &domain.Resource{Name: name, Role: domain.ResourceRole(role)}
			if manager != "" {
				m, err := resolveResource(ctx, app, manager)
				if err != nil {
					return err
				}
				r.ManagerID = &m.ID
			}
			if err := app.Resources.Create(ctx, r); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s [%s]\n", r.Role, r.Name, formatter.TruncID(r.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Resource name")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleOperator), "Role: manager, leader or operator")
	cmd.Flags().StringVar(&manager, "manager", "", "Manager resource (ID or name)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newResourceListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			resources, err := app.Resources.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(resources) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("No resources."))
				return nil
			}
			names := make(map[string]string, len(resources))
			for _, r := range resources {
				names[r.ID] = r.Name
			}
			rows := make([][]string, 0, len(resources))
			for _, r := range resources {
				manager := ""
				if r.ManagerID != nil {
					manager = names[*r.ManagerID]
				}
				rows = append(rows, []string{formatter.TruncID(r.ID), r.Name, string(r.Role), manager})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTable([]string{"ID", "NAME", "ROLE", "MANAGER"}, rows))
			return nil
		},
	}
}

func newResourceRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove RESOURCE",
		Short: "Delete a resource and its allocations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, err := resolveResource(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Resources.Delete(ctx, r.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", r.Name)
			return nil
		},
	}
}

func newAllocCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alloc",
		Short: "Allocate resources to tasks",
	}

	cmd.AddCommand(
		newAllocAddCmd(app),
		newAllocListCmd(app),
		newAllocRemoveCmd(app),
	)

	return cmd
}

func newAllocAddCmd(app *App) *cobra.Command {
	var (
		project projectFlag
		dates   dateFlags
		minutes int
	)

	cmd := &cobra.Command{
		Use:   "add TASK RESOURCE",
		Short: "Book a resource onto a task for a date range",
		Long: `Book RESOURCE onto TASK from --start to --end. Without --minutes the
range is booked at a full working day per day. Allocations that leave gaps
mark the task as fragmented and stretch its computed span.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			start, end, err := dates.parse()
			if err != nil {
				return err
			}
			if start == nil || end == nil {
				return fmt.Errorf("--start and --end are required")
			}
			projectID, err := project.resolve(ctx, app)
			if err != nil {
				return err
			}
			task, err := resolveTask(ctx, app, projectID, args[0])
			if err != nil {
				return err
			}
			r, err := resolveResource(ctx, app, args[1])
			if err != nil {
				return err
			}

			a := &domain.Allocation{
				TaskID:       task.ID,
				ResourceID:   r.ID,
				StartDate:    *start,
				EndDate:      *end,
				AllocatedMin: minutes,
			}
			if err := app.Allocations.Create(ctx, a); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Allocated %s to %s, %s → %s (%s)\n", r.Name, formatter.TaskLabel(*task),
				calendar.FormatDate(a.StartDate), calendar.FormatDate(a.EndDate), formatter.FormatDuration(a.AllocatedMin))
			return nil
		},
	}

	project.register(cmd)
	cmd.Flags().AddFlagSet(dates.flagSet("Allocation"))
	cmd.Flags().IntVar(&minutes, "minutes", 0, "Booked working minutes (default: whole range)")
	return cmd
}

func newAllocListCmd(app *App) *cobra.Command {
	var (
		project projectFlag
		task    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List allocations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			projectID, err := project.resolve(ctx, app)
			if err != nil {
				return err
			}

			var allocs []domain.Allocation
			if task != "" {
				taskID, err := resolveTaskID(ctx, app, projectID, task)
				if err != nil {
					return err
				}
				allocs, err = app.Allocations.ListByTask(ctx, taskID)
				if err != nil {
					return err
				}
			} else if allocs, err = app.Allocations.ListByProject(ctx, projectID); err != nil {
				return err
			}
			if len(allocs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("No allocations."))
				return nil
			}

			names, err := taskNames(ctx, app, projectID)
			if err != nil {
				return err
			}
			resources, err := app.Resources.List(ctx)
			if err != nil {
				return err
			}
			people := make(map[string]string, len(resources))
			for _, r := range resources {
				people[r.ID] = r.Name
			}

			rows := make([][]string, 0, len(allocs))
			for _, a := range allocs {
				rows = append(rows, []string{
					formatter.TruncID(a.ID),
					names[a.TaskID],
					people[a.ResourceID],
					calendar.FormatDate(a.StartDate),
					calendar.FormatDate(a.EndDate),
					formatter.FormatDuration(a.AllocatedMin),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTable(
				[]string{"ID", "TASK", "RESOURCE", "START", "END", "BOOKED"}, rows))
			return nil
		},
	}

	project.register(cmd)
	cmd.Flags().StringVar(&task, "task", "", "Only allocations of this task")
	return cmd
}

func newAllocRemoveCmd(app *App) *cobra.Command {
	var project projectFlag

	cmd := &cobra.Command{
		Use:   "remove ALLOCATION",
		Short: "Delete an allocation by ID or ID prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			projectID, err := project.resolve(ctx, app)
			if err != nil {
				return err
			}
			allocs, err := app.Allocations.ListByProject(ctx, projectID)
			if err != nil {
				return err
			}
			var match []string
			for _, a := range allocs {
				if a.ID == args[0] || strings.HasPrefix(a.ID, args[0]) {
					match = append(match, a.ID)
				}
			}
			switch len(match) {
			case 0:
				return fmt.Errorf("allocation not found: %q", args[0])
			case 1:
			default:
				return fmt.Errorf("allocation ID prefix %q is ambiguous (%d matches)", args[0], len(match))
			}
			if err := app.Allocations.Delete(ctx, match[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed allocation %s\n", formatter.TruncID(match[0]))
			return nil
		},
	}

	project.register(cmd)
	return cmd
}
