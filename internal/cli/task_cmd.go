package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/gantry/internal/calendar"
	"github.com/alexanderramin/gantry/internal/cli/formatter"
	"github.com/alexanderramin/gantry/internal/contract"
	"github.com/alexanderramin/gantry/internal/domain"
	"github.com/spf13/cobra"
)

func newTaskCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks within a project",
	}

	cmd.AddCommand(
		newTaskAddCmd(app),
		newTaskListCmd(app),
		newTaskTreeCmd(app),
		newTaskSetCmd(app),
		newTaskMoveCmd(app),
		newTaskRenameCmd(app),
		newTaskLayoutCmd(app),
		newTaskRemoveCmd(app),
	)

	return cmd
}

func newTaskAddCmd(app *App) *cobra.Command {
	var (
		project       projectFlag
		dates         dateFlags
		duration      durationFlags
		name, parent  string
		progress, ord int
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task to a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			projectID, err := project.resolve(ctx, app)
			if err != nil {
				return err
			}

			if strings.TrimSpace(name) == "" && app.interactive() {
				draft := taskDraft{Start: dates.start}
				if err := promptTaskDraft(&draft); err != nil {
					return err
				}
				name, dates.start = draft.Name, draft.Start
				if draft.Days != "" {
					if err := cmd.Flags().Set("days", draft.Days); err != nil {
						return err
					}
				}
			}

			start, end, err := dates.parse()
			if err != nil {
				return err
			}
			minutes, err := duration.parse(cmd, app.SnapMinutes)
			if err != nil {
				return err
			}

			t := &domain.Task{
				ProjectID:   projectID,
				Name:        name,
				DurationMin: calendar.MinutesPerWorkingDay,
				StartDate:   start,
				EndDate:     end,
				Progress:    progress,
				SortOrder:   ord,
			}
			if minutes != nil {
				t.DurationMin = *minutes
			}
			if parent != "" {
				parentID, err := resolveTaskID(ctx, app, projectID, parent)
				if err != nil {
					return err
				}
				t.ParentID = &parentID
			}

			if err := app.Tasks.Create(ctx, t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", formatter.TaskLabel(*t), formatter.FormatDuration(t.DurationMin))
			return nil
		},
	}

	project.register(cmd)
	cmd.Flags().AddFlagSet(dates.flagSet("Task"))
	cmd.Flags().AddFlagSet(duration.flagSet())
	cmd.Flags().StringVar(&name, "name", "", "Task name")
	cmd.Flags().StringVar(&parent, "parent", "", "Parent task (#number, ID or name)")
	cmd.Flags().IntVar(&progress, "progress", 0, "Completion percentage (0-100)")
	cmd.Flags().IntVar(&ord, "order", 0, "Sort order among siblings")

	return cmd
}

func newTaskListCmd(app *App) *cobra.Command {
	var project projectFlag

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a project's tasks with their stored fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			projectID, err := project.resolve(ctx, app)
			if err != nil {
				return err
			}
			tasks, err := app.Tasks.ListByProject(ctx, projectID)
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("No tasks."))
				return nil
			}

			seqByID := make(map[string]int, len(tasks))
			for _, t := range tasks {
				seqByID[t.ID] = t.Seq
			}
			rows := make([][]string, 0, len(tasks))
			for _, t := range tasks {
				parent := ""
				if t.ParentID != nil {
					parent = fmt.Sprintf("#%d", seqByID[*t.ParentID])
				}
				rows = append(rows, []string{
					fmt.Sprintf("#%d", t.Seq),
					t.Name,
					parent,
					calendar.FormatOptionalDate(t.StartDate),
					calendar.FormatOptionalDate(t.EndDate),
					formatter.FormatDuration(t.DurationMin),
					fmt.Sprintf("%d%%", t.Progress),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTable(
				[]string{"#", "NAME", "PARENT", "START", "END", "DURATION", "PROGRESS"}, rows))
			return nil
		},
	}

	project.register(cmd)
	return cmd
}

func newTaskTreeCmd(app *App) *cobra.Command {
	var project projectFlag

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the task hierarchy with computed dates",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			projectID, err := project.resolve(ctx, app)
			if err != nil {
				return err
			}
			resp, err := app.Schedule.Compute(ctx, contract.NewScheduleRequest(projectID))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTree(formatter.TreeItems(resp)))
			return nil
		},
	}

	project.register(cmd)
	return cmd
}

func newTaskSetCmd(app *App) *cobra.Command {
	var (
		project    projectFlag
		dates      dateFlags
		duration   durationFlags
		progress   int
		force, yes bool
	)

	cmd := &cobra.Command{
		Use:   "set TASK",
		Short: "Change a task's dates, duration or progress",
		Long: `Change a task's schedule fields. The edit is checked against the task's
predecessors and rejected when it breaks one, unless --force is given.
Successors the edit pushes out of place are proposed as a cascade.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			projectID, err := project.resolve(ctx, app)
			if err != nil {
				return err
			}
			task, err := resolveTask(ctx, app, projectID, args[0])
			if err != nil {
				return err
			}

			edit := contract.TaskEdit{TaskID: task.ID, Force: force}
			if edit.StartDate, edit.EndDate, err = dates.parse(); err != nil {
				return err
			}
			if edit.DurationMin, err = duration.parse(cmd, app.SnapMinutes); err != nil {
				return err
			}
			if cmd.Flags().Changed("progress") {
				p := progress
				edit.Progress = &p
			}
			if edit.StartDate == nil && edit.EndDate == nil && edit.DurationMin == nil && edit.Progress == nil {
				return fmt.Errorf("nothing to change: pass --start, --end, --minutes, --days or --progress")
			}

			resp, err := app.Schedule.EditTask(ctx, edit)
			if err != nil {
				var se *contract.ScheduleError
				if errors.As(err, &se) && se.Code == contract.ErrConstraintViolation && se.Constraint != nil {
					fmt.Fprint(out, formatter.FormatConstraint(task.Name, *se.Constraint))
					return fmt.Errorf("%w (use --force to commit anyway)", err)
				}
				return err
			}

			dt := resp.Task
			fmt.Fprintf(out, "Updated %s: %s → %s (%s)\n", formatter.TaskLabel(dt.Task),
				calendar.FormatDate(dt.Start), calendar.FormatDate(dt.End), formatter.FormatDuration(dt.Task.DurationMin))
			if !resp.Constraint.Valid && !resp.Constraint.Unconstrained {
				fmt.Fprint(out, formatter.FormatConstraint(dt.Task.Name, resp.Constraint))
			}

			return offerCascade(cmd, app, projectID, dt.Task, resp.Cascade, yes)
		},
	}

	project.register(cmd)
	cmd.Flags().AddFlagSet(dates.flagSet("New"))
	cmd.Flags().AddFlagSet(duration.flagSet())
	cmd.Flags().IntVar(&progress, "progress", 0, "Completion percentage (0-100)")
	cmd.Flags().BoolVar(&force, "force", false, "Commit even if the edit breaks a predecessor constraint")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Apply the resulting cascade without asking")

	return cmd
}

// offerCascade prints a proposed cascade and applies it when the user agrees.
func offerCascade(cmd *cobra.Command, app *App, projectID string, changed domain.Task, res contract.CascadeResult, yes bool) error {
	out := cmd.OutOrStdout()
	if res.IsEmpty() {
		return nil
	}
	names, err := taskNames(cmd.Context(), app, projectID)
	if err != nil {
		return err
	}
	fmt.Fprint(out, formatter.FormatCascade(res, names))
	if len(res.Updates) == 0 {
		return nil
	}

	apply := yes
	if !apply && app.interactive() {
		if apply, err = app.confirm(fmt.Sprintf("Move %d successor(s)?", len(res.Updates))); err != nil {
			return err
		}
	}
	if !apply {
		fmt.Fprintln(out, formatter.Dim(fmt.Sprintf("Run 'gantry schedule cascade #%d -p <project> --apply' to move them.", changed.Seq)))
		return nil
	}

	applied, err := app.Schedule.ApplyCascade(cmd.Context(), contract.CascadeApply{TaskIDs: []string{changed.ID}, Confirmed: &res})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Moved %d task(s).\n", len(applied.Updates))
	return nil
}

func newTaskMoveCmd(app *App) *cobra.Command {
	var (
		project projectFlag
		parent  string
		root    bool
	)

	cmd := &cobra.Command{
		Use:   "move TASK",
		Short: "Re-parent a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if parent == "" && !root {
				return fmt.Errorf("pass --parent TASK or --root")
			}
			projectID, err := project.resolve(ctx, app)
			if err != nil {
				return err
			}
			task, err := resolveTask(ctx, app, projectID, args[0])
			if err != nil {
				return err
			}

			var parentID *string
			where := "top level"
			if !root {
				p, err := resolveTask(ctx, app, projectID, parent)
				if err != nil {
					return err
				}
				parentID = &p.ID
				where = formatter.TaskLabel(*p)
			}
			if err := app.Tasks.Move(ctx, task.ID, parentID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %s under %s\n", formatter.TaskLabel(*task), where)
			return nil
		},
	}

	project.register(cmd)
	cmd.Flags().StringVar(&parent, "parent", "", "New parent task")
	cmd.Flags().BoolVar(&root, "root", false, "Make the task a top-level task")
	cmd.MarkFlagsMutuallyExclusive("parent", "root")
	return cmd
}

func newTaskRenameCmd(app *App) *cobra.Command {
	var project projectFlag

	cmd := &cobra.Command{
		Use:   "rename TASK NAME",
		Short: "Rename a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			projectID, err := project.resolve(ctx, app)
			if err != nil {
				return err
			}
			task, err := resolveTask(ctx, app, projectID, args[0])
			if err != nil {
				return err
			}
			if err := app.Tasks.Rename(ctx, task.ID, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed #%d to %q\n", task.Seq, strings.TrimSpace(args[1]))
			return nil
		},
	}

	project.register(cmd)
	return cmd
}

func newTaskLayoutCmd(app *App) *cobra.Command {
	var (
		project                 projectFlag
		order, marginS, marginE int
	)

	cmd := &cobra.Command{
		Use:   "layout TASK",
		Short: "Set a task's sort order and parent margins",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			projectID, err := project.resolve(ctx, app)
			if err != nil {
				return err
			}
			task, err := resolveTask(ctx, app, projectID, args[0])
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("order") {
				order = task.SortOrder
			}
			if !cmd.Flags().Changed("margin-start") {
				marginS = task.MarginStartDays
			}
			if !cmd.Flags().Changed("margin-end") {
				marginE = task.MarginEndDays
			}
			if err := app.Tasks.SetLayout(ctx, task.ID, order, marginS, marginE); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated layout of %s: order %d, margins %d/%d days\n",
				formatter.TaskLabel(*task), order, marginS, marginE)
			return nil
		},
	}

	project.register(cmd)
	cmd.Flags().IntVar(&order, "order", 0, "Sort order among siblings")
	cmd.Flags().IntVar(&marginS, "margin-start", 0, "Days a parent starts before its earliest child")
	cmd.Flags().IntVar(&marginE, "margin-end", 0, "Days a parent ends after its latest child")
	return cmd
}

func newTaskRemoveCmd(app *App) *cobra.Command {
	var (
		project projectFlag
		yes     bool
	)

	cmd := &cobra.Command{
		Use:   "remove TASK",
		Short: "Delete a task with its subtasks and links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			projectID, err := project.resolve(ctx, app)
			if err != nil {
				return err
			}
			task, err := resolveTask(ctx, app, projectID, args[0])
			if err != nil {
				return err
			}

			if !yes && app.interactive() {
				ok, err := app.confirm(fmt.Sprintf("Delete %s and its subtasks?", formatter.TaskLabel(*task)))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			}
			if err := app.Tasks.Delete(ctx, task.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", formatter.TaskLabel(*task))
			return nil
		},
	}

	project.register(cmd)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
