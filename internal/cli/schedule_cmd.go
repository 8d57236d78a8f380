package cli

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/alexanderramin/gantry/internal/calendar"
	"github.com/alexanderramin/gantry/internal/cli/formatter"
	"github.com/alexanderramin/gantry/internal/contract"
	"github.com/alexanderramin/gantry/internal/scheduler"
	"github.com/spf13/cobra"
)

func newScheduleCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "schedule",
		Aliases: []string{"sched"},
		Short:   "Compute, check and cascade project schedules",
	}

	cmd.AddCommand(
		newScheduleShowCmd(app),
		newScheduleCheckCmd(app),
		newScheduleStatusCmd(app),
		newScheduleCascadeCmd(app),
		newScheduleShiftCmd(app),
		newScheduleSyncCmd(app),
	)

	return cmd
}

func newScheduleShowCmd(app *App) *cobra.Command {
	var (
		project projectFlag
		today   string
		bars    bool
		sameDay bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show every task with its computed dates and constraint status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			projectID, err := project.resolve(ctx, app)
			if err != nil {
				return err
			}
			req := contract.NewScheduleRequest(projectID)
			req.SameDayChaining = sameDay
			if req.Today, err = parseOptionalDate("today", today); err != nil {
				return err
			}

			resp, err := app.Schedule.Compute(ctx, req)
			if err != nil {
				return err
			}
			if bars {
				fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTimeline(resp))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSchedule(resp))
			return nil
		},
	}

	project.register(cmd)
	cmd.Flags().BoolVar(&bars, "bars", false, "Draw a timeline instead of a table")
	cmd.Flags().StringVar(&today, "today", "", "Date used for tasks with no start anywhere (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&sameDay, "same-day", false, "Let FS successors start on a predecessor's end day when it finishes early")
	return cmd
}

func newScheduleCheckCmd(app *App) *cobra.Command {
	var project projectFlag

	cmd := &cobra.Command{
		Use:   "check TASK",
		Short: "Check a task against all of its predecessors",
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
			res, err := app.Schedule.CheckTask(ctx, task.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatConstraint(task.Name, *res))
			return nil
		},
	}

	project.register(cmd)
	return cmd
}

func newScheduleStatusCmd(app *App) *cobra.Command {
	var project projectFlag

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Summarise constraint status across the project",
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
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatScheduleStatus(resp))
			return nil
		},
	}

	project.register(cmd)
	return cmd
}

func newScheduleCascadeCmd(app *App) *cobra.Command {
	var (
		project projectFlag
		apply   bool
	)

	cmd := &cobra.Command{
		Use:   "cascade TASK",
		Short: "Propose (or apply) moving the successors of TASK",
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

			var res *contract.CascadeResult
			if apply {
				res, err = app.Schedule.ApplyCascade(ctx, contract.CascadeApply{TaskIDs: []string{task.ID}})
			} else {
				res, err = app.Schedule.ProposeCascade(ctx, task.ID)
			}
			if err != nil {
				return err
			}
			names, err := taskNames(ctx, app, projectID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCascade(*res, names))
			if apply && len(res.Updates) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Moved %d task(s).\n", len(res.Updates))
			}
			return nil
		},
	}

	project.register(cmd)
	cmd.Flags().BoolVar(&apply, "apply", false, "Write the proposed dates")
	return cmd
}

func newScheduleShiftCmd(app *App) *cobra.Command {
	var (
		project    projectFlag
		by         int
		force, yes bool
	)

	cmd := &cobra.Command{
		Use:   "shift TASK...",
		Short: "Move several tasks by the same number of days in one batch",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if by == 0 {
				return fmt.Errorf("--by must not be zero")
			}
			projectID, err := project.resolve(ctx, app)
			if err != nil {
				return err
			}
			resp, err := app.Schedule.Compute(ctx, contract.NewScheduleRequest(projectID))
			if err != nil {
				return err
			}
			byID := scheduler.IndexDated(resp.Tasks)

			pending := scheduler.NewPendingChanges()
			for _, ref := range args {
				task, err := resolveTask(ctx, app, projectID, ref)
				if err != nil {
					return err
				}
				dt := byID[task.ID]
				start := calendar.AddDays(dt.Start, by)
				patch := scheduler.TaskPatch{StartDate: &start}
				if !dt.HasChildren {
					end := calendar.AddDays(dt.End, by)
					patch.EndDate = &end
				}
				pending.Set(task.ID, patch)
			}

			batch, err := app.Schedule.ApplyPending(ctx, projectID, pending, force)
			if err != nil {
				var se *contract.ScheduleError
				if errors.As(err, &se) && se.Code == contract.ErrConstraintViolation {
					if se.Constraint != nil {
						fmt.Fprint(out, formatter.FormatConstraint(byID[se.Constraint.TaskID].Task.Name, *se.Constraint))
					}
					return fmt.Errorf("%w (use --force to commit anyway)", err)
				}
				return err
			}
			fmt.Fprintf(out, "Shifted %d task(s) by %+d day(s).\n", batch.Applied, by)

			res := batch.Cascade
			if res.IsEmpty() {
				return nil
			}
			names, err := taskNames(ctx, app, projectID)
			if err != nil {
				return err
			}
			fmt.Fprint(out, formatter.FormatCascade(res, names))
			if len(res.Updates) == 0 {
				return nil
			}

			ok := yes
			if !ok && app.interactive() {
				if ok, err = app.confirm(fmt.Sprintf("Move %d successor(s)?", len(res.Updates))); err != nil {
					return err
				}
			}
			if !ok {
				fmt.Fprintln(out, formatter.Dim("Successors were left in place; run 'gantry schedule cascade TASK --apply' to move them."))
				return nil
			}
			seeds := slices.Sorted(maps.Keys(batch.Constraints))
			applied, err := app.Schedule.ApplyCascade(ctx, contract.CascadeApply{TaskIDs: seeds, Confirmed: &res})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Moved %d task(s).\n", len(applied.Updates))
			return nil
		},
	}

	project.register(cmd)
	cmd.Flags().IntVar(&by, "by", 0, "Days to shift (negative moves earlier)")
	cmd.Flags().BoolVar(&force, "force", false, "Commit even if a shift breaks a predecessor constraint")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Apply the resulting cascade without asking")
	_ = cmd.MarkFlagRequired("by")
	return cmd
}

func newScheduleSyncCmd(app *App) *cobra.Command {
	var project projectFlag

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Store the computed span of every parent task",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			projectID, err := project.resolve(ctx, app)
			if err != nil {
				return err
			}
			n, err := app.Schedule.SyncDerivedDates(ctx, projectID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Synced %d parent task(s).\n", n)
			return nil
		},
	}

	project.register(cmd)
	return cmd
}
