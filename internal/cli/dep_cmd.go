package cli

import (
	"fmt"

	"github.com/alexanderramin/gantry/internal/cli/formatter"
	"github.com/alexanderramin/gantry/internal/domain"
	"github.com/spf13/cobra"
)

func newDepCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dep",
		Aliases: []string{"link"},
		Short:   "Manage predecessor links between tasks",
	}

	cmd.AddCommand(
		newDepAddCmd(app),
		newDepRemoveCmd(app),
		newDepListCmd(app),
	)

	return cmd
}

func newDepAddCmd(app *App) *cobra.Command {
	var (
		project  projectFlag
		linkType string
		lag      int
	)

	cmd := &cobra.Command{
		Use:   "add TASK PREDECESSOR",
		Short: "Make TASK wait on PREDECESSOR",
		Long: `Link TASK to a predecessor. --type is one of FS (finish-to-start,
the default), SS, FF or SF. --lag shifts the constraint by whole days;
negative values give lead time. Adding an existing link updates it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			lt, ok := domain.ParseLinkType(linkType)
			if !ok {
				return fmt.Errorf("invalid link type %q (expected FS, SS, FF or SF)", linkType)
			}
			projectID, err := project.resolve(ctx, app)
			if err != nil {
				return err
			}
			task, err := resolveTask(ctx, app, projectID, args[0])
			if err != nil {
				return err
			}
			pred, err := resolveTask(ctx, app, projectID, args[1])
			if err != nil {
				return err
			}

			link := &domain.Predecessor{TaskID: task.ID, PredecessorID: pred.ID, Type: lt, LagDays: lag}
			if err := app.Deps.Add(ctx, link); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s now waits on %s (%s%s)\n",
				formatter.TaskLabel(*task), formatter.TaskLabel(*pred), lt.Label(), lagSuffix(lag))
			return nil
		},
	}

	project.register(cmd)
	cmd.Flags().StringVarP(&linkType, "type", "t", "FS", "Link type: FS, SS, FF or SF")
	cmd.Flags().IntVar(&lag, "lag", 0, "Lag in days (negative for lead)")
	return cmd
}

func newDepRemoveCmd(app *App) *cobra.Command {
	var project projectFlag

	cmd := &cobra.Command{
		Use:   "remove TASK PREDECESSOR",
		Short: "Remove a predecessor link",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			projectID, err := project.resolve(ctx, app)
			if err != nil {
				return err
			}
			taskID, err := resolveTaskID(ctx, app, projectID, args[0])
			if err != nil {
				return err
			}
			predID, err := resolveTaskID(ctx, app, projectID, args[1])
			if err != nil {
				return err
			}
			if err := app.Deps.Remove(ctx, taskID, predID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed link %s → %s\n", args[1], args[0])
			return nil
		},
	}

	project.register(cmd)
	return cmd
}

func newDepListCmd(app *App) *cobra.Command {
	var (
		project projectFlag
		task    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List predecessor links",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			projectID, err := project.resolve(ctx, app)
			if err != nil {
				return err
			}

			var links []domain.Predecessor
			if task != "" {
				taskID, err := resolveTaskID(ctx, app, projectID, task)
				if err != nil {
					return err
				}
				links, err = app.Deps.ListForTask(ctx, taskID)
				if err != nil {
					return err
				}
			} else if links, err = app.Deps.ListByProject(ctx, projectID); err != nil {
				return err
			}

			if len(links) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("No links."))
				return nil
			}
			names, err := taskNames(ctx, app, projectID)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(links))
			for _, l := range links {
				rows = append(rows, []string{
					names[l.TaskID],
					names[l.PredecessorID],
					string(l.Type),
					fmt.Sprintf("%+d", l.LagDays),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTable([]string{"TASK", "WAITS ON", "TYPE", "LAG"}, rows))
			return nil
		},
	}

	project.register(cmd)
	cmd.Flags().StringVar(&task, "task", "", "Only links of this task")
	return cmd
}

func lagSuffix(lag int) string {
	if lag == 0 {
		return ""
	}
	return fmt.Sprintf(", lag %+dd", lag)
}
