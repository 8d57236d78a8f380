package cli

import (
	"fmt"

	"github.com/alexanderramin/gantry/internal/cli/formatter"
	"github.com/alexanderramin/gantry/internal/events"
	"github.com/spf13/cobra"
)

func newWatchCmd(app *App) *cobra.Command {
	var topic string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream schedule events from the message broker",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Subscribe == nil {
				return fmt.Errorf("no event broker configured (set GANTRY_NATS_URL or nats_url in the config file)")
			}
			msgs, cancel, err := app.Subscribe(topic)
			if err != nil {
				return err
			}
			defer cancel()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, formatter.Dim("Watching "+topic+" (Ctrl-C to stop)"))
			for {
				select {
				case <-ctx.Done():
					return nil
				case msg, ok := <-msgs:
					if !ok {
						return nil
					}
					fmt.Fprintln(out, formatter.FormatEvent(msg, app.now()))
				}
			}
		},
	}

	cmd.Flags().StringVar(&topic, "topic", events.TopicAll, "Subject to subscribe to; wildcards allowed")
	return cmd
}
