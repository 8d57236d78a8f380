package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/gantry/internal/calendar"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// projectFlag is the --project flag shared by every project-scoped command.
type projectFlag struct {
	value string
}

func (f *projectFlag) flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("project", pflag.ContinueOnError)
	fs.StringVarP(&f.value, "project", "p", "", "Project short ID, UUID or UUID prefix")
	return fs
}

func (f *projectFlag) register(cmd *cobra.Command) {
	cmd.Flags().AddFlagSet(f.flagSet())
	_ = cmd.MarkFlagRequired("project")
}

func (f *projectFlag) resolve(ctx context.Context, app *App) (string, error) {
	return resolveProjectID(ctx, app, f.value)
}

// dateFlags collects the optional --start/--end pair.
type dateFlags struct {
	start, end string
}

func (f *dateFlags) flagSet(what string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("dates", pflag.ContinueOnError)
	fs.StringVar(&f.start, "start", "", what+" start date (YYYY-MM-DD)")
	fs.StringVar(&f.end, "end", "", what+" end date (YYYY-MM-DD)")
	return fs
}

func (f *dateFlags) parse() (start, end *time.Time, err error) {
	if start, err = parseOptionalDate("start", f.start); err != nil {
		return nil, nil, err
	}
	if end, err = parseOptionalDate("end", f.end); err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

// durationFlags accepts a duration either in working minutes or in days.
type durationFlags struct {
	minutes int
	days    float64
}

func (f *durationFlags) flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("duration", pflag.ContinueOnError)
	fs.IntVar(&f.minutes, "minutes", 0, "Duration in working minutes (540 = one day)")
	fs.Float64Var(&f.days, "days", 0, "Duration in working days, e.g. 1.5")
	return fs
}

// parse returns the requested minutes, or nil when neither flag was given.
func (f *durationFlags) parse(cmd *cobra.Command, snap int) (*int, error) {
	minutesSet, daysSet := cmd.Flags().Changed("minutes"), cmd.Flags().Changed("days")
	switch {
	case minutesSet && daysSet:
		return nil, fmt.Errorf("use either --minutes or --days, not both")
	case minutesSet:
		if f.minutes < 0 {
			return nil, fmt.Errorf("--minutes must not be negative")
		}
		m := f.minutes
		return &m, nil
	case daysSet:
		if f.days < 0 {
			return nil, fmt.Errorf("--days must not be negative")
		}
		m := calendar.DaysToMinutes(f.days, snap)
		return &m, nil
	}
	return nil, nil
}

func parseOptionalDate(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	d, err := calendar.ParseDate(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s date %q: %w", name, value, err)
	}
	return &d, nil
}
