package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexanderramin/gantry/internal/cli"
	"github.com/alexanderramin/gantry/internal/config"
	"github.com/alexanderramin/gantry/internal/db"
	"github.com/alexanderramin/gantry/internal/events"
	"github.com/alexanderramin/gantry/internal/repository"
	"github.com/alexanderramin/gantry/internal/scheduler"
	"github.com/alexanderramin/gantry/internal/service"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(os.Stderr)

	// Open database
	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	repos := repository.NewSQLiteSet(database)
	uow := db.NewSQLiteUnitOfWork(database)

	// Events go to NATS when a broker is configured.
	var pub events.Publisher = &events.NoopPublisher{}
	var subscribe func(topic string) (<-chan events.Message, func(), error)
	if cfg.NATSURL != "" {
		natsPub, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			logger.Warn("event publishing disabled", slog.String("url", cfg.NATSURL), slog.Any("error", err))
		} else {
			pub = natsPub
		}
		subscribe = func(topic string) (<-chan events.Message, func(), error) {
			sub, err := events.NewNATSSubscriber(cfg.NATSURL)
			if err != nil {
				return nil, nil, err
			}
			msgs, cancel, err := sub.Subscribe(topic)
			if err != nil {
				sub.Close()
				return nil, nil, err
			}
			return msgs, func() {
				cancel()
				sub.Close()
			}, nil
		}
	}
	defer func() {
		if err := pub.Close(); err != nil {
			logger.Warn("closing event publisher", slog.Any("error", err))
		}
	}()

	opts := scheduler.DefaultOptions()
	opts.SnapMinutes = cfg.SnapMinutes
	opts.SameDayChaining = cfg.SameDayChaining

	var observers []service.UseCaseObserver
	if cfg.LogUseCases {
		observers = append(observers, service.NewSlogUseCaseObserver(logger))
	}

	app := &cli.App{
		Projects:    service.NewProjectService(repos.Projects, observers...),
		Tasks:       service.NewTaskService(repos, uow, pub, opts, logger, observers...),
		Deps:        service.NewDependencyService(repos.Tasks, repos.Predecessors, pub, logger, observers...),
		Resources:   service.NewResourceService(repos.Resources),
		Allocations: service.NewAllocationService(repos.Allocations, repos.Tasks, repos.Resources),
		Schedule:    service.NewScheduleService(repos, uow, pub, opts, logger, observers...),
		Import:      service.NewImportService(uow, pub, logger, observers...),
		SnapMinutes: cfg.SnapMinutes,
		Subscribe:   subscribe,
	}

	// Prompts only run on an interactive terminal.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}
