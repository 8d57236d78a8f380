package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alexanderramin/gantry/internal/db"
	"github.com/alexanderramin/gantry/internal/events"
	"github.com/alexanderramin/gantry/internal/importer"
	"github.com/alexanderramin/gantry/internal/repository"
)

type importService struct {
	uow      db.UnitOfWork
	events   eventSink
	observer UseCaseObserver
}

func NewImportService(uow db.UnitOfWork, pub events.Publisher, logger *slog.Logger, observers ...UseCaseObserver) ImportService {
	return &importService{
		uow:      uow,
		events:   newEventSink(pub, logger),
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *importService) ImportProject(ctx context.Context, filePath string) (*ImportResult, error) {
	schema, err := importer.LoadImportSchema(filePath)
	if err != nil {
		return nil, fmt.Errorf("loading import file: %w", err)
	}
	return s.importSchema(ctx, schema)
}

func (s *importService) ImportProjectFromSchema(ctx context.Context, schema *importer.ImportSchema) (*ImportResult, error) {
	return s.importSchema(ctx, schema)
}

func (s *importService) importSchema(ctx context.Context, schema *importer.ImportSchema) (result *ImportResult, err error) {
	startedAt := time.Now()
	fields := map[string]any{"short_id": schema.Project.ShortID}
	defer observe(ctx, s.observer, "import-project", startedAt, &err, fields)

	if errs := importer.ValidateImportSchema(schema); len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}

	var imported *importer.ImportedProject
	imported, err = importer.Convert(schema)
	if err != nil {
		return nil, fmt.Errorf("converting import schema: %w", err)
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := repository.NewSQLiteSet(tx)

		if err := r.Projects.Create(ctx, imported.Project); err != nil {
			return fmt.Errorf("creating project: %w", err)
		}
		for _, res := range imported.Resources {
			if err := r.Resources.Create(ctx, res); err != nil {
				return fmt.Errorf("creating resource %q: %w", res.Name, err)
			}
		}
		for _, t := range imported.Tasks {
			if err := r.Tasks.Create(ctx, t); err != nil {
				return fmt.Errorf("creating task %q: %w", t.Name, err)
			}
		}
		for _, p := range imported.Predecessors {
			if err := r.Predecessors.Create(ctx, p); err != nil {
				return fmt.Errorf("creating predecessor link: %w", err)
			}
		}
		for _, a := range imported.Allocations {
			if err := r.Allocations.Create(ctx, a); err != nil {
				return fmt.Errorf("creating allocation: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result = &ImportResult{
		Project:          imported.Project,
		TaskCount:        len(imported.Tasks),
		PredecessorCount: len(imported.Predecessors),
		ResourceCount:    len(imported.Resources),
		AllocationCount:  len(imported.Allocations),
	}
	fields["tasks"] = result.TaskCount
	fields["predecessors"] = result.PredecessorCount

	s.events.emit(ctx, events.TopicProjectImported, events.ProjectImported{
		ProjectID:        imported.Project.ID,
		ShortID:          imported.Project.ShortID,
		TaskCount:        result.TaskCount,
		PredecessorCount: result.PredecessorCount,
	})
	return result, nil
}

func formatValidationErrors(errs []error) error {
	var b strings.Builder
	fmt.Fprintf(&b, "import validation failed (%d errors):", len(errs))
	for _, e := range errs {
		b.WriteString("\n  - ")
		b.WriteString(e.Error())
	}
	return fmt.Errorf("%s", b.String())
}
