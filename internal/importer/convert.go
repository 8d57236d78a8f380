package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/gantry/internal/calendar"
	"github.com/alexanderramin/gantry/internal/domain"
	"github.com/google/uuid"
)

// ImportedProject is a converted import file, ready to be persisted in one
// transaction. Tasks are ordered parents first.
type ImportedProject struct {
	Project      *domain.Project
	Tasks        []*domain.Task
	Predecessors []*domain.Predecessor
	Resources    []*domain.Resource
	Allocations  []*domain.Allocation
}

// Convert turns a validated schema into domain records with fresh UUIDs.
// Tasks are numbered 1..n in file order. Call ValidateImportSchema first.
func Convert(schema *ImportSchema) (*ImportedProject, error) {
	now := time.Now().UTC().Truncate(time.Second)

	project := &domain.Project{
		ID:        uuid.New().String(),
		ShortID:   strings.ToUpper(schema.Project.ShortID),
		Name:      schema.Project.Name,
		StartDate: optionalDate(schema.Project.StartDate),
		Status:    domain.ProjectActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	out := &ImportedProject{Project: project}

	resourceIDs := make(map[string]string, len(schema.Resources))
	for _, r := range schema.Resources {
		id := uuid.New().String()
		resourceIDs[r.Ref] = id

		role := domain.ResourceRole(domain.FirstNonEmpty(r.Role, string(domain.RoleOperator)))
		res := &domain.Resource{ID: id, Name: r.Name, Role: role, CreatedAt: now}
		if r.ManagerRef != nil {
			if mid, ok := resourceIDs[*r.ManagerRef]; ok {
				res.ManagerID = &mid
			}
		}
		out.Resources = append(out.Resources, res)
	}

	taskIDs := make(map[string]string, len(schema.Tasks))
	for i, t := range schema.Tasks {
		id := uuid.New().String()
		taskIDs[t.Ref] = id

		task := &domain.Task{
			ID:              id,
			ProjectID:       project.ID,
			Seq:             i + 1,
			Name:            t.Name,
			DurationMin:     importDuration(t),
			StartDate:       optionalDate(t.StartDate),
			EndDate:         optionalDate(t.EndDate),
			SortOrder:       t.Order,
			MarginStartDays: t.MarginStartDays,
			MarginEndDays:   t.MarginEndDays,
			Progress:        domain.Deref(t.Progress, 0),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if t.ParentRef != nil && *t.ParentRef != "" {
			if pid, ok := taskIDs[*t.ParentRef]; ok {
				task.ParentID = &pid
			}
		}
		out.Tasks = append(out.Tasks, task)
	}

	for _, l := range schema.Predecessors {
		typ, ok := domain.ParseLinkType(l.Type)
		if !ok {
			return nil, fmt.Errorf("predecessor %s <- %s: invalid type %q", l.TaskRef, l.PredecessorRef, l.Type)
		}
		out.Predecessors = append(out.Predecessors, &domain.Predecessor{
			TaskID:        taskIDs[l.TaskRef],
			PredecessorID: taskIDs[l.PredecessorRef],
			Type:          typ,
			LagDays:       l.LagDays,
			CreatedAt:     now,
		})
	}

	for _, a := range schema.Allocations {
		start, err := calendar.ParseDate(a.StartDate)
		if err != nil {
			return nil, fmt.Errorf("allocation for %s: %w", a.TaskRef, err)
		}
		end, err := calendar.ParseDate(a.EndDate)
		if err != nil {
			return nil, fmt.Errorf("allocation for %s: %w", a.TaskRef, err)
		}
		alloc := &domain.Allocation{
			ID:         uuid.New().String(),
			TaskID:     taskIDs[a.TaskRef],
			ResourceID: resourceIDs[a.ResourceRef],
			StartDate:  start,
			EndDate:    end,
			CreatedAt:  now,
		}
		spanMin := (calendar.DaysBetween(start, end) + 1) * calendar.MinutesPerWorkingDay
		alloc.AllocatedMin = domain.Deref(a.AllocatedMin, spanMin)
		out.Allocations = append(out.Allocations, alloc)
	}

	return out, nil
}

func importDuration(t TaskImport) int {
	switch {
	case t.DurationMin != nil:
		return *t.DurationMin
	case t.DurationDays != nil:
		return calendar.DaysToMinutes(*t.DurationDays, calendar.DefaultSnapMinutes)
	default:
		return calendar.MinutesPerWorkingDay
	}
}

func optionalDate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	return calendar.ParseOptionalDate(*s)
}
