package importer

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/gantry/internal/calendar"
	"github.com/alexanderramin/gantry/internal/domain"
	"github.com/alexanderramin/gantry/internal/scheduler"
)

// ValidateImportSchema reports every problem in the file at once.
// An empty result means Convert will succeed.
func ValidateImportSchema(schema *ImportSchema) []error {
	var errs []error

	errs = append(errs, validateProject(&schema.Project)...)

	resourceRefs := make(map[string]bool)
	errs = append(errs, validateResources(schema.Resources, resourceRefs)...)

	taskRefs := make(map[string]bool)
	errs = append(errs, validateTasks(schema.Tasks, taskRefs)...)

	errs = append(errs, validatePredecessors(schema.Predecessors, taskRefs)...)
	errs = append(errs, validateAllocations(schema.Allocations, taskRefs, resourceRefs)...)

	return errs
}

func validateProject(p *ProjectImport) []error {
	var errs []error

	if p.ShortID == "" {
		errs = append(errs, fmt.Errorf("project.short_id is required"))
	} else {
		candidate := domain.Project{ShortID: strings.ToUpper(p.ShortID)}
		if err := candidate.ValidateShortID(); err != nil {
			errs = append(errs, fmt.Errorf("project.short_id: %w", err))
		}
	}
	if p.Name == "" {
		errs = append(errs, fmt.Errorf("project.name is required"))
	}
	errs = append(errs, validateOptionalDate("project.start_date", p.StartDate)...)
	return errs
}

func validateResources(resources []ResourceImport, refs map[string]bool) []error {
	var errs []error

	for i, r := range resources {
		prefix := fmt.Sprintf("resources[%d]", i)

		errs = append(errs, registerRef(prefix, r.Ref, refs)...)
		if r.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		if r.Role != "" && !domain.ValidResourceRoles[r.Role] {
			errs = append(errs, fmt.Errorf("%s.role: invalid value %q", prefix, r.Role))
		}
		if r.ManagerRef != nil && *r.ManagerRef != "" && !refs[*r.ManagerRef] {
			errs = append(errs, fmt.Errorf("%s.manager_ref: ref %q not found (must appear earlier in resources list)", prefix, *r.ManagerRef))
		}
	}
	return errs
}

func validateTasks(tasks []TaskImport, refs map[string]bool) []error {
	var errs []error

	for i, t := range tasks {
		prefix := fmt.Sprintf("tasks[%d]", i)

		errs = append(errs, registerRef(prefix, t.Ref, refs)...)
		if t.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}

		// Parents must come first, which also rules out parent loops.
		if t.ParentRef != nil && *t.ParentRef != "" {
			switch {
			case *t.ParentRef == t.Ref:
				errs = append(errs, fmt.Errorf("%s.parent_ref: task cannot be its own parent", prefix))
			case !refs[*t.ParentRef]:
				errs = append(errs, fmt.Errorf("%s.parent_ref: ref %q not found (must appear earlier in tasks list)", prefix, *t.ParentRef))
			}
		}

		if t.DurationMin != nil && *t.DurationMin < 0 {
			errs = append(errs, fmt.Errorf("%s.duration_min must not be negative", prefix))
		}
		if t.DurationDays != nil && *t.DurationDays < 0 {
			errs = append(errs, fmt.Errorf("%s.duration_days must not be negative", prefix))
		}
		if t.Progress != nil && (*t.Progress < 0 || *t.Progress > 100) {
			errs = append(errs, fmt.Errorf("%s.progress must be between 0 and 100", prefix))
		}
		if t.MarginStartDays < 0 || t.MarginEndDays < 0 {
			errs = append(errs, fmt.Errorf("%s: margins must not be negative", prefix))
		}

		startErrs := validateOptionalDate(prefix+".start_date", t.StartDate)
		endErrs := validateOptionalDate(prefix+".end_date", t.EndDate)
		errs = append(errs, startErrs...)
		errs = append(errs, endErrs...)
		if len(startErrs) == 0 && len(endErrs) == 0 && t.StartDate != nil && t.EndDate != nil {
			start, end := calendar.MustDate(*t.StartDate), calendar.MustDate(*t.EndDate)
			if end.Before(start) {
				errs = append(errs, fmt.Errorf("%s.end_date %q is before start_date %q", prefix, *t.EndDate, *t.StartDate))
			}
		}
	}
	return errs
}

func validatePredecessors(links []PredecessorImport, taskRefs map[string]bool) []error {
	var errs []error
	var graph []domain.Predecessor

	for i, l := range links {
		prefix := fmt.Sprintf("predecessors[%d]", i)
		ok := true

		if l.TaskRef == "" {
			errs = append(errs, fmt.Errorf("%s.task_ref is required", prefix))
			ok = false
		} else if !taskRefs[l.TaskRef] {
			errs = append(errs, fmt.Errorf("%s.task_ref: ref %q not found in tasks", prefix, l.TaskRef))
			ok = false
		}
		if l.PredecessorRef == "" {
			errs = append(errs, fmt.Errorf("%s.predecessor_ref is required", prefix))
			ok = false
		} else if !taskRefs[l.PredecessorRef] {
			errs = append(errs, fmt.Errorf("%s.predecessor_ref: ref %q not found in tasks", prefix, l.PredecessorRef))
			ok = false
		}
		if ok && l.TaskRef == l.PredecessorRef {
			errs = append(errs, fmt.Errorf("%s: task %q cannot depend on itself", prefix, l.TaskRef))
			ok = false
		}
		if _, valid := domain.ParseLinkType(l.Type); !valid {
			errs = append(errs, fmt.Errorf("%s.type: invalid value %q (expected FS, SS, FF or SF)", prefix, l.Type))
		}

		if ok {
			graph = append(graph, domain.Predecessor{TaskID: l.TaskRef, PredecessorID: l.PredecessorRef})
		}
	}

	for _, cycle := range scheduler.FindCycles(graph) {
		errs = append(errs, fmt.Errorf("circular dependency detected between %s", quoteJoin(cycle)))
	}
	return errs
}

func validateAllocations(allocs []AllocationImport, taskRefs, resourceRefs map[string]bool) []error {
	var errs []error

	for i, a := range allocs {
		prefix := fmt.Sprintf("allocations[%d]", i)

		if !taskRefs[a.TaskRef] {
			errs = append(errs, fmt.Errorf("%s.task_ref: ref %q not found in tasks", prefix, a.TaskRef))
		}
		if !resourceRefs[a.ResourceRef] {
			errs = append(errs, fmt.Errorf("%s.resource_ref: ref %q not found in resources", prefix, a.ResourceRef))
		}
		if a.AllocatedMin != nil && *a.AllocatedMin < 0 {
			errs = append(errs, fmt.Errorf("%s.allocated_min must not be negative", prefix))
		}

		start, startErr := calendar.ParseDate(a.StartDate)
		end, endErr := calendar.ParseDate(a.EndDate)
		if startErr != nil {
			errs = append(errs, fmt.Errorf("%s.start_date: %w", prefix, startErr))
		}
		if endErr != nil {
			errs = append(errs, fmt.Errorf("%s.end_date: %w", prefix, endErr))
		}
		if startErr == nil && endErr == nil && end.Before(start) {
			errs = append(errs, fmt.Errorf("%s.end_date %q is before start_date %q", prefix, a.EndDate, a.StartDate))
		}
	}
	return errs
}

func registerRef(prefix, ref string, refs map[string]bool) []error {
	switch {
	case ref == "":
		return []error{fmt.Errorf("%s.ref is required", prefix)}
	case refs[ref]:
		return []error{fmt.Errorf("%s.ref: duplicate ref %q", prefix, ref)}
	}
	refs[ref] = true
	return nil
}

func validateOptionalDate(field string, s *string) []error {
	if s == nil || *s == "" {
		return nil
	}
	if _, err := calendar.ParseDate(*s); err != nil {
		return []error{fmt.Errorf("%s: %w", field, err)}
	}
	return nil
}

func quoteJoin(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = fmt.Sprintf("%q", id)
	}
	return strings.Join(quoted, ", ")
}
