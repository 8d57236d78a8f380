package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/gantry/internal/domain"
)

func resolveProjectID(ctx context.Context, app *App, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("project ID is required")
	}

	projects, err := app.Projects.List(ctx, true)
	if err != nil {
		return "", err
	}

	for _, p := range projects {
		if strings.EqualFold(p.ShortID, input) {
			return p.ID, nil
		}
	}
	for _, p := range projects {
		if p.ID == input {
			return p.ID, nil
		}
	}

	var matches []string
	for _, p := range projects {
		if strings.HasPrefix(p.ID, input) {
			matches = append(matches, p.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("project not found: %q", input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("project ID prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}

// resolveTask finds a task of the project by "#3" / "3" (its number), full
// UUID, UUID prefix, or exact name (case-insensitive).
func resolveTask(ctx context.Context, app *App, projectID, input string) (*domain.Task, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("task reference is required")
	}
	if seq, err := strconv.Atoi(strings.TrimPrefix(input, "#")); err == nil && seq > 0 {
		t, err := app.Tasks.GetBySeq(ctx, projectID, seq)
		if err != nil {
			return nil, fmt.Errorf("task #%d not found in project: %w", seq, err)
		}
		return t, nil
	}

	tasks, err := app.Tasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	var prefixed, named []int
	for i, t := range tasks {
		if t.ID == input {
			return &tasks[i], nil
		}
		if strings.HasPrefix(t.ID, input) {
			prefixed = append(prefixed, i)
		}
		if strings.EqualFold(t.Name, input) {
			named = append(named, i)
		}
	}
	for _, candidates := range [][]int{prefixed, named} {
		switch len(candidates) {
		case 0:
			continue
		case 1:
			return &tasks[candidates[0]], nil
		default:
			return nil, fmt.Errorf("task reference %q is ambiguous (%d matches); use its #number", input, len(candidates))
		}
	}
	return nil, fmt.Errorf("task not found: %q", input)
}

func resolveTaskID(ctx context.Context, app *App, projectID, input string) (string, error) {
	t, err := resolveTask(ctx, app, projectID, input)
	if err != nil {
		return "", err
	}
	return t.ID, nil
}

// resolveResource finds a resource by UUID, UUID prefix or name.
func resolveResource(ctx context.Context, app *App, input string) (*domain.Resource, error) {
	resources, err := app.Resources.List(ctx)
	if err != nil {
		return nil, err
	}
	var matches []int
	for i, r := range resources {
		if r.ID == input {
			return &resources[i], nil
		}
		if strings.HasPrefix(r.ID, input) || strings.EqualFold(r.Name, input) {
			matches = append(matches, i)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("resource not found: %q", input)
	case 1:
		return &resources[matches[0]], nil
	default:
		return nil, fmt.Errorf("resource reference %q is ambiguous (%d matches)", input, len(matches))
	}
}

// taskNames maps task IDs of a project to "#n name" labels.
func taskNames(ctx context.Context, app *App, projectID string) (map[string]string, error) {
	tasks, err := app.Tasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(tasks))
	for _, t := range tasks {
		out[t.ID] = fmt.Sprintf("#%d %s", t.Seq, t.Name)
	}
	return out, nil
}
