package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alexanderramin/gantry/internal/calendar"
	"github.com/alexanderramin/gantry/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert_MinimalProject(t *testing.T) {
	out, err := Convert(validMinimalSchema())
	require.NoError(t, err)

	assert.NotEmpty(t, out.Project.ID)
	assert.Equal(t, "SITE01", out.Project.ShortID)
	assert.Equal(t, domain.ProjectActive, out.Project.Status)
	require.NotNil(t, out.Project.StartDate)
	assert.Equal(t, calendar.MustDate("2024-03-01"), *out.Project.StartDate)

	require.Len(t, out.Tasks, 1)
	task := out.Tasks[0]
	assert.Equal(t, out.Project.ID, task.ProjectID)
	assert.Equal(t, 1, task.Seq)
	assert.Equal(t, calendar.MinutesPerWorkingDay, task.DurationMin)
	assert.Nil(t, task.ParentID)
	assert.Nil(t, task.StartDate)
	assert.NoError(t, task.Validate())

	assert.Empty(t, out.Predecessors)
	assert.Empty(t, out.Resources)
	assert.Empty(t, out.Allocations)
}

func TestConvert_UppercasesShortID(t *testing.T) {
	s := validMinimalSchema()
	s.Project.ShortID = "site01"
	out, err := Convert(s)
	require.NoError(t, err)
	assert.Equal(t, "SITE01", out.Project.ShortID)
}

func TestConvert_FullProject(t *testing.T) {
	schema := validFullSchema()
	require.Empty(t, ValidateImportSchema(schema))

	out, err := Convert(schema)
	require.NoError(t, err)

	byName := make(map[string]*domain.Task)
	for _, task := range out.Tasks {
		byName[task.Name] = task
	}
	require.Len(t, byName, 4)

	phase, dig, pour, cure := byName["Phase 1"], byName["Dig"], byName["Pour"], byName["Cure"]
	assert.Equal(t, []int{1, 2, 3, 4}, []int{phase.Seq, dig.Seq, pour.Seq, cure.Seq})
	assert.Equal(t, 2, phase.MarginEndDays)

	require.NotNil(t, dig.ParentID)
	assert.Equal(t, phase.ID, *dig.ParentID)
	require.NotNil(t, pour.ParentID)
	assert.Equal(t, phase.ID, *pour.ParentID)
	assert.Nil(t, cure.ParentID)

	assert.Equal(t, 1080, dig.DurationMin)
	assert.Equal(t, 810, pour.DurationMin)
	assert.Equal(t, 20, pour.Progress)
	assert.Equal(t, 1, pour.SortOrder)
	require.NotNil(t, cure.EndDate)
	assert.Equal(t, calendar.MustDate("2024-03-12"), *cure.EndDate)

	require.Len(t, out.Predecessors, 2)
	assert.Equal(t, pour.ID, out.Predecessors[0].TaskID)
	assert.Equal(t, dig.ID, out.Predecessors[0].PredecessorID)
	assert.Equal(t, domain.LinkFinishToStart, out.Predecessors[0].Type)
	assert.Equal(t, domain.LinkStartToStart, out.Predecessors[1].Type)
	assert.Equal(t, 1, out.Predecessors[1].LagDays)
	for _, p := range out.Predecessors {
		assert.NoError(t, p.Validate())
	}

	require.Len(t, out.Resources, 2)
	boss, crew := out.Resources[0], out.Resources[1]
	assert.Equal(t, domain.RoleManager, boss.Role)
	require.NotNil(t, crew.ManagerID)
	assert.Equal(t, boss.ID, *crew.ManagerID)

	require.Len(t, out.Allocations, 2)
	assert.Equal(t, dig.ID, out.Allocations[0].TaskID)
	assert.Equal(t, crew.ID, out.Allocations[0].ResourceID)
	assert.Equal(t, 2*calendar.MinutesPerWorkingDay, out.Allocations[0].AllocatedMin, "defaults to full days")
	assert.Equal(t, 270, out.Allocations[1].AllocatedMin)
}

func TestConvert_UniqueIDs(t *testing.T) {
	out, err := Convert(validFullSchema())
	require.NoError(t, err)

	seen := map[string]bool{out.Project.ID: true}
	for _, task := range out.Tasks {
		assert.False(t, seen[task.ID])
		seen[task.ID] = true
	}
	for _, r := range out.Resources {
		assert.False(t, seen[r.ID])
		seen[r.ID] = true
	}
}

func TestConvert_DefaultRoleIsOperator(t *testing.T) {
	s := validMinimalSchema()
	s.Resources = []ResourceImport{{Ref: "r", Name: "Anon"}}
	out, err := Convert(s)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOperator, out.Resources[0].Role)
}

func TestLoadImportSchema_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"project":{"short_id":"ABC01","name":"X"},"tasks":[{"ref":"a","name":"A"}]}`), 0o644))

	schema, err := LoadImportSchema(path)
	require.NoError(t, err)
	assert.Empty(t, ValidateImportSchema(schema))

	_, err = LoadImportSchema(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
