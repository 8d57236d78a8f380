package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/gantry/internal/domain"
	"github.com/alexanderramin/gantry/internal/testutil"
	"github.com/stretchr/testify/require"
)

type repos struct {
	projects    *SQLiteProjectRepo
	tasks       *SQLiteTaskRepo
	links       *SQLitePredecessorRepo
	resources   *SQLiteResourceRepo
	allocations *SQLiteAllocationRepo
	seq         *SQLiteProjectSequenceRepo
}

func newRepos(t *testing.T) repos {
	t.Helper()
	database := testutil.NewTestDB(t)
	return repos{
		projects:    NewSQLiteProjectRepo(database),
		tasks:       NewSQLiteTaskRepo(database),
		links:       NewSQLitePredecessorRepo(database),
		resources:   NewSQLiteResourceRepo(database),
		allocations: NewSQLiteAllocationRepo(database),
		seq:         NewSQLiteProjectSequenceRepo(database),
	}
}

// seedProject stores a project and the given tasks, in order.
func seedProject(t *testing.T, r repos, tasks ...*domain.Task) *domain.Project {
	t.Helper()
	ctx := context.Background()
	p := testutil.NewTestProject("Website")
	require.NoError(t, r.projects.Create(ctx, p))
	for _, task := range tasks {
		task.ProjectID = p.ID
		require.NoError(t, r.tasks.Create(ctx, task))
	}
	return p
}
