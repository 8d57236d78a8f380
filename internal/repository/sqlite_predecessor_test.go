package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/gantry/internal/domain"
	"github.com/alexanderramin/gantry/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredecessorRepo_CreateAndList(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	design := testutil.NewTestTask("", "Design")
	build := testutil.NewTestTask("", "Build")
	p := seedProject(t, r, design, build)

	require.NoError(t, r.links.Create(ctx, testutil.NewTestLink(build.ID, design.ID,
		testutil.WithLinkType(domain.LinkStartToStart), testutil.WithLag(-2))))

	forBuild, err := r.links.ListForTask(ctx, build.ID)
	require.NoError(t, err)
	require.Len(t, forBuild, 1)
	assert.Equal(t, design.ID, forBuild[0].PredecessorID)
	assert.Equal(t, domain.LinkStartToStart, forBuild[0].Type)
	assert.Equal(t, -2, forBuild[0].LagDays)

	succ, err := r.links.ListSuccessors(ctx, design.ID)
	require.NoError(t, err)
	require.Len(t, succ, 1)
	assert.Equal(t, build.ID, succ[0].TaskID)

	all, err := r.links.ListByProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPredecessorRepo_CreateReplacesExistingLink(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	a := testutil.NewTestTask("", "A")
	b := testutil.NewTestTask("", "B")
	seedProject(t, r, a, b)

	require.NoError(t, r.links.Create(ctx, testutil.NewTestLink(b.ID, a.ID)))
	require.NoError(t, r.links.Create(ctx, testutil.NewTestLink(b.ID, a.ID, testutil.WithLinkType(domain.LinkFinishToFinish), testutil.WithLag(3))))

	links, err := r.links.ListForTask(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, domain.LinkFinishToFinish, links[0].Type)
	assert.Equal(t, 3, links[0].LagDays)
}

func TestPredecessorRepo_Delete(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	a := testutil.NewTestTask("", "A")
	b := testutil.NewTestTask("", "B")
	seedProject(t, r, a, b)
	require.NoError(t, r.links.Create(ctx, testutil.NewTestLink(b.ID, a.ID)))

	require.NoError(t, r.links.Delete(ctx, b.ID, a.ID))
	assert.ErrorIs(t, r.links.Delete(ctx, b.ID, a.ID), ErrNotFound)
}

func TestPredecessorRepo_RejectsSelfLink(t *testing.T) {
	r := newRepos(t)
	a := testutil.NewTestTask("", "A")
	seedProject(t, r, a)
	assert.Error(t, r.links.Create(context.Background(), testutil.NewTestLink(a.ID, a.ID)))
}

func TestPredecessorRepo_ListByProjectIsScoped(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	a, b := testutil.NewTestTask("", "A"), testutil.NewTestTask("", "B")
	p1 := seedProject(t, r, a, b)
	c, d := testutil.NewTestTask("", "C"), testutil.NewTestTask("", "D")
	seedProject(t, r, c, d)

	require.NoError(t, r.links.Create(ctx, testutil.NewTestLink(b.ID, a.ID)))
	require.NoError(t, r.links.Create(ctx, testutil.NewTestLink(d.ID, c.ID)))

	links, err := r.links.ListByProject(ctx, p1.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, b.ID, links[0].TaskID)
}
