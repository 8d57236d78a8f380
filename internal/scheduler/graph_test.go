package scheduler

import (
	"testing"

	"github.com/alexanderramin/gantry/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestWouldCreateCycle(t *testing.T) {
	links := []domain.Predecessor{fs("b", "a"), fs("c", "b")}

	tests := []struct {
		name       string
		task, pred string
		want       bool
	}{
		{"closing the chain", "a", "c", true},
		{"direct back edge", "a", "b", true},
		{"self link", "a", "a", true},
		{"forward edge", "c", "a", false},
		{"unrelated task", "d", "c", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WouldCreateCycle(links, tt.task, tt.pred))
		})
	}
}

func TestFindCycles(t *testing.T) {
	links := []domain.Predecessor{
		fs("b", "a"), fs("a", "b"),
		fs("d", "c"), fs("e", "d"), fs("c", "e"),
		fs("f", "a"),
	}
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d", "e"}}, FindCycles(links))
	assert.Empty(t, FindCycles([]domain.Predecessor{fs("b", "a")}))
}

func TestStronglyConnected_ReverseTopologicalOrder(t *testing.T) {
	succ := successorIndex([]domain.Predecessor{fs("b", "a"), fs("c", "b")}, nil)
	comps := stronglyConnected([]string{"a", "b", "c"}, succ)
	assert.Equal(t, [][]string{{"c"}, {"b"}, {"a"}}, comps)
}

func TestEffectiveParents(t *testing.T) {
	tasks := []domain.Task{
		newTask("root"),
		newTask("child", withParent("root")),
		newTask("ghost-child", withParent("ghost")),
		newTask("x", withParent("y")),
		newTask("y", withParent("x")),
		newTask("under-loop", withParent("x")),
	}
	got := effectiveParents(tasks)
	assert.Equal(t, map[string]string{"child": "root", "under-loop": "x"}, got)
}
