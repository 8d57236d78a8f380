package scheduler

import (
	"cmp"
	"slices"

	"github.com/alexanderramin/gantry/internal/contract"
	"github.com/alexanderramin/gantry/internal/domain"
)

// OrganizeHierarchy arranges dated tasks into a parent/child tree and attaches
// each task's allocations joined with their resource. Allocations whose task or
// resource is unknown are dropped.
func OrganizeHierarchy(dated []contract.DatedTask, allocations []domain.Allocation, resources []domain.Resource) []*contract.TaskNode {
	resByID := make(map[string]domain.Resource, len(resources))
	for _, r := range resources {
		resByID[r.ID] = r
	}

	tasks := make([]domain.Task, len(dated))
	nodes := make(map[string]*contract.TaskNode, len(dated))
	for i, d := range dated {
		tasks[i] = d.Task
		nodes[d.Task.ID] = &contract.TaskNode{DatedTask: d}
	}

	for _, a := range allocations {
		n, ok := nodes[a.TaskID]
		if !ok {
			continue
		}
		r, ok := resByID[a.ResourceID]
		if !ok {
			continue
		}
		n.Allocations = append(n.Allocations, contract.ResolvedAllocation{Allocation: a, Resource: r})
	}
	for _, n := range nodes {
		slices.SortStableFunc(n.Allocations, func(a, b contract.ResolvedAllocation) int {
			return a.Allocation.StartDate.Compare(b.Allocation.StartDate)
		})
	}

	parents := effectiveParents(tasks)
	var roots []*contract.TaskNode
	for _, d := range dated {
		n := nodes[d.Task.ID]
		if p, ok := parents[d.Task.ID]; ok {
			nodes[p].Subtasks = append(nodes[p].Subtasks, n)
		} else {
			roots = append(roots, n)
		}
	}

	sortNodes(roots)
	return roots
}

func sortNodes(nodes []*contract.TaskNode) {
	slices.SortStableFunc(nodes, func(a, b *contract.TaskNode) int {
		return cmp.Or(
			cmp.Compare(a.Task.SortOrder, b.Task.SortOrder),
			cmp.Compare(a.Task.Seq, b.Task.Seq),
			cmp.Compare(a.Task.Name, b.Task.Name),
		)
	})
	for _, n := range nodes {
		sortNodes(n.Subtasks)
	}
}

// Flatten walks the tree in pre-order, recording depth and whether each node is
// the last of its siblings.
func Flatten(roots []*contract.TaskNode) []contract.FlatNode {
	var out []contract.FlatNode
	type item struct {
		node   *contract.TaskNode
		level  int
		isLast bool
	}
	stack := make([]item, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, item{roots[i], 0, i == len(roots)-1})
	}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, contract.FlatNode{Node: it.node, Level: it.level, IsLast: it.isLast})
		subs := it.node.Subtasks
		for i := len(subs) - 1; i >= 0; i-- {
			stack = append(stack, item{subs[i], it.level + 1, i == len(subs)-1})
		}
	}
	return out
}
