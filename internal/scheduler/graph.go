package scheduler

import (
	"slices"

	"github.com/alexanderramin/gantry/internal/domain"
)

// successorIndex maps a predecessor ID to the tasks that depend on it, in link
// order and without duplicates. Links touching an unknown task are ignored when
// known is non-nil.
func successorIndex(links []domain.Predecessor, known map[string]bool) map[string][]string {
	succ := make(map[string][]string)
	seen := make(map[[2]string]bool, len(links))
	for _, l := range links {
		if known != nil && (!known[l.TaskID] || !known[l.PredecessorID]) {
			continue
		}
		key := [2]string{l.PredecessorID, l.TaskID}
		if seen[key] {
			continue
		}
		seen[key] = true
		succ[l.PredecessorID] = append(succ[l.PredecessorID], l.TaskID)
	}
	return succ
}

func linksByTask(links []domain.Predecessor) map[string][]domain.Predecessor {
	out := make(map[string][]domain.Predecessor)
	for _, l := range links {
		out[l.TaskID] = append(out[l.TaskID], l)
	}
	return out
}

// reachable returns start and everything reachable from it through succ, in
// breadth-first order.
func reachable(start string, succ map[string][]string) []string {
	order := []string{start}
	seen := map[string]bool{start: true}
	for i := 0; i < len(order); i++ {
		for _, next := range succ[order[i]] {
			if !seen[next] {
				seen[next] = true
				order = append(order, next)
			}
		}
	}
	return order
}

// stronglyConnected runs Tarjan's algorithm over nodes. Components come out in
// reverse topological order: a component is emitted after everything it reaches.
func stronglyConnected(nodes []string, succ map[string][]string) [][]string {
	inScope := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		inScope[n] = true
	}

	index := 0
	indices := make(map[string]int, len(nodes))
	lowlink := make(map[string]int, len(nodes))
	onStack := make(map[string]bool, len(nodes))
	var stack []string
	var out [][]string

	var visit func(v string)
	visit = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range succ[v] {
			if !inScope[w] {
				continue
			}
			if _, seen := indices[w]; !seen {
				visit(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var comp []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			out = append(out, comp)
		}
	}

	for _, n := range nodes {
		if _, seen := indices[n]; !seen {
			visit(n)
		}
	}
	return out
}

// cycleMembers flags every node that sits on a dependency cycle: members of a
// component with more than one node, or a node linked to itself.
func cycleMembers(components [][]string, succ map[string][]string) map[string]bool {
	members := make(map[string]bool)
	for _, comp := range components {
		if len(comp) > 1 {
			for _, id := range comp {
				members[id] = true
			}
			continue
		}
		if slices.Contains(succ[comp[0]], comp[0]) {
			members[comp[0]] = true
		}
	}
	return members
}

// FindCycles returns the task IDs of every dependency cycle in links, each
// cycle sorted, cycles ordered by their first ID.
func FindCycles(links []domain.Predecessor) [][]string {
	succ := successorIndex(links, nil)
	var nodes []string
	seen := make(map[string]bool)
	for _, l := range links {
		for _, id := range []string{l.PredecessorID, l.TaskID} {
			if !seen[id] {
				seen[id] = true
				nodes = append(nodes, id)
			}
		}
	}

	var cycles [][]string
	for _, comp := range stronglyConnected(nodes, succ) {
		if len(comp) > 1 || slices.Contains(succ[comp[0]], comp[0]) {
			c := slices.Clone(comp)
			slices.Sort(c)
			cycles = append(cycles, c)
		}
	}
	slices.SortFunc(cycles, func(a, b []string) int {
		switch {
		case a[0] < b[0]:
			return -1
		case a[0] > b[0]:
			return 1
		}
		return 0
	})
	return cycles
}

// WouldCreateCycle reports whether adding "taskID depends on predecessorID"
// to links closes a dependency cycle.
func WouldCreateCycle(links []domain.Predecessor, taskID, predecessorID string) bool {
	if taskID == predecessorID {
		return true
	}
	succ := successorIndex(links, nil)
	return slices.Contains(reachable(taskID, succ), predecessorID)
}

// effectiveParents resolves each task's parent, dropping references to unknown
// tasks and breaking parent chains that loop. Tasks on a loop become roots.
func effectiveParents(tasks []domain.Task) map[string]string {
	known := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		known[t.ID] = true
	}
	parent := make(map[string]string, len(tasks))
	for _, t := range tasks {
		if t.ParentID != nil && known[*t.ParentID] && *t.ParentID != t.ID {
			parent[t.ID] = *t.ParentID
		}
	}

	const (
		unvisited = iota
		onPath
		done
	)
	state := make(map[string]int, len(tasks))
	for _, t := range tasks {
		var path []string
		id, looped := t.ID, false
		for {
			if state[id] == onPath {
				looped = true
				break
			}
			if state[id] == done {
				break
			}
			state[id] = onPath
			path = append(path, id)
			next, ok := parent[id]
			if !ok {
				break
			}
			id = next
		}
		if looped {
			// id was reached twice on this walk: everything from it onward loops.
			for _, member := range path[slices.Index(path, id):] {
				delete(parent, member)
			}
		}
		for _, p := range path {
			state[p] = done
		}
	}
	return parent
}
