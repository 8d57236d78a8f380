package scheduler

import (
	"github.com/alexanderramin/gantry/internal/contract"
	"github.com/alexanderramin/gantry/internal/domain"
)

// EvaluateStatuses classifies every task as unconstrained, valid, conflicted,
// or part of a dependency cycle. Cycle membership is judged over the whole graph.
func EvaluateStatuses(dated []contract.DatedTask, links []domain.Predecessor, opts Options) map[string]contract.ScheduleStatus {
	byID := IndexDated(dated)
	known := make(map[string]bool, len(byID))
	nodes := make([]string, 0, len(dated))
	for _, d := range dated {
		known[d.Task.ID] = true
		nodes = append(nodes, d.Task.ID)
	}
	succ := successorIndex(links, known)
	inCycle := cycleMembers(stronglyConnected(nodes, succ), succ)

	c := newChecker(byID, links, opts)
	out := make(map[string]contract.ScheduleStatus, len(dated))
	for _, d := range dated {
		out[d.Task.ID] = statusOf(c.check(d), inCycle[d.Task.ID])
	}
	return out
}

func statusOf(res contract.ConstraintResult, cyclic bool) contract.ScheduleStatus {
	switch {
	case cyclic:
		return contract.StatusCycle
	case res.Unconstrained:
		return contract.StatusUnconstrained
	case res.Valid:
		return contract.StatusValid
	default:
		return contract.StatusConflicted
	}
}
