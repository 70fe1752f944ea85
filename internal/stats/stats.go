// Package stats implements the selection and backpropagation discipline each intermediate node
// in the search tree follows: UCB1 for the ego agent, hypothesis-conditioned selection for
// opponents, sharing the reward-accumulation arithmetic spec §4.C pins down.
package stats

import (
	"github.com/cirrostratus1/mamcts/internal/domain"
)

// Statistic is the capability set every intermediate node's per-agent statistic implements
// (spec §4.C): choose an action, fold in one child's outcome, seed a freshly expanded leaf, and
// (for the ego only) report the best action found so far.
type Statistic interface {
	// ChooseAction selects this agent's action at state. For the ego this runs UCB1; for an
	// opponent this queries state.PlanActionUnderHypothesis -- the assignment determines which
	// hypothesis (and hence which row of this statistic) governs the pick.
	ChooseAction(state domain.State, assignment domain.HypothesisAssignment) (domain.ActionIdx, error)

	// Backprop folds in the outcome of taking action: the reward collected on the transition,
	// and the child stage node's own (value, visit count) pair. Called once per simulation that
	// passes through this node, in LIFO order from the leaf back to the root.
	Backprop(action domain.ActionIdx, reward domain.Reward, childValue float32, childVisits int)

	// InitLeaf installs a heuristic-derived (or terminal-zero) estimate on a freshly expanded
	// node and marks it visited once.
	InitLeaf(assignment domain.HypothesisAssignment, value float32, egoCost float32)

	// BestAction returns the action with the highest estimated value. Defined for the ego
	// statistic; opponent statistics never need it (spec: "unused for opponents").
	BestAction() (domain.ActionIdx, error)

	// TotalVisits returns how many times Backprop (or the implicit visit from InitLeaf) has
	// been recorded for this node.
	TotalVisits() int

	// Value returns the node's own scalar value, as last computed by Backprop or InitLeaf.
	Value() float32
}

// runningMean folds x into the running average of k samples (1-indexed): the k-th call updates
// mean toward x by 1/k of the remaining gap. This is the "mean over updates, not over visits"
// form spec §9 open question (i) pins down for action_ego_cost.
func runningMean(mean float32, k int, x float32) float32 {
	return mean + (x-mean)/float32(k)
}
