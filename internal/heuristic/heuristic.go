// Package heuristic produces a leaf value estimate for a non-terminal search-tree leaf without
// deeper search (spec §4.D).
package heuristic

import (
	"github.com/cirrostratus1/mamcts/internal/domain"
	"github.com/cirrostratus1/mamcts/internal/random"
	"github.com/pkg/errors"
)

// Heuristic estimates the value of a non-terminal leaf state, from the ego agent's perspective,
// without expanding the tree any further.
type Heuristic interface {
	// Evaluate returns (value, egoCost): both are the same ego-perspective estimate, installed
	// uniformly on every intermediate node of the freshly expanded leaf (spec §4.E).
	Evaluate(state domain.HypothesisState, assignment domain.HypothesisAssignment, discount float32) (value float32, egoCost float32, err error)
}

// RolloutHeuristic estimates a leaf's value with a fixed-depth random rollout: every agent
// (ego included) acts uniformly at random to the configured depth or until the state
// terminates, and the ego's rewards are summed with geometric discounting. It is deterministic
// under the shared internal/random source for a fixed seed and call order.
type RolloutHeuristic struct {
	// Depth is the number of additional transitions simulated beyond the leaf.
	Depth int
}

var _ Heuristic = (*RolloutHeuristic)(nil)

// Evaluate implements Heuristic.
func (h *RolloutHeuristic) Evaluate(state domain.HypothesisState, assignment domain.HypothesisAssignment, discount float32) (value float32, egoCost float32, err error) {
	current := state
	var sum float32
	discountPow := float32(1)
	for step := 0; step < h.Depth; step++ {
		if current.IsTerminal() {
			break
		}
		agents := current.AgentIndices()
		joint := make(domain.JointAction, len(agents))
		for _, agent := range agents {
			n := current.NumActions(agent)
			if n <= 0 {
				return 0, 0, errors.Errorf("rollout: agent %d has no actions at a non-terminal state", agent)
			}
			joint[agent] = domain.ActionIdx(random.Intn(n))
		}
		nextState, rewards, execErr := current.Execute(joint)
		if execErr != nil {
			return 0, 0, errors.Wrap(execErr, "rollout: execute failed")
		}
		if verr := domain.ValidateTransition(len(agents), rewards); verr != nil {
			return 0, 0, verr
		}
		sum += discountPow * rewards[domain.EgoAgentIdx]
		discountPow *= discount

		nextHyp, ok := nextState.(domain.HypothesisState)
		if !ok {
			return 0, 0, errors.Errorf("rollout: state.Execute returned a state that is not a domain.HypothesisState")
		}
		current = nextHyp
	}
	return sum, sum, nil
}
