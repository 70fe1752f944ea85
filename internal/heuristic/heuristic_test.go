package heuristic

import (
	"testing"

	"github.com/cirrostratus1/mamcts/internal/domain"
	"github.com/cirrostratus1/mamcts/internal/domain/domaintest"
	"github.com/cirrostratus1/mamcts/internal/random"
	"github.com/stretchr/testify/require"
)

func coordinationReward(joint domain.JointAction) []domain.Reward {
	if joint[0] == joint[1] {
		return []domain.Reward{1, -1}
	}
	return []domain.Reward{-1, 1}
}

func newFixture(maxSteps int) *domaintest.State {
	return domaintest.New(2, map[domain.AgentIdx]domaintest.AgentSpec{
		1: {
			NumActions: 2,
			Hypotheses: []domaintest.HypothesisBehaviour{
				{Probabilities: []float32{0.5, 0.5}, Prior: 1},
			},
		},
	}, coordinationReward, maxSteps)
}

func TestRolloutHeuristic_Deterministic(t *testing.T) {
	state := newFixture(5)
	assignment := domain.HypothesisAssignment{1: 0}

	random.Seed(42)
	h := &RolloutHeuristic{Depth: 3}
	v1, c1, err := h.Evaluate(state, assignment, 0.9)
	require.NoError(t, err)

	random.Seed(42)
	v2, c2, err := h.Evaluate(state, assignment, 0.9)
	require.NoError(t, err)

	require.Equal(t, v1, v2)
	require.Equal(t, c1, c2)
}

func TestRolloutHeuristic_StopsAtTerminal(t *testing.T) {
	state := newFixture(1) // terminal after one transition
	assignment := domain.HypothesisAssignment{1: 0}
	random.Seed(7)
	h := &RolloutHeuristic{Depth: 10}
	value, egoCost, err := h.Evaluate(state, assignment, 0.9)
	require.NoError(t, err)
	require.Equal(t, value, egoCost)
	// Only the single transition before the terminal state contributes: one undiscounted ±1.
	require.Contains(t, []float32{1, -1}, value)
}
