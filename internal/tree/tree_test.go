package tree

import (
	"testing"

	"github.com/cirrostratus1/mamcts/internal/config"
	"github.com/cirrostratus1/mamcts/internal/domain"
	"github.com/cirrostratus1/mamcts/internal/domain/domaintest"
	"github.com/stretchr/testify/require"
)

func fixtureState() *domaintest.State {
	return domaintest.New(2, map[domain.AgentIdx]domaintest.AgentSpec{
		1: {NumActions: 2, Hypotheses: []domaintest.HypothesisBehaviour{{Probabilities: []float32{0.5, 0.5}, Prior: 1}}},
	}, func(joint domain.JointAction) []domain.Reward {
		if joint[0] == joint[1] {
			return []domain.Reward{1, -1}
		}
		return []domain.Reward{-1, 1}
	}, 50)
}

func TestNewRoot_BuildsOneIntermediateNodePerAgent(t *testing.T) {
	root, err := NewRoot(fixtureState(), config.Default())
	require.NoError(t, err)
	require.True(t, root.IsRoot)
	require.Equal(t, domain.EgoAgentIdx, root.Ego.Agent)
	require.Len(t, root.Opponents, 1)
	require.Equal(t, 0, root.NumChildren())
}

// Invariant 1 (spec §8): children are distinct joint actions, and a repeated joint action is
// rejected rather than silently overwriting the existing child.
func TestNewChild_RejectsDuplicateJointAction(t *testing.T) {
	root, err := NewRoot(fixtureState(), config.Default())
	require.NoError(t, err)

	joint := domain.JointAction{0, 1}
	_, err = NewChild(root, joint, config.Default())
	require.NoError(t, err)
	require.Equal(t, 1, root.NumChildren())

	_, err = NewChild(root, joint, config.Default())
	require.Error(t, err)
	require.Equal(t, 1, root.NumChildren())
}

func TestNewChild_SetsDepthAndRewardIn(t *testing.T) {
	root, err := NewRoot(fixtureState(), config.Default())
	require.NoError(t, err)

	child, err := NewChild(root, domain.JointAction{0, 0}, config.Default())
	require.NoError(t, err)
	require.Equal(t, root.Depth+1, child.Depth)
	require.False(t, child.IsRoot)
	require.Equal(t, domain.Reward(1), child.RewardIn[domain.EgoAgentIdx])
	require.Equal(t, domain.Reward(-1), child.RewardIn[1])
}

func TestSortedChildKeys_IsDeterministic(t *testing.T) {
	root, err := NewRoot(fixtureState(), config.Default())
	require.NoError(t, err)

	_, err = NewChild(root, domain.JointAction{1, 0}, config.Default())
	require.NoError(t, err)
	_, err = NewChild(root, domain.JointAction{0, 1}, config.Default())
	require.NoError(t, err)

	keys1 := root.SortedChildKeys()
	keys2 := root.SortedChildKeys()
	require.Equal(t, keys1, keys2)
	require.Len(t, keys1, 2)
}

func TestInitLeaves_SeedsEveryIntermediateNode(t *testing.T) {
	root, err := NewRoot(fixtureState(), config.Default())
	require.NoError(t, err)

	root.InitLeaves(domain.HypothesisAssignment{1: 0}, 3.5, 1.2)
	require.Equal(t, float32(3.5), root.Ego.Stat.Value())
	require.Equal(t, 1, root.Ego.Stat.TotalVisits())
	for _, opp := range root.Opponents {
		require.Equal(t, float32(3.5), opp.Stat.Value())
		require.Equal(t, 1, opp.Stat.TotalVisits())
	}
}
