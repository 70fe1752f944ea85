package stats

import (
	"testing"

	"github.com/cirrostratus1/mamcts/internal/domain"
	"github.com/cirrostratus1/mamcts/internal/random"
	"github.com/stretchr/testify/require"
)

// S1 -- single-update ego arithmetic (spec §8).
func TestUCBStatistic_SingleUpdate(t *testing.T) {
	s := NewUCBStatistic(6, 0.8, 1.4, -10, 10)
	s.Backprop(5, 2.3, 20.0, 1)

	require.Equal(t, 1, s.ActionCount(5))
	require.InDelta(t, float32(18.3), s.ActionEgoCost(5), 1e-4)
	require.Equal(t, 1, s.TotalVisits())
}

// S2 -- two updates on the same action (spec §8).
func TestUCBStatistic_TwoUpdates(t *testing.T) {
	s := NewUCBStatistic(6, 0.8, 1.4, -10, 10)
	s.Backprop(5, 2.3, 20.0, 1)
	s.Backprop(5, 4.3, 24.5, 1)

	require.Equal(t, 2, s.ActionCount(5))
	require.InDelta(t, float32(21.1), s.ActionEgoCost(5), 1e-3)
	require.Equal(t, 2, s.TotalVisits())
}

// Children visited many times inflate action_count but not the number of updates.
func TestUCBStatistic_ActionCountVsUpdates(t *testing.T) {
	s := NewUCBStatistic(2, 0.9, 1.0, -5, 5)
	s.Backprop(0, 1.0, 2.0, 7)
	s.Backprop(0, 3.0, 4.0, 3)

	require.Equal(t, 10, s.ActionCount(0))
	expectedEgoCost := ((1.0 + 0.9*2.0) + (3.0 + 0.9*4.0)) / 2
	require.InDelta(t, float32(expectedEgoCost), s.ActionEgoCost(0), 1e-4)
}

func TestUCBStatistic_InitLeaf(t *testing.T) {
	s := NewUCBStatistic(3, 0.9, 1.0, -5, 5)
	s.InitLeaf(nil, 2.5, 1.1)

	require.Equal(t, 1, s.TotalVisits())
	require.Equal(t, float32(2.5), s.Value())
}

// S6 -- UCB prefers untried actions regardless of Q on already-tried ones.
func TestUCBStatistic_PrefersUntried(t *testing.T) {
	random.Seed(1)
	s := NewUCBStatistic(2, 0.9, 1.0, -5, 5)
	s.Backprop(0, 100, 100, 1) // make action 0 look great
	action, err := s.ChooseAction(nil, nil)
	require.NoError(t, err)
	require.Equal(t, domain.ActionIdx(1), action)
}

// Zero-iteration plan: no backprops at all, selection must return the first untried action.
func TestUCBStatistic_AllUntried_ReturnsFirst(t *testing.T) {
	s := NewUCBStatistic(4, 0.9, 1.0, -5, 5)
	action, err := s.ChooseAction(nil, nil)
	require.NoError(t, err)
	require.Equal(t, domain.ActionIdx(0), action)

	best, err := s.BestAction()
	require.NoError(t, err)
	require.Equal(t, domain.ActionIdx(0), best)
}

// S3 -- a hypothesis switch isolates rows: each row counts its own updates independently.
func TestHypothesisStatistic_SwitchIsolatesRows(t *testing.T) {
	hs := NewHypothesisStatistic(1, 2, 3, 0.9)

	assignA := domain.HypothesisAssignment{1: 0, 2: 1}
	hs.current = assignA[1]
	hs.Backprop(2, 1.0, 0, 1)
	require.Equal(t, 1, hs.RowVisits(0))
	require.Equal(t, 0, hs.RowVisits(1))

	assignB := domain.HypothesisAssignment{1: 1, 2: 1}
	hs.current = assignB[1]
	hs.Backprop(2, 1.0, 0, 1)
	require.Equal(t, 1, hs.RowVisits(0))
	require.Equal(t, 1, hs.RowVisits(1))
}

func TestHypothesisStatistic_InitLeafSeedsOnlyCurrentRow(t *testing.T) {
	hs := NewHypothesisStatistic(1, 2, 2, 0.9)
	assignment := domain.HypothesisAssignment{1: 1}
	hs.InitLeaf(assignment, 3.0, 1.5)

	require.Equal(t, 1, hs.RowVisits(1))
	require.Equal(t, 0, hs.RowVisits(0))
	require.InDelta(t, float32(1.5), hs.RowActionEgoCost(1, 0), 1e-6)
}

func TestHypothesisStatistic_BestActionUnused(t *testing.T) {
	hs := NewHypothesisStatistic(1, 1, 1, 0.9)
	_, err := hs.BestAction()
	require.Error(t, err)
}
