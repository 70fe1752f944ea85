package belief

import (
	"testing"

	"github.com/cirrostratus1/mamcts/internal/config"
	"github.com/cirrostratus1/mamcts/internal/domain"
	"github.com/cirrostratus1/mamcts/internal/domain/domaintest"
	"github.com/stretchr/testify/require"
)

func fixture(posteriorKind config.PosteriorKind) (*domaintest.State, *Tracker) {
	state := domaintest.New(1, map[domain.AgentIdx]domaintest.AgentSpec{
		1: {
			NumActions: 2,
			Hypotheses: []domaintest.HypothesisBehaviour{
				{Probabilities: []float32{0.9, 0.1}, Prior: 0.5},
				{Probabilities: []float32{0.1, 0.9}, Prior: 0.5},
			},
		},
	}, func(joint domain.JointAction) []domain.Reward { return []domain.Reward{0, 0} }, 100)

	cfg := config.Default()
	cfg.BeliefPosteriorType = posteriorKind
	tracker, err := NewTracker(state, cfg)
	if err != nil {
		panic(err)
	}
	return state, tracker
}

// S5 -- belief posterior normalization: three observations of action 0 under a 0.9/0.1 split
// between hypotheses, uniform prior, product variant, converges near (0.999, 0.001).
func TestTracker_ProductVariant_S5(t *testing.T) {
	state, tracker := fixture(config.PosteriorProduct)
	for i := 0; i < 3; i++ {
		require.NoError(t, tracker.Update(state, domain.JointAction{0, 0}))
	}

	posterior := tracker.Posterior(1)
	require.Len(t, posterior, 2)
	require.InDelta(t, float32(1), posterior[0]+posterior[1], 1e-9)
	require.InDelta(t, float32(0.999), posterior[0], 1e-3)
	require.InDelta(t, float32(0.001), posterior[1], 1e-3)
}

func TestTracker_SumVariant_NormalizesToOne(t *testing.T) {
	state, tracker := fixture(config.PosteriorSum)
	require.NoError(t, tracker.Update(state, domain.JointAction{0, 1}))
	require.NoError(t, tracker.Update(state, domain.JointAction{0, 0}))

	posterior := tracker.Posterior(1)
	require.InDelta(t, float32(1), posterior[0]+posterior[1], 1e-9)
}

func TestTracker_FixedAlphaVariant_NormalizesToOne(t *testing.T) {
	state, tracker := fixture(config.PosteriorFixedAlpha)
	require.NoError(t, tracker.Update(state, domain.JointAction{0, 0}))
	require.NoError(t, tracker.Update(state, domain.JointAction{0, 1}))

	posterior := tracker.Posterior(1)
	require.InDelta(t, float32(1), posterior[0]+posterior[1], 1e-9)
}

func TestTracker_NoObservations_IsUniform(t *testing.T) {
	_, tracker := fixture(config.PosteriorProduct)
	posterior := tracker.Posterior(1)
	require.InDelta(t, float32(0.5), posterior[0], 1e-9)
	require.InDelta(t, float32(0.5), posterior[1], 1e-9)
}

func TestTracker_Sample_ReturnsAssignmentForEveryOpponent(t *testing.T) {
	_, tracker := fixture(config.PosteriorProduct)
	assignment := tracker.Sample()
	require.Len(t, assignment, 1)
	_, ok := assignment[1]
	require.True(t, ok)
}
