// Package belief tracks, for every opponent agent, a posterior over the behavioural hypotheses
// that might be governing it, and samples one concrete hypothesis assignment per simulation
// (spec §4.G).
package belief

import (
	"github.com/chewxy/math32"
	"github.com/cirrostratus1/mamcts/internal/config"
	"github.com/cirrostratus1/mamcts/internal/domain"
	"github.com/cirrostratus1/mamcts/internal/random"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// hypothesisAccumulator is one hypothesis's running evidence for one opponent agent.
type hypothesisAccumulator struct {
	prior            float32
	logLikelihoodSum float32
	observationCount int
	// ema is the fixed-alpha posterior variant's exponential moving average over per-step
	// log-likelihoods. Only meaningful when the tracker's kind is config.PosteriorFixedAlpha.
	ema float32
}

// Tracker maintains a belief over each opponent's hypothesis, persisted across planner
// invocations and updated only from real-world observations (spec §4.F: "Belief state is
// persistent across planner invocations").
type Tracker struct {
	kind  config.PosteriorKind
	alpha float32

	agents map[domain.AgentIdx][]hypothesisAccumulator
	order  []domain.AgentIdx
}

// NewTracker builds a belief tracker for state's opponent agents, seeding each hypothesis's
// accumulator with its prior.
func NewTracker(state domain.HypothesisState, cfg config.Config) (*Tracker, error) {
	t := &Tracker{
		kind:   cfg.BeliefPosteriorType,
		alpha:  cfg.BeliefAlpha,
		agents: make(map[domain.AgentIdx][]hypothesisAccumulator),
	}
	for _, agent := range state.AgentIndices() {
		if agent == domain.EgoAgentIdx {
			continue
		}
		numHyp := state.NumHypotheses(agent)
		if numHyp <= 0 {
			return nil, errors.Errorf("agent %d: NumHypotheses must be > 0", agent)
		}
		accs := make([]hypothesisAccumulator, numHyp)
		for h := range accs {
			accs[h].prior = state.Prior(agent, domain.HypothesisId(h))
		}
		t.agents[agent] = accs
		t.order = append(t.order, agent)
	}
	return t, nil
}

// Sample draws one hypothesis assignment, one hypothesis id per opponent, from the current
// posterior over each opponent independently (spec §4.G: "sample(): hypothesis_assignment").
func (t *Tracker) Sample() domain.HypothesisAssignment {
	assignment := make(domain.HypothesisAssignment, len(t.order))
	for _, agent := range t.order {
		posterior := t.posterior(agent)
		assignment[agent] = sampleFrom(posterior)
	}
	return assignment
}

// Update folds one real-world observed joint action into every opponent's evidence (spec §4.G).
// It is never called during search, only between plan calls when the caller reports what
// actually happened.
func (t *Tracker) Update(state domain.HypothesisState, observedJoint domain.JointAction) error {
	for _, agent := range t.order {
		if int(agent) >= len(observedJoint) {
			return errors.Errorf("agent %d: observed joint action has only %d entries", agent, len(observedJoint))
		}
		action := observedJoint[agent]
		accs := t.agents[agent]
		for h := range accs {
			p := state.Probability(agent, domain.HypothesisId(h), action)
			logP := logOf(p)
			accs[h].logLikelihoodSum += logP
			accs[h].observationCount++
			if accs[h].observationCount == 1 {
				accs[h].ema = logP
			} else {
				accs[h].ema = t.alpha*logP + (1-t.alpha)*accs[h].ema
			}
		}
	}
	return nil
}

// posterior computes agent's normalized posterior over its hypotheses under the tracker's
// configured variant, with numeric safety: the max log-likelihood is subtracted before
// exponentiating (spec §4.G).
func (t *Tracker) posterior(agent domain.AgentIdx) []float32 {
	accs := t.agents[agent]
	scores := make([]float32, len(accs))
	for h, acc := range accs {
		scores[h] = t.logScore(acc)
	}

	max := float32(math32.Inf(-1))
	for _, s := range scores {
		if s > max {
			max = s
		}
	}

	weights := make([]float32, len(accs))
	var sum float32
	for h, acc := range accs {
		w := acc.prior * math32.Exp(scores[h]-max)
		weights[h] = w
		sum += w
	}

	if sum <= 0 {
		klog.Warningf("agent %d: belief posterior normalization sum %.6g <= 0, falling back to uniform", agent, sum)
		uniform := 1 / float32(len(weights))
		for h := range weights {
			weights[h] = uniform
		}
		return weights
	}
	for h := range weights {
		weights[h] /= sum
	}
	return weights
}

// logScore returns the per-hypothesis term combined with the prior under the tracker's
// configured posterior variant (spec §4.G: product, sum, fixed-α).
func (t *Tracker) logScore(acc hypothesisAccumulator) float32 {
	switch t.kind {
	case config.PosteriorSum:
		if acc.observationCount == 0 {
			return 0
		}
		return acc.logLikelihoodSum / float32(acc.observationCount)
	case config.PosteriorFixedAlpha:
		return acc.ema
	case config.PosteriorProduct:
		fallthrough
	default:
		return acc.logLikelihoodSum
	}
}

// Posterior exposes agent's current normalized posterior for diagnostics and tests (spec
// invariant 5: "Belief posterior sums to 1 (within 1e-9) after every update").
func (t *Tracker) Posterior(agent domain.AgentIdx) []float32 {
	return t.posterior(agent)
}

// sampleFrom draws an index from a normalized weight vector using the shared PRNG.
func sampleFrom(weights []float32) domain.HypothesisId {
	r := random.Float32()
	var cumulative float32
	for idx, w := range weights {
		cumulative += w
		if r <= cumulative {
			return domain.HypothesisId(idx)
		}
	}
	return domain.HypothesisId(len(weights) - 1)
}

// logOf is math32.Log guarded against log(0), which would otherwise poison a hypothesis's
// evidence with -Inf instead of a large-but-finite penalty.
func logOf(p float32) float32 {
	if p <= 0 {
		return -80
	}
	return math32.Log(p)
}
