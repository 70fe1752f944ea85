// Package domaintest provides a small synthetic fixture environment used by this module's own
// tests, standing in for the concrete environments (a crossing/intersection toy world) that
// spec.md deliberately keeps out of scope. It mirrors the role of the teacher's
// internal/state/statetest package: builder helpers for deterministic test states.
package domaintest

import (
	"github.com/cirrostratus1/mamcts/internal/domain"
	"github.com/cirrostratus1/mamcts/internal/random"
)

// HypothesisBehaviour describes one agent's behaviour under one hypothesis: either a fixed
// action (used to pin down deterministic tests such as spec scenario S4), or a probability
// distribution over actions sampled via the shared PRNG.
type HypothesisBehaviour struct {
	// Fixed, if non-nil, makes PlanActionUnderHypothesis always return this action.
	Fixed *domain.ActionIdx
	// Probabilities, used when Fixed is nil, must sum to 1 and have one entry per action.
	Probabilities []float32
	// Prior is this hypothesis's prior probability for the owning agent.
	Prior float32
}

// AgentSpec configures one non-ego agent's hypotheses.
type AgentSpec struct {
	NumActions  int
	Hypotheses  []HypothesisBehaviour
}

// RewardFunc computes the per-agent reward for a transition's joint action.
type RewardFunc func(joint domain.JointAction) []domain.Reward

// State is a small deterministic fixture implementing domain.HypothesisState. Agent 0 is always
// the ego; each non-ego agent's behaviour is configured via AgentSpec.
type State struct {
	egoNumActions int
	opponents     map[domain.AgentIdx]AgentSpec
	agentOrder    []domain.AgentIdx
	reward        RewardFunc

	step, maxSteps int
	terminal       bool
	lastAction     map[domain.AgentIdx]domain.ActionIdx
}

var _ domain.HypothesisState = (*State)(nil)

// New builds a root fixture state. opponents maps each non-ego agent index to its spec;
// maxSteps bounds how many Execute calls occur before the state reports terminal.
func New(egoNumActions int, opponents map[domain.AgentIdx]AgentSpec, reward RewardFunc, maxSteps int) *State {
	order := []domain.AgentIdx{domain.EgoAgentIdx}
	for agent := range opponents {
		order = append(order, agent)
	}
	// Deterministic ordering: agents are assumed contiguous starting at 0 in this fixture.
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && order[j] < order[j-1]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	return &State{
		egoNumActions: egoNumActions,
		opponents:     opponents,
		agentOrder:    order,
		reward:        reward,
		maxSteps:      maxSteps,
		lastAction:    map[domain.AgentIdx]domain.ActionIdx{},
	}
}

// Clone implements domain.State.
func (s *State) Clone() domain.State {
	c := *s
	c.lastAction = make(map[domain.AgentIdx]domain.ActionIdx, len(s.lastAction))
	for k, v := range s.lastAction {
		c.lastAction[k] = v
	}
	return &c
}

// Execute implements domain.State.
func (s *State) Execute(joint domain.JointAction) (domain.State, []domain.Reward, error) {
	next := s.Clone().(*State)
	next.step = s.step + 1
	next.terminal = next.step >= next.maxSteps
	for _, agent := range s.agentOrder {
		next.lastAction[agent] = joint[agent]
	}
	rewards := s.reward(joint)
	return next, rewards, nil
}

// NumActions implements domain.State.
func (s *State) NumActions(agent domain.AgentIdx) int {
	if agent == domain.EgoAgentIdx {
		return s.egoNumActions
	}
	return s.opponents[agent].NumActions
}

// IsTerminal implements domain.State.
func (s *State) IsTerminal() bool { return s.terminal }

// AgentIndices implements domain.State.
func (s *State) AgentIndices() []domain.AgentIdx { return s.agentOrder }

// PlanActionUnderHypothesis implements domain.HypothesisState.
func (s *State) PlanActionUnderHypothesis(agent domain.AgentIdx, assignment domain.HypothesisAssignment) (domain.ActionIdx, error) {
	spec := s.opponents[agent]
	hyp := assignment[agent]
	behaviour := spec.Hypotheses[hyp]
	if behaviour.Fixed != nil {
		return *behaviour.Fixed, nil
	}
	r := random.Float32()
	var cumulative float32
	for idx, p := range behaviour.Probabilities {
		cumulative += p
		if r <= cumulative {
			return domain.ActionIdx(idx), nil
		}
	}
	return domain.ActionIdx(len(behaviour.Probabilities) - 1), nil
}

// Probability implements domain.HypothesisState.
func (s *State) Probability(agent domain.AgentIdx, hypothesis domain.HypothesisId, action domain.ActionIdx) float32 {
	behaviour := s.opponents[agent].Hypotheses[hypothesis]
	if behaviour.Fixed != nil {
		if *behaviour.Fixed == action {
			return 1
		}
		return 0
	}
	return behaviour.Probabilities[action]
}

// Prior implements domain.HypothesisState.
func (s *State) Prior(agent domain.AgentIdx, hypothesis domain.HypothesisId) float32 {
	return s.opponents[agent].Hypotheses[hypothesis].Prior
}

// NumHypotheses implements domain.HypothesisState.
func (s *State) NumHypotheses(agent domain.AgentIdx) int {
	return len(s.opponents[agent].Hypotheses)
}

// LastAction implements domain.HypothesisState.
func (s *State) LastAction(agent domain.AgentIdx) (domain.ActionIdx, bool) {
	a, ok := s.lastAction[agent]
	return a, ok
}

// FixedAction is a convenience constructor for a HypothesisBehaviour.Fixed pointer.
func FixedAction(a domain.ActionIdx) *domain.ActionIdx { return &a }
