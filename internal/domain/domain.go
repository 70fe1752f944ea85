// Package domain defines the abstract contract a concrete state/environment must satisfy for
// the planner in the mamcts package to search over it. It deliberately says nothing about any
// particular environment (a crossing/intersection toy world, or otherwise) -- those are external
// collaborators that implement this contract.
package domain

import (
	"github.com/pkg/errors"
)

// AgentIdx identifies an agent taking part in the joint decision process. Agents are numbered
// contiguously from 0; the ego agent -- the one the planner chooses actions for -- is always
// EgoAgentIdx.
type AgentIdx uint8

// EgoAgentIdx is the agent the planner selects actions for. It is always present and always
// occupies position 0 of a JointAction and of State.AgentIndices().
const EgoAgentIdx AgentIdx = 0

// ActionIdx identifies one of the actions enumerated for an agent at a given state.
type ActionIdx uint16

// HypothesisId identifies one behavioural hypothesis for an opponent agent.
type HypothesisId uint32

// Reward is the payoff an agent receives on a single transition.
type Reward = float32

// JointAction is an ordered sequence of per-agent actions, one per agent, indexed by AgentIdx:
// JointAction[i] is agent i's action. It is enacted atomically by State.Execute.
type JointAction []ActionIdx

// Clone returns an independent copy of the joint action.
func (j JointAction) Clone() JointAction {
	c := make(JointAction, len(j))
	copy(c, j)
	return c
}

// Key returns a value usable as a comparable map key for this joint action, so a StageNode can
// index its children by the JointAction that leads to them. Two JointActions with the same
// contents always produce the same key.
func (j JointAction) Key() string {
	buf := make([]byte, 0, len(j)*3)
	for _, a := range j {
		buf = append(buf, byte(a>>8), byte(a), ',')
	}
	return string(buf)
}

// HypothesisAssignment maps each opponent AgentIdx to the HypothesisId currently assumed for it.
// A single assignment is sampled once per simulation by the belief tracker and shared by
// reference across every StageNode visited during that simulation -- it must not be mutated
// mid-simulation (see spec §5).
type HypothesisAssignment map[AgentIdx]HypothesisId

// Clone returns an independent copy of the assignment.
func (h HypothesisAssignment) Clone() HypothesisAssignment {
	c := make(HypothesisAssignment, len(h))
	for k, v := range h {
		c[k] = v
	}
	return c
}

// State is the minimal contract a concrete environment state must implement. Implementations
// must be deterministic given the same (state, joint action): any stochasticity in a transition
// must be folded into the state's own pseudo-random draw using the shared internal/random
// source, not a private one. Execute must not mutate the receiver; Clone must deep-copy all
// agent substate.
type State interface {
	// Execute applies a joint action and returns the resulting state and the reward each agent
	// received on this transition, aligned by AgentIndices() order. It must return exactly
	// len(AgentIndices()) rewards and must not mutate the receiver.
	Execute(joint JointAction) (next State, rewards []Reward, err error)

	// Clone returns a deep copy of the state.
	Clone() State

	// NumActions returns how many actions are enumerated for the given agent at this state.
	NumActions(agent AgentIdx) int

	// IsTerminal reports whether the state ends the decision process.
	IsTerminal() bool

	// AgentIndices returns the agents present at this state, in a fixed order with the ego
	// agent always first (position 0).
	AgentIndices() []AgentIdx
}

// HypothesisState extends State with what the planner needs to reason about opponents governed
// by behavioural hypotheses: sampling an opponent's action under an assumed hypothesis, and
// scoring the likelihood of an observed action under each hypothesis for belief updates.
type HypothesisState interface {
	State

	// PlanActionUnderHypothesis samples the action agent would take under the hypothesis the
	// assignment currently assumes for it. The assignment is passed explicitly for the duration
	// of one simulation rather than stored inside the state (see spec §9).
	PlanActionUnderHypothesis(agent AgentIdx, assignment HypothesisAssignment) (ActionIdx, error)

	// Probability returns the likelihood P(action | hypothesis) that agent would take action
	// under the given hypothesis, used by the belief tracker to score observed behaviour.
	Probability(agent AgentIdx, hypothesis HypothesisId, action ActionIdx) float32

	// Prior returns the prior probability of hypothesis for agent.
	Prior(agent AgentIdx, hypothesis HypothesisId) float32

	// NumHypotheses returns how many hypotheses are modeled for agent.
	NumHypotheses(agent AgentIdx) int

	// LastAction returns the most recently observed real-world action for agent, if any.
	LastAction(agent AgentIdx) (action ActionIdx, ok bool)
}

// ValidateTransition checks the domain contract at the boundary between the caller-supplied
// State implementation and the planner: Execute must return exactly one reward per agent. This
// is a domain-contract error per spec §7, not a recoverable runtime condition -- callers never
// catch it, they fix the State implementation.
func ValidateTransition(numAgents int, rewards []Reward) error {
	if len(rewards) != numAgents {
		return errors.Errorf("state.Execute returned %d rewards, want %d (one per agent)", len(rewards), numAgents)
	}
	return nil
}
