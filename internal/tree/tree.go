// Package tree implements the search-tree data model: a stage node factored into one ego
// intermediate node plus one intermediate node per opponent, with children keyed by the full
// joint action that reaches them (spec §3, §4.E).
package tree

import (
	"slices"

	"github.com/cirrostratus1/mamcts/internal/config"
	"github.com/cirrostratus1/mamcts/internal/domain"
	"github.com/cirrostratus1/mamcts/internal/generics"
	"github.com/cirrostratus1/mamcts/internal/stats"
	"github.com/pkg/errors"
)

// IntermediateNode binds one agent's statistic to its agent index inside a StageNode.
type IntermediateNode struct {
	Agent domain.AgentIdx
	Stat  stats.Statistic
}

// StageNode represents a decision stage at one tree depth: the state at this stage, the ego
// intermediate node, the opponent intermediate nodes (aligned to the state's non-ego agent
// order), and the children reached from here, keyed by the joint action taken.
type StageNode struct {
	ID            int
	Depth         int
	IsRoot        bool
	State         domain.HypothesisState
	JointActionIn domain.JointAction // the joint action that led here; nil for the root
	RewardIn      []domain.Reward    // reward received transitioning into this node; nil for the root

	Ego       *IntermediateNode
	Opponents []*IntermediateNode

	Children map[string]*StageNode

	ids *int // monotonic id counter shared by every node in one search tree
}

// newIntermediateNodes builds one ego UCB statistic and one Hypothesis statistic per non-ego
// agent, sized from state's own action/hypothesis counts (spec invariant 2).
func newIntermediateNodes(state domain.HypothesisState, cfg config.Config) (ego *IntermediateNode, opponents []*IntermediateNode, err error) {
	agents := state.AgentIndices()
	if len(agents) == 0 {
		return nil, nil, errors.Errorf("state has no agents")
	}
	if agents[0] != domain.EgoAgentIdx {
		return nil, nil, errors.Errorf("state.AgentIndices()[0] = %d, want ego agent %d", agents[0], domain.EgoAgentIdx)
	}
	ego = &IntermediateNode{
		Agent: domain.EgoAgentIdx,
		Stat: stats.NewUCBStatistic(state.NumActions(domain.EgoAgentIdx),
			cfg.DiscountFactor, cfg.ExplorationConstant, cfg.LatestReturnLB, cfg.LatestReturnUB),
	}
	for _, agent := range agents[1:] {
		numHyp := state.NumHypotheses(agent)
		if numHyp <= 0 {
			return nil, nil, errors.Errorf("agent %d: NumHypotheses must be > 0", agent)
		}
		opponents = append(opponents, &IntermediateNode{
			Agent: agent,
			Stat:  stats.NewHypothesisStatistic(agent, numHyp, state.NumActions(agent), cfg.DiscountFactor),
		})
	}
	return ego, opponents, nil
}

// NewRoot builds the root stage node for one Plan call. Per spec's lifecycle rules, a stage
// node (and the whole tree rooted on it) exists for exactly one planner invocation.
func NewRoot(state domain.HypothesisState, cfg config.Config) (*StageNode, error) {
	ego, opponents, err := newIntermediateNodes(state, cfg)
	if err != nil {
		return nil, err
	}
	id := 0
	return &StageNode{
		ID:        0,
		Depth:     0,
		IsRoot:    true,
		State:     state,
		Ego:       ego,
		Opponents: opponents,
		Children:  make(map[string]*StageNode),
		ids:       &id,
	}, nil
}

// NewChild expands parent with joint: it clones the parent's state, executes the transition,
// builds the child's intermediate nodes, and installs the child into parent.Children. It
// returns an invariant-breach error if joint already has a child (spec invariant 1).
func NewChild(parent *StageNode, joint domain.JointAction, cfg config.Config) (*StageNode, error) {
	key := joint.Key()
	if _, exists := parent.Children[key]; exists {
		return nil, errors.Errorf("stage node %d: joint action %v already has a child (invariant breach)", parent.ID, joint)
	}

	next, rewards, err := parent.State.Clone().(domain.HypothesisState).Execute(joint)
	if err != nil {
		return nil, errors.Wrapf(err, "stage node %d: execute failed", parent.ID)
	}
	if next == nil {
		return nil, errors.Errorf("stage node %d: state.Execute returned a nil next state (domain contract breach)", parent.ID)
	}
	agents := parent.State.AgentIndices()
	if err := domain.ValidateTransition(len(agents), rewards); err != nil {
		return nil, err
	}
	nextHyp, ok := next.(domain.HypothesisState)
	if !ok {
		return nil, errors.Errorf("stage node %d: state.Execute returned a state that is not a domain.HypothesisState", parent.ID)
	}

	ego, opponents, err := newIntermediateNodes(nextHyp, cfg)
	if err != nil {
		return nil, err
	}

	*parent.ids++
	child := &StageNode{
		ID:            *parent.ids,
		Depth:         parent.Depth + 1,
		IsRoot:        false,
		State:         nextHyp,
		JointActionIn: joint.Clone(),
		RewardIn:      rewards,
		Ego:           ego,
		Opponents:     opponents,
		Children:      make(map[string]*StageNode),
		ids:           parent.ids,
	}
	parent.Children[key] = child
	return child, nil
}

// InitLeaves seeds every intermediate node of a freshly expanded stage node with a leaf
// estimate: the heuristic's (value, egoCost) for a non-terminal leaf, or (0, 0) for a terminal
// one -- "backpropagate using rewards only, no heuristic" (spec §4.E).
func (n *StageNode) InitLeaves(assignment domain.HypothesisAssignment, value, egoCost float32) {
	n.Ego.Stat.InitLeaf(assignment, value, egoCost)
	for _, opp := range n.Opponents {
		opp.Stat.InitLeaf(assignment, value, egoCost)
	}
}

// NumChildren reports how many children have been expanded so far, for diagnostics and
// invariant tests (spec invariant 1: |children(s)| <= the joint action space size).
func (n *StageNode) NumChildren() int { return len(n.Children) }

// SortedChildKeys returns this node's expanded children's joint-action keys in deterministic
// order, for reproducible diagnostic dumps and tests over a map-backed Children field.
func (n *StageNode) SortedChildKeys() []string {
	return slices.Collect(generics.SortedKeys(n.Children))
}
