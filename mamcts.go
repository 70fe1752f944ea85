// Package mamcts implements the core multi-agent Monte Carlo Tree Search planner: a fixed-budget
// simulation loop over a search tree whose nodes factor one joint action into per-agent
// intermediate nodes, with opponents governed by behavioural hypotheses tracked by a persistent
// belief tracker.
package mamcts

import (
	"github.com/cirrostratus1/mamcts/internal/belief"
	"github.com/cirrostratus1/mamcts/internal/config"
	"github.com/cirrostratus1/mamcts/internal/domain"
	"github.com/cirrostratus1/mamcts/internal/heuristic"
	"github.com/cirrostratus1/mamcts/internal/random"
	"github.com/cirrostratus1/mamcts/internal/stats"
	"github.com/cirrostratus1/mamcts/internal/tree"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Mcts is a planner for one opponent-hypothesis-tracked decision process. A value persists
// across Plan calls only through its belief Tracker; the search tree itself is rebuilt fresh on
// every Plan call (spec §4.F: "No tree reuse across plan calls").
type Mcts struct {
	cfg       config.Config
	heuristic heuristic.Heuristic
	belief    *belief.Tracker
	lastRoot  *tree.StageNode
}

// New validates cfg, seeds the shared PRNG, and builds a planner whose belief tracker is
// initialized from state's opponent hypothesis priors. h estimates leaf values; pass
// &heuristic.RolloutHeuristic{Depth: n} for the default fixed-depth random rollout.
func New(state domain.HypothesisState, cfg config.Config, h heuristic.Heuristic) (*Mcts, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	if h == nil {
		return nil, errors.Errorf("heuristic must not be nil")
	}
	random.Seed(cfg.RandomSeed)
	tracker, err := belief.NewTracker(state, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "building belief tracker")
	}
	return &Mcts{cfg: cfg, heuristic: h, belief: tracker}, nil
}

// Observe folds a real-world observed joint action into the belief tracker. It must be called
// between Plan calls, never during one (spec §4.F: "updated only when the caller reports a real
// world observed action").
func (m *Mcts) Observe(state domain.HypothesisState, observedJoint domain.JointAction) error {
	return m.belief.Update(state, observedJoint)
}

// Plan runs the configured simulation budget from root and returns the ego agent's best action.
// Each simulation samples a fresh hypothesis assignment from the belief tracker, shared by
// reference for the whole simulation (spec §4.F, §5).
func (m *Mcts) Plan(root domain.HypothesisState) (domain.ActionIdx, error) {
	rootNode, err := tree.NewRoot(root, m.cfg)
	if err != nil {
		return 0, errors.Wrap(err, "building root stage node")
	}
	m.lastRoot = rootNode

	for i := 0; i < m.cfg.MaxIterations; i++ {
		assignment := m.belief.Sample()
		if err := m.simulateOnce(rootNode, assignment); err != nil {
			return 0, errors.Wrapf(err, "simulation %d", i)
		}
	}

	best, err := rootNode.Ego.Stat.BestAction()
	if err != nil {
		return 0, err
	}
	if klog.V(2).Enabled() {
		klog.Infof("plan: %d iterations, root visits=%d, best action=%d", m.cfg.MaxIterations, rootNode.Ego.Stat.TotalVisits(), best)
	}
	return best, nil
}

// simulateOnce descends from node, expanding at most one new stage node, and backpropagates the
// outcome along the path it walked (spec §4.E).
func (m *Mcts) simulateOnce(node *tree.StageNode, assignment domain.HypothesisAssignment) error {
	joint, err := m.chooseJointAction(node, assignment)
	if err != nil {
		return err
	}

	key := joint.Key()
	child, existed := node.Children[key]
	if !existed {
		child, err = tree.NewChild(node, joint, m.cfg)
		if err != nil {
			return err
		}
		if err := m.expandLeaf(child, assignment); err != nil {
			return err
		}
		m.backpropagateInto(node, joint, child)
		return nil
	}

	if node.Depth+1 >= m.cfg.MaxDepth || child.State.IsTerminal() {
		m.backpropagateInto(node, joint, child)
		return nil
	}

	if err := m.simulateOnce(child, assignment); err != nil {
		return err
	}
	m.backpropagateInto(node, joint, child)
	return nil
}

// chooseJointAction asks every intermediate node at this stage for its agent's action (ego via
// UCB1, opponents via their hypothesis's behavioural model), in agent index order (spec §5).
func (m *Mcts) chooseJointAction(node *tree.StageNode, assignment domain.HypothesisAssignment) (domain.JointAction, error) {
	agents := node.State.AgentIndices()
	joint := make(domain.JointAction, len(agents))

	egoAction, err := node.Ego.Stat.ChooseAction(node.State, assignment)
	if err != nil {
		return nil, errors.Wrap(err, "ego action selection")
	}
	joint[domain.EgoAgentIdx] = egoAction

	for _, opp := range node.Opponents {
		action, err := opp.Stat.ChooseAction(node.State, assignment)
		if err != nil {
			return nil, errors.Wrapf(err, "agent %d action selection", opp.Agent)
		}
		joint[opp.Agent] = action
	}
	return joint, nil
}

// expandLeaf installs the leaf estimate on a freshly created child: rewards-only (value=0,
// egoCost=0) if it is terminal, otherwise the configured heuristic's estimate (spec §4.E).
func (m *Mcts) expandLeaf(child *tree.StageNode, assignment domain.HypothesisAssignment) error {
	if child.State.IsTerminal() {
		child.InitLeaves(assignment, 0, 0)
		return nil
	}
	value, egoCost, err := m.heuristic.Evaluate(child.State, assignment, m.cfg.DiscountFactor)
	if err != nil {
		return errors.Wrap(err, "heuristic evaluation")
	}
	child.InitLeaves(assignment, value, egoCost)
	return nil
}

// backpropagateInto folds child's outcome into every intermediate node at node: each agent's own
// statistic receives its own reward from the transition, but all agents share the same child
// value and visit count -- the ego's, since value is only a well-defined maximized quantity for
// the ego's UCB statistic (spec §4.C).
func (m *Mcts) backpropagateInto(node *tree.StageNode, joint domain.JointAction, child *tree.StageNode) {
	childValue := child.Ego.Stat.Value()
	childVisits := child.Ego.Stat.TotalVisits()

	node.Ego.Stat.Backprop(joint[domain.EgoAgentIdx], child.RewardIn[domain.EgoAgentIdx], childValue, childVisits)
	for _, opp := range node.Opponents {
		opp.Stat.Backprop(joint[opp.Agent], child.RewardIn[opp.Agent], childValue, childVisits)
	}
}

// RootStatistics is a read-only diagnostic snapshot of the ego agent's root-level UCB1 state
// after the most recent Plan call, useful for tests and introspection without exposing the tree
// itself.
type RootStatistics struct {
	TotalVisits int
	Value       float32
	NumActions  int
	ActionCount []int
}

// GetRootStatistics returns a snapshot of the ego agent's statistic at the root of the most
// recent Plan call. It returns the zero value if Plan has not been called yet.
func (m *Mcts) GetRootStatistics() RootStatistics {
	if m.lastRoot == nil {
		return RootStatistics{}
	}
	ucb, ok := m.lastRoot.Ego.Stat.(*stats.UCBStatistic)
	if !ok {
		return RootStatistics{}
	}
	numActions := ucb.NumActions()
	counts := make([]int, numActions)
	for a := 0; a < numActions; a++ {
		counts[a] = ucb.ActionCount(domain.ActionIdx(a))
	}
	return RootStatistics{
		TotalVisits: ucb.TotalVisits(),
		Value:       ucb.Value(),
		NumActions:  numActions,
		ActionCount: counts,
	}
}
