package stats

import (
	"github.com/chewxy/math32"
	"github.com/cirrostratus1/mamcts/internal/domain"
	"github.com/cirrostratus1/mamcts/internal/random"
	"github.com/pkg/errors"
)

// ucbAction holds the per-action bookkeeping of a UCBStatistic.
type ucbAction struct {
	// count is action_count(a) = Σ n_i, the sum of every child's total_node_visits observed
	// across the k updates for this action. It is the UCB1 exploration denominator.
	count int

	// updates is k, the number of times Backprop has been called for this action -- distinct
	// from count, since a single update can fold in a child visited many times.
	updates int

	// egoCost is action_ego_cost(a), the running mean over the k updates of (r + γ·V_child).
	egoCost float32
}

// value (Q_a) is action_ego_cost divided by the cumulative action_count, per spec §4.C.
func (a *ucbAction) value() float32 {
	if a.count == 0 {
		return 0
	}
	return a.egoCost / float32(a.count)
}

// UCBStatistic is the ego agent's intermediate-node statistic: UCB1 selection, maximizing
// backpropagated Q-values.
type UCBStatistic struct {
	cfg struct {
		discount    float32
		exploration float32
		returnLB    float32
		returnUB    float32
	}

	actions     []ucbAction
	totalVisits int
	value_      float32
}

var _ Statistic = (*UCBStatistic)(nil)

// NewUCBStatistic creates a UCB1 statistic over numActions actions.
func NewUCBStatistic(numActions int, discount, exploration, returnLB, returnUB float32) *UCBStatistic {
	s := &UCBStatistic{
		actions: make([]ucbAction, numActions),
	}
	s.cfg.discount = discount
	s.cfg.exploration = exploration
	s.cfg.returnLB = returnLB
	s.cfg.returnUB = returnUB
	return s
}

// normalize clamps q into [0, 1] using the configured latest-return bounds.
func (s *UCBStatistic) normalize(q float32) float32 {
	if s.cfg.returnUB <= s.cfg.returnLB {
		return 0
	}
	n := (q - s.cfg.returnLB) / (s.cfg.returnUB - s.cfg.returnLB)
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}

// ChooseAction implements Statistic: untried actions first (lowest index), otherwise argmax of
// the normalized-exploitation-plus-exploration UCB1 score, ties broken by the shared PRNG.
func (s *UCBStatistic) ChooseAction(_ domain.State, _ domain.HypothesisAssignment) (domain.ActionIdx, error) {
	if len(s.actions) == 0 {
		return 0, errors.Errorf("UCBStatistic has no enumerated actions")
	}
	for idx := range s.actions {
		if s.actions[idx].count == 0 {
			return domain.ActionIdx(idx), nil
		}
	}

	logN := math32.Log(float32(s.totalVisits))
	var best []int
	bestScore := float32(math32.Inf(-1))
	for idx := range s.actions {
		a := &s.actions[idx]
		score := s.normalize(a.value()) + s.cfg.exploration*math32.Sqrt(logN/float32(a.count))
		if score > bestScore {
			bestScore = score
			best = best[:0]
			best = append(best, idx)
		} else if score == bestScore {
			best = append(best, idx)
		}
	}
	return domain.ActionIdx(pickTied(best)), nil
}

// pickTied returns the single candidate directly, or breaks a tie uniformly via the shared PRNG.
func pickTied(candidates []int) int {
	if len(candidates) == 1 {
		return candidates[0]
	}
	return candidates[random.Intn(len(candidates))]
}

// Backprop implements Statistic per spec §4.C: total_node_visits += 1; action_count(a) += n_child;
// action_ego_cost(a) folds in (r + γ·V_child) as a running mean over updates; value becomes
// max_a Q_a.
func (s *UCBStatistic) Backprop(action domain.ActionIdx, reward domain.Reward, childValue float32, childVisits int) {
	a := &s.actions[action]
	a.updates++
	a.count += childVisits
	a.egoCost = runningMean(a.egoCost, a.updates, reward+s.cfg.discount*childValue)
	s.totalVisits++

	best := float32(math32.Inf(-1))
	for idx := range s.actions {
		if s.actions[idx].count == 0 {
			continue
		}
		if q := s.actions[idx].value(); q > best {
			best = q
		}
	}
	if best == float32(math32.Inf(-1)) {
		best = 0
	}
	s.value_ = best
}

// InitLeaf implements Statistic: installs the heuristic (or terminal-zero) leaf estimate.
func (s *UCBStatistic) InitLeaf(_ domain.HypothesisAssignment, value float32, egoCost float32) {
	for idx := range s.actions {
		s.actions[idx].egoCost = egoCost
	}
	s.value_ = value
	s.totalVisits = 1
}

// BestAction implements Statistic: argmax of Q_a, ties broken by the shared PRNG, untried
// actions (count == 0) preferred first by index -- matching ChooseAction's rule so that a
// zero-iteration Plan call still returns a well-defined action.
func (s *UCBStatistic) BestAction() (domain.ActionIdx, error) {
	if len(s.actions) == 0 {
		return 0, errors.Errorf("UCBStatistic has no enumerated actions")
	}
	for idx := range s.actions {
		if s.actions[idx].count == 0 {
			return domain.ActionIdx(idx), nil
		}
	}
	var best []int
	bestQ := float32(math32.Inf(-1))
	for idx := range s.actions {
		q := s.actions[idx].value()
		if q > bestQ {
			bestQ = q
			best = best[:0]
			best = append(best, idx)
		} else if q == bestQ {
			best = append(best, idx)
		}
	}
	return domain.ActionIdx(pickTied(best)), nil
}

// TotalVisits implements Statistic.
func (s *UCBStatistic) TotalVisits() int { return s.totalVisits }

// Value implements Statistic.
func (s *UCBStatistic) Value() float32 { return s.value_ }

// ActionCount exposes action_count(a), for diagnostics and invariant tests.
func (s *UCBStatistic) ActionCount(action domain.ActionIdx) int { return s.actions[action].count }

// ActionEgoCost exposes action_ego_cost(a), for diagnostics and invariant tests.
func (s *UCBStatistic) ActionEgoCost(action domain.ActionIdx) float32 { return s.actions[action].egoCost }

// ActionValue exposes Q_a = action_ego_cost(a) / action_count(a), for diagnostics.
func (s *UCBStatistic) ActionValue(action domain.ActionIdx) float32 { return s.actions[action].value() }

// NumActions returns how many actions this statistic was constructed over.
func (s *UCBStatistic) NumActions() int { return len(s.actions) }
