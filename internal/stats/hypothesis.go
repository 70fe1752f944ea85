package stats

import (
	"github.com/chewxy/math32"
	"github.com/cirrostratus1/mamcts/internal/domain"
	"github.com/pkg/errors"
)

// hypothesisRow is one hypothesis's UCB-style record + visits, exactly mirroring UCBStatistic's
// per-node bookkeeping (spec §3: "Hypothesis statistic... same fields as UCB statistic but
// indexed by (hypothesis_id, action_idx)").
type hypothesisRow struct {
	actions     []ucbAction
	totalVisits int
	value       float32
}

// HypothesisStatistic is an opponent agent's intermediate-node statistic. It does not run UCB1:
// selection delegates to the state's behavioural model under the hypothesis the current
// simulation's assignment picks for this agent. Only that hypothesis's row accumulates on each
// backpropagation (spec invariant 4).
type HypothesisStatistic struct {
	agent      domain.AgentIdx
	discount   float32
	rows       []hypothesisRow
	numActions int

	// current is the HypothesisId this simulation's assignment selected for agent, set by the
	// most recent ChooseAction or InitLeaf call and consumed by the matching Backprop call.
	current domain.HypothesisId
}

var _ Statistic = (*HypothesisStatistic)(nil)

// NewHypothesisStatistic creates a statistic for agent with numHypotheses rows of numActions
// actions each.
func NewHypothesisStatistic(agent domain.AgentIdx, numHypotheses, numActions int, discount float32) *HypothesisStatistic {
	rows := make([]hypothesisRow, numHypotheses)
	for i := range rows {
		rows[i].actions = make([]ucbAction, numActions)
	}
	return &HypothesisStatistic{
		agent:      agent,
		discount:   discount,
		rows:       rows,
		numActions: numActions,
	}
}

// ChooseAction implements Statistic: the opponent samples from its hypothesis's behavioural
// model rather than running UCB1; the statistic only records which row this simulation touches.
func (s *HypothesisStatistic) ChooseAction(state domain.State, assignment domain.HypothesisAssignment) (domain.ActionIdx, error) {
	s.current = assignment[s.agent]
	if int(s.current) >= len(s.rows) {
		return 0, errors.Errorf("agent %d: hypothesis id %d out of range [0, %d)", s.agent, s.current, len(s.rows))
	}
	hypState, ok := state.(domain.HypothesisState)
	if !ok {
		return 0, errors.Errorf("agent %d: state does not implement domain.HypothesisState, required for opponent action selection", s.agent)
	}
	return hypState.PlanActionUnderHypothesis(s.agent, assignment)
}

// Backprop implements Statistic, folding the outcome into the row of the hypothesis that was
// current for this simulation.
func (s *HypothesisStatistic) Backprop(action domain.ActionIdx, reward domain.Reward, childValue float32, childVisits int) {
	row := &s.rows[s.current]
	a := &row.actions[action]
	a.updates++
	a.count += childVisits
	a.egoCost = runningMean(a.egoCost, a.updates, reward+s.discount*childValue)
	row.totalVisits++

	best := float32(math32.Inf(-1))
	for idx := range row.actions {
		if row.actions[idx].count == 0 {
			continue
		}
		if q := row.actions[idx].value(); q > best {
			best = q
		}
	}
	if best == float32(math32.Inf(-1)) {
		best = 0
	}
	row.value = best
}

// InitLeaf implements Statistic, seeding the current-hypothesis row of a freshly expanded node.
func (s *HypothesisStatistic) InitLeaf(assignment domain.HypothesisAssignment, value float32, egoCost float32) {
	s.current = assignment[s.agent]
	row := &s.rows[s.current]
	for idx := range row.actions {
		row.actions[idx].egoCost = egoCost
	}
	row.value = value
	row.totalVisits = 1
}

// BestAction implements Statistic but is unused for opponents (spec §4.C).
func (s *HypothesisStatistic) BestAction() (domain.ActionIdx, error) {
	return 0, errors.Errorf("agent %d: BestAction is not defined for opponent hypothesis statistics", s.agent)
}

// TotalVisits implements Statistic: total visits across every hypothesis row, counting each
// row's Backprop calls plus the single visit InitLeaf records.
func (s *HypothesisStatistic) TotalVisits() int {
	total := 0
	for _, row := range s.rows {
		total += row.totalVisits
	}
	return total
}

// Value implements Statistic: the value of the currently selected hypothesis's row.
func (s *HypothesisStatistic) Value() float32 {
	if int(s.current) >= len(s.rows) {
		return 0
	}
	return s.rows[s.current].value
}

// RowVisits exposes total_node_visits for a specific hypothesis row, for diagnostics and
// invariant tests (spec invariant 4, scenario S3).
func (s *HypothesisStatistic) RowVisits(h domain.HypothesisId) int { return s.rows[h].totalVisits }

// RowActionCount exposes action_count(a) for a specific hypothesis row.
func (s *HypothesisStatistic) RowActionCount(h domain.HypothesisId, action domain.ActionIdx) int {
	return s.rows[h].actions[action].count
}

// RowActionEgoCost exposes action_ego_cost(a) for a specific hypothesis row.
func (s *HypothesisStatistic) RowActionEgoCost(h domain.HypothesisId, action domain.ActionIdx) float32 {
	return s.rows[h].actions[action].egoCost
}

// NumHypotheses returns how many hypothesis rows this statistic tracks.
func (s *HypothesisStatistic) NumHypotheses() int { return len(s.rows) }
