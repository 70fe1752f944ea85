// Package config defines the planner's explicit configuration record (spec §4.H) and its
// construction from a comma-separated parameter string, in the style of the teacher's
// internal/parameters-driven player configuration.
package config

import (
	"github.com/cirrostratus1/mamcts/internal/parameters"
	"github.com/pkg/errors"
)

// PosteriorKind selects which belief-tracker posterior formula (spec §4.G) is active.
type PosteriorKind int

const (
	// PosteriorProduct computes P(h) ∝ prior(h) · exp(sum of observed log-likelihoods).
	PosteriorProduct PosteriorKind = iota
	// PosteriorSum computes P(h) ∝ prior(h) · exp(mean of observed log-likelihoods).
	PosteriorSum
	// PosteriorFixedAlpha computes P(h) ∝ prior(h) · exp(EMA of observed log-likelihoods).
	PosteriorFixedAlpha
)

// String returns the configuration-string spelling of k.
func (k PosteriorKind) String() string {
	switch k {
	case PosteriorProduct:
		return "product"
	case PosteriorSum:
		return "sum"
	case PosteriorFixedAlpha:
		return "fixed-alpha"
	default:
		return "unknown"
	}
}

func parsePosteriorKind(s string) (PosteriorKind, error) {
	switch s {
	case "", "product":
		return PosteriorProduct, nil
	case "sum":
		return PosteriorSum, nil
	case "fixed-alpha", "fixed_alpha":
		return PosteriorFixedAlpha, nil
	default:
		return PosteriorProduct, errors.Errorf("unknown belief posterior type %q", s)
	}
}

// Config holds every knob the search driver and the statistics need (spec §4.H).
type Config struct {
	// DiscountFactor (γ) applied to child values during backpropagation. Must be in (0, 1].
	DiscountFactor float32

	// ExplorationConstant (c) scales the UCB1 exploration term. Must be > 0.
	ExplorationConstant float32

	// MaxIterations is the fixed simulation budget per Plan call.
	MaxIterations int

	// MaxDepth caps how many stages a single simulation may descend before treating the
	// current stage as a leaf.
	MaxDepth int

	// LatestReturnLB, LatestReturnUB bound the range used to normalize Q-values into [0, 1]
	// for the UCB1 exploitation term. Must satisfy LatestReturnLB < LatestReturnUB.
	LatestReturnLB, LatestReturnUB float32

	// BeliefPosteriorType selects the belief tracker's posterior formula.
	BeliefPosteriorType PosteriorKind

	// BeliefAlpha is the smoothing constant used by PosteriorFixedAlpha. Must be in (0, 1].
	BeliefAlpha float32

	// RandomSeed seeds the process-wide internal/random source at planner construction.
	RandomSeed int64
}

// Default returns reasonable defaults, in the spirit of the teacher's MCTS searcher defaults
// (internal/searchers/mcts/players_params.go).
func Default() Config {
	return Config{
		DiscountFactor:      0.95,
		ExplorationConstant: 1.4,
		MaxIterations:       300,
		MaxDepth:            20,
		LatestReturnLB:      -10,
		LatestReturnUB:      10,
		BeliefPosteriorType: PosteriorProduct,
		BeliefAlpha:         0.3,
		RandomSeed:          1,
	}
}

// Validate enforces spec §7's precondition error kind: malformed configuration aborts loudly at
// construction rather than failing confusingly mid-search.
func (c Config) Validate() error {
	if c.DiscountFactor <= 0 || c.DiscountFactor > 1 {
		return errors.Errorf("DiscountFactor must be in (0, 1], got %g", c.DiscountFactor)
	}
	if c.ExplorationConstant <= 0 {
		return errors.Errorf("ExplorationConstant must be > 0, got %g", c.ExplorationConstant)
	}
	if c.MaxIterations < 0 {
		return errors.Errorf("MaxIterations must be >= 0, got %d", c.MaxIterations)
	}
	if c.MaxDepth < 1 {
		return errors.Errorf("MaxDepth must be >= 1, got %d", c.MaxDepth)
	}
	if c.LatestReturnLB >= c.LatestReturnUB {
		return errors.Errorf("LatestReturnLB (%g) must be < LatestReturnUB (%g)", c.LatestReturnLB, c.LatestReturnUB)
	}
	if c.BeliefPosteriorType == PosteriorFixedAlpha && (c.BeliefAlpha <= 0 || c.BeliefAlpha > 1) {
		return errors.Errorf("BeliefAlpha must be in (0, 1], got %g", c.BeliefAlpha)
	}
	return nil
}

// NewFromParams builds a Config starting from Default() and overriding fields found in a
// configuration string, e.g. "discount=0.9,c=1.2,iterations=500,max_depth=15,posterior=sum".
// Recognized keys: discount, c, iterations, max_depth, return_lb, return_ub, posterior, alpha,
// seed.
func NewFromParams(configString string) (Config, error) {
	params := parameters.NewFromConfigString(configString)
	cfg := Default()
	var err error

	cfg.DiscountFactor, err = parameters.PopParamOr(params, "discount", cfg.DiscountFactor)
	if err != nil {
		return cfg, err
	}
	cfg.ExplorationConstant, err = parameters.PopParamOr(params, "c", cfg.ExplorationConstant)
	if err != nil {
		return cfg, err
	}
	cfg.MaxIterations, err = parameters.PopParamOr(params, "iterations", cfg.MaxIterations)
	if err != nil {
		return cfg, err
	}
	cfg.MaxDepth, err = parameters.PopParamOr(params, "max_depth", cfg.MaxDepth)
	if err != nil {
		return cfg, err
	}
	cfg.LatestReturnLB, err = parameters.PopParamOr(params, "return_lb", cfg.LatestReturnLB)
	if err != nil {
		return cfg, err
	}
	cfg.LatestReturnUB, err = parameters.PopParamOr(params, "return_ub", cfg.LatestReturnUB)
	if err != nil {
		return cfg, err
	}
	posteriorStr, err := parameters.PopParamOr(params, "posterior", cfg.BeliefPosteriorType.String())
	if err != nil {
		return cfg, err
	}
	cfg.BeliefPosteriorType, err = parsePosteriorKind(posteriorStr)
	if err != nil {
		return cfg, err
	}
	cfg.BeliefAlpha, err = parameters.PopParamOr(params, "alpha", cfg.BeliefAlpha)
	if err != nil {
		return cfg, err
	}
	cfg.RandomSeed, err = parameters.PopParamOr(params, "seed", cfg.RandomSeed)
	if err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
