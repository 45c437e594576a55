package optim

import (
	"context"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/san-kum/forcesim/internal/analysis"
	"github.com/san-kum/forcesim/internal/config"
	"github.com/san-kum/forcesim/internal/experiment"
	"github.com/san-kum/forcesim/internal/graph"
	"github.com/san-kum/forcesim/internal/sim"
)

// Objective scores a finished run; lower is better.
type Objective func(e *experiment.Experiment, result *sim.Result) (float64, error)

// QualityObjective scores the settled layout with a named
// analysis.Report objective.
func QualityObjective(name string) Objective {
	return func(e *experiment.Experiment, _ *sim.Result) (float64, error) {
		report, err := analysis.Analyze(e.Snapshot(), e.Config().Spring.RestLength)
		if err != nil {
			return 0, err
		}
		return report.Objective(name)
	}
}

// MetricObjective scores a run by one of its metrics.
func MetricObjective(name string) Objective {
	return func(_ *experiment.Experiment, result *sim.Result) (float64, error) {
		v, ok := result.Metrics[name]
		if !ok {
			return 0, fmt.Errorf("unknown metric: %s", name)
		}
		return v, nil
	}
}

// ObjectiveFor resolves a layout quality objective first and falls back
// to a run metric of the same name.
func ObjectiveFor(name string) Objective {
	if slices.Contains(analysis.Objectives(), name) {
		return QualityObjective(name)
	}
	return MetricObjective(name)
}

type Trial struct {
	Params  map[string]float64
	Score   float64
	Ticks   int
	Settled bool
	Err     error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Builder creates the experiment for one point of the grid.
type Builder func(params map[string]float64) (*experiment.Experiment, error)

// ConfigBuilder applies each grid point to a copy of base through
// config.Config.Set and builds an experiment on g.
func ConfigBuilder(base *config.Config, g *graph.Graph) Builder {
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := base.Clone()
		for _, k := range slices.Sorted(maps.Keys(params)) {
			if err := cfg.Set(k, params[k]); err != nil {
				return nil, err
			}
		}
		return experiment.New(cfg, g)
	}
}

// Search runs every combination of the parameter ranges and returns the
// best trial and all trials in grid order. Failing points are recorded
// with Err set and never win. Cancellation stops the search with
// ctx.Err().
func (g *GridSearch) Search(ctx context.Context, build Builder, objective Objective, maxTicks int) (Trial, []Trial, error) {
	if len(g.paramNames) != len(g.ranges) {
		return Trial{}, nil, fmt.Errorf("grid search: %d params but %d ranges", len(g.paramNames), len(g.ranges))
	}

	best := Trial{Score: math.Inf(1)}
	var trials []Trial
	err := g.searchRecursive(ctx, 0, make(map[string]float64), func(params map[string]float64) error {
		trial := g.evaluate(ctx, params, build, objective, maxTicks)
		if err := ctx.Err(); err != nil {
			return err
		}
		trials = append(trials, trial)
		if trial.Err == nil && trial.Score < best.Score {
			best = trial
		}
		return nil
	})
	if best.Params == nil && err == nil && len(trials) > 0 {
		err = fmt.Errorf("grid search: every trial failed: %w", trials[0].Err)
	}
	return best, trials, err
}

func (g *GridSearch) evaluate(ctx context.Context, params map[string]float64, build Builder, objective Objective, maxTicks int) Trial {
	trial := Trial{Params: params}

	exp, err := build(params)
	if err != nil {
		trial.Err = err
		return trial
	}
	result, err := exp.Run(ctx, maxTicks)
	if err != nil {
		trial.Err = err
		return trial
	}
	trial.Ticks, trial.Settled = result.Ticks, result.Settled
	trial.Score, trial.Err = objective(exp, result)
	return trial
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	visit func(map[string]float64) error,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		return visit(current)
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := maps.Clone(current)
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, visit); err != nil {
			return err
		}
	}
	return nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}
