package automation

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/forcesim/internal/analysis"
	"github.com/san-kum/forcesim/internal/config"
	"github.com/san-kum/forcesim/internal/experiment"
	"github.com/san-kum/forcesim/internal/graph"
	"github.com/san-kum/forcesim/internal/sim"
	"github.com/san-kum/forcesim/internal/storage"
)

// Scenario is a scripted sequence of layouts.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep lays out one graph. The graph comes from Graph (a JSON
// file) or, when that is empty, from Generate. Config is a config file;
// Preset is used when it is empty. Params override either.
type ScenarioStep struct {
	Graph    string             `yaml:"graph"`
	Generate *GenerateSpec      `yaml:"generate"`
	Preset   string             `yaml:"preset"`
	Config   string             `yaml:"config"`
	Params   map[string]float64 `yaml:"params"`
	MaxTicks int                `yaml:"max_ticks"`
	Save     bool               `yaml:"save"`
}

type GenerateSpec struct {
	Kind string `yaml:"kind"`
	N    int    `yaml:"n"`
	Seed uint64 `yaml:"seed"`
}

// StepResult is the outcome of one scenario step. RunID is set when the
// step was saved.
type StepResult struct {
	Source string
	RunID  string
	Result *sim.Result
	Report analysis.Report
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	return &scenario, nil
}

// Runner executes scenarios. Store may be nil when no step saves.
type Runner struct {
	Store  *storage.Store
	Logger *log.Logger
}

func NewRunner(store *storage.Store, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	return &Runner{Store: store, Logger: logger}
}

func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		res, err := r.runStep(ctx, step)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		r.Logger.Info("step complete",
			"step", fmt.Sprintf("%d/%d", i+1, len(scenario.Steps)),
			"source", res.Source,
			"ticks", res.Result.Ticks,
			"settled", res.Result.Settled,
			"crossings", res.Report.Crossings,
		)
		results = append(results, res)
	}
	return results, nil
}

func (r *Runner) runStep(ctx context.Context, step ScenarioStep) (StepResult, error) {
	g, source, err := step.graph()
	if err != nil {
		return StepResult{}, err
	}
	cfg, err := step.config()
	if err != nil {
		return StepResult{}, err
	}

	exp, err := experiment.New(cfg, g)
	if err != nil {
		return StepResult{}, err
	}
	result, err := exp.Run(ctx, step.MaxTicks)
	if err != nil {
		return StepResult{}, err
	}

	layout := exp.Snapshot()
	report, err := analysis.Analyze(layout, cfg.Spring.RestLength)
	if err != nil {
		return StepResult{}, err
	}

	res := StepResult{Source: source, Result: result, Report: report}
	if step.Save {
		if r.Store == nil {
			return res, fmt.Errorf("save requested without a store")
		}
		if res.RunID, err = r.Store.Save(source, cfg, layout, result); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (s ScenarioStep) graph() (*graph.Graph, string, error) {
	if s.Graph != "" {
		g, err := graph.ImportJSON(s.Graph)
		return g, s.Graph, err
	}
	if s.Generate == nil {
		return nil, "", fmt.Errorf("no graph or generator given")
	}
	g, err := graph.Generate(s.Generate.Kind, s.Generate.N, s.Generate.Seed)
	return g, fmt.Sprintf("%s:%d", s.Generate.Kind, s.Generate.N), err
}

func (s ScenarioStep) config() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case s.Config != "":
		var err error
		if cfg, err = config.Load(s.Config); err != nil {
			return nil, err
		}
	case s.Preset != "":
		if cfg = config.GetPreset(s.Preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	default:
		cfg = config.DefaultConfig()
	}
	for k, v := range s.Params {
		if err := cfg.Set(k, v); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// ParameterSweep lays out one graph for evenly spaced values of a single
// configuration parameter.
type ParameterSweep struct {
	Base      *config.Config
	Graph     *graph.Graph
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	MaxTicks  int
}

type SweepResult struct {
	ParamValue float64
	Ticks      int
	Settled    bool
	Report     analysis.Report
}

func RunSweep(ctx context.Context, sweep *ParameterSweep) ([]SweepResult, error) {
	if sweep.NumSteps < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 steps, got %d", sweep.NumSteps)
	}
	results := make([]SweepResult, 0, sweep.NumSteps)
	paramStep := (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep

		cfg := sweep.Base.Clone()
		if err := cfg.Set(sweep.ParamName, paramVal); err != nil {
			return nil, err
		}
		exp, err := experiment.New(cfg, sweep.Graph)
		if err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.ParamName, paramVal, err)
		}
		result, err := exp.Run(ctx, sweep.MaxTicks)
		if err != nil {
			return results, err
		}
		report, err := analysis.Analyze(exp.Snapshot(), cfg.Spring.RestLength)
		if err != nil {
			return results, err
		}

		results = append(results, SweepResult{
			ParamValue: paramVal,
			Ticks:      result.Ticks,
			Settled:    result.Settled,
			Report:     report,
		})
	}
	return results, nil
}

// MonteCarloConfig repeats a layout with different placement seeds.
type MonteCarloConfig struct {
	Base      *config.Config
	Graph     *graph.Graph
	NumTrials int
	Seed      uint64
	MaxTicks  int
}

type MonteCarloResult struct {
	TrialID int
	Seed    uint64
	Ticks   int
	Settled bool
	Report  analysis.Report
}

// RunMonteCarlo runs the trials concurrently through sim.Ensemble, one
// placement seed per trial starting at cfg.Seed. Nodes with coordinates
// start where they are in every trial.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig) ([]MonteCarloResult, error) {
	exps := make([]*experiment.Experiment, cfg.NumTrials)
	factory := func(seed uint64) (*sim.Simulation, error) {
		c := cfg.Base.Clone()
		c.Placement.Seed = seed
		exp, err := experiment.New(c, cfg.Graph)
		if err != nil {
			return nil, err
		}
		exps[seed-cfg.Seed] = exp
		return exp.Simulation(), nil
	}

	runs, err := sim.NewEnsemble(factory, cfg.NumTrials, cfg.Seed).Run(ctx, cfg.MaxTicks)
	if err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, 0, cfg.NumTrials)
	for i, run := range runs {
		report, err := analysis.Analyze(exps[i].Snapshot(), cfg.Base.Spring.RestLength)
		if err != nil {
			return nil, err
		}
		results = append(results, MonteCarloResult{
			TrialID: i,
			Seed:    cfg.Seed + uint64(i),
			Ticks:   run.Ticks,
			Settled: run.Settled,
			Report:  report,
		})
	}
	return results, nil
}
