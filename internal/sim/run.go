package sim

import "context"

func (s *Simulation) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulation) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run ticks until the simulation settles, maxTicks ticks have run or ctx
// is done. maxTicks <= 0 falls back to Config.MaxTicks; if that is also
// zero the only limits are settling and ctx.
//
// On cancellation Run returns the partial result together with ctx.Err().
func (s *Simulation) Run(ctx context.Context, maxTicks int) (*Result, error) {
	if maxTicks <= 0 {
		maxTicks = s.cfg.MaxTicks
	}

	result := &Result{Metrics: make(map[string]float64)}
	for _, m := range s.metrics {
		m.Reset()
	}

	for i := 0; maxTicks <= 0 || i < maxTicks; i++ {
		select {
		case <-ctx.Done():
			s.finish(result)
			return result, ctx.Err()
		default:
		}

		if s.settled {
			break
		}
		s.Tick()
		result.Ticks++
		result.Alpha = append(result.Alpha, s.alpha)
		result.Energy = append(result.Energy, s.KineticEnergy())

		for _, m := range s.metrics {
			m.Observe(s)
		}
		for _, o := range s.observers {
			o.OnTick(s)
		}
	}

	s.finish(result)
	if !result.Settled {
		s.logger.Debug("tick limit reached", "ticks", s.ticks, "alpha", s.alpha)
	}
	return result, nil
}

func (s *Simulation) finish(result *Result) {
	result.Settled = s.settled
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

// RunWithCallback ticks until settled or until callback returns false.
// The callback sees the simulation after each tick.
func (s *Simulation) RunWithCallback(ctx context.Context, callback func(s *Simulation) bool) error {
	for !s.settled {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		s.Tick()
		if !callback(s) {
			return nil
		}
	}
	return nil
}
