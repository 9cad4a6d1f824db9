// Package simulate drives a compiled model through time: it owns the
// solver's mutable State, seeds it at initialize(), advances it one Δt per
// step(), and accumulates the result history. Everything the solver needs
// is already resolved by the compiler; this package only sequences calls
// into it and records what happened.
package simulate

import (
	"context"
	"math"
	"time"

	"sdsim/internal/ir"
	"sdsim/internal/solver"
	"sdsim/pkg/apperror"
	"sdsim/pkg/logger"
	"sdsim/pkg/metrics"
	"sdsim/pkg/telemetry"
)

const (
	slotTime      = 0
	slotTimeDelta = 1
)

// Config carries the run parameters a caller may override; a zero field
// falls back to the compiled model's own SimulationDefaults.
type Config struct {
	Solver      string // "euler" or "rk4"; empty defaults to "euler"
	TimeDelta   float64
	InitialTime float64
}

func normalizeConfig(model *ir.CompiledModel, cfg Config) Config {
	if cfg.Solver == "" {
		cfg.Solver = "euler"
	}
	if cfg.TimeDelta == 0 {
		cfg.TimeDelta = model.Defaults.TimeDelta
	}
	if cfg.InitialTime == 0 {
		cfg.InitialTime = model.Defaults.InitialTime
	}
	return cfg
}

func newStepper(model *ir.CompiledModel, name string) (solver.Stepper, error) {
	switch name {
	case "euler":
		return solver.NewEuler(model), nil
	case "rk4":
		return solver.NewRK4(model), nil
	default:
		return nil, apperror.New(apperror.CodeStructural, "simulate: unknown solver "+name)
	}
}

// Simulator owns a CompiledModel and the current SimulationState. It is not
// safe for concurrent use; a caller running multiple simulations
// concurrently on the same CompiledModel constructs one Simulator per
// goroutine, since the model itself is immutable and shareable but each
// Simulator's State is exclusively owned.
type Simulator struct {
	model      *ir.CompiledModel
	solverName string
	dt         float64
	initTime   float64
	stepper    solver.Stepper

	state   *solver.State
	arena   []float64 // flat backing store for history row Values, grown only past its initial capacity
	history []Row
	current Row
	halted  bool
}

// New constructs a Simulator for model and runs initialize().
func New(model *ir.CompiledModel, cfg Config) (*Simulator, error) {
	cfg = normalizeConfig(model, cfg)
	stepper, err := newStepper(model, cfg.Solver)
	if err != nil {
		return nil, err
	}
	s := &Simulator{
		model:      model,
		solverName: cfg.Solver,
		dt:         cfg.TimeDelta,
		initTime:   cfg.InitialTime,
		stepper:    stepper,
	}
	if _, err := s.Initialize(); err != nil {
		return nil, err
	}
	return s, nil
}

// Initialize evaluates every initial-expr in dependency order at
// t = initial-time, seeds the delay buffers, and resets the result history.
// It is also what reset() is built from.
func (s *Simulator) Initialize() (Row, error) {
	s.state = solver.NewState(s.model)
	s.state.Time = s.initTime
	s.state.Values[slotTime] = s.initTime
	s.state.Values[slotTimeDelta] = s.dt

	if err := evalInitial(s.model, s.state.Values); err != nil {
		return Row{}, err
	}
	seedDelayBuffers(s.model, s.state)
	copy(s.state.PrevValues, s.state.Values)

	n := len(s.model.StateLayout)
	historyCap := s.model.Defaults.Steps + 1
	s.arena = make([]float64, 0, historyCap*n)
	s.history = make([]Row, 0, historyCap)
	s.halted = false

	s.current = s.captureRow()
	return s.current, nil
}

// Reset re-runs Initialize, discarding the accumulated history.
func (s *Simulator) Reset() (Row, error) {
	return s.Initialize()
}

// Step delegates one integration step to the solver, advances time, and
// appends the resulting row to history.
func (s *Simulator) Step() (Row, error) {
	if err := s.stepper.Step(s.model, s.state, s.dt); err != nil {
		return Row{}, err
	}
	s.current = s.captureRow()
	s.history = append(s.history, s.current)
	return s.current, nil
}

// Run repeats Step n times, or until ctx is cancelled or Halt was called,
// whichever comes first. It returns the number of steps actually executed.
// Metrics and tracing are recorded once for the whole call, never per step.
func (s *Simulator) Run(ctx context.Context, n int) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "simulate.Run")
	defer span.End()

	start := time.Now()
	stats := newRunStats()

	executed := 0
	for i := 0; i < n && !s.halted; i++ {
		if err := ctx.Err(); err != nil {
			break
		}
		row, err := s.Step()
		if err != nil {
			return executed, err
		}
		executed++
		stats.update(row)
	}

	duration := time.Since(start)
	metrics.Get().RecordRun(s.solverName, duration, executed, stats.nonFiniteTotal)
	telemetry.SetAttributes(ctx, telemetry.SimulationAttributes(s.solverName, executed, s.dt)...)
	logger.Info("simulation run completed",
		"solver", s.solverName, "steps_executed", executed, "halted_early", executed < n,
		"non_finite_values", stats.nonFiniteTotal, "duration", duration)

	return executed, nil
}

// Halt sets the cooperative cancellation flag Run checks between steps.
func (s *Simulator) Halt() { s.halted = true }

// Halted reports whether Halt has been called since the last Initialize/Reset.
func (s *Simulator) Halted() bool { return s.halted }

// Current returns the most recently captured row (the seeded initial row
// until the first Step).
func (s *Simulator) Current() Row { return s.current }

// History returns every row appended by Step since the last Initialize/Reset.
func (s *Simulator) History() []Row { return s.history }

// Model returns the compiled model this Simulator runs.
func (s *Simulator) Model() *ir.CompiledModel { return s.model }

// captureRow copies the solver's current state vector into the history
// arena and scans it for non-finite values. The int slice it returns is
// only allocated when a non-finite value is actually present.
func (s *Simulator) captureRow() Row {
	n := len(s.state.Values)
	start := len(s.arena)
	s.arena = append(s.arena, s.state.Values...)
	values := s.arena[start : start+n : start+n]

	var nonFinite []int
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			nonFinite = append(nonFinite, i)
		}
	}
	return Row{Time: s.state.Time, Values: values, NonFinite: nonFinite}
}

// evalInitial computes every computed node's initial value in dependency
// order: stocks from their initial-expr, flows/auxiliaries from their
// formula, graphical functions from their initial input, and delays as a
// placeholder later overwritten once their buffer is seeded.
func evalInitial(model *ir.CompiledModel, values []float64) error {
	for _, idx := range model.EvaluationOrder {
		c := model.Computations[idx]
		switch c.Kind {
		case ir.KindStock, ir.KindFlow, ir.KindAuxiliary:
			v, err := ir.Eval(c.Formula, values)
			if err != nil {
				return err
			}
			values[idx] = v

		case ir.KindGraphical:
			input := 0.0
			if c.Graphical.InputIndex >= 0 {
				input = values[c.Graphical.InputIndex]
			}
			values[idx] = c.Graphical.Lookup(input)

		case ir.KindDelay:
			values[idx] = 0
		}
	}
	return nil
}

// seedDelayBuffers prefills every delay's FIFO to its input's initial
// value, and corrects the delay node's own initial slot to match.
func seedDelayBuffers(model *ir.CompiledModel, st *solver.State) {
	for i, d := range model.Delays {
		input := 0.0
		if d.InputIndex >= 0 {
			input = st.Values[d.InputIndex]
		}
		buf := st.DelayBuffers[i]
		for j := range buf {
			buf[j] = input
		}
		st.Values[d.OutputIndex] = input
	}
}

// runStats accumulates across a single Run(n) call, for the one metrics
// record and one log line emitted at its end.
type runStats struct {
	nonFiniteTotal int
}

func newRunStats() *runStats {
	return &runStats{}
}

func (r *runStats) update(row Row) {
	r.nonFiniteTotal += len(row.NonFinite)
}
