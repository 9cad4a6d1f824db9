// Package solver implements the Euler and RK4 one-step integrators: given a
// compiled model and the current state vector, each produces the state
// vector one Δt later. Both pre-allocate every scratch buffer they need in
// their constructor; the only allocation left in a Step call is the argument
// slice built for each built-in function call a formula evaluates.
package solver

import "sdsim/internal/ir"

// State is the solver's mutable working state: the full state vector
// indexed identically to CompiledModel.StateLayout (slot 0 is time, slot 1
// is time_delta, the rest are computed nodes), the flow values committed at
// the end of the previous step (read by delayed_inflow stocks), and one
// FIFO buffer per compiled delay.
type State struct {
	Time         float64
	Values       []float64
	PrevValues   []float64
	DelayBuffers [][]float64
}

// NewState allocates a zeroed State sized for model. Callers fill in
// initial values (and prefill delay buffers to the delay's initial input
// value) before taking the first Step; see internal/simulate's
// initialize().
func NewState(model *ir.CompiledModel) *State {
	n := len(model.StateLayout)
	st := &State{
		Values:       make([]float64, n),
		PrevValues:   make([]float64, n),
		DelayBuffers: make([][]float64, len(model.Delays)),
	}
	for i, d := range model.Delays {
		st.DelayBuffers[i] = make([]float64, d.DurationSteps)
	}
	return st
}

// Stepper advances a State by one Δt under a compiled model.
type Stepper interface {
	Step(model *ir.CompiledModel, st *State, dt float64) error
}
