package solver

import "sdsim/internal/ir"

const (
	slotTime      = 0
	slotTimeDelta = 1
)

// EulerSolver is the first-order explicit Euler integrator: one evaluation
// of every non-stock node at the current stock values, then a single stock
// update of S + dt*rate clamped to the model's non-negativity policy.
type EulerSolver struct {
	actual     []float64
	stockByIdx map[int]ir.CompiledStock
}

// NewEuler pre-allocates the scratch buffer EulerSolver needs to track
// actually-delivered flow amounts across a clamp cascade; Step itself
// allocates only the argument slices of built-in function calls in formulas.
func NewEuler(model *ir.CompiledModel) *EulerSolver {
	return &EulerSolver{
		actual:     make([]float64, len(model.StateLayout)),
		stockByIdx: stockIndexMap(model),
	}
}

func (s *EulerSolver) Step(model *ir.CompiledModel, st *State, dt float64) error {
	st.Values[slotTime] = st.Time
	st.Values[slotTimeDelta] = dt

	if err := evalNonStock(model, st.Values, st.DelayBuffers); err != nil {
		return err
	}

	copy(s.actual, st.Values)
	runStockCascade(model, s.stockByIdx, st.Values, s.actual, st.PrevValues, dt)
	for idx, v := range s.actual {
		if _, isStock := s.stockByIdx[idx]; !isStock {
			st.Values[idx] = v
		}
	}

	advanceDelays(model, st.Values, st.DelayBuffers)
	copy(st.PrevValues, st.Values)
	st.Time += dt
	st.Values[slotTime] = st.Time
	return nil
}
