package solver

import "sdsim/internal/ir"

// evalNonStock computes every non-stock computed node in model's
// evaluation order into values, leaving stock slots untouched: callers set
// values[0]/values[1] (time, time_delta) and every stock slot to whatever
// trial value they want evaluated against before calling this.
func evalNonStock(model *ir.CompiledModel, values []float64, delayBuffers [][]float64) error {
	for _, idx := range model.EvaluationOrder {
		c := model.Computations[idx]
		switch c.Kind {
		case ir.KindStock:
			continue

		case ir.KindFlow, ir.KindAuxiliary:
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
			values[idx] = delayBuffers[c.Delay.BufferSlot][0]
		}
	}
	return nil
}

// advanceDelays shifts every delay's FIFO by one position, dropping the
// oldest buffered value and pushing the current value at its input slot.
// Run once per committed step, never against an RK4 stage trial.
func advanceDelays(model *ir.CompiledModel, values []float64, delayBuffers [][]float64) {
	for i, d := range model.Delays {
		buf := delayBuffers[i]
		input := 0.0
		if d.InputIndex >= 0 {
			input = values[d.InputIndex]
		}
		copy(buf, buf[1:])
		buf[len(buf)-1] = input
	}
}

// stockRate returns a stock's instantaneous derivative, Σ inflows − Σ
// outflows, with no Δt scaling. Every flow slot is read from actual rather
// than the node's raw computed value: actual starts as a copy of the
// nominal non-stock values and is overwritten, per flow, only where a
// downstream clamp reduced what that flow could actually deliver. Inflow
// slots are read from prevValues instead when the stock is marked
// delayed_inflow — the rule that lets a user-declared stock-to-stock cycle
// be broken deterministically.
func stockRate(s ir.CompiledStock, actual, prevValues []float64) float64 {
	inflowSource := actual
	if s.DelayedInflow {
		inflowSource = prevValues
	}
	var inflow, outflow float64
	for _, idx := range s.Inflows {
		inflow += inflowSource[idx]
	}
	for _, idx := range s.Outflows {
		outflow += actual[idx]
	}
	return inflow - outflow
}

// clampNonNegative enforces the non-negativity policy: if the stock allows
// negative values or the naive next value is already non-negative, next is
// returned unchanged and actual is untouched (the nominal flow values were
// indeed what got delivered). Otherwise the available budget (current
// value plus this step's inflow) is drawn down by outflows in
// ascending-priority order — CompiledStock.Outflows is pre-sorted that
// way — each flow taking at most what remains, so lower-priority flows are
// drained first and higher-priority flows are the ones denied the
// remainder. Every outflow's entry in actual is overwritten with the rate
// it actually delivered, so a stock downstream of one of these flows (via
// a Fills edge) integrates against what was really available rather than
// the flow's nominal formula value.
func clampNonNegative(s ir.CompiledStock, current float64, actual, prevValues []float64, dt float64, next float64) float64 {
	if s.AllowsNegative || next >= 0 {
		return next
	}

	inflowSource := actual
	if s.DelayedInflow {
		inflowSource = prevValues
	}
	var inflow float64
	for _, idx := range s.Inflows {
		inflow += inflowSource[idx]
	}

	budget := current + dt*inflow
	if budget < 0 {
		budget = 0
	}
	for _, idx := range s.Outflows {
		requested := dt * actual[idx]
		if requested < 0 {
			requested = 0
		}
		drawn := requested
		if drawn > budget {
			drawn = budget
		}
		actual[idx] = drawn / dt
		budget -= drawn
	}
	return budget
}

// runStockCascade integrates every stock in model.StockOrder — the
// drain->fill dependency order the compiler derived alongside the
// evaluation order — writing each stock's next value into values at its
// own slot. Processing in this order guarantees that by the time a stock
// downstream of a clamped flow is integrated, actual already carries that
// flow's reduced delivered rate rather than its nominal formula value.
func runStockCascade(model *ir.CompiledModel, stockByIndex map[int]ir.CompiledStock, values, actual, prevValues []float64, dt float64) {
	for _, idx := range model.StockOrder {
		stock := stockByIndex[idx]
		current := values[idx]
		rate := stockRate(stock, actual, prevValues)
		next := current + dt*rate
		values[idx] = clampNonNegative(stock, current, actual, prevValues, dt, next)
	}
}

func stockIndexMap(model *ir.CompiledModel) map[int]ir.CompiledStock {
	m := make(map[int]ir.CompiledStock, len(model.Stocks))
	for _, s := range model.Stocks {
		m[s.StateIndex] = s
	}
	return m
}
