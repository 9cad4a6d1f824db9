package compiler

import (
	"sdsim/internal/depgraph"
	"sdsim/internal/frame"
	"sdsim/internal/graphview"
	"sdsim/pkg/apperror"
)

// buildEvaluationOrder produces a topologically valid ordering of every
// computed node's ObjectID. It keeps the two cycle policies spec §4.3
// describes separate: stock-to-stock cycles are resolved in isolation by
// graphview.StockOrder (delayed_inflow breaks them), then spliced into the
// wider dependency graph as a fixed chain of precedence edges so the
// formula-cycle check below only ever sees genuine non-stock cycles.
func buildEvaluationOrder(fr frame.Frame, view *graphview.View) ([]frame.ObjectID, error) {
	stockOrder, err := view.StockOrder()
	if err != nil {
		return nil, err
	}

	g := depgraph.New()
	for _, o := range fr.Objects() {
		if o.Type.IsComputedType() {
			g.AddNode(string(o.ID))
		}
	}

	// Parameter edges: the target's formula reads the origin's value. A
	// stock origin is excluded: its value is already-resident state from the
	// previous step, never freshly evaluated within this step's non-stock
	// pass, so reading it imposes no ordering requirement. Without this, a
	// flow that reads the very stock it fills or drains (the ordinary
	// compounding-stock pattern) would form a false cycle with the
	// Fills/Drains edge below.
	for _, e := range fr.Edges() {
		if e.Type != frame.TypeParameter {
			continue
		}
		if origin, ok := fr.ByID(e.Origin); ok && origin.Type == frame.TypeStock {
			continue
		}
		g.AddEdge(string(e.Target), string(e.Origin))
	}

	// Inflow/outflow aggregation: a stock's integrated value for this step
	// needs every flow that drains or fills it already computed. Drains has
	// origin=Stock/target=Flow, Fills has origin=Flow/target=Stock, so in
	// both cases the stock is the dependent side.
	for _, e := range fr.Edges() {
		switch e.Type {
		case frame.TypeFills:
			g.AddEdge(string(e.Target), string(e.Origin)) // stock depends on flow
		case frame.TypeDrains:
			g.AddEdge(string(e.Origin), string(e.Target)) // stock depends on flow
		}
	}

	// Chain the pre-resolved stock order into the graph as precedence edges
	// so stock-to-stock cycles never reach FindCycle/TopoSort here.
	for i := 1; i < len(stockOrder); i++ {
		g.AddEdge(string(stockOrder[i]), string(stockOrder[i-1]))
	}

	if cyc := g.FindCycle(); cyc != nil {
		return nil, apperror.New(apperror.CodeFormulaCycle, cyc.Error()).WithDetails("cycle", cyc.Cycle)
	}

	order, err := g.TopoSort()
	if err != nil {
		ids := []string{}
		if ce, ok := err.(*depgraph.CycleError); ok {
			ids = ce.Remaining
		}
		return nil, apperror.New(apperror.CodeFormulaCycle, "formula dependency cycle").WithDetails("nodes", ids)
	}

	result := make([]frame.ObjectID, len(order))
	for i, id := range order {
		result[i] = frame.ObjectID(id)
	}
	return result, nil
}
