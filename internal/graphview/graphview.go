// Package graphview provides read queries over a frame.Frame: typed node
// lookups, the flow endpoints a Drains/Fills edge pair describes, and the
// stock evaluation order derived from flows treated as implicit edges
// between the stocks they connect. None of this is stored in the frame
// itself; it is recomputed from Drains/Fills/Parameter edges on demand.
package graphview

import (
	"sdsim/internal/depgraph"
	"sdsim/internal/frame"
	"sdsim/pkg/apperror"
)

// View wraps a frame.Frame with the derived queries the compiler needs.
type View struct {
	fr frame.Frame
}

// New returns a View over fr.
func New(fr frame.Frame) *View {
	return &View{fr: fr}
}

func (v *View) nodesOfType(t frame.ObjectType) []*frame.Object {
	var out []*frame.Object
	for _, o := range v.fr.Objects() {
		if o.Type == t {
			out = append(out, o)
		}
	}
	return out
}

// Stocks returns every Stock node.
func (v *View) Stocks() []*frame.Object { return v.nodesOfType(frame.TypeStock) }

// Flows returns every Flow node.
func (v *View) Flows() []*frame.Object { return v.nodesOfType(frame.TypeFlow) }

// Auxiliaries returns every Auxiliary node.
func (v *View) Auxiliaries() []*frame.Object { return v.nodesOfType(frame.TypeAuxiliary) }

// GraphicalFunctions returns every GraphicalFunction node.
func (v *View) GraphicalFunctions() []*frame.Object { return v.nodesOfType(frame.TypeGraphicalFunction) }

// Delays returns every Delay node.
func (v *View) Delays() []*frame.Object { return v.nodesOfType(frame.TypeDelay) }

// FlowDrains returns the stock a flow drains, if any. A Drains edge runs
// origin (Stock) -> target (Flow).
func (v *View) FlowDrains(flowID frame.ObjectID) (frame.ObjectID, bool) {
	for _, e := range v.fr.Edges() {
		if e.Type == frame.TypeDrains && e.Target == flowID {
			return e.Origin, true
		}
	}
	return "", false
}

// FlowFills returns the stock a flow fills, if any.
func (v *View) FlowFills(flowID frame.ObjectID) (frame.ObjectID, bool) {
	for _, e := range v.fr.Edges() {
		if e.Type == frame.TypeFills && e.Origin == flowID {
			return e.Target, true
		}
	}
	return "", false
}

// Parameters returns the nodes feeding nodeID's formula via Parameter edges,
// in the edge order found in the frame.
func (v *View) Parameters(nodeID frame.ObjectID) []frame.ObjectID {
	var out []frame.ObjectID
	for _, e := range v.fr.Edges() {
		if e.Type == frame.TypeParameter && e.Target == nodeID {
			out = append(out, e.Origin)
		}
	}
	return out
}

// ImplicitEdge is one flow-derived link between the stock it drains and the
// stock it fills.
type ImplicitEdge struct {
	Drain frame.ObjectID
	Fill  frame.ObjectID
	Flow  frame.ObjectID
}

// ImplicitFlowEdges derives the stock-to-stock edges induced by every flow
// that both drains one stock and fills another. A flow draining without
// filling (a pure sink) or filling without draining (a pure source)
// contributes no implicit edge.
func (v *View) ImplicitFlowEdges() []ImplicitEdge {
	var out []ImplicitEdge
	for _, f := range v.Flows() {
		drain, hasDrain := v.FlowDrains(f.ID)
		fill, hasFill := v.FlowFills(f.ID)
		if hasDrain && hasFill {
			out = append(out, ImplicitEdge{Drain: drain, Fill: fill, Flow: f.ID})
		}
	}
	return out
}

// StockOrder computes a deterministic evaluation order over stocks using
// Kahn's algorithm over the implicit flow edges (drain -> fill, per spec
// §4.3). Logical edge direction is stored as depgraph.AddEdge(drain, fill),
// which makes fill the "to" side — so RemoveIncoming(fill) strips exactly
// the edges arriving at fill, breaking the cycle when fill is
// delayed_inflow. A cycle remaining after that removal is reported as
// CodeUnresolvedStockCycle.
func (v *View) StockOrder() ([]frame.ObjectID, error) {
	g := depgraph.New()
	stocks := v.Stocks()
	for _, s := range stocks {
		g.AddNode(string(s.ID))
	}
	for _, e := range v.ImplicitFlowEdges() {
		g.AddEdge(string(e.Drain), string(e.Fill))
	}
	for _, s := range stocks {
		if s.AttrBool("delayed_inflow", false) {
			g.RemoveIncoming(string(s.ID))
		}
	}

	order, err := g.TopoSort()
	if err != nil {
		var cycleErr *depgraph.CycleError
		if ce, ok := err.(*depgraph.CycleError); ok {
			cycleErr = ce
		}
		ids := make([]string, 0)
		if cycleErr != nil {
			ids = cycleErr.Remaining
		}
		return nil, apperror.New(apperror.CodeUnresolvedStockCycle, "unresolved stock cycle").
			WithDetails("nodes", ids)
	}

	// TopoSort returns dependency order (to before from), i.e. fill before
	// drain for a drain->fill edge; reverse it to get the drain-before-fill
	// order the clamp cascade (compiler.stockOrderSlots, solver.runStockCascade)
	// requires.
	result := make([]frame.ObjectID, len(order))
	for i, id := range order {
		result[len(order)-1-i] = frame.ObjectID(id)
	}
	return result, nil
}
