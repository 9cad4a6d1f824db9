// Package compiler turns a frame.Frame into an ir.CompiledModel: it
// validates structure, assigns state-vector slots, binds and type-checks
// every formula, derives a cycle-free evaluation order, and assembles the
// stock/flow/graphical/delay computations the solver and simulator run
// against. Errors are aggregated across every node rather than halting on
// the first one found.
package compiler

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"sdsim/internal/binder"
	"sdsim/internal/expr"
	"sdsim/internal/frame"
	"sdsim/internal/graphview"
	"sdsim/internal/ir"
	"sdsim/pkg/apperror"
	"sdsim/pkg/logger"
	"sdsim/pkg/metrics"
	"sdsim/pkg/telemetry"
)

// Result is the outcome of a Compile call: the model is non-nil only when
// Issues carries no errors.
type Result struct {
	Model  *ir.CompiledModel
	Issues *apperror.NodeIssues
}

// Compile produces a CompiledModel from fr, or a set of node issues
// explaining why it could not.
func Compile(ctx context.Context, fr frame.Frame) Result {
	ctx, span := telemetry.StartSpan(ctx, "compiler.Compile")
	defer span.End()

	start := time.Now()
	issues := apperror.NewNodeIssues()

	structural := validateStructure(fr)
	issues.Merge(structural)
	if issues.HasErrors() {
		return finish(ctx, issues, nil, start)
	}

	view := graphview.New(fr)
	computed, slotIndex, layout := assignSlots(fr)

	names := buildNameTables(fr, view, slotIndex)

	computations := make([]ir.Computation, len(layout))
	for i := range computations {
		computations[i] = ir.Computation{Index: i, Kind: ir.KindAuxiliary}
	}

	for _, o := range computed {
		idx := slotIndex[o.ID]
		table := names[o.ID]

		switch o.Type {
		case frame.TypeStock:
			stock, errs := compileStock(o, view, slotIndex, table, idx)
			issues.Errors = append(issues.Errors, errs...)
			computations[idx] = ir.Computation{Index: idx, Kind: ir.KindStock, Formula: stock.InitialExpr, Stock: &stock}

		case frame.TypeFlow, frame.TypeAuxiliary:
			formula, err := bindFormula(o, table)
			if err != nil {
				issues.AddError(apperror.Code(err), err.Error(), string(o.ID))
				continue
			}
			kind := ir.KindFlow
			if o.Type == frame.TypeAuxiliary {
				kind = ir.KindAuxiliary
			}
			computations[idx] = ir.Computation{Index: idx, Kind: kind, Formula: formula}

		case frame.TypeGraphicalFunction:
			gf, err := compileGraphical(o, view, slotIndex)
			if err != nil {
				issues.AddError(apperror.Code(err), err.Error(), string(o.ID))
				continue
			}
			computations[idx] = ir.Computation{Index: idx, Kind: ir.KindGraphical, Graphical: &gf}
			markInputConsumed(o, view, fr, table)

		case frame.TypeDelay:
			ds, err := compileDelay(o, view, slotIndex, fr)
			if err != nil {
				issues.AddError(apperror.Code(err), err.Error(), string(o.ID))
				continue
			}
			computations[idx] = ir.Computation{Index: idx, Kind: ir.KindDelay, Delay: &ds}
			markInputConsumed(o, view, fr, table)
		}

		for _, name := range table.Unreferenced() {
			issues.AddWarning(apperror.CodeUnusedInput,
				fmt.Sprintf("input %q is wired in but never referenced", name), string(o.ID))
		}
	}

	if issues.HasErrors() {
		return finish(ctx, issues, nil, start)
	}

	order, err := buildEvaluationOrder(fr, view)
	if err != nil {
		issues.Add(err.(*apperror.Error))
		return finish(ctx, issues, nil, start)
	}
	evalOrder := make([]int, 0, len(order))
	for _, id := range order {
		if idx, ok := slotIndex[id]; ok {
			evalOrder = append(evalOrder, idx)
		}
	}

	stockOrder, err := stockOrderSlots(view, slotIndex)
	if err != nil {
		issues.Add(err.(*apperror.Error))
		return finish(ctx, issues, nil, start)
	}

	model := assembleModel(fr, layout, computations, evalOrder, stockOrder)

	return finish(ctx, issues, model, start)
}

// stockOrderSlots re-derives the drain->fill stock processing order as
// state-vector slot indices, for the solver's non-negativity clamp cascade:
// a flow's actual (possibly clamped) delivered amount must be resolved for
// its drain-side stock before any stock it fills integrates against it.
func stockOrderSlots(view *graphview.View, slotIndex map[frame.ObjectID]int) ([]int, error) {
	ids, err := view.StockOrder()
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if idx, ok := slotIndex[id]; ok {
			out = append(out, idx)
		}
	}
	return out, nil
}

func finish(ctx context.Context, issues *apperror.NodeIssues, model *ir.CompiledModel, start time.Time) Result {
	ok := model != nil
	duration := time.Since(start)

	metrics.Get().RecordCompile(ok, duration, len(issues.Errors), len(issues.Warnings))
	if model != nil {
		metrics.Get().RecordNodeCounts(len(model.Stocks), len(model.Flows), countKind(model, ir.KindAuxiliary),
			len(model.Graphical), len(model.Delays))
		telemetry.SetAttributes(ctx, telemetry.ModelAttributes(len(model.StateLayout), len(model.Stocks), len(model.Flows))...)
	}
	telemetry.SetAttributes(ctx, telemetry.CompileAttributes(len(issues.Errors), len(issues.Warnings), ok)...)

	if ok {
		logger.Info("model compiled", "errors", len(issues.Errors), "warnings", len(issues.Warnings), "duration", duration)
	} else {
		logger.Warn("model failed to compile", "errors", len(issues.Errors), "duration", duration)
	}

	return Result{Model: model, Issues: issues}
}

func countKind(model *ir.CompiledModel, kind ir.ComputationKind) int {
	n := 0
	for _, c := range model.Computations {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// buildNameTables constructs one binder.NameTable per computed node, seeded
// with whatever reaches it through a Parameter edge.
func buildNameTables(fr frame.Frame, view *graphview.View, slotIndex map[frame.ObjectID]int) map[frame.ObjectID]*binder.NameTable {
	tables := make(map[frame.ObjectID]*binder.NameTable, len(slotIndex))
	for id := range slotIndex {
		tables[id] = binder.NewNameTable()
	}
	for id, table := range tables {
		for _, srcID := range view.Parameters(id) {
			src, ok := fr.ByID(srcID)
			if !ok || src.Name == "" {
				continue
			}
			if idx, ok := slotIndex[srcID]; ok {
				table.AddNodeVar(src.Name, idx)
			}
		}
	}
	return tables
}

func bindFormula(o *frame.Object, table *binder.NameTable) (ir.Expr, error) {
	formula := o.AttrString("formula", "")
	node, err := expr.Parse(formula)
	if err != nil {
		return nil, apperror.New(apperror.CodeSyntax, err.Error())
	}
	return binder.Bind(node, table)
}

func compileStock(o *frame.Object, view *graphview.View, slotIndex map[frame.ObjectID]int,
	table *binder.NameTable, idx int) (ir.CompiledStock, []*apperror.Error) {

	var errs []*apperror.Error
	initExpr, err := bindFormula(o, table)
	if err != nil {
		errs = append(errs, err.(*apperror.Error))
	}

	inflows, outflows := flowSlotsFor(o.ID, view, slotIndex)

	return ir.CompiledStock{
		StateIndex:     idx,
		InitialExpr:    initExpr,
		AllowsNegative: o.AttrBool("allows_negative", false),
		DelayedInflow:  o.AttrBool("delayed_inflow", false),
		Inflows:        inflows,
		Outflows:       outflows,
	}, errs
}

// flowSlotsFor returns the state-vector slots of the flows that fill
// (inflows) and drain (outflows) stock stockID, each sorted by flow
// priority ascending, ties broken by object ID ascending — the order the
// solver's non-negativity clamp draws outflows down in.
func flowSlotsFor(stockID frame.ObjectID, view *graphview.View, slotIndex map[frame.ObjectID]int) ([]int, []int) {
	type ranked struct {
		id       frame.ObjectID
		priority int
	}
	var inflowRanked, outflowRanked []ranked

	for _, f := range view.Flows() {
		if fill, ok := view.FlowFills(f.ID); ok && fill == stockID {
			inflowRanked = append(inflowRanked, ranked{f.ID, int(f.AttrFloat64("priority", 0))})
		}
		if drain, ok := view.FlowDrains(f.ID); ok && drain == stockID {
			outflowRanked = append(outflowRanked, ranked{f.ID, int(f.AttrFloat64("priority", 0))})
		}
	}

	sortRanked := func(rs []ranked) []int {
		sort.Slice(rs, func(i, j int) bool {
			if rs[i].priority != rs[j].priority {
				return rs[i].priority < rs[j].priority
			}
			return rs[i].id < rs[j].id
		})
		out := make([]int, len(rs))
		for i, r := range rs {
			out[i] = slotIndex[r.id]
		}
		return out
	}

	return sortRanked(inflowRanked), sortRanked(outflowRanked)
}

func compileGraphical(o *frame.Object, view *graphview.View, slotIndex map[frame.ObjectID]int) (ir.GraphicalFunc, error) {
	params := view.Parameters(o.ID)
	inputIndex := -1
	if len(params) > 0 {
		inputIndex = slotIndex[params[0]]
	}

	points := o.AttrPoints("graphical_function_points")
	irPoints := make([]ir.Point, len(points))
	for i, p := range points {
		irPoints[i] = ir.Point{X: p.X, Y: p.Y}
	}

	return ir.GraphicalFunc{
		InputIndex:    inputIndex,
		Points:        irPoints,
		Interpolation: o.AttrString("interpolation_method", "step"),
	}, nil
}

func compileDelay(o *frame.Object, view *graphview.View, slotIndex map[frame.ObjectID]int, fr frame.Frame) (ir.DelaySpec, error) {
	params := view.Parameters(o.ID)
	inputIndex := -1
	if len(params) > 0 {
		inputIndex = slotIndex[params[0]]
	}

	timeDelta := 1.0
	if sim := findSimulation(fr); sim != nil {
		timeDelta = sim.AttrFloat64("time_delta", 1.0)
	}
	duration := o.AttrFloat64("delay_duration", 0)
	steps := int(math.Ceil(duration / timeDelta))
	if steps < 1 {
		steps = 1
	}

	return ir.DelaySpec{
		InputIndex:    inputIndex,
		OutputIndex:   slotIndex[o.ID],
		DurationSteps: steps,
		OutputKind:    o.AttrString("delay_output_type", "delay1"),
	}, nil
}

// markInputConsumed looks up a graphical function's or delay's single
// Parameter-edge input by name, so it registers as referenced: these node
// kinds consume their input through InputIndex rather than through a name
// appearing inside a parsed formula, so Unreferenced would otherwise flag a
// correctly wired input as an unused-input warning.
func markInputConsumed(o *frame.Object, view *graphview.View, fr frame.Frame, table *binder.NameTable) {
	params := view.Parameters(o.ID)
	if len(params) == 0 {
		return
	}
	src, ok := fr.ByID(params[0])
	if !ok || src.Name == "" {
		return
	}
	table.Lookup(src.Name)
}

func findSimulation(fr frame.Frame) *frame.Object {
	for _, o := range fr.Objects() {
		if o.Type == frame.TypeSimulation {
			return o
		}
	}
	return nil
}

func assembleModel(fr frame.Frame, layout []ir.SlotInfo, computations []ir.Computation, evalOrder []int, stockOrder []int) *ir.CompiledModel {
	model := &ir.CompiledModel{
		StateLayout:     layout,
		Computations:    computations,
		EvaluationOrder: evalOrder,
		StockOrder:      stockOrder,
	}

	for _, c := range computations {
		switch c.Kind {
		case ir.KindStock:
			model.Stocks = append(model.Stocks, *c.Stock)
		case ir.KindFlow:
			model.Flows = append(model.Flows, c.Index)
		case ir.KindGraphical:
			model.Graphical = append(model.Graphical, *c.Graphical)
		case ir.KindDelay:
			model.Delays = append(model.Delays, *c.Delay)
		}
	}
	for i := range model.Delays {
		model.Delays[i].BufferSlot = i
	}

	model.Defaults = ir.SimulationDefaults{InitialTime: 0, TimeDelta: 1, Steps: 100}
	if sim := findSimulation(fr); sim != nil {
		model.Defaults = ir.SimulationDefaults{
			InitialTime: sim.AttrFloat64("initial_time", 0),
			TimeDelta:   sim.AttrFloat64("time_delta", 1),
			Steps:       int(sim.AttrFloat64("steps", 100)),
		}
	}

	return model
}
