package compiler

import (
	"context"
	"testing"

	"sdsim/internal/frame"
	"sdsim/internal/ir"
	"sdsim/internal/solver"
	"sdsim/pkg/apperror"
)

func TestCompile_BankAccount(t *testing.T) {
	b := frame.NewBuilder()
	account := b.AddNode("account", frame.TypeStock, "account", map[string]any{
		"formula": "100",
	})
	rate := b.AddNode("rate", frame.TypeAuxiliary, "rate", map[string]any{"formula": "0.02"})
	interest := b.AddNode("interest", frame.TypeFlow, "interest", map[string]any{"formula": "account * rate"})
	b.AddEdge("", frame.TypeParameter, account, interest, nil)
	b.AddEdge("", frame.TypeParameter, rate, interest, nil)
	b.AddEdge("", frame.TypeFills, interest, account, nil)
	fr, errs := b.Build()
	if len(errs) != 0 {
		t.Fatalf("unexpected frame build errors: %v", errs)
	}

	res := Compile(context.Background(), fr)
	if res.Issues.HasErrors() {
		t.Fatalf("unexpected compile errors: %v", res.Issues.ErrorMessages())
	}
	if res.Model == nil {
		t.Fatal("expected a compiled model")
	}
	if len(res.Model.Stocks) != 1 {
		t.Fatalf("expected 1 stock, got %d", len(res.Model.Stocks))
	}
	if len(res.Model.Flows) != 1 {
		t.Fatalf("expected 1 flow, got %d", len(res.Model.Flows))
	}
	stock := res.Model.Stocks[0]
	if len(stock.Inflows) != 1 {
		t.Fatalf("expected 1 inflow on account, got %d", len(stock.Inflows))
	}
}

func TestCompile_TwoTankDrain(t *testing.T) {
	b := frame.NewBuilder()
	a := b.AddNode("a", frame.TypeStock, "A", map[string]any{"formula": "100"})
	flow := b.AddNode("f", frame.TypeFlow, "f", map[string]any{"formula": "1"})
	bStock := b.AddNode("b", frame.TypeStock, "B", map[string]any{"formula": "0"})
	b.AddEdge("", frame.TypeDrains, a, flow, nil)
	b.AddEdge("", frame.TypeFills, flow, bStock, nil)
	fr, errs := b.Build()
	if len(errs) != 0 {
		t.Fatalf("unexpected frame build errors: %v", errs)
	}

	res := Compile(context.Background(), fr)
	if res.Issues.HasErrors() {
		t.Fatalf("unexpected compile errors: %v", res.Issues.ErrorMessages())
	}
	if len(res.Model.Stocks) != 2 {
		t.Fatalf("expected 2 stocks, got %d", len(res.Model.Stocks))
	}
	if len(res.Model.EvaluationOrder) == 0 {
		t.Fatal("expected a non-empty evaluation order")
	}

	aSlot := slotFor(res.Model, "A")
	bSlot := slotFor(res.Model, "B")
	aRank, bRank := rankOf(res.Model.StockOrder, aSlot), rankOf(res.Model.StockOrder, bSlot)
	if aRank == -1 || bRank == -1 {
		t.Fatalf("expected both stocks in StockOrder, got %v", res.Model.StockOrder)
	}
	if aRank > bRank {
		t.Fatalf("expected drain A before fill B in StockOrder, got %v", res.Model.StockOrder)
	}

	// A drain-before-fill order is what lets the clamp cascade conserve mass:
	// run a few Euler steps and confirm B only ever receives what A actually
	// gave up, rather than the flow's unclamped nominal value.
	st := solver.NewState(res.Model)
	for _, c := range res.Model.Computations {
		if c.Kind != ir.KindStock {
			continue
		}
		v, err := ir.Eval(c.Stock.InitialExpr, st.Values)
		if err != nil {
			t.Fatalf("eval initial: %v", err)
		}
		st.Values[c.Stock.StateIndex] = v
		st.PrevValues[c.Stock.StateIndex] = v
	}
	euler := solver.NewEuler(res.Model)
	for i := 0; i < 200; i++ {
		if err := euler.Step(res.Model, st, 1); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if st.Values[aSlot] != 0 {
		t.Errorf("A after draining = %v, want 0", st.Values[aSlot])
	}
	if st.Values[bSlot] != 100 {
		t.Errorf("B after draining = %v, want 100 (conservation under clamp)", st.Values[bSlot])
	}
}

func slotFor(model *ir.CompiledModel, name string) int {
	for i, s := range model.StateLayout {
		if s.Name == name {
			return i
		}
	}
	panic("no such slot: " + name)
}

func rankOf(order []int, slot int) int {
	for i, idx := range order {
		if idx == slot {
			return i
		}
	}
	return -1
}

func TestCompile_FormulaCycle(t *testing.T) {
	b := frame.NewBuilder()
	x := b.AddNode("x", frame.TypeAuxiliary, "x", map[string]any{"formula": "y + 1"})
	y := b.AddNode("y", frame.TypeAuxiliary, "y", map[string]any{"formula": "x + 1"})
	b.AddEdge("", frame.TypeParameter, y, x, nil)
	b.AddEdge("", frame.TypeParameter, x, y, nil)
	fr, errs := b.Build()
	if len(errs) != 0 {
		t.Fatalf("unexpected frame build errors: %v", errs)
	}

	res := Compile(context.Background(), fr)
	if !res.Issues.HasErrors() {
		t.Fatal("expected a formula cycle error")
	}
	found := false
	for _, e := range res.Issues.Errors {
		if e.Code == apperror.CodeFormulaCycle {
			found = true
		}
	}
	if !found {
		t.Errorf("expected CodeFormulaCycle among errors, got %v", res.Issues.ErrorMessages())
	}
}

func TestCompile_StockCycleWithoutDelay(t *testing.T) {
	b := frame.NewBuilder()
	a := b.AddNode("a", frame.TypeStock, "A", map[string]any{"formula": "0"})
	bk := b.AddNode("b", frame.TypeStock, "B", map[string]any{"formula": "0"})
	fAB := b.AddNode("fab", frame.TypeFlow, "AtoB", map[string]any{"formula": "1"})
	fBA := b.AddNode("fba", frame.TypeFlow, "BtoA", map[string]any{"formula": "1"})
	b.AddEdge("", frame.TypeDrains, a, fAB, nil)
	b.AddEdge("", frame.TypeFills, fAB, bk, nil)
	b.AddEdge("", frame.TypeDrains, bk, fBA, nil)
	b.AddEdge("", frame.TypeFills, fBA, a, nil)
	fr, errs := b.Build()
	if len(errs) != 0 {
		t.Fatalf("unexpected frame build errors: %v", errs)
	}

	res := Compile(context.Background(), fr)
	if !res.Issues.HasErrors() {
		t.Fatal("expected an unresolved stock cycle error")
	}
	found := false
	for _, e := range res.Issues.Errors {
		if e.Code == apperror.CodeUnresolvedStockCycle {
			found = true
		}
	}
	if !found {
		t.Errorf("expected CodeUnresolvedStockCycle among errors, got %v", res.Issues.ErrorMessages())
	}
}

func TestCompile_UnknownVariable(t *testing.T) {
	b := frame.NewBuilder()
	b.AddNode("x", frame.TypeAuxiliary, "x", map[string]any{"formula": "ghost * 2"})
	fr, errs := b.Build()
	if len(errs) != 0 {
		t.Fatalf("unexpected frame build errors: %v", errs)
	}

	res := Compile(context.Background(), fr)
	if !res.Issues.HasErrors() {
		t.Fatal("expected an unknown variable error")
	}
	found := false
	for _, e := range res.Issues.Errors {
		if e.Code == apperror.CodeUnknownVariable {
			found = true
		}
	}
	if !found {
		t.Errorf("expected CodeUnknownVariable among errors, got %v", res.Issues.ErrorMessages())
	}
}

func TestCompile_GraphicalFunction(t *testing.T) {
	b := frame.NewBuilder()
	input := b.AddNode("in", frame.TypeAuxiliary, "in", map[string]any{"formula": "0.6"})
	gf := b.AddNode("gf", frame.TypeGraphicalFunction, "gf", map[string]any{
		"graphical_function_points": []frame.Point{{X: 0.0, Y: 0.0}, {X: 0.4, Y: 0.0}, {X: 0.6, Y: 10.0}},
	})
	b.AddEdge("", frame.TypeParameter, input, gf, nil)
	fr, errs := b.Build()
	if len(errs) != 0 {
		t.Fatalf("unexpected frame build errors: %v", errs)
	}

	res := Compile(context.Background(), fr)
	if res.Issues.HasErrors() {
		t.Fatalf("unexpected compile errors: %v", res.Issues.ErrorMessages())
	}
	if len(res.Model.Graphical) != 1 {
		t.Fatalf("expected 1 graphical function, got %d", len(res.Model.Graphical))
	}
	g := res.Model.Graphical[0]
	if got := g.Lookup(0.6); got != 10.0 {
		t.Errorf("Lookup(0.6) = %v, want 10", got)
	}
}
