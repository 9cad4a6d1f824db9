package ir

import (
	"math"
	"testing"

	"sdsim/internal/builtin"
)

func TestEval_Lit(t *testing.T) {
	v, err := Eval(Lit{Value: 3.5}, nil)
	if err != nil || v != 3.5 {
		t.Fatalf("Eval(Lit) = %v, %v", v, err)
	}
}

func TestEval_Var(t *testing.T) {
	state := []float64{10, 20, 30}
	v, err := Eval(Var{Index: 1}, state)
	if err != nil || v != 20 {
		t.Fatalf("Eval(Var) = %v, %v", v, err)
	}
}

func TestEval_Unary(t *testing.T) {
	v, err := Eval(Unary{Op: "-", Arg: Lit{Value: 5}}, nil)
	if err != nil || v != -5 {
		t.Fatalf("Eval(-5) = %v, %v", v, err)
	}
	v, err = Eval(Unary{Op: "+", Arg: Lit{Value: 5}}, nil)
	if err != nil || v != 5 {
		t.Fatalf("Eval(+5) = %v, %v", v, err)
	}
}

func TestEval_Arithmetic(t *testing.T) {
	cases := []struct {
		op   string
		l, r float64
		want float64
	}{
		{"+", 2, 3, 5},
		{"-", 5, 3, 2},
		{"*", 4, 3, 12},
		{"/", 9, 3, 3},
		{"%", 7, 3, 1},
	}
	for _, c := range cases {
		v, err := Eval(Binary{Op: c.op, L: Lit{Value: c.l}, R: Lit{Value: c.r}}, nil)
		if err != nil {
			t.Fatalf("Eval(%v %s %v) error: %v", c.l, c.op, c.r, err)
		}
		if v != c.want {
			t.Errorf("Eval(%v %s %v) = %v, want %v", c.l, c.op, c.r, v, c.want)
		}
	}
}

func TestEval_DivideByZero(t *testing.T) {
	// Division by zero is IEEE-754, not trapped: it produces +Inf/-Inf/NaN
	// and the step that produced it is still committed (spec §7).
	v, err := Eval(Binary{Op: "/", L: Lit{Value: 1}, R: Lit{Value: 0}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsInf(v, 1) {
		t.Errorf("1/0 = %v, want +Inf", v)
	}

	v, err = Eval(Binary{Op: "/", L: Lit{Value: 0}, R: Lit{Value: 0}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsNaN(v) {
		t.Errorf("0/0 = %v, want NaN", v)
	}
}

func TestEval_ModuloByZero(t *testing.T) {
	v, err := Eval(Binary{Op: "%", L: Lit{Value: 1}, R: Lit{Value: 0}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsNaN(v) {
		t.Errorf("1%%0 = %v, want NaN", v)
	}
}

func TestEval_Comparisons(t *testing.T) {
	cases := []struct {
		op   string
		want float64
	}{
		{"==", 0}, {"!=", 1}, {"<", 1}, {"<=", 1}, {">", 0}, {">=", 0},
	}
	for _, c := range cases {
		v, err := Eval(Binary{Op: c.op, L: Lit{Value: 1}, R: Lit{Value: 2}}, nil)
		if err != nil {
			t.Fatalf("Eval(1 %s 2) error: %v", c.op, err)
		}
		if v != c.want {
			t.Errorf("Eval(1 %s 2) = %v, want %v", c.op, v, c.want)
		}
	}
}

func TestEval_Call(t *testing.T) {
	sig, ok := builtin.Lookup("abs")
	if !ok {
		t.Fatal("expected abs to be registered")
	}
	v, err := Eval(Call{Name: "abs", Fn: sig.Fn, Args: []Expr{Lit{Value: -7}}}, nil)
	if err != nil || v != 7 {
		t.Fatalf("Eval(abs(-7)) = %v, %v", v, err)
	}
}

func TestEval_Call_DomainError(t *testing.T) {
	// power(-1, 0.5) has no real result; math.Pow yields NaN and it
	// propagates rather than failing the call (spec §7).
	sig, _ := builtin.Lookup("power")
	v, err := Eval(Call{Name: "power", Fn: sig.Fn, Args: []Expr{Lit{Value: -1}, Lit{Value: 0.5}}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsNaN(v) {
		t.Errorf("power(-1, 0.5) = %v, want NaN", v)
	}
}

func TestEval_If_True(t *testing.T) {
	ifExpr := Call{Name: "if", Args: []Expr{
		Binary{Op: ">", L: Lit{Value: 2}, R: Lit{Value: 1}},
		Lit{Value: 100},
		Lit{Value: 200},
	}}
	v, err := Eval(ifExpr, nil)
	if err != nil || v != 100 {
		t.Fatalf("Eval(if true) = %v, %v", v, err)
	}
}

func TestEval_If_False(t *testing.T) {
	ifExpr := Call{Name: "if", Args: []Expr{
		Binary{Op: "<", L: Lit{Value: 2}, R: Lit{Value: 1}},
		Lit{Value: 100},
		Lit{Value: 200},
	}}
	v, err := Eval(ifExpr, nil)
	if err != nil || v != 200 {
		t.Fatalf("Eval(if false) = %v, %v", v, err)
	}
}

func TestEval_If_LazyBranchNotEvaluated(t *testing.T) {
	// The false branch divides by zero; it must never be evaluated because
	// the condition selects the true branch.
	ifExpr := Call{Name: "if", Args: []Expr{
		Lit{Value: 1},
		Lit{Value: 42},
		Binary{Op: "/", L: Lit{Value: 1}, R: Lit{Value: 0}},
	}}
	v, err := Eval(ifExpr, nil)
	if err != nil || v != 42 {
		t.Fatalf("Eval(if lazy) = %v, %v", v, err)
	}
}

func TestEval_NestedExpression(t *testing.T) {
	// (account * rate) + 1, account at slot 0, rate at slot 1
	state := []float64{100, 0.05}
	e := Binary{
		Op: "+",
		L:  Binary{Op: "*", L: Var{Index: 0}, R: Var{Index: 1}},
		R:  Lit{Value: 1},
	}
	v, err := Eval(e, state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 6 {
		t.Errorf("expected 6, got %v", v)
	}
}
