package builtin

import (
	"math"
	"testing"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"abs", true},
		{"floor", true},
		{"ceiling", true},
		{"round", true},
		{"not", true},
		{"power", true},
		{"sum", true},
		{"min", true},
		{"max", true},
		{"or", true},
		{"and", true},
		{"if", true},
		{"sqrt", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Lookup(tt.name)
			if ok != tt.want {
				t.Errorf("Lookup(%q) ok = %v, want %v", tt.name, ok, tt.want)
			}
		})
	}
}

func TestCheckArity(t *testing.T) {
	abs, _ := Lookup("abs")
	if !abs.CheckArity(1) {
		t.Error("abs should accept 1 arg")
	}
	if abs.CheckArity(2) {
		t.Error("abs should reject 2 args")
	}

	sum, _ := Lookup("sum")
	if !sum.CheckArity(1) || !sum.CheckArity(5) {
		t.Error("sum should accept any count >= 1")
	}
	if sum.CheckArity(0) {
		t.Error("sum should reject 0 args")
	}

	ifn, _ := Lookup("if")
	if !ifn.CheckArity(3) {
		t.Error("if should accept exactly 3 args")
	}
	if ifn.CheckArity(2) || ifn.CheckArity(4) {
		t.Error("if should reject arity != 3")
	}
}

func TestArgTypeAt(t *testing.T) {
	power, _ := Lookup("power")
	if power.ArgTypeAt(0) != Real || power.ArgTypeAt(1) != Real {
		t.Error("power args should both be real")
	}

	ifn, _ := Lookup("if")
	if ifn.ArgTypeAt(0) != Bool {
		t.Error("if's first arg should be bool")
	}
	if ifn.ArgTypeAt(1) != Real || ifn.ArgTypeAt(2) != Real {
		t.Error("if's branch args should be real")
	}

	sum, _ := Lookup("sum")
	if sum.ArgTypeAt(0) != Real || sum.ArgTypeAt(4) != Real {
		t.Error("sum's variadic args should all be real")
	}
}

func TestUnaryFunctions(t *testing.T) {
	abs, _ := Lookup("abs")
	if v, err := abs.Fn([]float64{-4.5}); err != nil || v != 4.5 {
		t.Errorf("abs(-4.5) = %v, %v", v, err)
	}

	floor, _ := Lookup("floor")
	if v, _ := floor.Fn([]float64{3.7}); v != 3 {
		t.Errorf("floor(3.7) = %v", v)
	}

	ceiling, _ := Lookup("ceiling")
	if v, _ := ceiling.Fn([]float64{3.1}); v != 4 {
		t.Errorf("ceiling(3.1) = %v", v)
	}

	round, _ := Lookup("round")
	if v, _ := round.Fn([]float64{2.5}); v != 3 {
		t.Errorf("round(2.5) = %v", v)
	}

	not, _ := Lookup("not")
	if v, _ := not.Fn([]float64{0}); v != 1 {
		t.Errorf("not(false) = %v, want true", v)
	}
	if v, _ := not.Fn([]float64{1}); v != 0 {
		t.Errorf("not(true) = %v, want false", v)
	}
}

func TestPower(t *testing.T) {
	power, _ := Lookup("power")

	v, err := power.Fn([]float64{2, 10})
	if err != nil || v != 1024 {
		t.Errorf("power(2,10) = %v, %v", v, err)
	}

	v, err = power.Fn([]float64{-1, 0.5})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !math.IsNaN(v) {
		t.Error("power(-1, 0.5) should propagate NaN rather than error")
	}
}

func TestVariadicAggregations(t *testing.T) {
	sum, _ := Lookup("sum")
	if v, _ := sum.Fn([]float64{1, 2, 3}); v != 6 {
		t.Errorf("sum(1,2,3) = %v", v)
	}

	min, _ := Lookup("min")
	if v, _ := min.Fn([]float64{3, 1, 2}); v != 1 {
		t.Errorf("min(3,1,2) = %v", v)
	}
	if _, err := min.Fn(nil); err == nil {
		t.Error("min() with no args should be an empty-aggregation error")
	}

	max, _ := Lookup("max")
	if v, _ := max.Fn([]float64{3, 1, 2}); v != 3 {
		t.Errorf("max(3,1,2) = %v", v)
	}
}

func TestBooleanAggregations(t *testing.T) {
	or, _ := Lookup("or")
	if v, _ := or.Fn([]float64{0, 0, 1}); v != 1 {
		t.Errorf("or(0,0,1) = %v", v)
	}
	if v, _ := or.Fn([]float64{0, 0}); v != 0 {
		t.Errorf("or(0,0) = %v", v)
	}

	and, _ := Lookup("and")
	if v, _ := and.Fn([]float64{1, 1, 1}); v != 1 {
		t.Errorf("and(1,1,1) = %v", v)
	}
	if v, _ := and.Fn([]float64{1, 0, 1}); v != 0 {
		t.Errorf("and(1,0,1) = %v", v)
	}
}

func TestIfHasNoDirectFunc(t *testing.T) {
	ifn, _ := Lookup("if")
	if ifn.Fn != nil {
		t.Error("if should have no direct Func: it is evaluated lazily by the IR layer")
	}
}

func TestArgTypeString(t *testing.T) {
	if Real.String() != "real" {
		t.Errorf("Real.String() = %s", Real.String())
	}
	if Bool.String() != "bool" {
		t.Errorf("Bool.String() = %s", Bool.String())
	}
}

func TestNaNPropagation(t *testing.T) {
	abs, _ := Lookup("abs")
	v, _ := abs.Fn([]float64{math.NaN()})
	if !math.IsNaN(v) {
		t.Error("abs(NaN) should propagate NaN")
	}
}
