// Package builtin defines the fixed table of built-in functions available
// to formulas: arity/type signatures for the binder, and direct evaluation
// closures for the compiled representation. Compiled calls hold a Func
// reference directly rather than doing a name lookup at evaluation time.
package builtin

import (
	"fmt"
	"math"
)

// ArgType is a formula-language type class.
type ArgType int

const (
	Real ArgType = iota
	Bool
)

func (t ArgType) String() string {
	if t == Bool {
		return "bool"
	}
	return "real"
}

// Func evaluates a built-in call given its already-evaluated arguments.
// Booleans are represented as 0.0 (false) / 1.0 (true).
type Func func(args []float64) (float64, error)

// Signature describes a built-in function's arity and argument/return types
// for the name binder's type checker. Variadic functions and the unary
// functions declare a single uniform ArgType for every argument; power and
// if declare one entry per position in ArgTypes (e.g. if's bool/real/real).
type Signature struct {
	Name       string
	MinArgs    int
	MaxArgs    int // -1 means unbounded (variadic)
	Variadic   bool
	ArgType    ArgType   // uniform element type, used for any position ArgTypes does not list
	ArgTypes   []ArgType // per-position types, fixed-arity functions only
	ReturnType ArgType
	Fn         Func
}

// ArgTypeAt returns the expected type for argument position i.
func (s Signature) ArgTypeAt(i int) ArgType {
	if s.Variadic {
		return s.ArgType
	}
	if i < len(s.ArgTypes) {
		return s.ArgTypes[i]
	}
	return s.ArgType
}

var table = map[string]Signature{}

func register(sig Signature) {
	table[sig.Name] = sig
}

func init() {
	register(Signature{Name: "abs", MinArgs: 1, MaxArgs: 1, ArgType: Real, ReturnType: Real, Fn: func(a []float64) (float64, error) {
		return math.Abs(a[0]), nil
	}})
	register(Signature{Name: "floor", MinArgs: 1, MaxArgs: 1, ArgType: Real, ReturnType: Real, Fn: func(a []float64) (float64, error) {
		return math.Floor(a[0]), nil
	}})
	register(Signature{Name: "ceiling", MinArgs: 1, MaxArgs: 1, ArgType: Real, ReturnType: Real, Fn: func(a []float64) (float64, error) {
		return math.Ceil(a[0]), nil
	}})
	register(Signature{Name: "round", MinArgs: 1, MaxArgs: 1, ArgType: Real, ReturnType: Real, Fn: func(a []float64) (float64, error) {
		return math.Round(a[0]), nil
	}})
	register(Signature{Name: "not", MinArgs: 1, MaxArgs: 1, ArgType: Bool, ReturnType: Bool, Fn: func(a []float64) (float64, error) {
		return boolToFloat(a[0] == 0), nil
	}})
	register(Signature{Name: "power", MinArgs: 2, MaxArgs: 2, ArgTypes: []ArgType{Real, Real}, ReturnType: Real, Fn: func(a []float64) (float64, error) {
		// math.Pow already returns NaN for domain violations (e.g. a
		// negative base with a fractional exponent); it propagates like any
		// other non-finite value rather than being trapped here.
		return math.Pow(a[0], a[1]), nil
	}})
	register(Signature{Name: "sum", MinArgs: 1, MaxArgs: -1, Variadic: true, ArgType: Real, ReturnType: Real, Fn: func(a []float64) (float64, error) {
		var total float64
		for _, v := range a {
			total += v
		}
		return total, nil
	}})
	register(Signature{Name: "min", MinArgs: 1, MaxArgs: -1, Variadic: true, ArgType: Real, ReturnType: Real, Fn: func(a []float64) (float64, error) {
		if len(a) == 0 {
			return 0, fmt.Errorf("min: empty aggregation")
		}
		m := a[0]
		for _, v := range a[1:] {
			if v < m {
				m = v
			}
		}
		return m, nil
	}})
	register(Signature{Name: "max", MinArgs: 1, MaxArgs: -1, Variadic: true, ArgType: Real, ReturnType: Real, Fn: func(a []float64) (float64, error) {
		if len(a) == 0 {
			return 0, fmt.Errorf("max: empty aggregation")
		}
		m := a[0]
		for _, v := range a[1:] {
			if v > m {
				m = v
			}
		}
		return m, nil
	}})
	register(Signature{Name: "or", MinArgs: 1, MaxArgs: -1, Variadic: true, ArgType: Bool, ReturnType: Bool, Fn: func(a []float64) (float64, error) {
		for _, v := range a {
			if v != 0 {
				return 1, nil
			}
		}
		return 0, nil
	}})
	register(Signature{Name: "and", MinArgs: 1, MaxArgs: -1, Variadic: true, ArgType: Bool, ReturnType: Bool, Fn: func(a []float64) (float64, error) {
		for _, v := range a {
			if v == 0 {
				return 0, nil
			}
		}
		return 1, nil
	}})
	// if(cond, tval, fval) is lazy: only the selected branch must evaluate
	// to a finite value, so it has no direct Func and is special-cased by
	// the IR evaluator instead of being dispatched through the table.
	register(Signature{Name: "if", MinArgs: 3, MaxArgs: 3, ArgTypes: []ArgType{Bool, Real, Real}, ReturnType: Real, Fn: nil})
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Lookup returns the signature registered for name.
func Lookup(name string) (Signature, bool) {
	sig, ok := table[name]
	return sig, ok
}

// CheckArity reports whether argc is a legal argument count for sig.
func (s Signature) CheckArity(argc int) bool {
	if s.Variadic {
		return argc >= s.MinArgs
	}
	return argc >= s.MinArgs && argc <= s.MaxArgs
}
