// Package ir is the lowered, bound representation the compiler produces and
// the solver/simulator consume: expressions reference state-vector slots by
// index rather than by name, so evaluation never looks anything up by
// string once compilation has finished.
package ir

import (
	"math"

	"sdsim/internal/builtin"
	"sdsim/pkg/apperror"
)

// Expr is a bound formula expression. Every Var holds a resolved
// state-vector index; there is no remaining name resolution at evaluation
// time.
type Expr interface {
	isExpr()
}

// Lit is a constant literal.
type Lit struct {
	Value float64
}

// Var reads the current value of state-vector slot Index.
type Var struct {
	Index int
}

// Unary is a prefix operator, "-" or "+".
type Unary struct {
	Op  string
	Arg Expr
}

// Binary is an infix operator: arithmetic (+ - * / %) or comparison
// (== != < <= > >=, yielding 0.0/1.0).
type Binary struct {
	Op string
	L  Expr
	R  Expr
}

// Call is a built-in function call. Fn is nil for "if", which is evaluated
// lazily by Eval rather than dispatched through a generic Func.
type Call struct {
	Name string
	Fn   builtin.Func
	Args []Expr
}

func (Lit) isExpr()    {}
func (Var) isExpr()    {}
func (Unary) isExpr()  {}
func (Binary) isExpr() {}
func (Call) isExpr()   {}

// Eval evaluates e against the current state vector.
func Eval(e Expr, state []float64) (float64, error) {
	switch v := e.(type) {
	case Lit:
		return v.Value, nil
	case Var:
		return state[v.Index], nil
	case Unary:
		arg, err := Eval(v.Arg, state)
		if err != nil {
			return 0, err
		}
		if v.Op == "-" {
			return -arg, nil
		}
		return arg, nil
	case Binary:
		return evalBinary(v, state)
	case Call:
		return evalCall(v, state)
	default:
		return 0, apperror.New(apperror.CodeInternal, "ir: unknown expression node")
	}
}

func evalBinary(v Binary, state []float64) (float64, error) {
	l, err := Eval(v.L, state)
	if err != nil {
		return 0, err
	}
	r, err := Eval(v.R, state)
	if err != nil {
		return 0, err
	}
	switch v.Op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		// Go's float64 division already is IEEE-754: 1/0 = +Inf, -1/0 =
		// -Inf, 0/0 = NaN. Division by zero is a runtime error kind (spec
		// §7), not a trapped one: the result is committed and the simulator
		// flags the slot non-finite rather than step() failing.
		return l / r, nil
	case "%":
		return math.Mod(l, r), nil
	case "==":
		return boolToFloat(l == r), nil
	case "!=":
		return boolToFloat(l != r), nil
	case "<":
		return boolToFloat(l < r), nil
	case "<=":
		return boolToFloat(l <= r), nil
	case ">":
		return boolToFloat(l > r), nil
	case ">=":
		return boolToFloat(l >= r), nil
	default:
		return 0, apperror.New(apperror.CodeInternal, "ir: unknown binary operator "+v.Op)
	}
}

// evalCall evaluates a function call. "if" is special-cased: only the
// selected branch is evaluated, matching its lazy builtin.Signature.
func evalCall(v Call, state []float64) (float64, error) {
	if v.Name == "if" {
		if len(v.Args) != 3 {
			return 0, apperror.New(apperror.CodeArityMismatch, "if requires exactly 3 arguments")
		}
		cond, err := Eval(v.Args[0], state)
		if err != nil {
			return 0, err
		}
		if cond != 0 {
			return Eval(v.Args[1], state)
		}
		return Eval(v.Args[2], state)
	}

	args := make([]float64, len(v.Args))
	for i, a := range v.Args {
		val, err := Eval(a, state)
		if err != nil {
			return 0, err
		}
		args[i] = val
	}
	if v.Fn == nil {
		return 0, apperror.New(apperror.CodeInternal, "ir: call "+v.Name+" has no evaluator")
	}
	result, err := v.Fn(args)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.CodeDomainError, err.Error())
	}
	return result, nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
