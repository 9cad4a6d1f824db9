// Package binder resolves the free identifiers in a parsed expr.Node tree
// to state-vector slots and checks call arity/argument types against the
// built-in function table, producing a bound ir.Expr. It never looks at a
// frame directly; callers build the per-node NameTable from whatever
// sources apply (built-ins, incoming Parameter edges) and hand it in.
package binder

import (
	"fmt"

	"sdsim/internal/builtin"
	"sdsim/internal/expr"
	"sdsim/internal/ir"
	"sdsim/pkg/apperror"
)

// BindKind tags what an identifier resolves to.
type BindKind int

const (
	BindBuiltinVar BindKind = iota
	BindNodeVar
	BindBuiltinFn
)

// Binding is what a name in a NameTable resolves to.
type Binding struct {
	Kind  BindKind
	Index int // state-vector slot, meaningful for BindBuiltinVar/BindNodeVar
}

// NameTable maps identifiers visible to one node's formula to what they
// resolve to: the built-in variables (time, time_delta), the built-in
// function names, and whatever nodes reach this one through a Parameter
// edge.
type NameTable struct {
	names map[string]Binding
	used  map[string]bool // tracks which node-var names were actually referenced
}

// NewNameTable returns an empty table seeded with the fixed built-in
// variables; built-in function names are not stored here but resolved by
// Lookup from the builtin table. Index 0 is time, index 1 is time_delta, per
// the state-vector layout convention used throughout the compiler.
func NewNameTable() *NameTable {
	t := &NameTable{
		names: make(map[string]Binding),
		used:  make(map[string]bool),
	}
	t.names["time"] = Binding{Kind: BindBuiltinVar, Index: 0}
	t.names["time_delta"] = Binding{Kind: BindBuiltinVar, Index: 1}
	return t
}

// AddNodeVar registers a node reachable through a Parameter edge, at the
// node's assigned state-vector slot.
func (t *NameTable) AddNodeVar(name string, index int) {
	t.names[name] = Binding{Kind: BindNodeVar, Index: index}
}

// Lookup resolves name, also checking the built-in function table for call
// targets not already registered as a node-var (a node name always shadows
// a same-named built-in, since node names come from the user).
func (t *NameTable) Lookup(name string) (Binding, bool) {
	if b, ok := t.names[name]; ok {
		t.used[name] = true
		return b, true
	}
	if _, ok := builtin.Lookup(name); ok {
		return Binding{Kind: BindBuiltinFn}, true
	}
	return Binding{}, false
}

// Unreferenced returns the node-var names registered in the table that
// Lookup was never called for, in no particular order. Used to report
// unused-input warnings for Parameter edges whose origin was wired in but
// never read.
func (t *NameTable) Unreferenced() []string {
	var out []string
	for name, b := range t.names {
		if b.Kind == BindNodeVar && !t.used[name] {
			out = append(out, name)
		}
	}
	return out
}

// Bind converts an unbound expr.Node into a bound ir.Expr using table to
// resolve identifiers, checking call arity and argument types against the
// built-in function table along the way.
func Bind(node expr.Node, table *NameTable) (ir.Expr, error) {
	switch n := node.(type) {
	case expr.NumberLit:
		return ir.Lit{Value: n.Value}, nil

	case expr.Ident:
		b, ok := table.Lookup(n.Name)
		if !ok {
			return nil, apperror.New(apperror.CodeUnknownVariable, fmt.Sprintf("unknown variable %q", n.Name))
		}
		if b.Kind == BindBuiltinFn {
			return nil, apperror.New(apperror.CodeUnknownVariable, fmt.Sprintf("%q is a function, not a variable", n.Name))
		}
		return ir.Var{Index: b.Index}, nil

	case expr.Unary:
		arg, err := Bind(n.Arg, table)
		if err != nil {
			return nil, err
		}
		return ir.Unary{Op: n.Op, Arg: arg}, nil

	case expr.Binary:
		l, err := Bind(n.L, table)
		if err != nil {
			return nil, err
		}
		r, err := Bind(n.R, table)
		if err != nil {
			return nil, err
		}
		return ir.Binary{Op: n.Op, L: l, R: r}, nil

	case expr.Call:
		return bindCall(n, table)

	default:
		return nil, apperror.New(apperror.CodeInternal, "binder: unknown expression node")
	}
}

func bindCall(n expr.Call, table *NameTable) (ir.Expr, error) {
	sig, ok := builtin.Lookup(n.Fn)
	if !ok {
		return nil, apperror.New(apperror.CodeUnknownVariable, fmt.Sprintf("unknown function %q", n.Fn))
	}
	if !sig.CheckArity(len(n.Args)) {
		return nil, apperror.New(apperror.CodeArityMismatch,
			fmt.Sprintf("%s: expected %s, got %d arguments", n.Fn, arityDescription(sig), len(n.Args)))
	}

	args := make([]ir.Expr, len(n.Args))
	for i, a := range n.Args {
		bound, err := Bind(a, table)
		if err != nil {
			return nil, err
		}
		if !typeCompatible(a, sig.ArgTypeAt(i)) {
			return nil, apperror.New(apperror.CodeTypeMismatch,
				fmt.Sprintf("%s: argument %d expects %s", n.Fn, i+1, sig.ArgTypeAt(i)))
		}
		args[i] = bound
	}

	return ir.Call{Name: n.Fn, Fn: sig.Fn, Args: args}, nil
}

func arityDescription(sig builtin.Signature) string {
	if sig.Variadic {
		return fmt.Sprintf("at least %d argument(s)", sig.MinArgs)
	}
	if sig.MinArgs == sig.MaxArgs {
		return fmt.Sprintf("%d argument(s)", sig.MinArgs)
	}
	return fmt.Sprintf("%d to %d arguments", sig.MinArgs, sig.MaxArgs)
}

// typeCompatible is a shallow check: a comparison expression is the only
// syntactic form that is unambiguously bool-typed, so a Bool-typed argument
// position rejects anything else that isn't itself a nested bool-returning
// call (not/or/and). Every other combination is accepted, since the
// language has no variable type declarations to check against.
func typeCompatible(arg expr.Node, want builtin.ArgType) bool {
	if want != builtin.Bool {
		return true
	}
	switch v := arg.(type) {
	case expr.Binary:
		switch v.Op {
		case "==", "!=", "<", "<=", ">", ">=":
			return true
		}
		return false
	case expr.Call:
		sig, ok := builtin.Lookup(v.Fn)
		return ok && sig.ReturnType == builtin.Bool
	case expr.Ident:
		// A bare identifier may hold either class at runtime; defer to the
		// node's own declared semantics rather than rejecting it here.
		return true
	default:
		return false
	}
}
