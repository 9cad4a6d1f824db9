package expr

import "testing"

func TestParse_Number(t *testing.T) {
	n, err := Parse("42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lit, ok := n.(NumberLit)
	if !ok || lit.Value != 42 {
		t.Errorf("expected NumberLit(42), got %#v", n)
	}
}

func TestParse_Float(t *testing.T) {
	n, err := Parse("3.14")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lit := n.(NumberLit)
	if lit.Value != 3.14 {
		t.Errorf("expected 3.14, got %v", lit.Value)
	}
}

func TestParse_Exponent(t *testing.T) {
	n, err := Parse("1.5e3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lit := n.(NumberLit)
	if lit.Value != 1500 {
		t.Errorf("expected 1500, got %v", lit.Value)
	}
}

func TestParse_Ident(t *testing.T) {
	n, err := Parse("account")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id, ok := n.(Ident)
	if !ok || id.Name != "account" {
		t.Errorf("expected Ident(account), got %#v", n)
	}
}

func TestParse_BinaryPrecedence(t *testing.T) {
	n, err := Parse("1 + 2 * 3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bin, ok := n.(Binary)
	if !ok || bin.Op != "+" {
		t.Fatalf("expected top-level +, got %#v", n)
	}
	rhs, ok := bin.R.(Binary)
	if !ok || rhs.Op != "*" {
		t.Errorf("expected 2*3 grouped on the right, got %#v", bin.R)
	}
}

func TestParse_Parens(t *testing.T) {
	n, err := Parse("(1 + 2) * 3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bin := n.(Binary)
	if bin.Op != "*" {
		t.Fatalf("expected top-level *, got %s", bin.Op)
	}
	lhs, ok := bin.L.(Binary)
	if !ok || lhs.Op != "+" {
		t.Errorf("expected (1+2) grouped on the left, got %#v", bin.L)
	}
}

func TestParse_UnaryMinus(t *testing.T) {
	n, err := Parse("-x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u, ok := n.(Unary)
	if !ok || u.Op != "-" {
		t.Fatalf("expected Unary(-), got %#v", n)
	}
}

func TestParse_Comparison(t *testing.T) {
	cases := []string{"a == b", "a != b", "a < b", "a <= b", "a > b", "a >= b"}
	for _, s := range cases {
		n, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", s, err)
		}
		if _, ok := n.(Binary); !ok {
			t.Errorf("Parse(%q) = %#v, want Binary", s, n)
		}
	}
}

func TestParse_Call(t *testing.T) {
	n, err := Parse("sum(a, b, 3)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	call, ok := n.(Call)
	if !ok || call.Fn != "sum" {
		t.Fatalf("expected Call(sum), got %#v", n)
	}
	if len(call.Args) != 3 {
		t.Errorf("expected 3 args, got %d", len(call.Args))
	}
}

func TestParse_NestedCall(t *testing.T) {
	n, err := Parse("if(a > b, a, b)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	call := n.(Call)
	if call.Fn != "if" || len(call.Args) != 3 {
		t.Fatalf("expected if() with 3 args, got %#v", n)
	}
	if _, ok := call.Args[0].(Binary); !ok {
		t.Errorf("expected first arg to be a comparison, got %#v", call.Args[0])
	}
}

func TestParse_CallNoArgs(t *testing.T) {
	n, err := Parse("time()")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	call := n.(Call)
	if len(call.Args) != 0 {
		t.Errorf("expected 0 args, got %d", len(call.Args))
	}
}

func TestParse_UnterminatedParen(t *testing.T) {
	_, err := Parse("(1 + 2")
	if err == nil {
		t.Fatal("expected error")
	}
	perr, ok := err.(*ParseError)
	if !ok || perr.Kind != UnterminatedParen {
		t.Errorf("expected UnterminatedParen, got %#v", err)
	}
}

func TestParse_MissingOperand(t *testing.T) {
	_, err := Parse("1 +")
	if err == nil {
		t.Fatal("expected error")
	}
	perr, ok := err.(*ParseError)
	if !ok || perr.Kind != MissingOperand {
		t.Errorf("expected MissingOperand, got %#v", err)
	}
}

func TestParse_UnexpectedToken(t *testing.T) {
	_, err := Parse("1 2")
	if err == nil {
		t.Fatal("expected error")
	}
	perr, ok := err.(*ParseError)
	if !ok || perr.Kind != UnexpectedToken {
		t.Errorf("expected UnexpectedToken, got %#v", err)
	}
}

func TestParse_InvalidNumber(t *testing.T) {
	_, err := Parse("1.")
	if err == nil {
		t.Fatal("expected error")
	}
	perr, ok := err.(*ParseError)
	if !ok || perr.Kind != InvalidNumber {
		t.Errorf("expected InvalidNumber, got %#v", err)
	}
}

func TestParse_WhitespaceInsignificant(t *testing.T) {
	a, err := Parse("1+2*3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Parse("  1  +  2 * 3  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Print(a) != Print(b) {
		t.Errorf("whitespace should not change the parsed tree: %s vs %s", Print(a), Print(b))
	}
}

func TestParsePrintRoundTrip(t *testing.T) {
	formulas := []string{
		"42",
		"3.14",
		"account",
		"account * rate",
		"1 + 2 * 3",
		"(1 + 2) * 3",
		"-x",
		"-x + y",
		"a == b",
		"a >= b + 1",
		"sum(a, b, c)",
		"if(a > b, a, b)",
		"power(x, 2)",
		"min(1, 2, max(3, 4))",
	}

	for _, s := range formulas {
		first, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", s, err)
		}
		printed := Print(first)
		second, err := Parse(printed)
		if err != nil {
			t.Fatalf("Parse(Print(Parse(%q))) error: %v (printed=%q)", s, err, printed)
		}
		if Print(second) != printed {
			t.Errorf("round trip mismatch for %q: first print %q, second print %q", s, printed, Print(second))
		}
	}
}
