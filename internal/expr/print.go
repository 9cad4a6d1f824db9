package expr

import (
	"strconv"
	"strings"
)

// Print renders a parsed tree back to formula syntax. Used to verify the
// parse/print round trip: Parse(Print(Parse(s))) must equal Parse(s).
func Print(n Node) string {
	switch v := n.(type) {
	case NumberLit:
		return strconv.FormatFloat(v.Value, 'g', -1, 64)
	case Ident:
		return v.Name
	case Unary:
		return v.Op + Print(v.Arg)
	case Binary:
		return "(" + Print(v.L) + " " + v.Op + " " + Print(v.R) + ")"
	case Call:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = Print(a)
		}
		return v.Fn + "(" + strings.Join(args, ", ") + ")"
	default:
		return ""
	}
}
