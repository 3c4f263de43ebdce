package exprvm

import "github.com/jeremyfa/loreline-go/internal/values"

// ToGo converts a runtime Value to the plain Go representation expr-lang's
// VM operates on. It is used for the operand slots of a single operator
// evaluation (evaluator.go's unary/binary paths and assign.go's compound
// assignments). Array and Object values have no Go counterpart here and
// are passed as their Stringify text.
func ToGo(v values.Value) interface{} {
	switch t := v.(type) {
	case values.Null:
		return nil
	case values.Bool:
		return t.Value
	case values.Int:
		return t.Value
	case values.Number:
		return t.Value
	case values.Text:
		return t.Value
	case values.CharacterRef:
		return t.Name
	case values.FunctionRef:
		return t.Name
	default:
		return values.Stringify(v)
	}
}

// FromGo converts an expr-lang result back into a runtime Value.
func FromGo(v interface{}) values.Value {
	switch t := v.(type) {
	case nil:
		return values.Null{}
	case bool:
		return values.Bool{Value: t}
	case int:
		return values.Int{Value: int64(t)}
	case int64:
		return values.Int{Value: t}
	case float64:
		if t == float64(int64(t)) {
			// A whole-valued float64 (for example the result of an
			// int/int division) is not turned back into an Int: every
			// float64 result comes back as a Number.
		}
		return values.Number{Value: t}
	case string:
		return values.Text{Value: t}
	default:
		return values.Null{}
	}
}

// typeTag returns a short, stable signature for an operand's Go type, used
// as part of the compiled-program cache key (evaluator.go). Distinct
// signatures get distinct compiled programs since expr.Env uses the
// concrete operand types for its static type checks.
func typeTag(v interface{}) string {
	switch v.(type) {
	case nil:
		return "nil"
	case bool:
		return "bool"
	case int64:
		return "int64"
	case float64:
		return "float64"
	case string:
		return "string"
	default:
		return "any"
	}
}
