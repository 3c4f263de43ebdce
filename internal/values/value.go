// Package values implements the runtime value sum type from spec §3
// ("Runtime value"). It is a closed interface with one concrete struct
// per variant, grounded on internal/interp/value.go's IntegerValue /
// FloatValue / StringValue / BooleanValue / NilValue pattern: no
// interface{}, no reflection, dispatch by type switch.
package values

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Value is the runtime value interface. Every Loreline value -- Null,
// Boolean, Integer, Number, Text, a Character reference, a Function
// reference, an Array, or an Object -- implements it.
type Value interface {
	// Kind returns a short uppercase tag for diagnostics, mirroring
	// internal/interp/value.go's Value.Type().
	Kind() string
	// String renders the value the way text interpolation stringifies it
	// (spec §4.6).
	String() string
}

// Null is the absence of a value.
type Null struct{}

func (Null) Kind() string   { return "NULL" }
func (Null) String() string { return "null" }

// Bool is a boolean value.
type Bool struct{ Value bool }

func (Bool) Kind() string { return "BOOLEAN" }
func (b Bool) String() string {
	if b.Value {
		return "true"
	}
	return "false"
}

// Int is a whole-number value, kept distinct from Number per spec §3 so
// that `Sequence`/`Cycle` visit counters and array indices stay exact.
type Int struct{ Value int64 }

func (Int) Kind() string     { return "INTEGER" }
func (i Int) String() string { return strconv.FormatInt(i.Value, 10) }

// Number is a floating-point value.
type Number struct{ Value float64 }

func (Number) Kind() string { return "NUMBER" }
func (n Number) String() string {
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

// Text is a string value.
type Text struct{ Value string }

func (Text) Kind() string     { return "TEXT" }
func (t Text) String() string { return t.Value }

// CharacterRef refers to a declared character by name. Field reads on a
// CharacterRef go through the Store's per-character fields (spec §4.6).
type CharacterRef struct{ Name string }

func (CharacterRef) Kind() string     { return "CHARACTER" }
func (c CharacterRef) String() string { return c.Name }

// FunctionRef refers to a script-level function or a host-registered
// named function by name (spec §3, §6.2).
type FunctionRef struct{ Name string }

func (FunctionRef) Kind() string     { return "FUNCTION" }
func (f FunctionRef) String() string { return f.Name }

// Array is an ordered sequence of values.
type Array struct{ Elements []Value }

func (Array) Kind() string { return "ARRAY" }
func (a Array) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, e := range a.Elements {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(Stringify(e))
	}
	sb.WriteByte(']')
	return sb.String()
}

// Object is a mapping from name to value. order preserves insertion order
// for Names() and serialization; String() sorts field names instead.
type Object struct {
	order  []string
	fields map[string]Value
}

// NewObject builds an empty Object; fields are added with Set.
func NewObject() *Object {
	return &Object{fields: map[string]Value{}}
}

func (o *Object) Set(name string, v Value) {
	if _, exists := o.fields[name]; !exists {
		o.order = append(o.order, name)
	}
	o.fields[name] = v
}

func (o *Object) Get(name string) (Value, bool) {
	v, ok := o.fields[name]
	return v, ok
}

func (o *Object) Names() []string {
	out := make([]string, len(o.order))
	copy(out, o.order)
	return out
}

func (Object) Kind() string { return "OBJECT" }

func (o *Object) String() string {
	names := append([]string(nil), o.order...)
	sort.Strings(names)
	var sb strings.Builder
	sb.WriteByte('{')
	for i, n := range names {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(n)
		sb.WriteString(": ")
		sb.WriteString(Stringify(o.fields[n]))
	}
	sb.WriteByte('}')
	return sb.String()
}

// Stringify renders a value as spec §4.6 requires for interpolation:
// numbers in natural form, booleans as true/false, null as null, arrays
// as [elt, ...], objects as {name: value, ...}, characters by name. A nil
// Value (an absent binding) stringifies as "null".
func Stringify(v Value) string {
	if v == nil {
		return "null"
	}
	return v.String()
}

// Truthy applies the boolean coercion the engine uses for conditions and
// guards: nil, Null and Bool{false} are falsy; Bool{true} and every other
// value -- including a zero Int/Number, empty Text and an empty Array --
// are truthy.
func Truthy(v Value) bool {
	switch t := v.(type) {
	case nil:
		return false
	case Null:
		return false
	case Bool:
		return t.Value
	default:
		return true
	}
}

// Equal reports whether two values are the same kind and content. Arrays
// and Objects compare structurally.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av.Value == bv.Value
	case Int:
		switch bv := b.(type) {
		case Int:
			return av.Value == bv.Value
		case Number:
			return float64(av.Value) == bv.Value
		}
		return false
	case Number:
		switch bv := b.(type) {
		case Number:
			return av.Value == bv.Value
		case Int:
			return av.Value == float64(bv.Value)
		}
		return false
	case Text:
		bv, ok := b.(Text)
		return ok && av.Value == bv.Value
	case CharacterRef:
		bv, ok := b.(CharacterRef)
		return ok && av.Name == bv.Name
	case FunctionRef:
		bv, ok := b.(FunctionRef)
		return ok && av.Name == bv.Name
	case Array:
		bv, ok := b.(Array)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !Equal(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case *Object:
		bv, ok := b.(*Object)
		if !ok || len(av.order) != len(bv.order) {
			return false
		}
		for _, n := range av.order {
			bf, ok := bv.Get(n)
			if !ok || !Equal(av.fields[n], bf) {
				return false
			}
		}
		return true
	default:
		return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
	}
}
