package ruletree

import (
	"fmt"
	"sort"
)

// Value is a sealed interface over the leaf values a rule slot can hold.
// Only Null, String, Int, Float, Bool, List, Object and Func implement it.
type Value interface {
	ruleValue() // Sealed - only these types implement it
}

// Null is an empty slot. The rule builder stores null for values the user
// has not entered yet.
type Null struct{}

func (Null) ruleValue() {}

// String is a text value.
type String string

func (String) ruleValue() {}

// Int is an integral number.
type Int int64

func (Int) ruleValue() {}

// Float is a non-integral number (coordinates, sliders).
type Float float64

func (Float) ruleValue() {}

// Bool is a boolean value.
type Bool bool

func (Bool) ruleValue() {}

// List holds the selections of a multi-value widget, e.g. a multiselect.
type List []Value

func (List) ruleValue() {}

// Object is a structured value that is not a function placeholder.
type Object map[string]Value

func (Object) ruleValue() {}

// Func is a computed value placeholder: a function name plus its arguments.
// Search queries cannot evaluate these.
type Func struct {
	Name string
	Args map[string]Value
}

func (Func) ruleValue() {}

// Native converts a Value into plain Go values suitable for query payloads.
// Null and nil become nil, List becomes []any, Object and Func become
// map[string]any.
func Native(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Bool:
		return bool(val)
	case List:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Native(elem)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = Native(elem)
		}
		return out
	case Func:
		args := make(map[string]any, len(val.Args))
		for k, elem := range val.Args {
			args[k] = Native(elem)
		}
		return map[string]any{"func": val.Name, "args": args}
	default:
		return nil
	}
}

// IsNull reports whether v is an empty slot.
func IsNull(v Value) bool {
	switch v.(type) {
	case nil, Null:
		return true
	default:
		return false
	}
}

// Format renders a value for log and warning messages.
func Format(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return "null"
	case String:
		return fmt.Sprintf("%q", string(val))
	case Func:
		return fmt.Sprintf("%s(...)", val.Name)
	case Object:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return fmt.Sprintf("object%v", keys)
	default:
		return fmt.Sprintf("%v", Native(v))
	}
}
