// Package ruletree provides the input model for the query compiler: the
// boolean rule tree a visual rule builder produces.
//
// This package contains the tree types and their decoder only. It imports
// nothing internal, so every other package can depend on it.
//
// TREE SHAPE:
//
// A tree is made of two node kinds:
//
//	Group  - a conjunction (AND/OR/NOT) over ordered children, optionally negated
//	Rule   - a single field comparison: field, operator and value slots
//
// Both `group` and `rule_group` nodes decode into *Group. A rule_group
// additionally carries the field its children are scoped to.
//
// Rule value slots are index aligned: Values[i], ValueSrc[i] and
// ValueType[i] describe the same slot. ValueSrc is one of "value", "field"
// or "func"; function-sourced values cannot be expressed as search queries
// and are skipped by the compiler.
//
// ORDERING:
//
// Children are kept in the order they appear in the source document. The
// decoder walks gopkg.in/yaml.v3 nodes instead of decoding into Go maps, so
// the `children1` mapping keeps its key order for both JSON and YAML input.
//
// OWNERSHIP:
//
// Trees are read-only once decoded. The compiler never mutates them, which
// makes a single tree safe to compile from multiple goroutines.
package ruletree
