// Package config holds the rule-builder configuration the compiler reads:
// fields, operators and widgets.
//
// Operator behavior is an explicit record (OperatorBehavior) rather than a
// bag of optional callbacks. A widget formatter is reached through
// WidgetBehavior.Override, which reports the "no override" case with a
// boolean instead of a nil function check at every call site.
//
// Default returns the built-in tables. Load and LoadFile read CUE files
// and merge them over the defaults; Validate checks a Config for
// inconsistencies (unknown inverses, missing primitives) without failing
// fast.
package config
