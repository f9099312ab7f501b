// Package compiler turns a rule tree into a boolean search query.
//
// The walk is a plain recursion over ruletree nodes. Negation is an
// explicit parameter: a negated rule is rewritten to its configured inverse
// operator (NOT(a > 5) becomes a <= 5) instead of being wrapped, and a
// negated group swaps its conjunction for the De Morgan dual before passing
// the negation on to its children.
//
// Nothing in a compile is fatal. Problems with individual rules are
// recorded as Warnings on the Result and the rest of the tree compiles
// normally. Each Compile call owns its own warning collector, so one
// Compiler can be shared by concurrent callers.
package compiler
