package compiler

import (
	"strings"

	"github.com/roach88/qbdsl/internal/querydsl"
	"github.com/roach88/qbdsl/internal/ruletree"
)

// Occurrence maps a group conjunction to a clause kind: AND to must, OR to
// should, NOT to must_not. The empty conjunction is treated as AND. Any
// other input reports false.
func Occurrence(conjunction string) (querydsl.ClauseKind, bool) {
	switch strings.ToUpper(conjunction) {
	case "", ruletree.ConjAnd:
		return querydsl.Must, true
	case ruletree.ConjOr:
		return querydsl.Should, true
	case ruletree.ConjNot:
		return querydsl.MustNot, true
	default:
		return "", false
	}
}

// groupOccurrence returns the clause kind of a group and the negation its
// children inherit.
//
// A group that is not negated keeps its conjunction and its children are
// not negated. A negated group takes the dual of its conjunction and
// negates its children:
//
//	NOT(a AND b)  = (NOT a) OR (NOT b)    -> should, children negated
//	NOT(a OR b)   = (NOT a) AND (NOT b)   -> must, children negated
//	NOT(NOT a AND NOT b) = a OR b         -> should, children as written
func groupOccurrence(conjunction string, negated bool) (kind querydsl.ClauseKind, childNegate bool, ok bool) {
	kind, ok = Occurrence(conjunction)
	if !ok || !negated {
		return kind, false, ok
	}
	switch kind {
	case querydsl.Must:
		return querydsl.Should, true, true
	case querydsl.Should:
		return querydsl.Must, true, true
	default:
		return querydsl.Should, false, true
	}
}

// wrapOccurrence emits a criterion under an operator's clause kind. A must
// criterion is emitted bare; any other kind gets its own boolean wrapper.
func wrapOccurrence(kind querydsl.ClauseKind, c querydsl.Clause) querydsl.Clause {
	if kind == "" || kind == querydsl.Must {
		return c
	}
	return querydsl.NewBool(kind, c)
}
