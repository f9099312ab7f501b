package querydsl

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ClauseKind is the occurrence slot of a boolean clause.
type ClauseKind string

const (
	Must    ClauseKind = "must"
	Should  ClauseKind = "should"
	MustNot ClauseKind = "must_not"
)

// ParseClauseKind accepts must, should and must_not (case-insensitive).
func ParseClauseKind(s string) (ClauseKind, error) {
	switch ClauseKind(strings.ToLower(strings.TrimSpace(s))) {
	case Must:
		return Must, nil
	case Should:
		return Should, nil
	case MustNot:
		return MustNot, nil
	default:
		return "", fmt.Errorf("unknown clause kind %q", s)
	}
}

// Primitive is a search criterion type.
type Primitive string

const (
	Term           Primitive = "term"
	Match          Primitive = "match"
	Range          Primitive = "range"
	Wildcard       Primitive = "wildcard"
	Regexp         Primitive = "regexp"
	Exists         Primitive = "exists"
	GeoBoundingBox Primitive = "geo_bounding_box"
	Script         Primitive = "script"
)

// Primitives lists every known primitive in a stable order.
var Primitives = []Primitive{Term, Match, Range, Wildcard, Regexp, Exists, GeoBoundingBox, Script}

var primitiveAliases = map[string]Primitive{
	"exact-match":      Term,
	"full-text-match":  Match,
	"existence-check":  Exists,
	"geo-bounding-box": GeoBoundingBox,
	"scripted-filter":  Script,
}

// ParsePrimitive resolves a primitive name. Engine names (term, match, ...)
// and the descriptive aliases (exact-match, full-text-match, ...) are both
// accepted.
func ParsePrimitive(s string) (Primitive, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, p := range Primitives {
		if string(p) == name {
			return p, nil
		}
	}
	if p, ok := primitiveAliases[name]; ok {
		return p, nil
	}
	return "", fmt.Errorf("unknown primitive %q", s)
}

// Object is a JSON object payload.
type Object = map[string]any

// Clause is a sealed interface over query clauses.
//
// Clause types:
//   - *Bool: boolean combination of sub-clauses
//   - *Criterion: a single primitive test
type Clause interface {
	json.Marshaler
	queryClause() // Marker method - seals interface to this package
}

// Bool combines sub-clauses under one occurrence kind. Clause order is
// preserved in the output.
type Bool struct {
	Kind    ClauseKind
	Clauses []Clause
}

func (*Bool) queryClause() {}

// NewBool builds a boolean clause.
func NewBool(kind ClauseKind, clauses ...Clause) *Bool {
	return &Bool{Kind: kind, Clauses: clauses}
}

// MarshalJSON renders {"bool": {kind: [clauses...]}}.
func (b *Bool) MarshalJSON() ([]byte, error) {
	clauses := b.Clauses
	if clauses == nil {
		clauses = []Clause{}
	}
	return json.Marshal(map[string]any{
		"bool": map[string]any{string(b.Kind): clauses},
	})
}

// Criterion is a single primitive test, e.g. {"term": {"color.keyword": "red"}}.
//
// Field is the document field the criterion targets, the key Body is
// written under (for exists and script, the field the rule was compiled
// for). It does not appear in the JSON; Body carries the primitive's
// parameters verbatim.
type Criterion struct {
	Primitive Primitive
	Field     string
	Body      any
}

func (*Criterion) queryClause() {}

// MarshalJSON renders {primitive: body}.
func (c *Criterion) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{string(c.Primitive): c.Body})
}

// ToMap converts a clause tree into plain maps and slices.
// A nil clause converts to nil.
func ToMap(c Clause) any {
	switch clause := c.(type) {
	case nil:
		return nil
	case *Bool:
		if clause == nil {
			return nil
		}
		items := make([]any, len(clause.Clauses))
		for i, sub := range clause.Clauses {
			items[i] = ToMap(sub)
		}
		return Object{"bool": Object{string(clause.Kind): items}}
	case *Criterion:
		if clause == nil {
			return nil
		}
		return Object{string(clause.Primitive): clause.Body}
	default:
		return nil
	}
}

// Walk visits every clause depth-first, parents before children.
// Returning false from fn stops descent into that clause's children.
func Walk(c Clause, fn func(Clause) bool) {
	if c == nil {
		return
	}
	if !fn(c) {
		return
	}
	if b, ok := c.(*Bool); ok {
		for _, sub := range b.Clauses {
			Walk(sub, fn)
		}
	}
}

// UsedPrimitives returns the primitives used by a query in first-seen order.
func UsedPrimitives(c Clause) []Primitive {
	var out []Primitive
	seen := map[Primitive]bool{}
	Walk(c, func(sub Clause) bool {
		if crit, ok := sub.(*Criterion); ok && !seen[crit.Primitive] {
			seen[crit.Primitive] = true
			out = append(out, crit.Primitive)
		}
		return true
	})
	return out
}
