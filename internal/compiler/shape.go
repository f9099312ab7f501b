package compiler

import (
	"github.com/roach88/qbdsl/internal/config"
	"github.com/roach88/qbdsl/internal/querydsl"
)

// resolveShape selects the primitive of an operator for a widget.
func resolveShape(op *config.OperatorBehavior, widget string) (querydsl.Primitive, bool) {
	if op == nil || op.Primitive == nil {
		return "", false
	}
	return op.Primitive.Select(widget)
}

// queryField picks the document field a criterion targets. Booleans always
// use the raw field. Exact and pattern matches prefer the keyword field,
// full-text matches the text field.
func queryField(fc config.FieldConfig, field, widget string, p querydsl.Primitive) string {
	if fc.Type == config.WidgetBoolean || widget == config.WidgetBoolean {
		return field
	}
	switch p {
	case querydsl.Term, querydsl.Wildcard, querydsl.Regexp:
		if fc.KeywordField != "" {
			return fc.KeywordField
		}
	case querydsl.Match:
		if fc.TextField != "" {
			return fc.TextField
		}
	}
	return field
}
