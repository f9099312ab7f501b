package compiler

import (
	"fmt"

	"github.com/roach88/qbdsl/internal/config"
	"github.com/roach88/qbdsl/internal/querydsl"
	"github.com/roach88/qbdsl/internal/ruletree"
)

// compileNode returns the clauses of a node. Groups return at most one
// clause; rules return one per criterion.
func (c *Compiler) compileNode(n ruletree.Node, negate bool, meta *compileMeta) []querydsl.Clause {
	switch node := n.(type) {
	case *ruletree.Group:
		if node == nil {
			return nil
		}
		if clause := c.compileGroup(node, negate, meta); clause != nil {
			return []querydsl.Clause{clause}
		}
		return nil
	case *ruletree.Rule:
		if node == nil {
			return nil
		}
		return c.compileRule(node, negate, meta)
	default:
		return nil
	}
}

func (c *Compiler) compileGroup(g *ruletree.Group, negate bool, meta *compileMeta) querydsl.Clause {
	if len(g.Children) == 0 {
		return nil
	}

	effective := negate != g.Not
	kind, childNegate, ok := groupOccurrence(g.Conjunction, effective)
	if !ok {
		meta.warn(Warning{
			Code:    CodeUnknownConjunction,
			NodeID:  g.ID,
			Field:   g.Field,
			Message: fmt.Sprintf("unknown conjunction %q", g.Conjunction),
		})
		return nil
	}

	var clauses []querydsl.Clause
	for _, child := range g.Children {
		clauses = append(clauses, c.compileNode(child, childNegate, meta)...)
	}
	if len(clauses) == 0 {
		return nil
	}
	return querydsl.NewBool(kind, clauses...)
}

func (c *Compiler) compileRule(r *ruletree.Rule, negate bool, meta *compileMeta) []querydsl.Clause {
	if r.Field == "" || r.Operator == "" {
		return nil
	}

	if r.HasFuncSource() {
		meta.warn(Warning{
			Code:     CodeFuncValue,
			NodeID:   r.ID,
			Field:    r.Field,
			Operator: r.Operator,
			Message:  fmt.Sprintf("unsupported function-sourced value for field %s", r.Field),
		})
		return nil
	}

	op, ok := c.cfg.Operator(r.Operator)
	if !ok {
		meta.warn(Warning{
			Code:     CodeUnknownOperator,
			NodeID:   r.ID,
			Field:    r.Field,
			Operator: r.Operator,
			Message:  fmt.Sprintf("operator %q is not configured", r.Operator),
		})
		return nil
	}

	wrapNot := false
	if negate {
		op, wrapNot = c.invert(r, op, meta)
	}

	clauses := c.ruleClauses(r, op, meta)
	if wrapNot {
		// Each clause is flattened into the (already dualized) parent on its
		// own, so each is negated on its own.
		for i, clause := range clauses {
			clauses[i] = querydsl.NewBool(querydsl.MustNot, clause)
		}
	}
	return clauses
}

// invert swaps op for its inverse. When there is no usable inverse the
// caller wraps the rule's clauses in must_not instead.
func (c *Compiler) invert(r *ruletree.Rule, op *config.OperatorBehavior, meta *compileMeta) (*config.OperatorBehavior, bool) {
	if op.Inverse == "" {
		return op, true
	}
	inv, ok := c.cfg.Operator(op.Inverse)
	if !ok {
		meta.warn(Warning{
			Code:     CodeUnknownInverse,
			NodeID:   r.ID,
			Field:    r.Field,
			Operator: r.Operator,
			Message:  fmt.Sprintf("inverse %q of operator %q is not configured", op.Inverse, r.Operator),
		})
		return op, true
	}
	return inv, false
}

// ruleClauses emits the criteria of a rule according to the operator's
// value mode. Empty slots are skipped without a warning.
func (c *Compiler) ruleClauses(r *ruletree.Rule, op *config.OperatorBehavior, meta *compileMeta) []querydsl.Clause {
	switch op.Values {
	case config.ValuesNone:
		_, src, typ := r.Slot(0)
		if clause := c.buildClause(r, op, src, typ, nil, meta); clause != nil {
			return []querydsl.Clause{clause}
		}
		return nil

	case config.ValuesRange:
		n := r.SlotCount()
		if n == 0 {
			return nil
		}
		values := make([]any, 0, n)
		for i := 0; i < n; i++ {
			v, _, _ := r.Slot(i)
			if ruletree.IsNull(v) {
				return nil
			}
			values = append(values, ruletree.Native(v))
		}
		_, src, typ := r.Slot(0)
		if clause := c.buildClause(r, op, src, typ, values, meta); clause != nil {
			return []querydsl.Clause{clause}
		}
		return nil

	default:
		var clauses []querydsl.Clause
		for i := 0; i < r.SlotCount(); i++ {
			v, src, typ := r.Slot(i)
			items := expand(v)
			if op.Values == config.ValuesSlot {
				items = whole(v)
			}
			for _, item := range items {
				if clause := c.buildClause(r, op, src, typ, []any{item}, meta); clause != nil {
					clauses = append(clauses, clause)
				}
			}
		}
		return clauses
	}
}

// expand returns the native values of one slot: each element of a list,
// or the value itself. Nulls are dropped.
func expand(v ruletree.Value) []any {
	if list, ok := v.(ruletree.List); ok {
		out := make([]any, 0, len(list))
		for _, item := range list {
			if !ruletree.IsNull(item) {
				out = append(out, ruletree.Native(item))
			}
		}
		return out
	}
	if ruletree.IsNull(v) {
		return nil
	}
	return []any{ruletree.Native(v)}
}

// whole returns the native value of one slot without splitting lists.
func whole(v ruletree.Value) []any {
	if ruletree.IsNull(v) {
		return nil
	}
	return []any{ruletree.Native(v)}
}

// buildClause resolves widget, primitive and parameters for one criterion
// and wraps it in the operator's clause kind.
func (c *Compiler) buildClause(r *ruletree.Rule, op *config.OperatorBehavior, src, valueType string, values []any, meta *compileMeta) querydsl.Clause {
	fc, known := c.cfg.Field(r.Field)

	widget := c.cfg.WidgetResolver().ResolveWidget(config.WidgetQuery{
		Field:       r.Field,
		FieldConfig: fc,
		KnownField:  known,
		Operator:    op.Name,
		ValueSrc:    src,
		ValueType:   valueType,
	})
	// Operators that read no value do not need a widget.
	if widget == "" && op.Values != config.ValuesNone {
		meta.warn(Warning{
			Code:     CodeUnresolvedWidget,
			NodeID:   r.ID,
			Field:    r.Field,
			Operator: op.Name,
			Message:  fmt.Sprintf("no widget for field %s", r.Field),
		})
		return nil
	}

	primitive, ok := resolveShape(op, widget)
	if !ok {
		meta.warn(Warning{
			Code:     CodeUnresolvedPrimitive,
			NodeID:   r.ID,
			Field:    r.Field,
			Operator: op.Name,
			Message:  fmt.Sprintf("operator %s has no primitive for widget %s", op.Name, widget),
		})
		return nil
	}

	target := queryField(fc, r.Field, widget, primitive)
	body, err := c.resolveParameters(widget, r.Field, ParamInput{
		Primitive: primitive,
		Values:    values,
		Operator:  op.Name,
		Field:     target,
		Behavior:  op,
	})
	if err != nil {
		meta.warn(Warning{
			Code:     warningCode(err),
			NodeID:   r.ID,
			Field:    r.Field,
			Operator: op.Name,
			Message:  err.Error(),
		})
		return nil
	}

	return wrapOccurrence(op.ClauseKind(), &querydsl.Criterion{
		Primitive: primitive,
		Field:     criterionField(primitive, body, target),
		Body:      body,
	})
}

// criterionField returns the document field a body targets. Formatters may
// rename the field, so the body's single key wins over the resolved one.
// Exists and script bodies are not keyed by field.
func criterionField(p querydsl.Primitive, body any, resolved string) string {
	if p == querydsl.Exists || p == querydsl.Script {
		return resolved
	}
	if obj, ok := body.(querydsl.Object); ok && len(obj) == 1 {
		for key := range obj {
			return key
		}
	}
	return resolved
}
