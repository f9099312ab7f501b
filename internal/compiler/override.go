package compiler

import (
	"fmt"

	"github.com/roach88/qbdsl/internal/config"
)

// resolveParameters prefers the widget's formatter and falls back to
// BuildParameters. A formatter's result is used verbatim.
func (c *Compiler) resolveParameters(widget, field string, in ParamInput) (any, error) {
	w, ok := c.cfg.Widget(widget)
	if !ok {
		return BuildParameters(in)
	}
	format, ok := w.Override()
	if !ok {
		return BuildParameters(in)
	}

	out, err := format(config.FormatInput{
		Primitive:  in.Primitive,
		Values:     in.Values,
		Operator:   in.Operator,
		Field:      field,
		QueryField: in.Field,
		Config:     c.cfg,
		Default: func(values []any) (any, error) {
			cp := in
			cp.Values = values
			return BuildParameters(cp)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("widget %s: %w", widget, err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: widget %s formatter returned nothing", ErrNoCriteria, widget)
	}
	return out, nil
}
