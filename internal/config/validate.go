package config

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/roach88/qbdsl/internal/querydsl"
)

// Validation error codes (E200-E299)
const (
	ErrUnknownInverse     = "E201" // inverse names an operator that does not exist
	ErrAsymmetricInverse  = "E202" // inverse of the inverse is not the operator itself
	ErrNoPrimitive        = "E203" // operator has no primitive selector
	ErrUnknownPrimitive   = "E204" // selector yields an unknown primitive
	ErrScriptWithoutFunc  = "E205" // script primitive without a script function
	ErrInvalidOccurrence  = "E206" // occurrence is not must, should or must_not
	ErrFieldTypeRequired  = "E207" // field declares neither type nor widget
	ErrUnknownFieldWidget = "E208" // field names a widget that is not configured
)

// ValidationError is a single configuration problem.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks cfg for inconsistencies. It returns all problems found,
// sorted by field then code, and never fails fast.
func Validate(cfg *Config) []ValidationError {
	var errs []ValidationError

	for _, name := range sortedKeys(cfg.Operators) {
		op := cfg.Operators[name]
		if op == nil {
			continue
		}
		errs = append(errs, validateOperator(cfg, name, op)...)
	}

	for _, name := range sortedKeys(cfg.Fields) {
		fc := cfg.Fields[name]
		path := "fields." + name
		if fc.Type == "" && fc.Widget == "" {
			errs = append(errs, ValidationError{
				Field:   path,
				Message: "field must declare a type or a widget",
				Code:    ErrFieldTypeRequired,
			})
		}
		if fc.Widget != "" {
			if _, ok := cfg.Widget(fc.Widget); !ok {
				errs = append(errs, ValidationError{
					Field:   path + ".widget",
					Message: fmt.Sprintf("widget %q is not configured", fc.Widget),
					Code:    ErrUnknownFieldWidget,
				})
			}
		}
	}

	sort.SliceStable(errs, func(i, j int) bool {
		if errs[i].Field != errs[j].Field {
			return errs[i].Field < errs[j].Field
		}
		return errs[i].Code < errs[j].Code
	})
	return errs
}

func validateOperator(cfg *Config, name string, op *OperatorBehavior) []ValidationError {
	var errs []ValidationError
	path := "operators." + name

	if op.Inverse != "" {
		inv, ok := cfg.Operator(op.Inverse)
		switch {
		case !ok:
			errs = append(errs, ValidationError{
				Field:   path + ".inverse",
				Message: fmt.Sprintf("inverse operator %q is not configured", op.Inverse),
				Code:    ErrUnknownInverse,
			})
		case inv.Inverse != name:
			errs = append(errs, ValidationError{
				Field:   path + ".inverse",
				Message: fmt.Sprintf("inverse of %q is %q, not %q", op.Inverse, inv.Inverse, name),
				Code:    ErrAsymmetricInverse,
			})
		}
	}

	switch op.Occurrence {
	case "", querydsl.Must, querydsl.Should, querydsl.MustNot:
	default:
		errs = append(errs, ValidationError{
			Field:   path + ".occurrence",
			Message: fmt.Sprintf("occurrence %q must be must, should or must_not", op.Occurrence),
			Code:    ErrInvalidOccurrence,
		})
	}

	if op.Primitive == nil {
		errs = append(errs, ValidationError{
			Field:   path + ".primitive",
			Message: "operator has no primitive",
			Code:    ErrNoPrimitive,
		})
		return errs
	}

	for _, p := range selectablePrimitives(cfg, op.Primitive) {
		if _, err := querydsl.ParsePrimitive(string(p)); err != nil {
			errs = append(errs, ValidationError{
				Field:   path + ".primitive",
				Message: err.Error(),
				Code:    ErrUnknownPrimitive,
			})
			continue
		}
		if p == querydsl.Script && op.Script == nil {
			errs = append(errs, ValidationError{
				Field:   path + ".script",
				Message: "script primitive requires a script",
				Code:    ErrScriptWithoutFunc,
			})
		}
	}
	return errs
}

// selectablePrimitives lists the distinct primitives a selector can yield
// for the configured widgets, in widget name order.
func selectablePrimitives(cfg *Config, sel PrimitiveSelector) []querydsl.Primitive {
	var out []querydsl.Primitive
	seen := map[querydsl.Primitive]bool{}
	add := func(p querydsl.Primitive, ok bool) {
		if ok && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	switch s := sel.(type) {
	case Static:
		add(s.Select(""))
	case ByWidget:
		for _, w := range sortedKeys(s.Widgets) {
			add(s.Select(w))
		}
		add(s.Default, s.Default != "")
	default:
		for _, w := range sortedKeys(cfg.Widgets) {
			add(sel.Select(w))
		}
	}
	return out
}

// AsError folds validation errors into one error, or nil when errs is
// empty.
func AsError(errs []ValidationError) error {
	var result *multierror.Error
	for _, e := range errs {
		result = multierror.Append(result, e)
	}
	return result.ErrorOrNil()
}
