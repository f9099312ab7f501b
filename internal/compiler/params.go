package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/qbdsl/internal/config"
	"github.com/roach88/qbdsl/internal/querydsl"
)

// ParamInput is the input to BuildParameters for one criterion.
type ParamInput struct {
	Primitive querydsl.Primitive
	Values    []any
	Operator  string
	Field     string // query field, after text/keyword substitution
	Behavior  *config.OperatorBehavior
}

// BuildParameters produces the built-in criteria payload of a primitive.
//
//	term, match  {field: v}
//	range        {field: {gte, lte}} for two values, else by operator
//	wildcard     {field: {value: "*v*"}}
//	regexp       {field: {value: v}}
//	geo          {field: {top_left: {lat, lon}, bottom_right: {lat, lon}}}
//	exists       {field: field}
//	script       {script: <operator script output>}
//
// An error means no criterion can be produced for this input.
func BuildParameters(in ParamInput) (any, error) {
	switch in.Primitive {
	case querydsl.Term, querydsl.Match:
		v, err := firstValue(in)
		if err != nil {
			return nil, err
		}
		return querydsl.Object{in.Field: v}, nil

	case querydsl.Range:
		return buildRange(in)

	case querydsl.Wildcard:
		v, err := firstValue(in)
		if err != nil {
			return nil, err
		}
		return querydsl.Object{in.Field: querydsl.Object{"value": fmt.Sprintf("*%v*", v)}}, nil

	case querydsl.Regexp:
		v, err := firstValue(in)
		if err != nil {
			return nil, err
		}
		return querydsl.Object{in.Field: querydsl.Object{"value": v}}, nil

	case querydsl.GeoBoundingBox:
		if len(in.Values) == 0 || in.Values[0] == nil {
			return nil, fmt.Errorf("%w: no bounding box for %s", ErrNoCriteria, in.Field)
		}
		box, err := parseBoundingBox(in.Values[0])
		if err != nil {
			return nil, err
		}
		return querydsl.Object{in.Field: box}, nil

	case querydsl.Exists:
		return querydsl.Object{"field": in.Field}, nil

	case querydsl.Script:
		if in.Behavior == nil || in.Behavior.Script == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoScript, in.Operator)
		}
		var v any
		if len(in.Values) > 0 {
			v = in.Values[0]
		}
		script, err := in.Behavior.Script(in.Field, v)
		if err != nil {
			return nil, fmt.Errorf("script for %s: %w", in.Operator, err)
		}
		return querydsl.Object{"script": script}, nil

	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownPrimitive, in.Primitive)
	}
}

func firstValue(in ParamInput) (any, error) {
	if len(in.Values) == 0 || in.Values[0] == nil {
		return nil, fmt.Errorf("%w: no value for %s", ErrNoCriteria, in.Field)
	}
	return in.Values[0], nil
}

// buildRange handles both range forms. Two values make an inclusive
// between, which only operators declared with config.ValuesRange may ask
// for. A single value is bounded according to the operator.
func buildRange(in ParamInput) (any, error) {
	switch {
	case len(in.Values) > 1:
		if in.Behavior == nil || in.Behavior.Values != config.ValuesRange {
			return nil, fmt.Errorf("%w: %s got %d values", ErrValueCount, in.Operator, len(in.Values))
		}
		if len(in.Values) > 2 {
			return nil, fmt.Errorf("%w: %s takes 2 values, got %d", ErrValueCount, in.Operator, len(in.Values))
		}
		return querydsl.Object{in.Field: querydsl.Object{"gte": in.Values[0], "lte": in.Values[1]}}, nil
	case len(in.Values) == 0:
		return nil, fmt.Errorf("%w: no value for %s", ErrNoCriteria, in.Field)
	}

	v := in.Values[0]
	var bounds querydsl.Object
	switch in.Operator {
	case "equal", "select_equals", "on_date", "not_equal", "select_not_equals", "not_on_date":
		// Whole day containing v, in date math.
		bounds = querydsl.Object{"gte": fmt.Sprintf("%v||/d", v), "lte": fmt.Sprintf("%v||+1d", v)}
	case "less_or_equal":
		bounds = querydsl.Object{"lte": v}
	case "greater_or_equal":
		bounds = querydsl.Object{"gte": v}
	case "less":
		bounds = querydsl.Object{"lt": v}
	case "greater":
		// Inclusive, like greater_or_equal.
		bounds = querydsl.Object{"gte": v}
	default:
		return nil, fmt.Errorf("%w: range has no bounds for operator %s", ErrNoCriteria, in.Operator)
	}
	return querydsl.Object{in.Field: bounds}, nil
}

// parseBoundingBox reads "top_lat,top_lon,bottom_lat,bottom_lon" or a list
// of four numbers.
func parseBoundingBox(v any) (querydsl.Object, error) {
	var coords [4]float64

	switch val := v.(type) {
	case string:
		parts := strings.Split(val, ",")
		if len(parts) != 4 {
			return nil, fmt.Errorf("%w: want 4 coordinates, got %d in %q", ErrInvalidGeoPoint, len(parts), val)
		}
		for i, part := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: coordinate %d of %q: %v", ErrInvalidGeoPoint, i, val, err)
			}
			coords[i] = f
		}
	case []any:
		if len(val) != 4 {
			return nil, fmt.Errorf("%w: want 4 coordinates, got %d", ErrInvalidGeoPoint, len(val))
		}
		for i, item := range val {
			f, ok := toFloat(item)
			if !ok {
				return nil, fmt.Errorf("%w: coordinate %d is %T", ErrInvalidGeoPoint, i, item)
			}
			coords[i] = f
		}
	default:
		return nil, fmt.Errorf("%w: unsupported value %T", ErrInvalidGeoPoint, v)
	}

	return querydsl.Object{
		"top_left":     querydsl.Object{"lat": coords[0], "lon": coords[1]},
		"bottom_right": querydsl.Object{"lat": coords[2], "lon": coords[3]},
	}, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
