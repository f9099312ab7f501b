package config

import (
	"github.com/roach88/qbdsl/internal/querydsl"
)

// Widget names of the basic rule-builder configuration.
const (
	WidgetText            = "text"
	WidgetTextarea        = "textarea"
	WidgetNumber          = "number"
	WidgetSlider          = "slider"
	WidgetBoolean         = "boolean"
	WidgetDate            = "date"
	WidgetTime            = "time"
	WidgetDatetime        = "datetime"
	WidgetSelect          = "select"
	WidgetMultiselect     = "multiselect"
	WidgetTreeselect      = "treeselect"
	WidgetTreeMultiselect = "treemultiselect"
	WidgetGeo             = "geo"
	WidgetField           = "field"
)

// equalityPrimitive is shared by equal and not_equal: exact match for
// text-like widgets, full-text match for numbers, a day range for dates.
func equalityPrimitive() ByWidget {
	return ByWidget{
		Widgets: map[string]querydsl.Primitive{
			WidgetNumber:   querydsl.Match,
			WidgetSlider:   querydsl.Match,
			WidgetBoolean:  querydsl.Term,
			WidgetDate:     querydsl.Range,
			WidgetTime:     querydsl.Range,
			WidgetDatetime: querydsl.Range,
		},
		Default: querydsl.Term,
	}
}

// Default returns the built-in configuration: no fields, the basic
// operator set and the basic widgets without formatters. Each call returns
// a fresh Config.
func Default() *Config {
	ops := []*OperatorBehavior{
		{Name: "equal", Inverse: "not_equal", Primitive: equalityPrimitive()},
		{Name: "not_equal", Inverse: "equal", Occurrence: querydsl.MustNot, Primitive: equalityPrimitive()},

		{Name: "select_equals", Inverse: "select_not_equals", Primitive: Static(querydsl.Term)},
		{Name: "select_not_equals", Inverse: "select_equals", Occurrence: querydsl.MustNot, Primitive: Static(querydsl.Term)},
		{Name: "multiselect_equals", Inverse: "multiselect_not_equals", Primitive: Static(querydsl.Term)},
		{Name: "multiselect_not_equals", Inverse: "multiselect_equals", Occurrence: querydsl.MustNot, Primitive: Static(querydsl.Term)},

		{Name: "less", Inverse: "greater_or_equal", Primitive: Static(querydsl.Range)},
		{Name: "less_or_equal", Inverse: "greater", Primitive: Static(querydsl.Range)},
		{Name: "greater", Inverse: "less_or_equal", Primitive: Static(querydsl.Range)},
		{Name: "greater_or_equal", Inverse: "less", Primitive: Static(querydsl.Range)},
		{Name: "between", Inverse: "not_between", Primitive: Static(querydsl.Range), Values: ValuesRange},
		{Name: "not_between", Inverse: "between", Occurrence: querydsl.MustNot, Primitive: Static(querydsl.Range), Values: ValuesRange},
		{Name: "on_date", Inverse: "not_on_date", Primitive: Static(querydsl.Range)},
		{Name: "not_on_date", Inverse: "on_date", Occurrence: querydsl.MustNot, Primitive: Static(querydsl.Range)},

		{Name: "like", Inverse: "not_like", Primitive: Static(querydsl.Match)},
		{Name: "not_like", Inverse: "like", Occurrence: querydsl.MustNot, Primitive: Static(querydsl.Match)},
		{Name: "contains", Inverse: "not_contains", Primitive: Static(querydsl.Wildcard)},
		{Name: "not_contains", Inverse: "contains", Occurrence: querydsl.MustNot, Primitive: Static(querydsl.Wildcard)},
		{Name: "regexp", Inverse: "not_regexp", Primitive: Static(querydsl.Regexp)},
		{Name: "not_regexp", Inverse: "regexp", Occurrence: querydsl.MustNot, Primitive: Static(querydsl.Regexp)},

		{Name: "is_empty", Inverse: "is_not_empty", Occurrence: querydsl.MustNot, Primitive: Static(querydsl.Exists), Values: ValuesNone},
		{Name: "is_not_empty", Inverse: "is_empty", Primitive: Static(querydsl.Exists), Values: ValuesNone},

		{Name: "within_bounding_box", Inverse: "not_within_bounding_box", Primitive: Static(querydsl.GeoBoundingBox), Values: ValuesSlot},
		{Name: "not_within_bounding_box", Inverse: "within_bounding_box", Occurrence: querydsl.MustNot, Primitive: Static(querydsl.GeoBoundingBox), Values: ValuesSlot},
	}

	widgets := []string{
		WidgetText, WidgetTextarea, WidgetNumber, WidgetSlider, WidgetBoolean,
		WidgetDate, WidgetTime, WidgetDatetime, WidgetSelect, WidgetMultiselect,
		WidgetTreeselect, WidgetTreeMultiselect, WidgetGeo, WidgetField,
	}

	cfg := &Config{
		Fields:    map[string]FieldConfig{},
		Operators: make(map[string]*OperatorBehavior, len(ops)),
		Widgets:   make(map[string]*WidgetBehavior, len(widgets)),
		Resolver:  DefaultResolver{},
	}
	for _, op := range ops {
		cfg.Operators[op.Name] = op
	}
	for _, name := range widgets {
		cfg.Widgets[name] = &WidgetBehavior{Name: name}
	}
	return cfg
}
