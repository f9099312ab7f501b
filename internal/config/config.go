package config

import (
	"fmt"
	"maps"
	"sort"
	"strings"

	"github.com/roach88/qbdsl/internal/querydsl"
)

// Config is the complete configuration consumed by the compiler.
//
// A Config is read-only once handed to a compiler; concurrent compiles share
// it without locking.
type Config struct {
	Fields    map[string]FieldConfig
	Operators map[string]*OperatorBehavior
	Widgets   map[string]*WidgetBehavior
	Resolver  WidgetResolver
}

// FieldConfig describes one field of the searchable document.
type FieldConfig struct {
	Type         string `json:"type"`
	Widget       string `json:"widget,omitempty"`
	TextField    string `json:"text_field,omitempty"`    // alternate field for full-text matching
	KeywordField string `json:"keyword_field,omitempty"` // alternate field for exact and pattern matching
}

// ValueMode tells the compiler how an operator consumes the rule's value
// slots.
type ValueMode int

const (
	// ValuesEach emits one criterion per value slot; a list value (multiselect)
	// emits one criterion per element.
	ValuesEach ValueMode = iota
	// ValuesRange passes all slots to a single criterion (between).
	ValuesRange
	// ValuesNone emits a single criterion without reading any value.
	ValuesNone
	// ValuesSlot emits one criterion per value slot, passing list values
	// whole (bounding boxes given as four numbers).
	ValuesSlot
)

func (m ValueMode) String() string {
	switch m {
	case ValuesEach:
		return "each"
	case ValuesRange:
		return "range"
	case ValuesNone:
		return "none"
	case ValuesSlot:
		return "slot"
	default:
		return fmt.Sprintf("ValueMode(%d)", int(m))
	}
}

// ParseValueMode accepts "each", "range", "none" and "slot". The empty string is
// ValuesEach.
func ParseValueMode(s string) (ValueMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "each":
		return ValuesEach, nil
	case "range":
		return ValuesRange, nil
	case "none":
		return ValuesNone, nil
	case "slot":
		return ValuesSlot, nil
	default:
		return 0, fmt.Errorf("unknown value mode %q", s)
	}
}

// PrimitiveSelector picks the query primitive for an operator. Selectors
// must be pure: the same widget always yields the same primitive.
type PrimitiveSelector interface {
	Select(widget string) (querydsl.Primitive, bool)
}

// Static always selects the same primitive.
type Static querydsl.Primitive

func (s Static) Select(string) (querydsl.Primitive, bool) {
	return querydsl.Primitive(s), s != ""
}

// ByWidget selects a primitive from the widget name, falling back to
// Default. An empty Default means unknown widgets have no primitive.
type ByWidget struct {
	Widgets map[string]querydsl.Primitive
	Default querydsl.Primitive
}

func (b ByWidget) Select(widget string) (querydsl.Primitive, bool) {
	if p, ok := b.Widgets[widget]; ok && p != "" {
		return p, true
	}
	return b.Default, b.Default != ""
}

// ScriptFunc produces the payload of a script criterion for a field and
// one value.
type ScriptFunc func(field string, value any) (any, error)

// OperatorBehavior is everything the compiler needs to know about one
// operator.
type OperatorBehavior struct {
	Name string
	// Inverse names the operator that matches exactly the complement. Used
	// when a negation is pushed down onto a rule.
	Inverse string
	// Occurrence is the clause kind a criterion of this operator is emitted
	// under when not negated. Empty means must.
	Occurrence querydsl.ClauseKind
	Primitive  PrimitiveSelector
	Values     ValueMode
	Script     ScriptFunc
}

// ClauseKind returns the effective occurrence, defaulting to must.
func (o *OperatorBehavior) ClauseKind() querydsl.ClauseKind {
	if o.Occurrence == "" {
		return querydsl.Must
	}
	return o.Occurrence
}

// FormatInput is passed to a widget formatter.
type FormatInput struct {
	Primitive  querydsl.Primitive
	Values     []any
	Operator   string
	Field      string
	QueryField string // Field after text/keyword substitution
	Config     *Config
	// Default runs the built-in parameter builder for the same primitive,
	// operator and field with the given values.
	Default func(values []any) (any, error)
}

// FormatFunc produces the criteria payload for one criterion. Its result
// is used verbatim.
type FormatFunc func(FormatInput) (any, error)

// WidgetBehavior describes one widget.
type WidgetBehavior struct {
	Name      string
	Formatter FormatFunc
}

// Override returns the widget's custom formatter, if any.
func (w *WidgetBehavior) Override() (FormatFunc, bool) {
	if w == nil || w.Formatter == nil {
		return nil, false
	}
	return w.Formatter, true
}

// WidgetQuery is the input to widget resolution for one value slot.
type WidgetQuery struct {
	Field       string
	FieldConfig FieldConfig
	KnownField  bool
	Operator    string
	ValueSrc    string
	ValueType   string
}

// WidgetResolver maps a field, operator and value source to a widget name.
// An empty result means no widget could be resolved.
type WidgetResolver interface {
	ResolveWidget(q WidgetQuery) string
}

// WidgetResolverFunc adapts a function to WidgetResolver.
type WidgetResolverFunc func(q WidgetQuery) string

func (f WidgetResolverFunc) ResolveWidget(q WidgetQuery) string { return f(q) }

// DefaultResolver resolves widgets the way the rule builder does for a
// plain configuration: a field-sourced value uses the "field" widget, then
// the field's declared widget, then its type, then the rule's own
// valueType hint.
type DefaultResolver struct{}

func (DefaultResolver) ResolveWidget(q WidgetQuery) string {
	if q.ValueSrc == "field" {
		return "field"
	}
	if q.FieldConfig.Widget != "" {
		return q.FieldConfig.Widget
	}
	if q.FieldConfig.Type != "" {
		return q.FieldConfig.Type
	}
	return q.ValueType
}

// Field returns the configuration of a field.
func (c *Config) Field(name string) (FieldConfig, bool) {
	f, ok := c.Fields[name]
	return f, ok
}

// Operator returns the behavior of an operator.
func (c *Config) Operator(name string) (*OperatorBehavior, bool) {
	op, ok := c.Operators[name]
	return op, ok && op != nil
}

// Widget returns the behavior of a widget.
func (c *Config) Widget(name string) (*WidgetBehavior, bool) {
	w, ok := c.Widgets[name]
	return w, ok && w != nil
}

// WidgetResolver returns the configured resolver or DefaultResolver.
func (c *Config) WidgetResolver() WidgetResolver {
	if c.Resolver == nil {
		return DefaultResolver{}
	}
	return c.Resolver
}

// Clone returns a copy whose maps can be modified without touching c.
// Behavior records are copied too; functions are shared.
func (c *Config) Clone() *Config {
	out := &Config{
		Fields:    maps.Clone(c.Fields),
		Operators: make(map[string]*OperatorBehavior, len(c.Operators)),
		Widgets:   make(map[string]*WidgetBehavior, len(c.Widgets)),
		Resolver:  c.Resolver,
	}
	if out.Fields == nil {
		out.Fields = map[string]FieldConfig{}
	}
	for name, op := range c.Operators {
		if op == nil {
			continue
		}
		cp := *op
		out.Operators[name] = &cp
	}
	for name, w := range c.Widgets {
		if w == nil {
			continue
		}
		cp := *w
		out.Widgets[name] = &cp
	}
	return out
}

// OperatorNames returns the configured operator names, sorted.
func (c *Config) OperatorNames() []string {
	names := make([]string, 0, len(c.Operators))
	for name := range c.Operators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
