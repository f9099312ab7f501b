package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/qbdsl/internal/querydsl"
)

// Formatters is the registry of named widget formatters a CUE
// configuration can refer to with `formatter: "<name>"`.
type Formatters map[string]FormatFunc

// BuiltinFormatters returns the formatters shipped with the compiler:
//
//   - lowercase: lower-cases string values, then formats as usual
//   - prefix: a wildcard anchored at the start, {field: {value: "v*"}}
//   - keyword: exact match against the keyword sub-field, {field.keyword: v}
func BuiltinFormatters() Formatters {
	return Formatters{
		"lowercase": lowercaseFormatter,
		"prefix":    prefixFormatter,
		"keyword":   keywordFormatter,
	}
}

// Names returns the registered formatter names, sorted.
func (f Formatters) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lowercaseFormatter(in FormatInput) (any, error) {
	lowered := make([]any, len(in.Values))
	for i, v := range in.Values {
		if s, ok := v.(string); ok {
			v = strings.ToLower(s)
		}
		lowered[i] = v
	}
	if in.Default == nil {
		return nil, fmt.Errorf("lowercase: no default formatter")
	}
	return in.Default(lowered)
}

func prefixFormatter(in FormatInput) (any, error) {
	if len(in.Values) == 0 || in.Values[0] == nil {
		return nil, fmt.Errorf("prefix: no value")
	}
	return querydsl.Object{
		in.QueryField: querydsl.Object{"value": fmt.Sprintf("%v*", in.Values[0])},
	}, nil
}

func keywordFormatter(in FormatInput) (any, error) {
	if len(in.Values) == 0 {
		return nil, fmt.Errorf("keyword: no value")
	}
	field := in.Field + ".keyword"
	if in.Config != nil {
		if fc, ok := in.Config.Field(in.Field); ok && fc.KeywordField != "" {
			field = fc.KeywordField
		}
	}
	return querydsl.Object{field: in.Values[0]}, nil
}
