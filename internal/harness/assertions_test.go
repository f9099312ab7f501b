package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchSubset(t *testing.T) {
	tests := []struct {
		name     string
		actual   any
		expected any
		want     bool
	}{
		{"equal scalars", "a", "a", true},
		{"different scalars", "a", "b", false},
		{"numbers", float64(3), float64(3), true},
		{"extra keys ignored", map[string]any{"a": 1.0, "b": 2.0}, map[string]any{"a": 1.0}, true},
		{"missing key", map[string]any{"a": 1.0}, map[string]any{"b": 1.0}, false},
		{"nested", map[string]any{"a": map[string]any{"b": "c", "d": "e"}}, map[string]any{"a": map[string]any{"b": "c"}}, true},
		{"list same length", []any{map[string]any{"a": 1.0, "x": 0.0}}, []any{map[string]any{"a": 1.0}}, true},
		{"list length differs", []any{1.0, 2.0}, []any{1.0}, false},
		{"type mismatch", []any{}, map[string]any{}, false},
		{"null", nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchSubset(tt.actual, tt.expected))
		})
	}
}

func TestToGeneric_NormalizesNumbers(t *testing.T) {
	got, err := toGeneric(map[string]any{"gte": 10, "lte": int64(20)})
	assert.NoError(t, err)
	assert.Equal(t, map[string]any{"gte": float64(10), "lte": float64(20)}, got)
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertCriterionCount,
		Expected: "2 term criteria",
		Actual:   "1 term criteria",
		Query:    `{"term":{"a":"b"}}`,
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: criterion_count")
	assert.Contains(t, msg, "Expected: 2 term criteria")
	assert.Contains(t, msg, "Actual: 1 term criteria")
	assert.Contains(t, msg, `Compiled query:`)
}

func TestEvaluateAssertions_UnknownType(t *testing.T) {
	errs := EvaluateAssertions(NewResult("x"), []Assertion{{Type: "bogus"}})
	assert.Equal(t, []string{`assertion[0]: unknown assertion type "bogus"`}, errs)
}

func TestAssertions_AbsentQuery(t *testing.T) {
	result := NewResult("empty")
	result.Query = []byte("null")

	assert.Error(t, assertQueryContains(result, Assertion{Type: AssertQueryContains, Primitive: "term"}))
	assert.NoError(t, assertCriterionCount(result, Assertion{Type: AssertCriterionCount, Primitive: "term", Count: 0}))
}
