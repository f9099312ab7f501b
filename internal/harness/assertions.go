package harness

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/qbdsl/internal/querydsl"
)

// AssertionError is returned when an assertion fails.
// It includes the compiled query to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Query    string // Compiled query for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Query != "" {
		fmt.Fprintf(&buf, "\nCompiled query:\n  %s\n", e.Query)
	}

	return buf.String()
}

// checkExpect compares the result against the scenario's expectation.
func checkExpect(result *Result, expect Expect) []string {
	var errs []string

	absent := result.compiled == nil || result.compiled.Absent()
	if expect.Absent && !absent {
		errs = append(errs, (&AssertionError{
			Type:     "expect.absent",
			Expected: "no query",
			Actual:   "a query was produced",
			Query:    string(result.Query),
		}).Error())
	}

	if expect.Query != nil {
		expected, err := toGeneric(expect.Query)
		if err != nil {
			errs = append(errs, fmt.Sprintf("expect.query: %v", err))
		} else {
			var actual any
			if err := json.Unmarshal(result.Query, &actual); err != nil {
				errs = append(errs, fmt.Sprintf("expect.query: %v", err))
			} else if !matchSubset(actual, expected) {
				want, _ := json.Marshal(expected)
				errs = append(errs, (&AssertionError{
					Type:     "expect.query",
					Expected: string(want),
					Actual:   "compiled query does not contain it",
					Query:    string(result.Query),
				}).Error())
			}
		}
	}

	if expect.Warnings != nil {
		got := result.Warnings.Codes()
		if !reflect.DeepEqual(got, expect.Warnings) {
			errs = append(errs, (&AssertionError{
				Type:     "expect.warnings",
				Expected: fmt.Sprintf("%v", expect.Warnings),
				Actual:   fmt.Sprintf("%v", got),
			}).Error())
		}
	}

	return errs
}

// assertQueryContains checks that some criterion uses the primitive and,
// when given, the field and a body containing assertion.Body.
func assertQueryContains(result *Result, assertion Assertion) error {
	primitive, _ := querydsl.ParsePrimitive(assertion.Primitive)
	expectedBody, err := toGeneric(assertion.Body)
	if err != nil {
		return fmt.Errorf("query_contains: %w", err)
	}

	found := false
	eachCriterion(result, func(c *querydsl.Criterion) {
		if found || c.Primitive != primitive {
			return
		}
		if assertion.Field != "" && c.Field != assertion.Field {
			return
		}
		if assertion.Body != nil {
			body, err := toGeneric(c.Body)
			if err != nil || !matchSubset(body, expectedBody) {
				return
			}
		}
		found = true
	})
	if found {
		return nil
	}

	expected := string(primitive)
	if assertion.Field != "" {
		expected += " on " + assertion.Field
	}
	if assertion.Body != nil {
		b, _ := json.Marshal(expectedBody)
		expected += " with body " + string(b)
	}
	return &AssertionError{
		Type:     AssertQueryContains,
		Expected: expected,
		Actual:   "not found in query",
		Query:    string(result.Query),
	}
}

// assertCriterionCount checks that exactly Count criteria use the primitive.
func assertCriterionCount(result *Result, assertion Assertion) error {
	primitive, _ := querydsl.ParsePrimitive(assertion.Primitive)

	count := 0
	eachCriterion(result, func(c *querydsl.Criterion) {
		if c.Primitive == primitive {
			count++
		}
	})
	if count == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertCriterionCount,
		Expected: fmt.Sprintf("%d %s criteria", assertion.Count, primitive),
		Actual:   fmt.Sprintf("%d %s criteria", count, primitive),
		Query:    string(result.Query),
	}
}

// assertWarning checks that a warning with the code (and field) was reported.
func assertWarning(result *Result, assertion Assertion) error {
	for _, w := range result.Warnings {
		if w.Code == assertion.Code && (assertion.Field == "" || w.Field == assertion.Field) {
			return nil
		}
	}
	expected := "warning " + assertion.Code
	if assertion.Field != "" {
		expected += " for field " + assertion.Field
	}
	return &AssertionError{
		Type:     AssertWarning,
		Expected: expected,
		Actual:   fmt.Sprintf("warnings %v", result.Warnings.Codes()),
	}
}

func assertHash(result *Result, assertion Assertion) error {
	if strings.EqualFold(result.Hash, assertion.Hash) {
		return nil
	}
	return &AssertionError{
		Type:     AssertHash,
		Expected: assertion.Hash,
		Actual:   result.Hash,
		Query:    string(result.Query),
	}
}

func eachCriterion(result *Result, fn func(*querydsl.Criterion)) {
	if result.compiled == nil {
		return
	}
	querydsl.Walk(result.compiled.Query, func(c querydsl.Clause) bool {
		if crit, ok := c.(*querydsl.Criterion); ok {
			fn(crit)
		}
		return true
	})
}

// toGeneric normalizes a value through JSON so YAML-decoded expectations
// and compiled bodies compare with the same number and map types.
func toGeneric(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// matchSubset reports whether actual contains expected. Extra object keys
// in actual are ignored; lists must have the same length.
func matchSubset(actual, expected any) bool {
	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			return false
		}
		for key, expectedVal := range exp {
			actualVal, exists := act[key]
			if !exists || !matchSubset(actualVal, expectedVal) {
				return false
			}
		}
		return true
	case []any:
		act, ok := actual.([]any)
		if !ok || len(act) != len(exp) {
			return false
		}
		for i := range exp {
			if !matchSubset(act[i], exp[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(actual, expected)
	}
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertQueryContains:
			err = assertQueryContains(result, assertion)
		case AssertCriterionCount:
			err = assertCriterionCount(result, assertion)
		case AssertWarning:
			err = assertWarning(result, assertion)
		case AssertHash:
			err = assertHash(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
