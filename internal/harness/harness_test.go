package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qbdsl/internal/querydsl"
)

func TestRun_Scenarios(t *testing.T) {
	scenarios, err := LoadScenarios(scenariosDir)
	require.NoError(t, err)

	h := New(nil)
	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := h.Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRunWithGolden_Scenarios(t *testing.T) {
	scenarios, err := LoadScenarios(scenariosDir)
	require.NoError(t, err)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass)
		})
	}
}

func TestRun_ResultFields(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario), "")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)

	assert.Equal(t, "minimal", result.Scenario)
	assert.JSONEq(t, `{"bool":{"must":[{"term":{"color":"red"}}]}}`, string(result.Query))
	assert.Equal(t, querydsl.MustHash(result.Compiled().Query), result.Hash)
	assert.NotNil(t, result.Warnings)
	assert.Empty(t, result.Warnings)
}

func TestRun_FailedExpectations(t *testing.T) {
	data := `
name: failing
description: "every check is wrong"
tree:
  type: group
  children1:
    r1:
      type: rule
      properties: { field: color, operator: equal, value: [red], valueType: [text] }
expect:
  absent: true
  warnings: [unknown_operator]
assertions:
  - type: query_contains
    primitive: wildcard
  - type: criterion_count
    primitive: term
    count: 3
  - type: warning
    code: func_value
  - type: hash
    hash: "0000000000000000000000000000000000000000000000000000000000000000"
`
	s, err := ParseScenario([]byte(data), "")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 6)
	assert.Contains(t, result.Errors[0], "expect.absent")
	assert.Contains(t, result.Errors[1], "expect.warnings")
	assert.Contains(t, result.Errors[2], "Assertion failed: query_contains")
	assert.Contains(t, result.Errors[3], "Expected: 3 term criteria")
	assert.Contains(t, result.Errors[3], "Actual: 1 term criteria")
	assert.Contains(t, result.Errors[4], "Expected: warning func_value")
	assert.Contains(t, result.Errors[5], "Assertion failed: hash")
}

func TestRun_QueryMismatch(t *testing.T) {
	data := `
name: mismatch
description: "subset does not match"
tree:
  type: group
  children1:
    r1:
      type: rule
      properties: { field: color, operator: equal, value: [red], valueType: [text] }
expect:
  query:
    bool:
      must:
        - term: { color: blue }
`
	s, err := ParseScenario([]byte(data), "")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expect.query")
	assert.Contains(t, result.Errors[0], `"blue"`)
}

func TestRun_BadTree(t *testing.T) {
	data := `
name: bad_tree
description: "unknown node type"
tree:
  type: widget
`
	s, err := ParseScenario([]byte(data), "")
	require.NoError(t, err)

	_, err = Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode tree")
}

func TestHarness_CachesConfig(t *testing.T) {
	h := New(nil)

	a, err := h.config("")
	require.NoError(t, err)
	b, err := h.config("")
	require.NoError(t, err)

	assert.Same(t, a, b)
}
