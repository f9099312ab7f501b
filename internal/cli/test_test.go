package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testResponse struct {
	Status string     `json:"status"`
	Data   TestResult `json:"data"`
}

const passingScenario = `name: red
description: "single equality rule"
tree:
  type: group
  properties: {conjunction: AND}
  children1:
    r1:
      type: rule
      properties: {field: color, operator: equal, value: [red], valueSrc: [value], valueType: [text]}
expect:
  query:
    bool:
      must:
        - term: { color: red }
  warnings: []
`

const failingScenario = `name: wrong
description: "expects the wrong primitive"
tree:
  type: group
  children1:
    r1:
      type: rule
      properties: {field: color, operator: equal, value: [red], valueSrc: [value], valueType: [text]}
expect:
  query:
    bool:
      must:
        - match: { color: red }
`

func TestTest_Scenarios(t *testing.T) {
	stdout, _, err := executeCommand(t, "test", scenariosDir)

	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "✓ negated_or")
	assert.Contains(t, stdout, "✓ price_between")
	assert.Contains(t, stdout, "0 failed")
}

func TestTest_JSON(t *testing.T) {
	stdout, _, err := executeCommand(t, "test", scenariosDir, "--format", "json")
	require.NoError(t, err)

	var resp testResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, resp.Data.Total, resp.Data.Passed)
	assert.Zero(t, resp.Data.Failed)
	for _, s := range resp.Data.Scenarios {
		assert.Len(t, s.Hash, 64, s.Name)
	}
}

func TestTest_Filter(t *testing.T) {
	stdout, _, err := executeCommand(t, "test", scenariosDir, "--filter", "price_*", "--format", "json")
	require.NoError(t, err)

	var resp testResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, "price_between", resp.Data.Scenarios[0].Name)
}

func TestTest_Failure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_red.yaml", passingScenario)
	writeFile(t, dir, "b_wrong.yaml", failingScenario)

	stdout, _, err := executeCommand(t, "test", dir)

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✓ red")
	assert.Contains(t, stdout, "✗ wrong")
	assert.Contains(t, stdout, "expect.query")
	assert.Contains(t, stdout, "1 passed, 1 failed, 2 total")
}

func TestTest_LoadError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "typo.yaml", "name: typo\ndescription: x\ntre: {}\n")

	stdout, _, err := executeCommand(t, "test", dir)

	require.Error(t, err)
	assert.Contains(t, stdout, "✗ typo.yaml")
	assert.Contains(t, stdout, "failed to load scenario")
}

func TestTest_Golden(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "red.yaml", passingScenario)
	golden := filepath.Join(dir, "golden", "red.golden")

	_, _, err := executeCommand(t, "test", dir, "--update")
	require.NoError(t, err)

	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Equal(t, `{"query":{"bool":{"must":[{"term":{"color":"red"}}]}},"warnings":[]}`, string(data))

	_, _, err = executeCommand(t, "test", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(golden, []byte(`{"query":null,"warnings":[]}`), 0o644))
	stdout, _, err := executeCommand(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, stdout, "golden file mismatch")
}

func TestTest_Empty(t *testing.T) {
	stdout, _, err := executeCommand(t, "test", t.TempDir())

	require.NoError(t, err)
	assert.Contains(t, stdout, "No scenarios found.")
}

func TestTest_MissingDirectory(t *testing.T) {
	_, _, err := executeCommand(t, "test", filepath.Join(t.TempDir(), "missing"))

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.yaml", "")
	writeFile(t, dir, "a.yml", "")
	writeFile(t, dir, "notes.txt", "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "golden"), 0o755))

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yml"), filepath.Join(dir, "b.yaml")}, files)

	_, err = findScenarioFiles(dir, "[")
	assert.Error(t, err)
}
