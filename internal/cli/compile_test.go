package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type compileResponse struct {
	Status string        `json:"status"`
	Data   CompileOutput `json:"data"`
	Error  *CLIError     `json:"error"`
}

func TestCompile_Text(t *testing.T) {
	tree := writeFile(t, t.TempDir(), "tree.json", colorTree)

	stdout, stderr, err := executeCommand(t, "compile", tree)

	require.NoError(t, err)
	assert.Contains(t, stdout, `"term"`)
	assert.Contains(t, stdout, `"color": "red"`)
	assert.Empty(t, stderr)
}

func TestCompile_JSON(t *testing.T) {
	tree := writeFile(t, t.TempDir(), "tree.json", colorTree)

	stdout, _, err := executeCommand(t, "compile", tree, "--format", "json")
	require.NoError(t, err)

	var resp compileResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.JSONEq(t, `{"bool":{"must":[{"term":{"color":"red"}}]}}`, string(resp.Data.Query))
	assert.Empty(t, resp.Data.Warnings)
	assert.Len(t, resp.Data.Hash, 64)
}

func TestCompile_SameTreeSameHash(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.json", colorTree)
	b := writeFile(t, dir, "b.yaml", `
type: group
properties: {conjunction: AND}
children1:
  other-id:
    type: rule
    properties: {field: color, operator: equal, value: [red], valueSrc: [value], valueType: [text]}
`)

	var hashes []string
	for _, tree := range []string{a, b} {
		stdout, _, err := executeCommand(t, "compile", tree, "--format", "json")
		require.NoError(t, err)
		var resp compileResponse
		require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
		hashes = append(hashes, resp.Data.Hash)
	}
	assert.Equal(t, hashes[0], hashes[1])
}

func TestCompile_WithConfig(t *testing.T) {
	stdout, _, err := executeCommand(t, "compile",
		filepath.Join(testTreesDir, "catalog.yaml"),
		"--config", testConfigDir,
		"--format", "json")
	require.NoError(t, err)

	var resp compileResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Contains(t, string(resp.Data.Query), "sku.raw")
	assert.Contains(t, string(resp.Data.Query), "brand.keyword")
	assert.Empty(t, resp.Data.Warnings)
}

func TestCompile_OutputFile(t *testing.T) {
	dir := t.TempDir()
	tree := writeFile(t, dir, "tree.json", colorTree)
	out := filepath.Join(dir, "query.json")

	stdout, _, err := executeCommand(t, "compile", tree, "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ Wrote "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"bool":{"must":[{"term":{"color":"red"}}]}}`, string(data))
}

func TestCompile_WarningsReported(t *testing.T) {
	tree := writeFile(t, t.TempDir(), "tree.json", funcTree)

	stdout, stderr, err := executeCommand(t, "compile", tree)

	require.NoError(t, err)
	assert.Equal(t, "null\n", stdout)
	assert.Contains(t, stderr, "func_value [r1]")
}

func TestCompile_Strict(t *testing.T) {
	tree := writeFile(t, t.TempDir(), "tree.json", funcTree)

	stdout, _, err := executeCommand(t, "compile", tree, "--strict", "--format", "json")

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp compileResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeWarnings, resp.Error.Code)
}

func TestCompile_StrictWithoutWarnings(t *testing.T) {
	tree := writeFile(t, t.TempDir(), "tree.json", colorTree)

	_, _, err := executeCommand(t, "compile", tree, "--strict")

	assert.NoError(t, err)
}

func TestCompile_Errors(t *testing.T) {
	dir := t.TempDir()
	malformed := writeFile(t, dir, "bad.json", `{"type":"group","children1":[1,2]}`)
	tree := writeFile(t, dir, "tree.json", colorTree)

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"missing tree", []string{"compile", filepath.Join(dir, "nope.json")}, ErrCodeTreeRead},
		{"malformed tree", []string{"compile", malformed}, ErrCodeTreeParse},
		{"missing config", []string{"compile", tree, "--config", filepath.Join(dir, "nope.cue")}, "E001"},
		{"unwritable output", []string{"compile", tree, "-o", filepath.Join(dir, "no", "such", "dir.json")}, ErrCodeWriteFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := executeCommand(t, append(tt.args, "--format", "json")...)

			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestCompile_RequiresOneArg(t *testing.T) {
	_, _, err := executeCommand(t, "compile")
	assert.Error(t, err)
}
