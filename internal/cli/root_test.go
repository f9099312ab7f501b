package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testConfigDir = "../../testdata/config/catalog"
	testTreesDir  = "../../testdata/trees"
	scenariosDir  = "../../testdata/scenarios"
)

const colorTree = `{"type":"group","properties":{"conjunction":"AND"},"children1":{
  "r1":{"type":"rule","properties":{"field":"color","operator":"equal","value":["red"],"valueSrc":["value"],"valueType":["text"]}}
}}`

const funcTree = `{"type":"group","children1":{
  "r1":{"type":"rule","properties":{"field":"name","operator":"equal","value":[{"func":"LOWER","args":{}}],"valueSrc":["func"],"valueType":["text"]}}
}}`

// executeCommand runs the root command with args and returns stdout and
// stderr.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	assert.Equal(t, "qbdsl", cmd.Use)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("verbose"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("format"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"compile", "validate", "test", "save", "list", "show", "delete", "serve"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	_, _, err := executeCommand(t, "validate", "--format", "xml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestIsValidFormat(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))
	assert.False(t, isValidFormat("yaml"))
	assert.False(t, isValidFormat(""))
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", errors.New("boom"), ExitFailure},
		{"exit error", NewExitError(ExitCommandError, "bad path"), ExitCommandError},
		{"wrapped exit error", WrapExitError(ExitFailure, "failed", errors.New("cause")), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestExitError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "writing output", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "writing output: disk full", err.Error())
	assert.Equal(t, "bad", NewExitError(ExitFailure, "bad").Error())
}
