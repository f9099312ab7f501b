package config

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Load error codes (E001-E009)
const (
	ErrCodeNotFound      = "E001" // path does not exist
	ErrCodeNoFiles       = "E002" // directory holds no CUE files
	ErrCodeLoadFailed    = "E003" // CUE instance could not be loaded
	ErrCodeBuildFailed   = "E004" // CUE value could not be built
	ErrCodeInvalidValue  = "E005" // a field, operator or widget entry is malformed
	ErrCodeUnknownFormat = "E006" // widget names an unregistered formatter
)

// LoadError is a configuration loading failure.
type LoadError struct {
	Code    string
	Path    string // config path inside the CUE value, e.g. operators.equal.primitive
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	prefix := e.Code
	if e.Path != "" {
		prefix = fmt.Sprintf("%s: %s", e.Code, e.Path)
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), prefix, e.Message)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(code, path string, err error) error {
	if err == nil {
		return nil
	}
	le := &LoadError{Code: code, Path: path, Message: err.Error()}

	errs := errors.Errors(err)
	if len(errs) > 0 {
		le.Message = errs[0].Error()
		if positions := errors.Positions(errs[0]); len(positions) > 0 {
			le.Pos = positions[0]
		}
	}
	return le
}
