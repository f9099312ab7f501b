package compiler

import (
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"
)

// Warning codes.
const (
	CodeFuncValue           = "func_value"           // value computed by a function
	CodeUnknownOperator     = "unknown_operator"     // operator not configured
	CodeUnknownInverse      = "unknown_inverse"      // inverse operator not configured
	CodeUnknownConjunction  = "unknown_conjunction"  // group conjunction not AND/OR/NOT
	CodeUnresolvedWidget    = "unresolved_widget"    // no widget for field/operator/source
	CodeUnresolvedPrimitive = "unresolved_primitive" // operator selects no primitive for widget
	CodeUnknownPrimitive    = "unknown_primitive"    // primitive has no parameter builder
	CodeNoCriteria          = "no_criteria"          // parameters could not be built
	CodeInvalidGeoPoint     = "invalid_geo_point"    // bounding box value malformed
	CodeNoScript            = "no_script"            // script primitive without script
	CodeValueCount          = "value_count"          // several values for a single-value range
	CodeFormatFailed        = "format_failed"        // widget formatter returned an error
)

// Warning describes a rule or group that was skipped.
type Warning struct {
	Code     string `json:"code"`
	NodeID   string `json:"node_id,omitempty"`
	Field    string `json:"field,omitempty"`
	Operator string `json:"operator,omitempty"`
	Message  string `json:"message"`
}

func (w Warning) Error() string {
	if w.NodeID != "" {
		return fmt.Sprintf("%s [%s]: %s", w.Code, w.NodeID, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

// Warnings is the ordered list of warnings of one compile.
type Warnings []Warning

// Err folds the warnings into a single error, or nil when there are none.
// Strict callers treat any warning as a failure with it.
func (ws Warnings) Err() error {
	var result *multierror.Error
	for _, w := range ws {
		result = multierror.Append(result, w)
	}
	return result.ErrorOrNil()
}

// Codes returns the warning codes in order.
func (ws Warnings) Codes() []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Code
	}
	return out
}

// compileMeta collects warnings for one Compile call.
type compileMeta struct {
	warnings Warnings
	logger   *slog.Logger
}

func newCompileMeta(logger *slog.Logger) *compileMeta {
	return &compileMeta{logger: logger}
}

func (m *compileMeta) warn(w Warning) {
	m.warnings = append(m.warnings, w)
	m.logger.Warn("rule skipped",
		"code", w.Code,
		"node_id", w.NodeID,
		"field", w.Field,
		"operator", w.Operator,
		"message", w.Message,
	)
}
