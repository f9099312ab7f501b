package compiler

import "errors"

// Errors returned by BuildParameters. Each means "no criterion" for the
// value at hand; the compiler turns them into warnings.
var (
	ErrNoCriteria       = errors.New("no criteria for operator")
	ErrUnknownPrimitive = errors.New("unknown primitive")
	ErrInvalidGeoPoint  = errors.New("invalid bounding box")
	ErrNoScript         = errors.New("operator has no script")
	ErrValueCount       = errors.New("operator takes a single value")
)

// warningCode maps a parameter error to its warning code.
func warningCode(err error) string {
	switch {
	case errors.Is(err, ErrNoCriteria):
		return CodeNoCriteria
	case errors.Is(err, ErrUnknownPrimitive):
		return CodeUnknownPrimitive
	case errors.Is(err, ErrInvalidGeoPoint):
		return CodeInvalidGeoPoint
	case errors.Is(err, ErrNoScript):
		return CodeNoScript
	case errors.Is(err, ErrValueCount):
		return CodeValueCount
	default:
		return CodeFormatFailed
	}
}
