package pipeline

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is to classify a failure returned by Run.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrArtifactMismatch    = errors.New("artifact mismatch")
	ErrUnknownClusterLabel = errors.New("unknown cluster label")
)

// InvalidInputError reports a raw feature outside its valid domain.
type InvalidInputError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s=%v %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

// UnknownLabelError reports a label the model emitted that has no configured
// interpretation.
type UnknownLabelError struct {
	Label Label
	Known []Label
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("unknown cluster label %d (known: %v)", e.Label, e.Known)
}

func (e *UnknownLabelError) Is(target error) bool { return target == ErrUnknownClusterLabel }

// mismatch wraps a scaler/model shape problem detected at predict time.
func mismatch(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrArtifactMismatch, fmt.Sprintf(format, args...))
}
