package content

import (
	"errors"
	"fmt"
)

// ErrUnsupportedSource is returned when a Stream cannot be built from the
// value it was given.
var ErrUnsupportedSource = errors.New("unsupported source")

// SourceError describes a value that could not be turned into a Stream.
type SourceError struct {
	// Value is the rejected source, formatted with %#v.
	Value string
	// Kind is the Go type of the rejected source.
	Kind string
	// Err is the underlying cause, if any.
	Err error
}

func newSourceError(source any, cause error) *SourceError {
	return &SourceError{
		Value: fmt.Sprintf("%#v", source),
		Kind:  fmt.Sprintf("%T", source),
		Err:   cause,
	}
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%s): %v", ErrUnsupportedSource, e.Value, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s (%s)", ErrUnsupportedSource, e.Value, e.Kind)
}

// Is makes errors.Is(err, ErrUnsupportedSource) hold for every SourceError.
func (e *SourceError) Is(target error) bool {
	return target == ErrUnsupportedSource
}

func (e *SourceError) Unwrap() error {
	return e.Err
}
