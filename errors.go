package filetype

import (
	"errors"
	"fmt"

	"github.com/gobeaver/filetype/content"
	"github.com/gobeaver/filetype/extension"
)

// Common detection errors
var (
	ErrNotDetected       = errors.New("file type not detected")
	ErrNotSupported      = errors.New("operation not supported")
	ErrUnsupportedSource = content.ErrUnsupportedSource
	ErrUnknownExtension  = extension.ErrUnknownExtension
)

// PathError records an error and the operation and file path that caused it
type PathError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface
func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *PathError) Unwrap() error {
	return e.Err
}

// IsNotDetected reports whether an error means that no format could be
// determined
func IsNotDetected(err error) bool {
	return errors.Is(err, ErrNotDetected)
}

// IsUnsupportedSource reports whether an error means that the input could
// not be read as a byte source
func IsUnsupportedSource(err error) bool {
	return errors.Is(err, ErrUnsupportedSource)
}
