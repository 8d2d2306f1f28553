package layout

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPath          = errors.New("image path is empty")
	ErrImageNotFound      = errors.New("image not found")
	ErrDecodeFailure      = errors.New("unable to decode image")
	ErrNilImage           = errors.New("image is nil")
	ErrUnsupportedRuntime = errors.New("unsupported runtime")
	ErrClosed             = errors.New("layout sdk is closed")
)

// ModelNotFoundError reports a configured model file that is missing or blank.
type ModelNotFoundError struct {
	Field string
	Path  string
}

func (e *ModelNotFoundError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("model file not configured for %s", e.Field)
	}
	return fmt.Sprintf("model file not found for %s: %s", e.Field, e.Path)
}

// BackendError wraps a native engine failure while building a backend.
type BackendError struct {
	Runtime Runtime
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("failed to create %s backend: %v", e.Runtime, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
