package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingConfig   = errors.New("missing config")
	ErrMalformedConfig = errors.New("malformed config")
	ErrOutOfBounds     = errors.New("position out of bounds")
	ErrHubClosed       = errors.New("hub is shut down")
)

// ProtocolError reports a failure to read the leading Config record.
// Kind is ErrMissingConfig or ErrMalformedConfig.
type ProtocolError struct {
	Kind  error
	Cause error
}

func (e *ProtocolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("protocol error: %v: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("protocol error: %v", e.Kind)
}

// Is matches the error kind, so errors.Is(err, ErrMissingConfig) works.
func (e *ProtocolError) Is(target error) bool {
	return e.Kind == target
}

func (e *ProtocolError) Unwrap() error {
	return e.Cause
}

// ProjectionError reports a frame entity placed outside the grid.
type ProjectionError struct {
	Entity   string
	Position Position
	Size     Size
}

func (e *ProjectionError) Error() string {
	return fmt.Sprintf("%s at (%d,%d) outside %dx%d grid: %v",
		e.Entity, e.Position.X, e.Position.Y, e.Size.Width, e.Size.Height, ErrOutOfBounds)
}

func (e *ProjectionError) Unwrap() error {
	return ErrOutOfBounds
}
