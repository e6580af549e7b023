package domain

import (
	"errors"
	"fmt"
)

// Business-rule rejections. These are expected outcomes of roster operations,
// surfaced verbatim so callers can show a precise message.
var (
	ErrMatchCancelled    = errors.New("match is cancelled")
	ErrMatchFull         = errors.New("match is full")
	ErrAlreadyJoined     = errors.New("participant already joined")
	ErrNotJoined         = errors.New("participant has not joined")
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
)

// ValidationError reports which creation field violated its constraint.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AsValidationError unwraps err into a *ValidationError when possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
