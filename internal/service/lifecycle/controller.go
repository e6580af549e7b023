// Package lifecycle enforces the match state machine and creation-time
// validation. A match is either active or cancelled; cancellation is
// reversible and never touches the roster.
package lifecycle

import (
	"strings"
	"time"

	"github.com/frops/sportmanager/internal/domain"
)

// CreateSpec carries the fields validated at match creation. Capacity is
// immutable after creation, so this is the only place the range is checked.
type CreateSpec struct {
	ScheduledAt  time.Time
	VenueName    string
	LocationLink string
	MinPlayers   int
	MaxPlayers   int
}

// Controller applies lifecycle rules. It holds no state of its own.
type Controller struct{}

// New returns a lifecycle controller.
func New() Controller {
	return Controller{}
}

// ValidateCreate checks a creation spec and names the violated field.
func (Controller) ValidateCreate(spec CreateSpec) error {
	if spec.MinPlayers < 1 {
		return &domain.ValidationError{Field: "minPlayers", Reason: "must be at least 1"}
	}
	if spec.MaxPlayers < spec.MinPlayers {
		return &domain.ValidationError{Field: "maxPlayers", Reason: "must be greater than or equal to minPlayers"}
	}
	if spec.ScheduledAt.IsZero() {
		return &domain.ValidationError{Field: "scheduledAt", Reason: "must be a valid instant"}
	}
	if strings.TrimSpace(spec.VenueName) == "" {
		return &domain.ValidationError{Field: "venueName", Reason: "must not be empty"}
	}
	return nil
}

// Cancel transitions an active match to cancelled. Cancelling twice is
// reported, not silently accepted, so callers know the request had no effect.
func (Controller) Cancel(m *domain.Match) error {
	if !m.Active {
		return domain.ErrInvalidTransition
	}
	m.Active = false
	return nil
}

// Restore transitions a cancelled match back to active, roster untouched.
func (Controller) Restore(m *domain.Match) error {
	if m.Active {
		return domain.ErrInvalidTransition
	}
	m.Active = true
	return nil
}
