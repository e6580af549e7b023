// Package identity maps an inbound request's claimed display name, plus an
// optional external-platform numeric id, to a stable participant identity.
// The mapping is pure: no storage, no provider lookups.
package identity

import (
	"errors"
	"strconv"
	"strings"

	"github.com/frops/sportmanager/internal/domain"
)

// ErrInvalidIdentity means the request carried nothing a participant could be
// identified by.
var ErrInvalidIdentity = errors.New("participant must have a name or an external id")

const externalPrefix = "ext:"

// Resolve produces the participant carried on roster mutations.
//
// When externalID is set, the identity is "ext:<id>" and survives display
// name changes. Otherwise the identity is the trimmed claimed name, case
// preserved. DisplayName is always the literal claimed name.
func Resolve(claimedName string, externalID *int64) (domain.Participant, error) {
	if externalID != nil {
		return domain.Participant{
			Identity:    externalPrefix + strconv.FormatInt(*externalID, 10),
			DisplayName: claimedName,
		}, nil
	}
	trimmed := strings.TrimSpace(claimedName)
	if trimmed == "" {
		return domain.Participant{}, ErrInvalidIdentity
	}
	return domain.Participant{Identity: trimmed, DisplayName: claimedName}, nil
}
