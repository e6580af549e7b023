package domain

import "time"

// CapacityState describes how close a roster is to its configured capacity.
type CapacityState string

const (
	// CapacityForming means the roster has not reached the minimum yet.
	CapacityForming CapacityState = "forming"
	// CapacityReady means enough participants joined for the match to happen.
	CapacityReady CapacityState = "ready"
	// CapacityFull means no further joins are admitted.
	CapacityFull CapacityState = "full"
)

// Participant is one entry in a match roster. Identity is the uniqueness key
// within a match; DisplayName is what rosters render and may equal Identity.
type Participant struct {
	Identity    string    `json:"identity"`
	DisplayName string    `json:"displayName"`
	JoinedAt    time.Time `json:"joinedAt"`
}

// Match is a scheduled group event with a capacity range and an ordered
// roster. Active=false marks a cancelled match kept around for restore.
type Match struct {
	ID           string        `json:"id"`
	ScheduledAt  time.Time     `json:"scheduledAt"`
	VenueName    string        `json:"venueName"`
	LocationLink string        `json:"locationLink"`
	MinPlayers   int           `json:"minPlayers"`
	MaxPlayers   int           `json:"maxPlayers"`
	Participants []Participant `json:"participants"`
	Active       bool          `json:"active"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// CapacityState derives the display status from the roster size. It is not
// stored; the only capacity rule the core enforces is the join-time limit.
func (m *Match) CapacityState() CapacityState {
	switch {
	case len(m.Participants) >= m.MaxPlayers:
		return CapacityFull
	case len(m.Participants) >= m.MinPlayers:
		return CapacityReady
	default:
		return CapacityForming
	}
}

// HasParticipant reports whether the roster already holds the identity.
func (m *Match) HasParticipant(identity string) bool {
	for _, p := range m.Participants {
		if p.Identity == identity {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so stored matches are never aliased by callers.
func (m *Match) Clone() *Match {
	if m == nil {
		return nil
	}
	out := *m
	out.Participants = append([]Participant(nil), m.Participants...)
	return &out
}
