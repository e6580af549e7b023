// Package roster orchestrates match creation, joins, leaves, and lifecycle
// transitions. Every roster mutation runs inside a single atomic mutation of
// the backing store, which is what keeps capacity and identity uniqueness
// intact under concurrent callers.
package roster

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/frops/sportmanager/internal/domain"
	"github.com/frops/sportmanager/internal/identity"
	"github.com/frops/sportmanager/internal/repository"
	"github.com/frops/sportmanager/internal/service/lifecycle"
)

// Notifier receives roster events for streaming to subscribed clients.
type Notifier interface {
	Broadcast(matchID string, payload []byte)
}

// CreateInput encapsulates match creation attributes.
type CreateInput struct {
	ScheduledAt  time.Time `json:"scheduledAt"`
	VenueName    string    `json:"venueName"`
	LocationLink string    `json:"locationLink"`
	MinPlayers   int       `json:"minPlayers"`
	MaxPlayers   int       `json:"maxPlayers"`
}

// Service is the roster manager external callers talk to.
type Service struct {
	matches   repository.MatchRepository
	lifecycle lifecycle.Controller
	events    Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// New returns a roster service.
func New(matches repository.MatchRepository, events Notifier, logger *slog.Logger) Service {
	return Service{
		matches:   matches,
		lifecycle: lifecycle.New(),
		events:    events,
		logger:    logger,
		now:       time.Now,
	}
}

// Create validates the spec and stores a new active match with an empty
// roster.
func (s Service) Create(ctx context.Context, input CreateInput) (*domain.Match, error) {
	spec := lifecycle.CreateSpec{
		ScheduledAt:  input.ScheduledAt,
		VenueName:    input.VenueName,
		LocationLink: input.LocationLink,
		MinPlayers:   input.MinPlayers,
		MaxPlayers:   input.MaxPlayers,
	}
	if err := s.lifecycle.ValidateCreate(spec); err != nil {
		return nil, err
	}
	match := &domain.Match{
		ID:           uuid.NewString(),
		ScheduledAt:  input.ScheduledAt.UTC(),
		VenueName:    input.VenueName,
		LocationLink: input.LocationLink,
		MinPlayers:   input.MinPlayers,
		MaxPlayers:   input.MaxPlayers,
		Participants: []domain.Participant{},
		Active:       true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.matches.CreateMatch(ctx, match); err != nil {
		return nil, err
	}
	s.logger.Info("match created", "match_id", match.ID, "venue", match.VenueName, "min_players", match.MinPlayers, "max_players", match.MaxPlayers)
	s.publish("match_created", match)
	return match, nil
}

// Join admits the resolved identity into the roster. The cancelled, duplicate
// and capacity checks run inside the same critical section as the append, so
// two concurrent joins for the last slot yield one success and one
// ErrMatchFull.
func (s Service) Join(ctx context.Context, matchID, claimedName string, externalID *int64) (*domain.Match, error) {
	participant, err := identity.Resolve(claimedName, externalID)
	if err != nil {
		return nil, err
	}
	match, err := s.matches.MutateMatch(ctx, matchID, func(m *domain.Match) error {
		if !m.Active {
			return domain.ErrMatchCancelled
		}
		if m.HasParticipant(participant.Identity) {
			return domain.ErrAlreadyJoined
		}
		if len(m.Participants) >= m.MaxPlayers {
			return domain.ErrMatchFull
		}
		participant.JoinedAt = s.now().UTC()
		m.Participants = append(m.Participants, participant)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("participant joined", "match_id", matchID, "identity", participant.Identity, "roster_size", len(match.Participants))
	s.publish("participant_joined", match)
	return match, nil
}

// Leave removes the resolved identity, preserving the remaining order.
// Leaving a cancelled match is harmless and allowed.
func (s Service) Leave(ctx context.Context, matchID, claimedName string, externalID *int64) (*domain.Match, error) {
	participant, err := identity.Resolve(claimedName, externalID)
	if err != nil {
		return nil, err
	}
	match, err := s.matches.MutateMatch(ctx, matchID, func(m *domain.Match) error {
		for i, p := range m.Participants {
			if p.Identity == participant.Identity {
				m.Participants = append(m.Participants[:i], m.Participants[i+1:]...)
				return nil
			}
		}
		return domain.ErrNotJoined
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("participant left", "match_id", matchID, "identity", participant.Identity, "roster_size", len(match.Participants))
	s.publish("participant_left", match)
	return match, nil
}

// Cancel soft-deletes the match; the roster is retained for a later restore.
func (s Service) Cancel(ctx context.Context, matchID string) (*domain.Match, error) {
	match, err := s.matches.MutateMatch(ctx, matchID, func(m *domain.Match) error {
		return s.lifecycle.Cancel(m)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("match cancelled", "match_id", matchID)
	s.publish("match_cancelled", match)
	return match, nil
}

// Restore reactivates a cancelled match with its roster untouched.
func (s Service) Restore(ctx context.Context, matchID string) (*domain.Match, error) {
	match, err := s.matches.MutateMatch(ctx, matchID, func(m *domain.Match) error {
		return s.lifecycle.Restore(m)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("match restored", "match_id", matchID)
	s.publish("match_restored", match)
	return match, nil
}

// Delete removes the match permanently. Unlike Cancel there is no way back.
func (s Service) Delete(ctx context.Context, matchID string) error {
	if err := s.matches.DeleteMatch(ctx, matchID); err != nil {
		return err
	}
	s.logger.Info("match deleted", "match_id", matchID)
	if s.events != nil {
		payload, err := json.Marshal(map[string]string{"event": "match_deleted", "matchId": matchID})
		if err == nil {
			s.events.Broadcast(matchID, payload)
		}
	}
	return nil
}

// Get returns one match snapshot.
func (s Service) Get(ctx context.Context, matchID string) (*domain.Match, error) {
	return s.matches.GetMatchByID(ctx, matchID)
}

// List returns all matches, soonest first.
func (s Service) List(ctx context.Context) ([]domain.Match, error) {
	return s.matches.ListMatches(ctx)
}

func (s Service) publish(eventType string, match *domain.Match) {
	if s.events == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"event": eventType,
		"match": match,
	})
	if err != nil {
		s.logger.Warn("failed to encode roster event", "event", eventType, "match_id", match.ID, "error", err)
		return
	}
	s.events.Broadcast(match.ID, payload)
}
