package repository

import (
	"context"

	"github.com/frops/sportmanager/internal/domain"
)

// MatchRepository owns match state. Implementations must make MutateMatch a
// per-id critical section: two concurrent mutations of the same match never
// interleave their read-modify-write, while different matches proceed
// independently.
type MatchRepository interface {
	CreateMatch(ctx context.Context, match *domain.Match) error
	GetMatchByID(ctx context.Context, id string) (*domain.Match, error)
	// MutateMatch applies fn to the stored match atomically. When fn returns
	// an error the stored match is left untouched and the error is returned
	// as-is. On success the updated snapshot is returned.
	MutateMatch(ctx context.Context, id string, fn func(*domain.Match) error) (*domain.Match, error)
	// DeleteMatch removes the match permanently, unlike a cancel.
	DeleteMatch(ctx context.Context, id string) error
	// ListMatches returns all matches ordered by ScheduledAt ascending.
	ListMatches(ctx context.Context) ([]domain.Match, error)
}
