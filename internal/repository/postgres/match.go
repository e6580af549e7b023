// Package postgres implements the match repository on PostgreSQL. Per-match
// atomicity comes from a row lock: MutateMatch selects the match row FOR
// UPDATE inside a transaction, so concurrent mutations of one match serialize
// at the database while other matches stay unblocked.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/frops/sportmanager/internal/domain"
	"github.com/frops/sportmanager/internal/repository"
)

// Repository implements repository.MatchRepository on a pgx pool.
type Repository struct {
	pool *pgxpool.Pool
}

var _ repository.MatchRepository = (*Repository)(nil)

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateMatch inserts the match and its (normally empty) roster.
func (r *Repository) CreateMatch(ctx context.Context, match *domain.Match) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const query = `INSERT INTO matches (id, scheduled_at, venue_name, location_link, min_players, max_players, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := tx.Exec(ctx, query, match.ID, match.ScheduledAt, match.VenueName, match.LocationLink, match.MinPlayers, match.MaxPlayers, match.Active, match.CreatedAt); err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	if err := insertParticipants(ctx, tx, match.ID, match.Participants); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetMatchByID fetches one match with its ordered roster.
func (r *Repository) GetMatchByID(ctx context.Context, id string) (*domain.Match, error) {
	match, err := scanMatch(ctx, r.pool, id, false)
	if err != nil {
		return nil, err
	}
	participants, err := loadParticipants(ctx, r.pool, id)
	if err != nil {
		return nil, err
	}
	match.Participants = participants
	return match, nil
}

// MutateMatch locks the match row, applies fn, and rewrites the roster. A fn
// error rolls the transaction back, leaving the stored match untouched.
func (r *Repository) MutateMatch(ctx context.Context, id string, fn func(*domain.Match) error) (*domain.Match, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	match, err := scanMatch(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	participants, err := loadParticipants(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	match.Participants = participants

	if err := fn(match); err != nil {
		return nil, err
	}

	const update = `UPDATE matches SET scheduled_at = $2, venue_name = $3, location_link = $4, min_players = $5, max_players = $6, active = $7 WHERE id = $1`
	if _, err := tx.Exec(ctx, update, match.ID, match.ScheduledAt, match.VenueName, match.LocationLink, match.MinPlayers, match.MaxPlayers, match.Active); err != nil {
		return nil, fmt.Errorf("update match: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM match_participants WHERE match_id = $1`, match.ID); err != nil {
		return nil, fmt.Errorf("clear roster: %w", err)
	}
	if err := insertParticipants(ctx, tx, match.ID, match.Participants); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return match, nil
}

// DeleteMatch removes the match row; participants go with it via cascade.
func (r *Repository) DeleteMatch(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete match: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListMatches returns all matches with rosters, soonest first.
func (r *Repository) ListMatches(ctx context.Context) ([]domain.Match, error) {
	const query = `SELECT id, scheduled_at, venue_name, location_link, min_players, max_players, active, created_at
		FROM matches
		ORDER BY scheduled_at ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]domain.Match, 0)
	for rows.Next() {
		var m domain.Match
		if err := rows.Scan(&m.ID, &m.ScheduledAt, &m.VenueName, &m.LocationLink, &m.MinPlayers, &m.MaxPlayers, &m.Active, &m.CreatedAt); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range matches {
		participants, err := loadParticipants(ctx, r.pool, matches[i].ID)
		if err != nil {
			return nil, err
		}
		matches[i].Participants = participants
	}
	return matches, nil
}

// rowQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanMatch(ctx context.Context, q rowQuerier, id string, forUpdate bool) (*domain.Match, error) {
	query := `SELECT id, scheduled_at, venue_name, location_link, min_players, max_players, active, created_at
		FROM matches WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	row := q.QueryRow(ctx, query, id)
	var m domain.Match
	if err := row.Scan(&m.ID, &m.ScheduledAt, &m.VenueName, &m.LocationLink, &m.MinPlayers, &m.MaxPlayers, &m.Active, &m.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func loadParticipants(ctx context.Context, q rowQuerier, matchID string) ([]domain.Participant, error) {
	const query = `SELECT identity, display_name, joined_at
		FROM match_participants
		WHERE match_id = $1
		ORDER BY position ASC`
	rows, err := q.Query(ctx, query, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := make([]domain.Participant, 0)
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.Identity, &p.DisplayName, &p.JoinedAt); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func insertParticipants(ctx context.Context, q rowQuerier, matchID string, participants []domain.Participant) error {
	const query = `INSERT INTO match_participants (match_id, position, identity, display_name, joined_at)
		VALUES ($1, $2, $3, $4, $5)`
	for position, p := range participants {
		if _, err := q.Exec(ctx, query, matchID, position, p.Identity, p.DisplayName, p.JoinedAt); err != nil {
			return fmt.Errorf("insert participant %q: %w", p.Identity, err)
		}
	}
	return nil
}
