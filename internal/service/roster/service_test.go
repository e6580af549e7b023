package roster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/frops/sportmanager/internal/domain"
	"github.com/frops/sportmanager/internal/identity"
	"github.com/frops/sportmanager/internal/repository"
	"github.com/frops/sportmanager/internal/repository/memory"
)

func newService() Service {
	return New(memory.New(), nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func createMatch(t *testing.T, svc Service, minPlayers, maxPlayers int) *domain.Match {
	t.Helper()
	match, err := svc.Create(context.Background(), CreateInput{
		ScheduledAt: time.Date(2025, 7, 12, 19, 30, 0, 0, time.UTC),
		VenueName:   "Nova Sports Soccer Field",
		MinPlayers:  minPlayers,
		MaxPlayers:  maxPlayers,
	})
	if err != nil {
		t.Fatalf("create match: %v", err)
	}
	return match
}

func TestCreateValidatesCapacityRange(t *testing.T) {
	svc := newService()

	match := createMatch(t, svc, 10, 12)
	if !match.Active {
		t.Fatal("new match should be active")
	}
	if len(match.Participants) != 0 {
		t.Fatalf("new match should have an empty roster, got %v", match.Participants)
	}

	_, err := svc.Create(context.Background(), CreateInput{
		ScheduledAt: time.Date(2025, 7, 12, 19, 30, 0, 0, time.UTC),
		VenueName:   "Nova Sports Soccer Field",
		MinPlayers:  12,
		MaxPlayers:  10,
	})
	if _, ok := domain.AsValidationError(err); !ok {
		t.Fatalf("inverted range: expected ValidationError, got %v", err)
	}
}

func TestJoinProgressionToFull(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	match := createMatch(t, svc, 2, 2)

	match, err := svc.Join(ctx, match.ID, "Alice", nil)
	if err != nil {
		t.Fatalf("join alice: %v", err)
	}
	if got := match.CapacityState(); got != domain.CapacityForming {
		t.Fatalf("one of two joined: expected forming, got %s", got)
	}

	match, err = svc.Join(ctx, match.ID, "Bob", nil)
	if err != nil {
		t.Fatalf("join bob: %v", err)
	}
	if got := match.CapacityState(); got != domain.CapacityFull {
		t.Fatalf("roster at max: expected full, got %s", got)
	}

	if _, err := svc.Join(ctx, match.ID, "Carol", nil); !errors.Is(err, domain.ErrMatchFull) {
		t.Fatalf("join over capacity: expected ErrMatchFull, got %v", err)
	}

	match, err = svc.Get(ctx, match.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(match.Participants) != 2 || match.Participants[0].Identity != "Alice" || match.Participants[1].Identity != "Bob" {
		t.Fatalf("rejected join must leave roster unchanged, got %v", match.Participants)
	}
}

func TestJoinTwiceRejected(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	match := createMatch(t, svc, 2, 4)

	if _, err := svc.Join(ctx, match.ID, "Alice", nil); err != nil {
		t.Fatalf("first join: %v", err)
	}
	if _, err := svc.Join(ctx, match.ID, "Alice", nil); !errors.Is(err, domain.ErrAlreadyJoined) {
		t.Fatalf("second join: expected ErrAlreadyJoined, got %v", err)
	}

	match, err := svc.Get(ctx, match.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(match.Participants) != 1 {
		t.Fatalf("duplicate join must not grow the roster, got %v", match.Participants)
	}
}

func TestJoinTwiceSameExternalIDDifferentNames(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	match := createMatch(t, svc, 2, 4)
	ext := int64(1001)

	if _, err := svc.Join(ctx, match.ID, "Alice", &ext); err != nil {
		t.Fatalf("first join: %v", err)
	}
	if _, err := svc.Join(ctx, match.ID, "Totally Not Alice", &ext); !errors.Is(err, domain.ErrAlreadyJoined) {
		t.Fatalf("renamed rejoin: expected ErrAlreadyJoined, got %v", err)
	}
}

func TestJoinLeaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	match := createMatch(t, svc, 2, 4)

	for _, name := range []string{"Alice", "Bob", "Carol"} {
		if _, err := svc.Join(ctx, match.ID, name, nil); err != nil {
			t.Fatalf("join %s: %v", name, err)
		}
	}

	match, err := svc.Leave(ctx, match.ID, "Bob", nil)
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	if len(match.Participants) != 2 || match.Participants[0].Identity != "Alice" || match.Participants[1].Identity != "Carol" {
		t.Fatalf("leave must preserve remaining order, got %v", match.Participants)
	}

	if _, err := svc.Leave(ctx, match.ID, "Bob", nil); !errors.Is(err, domain.ErrNotJoined) {
		t.Fatalf("leave twice: expected ErrNotJoined, got %v", err)
	}
}

func TestJoinUnknownMatch(t *testing.T) {
	svc := newService()
	if _, err := svc.Join(context.Background(), "missing", "Alice", nil); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestJoinRejectsUnidentifiable(t *testing.T) {
	svc := newService()
	match := createMatch(t, svc, 2, 4)
	if _, err := svc.Join(context.Background(), match.ID, "   ", nil); !errors.Is(err, identity.ErrInvalidIdentity) {
		t.Fatalf("expected ErrInvalidIdentity, got %v", err)
	}
}

func TestCancelledMatchRejectsJoinsAllowsLeaves(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	match := createMatch(t, svc, 2, 4)

	if _, err := svc.Join(ctx, match.ID, "Alice", nil); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := svc.Cancel(ctx, match.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := svc.Join(ctx, match.ID, "Bob", nil); !errors.Is(err, domain.ErrMatchCancelled) {
		t.Fatalf("join cancelled: expected ErrMatchCancelled, got %v", err)
	}
	match, err := svc.Leave(ctx, match.ID, "Alice", nil)
	if err != nil {
		t.Fatalf("leaving a cancelled match is allowed: %v", err)
	}
	if len(match.Participants) != 0 {
		t.Fatalf("expected empty roster, got %v", match.Participants)
	}
}

func TestCancelRestoreKeepsRoster(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	match := createMatch(t, svc, 2, 4)

	if _, err := svc.Join(ctx, match.ID, "Alice", nil); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := svc.Cancel(ctx, match.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := svc.Cancel(ctx, match.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("cancel twice: expected ErrInvalidTransition, got %v", err)
	}

	match, err := svc.Restore(ctx, match.ID)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !match.Active {
		t.Fatal("restored match should be active")
	}
	if len(match.Participants) != 1 || match.Participants[0].Identity != "Alice" {
		t.Fatalf("restore must keep participants, got %v", match.Participants)
	}
}

func TestDeleteIsIrreversible(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	match := createMatch(t, svc, 2, 4)

	if err := svc.Delete(ctx, match.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, match.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("get after delete: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Restore(ctx, match.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("restore after delete: expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, match.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("double delete: expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentJoinsNeverOverfill(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	const maxPlayers = 5
	const contenders = 32
	match := createMatch(t, svc, 2, maxPlayers)

	var wg sync.WaitGroup
	results := make(chan error, contenders)
	wg.Add(contenders)
	for i := 0; i < contenders; i++ {
		go func(n int) {
			defer wg.Done()
			_, err := svc.Join(ctx, match.ID, fmt.Sprintf("player-%d", n), nil)
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var admitted, full int
	for err := range results {
		switch {
		case err == nil:
			admitted++
		case errors.Is(err, domain.ErrMatchFull):
			full++
		default:
			t.Fatalf("unexpected join error: %v", err)
		}
	}
	if admitted != maxPlayers {
		t.Fatalf("expected exactly %d admissions, got %d", maxPlayers, admitted)
	}
	if full != contenders-maxPlayers {
		t.Fatalf("expected %d ErrMatchFull, got %d", contenders-maxPlayers, full)
	}

	match, err := svc.Get(ctx, match.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(match.Participants) != maxPlayers {
		t.Fatalf("roster overfilled: %d > %d", len(match.Participants), maxPlayers)
	}
	seen := make(map[string]struct{}, len(match.Participants))
	for _, p := range match.Participants {
		if _, dup := seen[p.Identity]; dup {
			t.Fatalf("duplicate identity in roster: %s", p.Identity)
		}
		seen[p.Identity] = struct{}{}
	}
}

func TestListOrderedBySchedule(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	base := time.Date(2025, 9, 1, 18, 0, 0, 0, time.UTC)

	for _, offset := range []time.Duration{72 * time.Hour, 0, 24 * time.Hour} {
		_, err := svc.Create(ctx, CreateInput{
			ScheduledAt: base.Add(offset),
			VenueName:   "Nova Sports Soccer Field",
			MinPlayers:  2,
			MaxPlayers:  4,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	matches, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].ScheduledAt.Before(matches[i-1].ScheduledAt) {
			t.Fatalf("list out of order at %d: %v before %v", i, matches[i].ScheduledAt, matches[i-1].ScheduledAt)
		}
	}
}
