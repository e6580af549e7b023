package identity

import (
	"errors"
	"testing"
)

func TestResolvePrefersExternalID(t *testing.T) {
	ext := int64(987654)
	participant, err := Resolve("Alice", &ext)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if participant.Identity != "ext:987654" {
		t.Fatalf("expected ext:987654, got %q", participant.Identity)
	}
	if participant.DisplayName != "Alice" {
		t.Fatalf("expected display name Alice, got %q", participant.DisplayName)
	}
}

func TestResolveExternalIDStableAcrossRenames(t *testing.T) {
	ext := int64(42)
	first, err := Resolve("Alice", &ext)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Resolve("Alice the Swift", &ext)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Identity != second.Identity {
		t.Fatalf("identity changed with display name: %q vs %q", first.Identity, second.Identity)
	}
	if second.DisplayName != "Alice the Swift" {
		t.Fatalf("display name should follow the claim, got %q", second.DisplayName)
	}
}

func TestResolveNameTrimmedCasePreserved(t *testing.T) {
	participant, err := Resolve("  Bob McAllister  ", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if participant.Identity != "Bob McAllister" {
		t.Fatalf("expected trimmed identity, got %q", participant.Identity)
	}
	if participant.DisplayName != "  Bob McAllister  " {
		t.Fatalf("display name must stay literal, got %q", participant.DisplayName)
	}
}

func TestResolveRejectsUnidentifiable(t *testing.T) {
	for _, name := range []string{"", "   ", "\t\n"} {
		if _, err := Resolve(name, nil); !errors.Is(err, ErrInvalidIdentity) {
			t.Fatalf("name %q: expected ErrInvalidIdentity, got %v", name, err)
		}
	}
}

func TestResolveBlankNameWithExternalID(t *testing.T) {
	ext := int64(7)
	participant, err := Resolve("   ", &ext)
	if err != nil {
		t.Fatalf("external id should identify the participant: %v", err)
	}
	if participant.Identity != "ext:7" {
		t.Fatalf("expected ext:7, got %q", participant.Identity)
	}
}
