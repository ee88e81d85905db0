package identity

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDIsDeterministic(t *testing.T) {
	a := DocumentUUID("posts", "p1")
	b := DocumentUUID(" posts ", "p1")
	if a != b {
		t.Fatalf("expected trimmed keys to match: %s vs %s", a, b)
	}
	if a == DocumentUUID("pages", "p1") {
		t.Fatalf("expected collection to change the id")
	}
}

func TestUUIDEmptyKey(t *testing.T) {
	if UUID("   ") != uuid.Nil {
		t.Fatalf("expected nil uuid for empty key")
	}
}

func TestFixtureIDIgnoresCase(t *testing.T) {
	if FixtureID("Post", "Hello-World") != FixtureID("post", "hello-world") {
		t.Fatalf("expected case-insensitive fixture ids")
	}
	if _, err := uuid.Parse(FixtureID("page", "about")); err != nil {
		t.Fatalf("expected uuid string: %v", err)
	}
}
