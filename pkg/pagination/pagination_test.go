package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCursorRoundTrip(t *testing.T) {
	orig := Cursor{
		CreatedAt: time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.UTC),
		ID:        uuid.New(),
	}

	decoded, err := Decode(orig.Encode())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decoded.CreatedAt.Equal(orig.CreatedAt) {
		t.Fatalf("timestamp mismatch: %v vs %v", decoded.CreatedAt, orig.CreatedAt)
	}
	if decoded.ID != orig.ID {
		t.Fatalf("id mismatch")
	}
}

func TestDecodeEmptyReturnsNil(t *testing.T) {
	c, err := Decode("")
	if err != nil || c != nil {
		t.Fatalf("empty token should decode to nil cursor, got %v %v", c, err)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode("!!not-base64!!"); err == nil {
		t.Fatalf("expected error for invalid base64")
	}
	if _, err := Decode("bm8tcGlwZS1oZXJl"); err == nil {
		t.Fatalf("expected error for missing separator")
	}
}

func TestClampLimit(t *testing.T) {
	if got := ClampLimit(0); got != DefaultLimit {
		t.Fatalf("expected default, got %d", got)
	}
	if got := ClampLimit(-3); got != DefaultLimit {
		t.Fatalf("expected default for negative, got %d", got)
	}
	if got := ClampLimit(1000); got != MaxLimit {
		t.Fatalf("expected max, got %d", got)
	}
	if got := ClampLimit(35); got != 35 {
		t.Fatalf("expected passthrough, got %d", got)
	}
}
