package security

import (
	"errors"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := VerifyPassword(hash, "s3cret-pass"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}

	if err := VerifyPassword(hash, "wrong-pass"); !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
}

func TestHashesAreSalted(t *testing.T) {
	a, _ := HashPassword("same-password")
	b, _ := HashPassword("same-password")
	if a == b {
		t.Fatalf("two hashes of the same password should differ")
	}
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	if err := VerifyPassword("not-a-hash", "whatever"); err == nil {
		t.Fatalf("expected error for malformed hash")
	}
}
