package utils

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "correct horse" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !VerifyPassword(hash, "correct horse") {
		t.Fatal("expected matching password to verify")
	}
	if VerifyPassword(hash, "battery staple") {
		t.Fatal("expected non-matching password to fail")
	}
}

func TestVerifyPasswordMalformedDigest(t *testing.T) {
	// A garbage digest is a mismatch, never a panic or an error.
	if VerifyPassword("not-a-bcrypt-digest", "anything") {
		t.Fatal("expected malformed digest to fail verification")
	}
	if VerifyPassword("", "anything") {
		t.Fatal("expected empty digest to fail verification")
	}
}

func TestHashPasswordTooLong(t *testing.T) {
	// bcrypt rejects inputs over 72 bytes.
	if _, err := HashPassword(strings.Repeat("x", 73), bcrypt.MinCost); err == nil {
		t.Fatal("expected error hashing a 73-byte password")
	}
}
