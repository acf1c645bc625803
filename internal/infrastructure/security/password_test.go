package security

import (
	"context"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	ctx := context.Background()

	for _, pw := range []string{"pass123", "correct horse battery staple", "ünïcødé", ""} {
		hash, err := h.Hash(ctx, pw)
		if err != nil {
			t.Fatalf("hash %q: %v", pw, err)
		}
		if hash == pw {
			t.Fatalf("hash must differ from plaintext")
		}
		if !h.Verify(ctx, pw, hash) {
			t.Fatalf("verify(%q, hash(%q)) = false", pw, pw)
		}
	}
}

func TestBcryptHasher_Mismatch(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	ctx := context.Background()

	hash, err := h.Hash(ctx, "goodpass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	for _, pw := range []string{"badpass", "goodpass ", "Goodpass", ""} {
		if h.Verify(ctx, pw, hash) {
			t.Fatalf("verify(%q) against hash of goodpass must fail", pw)
		}
	}
}

func TestBcryptHasher_SaltsEachHash(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	a, _ := h.Hash(context.Background(), "same")
	b, _ := h.Hash(context.Background(), "same")
	if a == b {
		t.Fatalf("two hashes of the same password must differ")
	}
}

func TestBcryptHasher_MalformedHash(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	for _, stored := range []string{"", "not-a-hash", "$2a$10$short", "pass123"} {
		if h.Verify(context.Background(), "pass123", stored) {
			t.Fatalf("malformed hash %q must not verify", stored)
		}
	}
}

func TestNewBcryptHasher_CostBounds(t *testing.T) {
	if got := NewBcryptHasher(0).Cost(); got != bcrypt.DefaultCost {
		t.Fatalf("expected default cost, got %d", got)
	}
	if got := NewBcryptHasher(bcrypt.MaxCost + 1).Cost(); got != bcrypt.DefaultCost {
		t.Fatalf("expected default cost, got %d", got)
	}
	if got := NewBcryptHasher(bcrypt.MinCost).Cost(); got != bcrypt.MinCost {
		t.Fatalf("expected min cost, got %d", got)
	}

	hash, _ := NewBcryptHasher(bcrypt.MinCost).Hash(context.Background(), "x")
	if !strings.HasPrefix(hash, "$2a$04$") {
		t.Fatalf("unexpected hash prefix: %s", hash[:7])
	}
}
