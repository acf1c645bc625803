package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskhub/taskhub-api/internal/core/domain"
)

const testKey = "test-signing-key-0123456789abcdef"

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestService(t *testing.T, clock *fakeClock) *TokenService {
	t.Helper()
	svc, err := NewTokenService(testKey, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("new token service: %v", err)
	}
	return svc
}

func TestNewTokenService_EmptyKey(t *testing.T) {
	if _, err := NewTokenService(""); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestTokenService_IssueValidate(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestService(t, clock)

	for _, subject := range []string{"alice@example.com", "bob@example.org"} {
		for _, ttl := range []time.Duration{time.Second, 30 * time.Minute, 24 * time.Hour} {
			token, err := svc.Issue(subject, ttl)
			if err != nil {
				t.Fatalf("issue: %v", err)
			}
			got, err := svc.Validate(token)
			if err != nil {
				t.Fatalf("validate(%s, %s): %v", subject, ttl, err)
			}
			if got != subject {
				t.Fatalf("expected subject %q, got %q", subject, got)
			}
		}
	}
}

func TestTokenService_AlreadyExpired(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newTestService(t, clock)

	token, err := svc.Issue("alice@example.com", -time.Second)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Validate(token); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenService_AgedPastExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestService(t, clock)

	token, _ := svc.Issue("alice@example.com", 30*time.Minute)

	clock.t = clock.t.Add(29 * time.Minute)
	if _, err := svc.Validate(token); err != nil {
		t.Fatalf("token must still be valid before expiry: %v", err)
	}

	clock.t = clock.t.Add(time.Minute)
	if _, err := svc.Validate(token); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("token must be invalid at expiry, got %v", err)
	}

	clock.t = clock.t.Add(time.Hour)
	if _, err := svc.Validate(token); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("token must be invalid after expiry, got %v", err)
	}
}

func TestTokenService_TamperedSignature(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newTestService(t, clock)

	token, _ := svc.Issue("alice@example.com", time.Hour)
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(parts))
	}
	sig := parts[2]

	// The final base64 character carries padding bits, so every other
	// position must change the decoded signature.
	for i := 0; i < len(sig)-1; i++ {
		replacement := byte('A')
		if sig[i] == 'A' {
			replacement = 'B'
		}
		tampered := sig[:i] + string(replacement) + sig[i+1:]
		forged := parts[0] + "." + parts[1] + "." + tampered
		if _, err := svc.Validate(forged); !errors.Is(err, domain.ErrTokenInvalid) {
			t.Fatalf("tampered signature at %d accepted", i)
		}
	}
}

func TestTokenService_TamperedPayload(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newTestService(t, clock)

	token, _ := svc.Issue("alice@example.com", time.Hour)
	other, _ := svc.Issue("mallory@example.com", time.Hour)

	a := strings.Split(token, ".")
	b := strings.Split(other, ".")
	forged := a[0] + "." + b[1] + "." + a[2]
	if _, err := svc.Validate(forged); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("payload swap accepted: %v", err)
	}
}

func TestTokenService_RejectsForeignTokens(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newTestService(t, clock)
	exp := jwt.NewNumericDate(clock.t.Add(time.Hour))

	wrongKey, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "alice@example.com", ExpiresAt: exp,
	}).SignedString([]byte("another-key"))

	wrongAlg, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject: "alice@example.com", ExpiresAt: exp,
	}).SignedString([]byte(testKey))

	noneAlg, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject: "alice@example.com", ExpiresAt: exp,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: exp,
	}).SignedString([]byte(testKey))

	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "alice@example.com",
	}).SignedString([]byte(testKey))

	cases := map[string]string{
		"wrong key":  wrongKey,
		"wrong alg":  wrongAlg,
		"none alg":   noneAlg,
		"no subject": noSubject,
		"no expiry":  noExpiry,
		"garbage":    "not-a-token",
		"empty":      "",
	}
	for name, token := range cases {
		if _, err := svc.Validate(token); !errors.Is(err, domain.ErrTokenInvalid) {
			t.Errorf("%s: expected ErrTokenInvalid, got %v", name, err)
		}
	}
}
