package auth

import (
	"errors"
	"testing"
	"time"
)

func TestHS256RoundTrip(t *testing.T) {
	claims := Claims{
		Sub:  "op-1",
		Name: "Balie Westrate",
		Role: RoleOperator,
		Iat:  time.Now().Unix(),
		Exp:  time.Now().Add(1 * time.Hour).Unix(),
	}
	secret := "test-secret"

	token, err := SignHS256(claims, secret)
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	parsed, err := ParseAndVerifyHS256(token, secret)
	if err != nil {
		t.Fatalf("ParseAndVerifyHS256 failed: %v", err)
	}
	if parsed.Sub != claims.Sub || parsed.Role != claims.Role {
		t.Fatalf("claims mismatch: got %+v", parsed)
	}
	if !parsed.IsOperator() {
		t.Fatal("operator role should pass IsOperator")
	}
	if _, err := ParseAndVerifyHS256(token, "wrong-secret"); !errors.Is(err, ErrInvalidToken) {
		t.Fatal("expected verification error with wrong secret")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	claims := Claims{
		Sub:  "op-1",
		Role: RoleOperator,
		Iat:  time.Now().Add(-2 * time.Hour).Unix(),
		Exp:  time.Now().Add(-1 * time.Hour).Unix(),
	}
	token, err := SignHS256(claims, "s")
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	if _, err := ParseAndVerifyHS256(token, "s"); !errors.Is(err, ErrInvalidToken) {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestMalformedTokenRejected(t *testing.T) {
	for _, token := range []string{"", "a.b", "a.b.c.d", "!!.??.##"} {
		if _, err := ParseAndVerifyHS256(token, "s"); err == nil {
			t.Fatalf("expected error for token %q", token)
		}
	}
}

func TestIsOperator(t *testing.T) {
	cases := map[string]bool{
		RoleOperator: true,
		RoleAdmin:    true,
		"customer":   false,
		"":           false,
	}
	for role, want := range cases {
		c := Claims{Role: role}
		if got := c.IsOperator(); got != want {
			t.Fatalf("role %q: got %v, want %v", role, got, want)
		}
	}
}
