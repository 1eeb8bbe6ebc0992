package auth

import (
	"testing"
	"time"
)

func TestIssueParseRoundTrip(t *testing.T) {
	t.Parallel()

	token, exp, err := Issue("operator", "operator", "secret", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(exp) < 55*time.Minute {
		t.Errorf("expiry %v too close to now, want ~1h out", exp)
	}

	claims, err := Parse(token, "secret")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "operator" || claims.Role != "operator" {
		t.Errorf("got subject=%q role=%q, want operator/operator", claims.Subject, claims.Role)
	}
}

func TestParseWrongKey(t *testing.T) {
	t.Parallel()

	token, _, err := Issue("operator", "operator", "secret", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := Parse(token, "other-secret"); err == nil {
		t.Error("token signed with a different key parsed, want error")
	}
}

func TestParseExpired(t *testing.T) {
	t.Parallel()

	token, _, err := Issue("operator", "operator", "secret", -time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := Parse(token, "secret"); err == nil {
		t.Error("expired token parsed, want error")
	}
}

func TestParseGarbage(t *testing.T) {
	t.Parallel()

	if _, err := Parse("not-a-token", "secret"); err == nil {
		t.Error("garbage token parsed, want error")
	}
}
