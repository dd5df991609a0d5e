package auth

import (
	"context"
	"testing"
	"time"

	"droneFlightAuthority/internal/testutil"
)

const testSecret = "test-secret"

func TestParseFromMD_ValidBearer(t *testing.T) {
	tok := testutil.GenerateJWTHS256(t, testSecret, "alice", "solo_pilot")
	ctx := testutil.CtxWithBearer(context.Background(), tok)
	p, err := ParseFromMD(ctx, testSecret)
	if err != nil {
		t.Fatalf("ParseFromMD: %v", err)
	}
	if p.Name != "alice" || p.Kind != "SOLO_PILOT" {
		t.Fatalf("principal mismatch: %+v", p)
	}
}

func TestParseFromMD_MissingHeader(t *testing.T) {
	if _, err := ParseFromMD(context.Background(), testSecret); err == nil {
		t.Fatalf("expected error for missing metadata")
	}
}

func TestParseBearer_InvalidScheme(t *testing.T) {
	tok := testutil.GenerateJWTHS256(t, testSecret, "bob", "SOLO_PILOT")
	if _, err := ParseBearer("Basic "+tok, testSecret); err == nil {
		t.Fatalf("expected error for non-bearer scheme")
	}
	if _, err := ParseToken(tok, "wrong"); err == nil {
		t.Fatalf("expected error for wrong secret")
	}
}

func TestParseToken_ClaimsValidation(t *testing.T) {
	tok := testutil.GenerateJWTHS256(t, testSecret, "", "")
	if _, err := ParseToken(tok, testSecret); err == nil {
		t.Fatalf("expected invalid claims error")
	}
}

func TestIssueToken_RoundTripAndExpiry(t *testing.T) {
	tok, err := IssueToken(testSecret, "carol", "AUTHORITY_ADMIN", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	p, err := ParseToken(tok, testSecret)
	if err != nil || p.Name != "carol" || p.Kind != "AUTHORITY_ADMIN" {
		t.Fatalf("parse issued token: %+v err=%v", p, err)
	}

	expired, err := IssueToken(testSecret, "carol", "AUTHORITY_ADMIN", -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	// a negative ttl means no expiry claim
	if _, err := ParseToken(expired, testSecret); err != nil {
		t.Fatalf("token without expiry should parse: %v", err)
	}

	short, err := IssueToken(testSecret, "carol", "AUTHORITY_ADMIN", time.Nanosecond)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	time.Sleep(1100 * time.Millisecond)
	if _, err := ParseToken(short, testSecret); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}

	if _, err := IssueToken("", "x", "SOLO_PILOT", 0); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
