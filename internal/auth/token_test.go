package auth

import (
	"strings"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", "erp-desk", time.Hour)
	fixed := time.Now().Truncate(time.Second)
	tm.now = func() time.Time { return fixed }

	token, expires, err := tm.GenerateToken("user-1", "company-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !expires.Equal(fixed.Add(time.Hour)) {
		t.Fatalf("expires = %v, want %v", expires, fixed.Add(time.Hour))
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "user-1" || claims.CompanyID != "company-1" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseTokenRejects(t *testing.T) {
	tm := NewTokenManager("secret", "erp-desk", time.Hour)
	valid, _, err := tm.GenerateToken("user-1", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	expired := NewTokenManager("secret", "erp-desk", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	stale, _, err := expired.GenerateToken("user-1", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	foreign, _, err := NewTokenManager("secret", "someone-else", time.Hour).GenerateToken("user-1", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	tests := []struct {
		name  string
		token string
		tm    *TokenManager
	}{
		{name: "wrong secret", token: valid, tm: NewTokenManager("other", "erp-desk", time.Hour)},
		{name: "expired", token: stale, tm: tm},
		{name: "wrong issuer", token: foreign, tm: tm},
		{name: "tampered", token: strings.TrimSuffix(valid, valid[len(valid)-2:]) + "xx", tm: tm},
		{name: "garbage", token: "abc.def.ghi", tm: tm},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.tm.ParseToken(tc.token); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
