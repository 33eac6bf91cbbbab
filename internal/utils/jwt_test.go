package utils

import (
	"testing"
	"time"
)

func init() {
	SetJWTSecret("test-secret-key-for-testing")
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken("dashboard", 12)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if token == "" {
		t.Error("GenerateToken() returned empty token")
	}

	if len(token) < 50 {
		t.Errorf("token seems too short: %d chars", len(token))
	}
}

func TestGenerateToken_DifferentTokens(t *testing.T) {
	token1, _ := GenerateToken("dashboard", 12)
	token2, _ := GenerateToken("cron", 12)

	if token1 == token2 {
		t.Error("different key names should produce different tokens")
	}
}

func TestParseToken(t *testing.T) {
	token, _ := GenerateToken("dashboard", 12)

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}

	if claims.KeyName != "dashboard" {
		t.Errorf("KeyName = %q, expected %q", claims.KeyName, "dashboard")
	}
	if claims.Subject != "dashboard" {
		t.Errorf("Subject = %q, expected %q", claims.Subject, "dashboard")
	}
}

func TestParseToken_InvalidToken(t *testing.T) {
	invalidTokens := []string{
		"",
		"not-a-token",
		"aaa.bbb.ccc",
	}

	for _, tok := range invalidTokens {
		if _, err := ParseToken(tok); err == nil {
			t.Errorf("ParseToken(%q) should fail", tok)
		}
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, _ := GenerateToken("dashboard", 12)

	SetJWTSecret("another-secret")
	defer SetJWTSecret("test-secret-key-for-testing")

	if _, err := ParseToken(token); err == nil {
		t.Error("token signed with a different secret should not parse")
	}
}

func TestGenerateToken_DefaultTTL(t *testing.T) {
	token, err := GenerateToken("dashboard", 0)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 11*time.Hour || ttl > 13*time.Hour {
		t.Errorf("default TTL should be ~12h, got %v", ttl)
	}
}
