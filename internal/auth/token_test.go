package auth

import (
	"strings"
	"testing"
	"time"
)

var testSecret = []byte("test-jwt-secret-32bytes-long!!!!!")

// TestGenerateAndParseToken はトークンの往復を検証する。
func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("user-1", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("token %q is not a JWT", token)
	}

	userID, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken returned error: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("userID = %q, want %q", userID, "user-1")
	}
}

// TestParseToken_WrongSecret は署名鍵が異なるトークンを拒否することを検証する。
func TestParseToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("user-1", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	if _, err := ParseToken(token, []byte("different-secret")); err == nil {
		t.Error("expected error for wrong secret")
	}
}

// TestParseToken_Expired は期限切れトークンを拒否することを検証する。
func TestParseToken_Expired(t *testing.T) {
	token, err := GenerateToken("user-1", testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	if _, err := ParseToken(token, testSecret); err == nil {
		t.Error("expected error for expired token")
	}
}

// TestParseToken_Garbage はJWTでない文字列を拒否することを検証する。
func TestParseToken_Garbage(t *testing.T) {
	if _, err := ParseToken("not-a-jwt", testSecret); err == nil {
		t.Error("expected error for garbage token")
	}
}
