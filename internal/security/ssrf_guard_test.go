package security

import (
	"testing"
	"time"
)

// TestValidateURL_AllowedURLs は公開URLが許可されることを検証する。
func TestValidateURL_AllowedURLs(t *testing.T) {
	guard := NewSSRFGuard()

	tests := []string{
		"https://example.com/hook",
		"http://example.com/hook",
		"https://hooks.example.org/pastebridge?token=abc",
		"https://8.8.8.8/hook",
	}
	for _, rawURL := range tests {
		t.Run(rawURL, func(t *testing.T) {
			if err := guard.ValidateURL(rawURL); err != nil {
				t.Errorf("ValidateURL(%q) = %v, want nil", rawURL, err)
			}
		})
	}
}

// TestValidateURL_BlockedURLs は内部ネットワーク・危険なURLが拒否されることを検証する。
func TestValidateURL_BlockedURLs(t *testing.T) {
	guard := NewSSRFGuard()

	tests := []struct {
		name   string
		rawURL string
	}{
		{"空URL", ""},
		{"スキームなし", "example.com/hook"},
		{"ftpスキーム", "ftp://example.com/hook"},
		{"javascriptスキーム", "javascript:alert(1)"},
		{"localhost", "http://localhost/hook"},
		{"ループバックIP", "http://127.0.0.1/hook"},
		{"プライベートIP 10系", "http://10.0.0.1/hook"},
		{"プライベートIP 172系", "http://172.16.0.1/hook"},
		{"プライベートIP 192系", "http://192.168.1.1/hook"},
		{"クラウドメタデータIP", "http://169.254.169.254/latest/meta-data/"},
		{"IPv6ループバック", "http://[::1]/hook"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := guard.ValidateURL(tt.rawURL); err == nil {
				t.Errorf("ValidateURL(%q) = nil, want error", tt.rawURL)
			}
		})
	}
}

// TestNewSafeClient はSSRF防止付きクライアントが生成されることを検証する。
func TestNewSafeClient(t *testing.T) {
	guard := NewSSRFGuard()
	client := guard.NewSafeClient(10 * time.Second)
	if client == nil {
		t.Fatal("expected non-nil client")
	}
	if client.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", client.Timeout)
	}
}
