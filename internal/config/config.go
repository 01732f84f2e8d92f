package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Auth
	JWTSecret   string
	TokenMaxAge time.Duration // Bearerトークンの有効期間
	ResetTTL    time.Duration // パスワード再設定トークンの有効期間

	// Retention（アカウント種別ごとの保持期間。プロダクト価格改定と独立にテスト可能に
	// するため、ハードコードせず設定として注入する）
	RetentionGuest   time.Duration
	RetentionUser    time.Duration
	CleanupGraceDays int // 論理期限切れから物理削除までの猶予日数

	// Rate Limit（req/min/IP）
	RateLimitGeneral int
	RateLimitCreate  int

	// Admin
	AdminAPIKey string // 空文字の場合は管理APIを無効化する（常に404を返す）

	// Server
	ServerPort string
	BaseURL    string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.TokenMaxAge = getEnvDuration("TOKEN_MAX_AGE", 30*24*time.Hour)
	cfg.ResetTTL = getEnvDuration("RESET_TOKEN_TTL", time.Hour)
	cfg.RetentionGuest = time.Duration(getEnvInt("RETENTION_GUEST_DAYS", 90)) * 24 * time.Hour
	cfg.RetentionUser = time.Duration(getEnvInt("RETENTION_USER_DAYS", 365)) * 24 * time.Hour
	cfg.CleanupGraceDays = getEnvInt("CLEANUP_GRACE_DAYS", 7)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitCreate = getEnvInt("RATE_LIMIT_CREATE", 10)
	cfg.AdminAPIKey = getEnvString("ADMIN_API_KEY", "")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.BaseURL = getEnvString("BASE_URL", "http://localhost:"+cfg.ServerPort)
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	if !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return nil, fmt.Errorf("BASE_URL must start with http:// or https://: %s", cfg.BaseURL)
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
