package repository

import (
	"testing"
)

// PostgresAccountRepoはAccountRepositoryインターフェースを満たすことを検証
func TestPostgresAccountRepo_ImplementsInterface(t *testing.T) {
	var _ AccountRepository = (*PostgresAccountRepo)(nil)
}

// PostgresPasswordResetRepoはPasswordResetRepositoryインターフェースを満たすことを検証
func TestPostgresPasswordResetRepo_ImplementsInterface(t *testing.T) {
	var _ PasswordResetRepository = (*PostgresPasswordResetRepo)(nil)
}

// PostgresFeedbackRepoはFeedbackRepositoryインターフェースを満たすことを検証
func TestPostgresFeedbackRepo_ImplementsInterface(t *testing.T) {
	var _ FeedbackRepository = (*PostgresFeedbackRepo)(nil)
}

// PostgresPushTokenRepoはPushTokenRepositoryインターフェースを満たすことを検証
func TestPostgresPushTokenRepo_ImplementsInterface(t *testing.T) {
	var _ PushTokenRepository = (*PostgresPushTokenRepo)(nil)
}

// PostgresWebhookRepoはWebhookRepositoryインターフェースを満たすことを検証
func TestPostgresWebhookRepo_ImplementsInterface(t *testing.T) {
	var _ WebhookRepository = (*PostgresWebhookRepo)(nil)
}

// NewPostgresAccountRepoが正しく初期化されることを検証
func TestNewPostgresAccountRepo_Initializes(t *testing.T) {
	repo := NewPostgresAccountRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}
