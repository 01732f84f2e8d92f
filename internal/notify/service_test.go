package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hitoshi/pastebridge/internal/model"
	"github.com/hitoshi/pastebridge/internal/repository"
	"github.com/hitoshi/pastebridge/internal/security"
)

// --- モック ---

type mockPushTokenRepo struct {
	upsertFn func(ctx context.Context, token *model.PushToken) error
	listFn   func(ctx context.Context, userID string) ([]*model.PushToken, error)
	deleteFn func(ctx context.Context, userID, token string) error
}

func (m *mockPushTokenRepo) Upsert(ctx context.Context, token *model.PushToken) error {
	return m.upsertFn(ctx, token)
}
func (m *mockPushTokenRepo) ListByUserID(ctx context.Context, userID string) ([]*model.PushToken, error) {
	return m.listFn(ctx, userID)
}
func (m *mockPushTokenRepo) Delete(ctx context.Context, userID, token string) error {
	return m.deleteFn(ctx, userID, token)
}

type mockWebhookRepo struct {
	createFn func(ctx context.Context, webhook *model.Webhook) error
	findFn   func(ctx context.Context, id string) (*model.Webhook, error)
	listFn   func(ctx context.Context, userID string) ([]*model.Webhook, error)
	deleteFn func(ctx context.Context, id, userID string) (bool, error)
}

func (m *mockWebhookRepo) Create(ctx context.Context, webhook *model.Webhook) error {
	return m.createFn(ctx, webhook)
}
func (m *mockWebhookRepo) FindByID(ctx context.Context, id string) (*model.Webhook, error) {
	if m.findFn != nil {
		return m.findFn(ctx, id)
	}
	return nil, nil
}
func (m *mockWebhookRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Webhook, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}
func (m *mockWebhookRepo) Delete(ctx context.Context, id, userID string) (bool, error) {
	return m.deleteFn(ctx, id, userID)
}

var (
	_ repository.PushTokenRepository = (*mockPushTokenRepo)(nil)
	_ repository.WebhookRepository   = (*mockWebhookRepo)(nil)
)

func assertAPIError(t *testing.T, err error, wantCode string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != wantCode {
		t.Errorf("error code = %q, want %q", apiErr.Code, wantCode)
	}
}

// --- テスト ---

// TestService_RegisterPushToken はトークン登録を検証する。
func TestService_RegisterPushToken(t *testing.T) {
	var saved *model.PushToken
	repo := &mockPushTokenRepo{
		upsertFn: func(ctx context.Context, token *model.PushToken) error {
			saved = token
			return nil
		},
	}
	svc := NewService(repo, &mockWebhookRepo{}, security.NewSSRFGuard())

	pt, err := svc.RegisterPushToken(context.Background(), "user-1", "  fcm-token-abc  ")
	if err != nil {
		t.Fatalf("RegisterPushToken returned error: %v", err)
	}
	if saved == nil {
		t.Fatal("expected repo.Upsert to be called")
	}
	if pt.Token != "fcm-token-abc" {
		t.Errorf("Token = %q, want trimmed", pt.Token)
	}

	t.Run("空トークン", func(t *testing.T) {
		_, err := svc.RegisterPushToken(context.Background(), "user-1", "   ")
		assertAPIError(t, err, model.ErrCodeValidation)
	})
}

// TestService_CreateWebhook はWebhook登録を検証する。
func TestService_CreateWebhook(t *testing.T) {
	var saved *model.Webhook
	repo := &mockWebhookRepo{
		createFn: func(ctx context.Context, webhook *model.Webhook) error {
			saved = webhook
			return nil
		},
	}
	svc := NewService(&mockPushTokenRepo{}, repo, security.NewSSRFGuard())

	wh, err := svc.CreateWebhook(context.Background(), "user-1", "https://hooks.example.com/pastebridge", nil)
	if err != nil {
		t.Fatalf("CreateWebhook returned error: %v", err)
	}
	if saved == nil {
		t.Fatal("expected repo.Create to be called")
	}
	// イベント未指定はデフォルトに落ちる
	if len(wh.Events) != 1 || wh.Events[0] != "new_entry" {
		t.Errorf("Events = %v, want [new_entry]", wh.Events)
	}
	// シークレットは32バイトのhex
	if len(wh.Secret) != 64 {
		t.Errorf("len(Secret) = %d, want 64", len(wh.Secret))
	}
	if !wh.Active {
		t.Error("expected webhook to be active")
	}
}

// TestService_CreateWebhook_BlockedURL はプライベートネットワーク宛URLの拒否を検証する。
func TestService_CreateWebhook_BlockedURL(t *testing.T) {
	svc := NewService(&mockPushTokenRepo{}, &mockWebhookRepo{}, security.NewSSRFGuard())

	tests := []string{
		"http://localhost:8080/hook",
		"http://192.168.1.10/hook",
		"http://169.254.169.254/latest/meta-data/",
		"ftp://example.com/hook",
		"",
	}
	for _, rawURL := range tests {
		t.Run(rawURL, func(t *testing.T) {
			_, err := svc.CreateWebhook(context.Background(), "user-1", rawURL, nil)
			assertAPIError(t, err, model.ErrCodeInvalidWebhookURL)
		})
	}
}

// TestService_CreateWebhook_InvalidEvent は未定義イベントの拒否を検証する。
func TestService_CreateWebhook_InvalidEvent(t *testing.T) {
	svc := NewService(&mockPushTokenRepo{}, &mockWebhookRepo{}, security.NewSSRFGuard())

	_, err := svc.CreateWebhook(context.Background(), "user-1", "https://hooks.example.com/x", []string{"deleted_account"})
	assertAPIError(t, err, model.ErrCodeValidation)
}

// TestService_CreateWebhook_Limit は登録上限を検証する。
func TestService_CreateWebhook_Limit(t *testing.T) {
	repo := &mockWebhookRepo{
		listFn: func(ctx context.Context, userID string) ([]*model.Webhook, error) {
			existing := make([]*model.Webhook, MaxWebhooksPerUser)
			for i := range existing {
				existing[i] = &model.Webhook{ID: fmt.Sprintf("wh-%d", i)}
			}
			return existing, nil
		},
	}
	svc := NewService(&mockPushTokenRepo{}, repo, security.NewSSRFGuard())

	_, err := svc.CreateWebhook(context.Background(), "user-1", "https://hooks.example.com/x", nil)
	assertAPIError(t, err, model.ErrCodeValidation)
}

// TestService_DeleteWebhook は削除と未検出エラーを検証する。
func TestService_DeleteWebhook(t *testing.T) {
	repo := &mockWebhookRepo{
		deleteFn: func(ctx context.Context, id, userID string) (bool, error) {
			return id == "wh-1" && userID == "user-1", nil
		},
	}
	svc := NewService(&mockPushTokenRepo{}, repo, security.NewSSRFGuard())

	t.Run("成功", func(t *testing.T) {
		if err := svc.DeleteWebhook(context.Background(), "user-1", "wh-1"); err != nil {
			t.Errorf("DeleteWebhook returned error: %v", err)
		}
	})

	t.Run("他ユーザーのWebhook", func(t *testing.T) {
		err := svc.DeleteWebhook(context.Background(), "user-2", "wh-1")
		assertAPIError(t, err, model.ErrCodeWebhookNotFound)
	})
}
