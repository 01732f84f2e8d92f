// Package notify はプッシュ通知トークンとWebhookの登録管理を提供する。
// 通知の配信自体は外部の中継サービスが担い、本パッケージは登録情報のみを扱う。
package notify

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/pastebridge/internal/model"
	"github.com/hitoshi/pastebridge/internal/repository"
	"github.com/hitoshi/pastebridge/internal/security"
)

// MaxWebhooksPerUser は1ユーザーあたりのWebhook登録上限。
const MaxWebhooksPerUser = 10

// validWebhookEvents は購読可能なイベント。
var validWebhookEvents = map[string]bool{
	"new_entry":       true,
	"notepad_cleared": true,
	"notepad_expired": true,
}

// Service は通知先登録のサービス層。
type Service struct {
	pushTokens repository.PushTokenRepository
	webhooks   repository.WebhookRepository
	ssrfGuard  security.SSRFGuardService
	now        func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(pushTokens repository.PushTokenRepository, webhooks repository.WebhookRepository, ssrfGuard security.SSRFGuardService) *Service {
	return &Service{
		pushTokens: pushTokens,
		webhooks:   webhooks,
		ssrfGuard:  ssrfGuard,
		now:        time.Now,
	}
}

// RegisterPushToken はプッシュ通知トークンを登録する。同一トークンの再登録は冪等。
func (s *Service) RegisterPushToken(ctx context.Context, userID, token string) (*model.PushToken, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, model.NewValidationError("トークンが空です")
	}

	pt := &model.PushToken{
		ID:        uuid.New().String(),
		UserID:    userID,
		Token:     token,
		CreatedAt: s.now(),
	}
	if err := s.pushTokens.Upsert(ctx, pt); err != nil {
		return nil, fmt.Errorf("プッシュトークンの登録に失敗しました: %w", err)
	}

	slog.Info("push token registered", slog.String("user_id", userID))
	return pt, nil
}

// ListPushTokens はユーザーの登録トークン一覧を返す。
func (s *Service) ListPushTokens(ctx context.Context, userID string) ([]*model.PushToken, error) {
	tokens, err := s.pushTokens.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("プッシュトークン一覧の取得に失敗しました: %w", err)
	}
	return tokens, nil
}

// DeletePushToken は登録トークンを削除する。未登録トークンの削除も成功扱いとする。
func (s *Service) DeletePushToken(ctx context.Context, userID, token string) error {
	if err := s.pushTokens.Delete(ctx, userID, token); err != nil {
		return fmt.Errorf("プッシュトークンの削除に失敗しました: %w", err)
	}
	return nil
}

// CreateWebhook はWebhookを登録し、配信検証用のシークレットを発行する。
// URLはSSRF対策の検証を通過する必要がある。プライベートネットワーク宛は拒否する。
func (s *Service) CreateWebhook(ctx context.Context, userID, rawURL string, events []string) (*model.Webhook, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := s.ssrfGuard.ValidateURL(rawURL); err != nil {
		return nil, model.NewInvalidWebhookURLError(err.Error())
	}

	if len(events) == 0 {
		events = model.DefaultWebhookEvents
	}
	for _, ev := range events {
		if !validWebhookEvents[ev] {
			return nil, model.NewValidationError(fmt.Sprintf("未定義のイベントです: %s", ev))
		}
	}

	existing, err := s.webhooks.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Webhook一覧の取得に失敗しました: %w", err)
	}
	if len(existing) >= MaxWebhooksPerUser {
		return nil, model.NewValidationError(fmt.Sprintf("Webhookの登録上限（%d件）に達しています", MaxWebhooksPerUser))
	}

	secret, err := generateSecret()
	if err != nil {
		return nil, fmt.Errorf("シークレットの生成に失敗しました: %w", err)
	}

	webhook := &model.Webhook{
		ID:        uuid.New().String(),
		UserID:    userID,
		URL:       rawURL,
		Events:    events,
		Secret:    secret,
		Active:    true,
		CreatedAt: s.now(),
	}
	if err := s.webhooks.Create(ctx, webhook); err != nil {
		return nil, fmt.Errorf("Webhookの登録に失敗しました: %w", err)
	}

	slog.Info("webhook registered",
		slog.String("webhook_id", webhook.ID),
		slog.String("user_id", userID),
	)
	return webhook, nil
}

// ListWebhooks はユーザーのWebhook一覧を返す。
func (s *Service) ListWebhooks(ctx context.Context, userID string) ([]*model.Webhook, error) {
	webhooks, err := s.webhooks.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Webhook一覧の取得に失敗しました: %w", err)
	}
	return webhooks, nil
}

// DeleteWebhook はユーザー所有のWebhookを削除する。
// 他ユーザーのWebhookは存在しないものとして扱う。
func (s *Service) DeleteWebhook(ctx context.Context, userID, id string) error {
	ok, err := s.webhooks.Delete(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("Webhookの削除に失敗しました: %w", err)
	}
	if !ok {
		return model.NewWebhookNotFoundError(id)
	}

	slog.Info("webhook deleted",
		slog.String("webhook_id", id),
		slog.String("user_id", userID),
	)
	return nil
}

// generateSecret は配信署名用の32バイトシークレットを生成する。
func generateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
