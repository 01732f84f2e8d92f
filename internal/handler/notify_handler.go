package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/pastebridge/internal/middleware"
	"github.com/hitoshi/pastebridge/internal/model"
)

// NotifyServiceInterface は通知先登録ハンドラーが必要とするサービスインターフェース。
type NotifyServiceInterface interface {
	// RegisterPushToken はプッシュ通知トークンを登録する。
	RegisterPushToken(ctx context.Context, userID, token string) (*model.PushToken, error)
	// ListPushTokens はユーザーの登録トークン一覧を返す。
	ListPushTokens(ctx context.Context, userID string) ([]*model.PushToken, error)
	// DeletePushToken は登録トークンを削除する。
	DeletePushToken(ctx context.Context, userID, token string) error
	// CreateWebhook はWebhookを登録する。
	CreateWebhook(ctx context.Context, userID, rawURL string, events []string) (*model.Webhook, error)
	// ListWebhooks はユーザーのWebhook一覧を返す。
	ListWebhooks(ctx context.Context, userID string) ([]*model.Webhook, error)
	// DeleteWebhook はユーザー所有のWebhookを削除する。
	DeleteWebhook(ctx context.Context, userID, id string) error
}

// NotifyHandler はプッシュトークン・Webhook登録のHTTPハンドラー。
type NotifyHandler struct {
	service NotifyServiceInterface
}

// NewNotifyHandler はNotifyHandlerを生成する。
func NewNotifyHandler(service NotifyServiceInterface) *NotifyHandler {
	return &NotifyHandler{service: service}
}

// registerPushTokenRequest はプッシュトークン登録リクエストのボディ。
type registerPushTokenRequest struct {
	Token string `json:"token"`
}

// createWebhookRequest はWebhook登録リクエストのボディ。
type createWebhookRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
}

// webhookResponse はWebhookのAPIレスポンス。
// シークレットは登録時のレスポンスにのみ含める。
type webhookResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Events    []string  `json:"events"`
	Secret    string    `json:"secret,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// RegisterPushToken はプッシュトークン登録を処理する。
// POST /api/push-tokens
func (h *NotifyHandler) RegisterPushToken(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req registerPushTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	pt, err := h.service.RegisterPushToken(r.Context(), account.ID, req.Token)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"token":      pt.Token,
		"created_at": pt.CreatedAt,
	})
}

// ListPushTokens は登録トークン一覧を処理する。
// GET /api/push-tokens
func (h *NotifyHandler) ListPushTokens(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	tokens, err := h.service.ListPushTokens(r.Context(), account.ID)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	items := make([]map[string]any, len(tokens))
	for i, pt := range tokens {
		items[i] = map[string]any{
			"token":      pt.Token,
			"created_at": pt.CreatedAt,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"items": items, "total": len(items)})
}

// DeletePushToken はプッシュトークン削除を処理する。
// DELETE /api/push-tokens
// ボディで対象トークンを指定する。トークン値はURLに含めない。
func (h *NotifyHandler) DeletePushToken(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req registerPushTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	if err := h.service.DeletePushToken(r.Context(), account.ID, req.Token); err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateWebhook はWebhook登録を処理する。
// POST /api/webhooks
func (h *NotifyHandler) CreateWebhook(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	webhook, err := h.service.CreateWebhook(r.Context(), account.ID, req.URL, req.Events)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(webhookResponse{
		ID:        webhook.ID,
		URL:       webhook.URL,
		Events:    webhook.Events,
		Secret:    webhook.Secret,
		Active:    webhook.Active,
		CreatedAt: webhook.CreatedAt,
	})
}

// ListWebhooks はWebhook一覧を処理する。シークレットは含めない。
// GET /api/webhooks
func (h *NotifyHandler) ListWebhooks(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	webhooks, err := h.service.ListWebhooks(r.Context(), account.ID)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	items := make([]webhookResponse, len(webhooks))
	for i, wh := range webhooks {
		items[i] = webhookResponse{
			ID:        wh.ID,
			URL:       wh.URL,
			Events:    wh.Events,
			Active:    wh.Active,
			CreatedAt: wh.CreatedAt,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"items": items, "total": len(items)})
}

// DeleteWebhook はWebhook削除を処理する。
// DELETE /api/webhooks/{id}
func (h *NotifyHandler) DeleteWebhook(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id := chi.URLParam(r, "id")

	if err := h.service.DeleteWebhook(r.Context(), account.ID, id); err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
