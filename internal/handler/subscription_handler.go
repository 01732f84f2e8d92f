package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/pastebridge/internal/middleware"
	"github.com/hitoshi/pastebridge/internal/model"
	"github.com/hitoshi/pastebridge/internal/subscription"
)

// SubscriptionServiceInterface はプランハンドラーが必要とするサービスインターフェース。
type SubscriptionServiceInterface interface {
	// Plans は提供中のプラン一覧を返す。
	Plans() []subscription.Plan
	// ChangePlan はアカウントのプランを変更する。
	ChangePlan(ctx context.Context, account *model.Account, planID string) (*model.Account, error)
}

// SubscriptionHandler は料金プランのHTTPハンドラー。
type SubscriptionHandler struct {
	service SubscriptionServiceInterface
}

// NewSubscriptionHandler はSubscriptionHandlerを生成する。
func NewSubscriptionHandler(service SubscriptionServiceInterface) *SubscriptionHandler {
	return &SubscriptionHandler{service: service}
}

// changePlanRequest はプラン変更リクエストのボディ。
type changePlanRequest struct {
	Plan string `json:"plan"`
}

// planResponse はプラン情報のAPIレスポンス。
type planResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	PriceCents  int      `json:"price_cents"`
	Currency    string   `json:"currency"`
	AccountType string   `json:"account_type"`
	Features    []string `json:"features"`
}

// ListPlans はプラン一覧を処理する。認証不要。
// GET /api/plans
func (h *SubscriptionHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans := h.service.Plans()
	resp := make([]planResponse, len(plans))
	for i, p := range plans {
		resp[i] = planResponse{
			ID:          p.ID,
			Name:        p.Name,
			PriceCents:  p.PriceCents,
			Currency:    p.Currency,
			AccountType: string(p.AccountType),
			Features:    p.Features,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"plans": resp})
}

// ChangePlan はプラン変更を処理する。
// POST /api/subscribe
func (h *SubscriptionHandler) ChangePlan(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req changePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	updated, err := h.service.ChangePlan(r.Context(), account, req.Plan)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toAccountResponse(updated))
}
