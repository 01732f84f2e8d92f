package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/pastebridge/internal/feedback"
	"github.com/hitoshi/pastebridge/internal/middleware"
	"github.com/hitoshi/pastebridge/internal/model"
)

// FeedbackServiceInterface はフィードバックハンドラーが必要とするサービスインターフェース。
type FeedbackServiceInterface interface {
	// Submit はフィードバックを受け付ける。
	Submit(ctx context.Context, input feedback.SubmitInput) (*model.Feedback, error)
	// ListMine はユーザーが投稿したフィードバック一覧を返す。
	ListMine(ctx context.Context, userID string) ([]*model.Feedback, error)
	// List は全フィードバックをステータスで絞り込んで返す（管理用）。
	List(ctx context.Context, status model.FeedbackStatus, page, perPage int) (*feedback.ListPage, error)
	// UpdateStatus は対応状況を更新する（管理用）。
	UpdateStatus(ctx context.Context, id string, status model.FeedbackStatus) (*model.Feedback, error)
	// Delete はフィードバックを削除する（管理用）。
	Delete(ctx context.Context, id string) error
}

// FeedbackHandler はフィードバックのHTTPハンドラー。
type FeedbackHandler struct {
	service FeedbackServiceInterface
}

// NewFeedbackHandler はFeedbackHandlerを生成する。
func NewFeedbackHandler(service FeedbackServiceInterface) *FeedbackHandler {
	return &FeedbackHandler{service: service}
}

// submitFeedbackRequest はフィードバック投稿リクエストのボディ。
type submitFeedbackRequest struct {
	Email       *string `json:"email"`
	Category    string  `json:"category"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Severity    string  `json:"severity"`
}

// updateFeedbackStatusRequest はステータス更新リクエストのボディ。
type updateFeedbackStatusRequest struct {
	Status string `json:"status"`
}

// feedbackResponse はフィードバックのAPIレスポンス。
type feedbackResponse struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SubmitFeedback はフィードバック投稿を処理する。
// POST /api/feedback
// 認証は任意。ログイン済みなら投稿者として記録される。
func (h *FeedbackHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req submitFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	input := feedback.SubmitInput{
		Email:       req.Email,
		Category:    model.FeedbackCategory(req.Category),
		Title:       req.Title,
		Description: req.Description,
		Severity:    req.Severity,
	}
	if account, err := middleware.AccountFromContext(r.Context()); err == nil {
		input.UserID = &account.ID
		input.Email = &account.Email
	}

	fb, err := h.service.Submit(r.Context(), input)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toFeedbackResponse(fb))
}

// ListMyFeedback は自分の投稿一覧を処理する。
// GET /api/feedback
func (h *FeedbackHandler) ListMyFeedback(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	items, err := h.service.ListMine(r.Context(), account.ID)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	resp := make([]feedbackResponse, len(items))
	for i, fb := range items {
		resp[i] = toFeedbackResponse(fb)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"items": resp, "total": len(resp)})
}

// ListFeedback は管理用の全件一覧を処理する。
// GET /api/admin/feedback?status={status}&page={page}&per_page={perPage}
func (h *FeedbackHandler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	status := model.FeedbackStatus(r.URL.Query().Get("status"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	result, err := h.service.List(r.Context(), status, page, perPage)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	items := make([]feedbackResponse, len(result.Items))
	for i, fb := range result.Items {
		items[i] = toFeedbackResponse(fb)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"items": items,
		"total": result.Total,
		"page":  result.Page,
		"pages": result.Pages,
	})
}

// UpdateFeedbackStatus は管理用のステータス更新を処理する。
// PATCH /api/admin/feedback/{id}/status
func (h *FeedbackHandler) UpdateFeedbackStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateFeedbackStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	fb, err := h.service.UpdateStatus(r.Context(), id, model.FeedbackStatus(req.Status))
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toFeedbackResponse(fb))
}

// DeleteFeedback は管理用のフィードバック削除を処理する。
// DELETE /api/admin/feedback/{id}
func (h *FeedbackHandler) DeleteFeedback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toFeedbackResponse はmodel.FeedbackからAPIレスポンスに変換する。
func toFeedbackResponse(fb *model.Feedback) feedbackResponse {
	return feedbackResponse{
		ID:          fb.ID,
		Category:    string(fb.Category),
		Title:       fb.Title,
		Description: fb.Description,
		Severity:    fb.Severity,
		Status:      string(fb.Status),
		CreatedAt:   fb.CreatedAt,
		UpdatedAt:   fb.UpdatedAt,
	}
}
