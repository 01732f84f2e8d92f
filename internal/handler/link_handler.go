package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/pastebridge/internal/linker"
	"github.com/hitoshi/pastebridge/internal/middleware"
	"github.com/hitoshi/pastebridge/internal/model"
)

// LinkerServiceInterface は連携ハンドラーが必要とするサービスインターフェース。
type LinkerServiceInterface interface {
	// Link はノートパッドをアカウントに連携する。
	Link(ctx context.Context, code string, account *model.Account) (*model.Notepad, error)
	// LinkMany は複数コードを一括で連携する。
	LinkMany(ctx context.Context, codes []string, account *model.Account) (*linker.BulkResult, error)
}

// LinkMetrics は連携ハンドラーが記録するメトリクスのインターフェース。
type LinkMetrics interface {
	RecordNotepadLinked()
}

// LinkHandler はノートパッド連携のHTTPハンドラー。
type LinkHandler struct {
	service LinkerServiceInterface
	metrics LinkMetrics
	helper  *NotepadHandler
}

// NewLinkHandler はLinkHandlerを生成する。
func NewLinkHandler(service LinkerServiceInterface, metrics LinkMetrics, helper *NotepadHandler) *LinkHandler {
	return &LinkHandler{
		service: service,
		metrics: metrics,
		helper:  helper,
	}
}

// bulkLinkRequest は一括連携リクエストのボディ。
type bulkLinkRequest struct {
	Codes []string `json:"codes"`
}

// bulkSkipResponse は一括連携で連携されなかった1件のレスポンス。
type bulkSkipResponse struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// Link は単体連携を処理する。
// POST /api/notepads/{code}/link
func (h *LinkHandler) Link(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	code := chi.URLParam(r, "code")

	n, err := h.service.Link(r.Context(), code, account)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	h.metrics.RecordNotepadLinked()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.helper.toNotepadResponse(n))
}

// BulkLink は一括連携を処理する。
// POST /api/notepads/link
// 1件の失敗で全体を止めず、新規に連携できたものとスキップ理由を両方返す。
// 空リストでも200で空の結果を返す。
func (h *LinkHandler) BulkLink(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req bulkLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	result, err := h.service.LinkMany(r.Context(), req.Codes, account)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	for range result.Linked {
		h.metrics.RecordNotepadLinked()
	}

	linked := make([]notepadResponse, len(result.Linked))
	for i, n := range result.Linked {
		linked[i] = h.helper.toNotepadResponse(n)
	}
	skipped := make([]bulkSkipResponse, len(result.Skipped))
	for i, sk := range result.Skipped {
		skipped[i] = bulkSkipResponse{Code: sk.Code, Reason: sk.Reason}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"linked_count":  result.LinkedCount,
		"linked":        linked,
		"skipped_count": len(skipped),
		"skipped":       skipped,
	})
}
