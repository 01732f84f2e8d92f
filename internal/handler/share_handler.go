package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/pastebridge/internal/middleware"
	"github.com/hitoshi/pastebridge/internal/model"
)

// ShareServiceInterface は共有ハンドラーが必要とするサービスインターフェース。
type ShareServiceInterface interface {
	// Share はノートパッドを指定メールアドレスのユーザーに共有する。
	Share(ctx context.Context, code, ownerID, targetEmail string) (*model.NotepadShare, error)
	// ListSharedWithMe はユーザーに共有されたノートパッド一覧を返す。
	ListSharedWithMe(ctx context.Context, userID string) ([]*model.Notepad, error)
	// ListCollaborators はノートパッドの共有先アカウント一覧を返す。
	ListCollaborators(ctx context.Context, code, requesterID string) ([]*model.Account, error)
	// Unshare は共有を解除する。
	Unshare(ctx context.Context, code, requesterID, targetUserID string) error
}

// ShareHandler はノートパッド共有のHTTPハンドラー。
type ShareHandler struct {
	service ShareServiceInterface
	helper  *NotepadHandler
}

// NewShareHandler はShareHandlerを生成する。
func NewShareHandler(service ShareServiceInterface, helper *NotepadHandler) *ShareHandler {
	return &ShareHandler{
		service: service,
		helper:  helper,
	}
}

// shareRequest は共有リクエストのボディ。
type shareRequest struct {
	Email string `json:"email"`
}

// Share は共有の作成を処理する。
// POST /api/notepads/{code}/shares
func (h *ShareHandler) Share(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	code := chi.URLParam(r, "code")

	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	sh, err := h.service.Share(r.Context(), code, account.ID, req.Email)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"notepad_code": code,
		"user_id":      sh.UserID,
		"created_at":   sh.CreatedAt,
	})
}

// ListSharedWithMe は共有されたノートパッド一覧を処理する。
// GET /api/notepads/shared
func (h *ShareHandler) ListSharedWithMe(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	notepads, err := h.service.ListSharedWithMe(r.Context(), account.ID)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	items := make([]notepadResponse, len(notepads))
	for i, n := range notepads {
		items[i] = h.helper.toNotepadResponse(n)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"items": items, "total": len(items)})
}

// ListCollaborators は共有先一覧の取得を処理する。
// GET /api/notepads/{code}/shares
func (h *ShareHandler) ListCollaborators(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	code := chi.URLParam(r, "code")

	collaborators, err := h.service.ListCollaborators(r.Context(), code, account.ID)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	items := make([]accountResponse, len(collaborators))
	for i, a := range collaborators {
		items[i] = toAccountResponse(a)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"collaborators": items, "total": len(items)})
}

// Unshare は共有解除を処理する。
// DELETE /api/notepads/{code}/shares/{userID}
func (h *ShareHandler) Unshare(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	code := chi.URLParam(r, "code")
	targetUserID := chi.URLParam(r, "userID")

	if err := h.service.Unshare(r.Context(), code, account.ID, targetUserID); err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
