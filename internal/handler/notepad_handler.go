// Package handler はHTTP APIのハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/pastebridge/internal/middleware"
	"github.com/hitoshi/pastebridge/internal/model"
	"github.com/hitoshi/pastebridge/internal/notepad"
)

// NotepadServiceInterface はノートパッドハンドラーが必要とするサービスインターフェース。
type NotepadServiceInterface interface {
	// Create は新しいノートパッドを作成する。
	Create(ctx context.Context, userID *string, accountType model.AccountType) (*model.Notepad, error)
	// Get は指定コードのノートパッドを取得する。
	Get(ctx context.Context, code string) (*model.Notepad, error)
	// AppendEntry はエントリを追記し、更新後のノートパッドを返す。
	AppendEntry(ctx context.Context, code, text string) (*model.Notepad, error)
	// ClearEntries は全エントリを削除する。
	ClearEntries(ctx context.Context, code string, requesterID *string) (*model.Notepad, error)
	// Delete はノートパッドを物理削除する。
	Delete(ctx context.Context, code string, requesterID *string) error
	// List はユーザーの所有ノートパッド一覧を返す。
	List(ctx context.Context, userID string) ([]*model.Notepad, error)
	// Search は所有ノートパッドを検索する。
	Search(ctx context.Context, userID, query string, page, perPage int) (*notepad.SearchPage, error)
}

// NotepadMetrics はノートパッドハンドラーが記録するメトリクスのインターフェース。
type NotepadMetrics interface {
	RecordNotepadCreated(accountType string)
	RecordEntryAppended()
}

// NotepadHandler はノートパッド管理のHTTPハンドラー。
type NotepadHandler struct {
	service NotepadServiceInterface
	metrics NotepadMetrics
	now     func() time.Time
}

// NewNotepadHandler はNotepadHandlerを生成する。
func NewNotepadHandler(service NotepadServiceInterface, metrics NotepadMetrics) *NotepadHandler {
	return &NotepadHandler{
		service: service,
		metrics: metrics,
		now:     time.Now,
	}
}

// appendEntryRequest はエントリ追記リクエストのボディ。
type appendEntryRequest struct {
	Text string `json:"text"`
}

// entryResponse はエントリのAPIレスポンス。
type entryResponse struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// notepadResponse はノートパッドのAPIレスポンス。
// days_remainingとis_expiring_soonは読み取り時に導出する。
type notepadResponse struct {
	Code           string          `json:"code"`
	Entries        []entryResponse `json:"entries"`
	EntryCount     int             `json:"entry_count"`
	AccountType    string          `json:"account_type"`
	Linked         bool            `json:"linked"`
	ExpiresAt      *time.Time      `json:"expires_at"`
	DaysRemaining  *int            `json:"days_remaining"`
	IsExpiringSoon bool            `json:"is_expiring_soon"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// notepadSummaryResponse は一覧用のノートパッドレスポンス。エントリ本文を含まない。
type notepadSummaryResponse struct {
	Code           string     `json:"code"`
	EntryCount     int        `json:"entry_count"`
	AccountType    string     `json:"account_type"`
	ExpiresAt      *time.Time `json:"expires_at"`
	DaysRemaining  *int       `json:"days_remaining"`
	IsExpiringSoon bool       `json:"is_expiring_soon"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// CreateNotepad はノートパッド作成を処理する。
// POST /api/notepads
// 認証は任意。ログイン済みなら作成と同時にアカウント所有になる。
func (h *NotepadHandler) CreateNotepad(w http.ResponseWriter, r *http.Request) {
	var userID *string
	accountType := model.AccountTypeGuest

	if account, err := middleware.AccountFromContext(r.Context()); err == nil {
		userID = &account.ID
		accountType = account.AccountType
	}

	n, err := h.service.Create(r.Context(), userID, accountType)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	h.metrics.RecordNotepadCreated(string(accountType))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(h.toNotepadResponse(n))
}

// GetNotepad はノートパッド取得を処理する。
// GET /api/notepads/{code}
func (h *NotepadHandler) GetNotepad(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	n, err := h.service.Get(r.Context(), code)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.toNotepadResponse(n))
}

// AppendEntry はエントリ追記を処理する。
// POST /api/notepads/{code}/entries
func (h *NotepadHandler) AppendEntry(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req appendEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	n, err := h.service.AppendEntry(r.Context(), code, req.Text)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	h.metrics.RecordEntryAppended()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(h.toNotepadResponse(n))
}

// ClearEntries はエントリ全削除を処理する。
// DELETE /api/notepads/{code}/entries
func (h *NotepadHandler) ClearEntries(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	n, err := h.service.ClearEntries(r.Context(), code, requesterID(r))
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.toNotepadResponse(n))
}

// DeleteNotepad はノートパッド削除を処理する。
// DELETE /api/notepads/{code}
func (h *NotepadHandler) DeleteNotepad(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	if err := h.service.Delete(r.Context(), code, requesterID(r)); err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListNotepads は所有ノートパッド一覧を処理する。
// GET /api/notepads
func (h *NotepadHandler) ListNotepads(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	notepads, err := h.service.List(r.Context(), account.ID)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	now := h.now()
	items := make([]notepadSummaryResponse, len(notepads))
	for i, n := range notepads {
		items[i] = notepadSummaryResponse{
			Code:           n.Code,
			EntryCount:     len(n.Entries),
			AccountType:    string(n.AccountType),
			ExpiresAt:      n.ExpiresAt,
			DaysRemaining:  n.DaysRemaining(now),
			IsExpiringSoon: n.IsExpiringSoon(now),
			UpdatedAt:      n.UpdatedAt,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"items": items, "total": len(items)})
}

// searchResultResponse は検索結果1件のレスポンス。
type searchResultResponse struct {
	notepadSummaryResponse
	MatchingEntries int    `json:"matching_entries"`
	Preview         string `json:"preview"`
}

// SearchNotepads は所有ノートパッドの検索を処理する。
// GET /api/notepads/search?q={query}&page={page}&per_page={perPage}
func (h *NotepadHandler) SearchNotepads(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	query := r.URL.Query().Get("q")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	result, err := h.service.Search(r.Context(), account.ID, query, page, perPage)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	now := h.now()
	items := make([]searchResultResponse, len(result.Items))
	for i, sr := range result.Items {
		items[i] = searchResultResponse{
			notepadSummaryResponse: notepadSummaryResponse{
				Code:           sr.Code,
				EntryCount:     len(sr.Entries),
				AccountType:    string(sr.AccountType),
				ExpiresAt:      sr.ExpiresAt,
				DaysRemaining:  sr.DaysRemaining(now),
				IsExpiringSoon: sr.IsExpiringSoon(now),
				UpdatedAt:      sr.UpdatedAt,
			},
			MatchingEntries: sr.MatchingEntries,
			Preview:         sr.Preview,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"items": items,
		"total": result.Total,
		"page":  result.Page,
		"pages": result.Pages,
	})
}

// ExportNotepad はノートパッドのエクスポートを処理する。
// GET /api/notepads/{code}/export?format={txt|json|md}
func (h *NotepadHandler) ExportNotepad(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	format := notepad.ExportFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = notepad.ExportFormatText
	}
	if !notepad.ValidExportFormat(format) {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError(fmt.Sprintf("未対応のエクスポート形式です: %s", format)))
		return
	}

	n, err := h.service.Get(r.Context(), code)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	result, err := notepad.Export(n, format)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.Write(result.Data)
}

// --- ヘルパー関数 ---

// requesterID は認証済みリクエストのユーザーIDを返す。ゲストはnil。
func requesterID(r *http.Request) *string {
	if account, err := middleware.AccountFromContext(r.Context()); err == nil {
		return &account.ID
	}
	return nil
}

// toNotepadResponse はmodel.NotepadからAPIレスポンスに変換する。
func (h *NotepadHandler) toNotepadResponse(n *model.Notepad) notepadResponse {
	now := h.now()
	entries := make([]entryResponse, len(n.Entries))
	for i, e := range n.Entries {
		entries[i] = entryResponse{Text: e.Text, Timestamp: e.Timestamp}
	}
	return notepadResponse{
		Code:           n.Code,
		Entries:        entries,
		EntryCount:     len(n.Entries),
		AccountType:    string(n.AccountType),
		Linked:         n.UserID != nil,
		ExpiresAt:      n.ExpiresAt,
		DaysRemaining:  n.DaysRemaining(now),
		IsExpiringSoon: n.IsExpiringSoon(now),
		CreatedAt:      n.CreatedAt,
		UpdatedAt:      n.UpdatedAt,
	}
}
