package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/pastebridge/internal/auth"
	"github.com/hitoshi/pastebridge/internal/middleware"
	"github.com/hitoshi/pastebridge/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Register は新規アカウントを登録する。
	Register(ctx context.Context, email, password, name string) (*auth.Session, error)
	// Login はメールアドレスとパスワードで認証する。
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	// UpdateProfile は表示名とメールアドレスを更新する。
	UpdateProfile(ctx context.Context, userID, name, email string) (*model.Account, error)
	// ChangePassword はパスワードを変更する。
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	// ForgotPassword はパスワード再設定トークンを発行する。
	ForgotPassword(ctx context.Context, email string) (string, error)
	// ResetPassword は再設定トークンでパスワードを変更する。
	ResetPassword(ctx context.Context, token, newPassword string) error
	// DeleteAccount はアカウントを退会処理する。
	DeleteAccount(ctx context.Context, userID string) error
}

// AuthHandler は認証・アカウント管理のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// registerRequest はアカウント登録リクエストのボディ。
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// updateProfileRequest はプロフィール更新リクエストのボディ。
type updateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// changePasswordRequest はパスワード変更リクエストのボディ。
type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// forgotPasswordRequest はパスワード再設定要求のボディ。
type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// resetPasswordRequest はパスワード再設定実行のボディ。
type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// accountResponse はアカウント情報のAPIレスポンス。
type accountResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	AccountType string    `json:"account_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// sessionResponse はログイン成功時のレスポンス。
type sessionResponse struct {
	User  accountResponse `json:"user"`
	Token string          `json:"token"`
}

// Register はアカウント登録を処理する。
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	session, err := h.service.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(sessionResponse{
		User:  toAccountResponse(session.Account),
		Token: session.Token,
	})
}

// Login はログインを処理する。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sessionResponse{
		User:  toAccountResponse(session.Account),
		Token: session.Token,
	})
}

// Me はログイン中のアカウント情報を返す。
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toAccountResponse(account))
}

// UpdateProfile はプロフィール更新を処理する。
// PUT /api/auth/me
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), account.ID, req.Name, req.Email)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toAccountResponse(updated))
}

// ChangePassword はパスワード変更を処理する。
// PUT /api/auth/password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	if err := h.service.ChangePassword(r.Context(), account.ID, req.CurrentPassword, req.NewPassword); err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ForgotPassword はパスワード再設定トークンの発行を処理する。
// POST /api/auth/forgot-password
// メールアドレスの存在有無を漏らさないため、未登録でも成功レスポンスを返す。
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	token, err := h.service.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	resp := map[string]string{
		"message": "登録されているメールアドレスであれば、再設定手順を送信しました。",
	}
	// メール配信は未接続のため、発行したトークンをレスポンスに含める。
	// TODO: メール配信接続後はreset_tokenをレスポンスから外す
	if token != "" {
		resp["reset_token"] = token
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// ResetPassword はパスワード再設定の実行を処理する。
// POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "パスワードを再設定しました。新しいパスワードでログインしてください。",
	})
}

// DeleteAccount は退会を処理する。所有ノートパッドはゲスト所有に戻る。
// DELETE /api/auth/me
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	if err := h.service.DeleteAccount(r.Context(), account.ID); err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toAccountResponse はmodel.AccountからAPIレスポンスに変換する。
func toAccountResponse(account *model.Account) accountResponse {
	return accountResponse{
		ID:          account.ID,
		Email:       account.Email,
		Name:        account.Name,
		AccountType: string(account.AccountType),
		CreatedAt:   account.CreatedAt,
	}
}
