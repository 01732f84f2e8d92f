package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/pastebridge/internal/auth"
	"github.com/hitoshi/pastebridge/internal/middleware"
	"github.com/hitoshi/pastebridge/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	registerFn       func(ctx context.Context, email, password, name string) (*auth.Session, error)
	loginFn          func(ctx context.Context, email, password string) (*auth.Session, error)
	updateProfileFn  func(ctx context.Context, userID, name, email string) (*model.Account, error)
	changePasswordFn func(ctx context.Context, userID, currentPassword, newPassword string) error
	forgotPasswordFn func(ctx context.Context, email string) (string, error)
	resetPasswordFn  func(ctx context.Context, token, newPassword string) error
	deleteAccountFn  func(ctx context.Context, userID string) error
}

func (m *mockAuthService) Register(ctx context.Context, email, password, name string) (*auth.Session, error) {
	return m.registerFn(ctx, email, password, name)
}
func (m *mockAuthService) Login(ctx context.Context, email, password string) (*auth.Session, error) {
	return m.loginFn(ctx, email, password)
}
func (m *mockAuthService) UpdateProfile(ctx context.Context, userID, name, email string) (*model.Account, error) {
	return m.updateProfileFn(ctx, userID, name, email)
}
func (m *mockAuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	return m.changePasswordFn(ctx, userID, currentPassword, newPassword)
}
func (m *mockAuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	return m.forgotPasswordFn(ctx, email)
}
func (m *mockAuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	return m.resetPasswordFn(ctx, token, newPassword)
}
func (m *mockAuthService) DeleteAccount(ctx context.Context, userID string) error {
	return m.deleteAccountFn(ctx, userID)
}

var _ AuthServiceInterface = (*mockAuthService)(nil)

func testAccount() *model.Account {
	return &model.Account{
		ID:          "user-1",
		Email:       "u@example.com",
		Name:        "Hitoshi",
		AccountType: model.AccountTypeUser,
	}
}

// --- テスト ---

func TestAuthHandler_Register(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, email, password, name string) (*auth.Session, error) {
			return &auth.Session{Account: testAccount(), Token: "jwt-token"}, nil
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"email":"u@example.com","password":"password123","name":"Hitoshi"}`))
	w := httptest.NewRecorder()

	h.Register(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var body sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Token != "jwt-token" {
		t.Errorf("token = %q", body.Token)
	}
	if body.User.Email != "u@example.com" {
		t.Errorf("user.email = %q", body.User.Email)
	}
}

func TestAuthHandler_Register_EmailTaken(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, email, password, name string) (*auth.Session, error) {
			return nil, model.NewEmailTakenError()
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"email":"u@example.com","password":"password123","name":"n"}`))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Result().StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Result().StatusCode)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*auth.Session, error) {
			return nil, model.NewInvalidCredentialsError()
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"u@example.com","password":"wrong"}`))
	w := httptest.NewRecorder()

	h.Login(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Result().StatusCode)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	t.Run("認証済み", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req = req.WithContext(middleware.ContextWithAccount(req.Context(), testAccount()))
		w := httptest.NewRecorder()

		h.Me(w, req)

		resp := w.Result()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		var body accountResponse
		json.NewDecoder(resp.Body).Decode(&body)
		if body.ID != "user-1" {
			t.Errorf("id = %q", body.ID)
		}
	})

	t.Run("未認証", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		w := httptest.NewRecorder()

		h.Me(w, req)

		if w.Result().StatusCode != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Result().StatusCode)
		}
	})
}

func TestAuthHandler_ForgotPassword_IncludesTokenWhenIssued(t *testing.T) {
	svc := &mockAuthService{
		forgotPasswordFn: func(ctx context.Context, email string) (string, error) {
			if email == "known@example.com" {
				return "reset-token-abc", nil
			}
			return "", nil
		},
	}
	h := NewAuthHandler(svc)

	t.Run("登録済みメール", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/forgot-password",
			strings.NewReader(`{"email":"known@example.com"}`))
		w := httptest.NewRecorder()

		h.ForgotPassword(w, req)

		var body map[string]string
		json.NewDecoder(w.Result().Body).Decode(&body)
		if body["reset_token"] != "reset-token-abc" {
			t.Errorf("reset_token = %q", body["reset_token"])
		}
	})

	t.Run("未登録メールでも成功レスポンス", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/forgot-password",
			strings.NewReader(`{"email":"unknown@example.com"}`))
		w := httptest.NewRecorder()

		h.ForgotPassword(w, req)

		resp := w.Result()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		// メールアドレスの存在有無を漏らさない
		if _, ok := body["reset_token"]; ok {
			t.Error("reset_token should not be present for unknown email")
		}
	})
}

func TestAuthHandler_ResetPassword_InvalidToken(t *testing.T) {
	svc := &mockAuthService{
		resetPasswordFn: func(ctx context.Context, token, newPassword string) error {
			return model.NewResetTokenInvalidError()
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/reset-password",
		strings.NewReader(`{"token":"used","new_password":"newpassword1"}`))
	w := httptest.NewRecorder()

	h.ResetPassword(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Result().StatusCode)
	}
}

func TestAuthHandler_DeleteAccount(t *testing.T) {
	deleted := ""
	svc := &mockAuthService{
		deleteAccountFn: func(ctx context.Context, userID string) error {
			deleted = userID
			return nil
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/auth/me", nil)
	req = req.WithContext(middleware.ContextWithAccount(req.Context(), testAccount()))
	w := httptest.NewRecorder()

	h.DeleteAccount(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Result().StatusCode)
	}
	if deleted != "user-1" {
		t.Errorf("deleted = %q, want user-1", deleted)
	}
}
