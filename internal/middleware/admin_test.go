package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAdminAuthMiddleware(t *testing.T) {
	mw := NewAdminAuthMiddleware("secret-key")
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("正しいキー", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/analytics-data", nil)
		req.Header.Set("X-Admin-Key", "secret-key")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)
		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Result().StatusCode)
		}
	})

	t.Run("不正なキー", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/analytics-data", nil)
		req.Header.Set("X-Admin-Key", "wrong")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)
		if w.Result().StatusCode != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Result().StatusCode)
		}
	})

	t.Run("キーなし", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/analytics-data", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)
		if w.Result().StatusCode != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Result().StatusCode)
		}
	})
}

// TestAdminAuthMiddleware_Disabled はキー未設定時に管理APIが無効化されることを検証する。
func TestAdminAuthMiddleware_Disabled(t *testing.T) {
	mw := NewAdminAuthMiddleware("")
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/analytics-data", nil)
	req.Header.Set("X-Admin-Key", "")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)
	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Result().StatusCode)
	}
}
