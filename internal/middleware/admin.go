package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/hitoshi/pastebridge/internal/model"
)

// adminKeyHeader は管理APIキーを渡すリクエストヘッダー。
const adminKeyHeader = "X-Admin-Key"

// NewAdminAuthMiddleware は管理APIキーを検証するミドルウェアを返す。
// キーが未設定の場合、管理エンドポイントは無効化され常に404を返す。
func NewAdminAuthMiddleware(apiKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				http.NotFound(w, r)
				return
			}

			provided := r.Header.Get(adminKeyHeader)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
