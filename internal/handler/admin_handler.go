package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/pastebridge/internal/analytics"
	"github.com/hitoshi/pastebridge/internal/middleware"
)

// AnalyticsServiceInterface は管理ハンドラーが必要とするサービスインターフェース。
type AnalyticsServiceInterface interface {
	// BuildReport は利用統計を集計する。
	BuildReport(ctx context.Context) (*analytics.Report, error)
	// BuildStats は累計値と未対応フィードバック数の要約を返す。
	BuildStats(ctx context.Context) (*analytics.Stats, error)
}

// AdminHandler は管理APIのHTTPハンドラー。
// 認可はAdminAuthMiddlewareが行い、ハンドラー自体は認可を持たない。
type AdminHandler struct {
	analytics AnalyticsServiceInterface
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(analytics AnalyticsServiceInterface) *AdminHandler {
	return &AdminHandler{analytics: analytics}
}

// AnalyticsData は利用統計の取得を処理する。
// GET /api/admin/analytics-data
func (h *AdminHandler) AnalyticsData(w http.ResponseWriter, r *http.Request) {
	report, err := h.analytics.BuildReport(r.Context())
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

// Stats は要約統計の取得を処理する。
// GET /api/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.BuildStats(r.Context())
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
