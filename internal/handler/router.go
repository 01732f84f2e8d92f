package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/pastebridge/internal/metrics"
	"github.com/hitoshi/pastebridge/internal/middleware"
	"github.com/hitoshi/pastebridge/internal/security"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Authenticator     middleware.Authenticator
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	AdminAPIKey       string

	// ドメインサービス
	NotepadService      NotepadServiceInterface
	LinkerService       LinkerServiceInterface
	AuthService         AuthServiceInterface
	FeedbackService     FeedbackServiceInterface
	SubscriptionService SubscriptionServiceInterface
	ShareService        ShareServiceInterface
	NotifyService       NotifyServiceInterface
	AnalyticsService    AnalyticsServiceInterface

	// ビュー
	EntrySanitizer security.EntrySanitizerService

	// メトリクス
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics → (Auth | OptionalAuth) → RateLimit(General)
//
// ノートパッドの参照・追記はゲストでも使えるため、/api配下の大半はOptionalAuthを使う。
// アカウント専用のエンドポイントのみ必須Authを使う。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))
	r.Use(middleware.NewMetricsMiddleware(deps.Metrics))

	notepadHandler := NewNotepadHandler(deps.NotepadService, deps.Metrics)
	linkHandler := NewLinkHandler(deps.LinkerService, deps.Metrics, notepadHandler)
	authHandler := NewAuthHandler(deps.AuthService)
	feedbackHandler := NewFeedbackHandler(deps.FeedbackService)
	subHandler := NewSubscriptionHandler(deps.SubscriptionService)
	shareHandler := NewShareHandler(deps.ShareService, notepadHandler)
	notifyHandler := NewNotifyHandler(deps.NotifyService)
	adminHandler := NewAdminHandler(deps.AnalyticsService)
	viewHandler := NewViewHandler(deps.NotepadService, deps.EntrySanitizer)

	optionalAuth := middleware.NewOptionalAuthMiddleware(deps.Authenticator)
	requiredAuth := middleware.NewAuthMiddleware(deps.Authenticator)

	// --- 運用エンドポイント ---

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler(deps.Gatherer))

	// --- HTMLビュー（読み取り専用） ---

	r.Get("/", viewHandler.Landing)
	r.Get("/n/{code}", viewHandler.NotepadView)

	// --- 認証不要のAPI ---

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Post("/api/auth/register", authHandler.Register)
		r.Post("/api/auth/login", authHandler.Login)
		r.Post("/api/auth/forgot-password", authHandler.ForgotPassword)
		r.Post("/api/auth/reset-password", authHandler.ResetPassword)

		r.Get("/api/plans", subHandler.ListPlans)
	})

	// --- ゲスト・ログイン兼用のAPI ---

	r.Group(func(r chi.Router) {
		r.Use(optionalAuth)
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ノートパッド作成（作成専用レート制限を追加）
		r.With(deps.RateLimiter.CreateMiddleware()).Post("/api/notepads", notepadHandler.CreateNotepad)

		r.Get("/api/notepads/{code}", notepadHandler.GetNotepad)
		r.Delete("/api/notepads/{code}", notepadHandler.DeleteNotepad)
		r.Post("/api/notepads/{code}/entries", notepadHandler.AppendEntry)
		r.Delete("/api/notepads/{code}/entries", notepadHandler.ClearEntries)
		r.Get("/api/notepads/{code}/export", notepadHandler.ExportNotepad)

		// フィードバック投稿（ゲスト可）
		r.Post("/api/feedback", feedbackHandler.SubmitFeedback)
	})

	// --- アカウント専用のAPI ---

	r.Group(func(r chi.Router) {
		r.Use(requiredAuth)
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// アカウント管理
		r.Get("/api/auth/me", authHandler.Me)
		r.Put("/api/auth/me", authHandler.UpdateProfile)
		r.Delete("/api/auth/me", authHandler.DeleteAccount)
		r.Put("/api/auth/password", authHandler.ChangePassword)

		// 所有ノートパッド
		r.Get("/api/notepads", notepadHandler.ListNotepads)
		r.Get("/api/notepads/search", notepadHandler.SearchNotepads)
		r.Get("/api/notepads/shared", shareHandler.ListSharedWithMe)

		// 連携
		r.Post("/api/notepads/link", linkHandler.BulkLink)
		r.Post("/api/notepads/{code}/link", linkHandler.Link)

		// 共有
		r.Post("/api/notepads/{code}/shares", shareHandler.Share)
		r.Get("/api/notepads/{code}/shares", shareHandler.ListCollaborators)
		r.Delete("/api/notepads/{code}/shares/{userID}", shareHandler.Unshare)

		// フィードバック（自分の投稿一覧）
		r.Get("/api/feedback", feedbackHandler.ListMyFeedback)

		// プラン変更
		r.Post("/api/subscribe", subHandler.ChangePlan)

		// 通知先登録
		r.Post("/api/push-tokens", notifyHandler.RegisterPushToken)
		r.Get("/api/push-tokens", notifyHandler.ListPushTokens)
		r.Delete("/api/push-tokens", notifyHandler.DeletePushToken)
		r.Post("/api/webhooks", notifyHandler.CreateWebhook)
		r.Get("/api/webhooks", notifyHandler.ListWebhooks)
		r.Delete("/api/webhooks/{id}", notifyHandler.DeleteWebhook)
	})

	// --- 管理API ---

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAdminAuthMiddleware(deps.AdminAPIKey))

		r.Get("/api/admin/analytics-data", adminHandler.AnalyticsData)
		r.Get("/api/admin/stats", adminHandler.Stats)
		r.Get("/api/admin/feedback", feedbackHandler.ListFeedback)
		r.Patch("/api/admin/feedback/{id}/status", feedbackHandler.UpdateFeedbackStatus)
		r.Delete("/api/admin/feedback/{id}", feedbackHandler.DeleteFeedback)
	})

	return r
}
