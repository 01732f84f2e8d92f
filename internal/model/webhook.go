package model

import "time"

// Webhook はユーザーが登録した通知先URLを表す。
// 配信は外部コラボレータの責務であり、本サービスは登録情報のみを管理する。
type Webhook struct {
	ID        string
	UserID    string
	URL       string
	Events    []string
	Secret    string
	Active    bool
	CreatedAt time.Time
}

// DefaultWebhookEvents はイベント未指定時のデフォルト。
var DefaultWebhookEvents = []string{"new_entry"}
