package model

import "time"

// Account はサービス利用アカウントを表す。
// パスワードはbcryptハッシュのみ保持し、平文は保存しない。
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	AccountType  AccountType // user または premium
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PushToken はモバイルアプリのプッシュ通知トークンを表す。
// 配信自体は外部のプッシュ中継サービスが行い、本サービスは登録のみを管理する。
type PushToken struct {
	ID        string
	UserID    string
	Token     string
	CreatedAt time.Time
}

// PasswordReset はパスワード再設定トークンを表す。1回限り有効。
type PasswordReset struct {
	Token     string
	UserID    string
	Used      bool
	ExpiresAt time.Time
	CreatedAt time.Time
}
