// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hitoshi/pastebridge/internal/model"
)

// ErrDuplicateCode はノートパッドコードの一意制約違反を表す。
var ErrDuplicateCode = errors.New("notepad code already exists")

// ErrDuplicateEmail はメールアドレスの一意制約違反を表す。
var ErrDuplicateEmail = errors.New("email already registered")

// NotepadRepository はノートパッドデータの永続化インターフェース。
type NotepadRepository interface {
	// FindByCode は指定コードのノートパッドを取得する。見つからない場合はnilを返す。
	// 期限切れ判定は呼び出し側で行う（リポジトリは可視性を解釈しない）。
	FindByCode(ctx context.Context, code string) (*model.Notepad, error)

	// FindByID は指定IDのノートパッドを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Notepad, error)

	// Create はノートパッドを作成する。
	// コードが既存の場合はErrDuplicateCodeを返す。再利用判定は呼び出し側が行う。
	Create(ctx context.Context, notepad *model.Notepad) error

	// DeleteByID は指定IDのノートパッドを削除する。
	DeleteByID(ctx context.Context, id string) error

	// AppendEntry はエントリをJSONB配列の末尾にアトミックに追記し、
	// 追記後のエントリ数を返す。並行追記でもロストアップデートは発生しない。
	AppendEntry(ctx context.Context, notepadID string, entry model.Entry) (int, error)

	// ClearEntries は全エントリを削除し空配列に戻す。ノートパッド自体は残る。
	ClearEntries(ctx context.Context, notepadID string) error

	// Link はノートパッドをアカウントに連携する（compare-and-set）。
	// user_idがNULLの場合のみ更新が成立し、成立したらtrueを返す。
	// falseの場合は既に誰かに連携済みであり、冪等判定は呼び出し側が再読み取りで行う。
	Link(ctx context.Context, notepadID, userID string, accountType model.AccountType, expiresAt *time.Time) (bool, error)

	// UpdateRetention は所有ノートパッドの保持ポリシーを一括更新する。
	// プラン変更時に使用する。
	UpdateRetention(ctx context.Context, userID string, accountType model.AccountType, expiresAt *time.Time) error

	// ListByUserID はユーザーが所有するノートパッド一覧を更新日時降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Notepad, error)

	// Search はユーザーの所有ノートパッドをコードまたはエントリ本文で検索する。
	// ページネーション用に総件数も返す。一致エントリ数の導出は呼び出し側で行う。
	Search(ctx context.Context, userID, query string, limit, offset int) ([]*model.Notepad, int, error)

	// DeleteExpiredBefore は保持期限がcutoffより前のノートパッドを物理削除し、
	// 削除件数を返す。クリーンアップワーカーから呼ばれる。
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AccountRepository はアカウントデータの永続化インターフェース。
type AccountRepository interface {
	// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Account, error)

	// FindByEmail はメールアドレスでアカウントを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Account, error)

	// Create はアカウントを作成する。
	// メールアドレスが既存の場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, account *model.Account) error

	// UpdateProfile は表示名とメールアドレスを更新する。
	// メールアドレスが他アカウントと衝突する場合はErrDuplicateEmailを返す。
	UpdateProfile(ctx context.Context, id, name, email string) error

	// UpdatePassword はパスワードハッシュを更新する。
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// UpdateAccountType はアカウント種別（プラン）を更新する。
	UpdateAccountType(ctx context.Context, id string, accountType model.AccountType) error

	// DeleteByID は指定IDのアカウントを削除する。
	// 所有ノートパッドはCASCADEされずuser_idがNULLに戻る。
	DeleteByID(ctx context.Context, id string) error
}

// PasswordResetRepository はパスワード再設定トークンの永続化インターフェース。
type PasswordResetRepository interface {
	// Create は再設定トークンを作成する。
	Create(ctx context.Context, reset *model.PasswordReset) error

	// FindByToken はトークンで再設定情報を取得する。見つからない場合はnilを返す。
	FindByToken(ctx context.Context, token string) (*model.PasswordReset, error)

	// MarkUsed はトークンを使用済みにする。
	MarkUsed(ctx context.Context, token string) error

	// DeleteExpired は期限切れ・使用済みトークンを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// FeedbackRepository はフィードバックデータの永続化インターフェース。
type FeedbackRepository interface {
	// Create はフィードバックを作成する。
	Create(ctx context.Context, fb *model.Feedback) error

	// FindByID は指定IDのフィードバックを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Feedback, error)

	// ListByUserID はユーザーが投稿したフィードバック一覧を作成日時降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Feedback, error)

	// List は全フィードバックをステータスで絞り込んで返す（管理用）。
	// statusが空文字の場合は全件を対象にする。
	List(ctx context.Context, status model.FeedbackStatus, limit, offset int) ([]*model.Feedback, int, error)

	// UpdateStatus は対応状況を更新する。対象が存在しない場合はfalseを返す。
	UpdateStatus(ctx context.Context, id string, status model.FeedbackStatus) (bool, error)

	// Delete は指定IDのフィードバックを削除する。対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, id string) (bool, error)

	// CountByStatus は指定ステータスのフィードバック件数を返す。
	CountByStatus(ctx context.Context, status model.FeedbackStatus) (int, error)
}

// PushTokenRepository はプッシュ通知トークンの永続化インターフェース。
type PushTokenRepository interface {
	// Upsert はトークンを冪等に登録する。同一(user_id, token)の再登録は無視する。
	Upsert(ctx context.Context, token *model.PushToken) error

	// ListByUserID はユーザーの登録トークン一覧を返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.PushToken, error)

	// Delete は指定トークンを削除する。
	Delete(ctx context.Context, userID, token string) error
}

// WebhookRepository はWebhook登録情報の永続化インターフェース。
type WebhookRepository interface {
	// Create はWebhookを作成する。
	Create(ctx context.Context, webhook *model.Webhook) error

	// FindByID は指定IDのWebhookを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Webhook, error)

	// ListByUserID はユーザーのWebhook一覧を返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Webhook, error)

	// Delete は指定ユーザー所有のWebhookを削除する。対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, id, userID string) (bool, error)
}

// ShareRepository はノートパッド共有の永続化インターフェース。
type ShareRepository interface {
	// Create は共有を冪等に作成する。既に共有済みの場合は何もしない。
	Create(ctx context.Context, share *model.NotepadShare) error

	// ListSharedWithUser はユーザーに共有されたノートパッド一覧を返す。
	ListSharedWithUser(ctx context.Context, userID string) ([]*model.Notepad, error)

	// ListUsersByNotepadID はノートパッドの共有先アカウント一覧を返す。
	ListUsersByNotepadID(ctx context.Context, notepadID string) ([]*model.Account, error)

	// Delete は共有を解除する。対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, notepadID, userID string) (bool, error)
}

// DayCount は日別集計の1件。
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// TopNotepad はエントリ数上位のノートパッド。
type TopNotepad struct {
	Code       string    `json:"code"`
	EntryCount int       `json:"entry_count"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AnalyticsTotals はサービス全体の累計値。
type AnalyticsTotals struct {
	Users       int `json:"users"`
	Notepads    int `json:"notepads"`
	Entries     int `json:"entries"`
	ActiveToday int `json:"active_today"`
}

// AnalyticsRepository は管理ダッシュボード用の集計クエリインターフェース。
type AnalyticsRepository interface {
	// Totals はユーザー数・ノートパッド数・エントリ総数・当日アクティブ数を返す。
	Totals(ctx context.Context) (*AnalyticsTotals, error)

	// EntriesByDay は指定日時以降のエントリ追加数を日別に集計する。
	EntriesByDay(ctx context.Context, since time.Time) ([]DayCount, error)

	// UsersByDay は指定日時以降のアカウント登録数を日別に集計する。
	UsersByDay(ctx context.Context, since time.Time) ([]DayCount, error)

	// TopNotepads はエントリ数上位のノートパッドを返す。
	TopNotepads(ctx context.Context, limit int) ([]TopNotepad, error)
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
