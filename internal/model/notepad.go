// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// AccountType はノートパッドの保持ポリシーを決定するアカウント種別。
type AccountType string

const (
	// AccountTypeGuest は未ログイン利用者のノートパッド。
	AccountTypeGuest AccountType = "guest"
	// AccountTypeUser は登録ユーザーのノートパッド。
	AccountTypeUser AccountType = "user"
	// AccountTypePremium は有料プランユーザーのノートパッド。保持期限なし。
	AccountTypePremium AccountType = "premium"
)

// Entry はノートパッド内の1件のクリップボードエントリを表す。
// entriesはJSONB配列としてPostgreSQLに保存されるため、JSONタグを持つ。
type Entry struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Notepad はクリップボード中継用のノートパッドドキュメントを表す。
// codeが外部向けの参照キーで、作成後は不変。
type Notepad struct {
	ID          string
	Code        string
	Entries     []Entry
	AccountType AccountType
	ExpiresAt   *time.Time // nilは無期限（premiumのみ）
	UserID      *string    // nilはゲスト所有
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NormalizeCode はコードを照合用の正規形（小文字・前後空白除去）にする。
// コードは大文字小文字を区別せず、すべての参照操作はこの正規形で照合する。
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// ExpiringSoonWindow は「期限間近」とみなす残り期間。
const ExpiringSoonWindow = 7 * 24 * time.Hour

// IsExpired はノートパッドが論理削除済み（保持期限超過）かを返す。
// 物理削除はワーカーのクリーンアップジョブが行うが、可視性の判定は常にこちらを使う。
func (n *Notepad) IsExpired(now time.Time) bool {
	return n.ExpiresAt != nil && now.After(*n.ExpiresAt)
}

// IsExpiringSoon は保持期限が7日以内に迫っているかを返す。
// 導出プロパティであり、読み取りのたびに再計算する。保存はしない。
func (n *Notepad) IsExpiringSoon(now time.Time) bool {
	if n.ExpiresAt == nil {
		return false
	}
	return n.ExpiresAt.Sub(now) <= ExpiringSoonWindow && !now.After(*n.ExpiresAt)
}

// DaysRemaining は保持期限までの残り日数を返す（切り上げ）。
// 無期限の場合はnilを返す。期限超過は0。
func (n *Notepad) DaysRemaining(now time.Time) *int {
	if n.ExpiresAt == nil {
		return nil
	}
	remaining := n.ExpiresAt.Sub(now)
	days := 0
	if remaining > 0 {
		days = int((remaining + 24*time.Hour - time.Nanosecond) / (24 * time.Hour))
	}
	return &days
}

// NotepadShare はノートパッドと共有先ユーザーの関連を表す。
type NotepadShare struct {
	NotepadID string
	UserID    string
	CreatedAt time.Time
}

// SearchResult は検索結果の1件。テキスト検索時は一致エントリ数とプレビューを含む。
type SearchResult struct {
	Notepad
	MatchingEntries int
	Preview         string
}
