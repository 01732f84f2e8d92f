package security

import "github.com/microcosm-cc/bluemonday"

// EntrySanitizerService はエントリ本文のサニタイズ機能のインターフェースを定義する。
// エントリはクリップボードからの任意テキストであり、共有ビューでHTML描画する前に
// タグをすべて除去する。保存時は原文のまま、表示時にのみ適用する。
type EntrySanitizerService interface {
	// Sanitize はエントリ本文からHTMLタグをすべて除去したテキストを返す。
	// 空文字列の入力には空文字列を返す。同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(text string) string
}

// entrySanitizer はEntrySanitizerServiceの実装。
// bluemondayのStrictPolicy（全タグ除去）を保持し、スレッドセーフに処理する。
type entrySanitizer struct {
	policy *bluemonday.Policy
}

// NewEntrySanitizer はEntrySanitizerServiceの新しいインスタンスを生成する。
func NewEntrySanitizer() *entrySanitizer {
	return &entrySanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はエントリ本文からHTMLタグをすべて除去したテキストを返す。
func (s *entrySanitizer) Sanitize(text string) string {
	return s.policy.Sanitize(text)
}
