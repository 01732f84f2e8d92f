package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, notepad, feedback, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeNotepadNotFound   = "NOTEPAD_NOT_FOUND"
	ErrCodeNotepadExpired    = "NOTEPAD_EXPIRED"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeAlreadyLinked     = "ALREADY_LINKED"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeEmailTaken        = "EMAIL_TAKEN"
	ErrCodeInvalidCredential = "INVALID_CREDENTIALS"
	ErrCodeUserNotFound      = "USER_NOT_FOUND"
	ErrCodeFeedbackNotFound  = "FEEDBACK_NOT_FOUND"
	ErrCodeWebhookNotFound   = "WEBHOOK_NOT_FOUND"
	ErrCodeInvalidPlan       = "INVALID_PLAN"
	ErrCodeResetTokenInvalid = "RESET_TOKEN_INVALID"
	ErrCodeInvalidWebhookURL = "INVALID_WEBHOOK_URL"
)

// NewNotepadNotFoundError はノートパッド未検出エラーを生成する。
// 期限切れ（NOTEPAD_EXPIRED）とは必ず区別する。クライアントのUI分岐が依存している。
func NewNotepadNotFoundError(code string) *APIError {
	return &APIError{
		Code:     ErrCodeNotepadNotFound,
		Message:  fmt.Sprintf("指定されたノートパッドが見つかりません: %s", code),
		Category: "notepad",
		Action:   "コードに入力間違いがないか確認してください。",
	}
}

// NewNotepadExpiredError はノートパッド期限切れエラーを生成する。
func NewNotepadExpiredError(code string) *APIError {
	return &APIError{
		Code:     ErrCodeNotepadExpired,
		Message:  fmt.Sprintf("このノートパッドは保持期限を過ぎています: %s", code),
		Category: "notepad",
		Action:   "新しいノートパッドを作成してください。アカウント登録で保持期間を延長できます。",
	}
}

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力が不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewAlreadyLinkedError は他アカウントに連携済みのノートパッドへの連携要求エラーを生成する。
// 所有権の移転は行わない。
func NewAlreadyLinkedError(code string) *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyLinked,
		Message:  fmt.Sprintf("このノートパッドはすでに別のアカウントに連携されています: %s", code),
		Category: "notepad",
		Action:   "自分で作成したノートパッドのコードか確認してください。",
	}
}

// NewUnauthorizedError は認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError は権限エラーを生成する。
func NewForbiddenError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  fmt.Sprintf("この操作を行う権限がありません: %s", reason),
		Category: "auth",
		Action:   "ノートパッドの所有者のみが実行できる操作です。",
	}
}

// NewEmailTakenError は登録済みメールアドレスでの再登録エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスはすでに登録されています。",
		Category: "auth",
		Action:   "ログインするか、別のメールアドレスで登録してください。",
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
// メールアドレスの存在有無を漏らさないよう、メッセージは常に同一にする。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredential,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewFeedbackNotFoundError はフィードバック未検出エラーを生成する。
func NewFeedbackNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeFeedbackNotFound,
		Message:  fmt.Sprintf("指定されたフィードバックが見つかりません: %s", id),
		Category: "feedback",
		Action:   "フィードバックIDを確認してください。",
	}
}

// NewWebhookNotFoundError はWebhook未検出エラーを生成する。
func NewWebhookNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeWebhookNotFound,
		Message:  fmt.Sprintf("指定されたWebhookが見つかりません: %s", id),
		Category: "validation",
		Action:   "WebhookIDを確認してください。",
	}
}

// NewInvalidPlanError は未定義プランの指定エラーを生成する。
func NewInvalidPlanError(plan string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPlan,
		Message:  fmt.Sprintf("無効なプランです: %s", plan),
		Category: "validation",
		Action:   "free、pro、business のいずれかを指定してください。",
	}
}

// NewResetTokenInvalidError は無効・使用済みの再設定トークンエラーを生成する。
func NewResetTokenInvalidError() *APIError {
	return &APIError{
		Code:     ErrCodeResetTokenInvalid,
		Message:  "パスワード再設定トークンが無効か、すでに使用されています。",
		Category: "auth",
		Action:   "パスワード再設定を最初からやり直してください。",
	}
}

// NewInvalidWebhookURLError は不正なWebhook URLエラーを生成する。
func NewInvalidWebhookURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidWebhookURL,
		Message:  fmt.Sprintf("無効なWebhook URLです: %s", reason),
		Category: "validation",
		Action:   "公開されているHTTPSエンドポイントのURLを指定してください。プライベートネットワークへのURLは登録できません。",
	}
}
