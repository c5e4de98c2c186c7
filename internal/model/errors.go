package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, config, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeNoBirthdayField  = "NO_BIRTHDAY_FIELD"
	ErrCodeFieldNotFound    = "FIELD_NOT_FOUND"
	ErrCodeFieldNotDateType = "FIELD_NOT_DATE_TYPE"
	ErrCodeInvalidRange     = "INVALID_RANGE"
	ErrCodeInvalidLimit     = "INVALID_LIMIT"
	ErrCodeInvalidScope     = "INVALID_SCOPE"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeStoreUnavailable = "MEMBER_STORE_UNAVAILABLE"
)

// NewNoBirthdayFieldError は誕生日フィールド未設定エラーを生成する。
// 「設定されていない」と「該当者がいない」を呼び出し側が区別できるよう、
// 空リストではなくエラーとして返す。
func NewNoBirthdayFieldError() *APIError {
	return &APIError{
		Code:     ErrCodeNoBirthdayField,
		Message:  "誕生日フィールドが設定されていません。",
		Category: "config",
		Action:   "設定APIで誕生日を保持するプロフィールフィールドを選択してください。",
	}
}

// NewFieldNotFoundError は指定されたプロフィールフィールドが存在しない場合のエラーを生成する。
func NewFieldNotFoundError(fieldID int) *APIError {
	return &APIError{
		Code:     ErrCodeFieldNotFound,
		Message:  fmt.Sprintf("指定されたプロフィールフィールドが見つかりません: %d", fieldID),
		Category: "config",
		Action:   "フィールドIDを確認してください。",
	}
}

// NewFieldNotDateTypeError は日付型でないフィールドが指定された場合のエラーを生成する。
func NewFieldNotDateTypeError(fieldID int) *APIError {
	return &APIError{
		Code:     ErrCodeFieldNotDateType,
		Message:  fmt.Sprintf("指定されたプロフィールフィールドは日付型ではありません: %d", fieldID),
		Category: "validation",
		Action:   "datebox または birthdate 型のフィールドを選択してください。",
	}
}

// NewInvalidRangeError は無効な表示範囲エラーを生成する。
func NewInvalidRangeError(rng string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRange,
		Message:  fmt.Sprintf("無効な表示範囲です: %s", rng),
		Category: "validation",
		Action:   "rangeには today、weekly、monthly、upcoming のいずれかを指定してください。",
	}
}

// NewInvalidLimitError は無効な表示件数エラーを生成する。
func NewInvalidLimitError(limit int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidLimit,
		Message:  fmt.Sprintf("無効な表示件数です: %d", limit),
		Category: "validation",
		Action:   fmt.Sprintf("limitは%dから%dの範囲で指定してください。", MinLimit, MaxLimit),
	}
}

// NewInvalidScopeError は無効な対象範囲エラーを生成する。
func NewInvalidScopeError(scope string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidScope,
		Message:  fmt.Sprintf("無効な対象範囲です: %s", scope),
		Category: "validation",
		Action:   "scopeには all または friends を指定してください。",
	}
}

// NewUnauthorizedError は認証が必要な操作への未認証アクセスエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。フレンドの誕生日の閲覧にはログインが必要です。",
	}
}

// NewStoreUnavailableError はメンバーストアへの問い合わせ失敗エラーを生成する。
// 一時的な障害として呼び出し側に伝搬し、コア内ではリトライしない。
func NewStoreUnavailableError(cause error) *APIError {
	return &APIError{
		Code:     ErrCodeStoreUnavailable,
		Message:  fmt.Sprintf("メンバー情報の取得に失敗しました: %v", cause),
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
