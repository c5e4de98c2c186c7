package model

import "time"

// Range は誕生日の表示範囲を表す。
type Range string

const (
	// RangeToday は今日が誕生日のメンバーのみを対象とする。
	RangeToday Range = "today"
	// RangeWeekly は今日を含む7日間の誕生日を対象とする。
	RangeWeekly Range = "weekly"
	// RangeMonthly は今月の残り（今日以降）の誕生日を対象とする。
	RangeMonthly Range = "monthly"
	// RangeUpcoming はすべての将来の誕生日を対象とする。
	RangeUpcoming Range = "upcoming"
)

// ParseRange は文字列をRangeに変換する。
// 不明な値の場合はfalseを返す。
func ParseRange(s string) (Range, bool) {
	switch Range(s) {
	case RangeToday, RangeWeekly, RangeMonthly, RangeUpcoming:
		return Range(s), true
	}
	return "", false
}

// Scope は誕生日一覧の対象メンバーを表す。
type Scope string

const (
	// ScopeAll は全メンバーを対象とする。
	ScopeAll Scope = "all"
	// ScopeFriends は閲覧者の承認済み相互フレンドのみを対象とする。
	ScopeFriends Scope = "friends"
)

// ParseScope は文字列をScopeに変換する。
// 不明な値の場合はfalseを返す。
func ParseScope(s string) (Scope, bool) {
	switch Scope(s) {
	case ScopeAll, ScopeFriends:
		return Scope(s), true
	}
	return "", false
}

// 表示件数の境界値。REST APIの引数バリデーションと設定更新で共有する。
const (
	MinLimit = 1
	MaxLimit = 50
)

// BirthdayEntry は1件の誕生日表示データを表す。
// メンバーの生データ（BirthRecord相当）から日付演算で導出され、
// リクエストごとに再計算される。永続化はしない。
type BirthdayEntry struct {
	MemberID      string
	Name          string    // 表示名
	Username      string    // ログイン名（name_variant=username用）
	Birthday      string    // 保存されている誕生日の生値（YYYY-MM-DD）
	Age           int       // 保存年からの経過年数。年が不明・無効な場合は0
	NextBirthday  time.Time // 次に誕生日を迎える日付（today以降）
	DaysUntil     int       // 今日から次の誕生日までの日数（今日=0）
	FormattedDate string    // 表示用にフォーマット済みの次回誕生日

	// プレゼンテーション項目。コアでは計算せず、メンバーストアと
	// 設定から引き渡される。
	AvatarURL  string
	ProfileURL string
	MessageURL string // お祝いメッセージ作成URL。未ログイン時は空
}
