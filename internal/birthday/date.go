// Package birthday は誕生日の日付演算と一覧クエリのドメインロジックを提供する。
package birthday

import (
	"strings"
	"time"

	"github.com/hitoshi/birthdayman/internal/model"
)

// 保存値の想定フォーマット。歴史的事情により時刻付きの値も存在する。
const (
	dateLayout           = "2006-01-02"
	legacyDateTimeLayout = "2006-01-02 15:04:05"

	// sentinelUnsetDate は「未設定」を表す歴史的なセンチネル値。
	sentinelUnsetDate = "0000-00-00"

	// DefaultDateFormat は表示用日付のデフォルトレイアウト。
	DefaultDateFormat = "January 2"
)

// ParseDate は保存されている誕生日文字列を日付に変換する。
// 空文字・センチネル値・暦として存在しない日付（2月30日など）は
// 第2戻り値falseで拒否する。時刻部分は切り捨てる。
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.HasPrefix(s, sentinelUnsetDate) {
		return time.Time{}, false
	}

	// time.Parseは暦整合性（月1-12、月ごとの日数、閏年の2月29日）を検証する
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		t, err = time.Parse(legacyDateTimeLayout, s)
		if err != nil {
			return time.Time{}, false
		}
	}

	return dateOnly(t), true
}

// ValidateDate は誕生日文字列が有効な暦日かどうかを返す。
func ValidateDate(raw string) bool {
	_, ok := ParseDate(raw)
	return ok
}

// Age は保存年からtodayまでの経過年数を返す（切り捨て、今年の記念日未到来なら-1年）。
// 無効な入力の場合は0を返す。
func Age(raw string, today time.Time) int {
	b, ok := ParseDate(raw)
	if !ok {
		return 0
	}

	today = dateOnly(today)
	years := today.Year() - b.Year()
	if monthDayKey(today) < monthDayKey(b) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// NextOccurrence は次に誕生日を迎える日付（today以降）を返す。
// todayの年で月日を再構成し、過ぎていれば翌年に送る。
// 2月29日生まれで対象年が閏年でない場合は2月28日に丸める（前倒しで祝う）。
func NextOccurrence(raw string, today time.Time) (time.Time, bool) {
	b, ok := ParseDate(raw)
	if !ok {
		return time.Time{}, false
	}

	today = dateOnly(today)
	occ := occurrenceInYear(today.Year(), b.Month(), b.Day())
	if occ.Before(today) {
		occ = occurrenceInYear(today.Year()+1, b.Month(), b.Day())
	}
	return occ, true
}

// DaysUntil はtodayから次の誕生日までの日数を返す。
// 今日が誕生日の場合は0。無効な入力の場合も0を返す。
// 戻り値は常に[0, 366]の範囲に収まる。
func DaysUntil(raw string, today time.Time) int {
	occ, ok := NextOccurrence(raw, today)
	if !ok {
		return 0
	}
	return int(occ.Sub(dateOnly(today)).Hours() / 24)
}

// InRange は誕生日が指定範囲に含まれるかどうかを返す。
// 月日文字列（MM-DD）の辞書順比較で判定し、年跨ぎを正しく扱う。
// 無効な入力の場合は常にfalse。
func InRange(raw string, rng model.Range, today time.Time) bool {
	b, ok := ParseDate(raw)
	if !ok {
		return false
	}

	today = dateOnly(today)
	birthMD := monthDayKey(b)
	todayMD := monthDayKey(today)

	switch rng {
	case model.RangeToday:
		// 月日の一致ではなく次回発生日との一致で判定する。
		// 閏年でない年の2月29日生まれは丸め先の2月28日が「今日」になる。
		occ, _ := NextOccurrence(raw, today)
		return occ.Equal(today)

	case model.RangeWeekly:
		nextWeekMD := monthDayKey(today.AddDate(0, 0, 7))

		// 年境界を跨ぐ場合（例: 12/28開始 → 1/4終了）
		if nextWeekMD < todayMD {
			return birthMD >= todayMD || birthMD <= nextWeekMD
		}
		return birthMD >= todayMD && birthMD <= nextWeekMD

	case model.RangeMonthly:
		return b.Month() == today.Month() && birthMD >= todayMD

	case model.RangeUpcoming:
		return true
	}

	return false
}

// FormatDate は日付を表示用文字列に変換する。
// ゼロ値の場合は空文字を返す。layoutが空の場合はDefaultDateFormatを使用する。
func FormatDate(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	if layout == "" {
		layout = DefaultDateFormat
	}
	return t.Format(layout)
}

// occurrenceInYear は指定年における誕生日の発生日を構成する。
// 閏年でない年の2月29日は2月28日に丸める。
func occurrenceInYear(year int, month time.Month, day int) time.Time {
	if month == time.February && day == 29 && !isLeapYear(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// isLeapYear はグレゴリオ暦の閏年判定を行う。
func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// dateOnly は時刻成分を落とした日付のみの値に正規化する。
// タイムゾーン差による日数計算のブレを避けるためUTCに固定する。
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// monthDayKey は月日をMM-DD形式の比較キーに変換する。
func monthDayKey(t time.Time) string {
	return t.Format("01-02")
}
