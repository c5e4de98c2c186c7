package birthday

import "time"

// Clock はtime.Now()を抽象化し、決定的なテストを可能にする。
// 「今日」はClockから1リクエストにつき1回だけ取得し、処理中に
// 日付境界を跨いでも計算結果がぶれないようにする。
type Clock interface {
	Now() time.Time
}

// RealClock は標準timeパッケージを使用するClock実装。
type RealClock struct{}

// Now は現在のローカル時刻を返す。
func (RealClock) Now() time.Time {
	return time.Now()
}
