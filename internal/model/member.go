// Package model はドメインモデルを定義する。
package model

import "time"

// Member はコミュニティのメンバーを表す。
// 誕生日そのものはMemberには持たせず、プロフィールフィールドの
// 値（ProfileData）として保持する。
type Member struct {
	ID          string
	Username    string
	DisplayName string
	AvatarURL   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProfileField はプロフィール項目の定義を表す。
// 誕生日として利用できるのは日付型（datebox, birthdate）のフィールドのみ。
type ProfileField struct {
	ID   int
	Name string
	Type string
}

// 日付型プロフィールフィールドのタイプ値
const (
	FieldTypeDatebox   = "datebox"
	FieldTypeBirthdate = "birthdate"
)

// IsDateType はフィールドが誕生日として利用可能な日付型かどうかを返す。
func (f *ProfileField) IsDateType() bool {
	return f.Type == FieldTypeDatebox || f.Type == FieldTypeBirthdate
}

// Session はホスト側で発行されたログインセッションを表す。
// 本サービスはセッションを発行せず、参照のみを行う。
type Session struct {
	ID        string
	MemberID  string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Settings はプロセス全体の誕生日ウィジェット設定を表す。
// 環境変数のデフォルト値に設定ストアの値を上書きして構成される。
type Settings struct {
	BirthdayFieldID int
	DefaultRange    Range
	DefaultLimit    int
}
