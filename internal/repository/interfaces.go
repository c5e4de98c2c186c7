// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/birthdayman/internal/model"
)

// BirthdayCandidate はメンバーストアから取得する誕生日候補の生タプル。
// 日付の検証・範囲判定・整形はbirthdayパッケージが行う。
type BirthdayCandidate struct {
	MemberID    string
	DisplayName string
	Username    string
	AvatarURL   string
	BirthDate   string // プロフィールフィールドの生値
}

// MemberRepository はメンバーデータの永続化インターフェース。
type MemberRepository interface {
	// FindByID は指定IDのメンバーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Member, error)

	// Create はメンバーを作成する。
	Create(ctx context.Context, member *model.Member) error

	// ListIDs は全メンバーのIDをID昇順で返す。
	ListIDs(ctx context.Context) ([]string, error)

	// ListBirthdayCandidates は誕生日候補の生タプルを取得する。
	// ストア側で空値・センチネル値（0000-00-00）を除外し、
	// friendOfIDが指定された場合は承認済み相互フレンドに絞り込む。
	// 結果は「今日以降の月日が先、年跨ぎ分が後」の月日昇順で
	// 並べ替えられ、limit件で打ち切られる。
	ListBirthdayCandidates(ctx context.Context, fieldID int, friendOfID string, limit int) ([]BirthdayCandidate, error)
}

// ProfileFieldRepository はプロフィールフィールド定義の永続化インターフェース。
type ProfileFieldRepository interface {
	// FindByID は指定IDのフィールドを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int) (*model.ProfileField, error)

	// ListDateFields は日付型（datebox, birthdate）のフィールドを名前昇順で返す。
	ListDateFields(ctx context.Context) ([]model.ProfileField, error)
}

// ProfileDataRepository はプロフィールフィールド値の永続化インターフェース。
// seedサブコマンドと設定サービスが使用する。
type ProfileDataRepository interface {
	// FindValue は指定フィールド・メンバーの値を取得する。未設定の場合は空文字を返す。
	FindValue(ctx context.Context, fieldID int, memberID string) (string, error)

	// Upsert はフィールド値を冪等に登録・更新する。
	Upsert(ctx context.Context, fieldID int, memberID, value string) error

	// DeleteByFieldID は指定フィールドの全値を削除し、削除件数を返す。
	DeleteByFieldID(ctx context.Context, fieldID int) (int64, error)
}

// SettingsRepository はプロセス全体設定（キー/バリュー）の永続化インターフェース。
type SettingsRepository interface {
	// Get は指定キーの値を取得する。未設定の場合は空文字を返す。
	Get(ctx context.Context, key string) (string, error)

	// Set は指定キーの値を冪等に登録・更新する。
	Set(ctx context.Context, key, value string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
// セッションの発行はホスト側の責務であり、本サービスは参照が主となる。
type SessionRepository interface {
	// FindByID は指定IDのセッションを取得する。
	// 見つからない場合および期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)

	// Create はセッションを作成する。テストおよびローカル動作確認用。
	Create(ctx context.Context, session *model.Session) error

	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
}
