// Package seed はローカル動作確認用のサンプルデータ投入を提供する。
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/birthdayman/internal/birthday"
	"github.com/hitoshi/birthdayman/internal/model"
	"github.com/hitoshi/birthdayman/internal/repository"
)

// サンプルメンバーの名前。メンバーが1人もいない場合にこの人数分を作成する。
var sampleMembers = []struct {
	username    string
	displayName string
}{
	{"alice", "Alice Anderson"},
	{"bob", "Bob Brown"},
	{"carol", "Carol Clark"},
	{"dave", "Dave Davis"},
	{"erin", "Erin Evans"},
	{"frank", "Frank Foster"},
	{"grace", "Grace Green"},
	{"heidi", "Heidi Hill"},
	{"ivan", "Ivan Iverson"},
	{"judy", "Judy Jones"},
}

// Config はSeederの設定を保持する。
type Config struct {
	FieldID     int   // 誕生日を投入するプロフィールフィールドID
	MemberCount int   // 作成するサンプルメンバー数。0の場合は名前リストの人数
	Seed        int64 // 乱数シード。0の場合は現在時刻を使用する
}

// Result は投入処理の集計結果を表す。
type Result struct {
	MembersCreated int // 新規作成したメンバー数
	ValuesCreated  int // 誕生日を投入したメンバー数
	Skipped        int // 既に誕生日が設定済みでスキップしたメンバー数
	Errors         int // 個別に失敗した件数
}

// Seeder はサンプルメンバーとランダムな誕生日を冪等に投入する。
// 既に値を持つメンバーは上書きしない。
type Seeder struct {
	members repository.MemberRepository
	fields  repository.ProfileFieldRepository
	data    repository.ProfileDataRepository
	clock   birthday.Clock
	rng     *rand.Rand
}

// NewSeeder はSeederの新しいインスタンスを生成する。
func NewSeeder(
	members repository.MemberRepository,
	fields repository.ProfileFieldRepository,
	data repository.ProfileDataRepository,
	clock birthday.Clock,
	config Config,
) *Seeder {
	seedValue := config.Seed
	if seedValue == 0 {
		seedValue = clock.Now().UnixNano()
	}

	return &Seeder{
		members: members,
		fields:  fields,
		data:    data,
		clock:   clock,
		rng:     rand.New(rand.NewSource(seedValue)),
	}
}

// Run はサンプルデータの投入を実行する。
//
//  1. 対象フィールドが日付型として存在することを検証する
//  2. メンバーが1人もいない場合はサンプルメンバーを作成する
//  3. 誕生日未設定の全メンバーにランダムな誕生日を投入する
//
// 再実行しても既存の値は変更されない。
func (s *Seeder) Run(ctx context.Context, config Config) (*Result, error) {
	field, err := s.fields.FindByID(ctx, config.FieldID)
	if err != nil {
		return nil, fmt.Errorf("プロフィールフィールドの取得に失敗しました: %w", err)
	}
	if field == nil {
		return nil, model.NewFieldNotFoundError(config.FieldID)
	}
	if !field.IsDateType() {
		return nil, model.NewFieldNotDateTypeError(config.FieldID)
	}

	result := &Result{}

	ids, err := s.members.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("メンバー一覧の取得に失敗しました: %w", err)
	}

	if len(ids) == 0 {
		count := config.MemberCount
		if count <= 0 {
			count = len(sampleMembers)
		}
		ids, err = s.createSampleMembers(ctx, count, result)
		if err != nil {
			return nil, err
		}
	}

	for i, memberID := range ids {
		value, err := s.data.FindValue(ctx, config.FieldID, memberID)
		if err != nil {
			result.Errors++
			continue
		}
		if value != "" {
			result.Skipped++
			continue
		}

		// 時刻付きの歴史的フォーマットも混ぜて投入する
		if err := s.data.Upsert(ctx, config.FieldID, memberID, s.randomBirthday(i%5 == 4)); err != nil {
			result.Errors++
			continue
		}
		result.ValuesCreated++
	}

	return result, nil
}

// createSampleMembers は指定人数のサンプルメンバーを作成し、そのIDを返す。
// 名前リストを超える分は連番のユーザー名で補う。
func (s *Seeder) createSampleMembers(ctx context.Context, count int, result *Result) ([]string, error) {
	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		username := fmt.Sprintf("member%02d", i+1)
		displayName := fmt.Sprintf("Member %02d", i+1)
		if i < len(sampleMembers) {
			username = sampleMembers[i].username
			displayName = sampleMembers[i].displayName
		}

		member := &model.Member{
			ID:          uuid.NewString(),
			Username:    username,
			DisplayName: displayName,
		}
		if err := s.members.Create(ctx, member); err != nil {
			return nil, fmt.Errorf("サンプルメンバーの作成に失敗しました: %s: %w", username, err)
		}
		ids = append(ids, member.ID)
		result.MembersCreated++
	}
	return ids, nil
}

// Clear は指定フィールドの全誕生日値を削除し、削除件数を返す。
// メンバー自体は削除しない。
func (s *Seeder) Clear(ctx context.Context, fieldID int) (int64, error) {
	deleted, err := s.data.DeleteByFieldID(ctx, fieldID)
	if err != nil {
		return 0, fmt.Errorf("誕生日値の削除に失敗しました: %w", err)
	}
	return deleted, nil
}

// randomBirthday は18〜65歳の範囲のランダムな誕生日文字列を生成する。
// 月ごとの日数差を気にせず有効な暦日にするため、日は1〜28に限定する。
func (s *Seeder) randomBirthday(legacyFormat bool) string {
	now := s.clock.Now()

	age := 18 + s.rng.Intn(48)
	month := time.Month(1 + s.rng.Intn(12))
	day := 1 + s.rng.Intn(28)

	b := time.Date(now.Year()-age, month, day, 0, 0, 0, 0, time.UTC)
	if legacyFormat {
		return b.Format("2006-01-02 15:04:05")
	}
	return b.Format("2006-01-02")
}
