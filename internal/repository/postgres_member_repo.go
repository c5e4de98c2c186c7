package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/birthdayman/internal/model"
)

// PostgresMemberRepo はPostgreSQLを使用したメンバーリポジトリ。
type PostgresMemberRepo struct {
	db *sql.DB
}

// NewPostgresMemberRepo はPostgresMemberRepoを生成する。
func NewPostgresMemberRepo(db *sql.DB) *PostgresMemberRepo {
	return &PostgresMemberRepo{db: db}
}

// FindByID は指定IDのメンバーを取得する。見つからない場合はnilを返す。
func (r *PostgresMemberRepo) FindByID(ctx context.Context, id string) (*model.Member, error) {
	member := &model.Member{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, display_name, avatar_url, created_at, updated_at
		 FROM members WHERE id = $1`,
		id,
	).Scan(&member.ID, &member.Username, &member.DisplayName, &member.AvatarURL, &member.CreatedAt, &member.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("メンバーの取得に失敗しました: %w", err)
	}

	return member, nil
}

// Create はメンバーを作成する。
func (r *PostgresMemberRepo) Create(ctx context.Context, member *model.Member) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO members (id, username, display_name, avatar_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		member.ID, member.Username, member.DisplayName, member.AvatarURL, member.CreatedAt, member.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("メンバーの作成に失敗しました: %w", err)
	}
	return nil
}

// ListIDs は全メンバーのIDをID昇順で返す。
func (r *PostgresMemberRepo) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM members ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("メンバーID一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("メンバーID行の読み取りに失敗しました: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("メンバーID一覧の走査に失敗しました: %w", err)
	}
	return ids, nil
}

// ListBirthdayCandidates は誕生日候補の生タプルを取得する。
//
// 並べ替えは保存値の月日部分（MM-DD）を抽出し、今日より前の月日に
// プレフィックス'13-'を付けて末尾に回すことで「次に迎える順」を実現する。
// friendOfIDが指定された場合は承認済みフレンド関係（双方向）に絞り込む。
func (r *PostgresMemberRepo) ListBirthdayCandidates(ctx context.Context, fieldID int, friendOfID string, limit int) ([]BirthdayCandidate, error) {
	query := `SELECT m.id, m.display_name, m.username, m.avatar_url, pd.value
	 FROM members m
	 JOIN profile_data pd ON pd.member_id = m.id
	 WHERE pd.field_id = $1
	   AND pd.value <> ''
	   AND pd.value NOT LIKE '0000-00-00%'`

	args := []any{fieldID}

	if friendOfID != "" {
		query += `
	   AND m.id IN (
	       SELECT friend_id FROM friendships
	        WHERE initiator_id = $2 AND is_confirmed = TRUE
	       UNION
	       SELECT initiator_id FROM friendships
	        WHERE friend_id = $2 AND is_confirmed = TRUE
	   )`
		args = append(args, friendOfID)
	}

	query += fmt.Sprintf(`
	 ORDER BY CASE
	     WHEN substr(pd.value, 6, 5) >= to_char(CURRENT_DATE, 'MM-DD')
	     THEN substr(pd.value, 6, 5)
	     ELSE '13-' || substr(pd.value, 6, 5)
	 END ASC
	 LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("誕生日候補の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var candidates []BirthdayCandidate
	for rows.Next() {
		var c BirthdayCandidate
		if err := rows.Scan(&c.MemberID, &c.DisplayName, &c.Username, &c.AvatarURL, &c.BirthDate); err != nil {
			return nil, fmt.Errorf("誕生日候補行の読み取りに失敗しました: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("誕生日候補一覧の走査に失敗しました: %w", err)
	}
	return candidates, nil
}

// compile-time interface check
var _ MemberRepository = (*PostgresMemberRepo)(nil)
