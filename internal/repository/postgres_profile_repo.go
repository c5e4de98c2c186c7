package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/birthdayman/internal/model"
)

// PostgresProfileFieldRepo はPostgreSQLを使用したプロフィールフィールドリポジトリ。
type PostgresProfileFieldRepo struct {
	db *sql.DB
}

// NewPostgresProfileFieldRepo はPostgresProfileFieldRepoを生成する。
func NewPostgresProfileFieldRepo(db *sql.DB) *PostgresProfileFieldRepo {
	return &PostgresProfileFieldRepo{db: db}
}

// FindByID は指定IDのフィールドを取得する。見つからない場合はnilを返す。
func (r *PostgresProfileFieldRepo) FindByID(ctx context.Context, id int) (*model.ProfileField, error) {
	field := &model.ProfileField{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, type FROM profile_fields WHERE id = $1`,
		id,
	).Scan(&field.ID, &field.Name, &field.Type)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("プロフィールフィールドの取得に失敗しました: %w", err)
	}

	return field, nil
}

// ListDateFields は日付型のフィールドを名前昇順で返す。
func (r *PostgresProfileFieldRepo) ListDateFields(ctx context.Context) ([]model.ProfileField, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, type FROM profile_fields
		 WHERE type IN ($1, $2) ORDER BY name ASC`,
		model.FieldTypeDatebox, model.FieldTypeBirthdate,
	)
	if err != nil {
		return nil, fmt.Errorf("日付型フィールド一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var fields []model.ProfileField
	for rows.Next() {
		var f model.ProfileField
		if err := rows.Scan(&f.ID, &f.Name, &f.Type); err != nil {
			return nil, fmt.Errorf("フィールド行の読み取りに失敗しました: %w", err)
		}
		fields = append(fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("日付型フィールド一覧の走査に失敗しました: %w", err)
	}
	return fields, nil
}

// PostgresProfileDataRepo はPostgreSQLを使用したプロフィールフィールド値リポジトリ。
type PostgresProfileDataRepo struct {
	db *sql.DB
}

// NewPostgresProfileDataRepo はPostgresProfileDataRepoを生成する。
func NewPostgresProfileDataRepo(db *sql.DB) *PostgresProfileDataRepo {
	return &PostgresProfileDataRepo{db: db}
}

// FindValue は指定フィールド・メンバーの値を取得する。未設定の場合は空文字を返す。
func (r *PostgresProfileDataRepo) FindValue(ctx context.Context, fieldID int, memberID string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM profile_data WHERE field_id = $1 AND member_id = $2`,
		fieldID, memberID,
	).Scan(&value)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("フィールド値の取得に失敗しました: %w", err)
	}

	return value, nil
}

// Upsert はフィールド値を冪等に登録・更新する。
func (r *PostgresProfileDataRepo) Upsert(ctx context.Context, fieldID int, memberID, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profile_data (field_id, member_id, value, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (field_id, member_id)
		 DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		fieldID, memberID, value,
	)
	if err != nil {
		return fmt.Errorf("フィールド値の保存に失敗しました: %w", err)
	}
	return nil
}

// DeleteByFieldID は指定フィールドの全値を削除し、削除件数を返す。
func (r *PostgresProfileDataRepo) DeleteByFieldID(ctx context.Context, fieldID int) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM profile_data WHERE field_id = $1`,
		fieldID,
	)
	if err != nil {
		return 0, fmt.Errorf("フィールド値の削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	return rowsAffected, nil
}

// compile-time interface check
var (
	_ ProfileFieldRepository = (*PostgresProfileFieldRepo)(nil)
	_ ProfileDataRepository  = (*PostgresProfileDataRepo)(nil)
)
