// Package settings は誕生日ウィジェット設定の読み書きを提供する。
package settings

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hitoshi/birthdayman/internal/model"
	"github.com/hitoshi/birthdayman/internal/repository"
)

// 設定ストアのキー
const (
	keyBirthdayFieldID = "birthday_field_id"
	keyDefaultRange    = "default_range"
	keyDefaultLimit    = "default_limit"
)

// ServiceInterface は設定サービスのインターフェース。
type ServiceInterface interface {
	// Current は現在の設定を返す。
	// 環境変数由来のデフォルト値に設定ストアの値を上書きして構成する。
	Current(ctx context.Context) (model.Settings, error)

	// Update は設定を検証して保存し、更新後の設定を返す。
	Update(ctx context.Context, req UpdateRequest) (model.Settings, error)

	// DateFields は誕生日フィールドとして選択可能な日付型フィールドの一覧を返す。
	DateFields(ctx context.Context) ([]model.ProfileField, error)
}

// UpdateRequest は設定更新のリクエストを表す。
// nilのフィールドは「変更しない」を意味する。
type UpdateRequest struct {
	BirthdayFieldID *int
	DefaultRange    *string
	DefaultLimit    *int
}

// Service は設定サービスの実装。
// 設定はストアに保存され、未保存のキーは環境変数のデフォルト値で補完される。
type Service struct {
	store    repository.SettingsRepository
	fields   repository.ProfileFieldRepository
	defaults model.Settings
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(store repository.SettingsRepository, fields repository.ProfileFieldRepository, defaults model.Settings) *Service {
	return &Service{
		store:    store,
		fields:   fields,
		defaults: defaults,
	}
}

// Current は現在の設定を返す。
// ストアに保存された値が不正な形式の場合はデフォルト値にフォールバックする。
func (s *Service) Current(ctx context.Context) (model.Settings, error) {
	result := s.defaults

	if raw, err := s.store.Get(ctx, keyBirthdayFieldID); err != nil {
		return model.Settings{}, fmt.Errorf("誕生日フィールドID設定の取得に失敗しました: %w", err)
	} else if raw != "" {
		if id, err := strconv.Atoi(raw); err == nil && id > 0 {
			result.BirthdayFieldID = id
		}
	}

	if raw, err := s.store.Get(ctx, keyDefaultRange); err != nil {
		return model.Settings{}, fmt.Errorf("デフォルト表示範囲設定の取得に失敗しました: %w", err)
	} else if raw != "" {
		if rng, ok := model.ParseRange(raw); ok {
			result.DefaultRange = rng
		}
	}

	if raw, err := s.store.Get(ctx, keyDefaultLimit); err != nil {
		return model.Settings{}, fmt.Errorf("デフォルト表示件数設定の取得に失敗しました: %w", err)
	} else if raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit >= model.MinLimit && limit <= model.MaxLimit {
			result.DefaultLimit = limit
		}
	}

	return result, nil
}

// Update は設定を検証して保存し、更新後の設定を返す。
// 誕生日フィールドは存在確認に加えて日付型であることを検証する。
func (s *Service) Update(ctx context.Context, req UpdateRequest) (model.Settings, error) {
	if req.BirthdayFieldID != nil {
		fieldID := *req.BirthdayFieldID

		field, err := s.fields.FindByID(ctx, fieldID)
		if err != nil {
			return model.Settings{}, fmt.Errorf("プロフィールフィールドの確認に失敗しました: %w", err)
		}
		if field == nil {
			return model.Settings{}, model.NewFieldNotFoundError(fieldID)
		}
		if !field.IsDateType() {
			return model.Settings{}, model.NewFieldNotDateTypeError(fieldID)
		}

		if err := s.store.Set(ctx, keyBirthdayFieldID, strconv.Itoa(fieldID)); err != nil {
			return model.Settings{}, fmt.Errorf("誕生日フィールドID設定の保存に失敗しました: %w", err)
		}
	}

	if req.DefaultRange != nil {
		rng, ok := model.ParseRange(*req.DefaultRange)
		if !ok {
			return model.Settings{}, model.NewInvalidRangeError(*req.DefaultRange)
		}

		if err := s.store.Set(ctx, keyDefaultRange, string(rng)); err != nil {
			return model.Settings{}, fmt.Errorf("デフォルト表示範囲設定の保存に失敗しました: %w", err)
		}
	}

	if req.DefaultLimit != nil {
		limit := *req.DefaultLimit
		if limit < model.MinLimit || limit > model.MaxLimit {
			return model.Settings{}, model.NewInvalidLimitError(limit)
		}

		if err := s.store.Set(ctx, keyDefaultLimit, strconv.Itoa(limit)); err != nil {
			return model.Settings{}, fmt.Errorf("デフォルト表示件数設定の保存に失敗しました: %w", err)
		}
	}

	return s.Current(ctx)
}

// DateFields は誕生日フィールドとして選択可能な日付型フィールドの一覧を返す。
func (s *Service) DateFields(ctx context.Context) ([]model.ProfileField, error) {
	fields, err := s.fields.ListDateFields(ctx)
	if err != nil {
		return nil, fmt.Errorf("日付型フィールド一覧の取得に失敗しました: %w", err)
	}
	return fields, nil
}

// compile-time interface check
var _ ServiceInterface = (*Service)(nil)
