package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/hitoshi/birthdayman/internal/birthday"
	"github.com/hitoshi/birthdayman/internal/middleware"
	"github.com/hitoshi/birthdayman/internal/model"
	"github.com/hitoshi/birthdayman/internal/settings"
)

// BirthdayServiceInterface は誕生日ハンドラーが必要とするサービスインターフェース。
type BirthdayServiceInterface interface {
	// List は指定条件の誕生日一覧を返す。
	List(ctx context.Context, req birthday.ListRequest) ([]model.BirthdayEntry, error)
}

// SettingsServiceInterface は設定サービスのインターフェース。
type SettingsServiceInterface interface {
	Current(ctx context.Context) (model.Settings, error)
	Update(ctx context.Context, req settings.UpdateRequest) (model.Settings, error)
	DateFields(ctx context.Context) ([]model.ProfileField, error)
}

// BirthdayHandler は誕生日一覧のHTTPハンドラー。
type BirthdayHandler struct {
	service  BirthdayServiceInterface
	settings SettingsServiceInterface
}

// NewBirthdayHandler はBirthdayHandlerを生成する。
func NewBirthdayHandler(service BirthdayServiceInterface, settings SettingsServiceInterface) *BirthdayHandler {
	return &BirthdayHandler{
		service:  service,
		settings: settings,
	}
}

// --- レスポンス型 ---

// birthdayEntryResponse は誕生日1件分のレスポンス。
type birthdayEntryResponse struct {
	MemberID      string `json:"member_id"`
	Name          string `json:"name"`
	Username      string `json:"username"`
	Birthday      string `json:"birthday"`
	Age           int    `json:"age"`
	NextBirthday  string `json:"next_birthday"`
	DaysUntil     int    `json:"days_until"`
	FormattedDate string `json:"formatted_date"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	ProfileURL    string `json:"profile_url"`
	MessageURL    string `json:"message_url,omitempty"`
}

// birthdayListResponse は誕生日一覧のレスポンス。
type birthdayListResponse struct {
	Birthdays []birthdayEntryResponse `json:"birthdays"`
	Count     int                     `json:"count"`
	Range     string                  `json:"range"`
	Scope     string                  `json:"scope"`
}

// ListBirthdays は誕生日一覧を取得する。
// GET /api/birthdays?range=today|weekly|monthly|upcoming&limit=N&scope=all|friends&field_id=N
//
// range、limit、field_idは省略時に設定サービスのデフォルト値を使用する。
// scope=friendsは認証済み閲覧者のみ指定できる。
func (h *BirthdayHandler) ListBirthdays(w http.ResponseWriter, r *http.Request) {
	current, err := h.settings.Current(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	req, apiErr := buildListRequest(r, current)
	if apiErr != nil {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	entries, err := h.service.List(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := birthdayListResponse{
		Birthdays: make([]birthdayEntryResponse, 0, len(entries)),
		Count:     len(entries),
		Range:     string(req.Range),
		Scope:     string(req.Scope),
	}
	for _, entry := range entries {
		resp.Birthdays = append(resp.Birthdays, toEntryResponse(entry))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// buildListRequest はクエリパラメータと設定デフォルトからListRequestを構成する。
// 誕生日一覧とウィジェットの両エンドポイントで共有する。
func buildListRequest(r *http.Request, current model.Settings) (birthday.ListRequest, *model.APIError) {
	req := birthday.ListRequest{
		FieldID: current.BirthdayFieldID,
		Range:   current.DefaultRange,
		Limit:   current.DefaultLimit,
		Scope:   model.ScopeAll,
	}

	q := r.URL.Query()

	if raw := q.Get("range"); raw != "" {
		rng, ok := model.ParseRange(raw)
		if !ok {
			return req, model.NewInvalidRangeError(raw)
		}
		req.Range = rng
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < model.MinLimit || limit > model.MaxLimit {
			return req, model.NewInvalidLimitError(limit)
		}
		req.Limit = limit
	}

	if raw := q.Get("scope"); raw != "" {
		scope, ok := model.ParseScope(raw)
		if !ok {
			return req, model.NewInvalidScopeError(raw)
		}
		req.Scope = scope
	}

	if raw := q.Get("field_id"); raw != "" {
		fieldID, err := strconv.Atoi(raw)
		if err != nil || fieldID <= 0 {
			return req, model.NewFieldNotFoundError(fieldID)
		}
		req.FieldID = fieldID
	}

	// 閲覧者IDは任意。匿名の場合は空のまま
	if viewerID, err := middleware.ViewerIDFromContext(r.Context()); err == nil {
		req.ViewerID = viewerID
	}

	// フレンド範囲は認証済み閲覧者のみ
	if req.Scope == model.ScopeFriends && req.ViewerID == "" {
		return req, model.NewUnauthorizedError()
	}

	return req, nil
}

// toEntryResponse はドメインモデルをレスポンス型に変換する。
func toEntryResponse(entry model.BirthdayEntry) birthdayEntryResponse {
	return birthdayEntryResponse{
		MemberID:      entry.MemberID,
		Name:          entry.Name,
		Username:      entry.Username,
		Birthday:      entry.Birthday,
		Age:           entry.Age,
		NextBirthday:  entry.NextBirthday.Format("2006-01-02"),
		DaysUntil:     entry.DaysUntil,
		FormattedDate: entry.FormattedDate,
		AvatarURL:     entry.AvatarURL,
		ProfileURL:    entry.ProfileURL,
		MessageURL:    entry.MessageURL,
	}
}
