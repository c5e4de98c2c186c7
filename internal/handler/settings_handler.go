package handler

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/birthdayman/internal/model"
	"github.com/hitoshi/birthdayman/internal/settings"
)

// SettingsHandler はウィジェット設定のHTTPハンドラー。
// 認証済みの閲覧者のみアクセスできる（ルーティング側で保証する）。
type SettingsHandler struct {
	service SettingsServiceInterface
}

// NewSettingsHandler はSettingsHandlerを生成する。
func NewSettingsHandler(service SettingsServiceInterface) *SettingsHandler {
	return &SettingsHandler{service: service}
}

// --- リクエスト・レスポンス型 ---

// settingsUpdateRequest は設定更新リクエストのボディ。
// nilのフィールドは変更しない部分更新を行う。
type settingsUpdateRequest struct {
	BirthdayFieldID *int    `json:"birthday_field_id,omitempty"`
	DefaultRange    *string `json:"default_range,omitempty"`
	DefaultLimit    *int    `json:"default_limit,omitempty"`
}

// profileFieldResponse は選択可能なフィールドのレスポンス。
type profileFieldResponse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// settingsResponse は設定のレスポンス。
type settingsResponse struct {
	BirthdayFieldID int                    `json:"birthday_field_id"`
	DefaultRange    string                 `json:"default_range"`
	DefaultLimit    int                    `json:"default_limit"`
	AvailableFields []profileFieldResponse `json:"available_fields,omitempty"`
}

// GetSettings は現在の設定と選択可能な日付型フィールドの一覧を取得する。
// GET /api/settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	current, err := h.service.Current(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	fields, err := h.service.DateFields(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := toSettingsResponse(current)
	resp.AvailableFields = make([]profileFieldResponse, 0, len(fields))
	for _, f := range fields {
		resp.AvailableFields = append(resp.AvailableFields, profileFieldResponse{
			ID:   f.ID,
			Name: f.Name,
			Type: f.Type,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// UpdateSettings は設定を検証して更新する。
// PUT /api/settings
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var body settingsUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST_BODY",
			Message:  "リクエストボディの形式が不正です。",
			Category: "validation",
			Action:   "JSON形式のボディを送信してください。",
		})
		return
	}

	updated, err := h.service.Update(r.Context(), settings.UpdateRequest{
		BirthdayFieldID: body.BirthdayFieldID,
		DefaultRange:    body.DefaultRange,
		DefaultLimit:    body.DefaultLimit,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toSettingsResponse(updated))
}

// toSettingsResponse はドメインモデルをレスポンス型に変換する。
func toSettingsResponse(s model.Settings) settingsResponse {
	return settingsResponse{
		BirthdayFieldID: s.BirthdayFieldID,
		DefaultRange:    string(s.DefaultRange),
		DefaultLimit:    s.DefaultLimit,
	}
}
