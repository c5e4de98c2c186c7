package handler

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/birthdayman/internal/model"
	"github.com/hitoshi/birthdayman/internal/widget"
)

// WidgetRendererInterface はウィジェットハンドラーが必要とするレンダラーインターフェース。
type WidgetRendererInterface interface {
	Render(entries []model.BirthdayEntry, opts widget.Options) widget.View
}

// WidgetHandlerConfig はウィジェットハンドラーの設定を保持する。
type WidgetHandlerConfig struct {
	DefaultLocale string // 表示言語のデフォルト（en, ja）
}

// WidgetHandler はウィジェット表示モデルのHTTPハンドラー。
// 誕生日一覧を取得し、タイトル・絵文字・相対表現付きの表示モデルに整形して返す。
type WidgetHandler struct {
	service  BirthdayServiceInterface
	settings SettingsServiceInterface
	renderer WidgetRendererInterface
	config   WidgetHandlerConfig
}

// NewWidgetHandler はWidgetHandlerを生成する。
func NewWidgetHandler(service BirthdayServiceInterface, settings SettingsServiceInterface, renderer WidgetRendererInterface, config WidgetHandlerConfig) *WidgetHandler {
	return &WidgetHandler{
		service:  service,
		settings: settings,
		renderer: renderer,
		config:   config,
	}
}

// GetWidget はウィジェット表示モデルを取得する。
// GET /api/widget?title=&range=&limit=&scope=&show_age=&greeting=&emoji=&name_type=&locale=
//
// 誕生日一覧と同じ絞り込みパラメータに加えて表示オプションを受け付ける。
func (h *WidgetHandler) GetWidget(w http.ResponseWriter, r *http.Request) {
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

	q := r.URL.Query()
	locale := q.Get("locale")
	if locale == "" {
		locale = h.config.DefaultLocale
	}

	view := h.renderer.Render(entries, widget.Options{
		Title:        q.Get("title"),
		ShowAge:      parseBoolDefault(q.Get("show_age"), true),
		ShowGreeting: parseBoolDefault(q.Get("greeting"), true),
		Emoji:        parseBoolDefault(q.Get("emoji"), true),
		NameVariant:  q.Get("name_type"),
		Locale:       locale,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

// parseBoolDefault はクエリパラメータのbool値をパースする。
// 空文字・不正な値の場合はデフォルト値を返す。
func parseBoolDefault(raw string, def bool) bool {
	switch raw {
	case "true", "1":
		return true
	case "false", "0":
		return false
	default:
		return def
	}
}
