package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/birthdayman/internal/birthday"
	"github.com/hitoshi/birthdayman/internal/model"
	"github.com/hitoshi/birthdayman/internal/widget"
)

type mockWidgetRenderer struct {
	renderFunc func(entries []model.BirthdayEntry, opts widget.Options) widget.View
}

func (m *mockWidgetRenderer) Render(entries []model.BirthdayEntry, opts widget.Options) widget.View {
	if m.renderFunc != nil {
		return m.renderFunc(entries, opts)
	}
	return widget.View{}
}

func TestGetWidget_PassesDisplayOptionsToRenderer(t *testing.T) {
	var gotOpts widget.Options
	var gotEntries []model.BirthdayEntry
	renderer := &mockWidgetRenderer{
		renderFunc: func(entries []model.BirthdayEntry, opts widget.Options) widget.View {
			gotEntries = entries
			gotOpts = opts
			return widget.View{Title: opts.Title, Items: []widget.Item{}}
		},
	}
	svc := &mockBirthdayService{
		listFunc: func(ctx context.Context, req birthday.ListRequest) ([]model.BirthdayEntry, error) {
			return []model.BirthdayEntry{sampleEntry()}, nil
		},
	}
	h := NewWidgetHandler(svc, &mockSettingsService{}, renderer, WidgetHandlerConfig{DefaultLocale: "en"})

	req := httptest.NewRequest(http.MethodGet, "/api/widget?title=Party+Time&show_age=false&greeting=true&emoji=false&name_type=username&locale=ja", nil)
	w := httptest.NewRecorder()
	h.GetWidget(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if len(gotEntries) != 1 {
		t.Fatalf("entries length = %d, want 1", len(gotEntries))
	}
	if gotOpts.Title != "Party Time" {
		t.Errorf("Title = %q, want Party Time", gotOpts.Title)
	}
	if gotOpts.ShowAge {
		t.Error("ShowAge = true, want false")
	}
	if !gotOpts.ShowGreeting {
		t.Error("ShowGreeting = false, want true")
	}
	if gotOpts.Emoji {
		t.Error("Emoji = true, want false")
	}
	if gotOpts.NameVariant != widget.NameVariantUsername {
		t.Errorf("NameVariant = %q, want username", gotOpts.NameVariant)
	}
	if gotOpts.Locale != "ja" {
		t.Errorf("Locale = %q, want ja", gotOpts.Locale)
	}

	var view widget.View
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if view.Title != "Party Time" {
		t.Errorf("title = %q, want Party Time", view.Title)
	}
}

func TestGetWidget_DefaultsWhenOptionsOmitted(t *testing.T) {
	var gotOpts widget.Options
	renderer := &mockWidgetRenderer{
		renderFunc: func(entries []model.BirthdayEntry, opts widget.Options) widget.View {
			gotOpts = opts
			return widget.View{}
		},
	}
	h := NewWidgetHandler(&mockBirthdayService{}, &mockSettingsService{}, renderer, WidgetHandlerConfig{DefaultLocale: "en"})

	req := httptest.NewRequest(http.MethodGet, "/api/widget", nil)
	w := httptest.NewRecorder()
	h.GetWidget(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Result().StatusCode)
	}
	// 表示オプションは省略時すべて有効
	if !gotOpts.ShowAge || !gotOpts.ShowGreeting || !gotOpts.Emoji {
		t.Errorf("options = %+v, want ShowAge/ShowGreeting/Emoji all true", gotOpts)
	}
	if gotOpts.Title != "" {
		t.Errorf("Title = %q, want empty for locale default", gotOpts.Title)
	}
	if gotOpts.Locale != "en" {
		t.Errorf("Locale = %q, want en from config default", gotOpts.Locale)
	}
}

func TestGetWidget_SharesListValidation(t *testing.T) {
	h := NewWidgetHandler(&mockBirthdayService{}, &mockSettingsService{}, &mockWidgetRenderer{}, WidgetHandlerConfig{DefaultLocale: "en"})

	req := httptest.NewRequest(http.MethodGet, "/api/widget?range=yearly", nil)
	w := httptest.NewRecorder()
	h.GetWidget(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var body apiErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != model.ErrCodeInvalidRange {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeInvalidRange)
	}
}

func TestParseBoolDefault(t *testing.T) {
	tests := []struct {
		raw  string
		def  bool
		want bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"false", true, false},
		{"0", true, false},
		{"", true, true},
		{"", false, false},
		{"yes", false, false},
	}

	for _, tt := range tests {
		if got := parseBoolDefault(tt.raw, tt.def); got != tt.want {
			t.Errorf("parseBoolDefault(%q, %t) = %t, want %t", tt.raw, tt.def, got, tt.want)
		}
	}
}
