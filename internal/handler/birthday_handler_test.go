package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/birthdayman/internal/birthday"
	"github.com/hitoshi/birthdayman/internal/middleware"
	"github.com/hitoshi/birthdayman/internal/model"
	"github.com/hitoshi/birthdayman/internal/settings"
)

// --- モック定義 ---

type mockBirthdayService struct {
	listFunc func(ctx context.Context, req birthday.ListRequest) ([]model.BirthdayEntry, error)
}

func (m *mockBirthdayService) List(ctx context.Context, req birthday.ListRequest) ([]model.BirthdayEntry, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, req)
	}
	return []model.BirthdayEntry{}, nil
}

type mockSettingsService struct {
	currentFunc    func(ctx context.Context) (model.Settings, error)
	updateFunc     func(ctx context.Context, req settings.UpdateRequest) (model.Settings, error)
	dateFieldsFunc func(ctx context.Context) ([]model.ProfileField, error)
}

func (m *mockSettingsService) Current(ctx context.Context) (model.Settings, error) {
	if m.currentFunc != nil {
		return m.currentFunc(ctx)
	}
	return model.Settings{BirthdayFieldID: 7, DefaultRange: model.RangeUpcoming, DefaultLimit: 5}, nil
}

func (m *mockSettingsService) Update(ctx context.Context, req settings.UpdateRequest) (model.Settings, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, req)
	}
	return model.Settings{}, nil
}

func (m *mockSettingsService) DateFields(ctx context.Context) ([]model.ProfileField, error) {
	if m.dateFieldsFunc != nil {
		return m.dateFieldsFunc(ctx)
	}
	return nil, nil
}

func sampleEntry() model.BirthdayEntry {
	return model.BirthdayEntry{
		MemberID:      "m1",
		Name:          "Alice",
		Username:      "alice",
		Birthday:      "1990-01-12",
		Age:           33,
		NextBirthday:  time.Date(2024, time.January, 12, 0, 0, 0, 0, time.UTC),
		DaysUntil:     2,
		FormattedDate: "January 12",
		ProfileURL:    "https://example.com/members/alice",
	}
}

// --- テスト ---

func TestListBirthdays_ReturnsEntries(t *testing.T) {
	var gotReq birthday.ListRequest
	svc := &mockBirthdayService{
		listFunc: func(ctx context.Context, req birthday.ListRequest) ([]model.BirthdayEntry, error) {
			gotReq = req
			return []model.BirthdayEntry{sampleEntry()}, nil
		},
	}
	h := NewBirthdayHandler(svc, &mockSettingsService{})

	req := httptest.NewRequest(http.MethodGet, "/api/birthdays", nil)
	w := httptest.NewRecorder()
	h.ListBirthdays(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	// 設定デフォルトが適用される
	if gotReq.FieldID != 7 {
		t.Errorf("FieldID = %d, want 7 from settings", gotReq.FieldID)
	}
	if gotReq.Range != model.RangeUpcoming {
		t.Errorf("Range = %s, want upcoming", gotReq.Range)
	}
	if gotReq.Limit != 5 {
		t.Errorf("Limit = %d, want 5", gotReq.Limit)
	}
	if gotReq.Scope != model.ScopeAll {
		t.Errorf("Scope = %s, want all", gotReq.Scope)
	}

	var body birthdayListResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Count != 1 || len(body.Birthdays) != 1 {
		t.Fatalf("count = %d, len = %d, want 1", body.Count, len(body.Birthdays))
	}
	if body.Birthdays[0].Name != "Alice" {
		t.Errorf("name = %q, want Alice", body.Birthdays[0].Name)
	}
	if body.Birthdays[0].NextBirthday != "2024-01-12" {
		t.Errorf("next_birthday = %q, want 2024-01-12", body.Birthdays[0].NextBirthday)
	}
}

func TestListBirthdays_QueryParamsOverrideDefaults(t *testing.T) {
	var gotReq birthday.ListRequest
	svc := &mockBirthdayService{
		listFunc: func(ctx context.Context, req birthday.ListRequest) ([]model.BirthdayEntry, error) {
			gotReq = req
			return nil, nil
		},
	}
	h := NewBirthdayHandler(svc, &mockSettingsService{})

	req := httptest.NewRequest(http.MethodGet, "/api/birthdays?range=weekly&limit=10&field_id=9", nil)
	w := httptest.NewRecorder()
	h.ListBirthdays(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Result().StatusCode)
	}
	if gotReq.Range != model.RangeWeekly {
		t.Errorf("Range = %s, want weekly", gotReq.Range)
	}
	if gotReq.Limit != 10 {
		t.Errorf("Limit = %d, want 10", gotReq.Limit)
	}
	if gotReq.FieldID != 9 {
		t.Errorf("FieldID = %d, want 9", gotReq.FieldID)
	}
}

func TestListBirthdays_InvalidParams_Return400(t *testing.T) {
	h := NewBirthdayHandler(&mockBirthdayService{}, &mockSettingsService{})

	tests := []struct {
		name     string
		query    string
		wantCode string
	}{
		{"invalid range", "?range=yearly", model.ErrCodeInvalidRange},
		{"invalid limit", "?limit=0", model.ErrCodeInvalidLimit},
		{"limit too large", "?limit=51", model.ErrCodeInvalidLimit},
		{"limit not a number", "?limit=abc", model.ErrCodeInvalidLimit},
		{"invalid scope", "?scope=everyone", model.ErrCodeInvalidScope},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/birthdays"+tt.query, nil)
			w := httptest.NewRecorder()
			h.ListBirthdays(w, req)

			resp := w.Result()
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}

			var body apiErrorResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
		})
	}
}

func TestListBirthdays_NoFieldConfigured_Returns400(t *testing.T) {
	svc := &mockBirthdayService{
		listFunc: func(ctx context.Context, req birthday.ListRequest) ([]model.BirthdayEntry, error) {
			return nil, model.NewNoBirthdayFieldError()
		},
	}
	settingsSvc := &mockSettingsService{
		currentFunc: func(ctx context.Context) (model.Settings, error) {
			return model.Settings{BirthdayFieldID: 0, DefaultRange: model.RangeUpcoming, DefaultLimit: 5}, nil
		},
	}
	h := NewBirthdayHandler(svc, settingsSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/birthdays", nil)
	w := httptest.NewRecorder()
	h.ListBirthdays(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var body apiErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != model.ErrCodeNoBirthdayField {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeNoBirthdayField)
	}
}

func TestListBirthdays_FriendsScopeAnonymous_Returns401(t *testing.T) {
	h := NewBirthdayHandler(&mockBirthdayService{}, &mockSettingsService{})

	req := httptest.NewRequest(http.MethodGet, "/api/birthdays?scope=friends", nil)
	w := httptest.NewRecorder()
	h.ListBirthdays(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}

	var body apiErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != model.ErrCodeUnauthorized {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUnauthorized)
	}
}

func TestListBirthdays_FriendsScopeAuthenticated_PassesViewerID(t *testing.T) {
	var gotReq birthday.ListRequest
	svc := &mockBirthdayService{
		listFunc: func(ctx context.Context, req birthday.ListRequest) ([]model.BirthdayEntry, error) {
			gotReq = req
			return nil, nil
		},
	}
	h := NewBirthdayHandler(svc, &mockSettingsService{})

	req := httptest.NewRequest(http.MethodGet, "/api/birthdays?scope=friends", nil)
	req = req.WithContext(middleware.ContextWithViewerID(req.Context(), "member-1"))
	w := httptest.NewRecorder()
	h.ListBirthdays(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Result().StatusCode)
	}
	if gotReq.Scope != model.ScopeFriends {
		t.Errorf("Scope = %s, want friends", gotReq.Scope)
	}
	if gotReq.ViewerID != "member-1" {
		t.Errorf("ViewerID = %q, want member-1", gotReq.ViewerID)
	}
}

func TestListBirthdays_StoreError_Returns503(t *testing.T) {
	svc := &mockBirthdayService{
		listFunc: func(ctx context.Context, req birthday.ListRequest) ([]model.BirthdayEntry, error) {
			return nil, model.NewStoreUnavailableError(context.DeadlineExceeded)
		},
	}
	h := NewBirthdayHandler(svc, &mockSettingsService{})

	req := httptest.NewRequest(http.MethodGet, "/api/birthdays", nil)
	w := httptest.NewRecorder()
	h.ListBirthdays(w, req)

	if w.Result().StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Result().StatusCode)
	}
}
