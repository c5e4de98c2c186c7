package birthday

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/birthdayman/internal/model"
	"github.com/hitoshi/birthdayman/internal/repository"
)

// fixedClock はテスト用の固定時刻Clock
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

// mockMemberRepository はテスト用のMemberRepositoryモック
type mockMemberRepository struct {
	listBirthdayCandidatesFunc func(ctx context.Context, fieldID int, friendOfID string, limit int) ([]repository.BirthdayCandidate, error)
}

func (m *mockMemberRepository) FindByID(ctx context.Context, id string) (*model.Member, error) {
	return nil, nil
}

func (m *mockMemberRepository) Create(ctx context.Context, member *model.Member) error {
	return nil
}

func (m *mockMemberRepository) ListIDs(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (m *mockMemberRepository) ListBirthdayCandidates(ctx context.Context, fieldID int, friendOfID string, limit int) ([]repository.BirthdayCandidate, error) {
	if m.listBirthdayCandidatesFunc != nil {
		return m.listBirthdayCandidatesFunc(ctx, fieldID, friendOfID, limit)
	}
	return nil, nil
}

func newTestService(repo repository.MemberRepository, today time.Time) *Service {
	return NewService(repo, fixedClock{now: today}, nil, ServiceConfig{
		OverfetchFactor: 3,
		DateFormat:      "January 2",
		BaseURL:         "https://example.com",
		GreetingEnabled: true,
	})
}

// TestList_Upcoming は基本的な一覧取得と整形を確認する
func TestList_Upcoming(t *testing.T) {
	today := date(2024, time.January, 10)
	repo := &mockMemberRepository{
		listBirthdayCandidatesFunc: func(ctx context.Context, fieldID int, friendOfID string, limit int) ([]repository.BirthdayCandidate, error) {
			if fieldID != 7 {
				t.Errorf("fieldID = %d, want 7", fieldID)
			}
			if friendOfID != "" {
				t.Errorf("friendOfID = %q, want empty for scope all", friendOfID)
			}
			if limit != 15 {
				t.Errorf("limit = %d, want 15 (5 * overfetch factor 3)", limit)
			}
			return []repository.BirthdayCandidate{
				{MemberID: "m1", DisplayName: "Alice", Username: "alice", BirthDate: "1990-01-12"},
				{MemberID: "m2", DisplayName: "Bob", Username: "bob", BirthDate: "1985-12-31"},
			}, nil
		},
	}

	svc := newTestService(repo, today)
	entries, err := svc.List(context.Background(), ListRequest{
		FieldID:  7,
		Range:    model.RangeUpcoming,
		Limit:    5,
		Scope:    model.ScopeAll,
		ViewerID: "viewer1",
	})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}

	a := entries[0]
	if a.Name != "Alice" || a.Username != "alice" {
		t.Errorf("first entry identity = %q/%q, want Alice/alice", a.Name, a.Username)
	}
	if a.Birthday != "1990-01-12" {
		t.Errorf("Birthday = %q, want 1990-01-12", a.Birthday)
	}
	if a.Age != 33 {
		t.Errorf("Age = %d, want 33", a.Age)
	}
	if !a.NextBirthday.Equal(date(2024, time.January, 12)) {
		t.Errorf("NextBirthday = %v, want 2024-01-12", a.NextBirthday)
	}
	if a.DaysUntil != 2 {
		t.Errorf("DaysUntil = %d, want 2", a.DaysUntil)
	}
	if a.FormattedDate != "January 12" {
		t.Errorf("FormattedDate = %q, want January 12", a.FormattedDate)
	}
	if a.ProfileURL != "https://example.com/members/alice" {
		t.Errorf("ProfileURL = %q", a.ProfileURL)
	}
	if a.MessageURL != "https://example.com/messages/compose?r=alice" {
		t.Errorf("MessageURL = %q", a.MessageURL)
	}

	b := entries[1]
	if !b.NextBirthday.Equal(date(2024, time.December, 31)) {
		t.Errorf("second NextBirthday = %v, want 2024-12-31", b.NextBirthday)
	}
	if b.DaysUntil != 356 {
		t.Errorf("second DaysUntil = %d, want 356", b.DaysUntil)
	}
}

// TestList_RangeFiltering は範囲フィルタと不正日付のスキップを確認する
func TestList_RangeFiltering(t *testing.T) {
	today := date(2024, time.January, 10)
	repo := &mockMemberRepository{
		listBirthdayCandidatesFunc: func(ctx context.Context, fieldID int, friendOfID string, limit int) ([]repository.BirthdayCandidate, error) {
			return []repository.BirthdayCandidate{
				{MemberID: "m1", DisplayName: "InWindow", Username: "in", BirthDate: "1990-01-12"},
				{MemberID: "m2", DisplayName: "Broken", Username: "broken", BirthDate: "1990-02-30"},
				{MemberID: "m3", DisplayName: "OutOfWindow", Username: "out", BirthDate: "1990-06-15"},
				{MemberID: "m4", DisplayName: "Boundary", Username: "boundary", BirthDate: "1990-01-17"},
			}, nil
		},
	}

	svc := newTestService(repo, today)
	entries, err := svc.List(context.Background(), ListRequest{
		FieldID: 7,
		Range:   model.RangeWeekly,
		Limit:   5,
		Scope:   model.ScopeAll,
	})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2 (weekly window filters the rest)", len(entries))
	}
	if entries[0].MemberID != "m1" || entries[1].MemberID != "m4" {
		t.Errorf("kept members = %s, %s, want m1 and m4", entries[0].MemberID, entries[1].MemberID)
	}
}

// TestList_LimitCap はlimit件到達で走査を打ち切ることを確認する
func TestList_LimitCap(t *testing.T) {
	today := date(2024, time.January, 10)
	candidates := make([]repository.BirthdayCandidate, 10)
	for i := range candidates {
		candidates[i] = repository.BirthdayCandidate{
			MemberID:    string(rune('a' + i)),
			DisplayName: "Member",
			Username:    "member",
			BirthDate:   "1990-06-15",
		}
	}
	repo := &mockMemberRepository{
		listBirthdayCandidatesFunc: func(ctx context.Context, fieldID int, friendOfID string, limit int) ([]repository.BirthdayCandidate, error) {
			return candidates, nil
		},
	}

	svc := newTestService(repo, today)
	entries, err := svc.List(context.Background(), ListRequest{
		FieldID: 7,
		Range:   model.RangeUpcoming,
		Limit:   3,
		Scope:   model.ScopeAll,
	})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("len(entries) = %d, want 3", len(entries))
	}
}

// TestList_FriendsScope はフレンド範囲での閲覧者伝搬を確認する
func TestList_FriendsScope(t *testing.T) {
	today := date(2024, time.January, 10)
	var gotFriendOf string
	repo := &mockMemberRepository{
		listBirthdayCandidatesFunc: func(ctx context.Context, fieldID int, friendOfID string, limit int) ([]repository.BirthdayCandidate, error) {
			gotFriendOf = friendOfID
			return nil, nil
		},
	}

	svc := newTestService(repo, today)
	entries, err := svc.List(context.Background(), ListRequest{
		FieldID:  7,
		Range:    model.RangeUpcoming,
		Limit:    5,
		Scope:    model.ScopeFriends,
		ViewerID: "viewer1",
	})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if gotFriendOf != "viewer1" {
		t.Errorf("friendOfID = %q, want viewer1", gotFriendOf)
	}
	if entries == nil {
		t.Error("entries should be an empty slice, not nil")
	}
}

// TestList_FriendsScopeAnonymous はフレンド範囲で閲覧者不明なら空リストを返すことを確認する
func TestList_FriendsScopeAnonymous(t *testing.T) {
	called := false
	repo := &mockMemberRepository{
		listBirthdayCandidatesFunc: func(ctx context.Context, fieldID int, friendOfID string, limit int) ([]repository.BirthdayCandidate, error) {
			called = true
			return nil, nil
		},
	}

	svc := newTestService(repo, date(2024, time.January, 10))
	entries, err := svc.List(context.Background(), ListRequest{
		FieldID: 7,
		Range:   model.RangeUpcoming,
		Limit:   5,
		Scope:   model.ScopeFriends,
	})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("len(entries) = %d, want 0", len(entries))
	}
	if called {
		t.Error("member store should not be queried for anonymous friends scope")
	}
}

// TestList_NoGreetingForAnonymous は匿名閲覧者にメッセージURLを付与しないことを確認する
func TestList_NoGreetingForAnonymous(t *testing.T) {
	repo := &mockMemberRepository{
		listBirthdayCandidatesFunc: func(ctx context.Context, fieldID int, friendOfID string, limit int) ([]repository.BirthdayCandidate, error) {
			return []repository.BirthdayCandidate{
				{MemberID: "m1", DisplayName: "Alice", Username: "alice", BirthDate: "1990-06-15"},
			}, nil
		},
	}

	svc := newTestService(repo, date(2024, time.January, 10))
	entries, err := svc.List(context.Background(), ListRequest{
		FieldID: 7,
		Range:   model.RangeUpcoming,
		Limit:   5,
		Scope:   model.ScopeAll,
	})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].MessageURL != "" {
		t.Errorf("MessageURL = %q, want empty for anonymous viewer", entries[0].MessageURL)
	}
}

// TestList_ValidationErrors はリクエスト検証エラーを確認する
func TestList_ValidationErrors(t *testing.T) {
	svc := newTestService(&mockMemberRepository{}, date(2024, time.January, 10))

	tests := []struct {
		name     string
		req      ListRequest
		wantCode string
	}{
		{"field not configured", ListRequest{FieldID: 0, Range: model.RangeUpcoming, Limit: 5}, model.ErrCodeNoBirthdayField},
		{"limit too small", ListRequest{FieldID: 7, Range: model.RangeUpcoming, Limit: 0}, model.ErrCodeInvalidLimit},
		{"limit too large", ListRequest{FieldID: 7, Range: model.RangeUpcoming, Limit: 51}, model.ErrCodeInvalidLimit},
		{"invalid range", ListRequest{FieldID: 7, Range: model.Range("yearly"), Limit: 5}, model.ErrCodeInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.List(context.Background(), tt.req)
			if err == nil {
				t.Fatal("List should return error")
			}
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error type = %T, want *model.APIError", err)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("error code = %s, want %s", apiErr.Code, tt.wantCode)
			}
		})
	}
}

// TestList_StoreError はストア障害の伝搬を確認する
func TestList_StoreError(t *testing.T) {
	repo := &mockMemberRepository{
		listBirthdayCandidatesFunc: func(ctx context.Context, fieldID int, friendOfID string, limit int) ([]repository.BirthdayCandidate, error) {
			return nil, errors.New("connection refused")
		},
	}

	svc := newTestService(repo, date(2024, time.January, 10))
	_, err := svc.List(context.Background(), ListRequest{
		FieldID: 7,
		Range:   model.RangeUpcoming,
		Limit:   5,
		Scope:   model.ScopeAll,
	})
	if err == nil {
		t.Fatal("List should return error")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodeStoreUnavailable {
		t.Errorf("error code = %s, want %s", apiErr.Code, model.ErrCodeStoreUnavailable)
	}
}

// TestList_EmptyScopeDefaultsToAll はscope未指定時のデフォルトを確認する
func TestList_EmptyScopeDefaultsToAll(t *testing.T) {
	var gotFriendOf string
	repo := &mockMemberRepository{
		listBirthdayCandidatesFunc: func(ctx context.Context, fieldID int, friendOfID string, limit int) ([]repository.BirthdayCandidate, error) {
			gotFriendOf = friendOfID
			return nil, nil
		},
	}

	svc := newTestService(repo, date(2024, time.January, 10))
	_, err := svc.List(context.Background(), ListRequest{
		FieldID: 7,
		Range:   model.RangeUpcoming,
		Limit:   5,
	})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if gotFriendOf != "" {
		t.Errorf("friendOfID = %q, want empty", gotFriendOf)
	}
}
