package birthday

import (
	"context"
	"net/url"
	"time"

	"github.com/hitoshi/birthdayman/internal/model"
	"github.com/hitoshi/birthdayman/internal/repository"
)

// defaultOverfetchFactor は範囲フィルタ前の先読み係数のデフォルト値。
// 範囲フィルタはフェッチ後に行われるため、limit件ちょうどの取得では
// 該当レコードが後方に埋もれて取りこぼす可能性がある。
const defaultOverfetchFactor = 3

// QueryMetrics は誕生日クエリのメトリクス収集インターフェース。
// metricsパッケージのCollectorが実装する。
type QueryMetrics interface {
	RecordQuery(rng, scope string, duration time.Duration)
	RecordCandidatesScanned(count int)
	RecordInvalidDate()
	RecordStoreError()
}

// ServiceConfig はServiceの動作設定を保持する。
type ServiceConfig struct {
	OverfetchFactor int    // limit×N件を先読みする係数
	DateFormat      string // 表示用日付のGoレイアウト
	BaseURL         string // プロフィールURL・メッセージURLのベース
	GreetingEnabled bool   // お祝いメッセージURLを生成するか
}

// ListRequest は誕生日一覧クエリのリクエストを表す。
// 境界層（ハンドラー）でバリデーション済みの値を受け取る。
type ListRequest struct {
	FieldID  int         // 誕生日を保持するプロフィールフィールドID
	Range    model.Range // 表示範囲
	Limit    int         // 最大件数
	Scope    model.Scope // 対象メンバー
	ViewerID string      // 閲覧者のメンバーID。匿名の場合は空
}

// Service は誕生日一覧クエリのサービス層。
// メンバーストアからの候補取得と日付エンジンによる絞り込み・整形を組み合わせ、
// 近い順に並んだ最大limit件の誕生日一覧を生成する。読み取り専用で状態を持たない。
type Service struct {
	members repository.MemberRepository
	clock   Clock
	metrics QueryMetrics
	cfg     ServiceConfig
}

// NewService はServiceの新しいインスタンスを生成する。
// clockがnilの場合はRealClockを使用する。metricsはnilを許容する。
func NewService(members repository.MemberRepository, clock Clock, metrics QueryMetrics, cfg ServiceConfig) *Service {
	if clock == nil {
		clock = RealClock{}
	}
	if cfg.OverfetchFactor < 1 {
		cfg.OverfetchFactor = defaultOverfetchFactor
	}
	if cfg.DateFormat == "" {
		cfg.DateFormat = DefaultDateFormat
	}
	return &Service{
		members: members,
		clock:   clock,
		metrics: metrics,
		cfg:     cfg,
	}
}

// List は指定条件の誕生日一覧を返す。
//
// アルゴリズム:
//  1. メンバーストアからlimit×OverfetchFactor件の候補を取得する。
//     候補はストア側で空値・センチネル値が除外され、フレンド範囲の
//     絞り込みと「次回発生日が近い順」の並べ替えが済んでいる。
//  2. 候補を順に検証・範囲判定し、limit件に達した時点で打ち切る。
//  3. 採用した候補を日付エンジンで整形（年齢・次回日付・日数・表示文字列）し、
//     プレゼンテーション項目（アバター・プロフィールURL・メッセージURL）を付与する。
//
// 「今日」は呼び出しごとにClockから1回だけ取得する。
// 該当者がいない場合は空スライスを返す（エラーではない）。
func (s *Service) List(ctx context.Context, req ListRequest) ([]model.BirthdayEntry, error) {
	if req.FieldID <= 0 {
		return nil, model.NewNoBirthdayFieldError()
	}
	if req.Limit < model.MinLimit || req.Limit > model.MaxLimit {
		return nil, model.NewInvalidLimitError(req.Limit)
	}
	if _, ok := model.ParseRange(string(req.Range)); !ok {
		return nil, model.NewInvalidRangeError(string(req.Range))
	}

	scope := req.Scope
	if scope == "" {
		scope = model.ScopeAll
	}

	// フレンド範囲で閲覧者が不明な場合、フレンドは定義上ゼロ件。
	// 権限エラーにするかどうかは境界層の判断に委ね、コアは空リストを返す。
	if scope == model.ScopeFriends && req.ViewerID == "" {
		return []model.BirthdayEntry{}, nil
	}

	start := time.Now()
	today := dateOnly(s.clock.Now())

	friendOf := ""
	if scope == model.ScopeFriends {
		friendOf = req.ViewerID
	}

	candidates, err := s.members.ListBirthdayCandidates(ctx, req.FieldID, friendOf, req.Limit*s.cfg.OverfetchFactor)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordStoreError()
		}
		return nil, model.NewStoreUnavailableError(err)
	}

	entries := make([]model.BirthdayEntry, 0, req.Limit)
	scanned := 0
	for _, c := range candidates {
		if len(entries) >= req.Limit {
			break
		}
		scanned++

		// 不正な日付は1件単位で除外し、バッチ全体は継続する
		birth, ok := ParseDate(c.BirthDate)
		if !ok {
			if s.metrics != nil {
				s.metrics.RecordInvalidDate()
			}
			continue
		}

		if !InRange(c.BirthDate, req.Range, today) {
			continue
		}

		next, _ := NextOccurrence(c.BirthDate, today)
		entry := model.BirthdayEntry{
			MemberID:      c.MemberID,
			Name:          c.DisplayName,
			Username:      c.Username,
			Birthday:      birth.Format(dateLayout),
			Age:           Age(c.BirthDate, today),
			NextBirthday:  next,
			DaysUntil:     DaysUntil(c.BirthDate, today),
			FormattedDate: FormatDate(next, s.cfg.DateFormat),
			AvatarURL:     c.AvatarURL,
			ProfileURL:    s.cfg.BaseURL + "/members/" + url.PathEscape(c.Username),
		}

		// お祝いメッセージURLはログイン済み閲覧者にのみ提供する
		if s.cfg.GreetingEnabled && req.ViewerID != "" {
			entry.MessageURL = s.cfg.BaseURL + "/messages/compose?r=" + url.QueryEscape(c.Username)
		}

		entries = append(entries, entry)
	}

	if s.metrics != nil {
		s.metrics.RecordCandidatesScanned(scanned)
		s.metrics.RecordQuery(string(req.Range), string(scope), time.Since(start))
	}

	return entries, nil
}
