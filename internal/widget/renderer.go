// Package widget は誕生日一覧のウィジェット表示モデルを組み立てる。
package widget

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/hitoshi/birthdayman/internal/model"
)

//go:embed locales/*.json
var localeFS embed.FS

// 表示名のバリエーション
const (
	NameVariantDisplayName = "display_name"
	NameVariantUsername    = "username"
)

// Options はウィジェット表示のオプションを表す。
type Options struct {
	Title        string // 空の場合はロケールのデフォルトタイトル
	ShowAge      bool   // 年齢を表示するか
	ShowGreeting bool   // お祝いメッセージリンクを表示するか
	Emoji        bool   // 絵文字を表示するか
	NameVariant  string // display_name または username
	Locale       string // 表示言語（en, ja）
}

// Item はウィジェットの1行分の表示モデル。
type Item struct {
	MemberID      string `json:"member_id"`
	Name          string `json:"name"`
	DateLabel     string `json:"date_label"`
	RelativeLabel string `json:"relative_label"`
	AgeLabel      string `json:"age_label,omitempty"`
	Emoji         string `json:"emoji,omitempty"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	ProfileURL    string `json:"profile_url"`
	MessageURL    string `json:"message_url,omitempty"`
	MessageLabel  string `json:"message_label,omitempty"`
}

// View はウィジェット全体の表示モデル。
type View struct {
	Title        string `json:"title"`
	Items        []Item `json:"items"`
	EmptyMessage string `json:"empty_message,omitempty"`
}

// Renderer は誕生日エントリからウィジェット表示モデルを組み立てる。
// 表示名とタイトルはHTMLとして無害化してから出力する。
type Renderer struct {
	bundle *i18n.Bundle
	policy *bluemonday.Policy
}

// NewRenderer はRendererの新しいインスタンスを生成する。
// 埋め込まれたロケールファイルを読み込む。
func NewRenderer() (*Renderer, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("ロケールディレクトリの読み込みに失敗しました: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			continue
		}
		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			return nil, fmt.Errorf("ロケールファイルの読み込みに失敗しました: %s: %w", name, err)
		}
	}

	return &Renderer{
		bundle: bundle,
		policy: bluemonday.StrictPolicy(),
	}, nil
}

// Render は誕生日エントリの一覧からウィジェット表示モデルを組み立てる。
func (r *Renderer) Render(entries []model.BirthdayEntry, opts Options) View {
	localizer := i18n.NewLocalizer(r.bundle, opts.Locale)

	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = r.localize(localizer, "widget.default_title", nil, 0)
	}
	title = r.policy.Sanitize(title)

	view := View{
		Title: title,
		Items: make([]Item, 0, len(entries)),
	}

	if len(entries) == 0 {
		view.EmptyMessage = r.localize(localizer, "widget.empty", nil, 0)
		return view
	}

	for _, entry := range entries {
		item := Item{
			MemberID:      entry.MemberID,
			Name:          r.policy.Sanitize(r.name(entry, opts.NameVariant)),
			DateLabel:     entry.FormattedDate,
			RelativeLabel: r.relativeLabel(localizer, entry.DaysUntil),
			AvatarURL:     entry.AvatarURL,
			ProfileURL:    entry.ProfileURL,
		}

		if opts.ShowAge {
			item.AgeLabel = r.localize(localizer, "widget.turns", map[string]any{"Age": turningAge(entry)}, 0)
		}

		if opts.Emoji {
			item.Emoji = emojiFor(entry.DaysUntil)
		}

		if opts.ShowGreeting && entry.MessageURL != "" {
			item.MessageURL = entry.MessageURL
			item.MessageLabel = r.localize(localizer, "widget.send_message", nil, 0)
		}

		view.Items = append(view.Items, item)
	}

	return view
}

// name は表示名バリエーションに応じた名前を返す。
func (r *Renderer) name(entry model.BirthdayEntry, variant string) string {
	if variant == NameVariantUsername && entry.Username != "" {
		return entry.Username
	}
	return entry.Name
}

// relativeLabel は次の誕生日までの相対表現（今日・明日・あとN日）を返す。
func (r *Renderer) relativeLabel(localizer *i18n.Localizer, daysUntil int) string {
	switch daysUntil {
	case 0:
		return r.localize(localizer, "widget.today", nil, 0)
	case 1:
		return r.localize(localizer, "widget.tomorrow", nil, 0)
	default:
		return r.localize(localizer, "widget.in_days", map[string]any{"Count": daysUntil}, daysUntil)
	}
}

// localize はキーを翻訳する。翻訳が見つからない場合はキーをそのまま返す。
func (r *Renderer) localize(localizer *i18n.Localizer, key string, data map[string]any, pluralCount int) string {
	cfg := &i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	}
	if pluralCount > 0 {
		cfg.PluralCount = pluralCount
	}

	msg, err := localizer.Localize(cfg)
	if err != nil {
		return key
	}
	return msg
}

// turningAge は次の誕生日で迎える年齢を返す。
// 今日が誕生日の場合はAgeが既に更新済みのためそのまま使う。
func turningAge(entry model.BirthdayEntry) int {
	if entry.DaysUntil == 0 {
		return entry.Age
	}
	return entry.Age + 1
}

// emojiFor は残日数に応じた絵文字を返す。当日のみケーキにする。
func emojiFor(daysUntil int) string {
	if daysUntil == 0 {
		return "🎂"
	}
	return "🎈"
}
