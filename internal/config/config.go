package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
// 誕生日フィールドID・デフォルト範囲・デフォルト件数は設定ストアの値で
// 上書き可能なフォールバック値として扱う（settingsパッケージ参照）。
type Config struct {
	// Database
	DatabaseURL string

	// Birthday
	BirthdayFieldID int    // 誕生日を保持するプロフィールフィールドID（0=未設定）
	DefaultRange    string // デフォルトの表示範囲: today, weekly, monthly, upcoming
	DefaultLimit    int    // デフォルトの表示件数
	DateFormat      string // 日付表示のGoレイアウト文字列（例: "January 2"）
	OverfetchFactor int    // 範囲フィルタ前に limit×N 件を先読みする係数
	GreetingEnabled bool   // 「お祝いメッセージを送る」リンクを生成するか

	// Widget
	WidgetLocale string // ウィジェットラベルのデフォルトロケール

	// Rate Limit
	RateLimitGeneral  int // API全般のレート制限（req/min）
	RateLimitSettings int // 設定更新のレート制限（req/min）

	// Seed
	SeedMemberCount int // seedサブコマンドが作成するサンプルメンバー数

	// Server
	ServerPort string
	BaseURL    string // プロフィールURL・メッセージURLの組み立てに使用

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.BirthdayFieldID = getEnvInt("BIRTHDAY_FIELD_ID", 0)
	cfg.DefaultRange = getEnvString("DEFAULT_RANGE", "upcoming")
	cfg.DefaultLimit = getEnvInt("DEFAULT_LIMIT", 5)
	cfg.DateFormat = getEnvString("DATE_FORMAT", "January 2")
	cfg.OverfetchFactor = getEnvInt("OVERFETCH_FACTOR", 3)
	cfg.GreetingEnabled = getEnvBool("GREETING_ENABLED", true)
	cfg.WidgetLocale = getEnvString("WIDGET_LOCALE", "en")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitSettings = getEnvInt("RATE_LIMIT_SETTINGS", 10)
	cfg.SeedMemberCount = getEnvInt("SEED_MEMBER_COUNT", 25)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	if cfg.OverfetchFactor < 1 {
		cfg.OverfetchFactor = 1
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}
