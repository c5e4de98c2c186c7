package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/birthdayman/internal/metrics"
	"github.com/hitoshi/birthdayman/internal/middleware"
)

// HealthPinger はヘルスチェックに必要なインターフェース。
// sql.DBの部分集合として定義する。
type HealthPinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 誕生日一覧・ウィジェット
	BirthdayService BirthdayServiceInterface
	WidgetRenderer  WidgetRendererInterface
	WidgetConfig    WidgetHandlerConfig

	// 設定
	SettingsService SettingsServiceInterface

	// 運用
	HealthPinger HealthPinger
	Gatherer     prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → (Optional)Session → RateLimit(General)
//
// 誕生日一覧とウィジェットは匿名閲覧可の公開ルート、設定は認証必須ルートに配置する。
// /health と /metrics はミドルウェアチェーンの外に置く。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	birthdayHandler := NewBirthdayHandler(deps.BirthdayService, deps.SettingsService)
	widgetHandler := NewWidgetHandler(deps.BirthdayService, deps.SettingsService, deps.WidgetRenderer, deps.WidgetConfig)
	settingsHandler := NewSettingsHandler(deps.SettingsService)

	// --- 運用ルート ---

	r.Get("/health", newHealthHandler(deps.HealthPinger))
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- 公開ルート（匿名閲覧可） ---
	// ミドルウェアスタック: OptionalSession → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewOptionalSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/api/birthdays", birthdayHandler.ListBirthdays)
		r.Get("/api/widget", widgetHandler.GetWidget)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api/settings", func(r chi.Router) {
			r.Get("/", settingsHandler.GetSettings)

			// PUT /api/settings - 設定更新（更新専用レート制限を追加）
			r.With(deps.RateLimiter.SettingsMiddleware()).Put("/", settingsHandler.UpdateSettings)
		})
	})

	return r
}

// newHealthHandler はヘルスチェックハンドラーを生成する。
// データベースへの疎通確認を行い、失敗時は503を返す。
func newHealthHandler(pinger HealthPinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if pinger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()

			if err := pinger.PingContext(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "unavailable",
				})
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
		})
	}
}
