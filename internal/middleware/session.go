// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/birthdayman/internal/model"
)

const sessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// viewerIDContextKey はリクエストコンテキストに閲覧者のメンバーIDを格納するためのキー。
var viewerIDContextKey = contextKey("viewer_id")

// SessionFinder はセッションの検索に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// NewSessionMiddleware はHTTP Only Cookieからセッションを読み取り、
// 有効性を検証するミドルウェアを返す。
// 認証済みの閲覧者IDをリクエストコンテキストに注入する。
// 未認証リクエストには401 Unauthorizedを返す。
func NewSessionMiddleware(sessionFinder SessionFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. CookieからセッションIDを取得
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			// 2. セッションの有効性を検証
			session, err := sessionFinder.FindByID(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to find session",
					slog.String("error", err.Error()),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			if session == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			// 3. 認証済みの閲覧者IDをコンテキストに注入
			ctx := context.WithValue(r.Context(), viewerIDContextKey, session.MemberID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewOptionalSessionMiddleware は有効なセッションがあれば閲覧者IDを
// コンテキストに注入し、なければ匿名のままリクエストを通すミドルウェアを返す。
// 誕生日一覧は匿名でも閲覧できるため、公開エンドポイントで使用する。
func NewOptionalSessionMiddleware(sessionFinder SessionFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, err := sessionFinder.FindByID(r.Context(), cookie.Value)
			if err != nil {
				// セッションストア障害でも公開エンドポイントは匿名として継続する
				slog.Error("failed to find session",
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}
			if session == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), viewerIDContextKey, session.MemberID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ViewerIDFromContext はリクエストコンテキストから閲覧者IDを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func ViewerIDFromContext(ctx context.Context) (string, error) {
	viewerID, ok := ctx.Value(viewerIDContextKey).(string)
	if !ok || viewerID == "" {
		return "", fmt.Errorf("viewer ID not found in context")
	}
	return viewerID, nil
}

// ContextWithViewerID はコンテキストに閲覧者IDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithViewerID(ctx context.Context, viewerID string) context.Context {
	return context.WithValue(ctx, viewerIDContextKey, viewerID)
}
