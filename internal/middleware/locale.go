package middleware

import (
	"context"
	"net/http"

	"github.com/soaringjerry/mindbridge/internal/utils"
)

type ctxKey int

const localeKey ctxKey = 1

// LocaleMiddleware stores the request's reply language, resolved against
// the locales the server has strings for.
func LocaleMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale := utils.ResolveLocale(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), localeKey, locale)))
	})
}

func LocaleFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(localeKey).(string); ok {
		return s
	}
	return utils.DefaultLocale
}
