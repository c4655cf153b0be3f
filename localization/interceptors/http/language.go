package http

import (
	"net/http"

	"github.com/pitabwire/msgcacheperf/localization"
)

// LanguageHTTPMiddleware extracts the requested languages and sets them in the
// request context. fallback is appended when it is not already requested, so
// handlers always see at least one language.
func LanguageHTTPMiddleware(fallback string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := localization.ExtractLanguageFromHTTPRequest(r)
			if fallback != "" && !contains(l, fallback) {
				l = append(l, fallback)
			}

			ctx := localization.ToContext(r.Context(), l)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
