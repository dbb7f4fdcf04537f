package middleware

import (
	"net/http"
	"strings"
)

// NewCORS answers preflight requests and echoes the origin back only when it
// is in the allow list.
func NewCORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowed[origin] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					header := w.Header()
					header.Add("Vary", "Origin")
					header.Set("Access-Control-Allow-Origin", origin)
					header.Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
					header.Set("Access-Control-Allow-Headers", "Authorization,Content-Type,X-Request-Id")
					header.Set("Access-Control-Expose-Headers", "X-Request-Id")
					header.Set("Access-Control-Max-Age", "86400")
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
