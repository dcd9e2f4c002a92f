package auth

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strings"
)

// BearerTokenMiddleware guards a handler with one static API token, taken from the
// Authorization header or the token query parameter. An empty token disables the
// guarded routes altogether.
func BearerTokenMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			if token == "" {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			got := ""
			if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
				got = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
			}
			if got == "" {
				got = r.URL.Query().Get("token")
			}

			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				log.Printf("[AUTH] rejected %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
