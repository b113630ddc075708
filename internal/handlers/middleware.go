package handlers

import (
	"net/http"
	"strings"

	"github.com/mwestra/autoplein/libs/auth"
)

// SessionCookie is the cookie the admin panel sets after operator login.
const SessionCookie = "ops_session"

// RequireOperator guards operator-only endpoints. The credential is an HS256
// session token, taken from the Authorization header or the session cookie.
// Failures are a uniform 401 regardless of cause or target resource.
func RequireOperator(next http.Handler, secret string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			if c, err := r.Cookie(SessionCookie); err == nil {
				token = c.Value
			}
		}
		if token == "" {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}

		claims, err := auth.ParseAndVerifyHS256(token, secret)
		if err != nil || !claims.IsOperator() {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(raw, prefix) {
		return ""
	}
	return strings.TrimSpace(raw[len(prefix):])
}
