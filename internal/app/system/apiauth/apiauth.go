// internal/app/system/apiauth/apiauth.go
package apiauth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// RequireSecret returns middleware that admits only requests carrying the
// shared secret as a bearer token. The service's callers are machines (the
// CRM-side shim and the host platform), so there are no sessions or roles;
// possession of the secret is the whole story.
func RequireSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}
