// Package auth protects the admin endpoints.
package auth

import (
	"encoding/json"
	"net/http"
	"strings"
)

// maxConcurrentVerifies bounds the Argon2id computations running at once.
const maxConcurrentVerifies = 2

var verifyPassword = VerifyPassword

// AdminAuth requires "Authorization: Bearer <password>" matching the
// Argon2id hash. An empty hash leaves the routes open.
func AdminAuth(passwordHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if passwordHash == "" {
			return next
		}
		sem := make(chan struct{}, maxConcurrentVerifies)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeUnauthorized(w, "Authorization required")
				return
			}

			select {
			case sem <- struct{}{}:
			case <-r.Context().Done():
				return
			}
			valid, err := verifyPassword(strings.TrimPrefix(header, "Bearer "), passwordHash)
			<-sem

			if err != nil || !valid {
				writeUnauthorized(w, "Invalid credentials")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeUnauthorized writes a JSON 401 response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
