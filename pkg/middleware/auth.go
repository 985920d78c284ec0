package middleware

import (
	"net/http"
	"strings"

	"quickcourt/pkg/auth"
	"quickcourt/pkg/logger"
)

// Verifier turns a bearer token into a principal.
type Verifier interface {
	Verify(token string) (*auth.Principal, error)
}

// Authenticate attaches the caller's principal when a bearer token is sent.
// Requests without a token continue anonymously; handlers that need an
// identity answer 401 themselves.
func Authenticate(verifier Verifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			token = strings.TrimSpace(token)
			if !ok || token == "" {
				rejectUnauthorized(w, log, r, "malformed authorization header")
				return
			}

			principal, err := verifier.Verify(token)
			if err != nil {
				log.Debug("token verification failed", "request_id", RequestIDFrom(r.Context()), "error", err)
				rejectUnauthorized(w, log, r, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}

func rejectUnauthorized(w http.ResponseWriter, log *logger.Logger, r *http.Request, reason string) {
	log.Warn("Rejected unauthenticated request",
		"request_id", RequestIDFrom(r.Context()),
		"reason", reason,
		"path", r.URL.Path,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"success":false,"code":"UNAUTHORIZED","error":"` + reason + `"}`))
}
