package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"sitecanvas/internal/auth"
	"sitecanvas/internal/httputil"
)

// LocalEditorID is the user id attached to requests when auth is disabled
const LocalEditorID = "local-editor"

// Auth validates the bearer token on every non-public request and stores the
// user id in the request context. A nil verifier disables verification.
func Auth(verifier auth.JWTVerifier, public func(*http.Request) bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || (public != nil && public(r)) {
				next.ServeHTTP(w, r)
				return
			}
			if verifier == nil {
				next.ServeHTTP(w, httputil.WithUserID(r, LocalEditorID))
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			claims, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("request rejected", "path", r.URL.Path, "error", err)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, httputil.WithUserID(r, claims.GetUserID()))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// PublicRoutes reports whether a request may skip auth: health, metrics, the
// event stream, the block palette, and layout reads
func PublicRoutes(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	switch r.URL.Path {
	case "/health", "/metrics", "/api/events", "/api/blocks/kinds":
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/sections/") && strings.HasSuffix(r.URL.Path, "/layout")
}
