// Package auth extracts identity claims from the trusted gateway headers and
// applies per-caller rate limits.
package auth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/logger"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/utils"
)

type ctxUserKey struct{}

// User is the identity asserted by the upstream identity provider. The core
// trusts these claims as given.
type User struct {
	ID     string
	Name   string
	Groups []string
}

// Config controls the claims middleware.
type Config struct {
	RPS   float64
	Burst int
}

// RequireUser extracts the caller identity from headers and injects it into
// the request context. Requests without a user id are rejected.
func RequireUser(cfg Config) func(http.Handler) http.Handler {
	limiters := &limiterPool{cfg: cfg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.LogRequest(r)
			userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
			if userID == "" {
				logger.Warn("missing_user_claims", zap.String("path", r.URL.Path), zap.String("remote", r.RemoteAddr))
				utils.JSONError(w, http.StatusUnauthorized, "missing user claims")
				return
			}
			if !limiters.Allow(userID) {
				logger.Warn("rate_limited", zap.String("user", userID))
				utils.JSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			u := User{
				ID:   userID,
				Name: strings.TrimSpace(r.Header.Get("X-User-Name")),
			}
			if g := strings.TrimSpace(r.Header.Get("X-User-Groups")); g != "" {
				for _, p := range strings.Split(g, ",") {
					if s := strings.TrimSpace(p); s != "" {
						u.Groups = append(u.Groups, s)
					}
				}
			}
			ctx := context.WithValue(r.Context(), ctxUserKey{}, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the verified caller, if present.
func UserFromContext(ctx context.Context) (User, bool) {
	if v := ctx.Value(ctxUserKey{}); v != nil {
		if u, ok := v.(User); ok {
			return u, true
		}
	}
	return User{}, false
}
