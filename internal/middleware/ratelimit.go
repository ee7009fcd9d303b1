package middleware

import (
	"errors"
	"net/http"

	"github.com/kep-app/kep/internal/middleware/ratelimiter"
	"github.com/kep-app/kep/internal/utils"
)

// RateLimit limits requests by the identity produced by getIdentity.
func RateLimit(rl *ratelimiter.UserRateLimiter, getIdentity func(r *http.Request) (string, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := getIdentity(r)
			if err != nil {
				utils.WriteErrorAndStatusCode(w, err)
				return
			}
			if !rl.Allow(identity) {
				http.Error(w, "Rate limit exceeded, try again later", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetPubkeyFromContext keys rate limits by the logged-in pubkey.
// Possible if the request passed auth middleware first.
func GetPubkeyFromContext(r *http.Request) (string, error) {
	sess := GetSessionFromContext(r)
	if sess == nil {
		return "", errors.New("can't get session")
	}
	return sess.Pubkey, nil
}

// GetIP keys rate limits by client IP for anonymous endpoints.
func GetIP(r *http.Request) (string, error) {
	return utils.GetIP(r)
}
