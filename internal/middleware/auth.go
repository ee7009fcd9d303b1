package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/kep-app/kep/internal/domain"
	jwt_internal "github.com/kep-app/kep/internal/jwt"
	"github.com/kep-app/kep/internal/logger"
	"github.com/kep-app/kep/internal/utils"
)

// SessionCookie is the browser session cookie name.
const SessionCookie = "kepSession"

// SessionValidator checks that a session referenced by a token still
// exists in the local store (logout invalidates it there).
type SessionValidator interface {
	SessionExists(id string) bool
}

// AdminChecker derives admin status from the live admin config. Admin
// rights are never baked into the token because the config event can
// change under a long-lived session.
type AdminChecker interface {
	IsAdmin(ctx context.Context, pubkey domain.Pubkey) (bool, error)
}

// Key to store the session in the request context
type key int

const SessionContextKey key = 0

type Auth struct {
	jwtService    jwt_internal.JwtService
	sessions      SessionValidator
	admins        AdminChecker
	secureCookies bool
}

func NewAuth(jwtService jwt_internal.JwtService, sessions SessionValidator, admins AdminChecker, secureCookies bool) *Auth {
	return &Auth{
		jwtService:    jwtService,
		sessions:      sessions,
		admins:        admins,
		secureCookies: secureCookies,
	}
}

// NeedAuth returns middleware that requires a logged-in session.
func (a *Auth) NeedAuth() func(http.Handler) http.Handler {
	return a.auth(false)
}

// AdminOnly returns middleware that additionally requires the session
// pubkey to be in the current admin config.
func (a *Auth) AdminOnly() func(http.Handler) http.Handler {
	return a.auth(true)
}

// OptionalAuth populates the session context when a valid token is
// present but never rejects the request.
func (a *Auth) OptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sess, err := a.extractSession(r); err == nil {
				ctx := context.WithValue(r.Context(), SessionContextKey, sess)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Sentinel errors for extractSession
var (
	errNoToken        = errorString("no token")
	errSessionRevoked = errorString("session revoked")
)

type errorString string

func (e errorString) Error() string { return string(e) }

func (a *Auth) extractSession(r *http.Request) (*domain.Session, error) {
	// Cookie first (browser), then Authorization header (API clients)
	var tokenString string
	cookie, err := r.Cookie(SessionCookie)
	if err == nil {
		tokenString = cookie.Value
	} else if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		tokenString = token
	}

	if tokenString == "" {
		return nil, errNoToken
	}

	sess, err := a.jwtService.DecodeToken(tokenString)
	if err != nil {
		return nil, err
	}

	if a.sessions != nil && !a.sessions.SessionExists(sess.Id) {
		return nil, errSessionRevoked
	}

	return &sess, nil
}

func (a *Auth) auth(adminOnly bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := a.extractSession(r)
			if err != nil {
				switch err {
				case errNoToken:
					http.Error(w, "Please sign-in", http.StatusUnauthorized)
				case errSessionRevoked:
					// Clear the stale cookie to force re-login
					http.SetCookie(w, &http.Cookie{
						Path:     "/",
						Name:     SessionCookie,
						Value:    "",
						MaxAge:   -1,
						HttpOnly: true,
						Secure:   a.secureCookies,
						SameSite: http.SameSiteLaxMode,
					})
					http.Error(w, "Session expired", http.StatusUnauthorized)
				default:
					utils.WriteErrorAndStatusCode(w, err)
				}
				return
			}

			if adminOnly {
				isAdmin, err := a.admins.IsAdmin(r.Context(), sess.Pubkey)
				if err != nil {
					logger.Log.Error("admin check failed", "error", err)
					http.Error(w, "Can't verify admin rights", http.StatusServiceUnavailable)
					return
				}
				if !isAdmin {
					http.Error(w, "Access denied. Only for admin", http.StatusForbidden)
					return
				}
			}

			ctx := context.WithValue(r.Context(), SessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionFromContext retrieves the session from the context
func GetSessionFromContext(r *http.Request) *domain.Session {
	sess, ok := r.Context().Value(SessionContextKey).(*domain.Session)
	if !ok {
		return nil
	}
	return sess
}
