package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rpggio/dafmemorial/internal/domain/user"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "daf_session"

type userKey struct{}

// SessionResolver resolves the user behind a session token.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*user.User, error)
}

// UserFromContext returns the signed-in user from context, if present.
func UserFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(userKey{}).(*user.User)
	return u, ok && u != nil
}

// WithUser returns a context carrying the signed-in user.
func WithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// tokenFromRequest reads the session token from a bearer header or the
// session cookie, in that order.
func tokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")); token != "" {
			return token
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// AuthMiddleware attaches the session's user to the request context when a
// valid token is present. Anonymous requests pass through; RequireUser
// guards the routes that need a user.
func AuthMiddleware(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" || resolver == nil {
				next.ServeHTTP(w, r)
				return
			}

			u, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				if !errors.Is(err, user.ErrSessionInvalid) {
					status, body := errorBody(err)
					writeJSON(w, status, body)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// RequireUser rejects requests without a signed-in user.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			writeJSON(w, http.StatusUnauthorized, ErrorBody{Code: CodeUnauthenticated, Message: "sign in required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func setSessionCookie(w http.ResponseWriter, token string, expires time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
