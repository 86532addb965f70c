package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/dafmemorial/internal/domain/user"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	stateCookie = "daf_oauth_state"
	stateTTL    = 10 * time.Minute

	// DefaultUserInfoURL is Google's OpenID Connect userinfo endpoint.
	DefaultUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
)

// UserService is the sign-in side of the user domain.
type UserService interface {
	SessionResolver
	SignIn(ctx context.Context, id user.Identity) (*user.User, error)
	StartSession(ctx context.Context, userID string) (string, *user.Session, error)
	EndSession(ctx context.Context, token string) error
}

// OAuthOptions configures the authorization-code sign-in.
type OAuthOptions struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// UserInfoURL defaults to DefaultUserInfoURL.
	UserInfoURL string
	// Endpoint defaults to Google.
	Endpoint oauth2.Endpoint
	// AfterLogin is where the browser lands once signed in. Defaults to "/".
	AfterLogin    string
	SecureCookies bool
}

// OAuthHandler performs the minimal authorization-code flow needed to learn
// a user's name and email, then starts a session.
type OAuthHandler struct {
	config      *oauth2.Config
	userInfoURL string
	afterLogin  string
	secure      bool
	users       UserService
	logger      *slog.Logger
}

// NewOAuthHandler creates an OAuth sign-in handler.
func NewOAuthHandler(opts OAuthOptions, users UserService, logger *slog.Logger) *OAuthHandler {
	endpoint := opts.Endpoint
	if endpoint.AuthURL == "" && endpoint.TokenURL == "" {
		endpoint = endpoints.Google
	}
	userInfoURL := opts.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = DefaultUserInfoURL
	}
	afterLogin := opts.AfterLogin
	if afterLogin == "" {
		afterLogin = "/"
	}
	return &OAuthHandler{
		config: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: userInfoURL,
		afterLogin:  afterLogin,
		secure:      opts.SecureCookies,
		users:       users,
		logger:      logger,
	}
}

// Login redirects to the provider's consent page.
func (h *OAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.config.AuthCodeURL(state), http.StatusFound)
}

// Callback exchanges the authorization code, signs the user in and sets the
// session cookie.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || c.Value != r.URL.Query().Get("state") {
		writeJSON(w, http.StatusBadRequest, ErrorBody{Code: CodeInvalidInput, Message: "invalid oauth state"})
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/auth", MaxAge: -1})

	if msg := r.URL.Query().Get("error"); msg != "" {
		writeJSON(w, http.StatusUnauthorized, ErrorBody{Code: CodeUnauthenticated, Message: msg})
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, ErrorBody{Code: CodeInvalidInput, Message: "missing code"})
		return
	}

	token, err := h.config.Exchange(ctx, code)
	if err != nil {
		h.logWarn("oauth code exchange failed", err)
		writeJSON(w, http.StatusUnauthorized, ErrorBody{Code: CodeUnauthenticated, Message: "sign in failed"})
		return
	}

	identity, err := h.fetchIdentity(ctx, token)
	if err != nil {
		h.logWarn("oauth userinfo failed", err)
		writeJSON(w, http.StatusUnauthorized, ErrorBody{Code: CodeUnauthenticated, Message: "sign in failed"})
		return
	}

	u, err := h.users.SignIn(ctx, identity)
	if err != nil {
		status, body := errorBody(err)
		writeJSON(w, status, body)
		return
	}
	sessionToken, sess, err := h.users.StartSession(ctx, u.ID)
	if err != nil {
		status, body := errorBody(err)
		writeJSON(w, status, body)
		return
	}

	setSessionCookie(w, sessionToken, sess.ExpiresAt, h.secure)
	if h.logger != nil {
		h.logger.Info("user signed in", "user_id", u.ID)
	}
	http.Redirect(w, r, h.afterLogin, http.StatusFound)
}

type userInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *OAuthHandler) fetchIdentity(ctx context.Context, token *oauth2.Token) (user.Identity, error) {
	client := h.config.Client(ctx, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.userInfoURL, nil)
	if err != nil {
		return user.Identity{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return user.Identity{}, fmt.Errorf("userinfo request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return user.Identity{}, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&info); err != nil {
		return user.Identity{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Email == "" {
		return user.Identity{}, fmt.Errorf("userinfo has no email")
	}
	return user.Identity{Name: info.Name, Email: info.Email}, nil
}

func (h *OAuthHandler) logWarn(msg string, err error) {
	if h.logger != nil {
		h.logger.Warn(msg, "error", err)
	}
}

// Logout ends the current session and clears the cookie.
func Logout(users UserService, secure bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := tokenFromRequest(r); token != "" {
			if err := users.EndSession(r.Context(), token); err != nil {
				status, body := errorBody(err)
				writeJSON(w, status, body)
				return
			}
		}
		clearSessionCookie(w, secure)
		w.WriteHeader(http.StatusNoContent)
	}
}
