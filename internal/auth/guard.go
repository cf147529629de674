package auth

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	adminPrefix = "/admin"
	userPrefix  = "/user"
)

// GuardConfig controls the route authorization middleware and the session
// cookie it maintains.
type GuardConfig struct {
	CookieName   string
	SignInPath   string
	UpdateAge    time.Duration
	CookieDomain string
	CookieSecure bool
}

// Guard enforces role-gated access to path prefixes. It is stateless: every
// request's decision derives solely from the token presented with it, with
// no I/O on the hot path.
type Guard struct {
	tokens *TokenProvider
	cfg    GuardConfig

	now func() time.Time
}

func NewGuard(tokens *TokenProvider, cfg GuardConfig) *Guard {
	if cfg.CookieName == "" {
		cfg.CookieName = "fractal_session"
	}
	if cfg.SignInPath == "" {
		cfg.SignInPath = "/login"
	}
	if cfg.UpdateAge <= 0 {
		cfg.UpdateAge = 5 * time.Minute
	}
	return &Guard{
		tokens: tokens,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Middleware decodes the session cookie, applies the prefix rules, and
// stores the session on the context for downstream handlers.
//
// Admin prefix: admins only; everyone else is sent to the home route, not
// the login route. User prefix: users or admins; everyone else is sent to
// sign-in with the original path preserved in callbackUrl. All other paths
// pass through with whatever session was presented.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := g.sessionFromRequest(r)
		path := r.URL.Path

		switch {
		case strings.HasPrefix(path, adminPrefix):
			if !sess.Authenticated() || sess.Role != RoleAdmin {
				http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
				return
			}
		case strings.HasPrefix(path, userPrefix):
			if !sess.Authenticated() {
				target := g.cfg.SignInPath + "?callbackUrl=" + url.QueryEscape(path)
				http.Redirect(w, r, target, http.StatusTemporaryRedirect)
				return
			}
		}

		// Cadenced cookie re-write: same claims, same issuedAt, fresh
		// signature. The hard deadline never moves.
		if sess.Authenticated() && g.now().Sub(sess.IssuedAt) > g.cfg.UpdateAge {
			if token, err := g.tokens.Refresh(sess); err == nil {
				g.SetSessionCookie(w, token)
			} else {
				log.Warn().Err(err).Msg("session cookie refresh failed")
			}
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

func (g *Guard) sessionFromRequest(r *http.Request) Session {
	cookie, err := r.Cookie(g.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return Session{}
	}
	sess, err := g.tokens.Decode(cookie.Value)
	if err != nil {
		return Session{}
	}
	return sess
}

// SetSessionCookie writes the HTTP-only session cookie.
func (g *Guard) SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     g.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   g.cfg.CookieDomain,
		MaxAge:   int(g.tokens.MaxAge().Seconds()),
		HttpOnly: true,
		Secure:   g.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie immediately.
func (g *Guard) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     g.cfg.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   g.cfg.CookieDomain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
