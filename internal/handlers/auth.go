package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"fractalshop/internal/auth"
	"fractalshop/internal/events"
	"fractalshop/internal/metrics"
)

const oauthStateCookie = "fractal_oauth_state"

// Auth failures collapse to this one message regardless of the internal
// reason. The distinct reasons stay in logs and metrics.
var errInvalidSignIn = errors.New("invalid or expired credentials")

func (a *API) handleSendPin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		respondError(w, http.StatusBadRequest, errors.New("email is required"))
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid email"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	if err := a.pins.Issue(ctx, req.Email); err != nil {
		respondError(w, http.StatusInternalServerError, errors.New("internal server error"))
		return
	}

	// The response never reveals whether the email is registered, nor the
	// PIN itself.
	respondJSON(w, http.StatusOK, map[string]any{"message": "PIN sent successfully"})
}

func (a *API) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Strategy string `json:"strategy"`
		Email    string `json:"email"`
		Pin      string `json:"pin"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		respondError(w, http.StatusBadRequest, errors.New("email is required"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	var (
		identity auth.Identity
		err      error
	)
	switch req.Strategy {
	case "pin":
		if req.Pin == "" {
			respondError(w, http.StatusBadRequest, errors.New("pin is required"))
			return
		}
		identity, err = a.pins.Verify(ctx, req.Email, req.Pin)
	case "credentials":
		if req.Password == "" {
			respondError(w, http.StatusBadRequest, errors.New("password is required"))
			return
		}
		identity, err = a.passwords.Verify(ctx, req.Email, req.Password)
	default:
		respondError(w, http.StatusBadRequest, errors.New("unknown sign-in strategy"))
		return
	}

	if err != nil {
		if auth.AuthFailure(err) {
			a.bus.Publish(events.SubjectSignInFailed, map[string]any{
				"email":    req.Email,
				"strategy": req.Strategy,
			})
			respondError(w, http.StatusUnauthorized, errInvalidSignIn)
			return
		}
		log.Error().Err(err).Str("strategy", req.Strategy).Msg("sign-in failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal server error"))
		return
	}

	token, err := a.tokens.Issue(identity)
	if err != nil {
		log.Error().Err(err).Msg("session issuance failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal server error"))
		return
	}

	a.guard.SetSessionCookie(w, token)
	metrics.SignIns.WithLabelValues(req.Strategy).Inc()
	respondJSON(w, http.StatusOK, sessionView(auth.Session{
		UserID: identity.ID,
		Email:  identity.Email,
		Role:   identity.Role,
	}))
}

func (a *API) handleSignOut(w http.ResponseWriter, r *http.Request) {
	a.guard.ClearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]any{"message": "signed out"})
}

func (a *API) handleSession(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, sessionView(auth.SessionFromContext(r.Context())))
}

// sessionView is the session shape exposed to the rest of the system.
func sessionView(sess auth.Session) map[string]any {
	if !sess.Authenticated() {
		return map[string]any{"user": nil}
	}
	return map[string]any{
		"user": map[string]any{
			"id":    sess.UserID,
			"email": sess.Email,
			"role":  sess.Role,
		},
	}
}

func (a *API) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if !a.google.Enabled() {
		respondError(w, http.StatusNotFound, errors.New("oauth provider not configured"))
		return
	}

	state, err := randomState()
	if err != nil {
		respondError(w, http.StatusInternalServerError, errors.New("internal server error"))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, a.google.AuthCodeURL(state), http.StatusFound)
}

func (a *API) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if !a.google.Enabled() {
		respondError(w, http.StatusNotFound, errors.New("oauth provider not configured"))
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		respondError(w, http.StatusBadRequest, errors.New("state mismatch"))
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})

	code := r.URL.Query().Get("code")
	if code == "" {
		respondError(w, http.StatusBadRequest, errors.New("code is required"))
		return
	}

	identity, err := a.google.Exchange(r.Context(), code)
	if err != nil {
		log.Error().Err(err).Msg("google sign-in failed")
		respondError(w, http.StatusUnauthorized, errInvalidSignIn)
		return
	}

	token, err := a.tokens.Issue(identity)
	if err != nil {
		log.Error().Err(err).Msg("session issuance failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal server error"))
		return
	}

	a.guard.SetSessionCookie(w, token)
	metrics.SignIns.WithLabelValues("google").Inc()
	http.Redirect(w, r, "/", http.StatusFound)
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
