package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"fractalshop/internal/auth"
)

func decodeJSON(r *http.Request, dest any) error {
	if r.Body == nil {
		return errors.New("request body required")
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	respondJSON(w, status, map[string]any{"error": err.Error()})
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 5*time.Second)
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.New("invalid " + name)
	}
	return id, nil
}

// requireAuth resolves the request's session, responding 401 for guests.
func requireAuth(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	sess := auth.SessionFromContext(r.Context())
	if !sess.Authenticated() {
		respondError(w, http.StatusUnauthorized, errors.New("authentication required"))
		return auth.Session{}, false
	}
	return sess, true
}

// requireAdmin responds 401/403 unless the session carries the admin role.
func requireAdmin(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	sess, ok := requireAuth(w, r)
	if !ok {
		return auth.Session{}, false
	}
	if sess.Role != auth.RoleAdmin {
		respondError(w, http.StatusForbidden, errors.New("admin access required"))
		return auth.Session{}, false
	}
	return sess, true
}

// requireSelfOrAdmin allows the resource owner or an admin.
func requireSelfOrAdmin(w http.ResponseWriter, r *http.Request, ownerID uuid.UUID) (auth.Session, bool) {
	sess, ok := requireAuth(w, r)
	if !ok {
		return auth.Session{}, false
	}
	if sess.Role != auth.RoleAdmin && sess.UserID != ownerID {
		respondError(w, http.StatusForbidden, errors.New("access denied"))
		return auth.Session{}, false
	}
	return sess, true
}
