package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestGuard(t *testing.T) (*Guard, *TokenProvider, *time.Time) {
	t.Helper()
	p, clock := newTestProvider(t)
	g := NewGuard(p, GuardConfig{CookieName: "fractal_session", SignInPath: "/login", UpdateAge: 5 * time.Minute})
	g.now = func() time.Time { return *clock }
	return g, p, clock
}

func guardedRequest(t *testing.T, g *Guard, path, token string) (*httptest.ResponseRecorder, *Session) {
	t.Helper()
	var seen Session
	handler := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "fractal_session", Value: token})
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, &seen
}

func TestGuardAdminPrefix(t *testing.T) {
	g, p, _ := newTestGuard(t)

	userToken, err := p.Issue(Identity{ID: uuid.New(), Email: "u@b.com", Role: RoleUser})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	adminToken, err := p.Issue(Identity{ID: uuid.New(), Email: "admin@b.com", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	cases := []struct {
		name         string
		token        string
		wantStatus   int
		wantLocation string
	}{
		{"guest", "", http.StatusTemporaryRedirect, "/"},
		{"user", userToken, http.StatusTemporaryRedirect, "/"},
		{"admin", adminToken, http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, _ := guardedRequest(t, g, "/admin/products", tc.token)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if got := rec.Header().Get("Location"); got != tc.wantLocation {
				t.Fatalf("Location = %q, want %q", got, tc.wantLocation)
			}
		})
	}
}

func TestGuardUserPrefix(t *testing.T) {
	g, p, clock := newTestGuard(t)

	token, err := p.Issue(Identity{ID: uuid.New(), Email: "u@b.com", Role: RoleUser})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	t.Run("guest redirected with callback", func(t *testing.T) {
		rec, _ := guardedRequest(t, g, "/user/orders", "")
		if rec.Code != http.StatusTemporaryRedirect {
			t.Fatalf("status = %d, want 307", rec.Code)
		}
		want := "/login?callbackUrl=%2Fuser%2Forders"
		if got := rec.Header().Get("Location"); got != want {
			t.Fatalf("Location = %q, want %q", got, want)
		}
	})

	t.Run("user passes", func(t *testing.T) {
		rec, seen := guardedRequest(t, g, "/user/orders", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if !seen.Authenticated() || seen.Email != "u@b.com" {
			t.Fatalf("context session = %+v", *seen)
		}
	})

	t.Run("expired session redirected", func(t *testing.T) {
		*clock = clock.Add(16 * time.Minute)
		rec, _ := guardedRequest(t, g, "/user/orders", token)
		if rec.Code != http.StatusTemporaryRedirect {
			t.Fatalf("status = %d, want 307", rec.Code)
		}
	})
}

func TestGuardOpenPaths(t *testing.T) {
	g, p, _ := newTestGuard(t)

	rec, seen := guardedRequest(t, g, "/products/some-slug", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("guest on open path: status = %d, want 200", rec.Code)
	}
	if seen.Authenticated() {
		t.Fatalf("guest session = %+v", *seen)
	}

	token, err := p.Issue(Identity{ID: uuid.New(), Email: "u@b.com", Role: RoleUser})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	rec, seen = guardedRequest(t, g, "/products/some-slug", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("user on open path: status = %d, want 200", rec.Code)
	}
	if !seen.Authenticated() {
		t.Fatal("session missing from context on open path")
	}
}

func TestGuardCookieRefreshCadence(t *testing.T) {
	g, p, clock := newTestGuard(t)
	issuedAt := *clock

	token, err := p.Issue(Identity{ID: uuid.New(), Email: "u@b.com", Role: RoleUser})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	// Under the cadence: no cookie rewrite.
	*clock = issuedAt.Add(4 * time.Minute)
	rec, _ := guardedRequest(t, g, "/user/orders", token)
	if cookies := rec.Result().Cookies(); len(cookies) != 0 {
		t.Fatalf("cookie rewritten before cadence: %v", cookies)
	}

	// Past the cadence: a fresh cookie carrying the original issuedAt.
	*clock = issuedAt.Add(6 * time.Minute)
	rec, _ = guardedRequest(t, g, "/user/orders", token)
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "fractal_session" {
		t.Fatalf("expected one session cookie, got %v", cookies)
	}
	sess, err := p.Decode(cookies[0].Value)
	if err != nil {
		t.Fatalf("Decode(refreshed cookie) error = %v", err)
	}
	if !sess.IssuedAt.Equal(issuedAt) {
		t.Fatalf("refreshed cookie IssuedAt = %v, want %v", sess.IssuedAt, issuedAt)
	}
}
