package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestProvider(t *testing.T) (*TokenProvider, *time.Time) {
	t.Helper()
	p := NewTokenProvider(testSecret, 15*time.Minute)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := &now
	p.now = func() time.Time { return *clock }
	return p, clock
}

func testIdentity() Identity {
	return Identity{ID: uuid.New(), Email: "a@b.com", Role: RoleUser}
}

func TestTokenRoundTrip(t *testing.T) {
	p, clock := newTestProvider(t)
	id := testIdentity()

	token, err := p.Issue(id)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	*clock = clock.Add(14*time.Minute + 59*time.Second)
	sess, err := p.Decode(token)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if sess.Expired {
		t.Fatal("Decode() within lifetime reported expired")
	}
	if sess.UserID != id.ID || sess.Email != id.Email || sess.Role != RoleUser {
		t.Fatalf("Decode() session = %+v", sess)
	}
	if !sess.Authenticated() {
		t.Fatal("session should be authenticated")
	}
}

func TestTokenHardCutoff(t *testing.T) {
	p, clock := newTestProvider(t)

	token, err := p.Issue(testIdentity())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	// Past the absolute lifetime the claims come back blanked, not as an
	// error.
	*clock = clock.Add(15*time.Minute + time.Second)
	sess, err := p.Decode(token)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !sess.Expired {
		t.Fatal("Decode() past cutoff: Expired = false")
	}
	if sess.UserID != uuid.Nil || sess.Email != "" || sess.Role != "" {
		t.Fatalf("Decode() past cutoff leaked claims: %+v", sess)
	}
	if sess.Authenticated() {
		t.Fatal("expired session reported authenticated")
	}
}

func TestTokenTampered(t *testing.T) {
	p, _ := newTestProvider(t)

	token, err := p.Issue(testIdentity())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	cases := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"flipped signature", token[:len(token)-2] + "xx"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := p.Decode(tc.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("Decode(%s) error = %v, want ErrInvalidToken", tc.name, err)
			}
		})
	}
}

func TestTokenWrongSecret(t *testing.T) {
	p, _ := newTestProvider(t)
	other := NewTokenProvider([]byte("another-secret-another-secret!!!"), 15*time.Minute)

	token, err := other.Issue(testIdentity())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := p.Decode(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Decode() with foreign signature: error = %v, want ErrInvalidToken", err)
	}
}

func TestRefreshPreservesIssuedAt(t *testing.T) {
	p, clock := newTestProvider(t)
	issuedAt := *clock

	token, err := p.Issue(testIdentity())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	*clock = clock.Add(6 * time.Minute)
	sess, err := p.Decode(token)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	refreshed, err := p.Refresh(sess)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	sess2, err := p.Decode(refreshed)
	if err != nil {
		t.Fatalf("Decode(refreshed) error = %v", err)
	}
	if !sess2.IssuedAt.Equal(issuedAt) {
		t.Fatalf("refreshed IssuedAt = %v, want %v", sess2.IssuedAt, issuedAt)
	}

	// The refreshed cookie still dies at the original deadline.
	*clock = issuedAt.Add(15*time.Minute + time.Second)
	sess3, err := p.Decode(refreshed)
	if err != nil {
		t.Fatalf("Decode(refreshed) past cutoff: error = %v", err)
	}
	if !sess3.Expired {
		t.Fatal("refreshed token outlived the original deadline")
	}
}

func TestRefreshRejectsGuest(t *testing.T) {
	p, _ := newTestProvider(t)
	if _, err := p.Refresh(Session{}); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Refresh(guest) error = %v, want ErrInvalidToken", err)
	}
	if _, err := p.Refresh(Session{Expired: true}); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Refresh(expired) error = %v, want ErrInvalidToken", err)
	}
}
