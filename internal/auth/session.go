package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned when a token is malformed or its signature
// does not verify. Expiry is not an error; see Decode.
var ErrInvalidToken = errors.New("invalid session token")

// SessionClaims is the signed claim set carried by the session cookie.
type SessionClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Session is the decoded, application-level view of a token. A zero Session
// is a guest. Expired sessions keep the flag set but have their identifying
// claims cleared, forcing re-authentication.
type Session struct {
	UserID   uuid.UUID
	Email    string
	Role     Role
	IssuedAt time.Time
	Expired  bool
}

// Authenticated reports whether the session identifies a signed-in user.
func (s Session) Authenticated() bool {
	return !s.Expired && s.UserID != uuid.Nil && s.Role.Authenticated()
}

// TokenProvider mints and decodes stateless HS256 session tokens. The
// server never stores sessions; the token is the whole session.
type TokenProvider struct {
	secret []byte
	maxAge time.Duration

	now func() time.Time
}

// NewTokenProvider returns a provider enforcing the given absolute lifetime
// measured from issuance.
func NewTokenProvider(secret []byte, maxAge time.Duration) *TokenProvider {
	if maxAge <= 0 {
		maxAge = 15 * time.Minute
	}
	return &TokenProvider{
		secret: secret,
		maxAge: maxAge,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Issue mints a token for the identity with issuedAt = now. Only an actual
// login produces a fresh issuedAt; decode and refresh never move it.
func (p *TokenProvider) Issue(id Identity) (string, error) {
	return p.sign(id, p.now())
}

func (p *TokenProvider) sign(id Identity, issuedAt time.Time) (string, error) {
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(p.maxAge)),
		},
		UserID: id.ID.String(),
		Email:  id.Email,
		Role:   string(id.Role),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

// Decode verifies the token and recomputes its age from issuedAt on every
// call, independent of the signature's own expiry. Past the hard cutoff the
// claims come back blanked with Expired set rather than as an error, so the
// caller degrades to guest and the client is forced to re-authenticate.
// Malformed or forged tokens return ErrInvalidToken.
func (p *TokenProvider) Decode(tokenString string) (Session, error) {
	var claims SessionClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.secret, nil
	}, jwt.WithTimeFunc(p.now), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{Expired: true}, nil
		}
		return Session{}, ErrInvalidToken
	}

	if claims.IssuedAt == nil {
		return Session{}, ErrInvalidToken
	}
	issuedAt := claims.IssuedAt.Time

	if p.now().Sub(issuedAt) > p.maxAge {
		return Session{Expired: true}, nil
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Session{}, ErrInvalidToken
	}

	return Session{
		UserID:   userID,
		Email:    claims.Email,
		Role:     ParseRole(claims.Role),
		IssuedAt: issuedAt,
	}, nil
}

// Refresh re-signs the session's claims without touching issuedAt. The
// guard calls this on a cadence so the cookie the browser holds stays
// fresh; the 15-minute deadline still counts from the original login.
func (p *TokenProvider) Refresh(s Session) (string, error) {
	if !s.Authenticated() {
		return "", ErrInvalidToken
	}
	return p.sign(Identity{ID: s.UserID, Email: s.Email, Role: s.Role}, s.IssuedAt)
}

// MaxAge exposes the absolute session lifetime for cookie settings.
func (p *TokenProvider) MaxAge() time.Duration { return p.maxAge }
