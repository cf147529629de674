package auth

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"fractalshop/internal/events"
	"fractalshop/internal/metrics"
)

// bcryptCost matches what the account management endpoints have always used.
const bcryptCost = 14

// HashPassword produces a bcrypt hash suitable for storage.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword verifies password against a stored bcrypt hash in constant
// time. Returns nil on match.
func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// PasswordService is the email+password sign-in strategy. It resolves to
// the same Identity shape as the PIN strategy.
type PasswordService struct {
	users UserStore
	bus   *events.Publisher
}

func NewPasswordService(users UserStore, bus *events.Publisher) *PasswordService {
	return &PasswordService{users: users, bus: bus}
}

// Verify checks the credentials. Unknown user, OAuth-only account, and
// wrong password all collapse to ErrInvalidCredentials.
func (s *PasswordService) Verify(ctx context.Context, email, password string) (Identity, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return Identity{}, fmt.Errorf("user lookup: %w", err)
	}
	if user == nil {
		metrics.SignInFailures.WithLabelValues("credentials", "user_not_found").Inc()
		log.Debug().Str("email", email).Msg("credential sign-in failed: no such user")
		return Identity{}, ErrInvalidCredentials
	}
	if user.PasswordHash == nil {
		metrics.SignInFailures.WithLabelValues("credentials", "oauth_only").Inc()
		log.Debug().Str("email", email).Msg("credential sign-in failed: oauth-only account")
		return Identity{}, ErrInvalidCredentials
	}
	if err := CheckPassword(*user.PasswordHash, password); err != nil {
		metrics.SignInFailures.WithLabelValues("credentials", "wrong_password").Inc()
		log.Debug().Str("email", email).Msg("credential sign-in failed: wrong password")
		return Identity{}, ErrInvalidCredentials
	}

	s.bus.Publish(events.SubjectSignedIn, map[string]any{
		"user_id":  user.ID,
		"strategy": "credentials",
	})
	return Identity{ID: user.ID, Email: user.Email, Role: ParseRole(user.Role)}, nil
}
