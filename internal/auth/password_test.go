package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fractalshop/internal/models"
)

// Fixture hashes use MinCost; production cost would make these tests
// needlessly slow and the comparison path is identical.
func fixtureHash(t *testing.T, password string) *string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword() error = %v", err)
	}
	s := string(b)
	return &s
}

func TestPasswordVerify(t *testing.T) {
	ctx := context.Background()
	hash := fixtureHash(t, "hunter2!")
	user := &models.User{ID: uuid.New(), Email: "a@b.com", Role: "admin", PasswordHash: hash}
	oauthOnly := &models.User{ID: uuid.New(), Email: "o@b.com", Role: "user"}
	svc := NewPasswordService(newMemUserStore(user, oauthOnly), nil)

	t.Run("match", func(t *testing.T) {
		id, err := svc.Verify(ctx, "a@b.com", "hunter2!")
		if err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if id.ID != user.ID || id.Role != RoleAdmin {
			t.Fatalf("Verify() identity = %+v", id)
		}
	})

	failures := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "a@b.com", "hunter3!"},
		{"unknown user", "ghost@b.com", "hunter2!"},
		{"oauth-only account", "o@b.com", "hunter2!"},
	}
	for _, tc := range failures {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Verify(ctx, tc.email, tc.password); !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("Verify() error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestCheckPassword(t *testing.T) {
	hash := fixtureHash(t, "correct horse")
	if err := CheckPassword(*hash, "correct horse"); err != nil {
		t.Fatalf("CheckPassword(match) error = %v", err)
	}
	if err := CheckPassword(*hash, "wrong horse"); err == nil {
		t.Fatal("CheckPassword(mismatch) returned nil")
	}
}
