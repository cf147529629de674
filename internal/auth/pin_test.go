package auth

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"

	"fractalshop/internal/models"
)

type memPinStore struct {
	byEmail map[string]*models.PinVerification
}

func newMemPinStore() *memPinStore {
	return &memPinStore{byEmail: make(map[string]*models.PinVerification)}
}

func (s *memPinStore) Upsert(_ context.Context, rec *models.PinVerification) error {
	cp := *rec
	s.byEmail[rec.Email] = &cp
	return nil
}

func (s *memPinStore) FindValid(_ context.Context, email, pin string, now time.Time) (*models.PinVerification, error) {
	rec, ok := s.byEmail[email]
	if !ok || rec.Pin != pin || !rec.ExpiresAt.After(now) {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *memPinStore) FindByEmail(_ context.Context, email string) (*models.PinVerification, error) {
	rec, ok := s.byEmail[email]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *memPinStore) IncrementAttempts(_ context.Context, id uuid.UUID) error {
	for _, rec := range s.byEmail {
		if rec.ID == id {
			rec.Attempts++
			return nil
		}
	}
	return errors.New("not found")
}

func (s *memPinStore) Delete(_ context.Context, id uuid.UUID) error {
	for email, rec := range s.byEmail {
		if rec.ID == id {
			delete(s.byEmail, email)
			return nil
		}
	}
	return nil
}

type memUserStore struct {
	byEmail map[string]*models.User
}

func newMemUserStore(users ...*models.User) *memUserStore {
	s := &memUserStore{byEmail: make(map[string]*models.User)}
	for _, u := range users {
		s.byEmail[u.Email] = u
	}
	return s
}

func (s *memUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *memUserStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range s.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memUserStore) Create(_ context.Context, user *models.User) error {
	if _, exists := s.byEmail[user.Email]; exists {
		return errors.New("duplicate email")
	}
	cp := *user
	s.byEmail[user.Email] = &cp
	return nil
}

type captureMailer struct {
	to  string
	pin string
}

func (m *captureMailer) SendPIN(_ context.Context, to, pin string, _ time.Time) error {
	m.to = to
	m.pin = pin
	return nil
}

func newTestPinService(users *memUserStore) (*PinService, *memPinStore, *captureMailer, *time.Time) {
	pins := newMemPinStore()
	mailer := &captureMailer{}
	svc := NewPinService(pins, users, mailer, nil, PinConfig{
		TTL:         10 * time.Minute,
		MaxAttempts: 3,
	})
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := &now
	svc.now = func() time.Time { return *clock }
	return svc, pins, mailer, clock
}

func testUser(email string) *models.User {
	return &models.User{ID: uuid.New(), Email: email, Role: "user"}
}

func TestPinVerifyOnce(t *testing.T) {
	ctx := context.Background()
	user := testUser("a@b.com")
	svc, _, mailer, _ := newTestPinService(newMemUserStore(user))

	if err := svc.Issue(ctx, "a@b.com"); err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if mailer.to != "a@b.com" {
		t.Fatalf("mail dispatched to %q, want a@b.com", mailer.to)
	}

	id, err := svc.Verify(ctx, "a@b.com", mailer.pin)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if id.ID != user.ID || id.Email != "a@b.com" || id.Role != RoleUser {
		t.Fatalf("Verify() identity = %+v", id)
	}

	// The record is deleted on success; the same code must not verify twice.
	if _, err := svc.Verify(ctx, "a@b.com", mailer.pin); !errors.Is(err, ErrInvalidOrExpiredPin) {
		t.Fatalf("second Verify() error = %v, want ErrInvalidOrExpiredPin", err)
	}
}

func TestPinAttemptCeiling(t *testing.T) {
	ctx := context.Background()
	svc, pins, mailer, _ := newTestPinService(newMemUserStore(testUser("a@b.com")))

	if err := svc.Issue(ctx, "a@b.com"); err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	for i := 1; i <= 3; i++ {
		if _, err := svc.Verify(ctx, "a@b.com", "000000"); !errors.Is(err, ErrInvalidOrExpiredPin) {
			t.Fatalf("wrong guess %d: error = %v, want ErrInvalidOrExpiredPin", i, err)
		}
		rec, _ := pins.FindByEmail(ctx, "a@b.com")
		if rec.Attempts != i {
			t.Fatalf("after guess %d: attempts = %d, want %d", i, rec.Attempts, i)
		}
	}

	// Even the correct code is refused once the ceiling is reached.
	if _, err := svc.Verify(ctx, "a@b.com", mailer.pin); !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("Verify() after ceiling: error = %v, want ErrTooManyAttempts", err)
	}
}

func TestPinExpiry(t *testing.T) {
	ctx := context.Background()
	svc, _, mailer, clock := newTestPinService(newMemUserStore(testUser("a@b.com")))

	if err := svc.Issue(ctx, "a@b.com"); err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	*clock = clock.Add(10*time.Minute + time.Second)
	if _, err := svc.Verify(ctx, "a@b.com", mailer.pin); !errors.Is(err, ErrInvalidOrExpiredPin) {
		t.Fatalf("Verify() after expiry: error = %v, want ErrInvalidOrExpiredPin", err)
	}
}

func TestPinReissueResetsState(t *testing.T) {
	ctx := context.Background()
	svc, pins, mailer, _ := newTestPinService(newMemUserStore(testUser("a@b.com")))

	if err := svc.Issue(ctx, "a@b.com"); err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	oldPin := mailer.pin
	if _, err := svc.Verify(ctx, "a@b.com", "000000"); !errors.Is(err, ErrInvalidOrExpiredPin) {
		t.Fatalf("wrong guess: error = %v", err)
	}

	if err := svc.Issue(ctx, "a@b.com"); err != nil {
		t.Fatalf("second Issue() error = %v", err)
	}
	rec, _ := pins.FindByEmail(ctx, "a@b.com")
	if rec.Attempts != 0 {
		t.Fatalf("attempts after reissue = %d, want 0", rec.Attempts)
	}

	if oldPin != mailer.pin {
		if _, err := svc.Verify(ctx, "a@b.com", oldPin); !errors.Is(err, ErrInvalidOrExpiredPin) {
			t.Fatalf("old pin after reissue: error = %v, want ErrInvalidOrExpiredPin", err)
		}
	}
	if _, err := svc.Verify(ctx, "a@b.com", mailer.pin); err != nil {
		t.Fatalf("new pin after reissue: error = %v", err)
	}
}

func TestPinUnknownUser(t *testing.T) {
	ctx := context.Background()
	svc, _, mailer, _ := newTestPinService(newMemUserStore())

	if err := svc.Issue(ctx, "ghost@b.com"); err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := svc.Verify(ctx, "ghost@b.com", mailer.pin); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("Verify() error = %v, want ErrUserNotFound", err)
	}
}

func TestPinLifecycleScenario(t *testing.T) {
	ctx := context.Background()
	user := testUser("a@b.com")
	svc, pins, mailer, clock := newTestPinService(newMemUserStore(user))

	if err := svc.Issue(ctx, "a@b.com"); err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	rec, _ := pins.FindByEmail(ctx, "a@b.com")
	if rec == nil || rec.Attempts != 0 {
		t.Fatalf("pending record = %+v", rec)
	}
	if want := clock.Add(10 * time.Minute); !rec.ExpiresAt.Equal(want) {
		t.Fatalf("expires at %v, want %v", rec.ExpiresAt, want)
	}

	if _, err := svc.Verify(ctx, "a@b.com", "000000"); !errors.Is(err, ErrInvalidOrExpiredPin) {
		t.Fatalf("wrong guess: error = %v", err)
	}
	rec, _ = pins.FindByEmail(ctx, "a@b.com")
	if rec.Attempts != 1 {
		t.Fatalf("attempts = %d, want 1", rec.Attempts)
	}

	id, err := svc.Verify(ctx, "a@b.com", mailer.pin)
	if err != nil {
		t.Fatalf("correct guess: error = %v", err)
	}
	if id.ID != user.ID || id.Email != "a@b.com" || id.Role != RoleUser {
		t.Fatalf("identity = %+v", id)
	}
	if rec, _ := pins.FindByEmail(ctx, "a@b.com"); rec != nil {
		t.Fatalf("record survived successful verification: %+v", rec)
	}
}

func TestGeneratePIN(t *testing.T) {
	for i := 0; i < 200; i++ {
		pin, err := GeneratePIN()
		if err != nil {
			t.Fatalf("GeneratePIN() error = %v", err)
		}
		if len(pin) != 6 {
			t.Fatalf("GeneratePIN() = %q, want 6 digits", pin)
		}
		n, err := strconv.Atoi(pin)
		if err != nil {
			t.Fatalf("GeneratePIN() = %q, not numeric", pin)
		}
		if n < pinMin || n > pinMax {
			t.Fatalf("GeneratePIN() = %d, out of [%d, %d]", n, pinMin, pinMax)
		}
	}
}
