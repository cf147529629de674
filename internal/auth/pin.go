package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"fractalshop/internal/events"
	"fractalshop/internal/metrics"
	"fractalshop/internal/models"
)

const (
	pinMin = 100000
	pinMax = 999999
)

// PinMailer delivers a one-time code out of band.
type PinMailer interface {
	SendPIN(ctx context.Context, to, pin string, expiresAt time.Time) error
}

// PinConfig tunes the PIN lifecycle.
type PinConfig struct {
	TTL         time.Duration
	MaxAttempts int
	// FailClosed surfaces store failures on issuance instead of reporting
	// success. Off by default to avoid revealing whether an email is
	// registered and to keep the flow usable under degraded infra.
	FailClosed bool
	// LogPin emits the generated code to the operational log. Development
	// convenience only; must stay off in production.
	LogPin bool
}

// PinService implements the PIN issuance and verification lifecycle.
type PinService struct {
	pins   PinStore
	users  UserStore
	mailer PinMailer
	bus    *events.Publisher
	cfg    PinConfig

	now func() time.Time
}

// NewPinService wires the PIN lifecycle. mailer and bus may be nil.
func NewPinService(pins PinStore, users UserStore, mailer PinMailer, bus *events.Publisher, cfg PinConfig) *PinService {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &PinService{
		pins:   pins,
		users:  users,
		mailer: mailer,
		bus:    bus,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// GeneratePIN draws a uniformly random 6-digit code over [100000, 999999].
func GeneratePIN() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(pinMax-pinMin+1))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", pinMin+n.Int64()), nil
}

// Issue generates a fresh PIN for email, replaces any pending record, and
// dispatches the code by mail. Store and mail failures are logged and
// counted but do not fail the operation unless FailClosed is set (store
// failures only — dispatch is always best-effort).
func (s *PinService) Issue(ctx context.Context, email string) error {
	pin, err := GeneratePIN()
	if err != nil {
		return fmt.Errorf("generate pin: %w", err)
	}

	expiresAt := s.now().Add(s.cfg.TTL)
	rec := models.PinVerification{
		ID:        uuid.New(),
		Email:     email,
		Pin:       pin,
		ExpiresAt: expiresAt,
		Attempts:  0,
		CreatedAt: s.now(),
	}

	if err := s.pins.Upsert(ctx, &rec); err != nil {
		metrics.PinStoreFailures.Inc()
		log.Error().Err(err).Str("email", email).Msg("pin store upsert failed")
		if s.cfg.FailClosed {
			return fmt.Errorf("store pin: %w", err)
		}
	}

	if s.mailer != nil {
		if err := s.mailer.SendPIN(ctx, email, pin, expiresAt); err != nil {
			metrics.MailFailures.Inc()
			log.Error().Err(err).Str("email", email).Msg("pin mail dispatch failed")
		}
	}

	if s.cfg.LogPin {
		log.Debug().Str("email", email).Str("pin", pin).Msg("pin issued")
	}

	metrics.PinsIssued.Inc()
	s.bus.Publish(events.SubjectPinIssued, map[string]any{
		"email":      email,
		"expires_at": expiresAt,
	})
	return nil
}

// Verify checks email+pin against the pending record. The record is deleted
// on success (one-time use); on any failure the pending record's attempt
// counter is advanced best-effort and a single collapsed failure is
// returned to callers.
func (s *PinService) Verify(ctx context.Context, email, pin string) (Identity, error) {
	now := s.now()

	rec, err := s.pins.FindValid(ctx, email, pin, now)
	if err != nil {
		return Identity{}, fmt.Errorf("pin lookup: %w", err)
	}

	if rec == nil {
		// Wrong code, expired code, or nothing pending: bump the counter on
		// whatever record exists and collapse to one failure.
		if existing, err := s.pins.FindByEmail(ctx, email); err == nil && existing != nil {
			if err := s.pins.IncrementAttempts(ctx, existing.ID); err != nil {
				log.Warn().Err(err).Str("email", email).Msg("attempt increment failed")
			}
		}
		metrics.PinVerifications.WithLabelValues("invalid_or_expired").Inc()
		log.Debug().Str("email", email).Msg("pin verification failed: invalid or expired")
		return Identity{}, ErrInvalidOrExpiredPin
	}

	// The ceiling is checked against the existing counter even though the
	// code matched.
	if rec.Attempts >= s.cfg.MaxAttempts {
		metrics.PinVerifications.WithLabelValues("too_many_attempts").Inc()
		log.Debug().Str("email", email).Int("attempts", rec.Attempts).Msg("pin verification refused: attempt ceiling")
		return Identity{}, ErrTooManyAttempts
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return Identity{}, fmt.Errorf("user lookup: %w", err)
	}
	if user == nil {
		metrics.PinVerifications.WithLabelValues("user_not_found").Inc()
		log.Debug().Str("email", email).Msg("pin verification failed: no such user")
		return Identity{}, ErrUserNotFound
	}

	if err := s.pins.Delete(ctx, rec.ID); err != nil {
		return Identity{}, fmt.Errorf("consume pin: %w", err)
	}

	metrics.PinVerifications.WithLabelValues("success").Inc()
	s.bus.Publish(events.SubjectSignedIn, map[string]any{
		"user_id":  user.ID,
		"strategy": "pin",
	})
	return Identity{ID: user.ID, Email: user.Email, Role: ParseRole(user.Role)}, nil
}
