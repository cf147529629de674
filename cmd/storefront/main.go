package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"fractalshop/internal/auth"
	"fractalshop/internal/config"
	"fractalshop/internal/db"
	"fractalshop/internal/events"
	"fractalshop/internal/handlers"
	"fractalshop/internal/mail"
	"fractalshop/internal/otel"
	"fractalshop/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	cleanup, traceMW, err := otel.Init(ctx, version.Name, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("init otel")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cleanup(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown otel")
		}
	}()

	database, err := db.Connect(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer func() {
		if err := db.Close(database); err != nil {
			log.Error().Err(err).Msg("close database")
		}
	}()

	if err := db.Migrate(ctx, database); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}
	if err := db.Seed(ctx, database, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("seed database")
	}

	bus, err := events.Connect(cfg.NATSURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect nats")
	}
	defer bus.Close()

	var mailer auth.PinMailer
	if cfg.SMTPHost != "" {
		smtpMailer, err := mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("configure mailer")
		}
		mailer = smtpMailer
	} else {
		mailer = mail.LogMailer{}
	}

	pinStore := auth.NewGormPinStore(database)
	userStore := auth.NewGormUserStore(database)

	pins := auth.NewPinService(pinStore, userStore, mailer, bus, auth.PinConfig{
		TTL:         cfg.PinTTL,
		MaxAttempts: cfg.PinMaxAttempts,
		FailClosed:  cfg.PinFailClosed,
		LogPin:      !cfg.Production(),
	})
	passwords := auth.NewPasswordService(userStore, bus)
	google := auth.NewGoogleAuthenticator(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.BaseURL+"/api/auth/google/callback",
		userStore,
		bus,
	)

	tokens := auth.NewTokenProvider([]byte(cfg.JWTSigningKey), cfg.SessionMaxAge)
	guard := auth.NewGuard(tokens, auth.GuardConfig{
		CookieName:   cfg.SessionCookie,
		UpdateAge:    cfg.SessionUpdateAge,
		CookieDomain: cfg.CookieDomain,
		CookieSecure: cfg.CookieSecure,
	})

	api, err := handlers.New(database, pins, passwords, google, tokens, guard, bus, handlers.Config{
		AllowedOrigins: cfg.AllowedOrigins,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build api")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           traceMW(api.Routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Str("version", version.Version).Msg("starting fractalshop-auth")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown server")
	}
}
