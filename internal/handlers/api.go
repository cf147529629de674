package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"fractalshop/internal/auth"
	"fractalshop/internal/events"
)

// Config controls runtime behaviour for the API handlers.
type Config struct {
	AllowedOrigins []string
}

// API wires dependencies and configuration for HTTP handlers.
type API struct {
	orm       *gorm.DB
	pins      *auth.PinService
	passwords *auth.PasswordService
	google    *auth.GoogleAuthenticator
	tokens    *auth.TokenProvider
	guard     *auth.Guard
	bus       *events.Publisher
	config    Config
}

// New initialises the API layer. bus may be nil.
func New(orm *gorm.DB, pins *auth.PinService, passwords *auth.PasswordService, google *auth.GoogleAuthenticator, tokens *auth.TokenProvider, guard *auth.Guard, bus *events.Publisher, cfg Config) (*API, error) {
	if orm == nil {
		return nil, errors.New("orm is required")
	}
	if pins == nil || passwords == nil {
		return nil, errors.New("auth services are required")
	}
	if tokens == nil || guard == nil {
		return nil, errors.New("token provider and guard are required")
	}

	return &API{
		orm:       orm,
		pins:      pins,
		passwords: passwords,
		google:    google,
		tokens:    tokens,
		guard:     guard,
		bus:       bus,
		config:    cfg,
	}, nil
}

// Routes constructs the chi router containing all endpoints. The route
// guard runs on every matched request, before any response is produced.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	allowed := a.config.AllowedOrigins
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           int((10 * time.Minute).Seconds()),
	}))

	r.Use(a.guard.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(httprate.LimitByIP(5, time.Minute)).Post("/send-pin", a.handleSendPin)
			r.With(httprate.LimitByIP(10, time.Minute)).Post("/signin", a.handleSignIn)
			r.Post("/signout", a.handleSignOut)
			r.Get("/session", a.handleSession)
			r.Get("/google", a.handleGoogleLogin)
			r.Get("/google/callback", a.handleGoogleCallback)
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/user/{userID}", a.handleListAddresses)
			r.Post("/user/{userID}", a.handleCreateAddress)
			r.Get("/{addressID}", a.handleGetAddress)
			r.Put("/{addressID}", a.handleUpdateAddress)
			r.Delete("/{addressID}", a.handleDeleteAddress)
			r.Put("/{addressID}/default", a.handleSetDefaultAddress)
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/product/{productID}", a.handleListProductReviews)
			r.Get("/user/{userID}", a.handleListUserReviews)
			r.Post("/", a.handleCreateReview)
			r.Get("/{reviewID}", a.handleGetReview)
			r.Put("/{reviewID}", a.handleUpdateReview)
			r.Delete("/{reviewID}", a.handleDeleteReview)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", a.handleListUsers)
			r.Post("/", a.handleCreateUser)
			r.Put("/{userID}", a.handleUpdateUser)
			r.Delete("/{userID}", a.handleDeleteUser)
			r.Get("/{userID}/profile", a.handleGetProfile)
			r.Put("/{userID}/profile", a.handleUpdateProfile)
		})
	})

	return r
}
