package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"fractalshop/internal/events"
	"fractalshop/internal/models"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleAuthenticator implements the OAuth sign-in strategy. First sign-in
// for an unseen email creates a passwordless user with the default role;
// repeat sign-ins reuse the stored id and role.
type GoogleAuthenticator struct {
	oauth *oauth2.Config
	users UserStore
	bus   *events.Publisher
}

func NewGoogleAuthenticator(clientID, clientSecret, redirectURL string, users UserStore, bus *events.Publisher) *GoogleAuthenticator {
	return &GoogleAuthenticator{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		users: users,
		bus:   bus,
	}
}

// Enabled reports whether the provider is configured.
func (g *GoogleAuthenticator) Enabled() bool {
	return g != nil && g.oauth.ClientID != "" && g.oauth.ClientSecret != ""
}

// AuthCodeURL returns the provider consent URL bound to state.
func (g *GoogleAuthenticator) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state)
}

type googleUserInfo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Exchange trades the callback code for an identity, creating the user
// record on first sign-in.
func (g *GoogleAuthenticator) Exchange(ctx context.Context, code string) (Identity, error) {
	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("oauth exchange: %w", err)
	}

	info, err := g.fetchUserInfo(ctx, token)
	if err != nil {
		return Identity{}, err
	}
	if info.Email == "" {
		return Identity{}, errors.New("oauth provider returned no email")
	}

	user, err := g.users.FindByEmail(ctx, info.Email)
	if err != nil {
		return Identity{}, fmt.Errorf("user lookup: %w", err)
	}

	if user == nil {
		name := info.Name
		if name == "" {
			name = strings.SplitN(info.Email, "@", 2)[0]
		}
		user = &models.User{
			ID:    uuid.New(),
			Email: info.Email,
			Name:  name,
			Role:  string(RoleUser),
			// OAuth accounts carry no password.
			PasswordHash: nil,
		}
		if err := g.users.Create(ctx, user); err != nil {
			return Identity{}, fmt.Errorf("create oauth user: %w", err)
		}
	}

	g.bus.Publish(events.SubjectSignedIn, map[string]any{
		"user_id":  user.ID,
		"strategy": "google",
	})
	return Identity{ID: user.ID, Email: user.Email, Role: ParseRole(user.Role)}, nil
}

func (g *GoogleAuthenticator) fetchUserInfo(ctx context.Context, token *oauth2.Token) (googleUserInfo, error) {
	client := g.oauth.Client(ctx, token)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return googleUserInfo{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return googleUserInfo{}, fmt.Errorf("fetch userinfo: status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return googleUserInfo{}, fmt.Errorf("decode userinfo: %w", err)
	}
	return info, nil
}
