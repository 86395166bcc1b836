package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// githubUserURL is the profile endpoint queried after token exchange.
const githubUserURL = "https://api.github.com/user"

// Flow drives the GitHub OAuth authorization-code flow.
type Flow struct {
	config *oauth2.Config
}

// NewFlow builds a flow for the given client credentials. redirectURL
// must match the callback registered with the provider.
func NewFlow(clientID, clientSecret, redirectURL string) *Flow {
	return &Flow{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     github.Endpoint,
			RedirectURL:  redirectURL,
			Scopes:       []string{"read:user", "user:email"},
		},
	}
}

// Configured reports whether provider credentials are present.
func (f *Flow) Configured() bool {
	return f.config.ClientID != "" && f.config.ClientSecret != ""
}

// AuthURL returns the provider consent URL for the given state token.
func (f *Flow) AuthURL(state string) string {
	return f.config.AuthCodeURL(state)
}

// NewState returns a random state token for CSRF protection.
func NewState() string {
	buf := make([]byte, 16)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}

// Exchange trades an authorization code for the provider's view of the
// signed-in user.
func (f *Flow) Exchange(ctx context.Context, code string) (Identity, error) {
	token, err := f.config.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("exchanging authorization code: %w", err)
	}
	return f.fetchIdentity(ctx, token)
}

func (f *Flow) fetchIdentity(ctx context.Context, token *oauth2.Token) (Identity, error) {
	client := f.config.Client(ctx, token)
	resp, err := client.Get(githubUserURL)
	if err != nil {
		return Identity{}, fmt.Errorf("fetching user profile: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("fetching user profile: status %d", resp.StatusCode)
	}

	var profile struct {
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return Identity{}, fmt.Errorf("decoding user profile: %w", err)
	}

	name := profile.Name
	if name == "" {
		name = profile.Login
	}
	return Identity{
		Name:      name,
		Email:     profile.Email,
		AvatarURL: profile.AvatarURL,
	}, nil
}
