package oauth

import (
	"time"

	"golang.org/x/oauth2"
)

// Credentials is the credential shape the relay consumes. Acquisition,
// refresh and onboarding happen outside this process; the relay only reads
// the access token and project binding.
type Credentials struct {
	ClientID     string    `json:"client_id,omitempty"`
	ClientSecret string    `json:"client_secret,omitempty"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenURI     string    `json:"token_uri,omitempty"`
	ProjectID    string    `json:"project_id,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	Scopes       []string  `json:"scopes,omitempty"`
}

// IsExpired reports whether the access token is expired or about to be.
func (c *Credentials) IsExpired() bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	// Treat tokens within 3 minutes of expiry as expired.
	return time.Now().Add(3 * time.Minute).After(c.ExpiresAt)
}

// Token converts the credential to an oauth2 token.
func (c *Credentials) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		Expiry:       c.ExpiresAt,
		TokenType:    "Bearer",
	}
}

// TokenSource exposes the credential as a static oauth2.TokenSource for
// callers that integrate with the wider oauth2 ecosystem.
func (c *Credentials) TokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(c.Token())
}
