package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"
)

const (
	// DefaultProviderTimeout bounds each network call to GitHub. On
	// timeout the login flow resolves to failure instead of hanging the
	// caller.
	DefaultProviderTimeout = 10 * time.Second

	defaultAPIBaseURL = "https://api.github.com"

	// maxProfileBody caps how much of the profile response is read.
	maxProfileBody = 1 << 20
)

// DefaultScopes are the GitHub OAuth scopes requested at login.
var DefaultScopes = []string{"read:user", "user:email"}

// GitHubConfig configures the GitHub OAuth client.
type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	Timeout      time.Duration

	// Endpoint and APIBaseURL default to GitHub's public endpoints and
	// exist so tests can point the client at a fake provider.
	Endpoint   oauth2.Endpoint
	APIBaseURL string
}

// GitHubClient performs the authorization-code-for-token exchange and
// fetches the authenticated user's profile. All network calls are bounded
// by the configured timeout.
type GitHubClient struct {
	oauth      *oauth2.Config
	apiBaseURL string
	httpClient *http.Client
}

// NewGitHubClient creates a GitHub OAuth client from the given config.
func NewGitHubClient(config GitHubConfig) *GitHubClient {
	endpoint := config.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = githuboauth.Endpoint
	}
	apiBaseURL := config.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
	}
	scopes := config.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}

	return &GitHubClient{
		oauth: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		apiBaseURL: apiBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// AuthorizationURL builds the provider authorization URL embedding the
// client identity, requested scopes, the callback address, and the CSRF
// state so the provider round-trips it unmodified.
func (c *GitHubClient) AuthorizationURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// ExchangeCode exchanges an authorization code for an access token. Any
// non-success provider response, network failure, or malformed payload is a
// failure; a token is never partially accepted.
func (c *GitHubClient) ExchangeCode(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token in response", ErrExchangeFailed)
	}
	return token.AccessToken, nil
}

// FetchProfile retrieves the authenticated user's profile with the given
// access token.
func (c *GitHubClient) FetchProfile(ctx context.Context, accessToken string) (UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBaseURL+"/user", nil)
	if err != nil {
		return UserProfile{}, fmt.Errorf("%w: %v", ErrProfileFetchFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return UserProfile{}, fmt.Errorf("%w: %v", ErrProfileFetchFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBody))
	if err != nil {
		return UserProfile{}, fmt.Errorf("%w: %v", ErrProfileFetchFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return UserProfile{}, fmt.Errorf("%w: status %d", ErrProfileFetchFailed, resp.StatusCode)
	}

	var profile UserProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return UserProfile{}, fmt.Errorf("%w: %v", ErrProfileFetchFailed, err)
	}
	if profile.Login == "" {
		return UserProfile{}, fmt.Errorf("%w: empty login in response", ErrProfileFetchFailed)
	}
	return profile, nil
}
