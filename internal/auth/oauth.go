package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const githubAPI = "https://api.github.com"

// GitHubIdentity is what the portal needs from a GitHub account: a stable
// numeric id for logging and an e-mail to match against portal users.
type GitHubIdentity struct {
	ID    int64
	Login string
	Email string
}

// GitHubProvider runs the OAuth code flow against GitHub.
type GitHubProvider struct {
	config  *oauth2.Config
	apiBase string
}

func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		apiBase: githubAPI,
	}
}

// AuthURL is where the browser goes to approve the login. state is echoed
// back on the callback and must match the cookie set alongside the redirect.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback code for the account's identity.
//
// GitHub omits the e-mail from /user when the account keeps it private, so
// the primary verified address is read from /user/emails in that case.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (GitHubIdentity, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return GitHubIdentity{}, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}
	client := p.config.Client(ctx, token)

	var profile struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Email string `json:"email"`
	}
	if err := getJSON(ctx, client, p.apiBase+"/user", &profile); err != nil {
		return GitHubIdentity{}, err
	}
	if profile.ID == 0 {
		return GitHubIdentity{}, fmt.Errorf("auth: GitHub returned an invalid user (ID = 0)")
	}

	email := profile.Email
	if email == "" {
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := getJSON(ctx, client, p.apiBase+"/user/emails", &emails); err != nil {
			return GitHubIdentity{}, err
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				email = e.Email
				break
			}
		}
	}
	if email == "" {
		return GitHubIdentity{}, fmt.Errorf("auth: GitHub account %s has no verified primary e-mail", profile.Login)
	}

	return GitHubIdentity{
		ID:    profile.ID,
		Login: profile.Login,
		Email: strings.ToLower(email),
	}, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("auth: building GitHub request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("auth: calling %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth: %s returned status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("auth: decoding %s: %w", url, err)
	}
	return nil
}
