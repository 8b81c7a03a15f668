package github

import (
	"context"
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gogithub "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/pushrequest/relay/internal/models"
)

// AppClient calls the GitHub API on behalf of the App. Each call mints a
// short-lived RS256 app JWT, exchanges it for an installation access token,
// and talks to the API as that installation.
type AppClient struct {
	appID      string
	privateKey *rsa.PrivateKey
}

func NewAppClient(appID string, privateKeyPEM []byte) (*AppClient, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse app private key: %w", err)
	}

	return &AppClient{
		appID:      appID,
		privateKey: key,
	}, nil
}

// appJWT signs the App-level bearer token. Issued-at is backdated slightly
// to absorb clock drift between us and GitHub.
func (c *AppClient) appJWT() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    c.appID,
		IssuedAt:  jwt.NewNumericDate(now.Add(-30 * time.Second)),
		ExpiresAt: jwt.NewNumericDate(now.Add(9 * time.Minute)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(c.privateKey)
}

func (c *AppClient) installationClient(ctx context.Context, installationID int64) (*gogithub.Client, error) {
	appToken, err := c.appJWT()
	if err != nil {
		return nil, fmt.Errorf("failed to sign app token: %w", err)
	}

	appSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: appToken})
	appClient := gogithub.NewClient(oauth2.NewClient(ctx, appSource))

	installationToken, _, err := appClient.Apps.CreateInstallationToken(ctx, installationID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create installation token: %w", err)
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: installationToken.GetToken()})
	return gogithub.NewClient(oauth2.NewClient(ctx, tokenSource)), nil
}

// ListInstallationRepos returns every repository the installation grants
// access to.
func (c *AppClient) ListInstallationRepos(ctx context.Context, installationID int64) ([]models.Repository, error) {
	client, err := c.installationClient(ctx, installationID)
	if err != nil {
		return nil, err
	}

	var repos []models.Repository
	opts := &gogithub.ListOptions{PerPage: 100}

	for {
		list, resp, err := client.Apps.ListRepos(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list installation repos: %w", err)
		}

		for _, repo := range list.Repositories {
			repos = append(repos, models.NewRepository(repo.GetID(), repo.GetFullName()))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return repos, nil
}
