package accounts

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-jose/go-jose/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/one-zero-eight/omnidesk-portal/internal/domain"
)

const (
	defaultTimeout = 10 * time.Second
	serviceName    = "accounts"
)

var supportedAlgs = []string{
	oidc.RS256, oidc.RS384, oidc.RS512,
	oidc.ES256, oidc.ES384, oidc.ES512,
	oidc.PS256, oidc.PS384, oidc.PS512,
}

// Client is the InNoHassle Accounts API: it verifies user tokens against
// the published key set and looks users up with the service token.
type Client struct {
	client   *http.Client
	apiURL   string
	apiToken string
	verifier *oidc.IDTokenVerifier
}

func New(apiURL, apiToken string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	c := &Client{
		client:   httpClient,
		apiURL:   strings.TrimRight(apiURL, "/"),
		apiToken: apiToken,
	}

	keySet := oidc.NewRemoteKeySet(oidc.ClientContext(context.Background(), httpClient), c.JWKSURL())
	c.verifier = oidc.NewVerifier("", keySet, &oidc.Config{
		SkipClientIDCheck:    true,
		SkipIssuerCheck:      true,
		SupportedSigningAlgs: supportedAlgs,
	})
	return c
}

func (c *Client) JWKSURL() string {
	return c.apiURL + "/.well-known/jwks.json"
}

// UpdateKeySet checks that the key set is reachable and not empty.
// Verification refetches the set on its own when an unknown key id shows up.
func (c *Client) UpdateKeySet(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.JWKSURL(), nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create request")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, &domain.UpstreamError{Service: serviceName, Body: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return 0, &domain.UpstreamError{Service: serviceName, Status: resp.StatusCode, Body: string(body)}
	}

	var keySet jose.JSONWebKeySet
	err = json.NewDecoder(resp.Body).Decode(&keySet)
	if err != nil {
		return 0, errors.Wrap(err, "failed to decode key set")
	}
	if len(keySet.Keys) == 0 {
		return 0, errors.New("key set is empty")
	}

	slog.InfoContext(
		ctx, "accounts key set loaded",
		slog.Int("keys", len(keySet.Keys)),
		slog.String("module", "accounts"),
	)

	return len(keySet.Keys), nil
}

type tokenClaims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// DecodeToken verifies a user token and returns the identity it carries.
func (c *Client) DecodeToken(ctx context.Context, token string) (*domain.UserTokenData, error) {
	idToken, err := c.verifier.Verify(ctx, token)
	if err != nil {
		return nil, errors.Wrap(err, "token verification failed")
	}

	var claims tokenClaims
	err = idToken.Claims(&claims)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode claims")
	}

	return &domain.UserTokenData{
		InnohassleID: claims.UID,
		Email:        claims.Email,
	}, nil
}

// GetUser fetches a user by InNoHassle id.
func (c *Client) GetUser(ctx context.Context, innohassleID string) (domain.AccountsUser, error) {
	return c.getUser(ctx, "/users/by-id/"+url.PathEscape(innohassleID))
}

// GetUserByEmail fetches a user by Innopolis email.
func (c *Client) GetUserByEmail(ctx context.Context, email string) (domain.AccountsUser, error) {
	return c.getUser(ctx, "/users/by-innomail/"+url.PathEscape(email))
}

func (c *Client) getUser(ctx context.Context, path string) (domain.AccountsUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+path, nil)
	if err != nil {
		return domain.AccountsUser{}, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.AccountsUser{}, &domain.UpstreamError{Service: serviceName, Body: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.AccountsUser{}, domain.NotFoundError{Resource: "user"}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return domain.AccountsUser{}, &domain.UpstreamError{Service: serviceName, Status: resp.StatusCode, Body: string(body)}
	}

	var user domain.AccountsUser
	err = json.NewDecoder(resp.Body).Decode(&user)
	if err != nil {
		return domain.AccountsUser{}, errors.Wrap(err, "failed to decode user")
	}
	return user, nil
}
