package service

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"

	"github.com/one-zero-eight/omnidesk-portal/internal/domain"
)

const ssoTokenLifetime = 30 * time.Minute

var ssoTracer = otel.Tracer("sso")

type SSOConfig struct {
	JWTMarker         string
	JWTAccessBaseURL  string
	DefaultRedirectTo string
	Timeout           time.Duration
}

func (c SSOConfig) Enabled() bool {
	return c.JWTMarker != "" && c.JWTAccessBaseURL != ""
}

// SSOService issues Omnidesk single sign-on links. The user identity is
// packed into an HS256 token signed with the account's JWT marker and
// exchanged at Omnidesk's JWT access endpoint for a login URL.
type SSOService struct {
	config SSOConfig
	client *http.Client
	now    func() time.Time
}

func NewSSOService(config SSOConfig) *SSOService {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SSOService{
		config: config,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		now: time.Now,
	}
}

func (s *SSOService) Enabled() bool {
	return s.config.Enabled()
}

type ssoClaims struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	ExternalID string `json:"external_id"`
	jwt.RegisteredClaims
}

func (s *SSOService) SignToken(email, name, externalID string) (string, error) {
	if !s.Enabled() {
		return "", domain.ErrSSODisabled
	}

	now := s.now()
	claims := ssoClaims{
		Email:      email,
		Name:       name,
		ExternalID: externalID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ssoTokenLifetime)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.JWTMarker))
	if err != nil {
		return "", errors.Wrap(err, "failed to sign sso token")
	}
	return signed, nil
}

// SignInLink exchanges a signed token for a login URL that lands the user on
// returnTo. An empty returnTo falls back to the configured default.
func (s *SSOService) SignInLink(ctx context.Context, email, name, externalID, returnTo string) (string, error) {
	ctx, span := ssoTracer.Start(ctx, "SSO.Service.SignInLink")
	defer span.End()

	token, err := s.SignToken(email, name, externalID)
	if err != nil {
		return "", err
	}
	if returnTo == "" {
		returnTo = s.config.DefaultRedirectTo
	}

	params := url.Values{}
	params.Set("jwt", token)
	if returnTo != "" {
		params.Set("return_to", returnTo)
	}

	endpoint := s.config.JWTAccessBaseURL
	if strings.Contains(endpoint, "?") {
		endpoint += "&" + params.Encode()
	} else {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to create request")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return "", &domain.UpstreamError{Service: "omnidesk", Body: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8192))
	if err != nil {
		return "", &domain.UpstreamError{Service: "omnidesk", Body: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &domain.UpstreamError{Service: "omnidesk", Status: resp.StatusCode, Body: string(body)}
	}

	link := strings.TrimSpace(string(body))
	if link == "" {
		return "", &domain.UpstreamError{Service: "omnidesk", Status: resp.StatusCode, Body: "empty sign-in link"}
	}
	return link, nil
}
