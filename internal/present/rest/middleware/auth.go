package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/one-zero-eight/omnidesk-portal/internal/domain"
	"github.com/one-zero-eight/omnidesk-portal/internal/present/rest/presenter"
)

var tracer = otel.Tracer("auth")

type Authenticator interface {
	AuthJwt(ctx context.Context, token string) (*domain.UserTokenData, error)
}

type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{
		auth: auth,
	}
}

// RequireUser authenticates the bearer token in the Authorization header.
func (s *AuthMiddleware) RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.RequireUser")
		defer span.End()

		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			span.RecordError(fmt.Errorf("missing authorization header"))
			return presenter.NotAuthenticated(c)
		}

		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			span.RecordError(fmt.Errorf("only Bearer is acceptable"))
			return presenter.NotAuthenticated(c)
		}

		return s.authenticate(ctx, c, strings.TrimSpace(token), next)
	}
}

// RequireUserQuery authenticates the token query parameter. Browsers can't
// set headers on websocket handshakes.
func (s *AuthMiddleware) RequireUserQuery(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.RequireUserQuery")
		defer span.End()

		token := c.QueryParam("token")
		if token == "" {
			span.RecordError(fmt.Errorf("missing token parameter"))
			return presenter.NotAuthenticated(c)
		}

		return s.authenticate(ctx, c, token, next)
	}
}

func (s *AuthMiddleware) authenticate(ctx context.Context, c echo.Context, token string, next echo.HandlerFunc) error {
	user, err := s.auth.AuthJwt(ctx, token)
	if err != nil {
		trace.SpanFromContext(ctx).RecordError(errors.Wrap(err, "AuthMiddleware: s.auth.AuthJwt failed"))
		return presenter.Unauthorized(c)
	}

	trace.SpanFromContext(ctx).SetAttributes(attribute.String("RequesterId", user.InnohassleID))
	c.Set(domain.RequesterCtxKey, user)
	c.SetRequest(c.Request().WithContext(ctx))
	return next(c)
}

// Requester returns the user authenticated for this request.
func Requester(c echo.Context) *domain.UserTokenData {
	user, _ := c.Get(domain.RequesterCtxKey).(*domain.UserTokenData)
	return user
}
