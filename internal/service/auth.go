package service

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/one-zero-eight/omnidesk-portal/internal/domain"
)

var tracer = otel.Tracer("auth")

// TokenDecoder verifies a bearer token issued by InNoHassle Accounts.
type TokenDecoder interface {
	DecodeToken(ctx context.Context, token string) (*domain.UserTokenData, error)
}

type AuthService struct {
	decoder TokenDecoder
}

func NewAuthService(decoder TokenDecoder) *AuthService {
	return &AuthService{
		decoder: decoder,
	}
}

// AuthJwt returns the identity behind token. Every failure is reported as
// domain.ErrUnauthorized so callers can't tell a bad signature from an
// expired token.
func (s *AuthService) AuthJwt(ctx context.Context, token string) (*domain.UserTokenData, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.AuthJwt")
	defer span.End()

	if token == "" {
		span.RecordError(fmt.Errorf("empty token"))
		return nil, domain.ErrUnauthorized
	}

	user, err := s.decoder.DecodeToken(ctx, token)
	if err != nil {
		span.RecordError(errors.Wrap(err, "token decode failed"))
		return nil, domain.ErrUnauthorized
	}

	if user.InnohassleID == "" {
		span.RecordError(fmt.Errorf("token has no uid claim"))
		return nil, domain.ErrUnauthorized
	}
	if user.Email == "" {
		span.RecordError(fmt.Errorf("token has no email claim"))
		return nil, domain.ErrUnauthorized
	}

	span.SetAttributes(attribute.String("RequesterId", user.InnohassleID))
	return user, nil
}
