package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/one-zero-eight/omnidesk-portal/internal/domain"
)

type mockDecoder struct {
	user *domain.UserTokenData
	err  error
}

func (m *mockDecoder) DecodeToken(ctx context.Context, token string) (*domain.UserTokenData, error) {
	return m.user, m.err
}

func TestAuthJwt(t *testing.T) {
	s := NewAuthService(&mockDecoder{user: &domain.UserTokenData{
		InnohassleID: "uid-1",
		Email:        "i.ivanov@innopolis.university",
	}})

	user, err := s.AuthJwt(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", user.InnohassleID)
}

func TestAuthJwtRejects(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		decoder *mockDecoder
	}{
		{"empty token", "", &mockDecoder{user: &domain.UserTokenData{InnohassleID: "uid-1", Email: "a@b.c"}}},
		{"decode failure", "token", &mockDecoder{err: errors.New("bad signature")}},
		{"missing uid", "token", &mockDecoder{user: &domain.UserTokenData{Email: "a@b.c"}}},
		{"missing email", "token", &mockDecoder{user: &domain.UserTokenData{InnohassleID: "uid-1"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewAuthService(tt.decoder)
			_, err := s.AuthJwt(context.Background(), tt.token)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}
