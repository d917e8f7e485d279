package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/one-zero-eight/omnidesk-portal/internal/domain"
)

type mockAccounts struct {
	user       domain.AccountsUser
	err        error
	byEmail    *domain.AccountsUser
	emailQuery string
}

func (m *mockAccounts) GetUser(ctx context.Context, innohassleID string) (domain.AccountsUser, error) {
	return m.user, m.err
}

func (m *mockAccounts) GetUserByEmail(ctx context.Context, email string) (domain.AccountsUser, error) {
	m.emailQuery = email
	if m.byEmail == nil {
		return domain.AccountsUser{}, domain.NotFoundError{Resource: "user"}
	}
	return *m.byEmail, nil
}

type mockSigner struct {
	enabled    bool
	email      string
	name       string
	externalID string
	returnTo   string
}

func (m *mockSigner) Enabled() bool { return m.enabled }

func (m *mockSigner) SignInLink(ctx context.Context, email, name, externalID, returnTo string) (string, error) {
	m.email, m.name, m.externalID, m.returnTo = email, name, externalID, returnTo
	return "https://example.omnidesk.ru/login?session=abc", nil
}

func TestGenerateLink(t *testing.T) {
	accounts := &mockAccounts{user: domain.AccountsUser{
		ID:            "uid-1",
		InnopolisInfo: &domain.InnopolisInfo{Name: "Ivan Ivanov"},
	}}
	signer := &mockSigner{enabled: true}
	repo := &mockActivityRepo{}
	uc := NewSSOUsecase(accounts, signer, NewActivityTracker(repo, nil))

	link, err := uc.GenerateLink(context.Background(), testUser, "https://help.innohassle.ru")
	require.NoError(t, err)
	assert.Equal(t, "https://example.omnidesk.ru/login?session=abc", link)
	assert.Equal(t, "i.ivanov@innopolis.university", signer.email)
	assert.Equal(t, "Ivan Ivanov", signer.name)
	assert.Equal(t, "uid-1", signer.externalID)
	assert.Equal(t, "https://help.innohassle.ru", signer.returnTo)

	require.Len(t, repo.recorded, 1)
	assert.Equal(t, domain.ActivitySSOLinkIssued, repo.recorded[0].Kind)
	assert.Nil(t, repo.recorded[0].CaseID)
}

func TestGenerateLinkDisabled(t *testing.T) {
	uc := NewSSOUsecase(&mockAccounts{}, &mockSigner{}, nil)

	_, err := uc.GenerateLink(context.Background(), testUser, "")
	assert.ErrorIs(t, err, domain.ErrSSODisabled)
}

func TestGenerateLinkUnknownUser(t *testing.T) {
	signer := &mockSigner{enabled: true}
	uc := NewSSOUsecase(&mockAccounts{err: domain.NotFoundError{Resource: "user"}}, signer, nil)

	_, err := uc.GenerateLink(context.Background(), testUser, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, signer.email)
}

func TestGenerateLinkFallsBackToEmail(t *testing.T) {
	accounts := &mockAccounts{
		err: domain.NotFoundError{Resource: "user"},
		byEmail: &domain.AccountsUser{
			ID:            "uid-1",
			InnopolisInfo: &domain.InnopolisInfo{Name: "Ivan Ivanov"},
		},
	}
	signer := &mockSigner{enabled: true}
	uc := NewSSOUsecase(accounts, signer, nil)

	_, err := uc.GenerateLink(context.Background(), testUser, "")
	require.NoError(t, err)
	assert.Equal(t, "i.ivanov@innopolis.university", accounts.emailQuery)
	assert.Equal(t, "Ivan Ivanov", signer.name)
	assert.Equal(t, "uid-1", signer.externalID)
}

func TestGenerateLinkNoFallbackOnUpstreamError(t *testing.T) {
	accounts := &mockAccounts{err: &domain.UpstreamError{Service: "accounts", Status: 500}}
	uc := NewSSOUsecase(accounts, &mockSigner{enabled: true}, nil)

	_, err := uc.GenerateLink(context.Background(), testUser, "")
	assert.Error(t, err)
	assert.Empty(t, accounts.emailQuery)
}
