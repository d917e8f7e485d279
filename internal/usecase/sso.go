package usecase

import (
	"context"
	"errors"

	"github.com/one-zero-eight/omnidesk-portal/internal/domain"
)

type SSOUsecase struct {
	accounts AccountsGateway
	signer   LinkSigner
	tracker  *ActivityTracker
}

func NewSSOUsecase(accounts AccountsGateway, signer LinkSigner, tracker *ActivityTracker) *SSOUsecase {
	return &SSOUsecase{
		accounts: accounts,
		signer:   signer,
		tracker:  tracker,
	}
}

// GenerateLink issues an Omnidesk sign-in link for the caller.
func (uc *SSOUsecase) GenerateLink(ctx context.Context, user *domain.UserTokenData, returnTo string) (string, error) {
	ctx, span := tracer.Start(ctx, "SSO.Usecase.GenerateLink")
	defer span.End()

	if !uc.signer.Enabled() {
		return "", domain.ErrSSODisabled
	}

	account, err := uc.accounts.GetUser(ctx, user.InnohassleID)
	if errors.Is(err, domain.ErrNotFound) && user.Email != "" {
		// tokens issued before an account merge carry a stale uid
		account, err = uc.accounts.GetUserByEmail(ctx, user.Email)
	}
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	link, err := uc.signer.SignInLink(ctx, user.Email, account.DisplayName(), user.InnohassleID, returnTo)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	uc.tracker.Track(ctx, user, domain.ActivitySSOLinkIssued, nil)

	return link, nil
}
