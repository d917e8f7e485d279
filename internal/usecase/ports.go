package usecase

import (
	"context"
	"encoding/json"

	"github.com/one-zero-eight/omnidesk-portal/internal/domain"
)

// OmnideskGateway is the subset of the Omnidesk API the portal relays to.
type OmnideskGateway interface {
	ListCases(ctx context.Context, email string, query domain.ListCasesQuery) (domain.CaseList, error)
	CreateCase(ctx context.Context, draft domain.CaseDraft) (json.RawMessage, error)
	ListMessages(ctx context.Context, caseID int64, query domain.ListMessagesQuery) (domain.MessageList, error)
	SendMessage(ctx context.Context, caseID int64, message domain.OutgoingMessage) (json.RawMessage, error)
	ResolveUserID(ctx context.Context, email string) (int64, bool, error)
}

// AccountsGateway looks users up in InNoHassle Accounts.
type AccountsGateway interface {
	GetUser(ctx context.Context, innohassleID string) (domain.AccountsUser, error)
	GetUserByEmail(ctx context.Context, email string) (domain.AccountsUser, error)
}

// LinkSigner issues Omnidesk single sign-on links.
type LinkSigner interface {
	Enabled() bool
	SignInLink(ctx context.Context, email, name, externalID, returnTo string) (string, error)
}

// ActivityRepository defines persistence for the activity log.
type ActivityRepository interface {
	Record(ctx context.Context, activity domain.Activity) (domain.Activity, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Activity, error)
}

// EventPublisher pushes events to a user's realtime sessions.
type EventPublisher interface {
	Publish(ctx context.Context, userID string, event domain.Event) error
}
