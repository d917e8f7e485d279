package usecase

import (
	"context"
	"encoding/json"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/one-zero-eight/omnidesk-portal/internal/domain"
)

var tracer = otel.Tracer("usecase")

type CaseUsecase struct {
	omnidesk OmnideskGateway
	tracker  *ActivityTracker
}

func NewCaseUsecase(omnidesk OmnideskGateway, tracker *ActivityTracker) *CaseUsecase {
	return &CaseUsecase{
		omnidesk: omnidesk,
		tracker:  tracker,
	}
}

// CreateCase opens a case on behalf of user and returns Omnidesk's response
// untouched.
func (uc *CaseUsecase) CreateCase(ctx context.Context, user *domain.UserTokenData, input domain.CreateCaseInput) (json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "Case.Usecase.CreateCase")
	defer span.End()

	err := input.Validate()
	if err != nil {
		return nil, &domain.ValidationError{Err: err}
	}

	draft := domain.CaseDraft{
		UserEmail:    user.Email,
		Subject:      input.Subject,
		UserFullName: input.UserFullName,
	}
	if input.ContentHTML != "" {
		draft.ContentHTML = input.ContentHTML
	} else {
		draft.Content = input.Content
	}

	raw, err := uc.omnidesk.CreateCase(ctx, draft)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	caseID := createdCaseID(raw)
	if caseID != nil {
		span.SetAttributes(attribute.Int64("CaseId", *caseID))
	}
	uc.tracker.Track(ctx, user, domain.ActivityCaseCreated, caseID)

	return raw, nil
}

// ListCases lists the cases opened with the caller's email.
func (uc *CaseUsecase) ListCases(ctx context.Context, user *domain.UserTokenData, query domain.ListCasesQuery) (domain.CaseList, error) {
	ctx, span := tracer.Start(ctx, "Case.Usecase.ListCases")
	defer span.End()

	err := query.Validate()
	if err != nil {
		return domain.CaseList{}, &domain.ValidationError{Err: err}
	}

	return uc.omnidesk.ListCases(ctx, user.Email, query)
}

func (uc *CaseUsecase) ListMessages(ctx context.Context, user *domain.UserTokenData, caseID int64, query domain.ListMessagesQuery) (domain.MessageList, error) {
	ctx, span := tracer.Start(ctx, "Case.Usecase.ListMessages")
	defer span.End()
	span.SetAttributes(attribute.Int64("CaseId", caseID))

	err := query.Validate()
	if err != nil {
		return domain.MessageList{}, &domain.ValidationError{Err: err}
	}

	return uc.omnidesk.ListMessages(ctx, caseID, query)
}

// SendMessage posts a message to a case as the caller. The caller's
// Omnidesk user id is attached when it can be resolved.
func (uc *CaseUsecase) SendMessage(ctx context.Context, user *domain.UserTokenData, caseID int64, input domain.SendMessageInput) (json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "Case.Usecase.SendMessage")
	defer span.End()
	span.SetAttributes(attribute.Int64("CaseId", caseID))

	err := input.Validate()
	if err != nil {
		return nil, &domain.ValidationError{Err: err}
	}

	message := domain.OutgoingMessage{Attachments: input.Attachments}
	if input.ContentHTML != "" {
		message.ContentHTML = input.ContentHTML
	} else {
		message.Content = input.Content
	}

	userID, ok, err := uc.omnidesk.ResolveUserID(ctx, user.Email)
	if err != nil {
		slog.WarnContext(
			ctx, "failed to resolve omnidesk user id",
			slog.String("error", err.Error()),
			slog.String("module", "case"),
		)
	} else if ok {
		message.UserID = &userID
	}

	raw, err := uc.omnidesk.SendMessage(ctx, caseID, message)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	uc.tracker.Track(ctx, user, domain.ActivityMessageSent, &caseID)

	return raw, nil
}

func createdCaseID(raw json.RawMessage) *int64 {
	var created struct {
		Case struct {
			CaseID int64 `json:"case_id"`
		} `json:"case"`
	}
	err := json.Unmarshal(raw, &created)
	if err != nil || created.Case.CaseID == 0 {
		return nil
	}
	return &created.Case.CaseID
}
