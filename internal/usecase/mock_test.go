package usecase

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/one-zero-eight/omnidesk-portal/internal/domain"
)

type mockOmnidesk struct {
	draft       domain.CaseDraft
	listEmail   string
	listQuery   domain.ListCasesQuery
	sentCase    int64
	sent        domain.OutgoingMessage
	userID      int64
	userKnown   bool
	resolveErr  error
	createResp  json.RawMessage
	err         error
	sendCalled  bool
	createCalls int
}

func (m *mockOmnidesk) ListCases(ctx context.Context, email string, query domain.ListCasesQuery) (domain.CaseList, error) {
	m.listEmail = email
	m.listQuery = query
	return domain.CaseList{Cases: []domain.CaseSummary{{CaseID: 1}}, TotalCount: 1}, m.err
}

func (m *mockOmnidesk) CreateCase(ctx context.Context, draft domain.CaseDraft) (json.RawMessage, error) {
	m.createCalls++
	m.draft = draft
	if m.err != nil {
		return nil, m.err
	}
	return m.createResp, nil
}

func (m *mockOmnidesk) ListMessages(ctx context.Context, caseID int64, query domain.ListMessagesQuery) (domain.MessageList, error) {
	return domain.MessageList{Messages: []domain.Message{}}, m.err
}

func (m *mockOmnidesk) SendMessage(ctx context.Context, caseID int64, message domain.OutgoingMessage) (json.RawMessage, error) {
	m.sendCalled = true
	m.sentCase = caseID
	m.sent = message
	if m.err != nil {
		return nil, m.err
	}
	return json.RawMessage(`{"message":{"message_id":9}}`), nil
}

func (m *mockOmnidesk) ResolveUserID(ctx context.Context, email string) (int64, bool, error) {
	return m.userID, m.userKnown, m.resolveErr
}

type mockActivityRepo struct {
	recorded []domain.Activity
	err      error
}

func (m *mockActivityRepo) Record(ctx context.Context, activity domain.Activity) (domain.Activity, error) {
	if m.err != nil {
		return domain.Activity{}, m.err
	}
	activity.ID = int64(len(m.recorded) + 1)
	m.recorded = append(m.recorded, activity)
	return activity, nil
}

func (m *mockActivityRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Activity, error) {
	if m.err != nil {
		return nil, m.err
	}
	var result []domain.Activity
	for i := len(m.recorded) - 1; i >= 0 && len(result) < limit; i-- {
		if m.recorded[i].UserID == userID {
			result = append(result, m.recorded[i])
		}
	}
	return result, nil
}

type mockPublisher struct {
	userID string
	events []domain.Event
}

func (m *mockPublisher) Publish(ctx context.Context, userID string, event domain.Event) error {
	m.userID = userID
	m.events = append(m.events, event)
	return nil
}

var errUpstream = errors.New("upstream down")

var testUser = &domain.UserTokenData{
	InnohassleID: "uid-1",
	Email:        "i.ivanov@innopolis.university",
}
