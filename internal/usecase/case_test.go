package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/one-zero-eight/omnidesk-portal/internal/domain"
)

func TestCreateCase(t *testing.T) {
	omnidesk := &mockOmnidesk{createResp: json.RawMessage(`{"case":{"case_id":2002}}`)}
	repo := &mockActivityRepo{}
	publisher := &mockPublisher{}
	uc := NewCaseUsecase(omnidesk, NewActivityTracker(repo, publisher))

	raw, err := uc.CreateCase(context.Background(), testUser, domain.CreateCaseInput{
		Subject:      "Wi-Fi",
		Content:      "plain",
		ContentHTML:  "<p>rich</p>",
		UserFullName: "Ivan Ivanov",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"case":{"case_id":2002}}`, string(raw))

	assert.Equal(t, domain.CaseDraft{
		UserEmail:    "i.ivanov@innopolis.university",
		Subject:      "Wi-Fi",
		ContentHTML:  "<p>rich</p>",
		UserFullName: "Ivan Ivanov",
	}, omnidesk.draft)

	require.Len(t, repo.recorded, 1)
	assert.Equal(t, domain.ActivityCaseCreated, repo.recorded[0].Kind)
	require.NotNil(t, repo.recorded[0].CaseID)
	assert.Equal(t, int64(2002), *repo.recorded[0].CaseID)

	assert.Equal(t, "uid-1", publisher.userID)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, domain.ActivityCaseCreated, publisher.events[0].Type)
}

func TestCreateCaseValidation(t *testing.T) {
	omnidesk := &mockOmnidesk{}
	uc := NewCaseUsecase(omnidesk, nil)

	_, err := uc.CreateCase(context.Background(), testUser, domain.CreateCaseInput{Content: "no subject"})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Zero(t, omnidesk.createCalls)

	_, err = uc.CreateCase(context.Background(), testUser, domain.CreateCaseInput{Subject: "no body"})
	assert.True(t, errors.As(err, &verr))
}

func TestCreateCaseUpstreamFailureIsNotTracked(t *testing.T) {
	omnidesk := &mockOmnidesk{err: errUpstream}
	repo := &mockActivityRepo{}
	uc := NewCaseUsecase(omnidesk, NewActivityTracker(repo, nil))

	_, err := uc.CreateCase(context.Background(), testUser, domain.CreateCaseInput{Subject: "s", Content: "c"})
	assert.ErrorIs(t, err, errUpstream)
	assert.Empty(t, repo.recorded)
}

func TestListCasesScopedToCaller(t *testing.T) {
	omnidesk := &mockOmnidesk{}
	uc := NewCaseUsecase(omnidesk, nil)

	list, err := uc.ListCases(context.Background(), testUser, domain.DefaultListCasesQuery())
	require.NoError(t, err)
	assert.Len(t, list.Cases, 1)
	assert.Equal(t, "i.ivanov@innopolis.university", omnidesk.listEmail)
	assert.Equal(t, 20, omnidesk.listQuery.Limit)
}

func TestListCasesBounds(t *testing.T) {
	uc := NewCaseUsecase(&mockOmnidesk{}, nil)

	tests := []struct {
		name  string
		query domain.ListCasesQuery
		ok    bool
	}{
		{"defaults", domain.DefaultListCasesQuery(), true},
		{"last page", domain.ListCasesQuery{Page: 500, Limit: 100, Sort: "updated_at_desc"}, true},
		{"page zero", domain.ListCasesQuery{Page: 0, Limit: 20, Sort: "updated_at_desc"}, false},
		{"page too large", domain.ListCasesQuery{Page: 501, Limit: 20, Sort: "updated_at_desc"}, false},
		{"limit too large", domain.ListCasesQuery{Page: 1, Limit: 101, Sort: "updated_at_desc"}, false},
		{"negative limit", domain.ListCasesQuery{Page: 1, Limit: -1, Sort: "updated_at_desc"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.ListCases(context.Background(), testUser, tt.query)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var verr *domain.ValidationError
			assert.True(t, errors.As(err, &verr))
		})
	}
}

func TestListMessagesRejectsUnknownOrder(t *testing.T) {
	uc := NewCaseUsecase(&mockOmnidesk{}, nil)

	_, err := uc.ListMessages(context.Background(), testUser, 1, domain.ListMessagesQuery{Page: 1, Limit: 10, Order: "random"})
	var verr *domain.ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = uc.ListMessages(context.Background(), testUser, 1, domain.DefaultListMessagesQuery())
	assert.NoError(t, err)
}

func TestSendMessage(t *testing.T) {
	omnidesk := &mockOmnidesk{userID: 77, userKnown: true}
	repo := &mockActivityRepo{}
	uc := NewCaseUsecase(omnidesk, NewActivityTracker(repo, nil))

	uploads := []domain.Upload{{FileName: "a.txt", Data: []byte("a")}}
	_, err := uc.SendMessage(context.Background(), testUser, 2000, domain.SendMessageInput{
		Content:     "hello",
		Attachments: uploads,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2000), omnidesk.sentCase)
	require.NotNil(t, omnidesk.sent.UserID)
	assert.Equal(t, int64(77), *omnidesk.sent.UserID)
	assert.Equal(t, "hello", omnidesk.sent.Content)
	assert.Equal(t, uploads, omnidesk.sent.Attachments)

	require.Len(t, repo.recorded, 1)
	assert.Equal(t, domain.ActivityMessageSent, repo.recorded[0].Kind)
}

func TestSendMessagePrefersHTML(t *testing.T) {
	omnidesk := &mockOmnidesk{}
	uc := NewCaseUsecase(omnidesk, nil)

	_, err := uc.SendMessage(context.Background(), testUser, 1, domain.SendMessageInput{
		Content:     "plain",
		ContentHTML: "<b>rich</b>",
	})
	require.NoError(t, err)
	assert.Empty(t, omnidesk.sent.Content)
	assert.Equal(t, "<b>rich</b>", omnidesk.sent.ContentHTML)
	assert.Nil(t, omnidesk.sent.UserID)
}

func TestSendMessageIgnoresResolveFailure(t *testing.T) {
	omnidesk := &mockOmnidesk{userID: 77, userKnown: true, resolveErr: errUpstream}
	uc := NewCaseUsecase(omnidesk, nil)

	_, err := uc.SendMessage(context.Background(), testUser, 1, domain.SendMessageInput{Content: "hi"})
	require.NoError(t, err)
	assert.True(t, omnidesk.sendCalled)
	assert.Nil(t, omnidesk.sent.UserID)
}

func TestSendMessageRequiresContent(t *testing.T) {
	omnidesk := &mockOmnidesk{}
	uc := NewCaseUsecase(omnidesk, nil)

	_, err := uc.SendMessage(context.Background(), testUser, 1, domain.SendMessageInput{})
	var verr *domain.ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.False(t, omnidesk.sendCalled)
}
