package domain

import "time"

type ActivityKind string

const (
	ActivityCaseCreated   ActivityKind = "case_created"
	ActivityMessageSent   ActivityKind = "message_sent"
	ActivitySSOLinkIssued ActivityKind = "sso_link_issued"
)

// Activity is one portal action performed by a user.
type Activity struct {
	ID        int64        `json:"id"`
	UserID    string       `json:"innohassle_id"`
	Email     string       `json:"email"`
	Kind      ActivityKind `json:"kind"`
	CaseID    *int64       `json:"case_id,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// Event is pushed to the realtime sessions of the user who caused it.
type Event struct {
	Type      ActivityKind `json:"type"`
	CaseID    *int64       `json:"case_id,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

func (a Activity) Event() Event {
	return Event{
		Type:      a.Kind,
		CaseID:    a.CaseID,
		Timestamp: a.CreatedAt,
	}
}
