package domain

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type Attachment struct {
	FileID   int64  `json:"file_id"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type"`
	URL      string `json:"url"`
}

// CaseSummary is the portal view of an Omnidesk case.
type CaseSummary struct {
	CaseID     int64  `json:"case_id"`
	CaseNumber string `json:"case_number"`
	Subject    string `json:"subject"`
	Status     string `json:"status"`
	Priority   string `json:"priority"`
	Channel    string `json:"channel"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
	UserID     int64  `json:"user_id"`
}

type Message struct {
	MessageID   int64        `json:"message_id"`
	UserID      int64        `json:"user_id"`
	StaffID     int64        `json:"staff_id"`
	Content     string       `json:"content"`
	ContentHTML string       `json:"content_html"`
	Attachments []Attachment `json:"attachments"`
	Note        bool         `json:"note"`
	CreatedAt   string       `json:"created_at"`
	FullName    *string      `json:"full_name"`
}

type CaseList struct {
	Cases      []CaseSummary `json:"cases"`
	TotalCount int64         `json:"total_count"`
}

type MessageList struct {
	Messages   []Message `json:"messages"`
	TotalCount int64     `json:"total_count"`
}

// CaseDraft is the body of an Omnidesk case creation request.
type CaseDraft struct {
	UserEmail    string `json:"user_email"`
	Subject      string `json:"subject"`
	Content      string `json:"content,omitempty"`
	ContentHTML  string `json:"content_html,omitempty"`
	UserFullName string `json:"user_full_name,omitempty"`
}

// Upload is a file received from the portal and relayed as an attachment.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// OutgoingMessage is a message relayed to an Omnidesk case. It is sent as
// multipart form data when it carries attachments and as JSON otherwise.
type OutgoingMessage struct {
	UserID      *int64   `json:"user_id,omitempty"`
	Content     string   `json:"content,omitempty"`
	ContentHTML string   `json:"content_html,omitempty"`
	Attachments []Upload `json:"-"`
}

type CreateCaseInput struct {
	Subject      string `json:"subject"`
	Content      string `json:"content"`
	ContentHTML  string `json:"content_html"`
	UserFullName string `json:"user_full_name"`
}

func (in CreateCaseInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Subject, validation.Required),
		validation.Field(&in.Content, validation.When(in.ContentHTML == "", validation.Required)),
	)
}

type SendMessageInput struct {
	Content     string   `json:"content"`
	ContentHTML string   `json:"content_html"`
	Attachments []Upload `json:"-"`
}

func (in SendMessageInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Content, validation.When(in.ContentHTML == "", validation.Required)),
	)
}

type ListCasesQuery struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Status string `json:"status"`
	Sort   string `json:"sort"`
}

func DefaultListCasesQuery() ListCasesQuery {
	return ListCasesQuery{
		Page:  DefaultCasesPage,
		Limit: DefaultCasesLimit,
		Sort:  DefaultCasesSort,
	}
}

func (q ListCasesQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Page, validation.Required, validation.Min(1), validation.Max(MaxCasesPage)),
		validation.Field(&q.Limit, validation.Required, validation.Min(1), validation.Max(MaxPageLimit)),
		validation.Field(&q.Sort, validation.Required),
	)
}

type ListMessagesQuery struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"`
}

func DefaultListMessagesQuery() ListMessagesQuery {
	return ListMessagesQuery{
		Page:  DefaultMessagesPage,
		Limit: DefaultMessagesLimit,
		Order: DefaultMessagesOrder,
	}
}

func (q ListMessagesQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Page, validation.Required, validation.Min(1)),
		validation.Field(&q.Limit, validation.Required, validation.Min(1), validation.Max(MaxPageLimit)),
		validation.Field(&q.Order, validation.Required, validation.In("asc", "desc")),
	)
}
