package omnidesk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/one-zero-eight/omnidesk-portal/internal/domain"
	"github.com/one-zero-eight/omnidesk-portal/internal/utils"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultUploadTimeout = 60 * time.Second
	maxErrorBody         = 2048
	serviceName          = "omnidesk"
	totalCountKey        = "total_count"
)

type Options struct {
	BaseURL       string
	StaffEmail    string
	APIKey        string
	Timeout       time.Duration
	UploadTimeout time.Duration
	Transport     http.RoundTripper
}

// Client talks to the Omnidesk REST API on behalf of the staff account.
type Client struct {
	client       *http.Client
	uploadClient *http.Client
	transport    http.RoundTripper
	baseURL      string
	staffEmail   string
	apiKey       string
	userAgent    string
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	uploadTimeout := opts.UploadTimeout
	if uploadTimeout <= 0 {
		uploadTimeout = defaultUploadTimeout
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	c := &Client{
		transport:  otelhttp.NewTransport(transport),
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		staffEmail: opts.StaffEmail,
		apiKey:     opts.APIKey,
		userAgent:  "omnidesk-portal",
	}
	c.client = &http.Client{Timeout: timeout, Transport: c}
	c.uploadClient = &http.Client{Timeout: uploadTimeout, Transport: c}
	return c
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	req.SetBasicAuth(c.staffEmail, c.apiKey)
	return c.transport.RoundTrip(req)
}

func (c *Client) do(ctx context.Context, httpClient *http.Client, method, path string, query url.Values, contentType string, body io.Reader) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	slog.DebugContext(
		ctx, "omnidesk request",
		slog.String("method", method),
		slog.String("path", path),
		slog.String("module", "omnidesk"),
	)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{Service: serviceName, Body: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.UpstreamError{Service: serviceName, Body: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text := string(respBody)
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		return nil, &domain.UpstreamError{Service: serviceName, Status: resp.StatusCode, Body: text}
	}

	return respBody, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode payload")
	}
	respBody, err := c.do(ctx, c.client, http.MethodPost, path, nil, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(respBody), nil
}

// ListCases returns the cases opened by email.
func (c *Client) ListCases(ctx context.Context, email string, query domain.ListCasesQuery) (domain.CaseList, error) {
	params := url.Values{}
	params.Set("user_email", email)
	params.Set("page", strconv.Itoa(query.Page))
	params.Set("limit", strconv.Itoa(query.Limit))
	params.Set("sort", query.Sort)
	if query.Status != "" {
		params.Set("status", query.Status)
	}

	body, err := c.do(ctx, c.client, http.MethodGet, "/cases.json", params, "", nil)
	if err != nil {
		return domain.CaseList{}, err
	}
	return parseCases(body)
}

func (c *Client) CreateCase(ctx context.Context, draft domain.CaseDraft) (json.RawMessage, error) {
	return c.postJSON(ctx, "/cases.json", map[string]any{"case": draft})
}

func (c *Client) ListMessages(ctx context.Context, caseID int64, query domain.ListMessagesQuery) (domain.MessageList, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(query.Page))
	params.Set("limit", strconv.Itoa(query.Limit))
	params.Set("order", query.Order)

	body, err := c.do(ctx, c.client, http.MethodGet, messagesPath(caseID), params, "", nil)
	if err != nil {
		return domain.MessageList{}, err
	}
	return parseMessages(body)
}

// SendMessage posts a message to a case. Messages with attachments go out
// as multipart form data using Omnidesk's message[...] field names.
func (c *Client) SendMessage(ctx context.Context, caseID int64, message domain.OutgoingMessage) (json.RawMessage, error) {
	if len(message.Attachments) == 0 {
		return c.postJSON(ctx, messagesPath(caseID), map[string]any{"message": message})
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fields := [][2]string{}
	if message.UserID != nil {
		fields = append(fields, [2]string{"message[user_id]", strconv.FormatInt(*message.UserID, 10)})
	}
	if message.ContentHTML != "" {
		fields = append(fields, [2]string{"message[content_html]", message.ContentHTML})
	} else {
		fields = append(fields, [2]string{"message[content]", message.Content})
	}
	for _, field := range fields {
		err := writer.WriteField(field[0], field[1])
		if err != nil {
			return nil, errors.Wrap(err, "failed to write form field")
		}
	}

	for i, upload := range message.Attachments {
		contentType := upload.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(
			`form-data; name="%s"; filename="%s"`,
			fmt.Sprintf("message[attachments][%d]", i),
			escapeQuotes(upload.FileName),
		))
		header.Set("Content-Type", contentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create attachment part")
		}
		_, err = part.Write(upload.Data)
		if err != nil {
			return nil, errors.Wrap(err, "failed to write attachment")
		}
	}

	err := writer.Close()
	if err != nil {
		return nil, errors.Wrap(err, "failed to finish multipart body")
	}

	body, err := c.do(ctx, c.uploadClient, http.MethodPost, messagesPath(caseID), nil, writer.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// ResolveUserID finds the Omnidesk user id behind email through the user's
// most recent case. ok is false when the user has never opened a case.
func (c *Client) ResolveUserID(ctx context.Context, email string) (int64, bool, error) {
	list, err := c.ListCases(ctx, email, domain.ListCasesQuery{Page: 1, Limit: 1, Sort: domain.DefaultCasesSort})
	if err != nil {
		return 0, false, err
	}
	if len(list.Cases) == 0 {
		return 0, false, nil
	}
	return list.Cases[0].UserID, true, nil
}

func messagesPath(caseID int64) string {
	return "/cases/" + strconv.FormatInt(caseID, 10) + "/messages.json"
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func parseCount(raw json.RawMessage) (int64, error) {
	var number json.Number
	err := json.Unmarshal(raw, &number)
	if err != nil {
		return 0, errors.Wrap(err, "invalid total_count")
	}
	count, err := number.Int64()
	if err != nil {
		return 0, errors.Wrap(err, "invalid total_count")
	}
	return count, nil
}

func parseCases(body []byte) (domain.CaseList, error) {
	pairs, err := utils.DecodeOrdered(body)
	if err != nil {
		return domain.CaseList{}, errors.Wrap(err, "failed to decode cases")
	}

	list := domain.CaseList{Cases: []domain.CaseSummary{}}
	for _, pair := range pairs {
		if pair.Key == totalCountKey {
			list.TotalCount, err = parseCount(pair.Value)
			if err != nil {
				return domain.CaseList{}, err
			}
			continue
		}

		var entry struct {
			Case *domain.CaseSummary `json:"case"`
		}
		err := json.Unmarshal(pair.Value, &entry)
		if err != nil {
			return domain.CaseList{}, errors.Wrapf(err, "failed to decode case %s", pair.Key)
		}
		if entry.Case == nil {
			continue
		}
		list.Cases = append(list.Cases, *entry.Case)
	}
	return list, nil
}

func parseMessages(body []byte) (domain.MessageList, error) {
	pairs, err := utils.DecodeOrdered(body)
	if err != nil {
		return domain.MessageList{}, errors.Wrap(err, "failed to decode messages")
	}

	list := domain.MessageList{Messages: []domain.Message{}}
	for _, pair := range pairs {
		if pair.Key == totalCountKey {
			list.TotalCount, err = parseCount(pair.Value)
			if err != nil {
				return domain.MessageList{}, err
			}
			continue
		}

		var entry struct {
			Message *domain.Message `json:"message"`
		}
		err := json.Unmarshal(pair.Value, &entry)
		if err != nil {
			return domain.MessageList{}, errors.Wrapf(err, "failed to decode message %s", pair.Key)
		}
		if entry.Message == nil {
			continue
		}
		message := *entry.Message
		if message.Attachments == nil {
			message.Attachments = []domain.Attachment{}
		}
		// portal responses never carry full_name
		message.FullName = nil
		list.Messages = append(list.Messages, message)
	}
	return list, nil
}
