package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultBrevoURL is the Brevo API base URL.
const DefaultBrevoURL = "https://api.brevo.com"

// Brevo sends email through the Brevo transactional email API.
type Brevo struct {
	APIKey  string
	BaseURL string // defaults to DefaultBrevoURL
	Client  *http.Client
}

// NewBrevo creates a Brevo provider with a 10 second request timeout.
func NewBrevo(apiKey string) *Brevo {
	return &Brevo{
		APIKey:  apiKey,
		BaseURL: DefaultBrevoURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (b *Brevo) Name() string { return "brevo" }

type brevoContact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type brevoRequest struct {
	Sender      brevoContact      `json:"sender"`
	To          []brevoContact    `json:"to"`
	ReplyTo     *brevoContact     `json:"replyTo,omitempty"`
	Subject     string            `json:"subject"`
	HTMLContent string            `json:"htmlContent,omitempty"`
	TextContent string            `json:"textContent,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
}

// Send posts msg to /v3/smtp/email. Brevo has no idempotency header of its
// own; the key travels as a custom X-Idempotency-Key message header.
func (b *Brevo) Send(ctx context.Context, msg Message) (Receipt, error) {
	if err := checkMessage(b.Name(), msg); err != nil {
		return Receipt{}, err
	}

	payload := brevoRequest{
		Sender:      brevoContact{Name: msg.From.Name, Email: msg.From.Email},
		To:          []brevoContact{{Name: msg.To.Name, Email: msg.To.Email}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTML,
		TextContent: msg.Text,
	}
	if msg.ReplyTo != "" {
		payload.ReplyTo = &brevoContact{Email: msg.ReplyTo}
	}
	if msg.Category != "" {
		payload.Tags = []string{msg.Category}
	}
	if msg.IdempotencyKey != "" {
		payload.Headers = map[string]string{"X-Idempotency-Key": msg.IdempotencyKey}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Receipt{}, &SendError{Provider: b.Name(), Message: "encode request", Err: err, Permanent: true}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL(b.BaseURL, DefaultBrevoURL)+"/v3/smtp/email", bytes.NewReader(body))
	if err != nil {
		return Receipt{}, &SendError{Provider: b.Name(), Message: "build request", Err: err, Permanent: true}
	}
	req.Header.Set("api-key", b.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	respBody, status, err := do(httpClient(b.Client), req)
	if err != nil {
		return Receipt{}, transportError(b.Name(), err)
	}
	if status < 200 || status > 299 {
		return Receipt{}, statusError(b.Name(), status, gjson.GetBytes(respBody, "message").String())
	}

	id := gjson.GetBytes(respBody, "messageId").String()
	if id == "" {
		return Receipt{}, &SendError{Provider: b.Name(), StatusCode: status, Message: "response has no messageId"}
	}
	return Receipt{Provider: b.Name(), MessageID: id}, nil
}
