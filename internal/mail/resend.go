package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultResendURL is the Resend API base URL.
const DefaultResendURL = "https://api.resend.com"

// Resend sends email through the Resend HTTP API.
type Resend struct {
	APIKey  string
	BaseURL string // defaults to DefaultResendURL
	Client  *http.Client
}

// NewResend creates a Resend provider with a 10 second request timeout.
func NewResend(apiKey string) *Resend {
	return &Resend{
		APIKey:  apiKey,
		BaseURL: DefaultResendURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Resend) Name() string { return "resend" }

type resendTag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type resendRequest struct {
	From    string      `json:"from"`
	To      []string    `json:"to"`
	Subject string      `json:"subject"`
	HTML    string      `json:"html,omitempty"`
	Text    string      `json:"text,omitempty"`
	ReplyTo string      `json:"reply_to,omitempty"`
	Tags    []resendTag `json:"tags,omitempty"`
}

// Send posts msg to /emails. The idempotency key is forwarded in the
// Idempotency-Key header so Resend drops duplicates of a re-sent row.
func (r *Resend) Send(ctx context.Context, msg Message) (Receipt, error) {
	if err := checkMessage(r.Name(), msg); err != nil {
		return Receipt{}, err
	}

	payload := resendRequest{
		From:    msg.From.String(),
		To:      []string{msg.To.Email},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
		ReplyTo: msg.ReplyTo,
	}
	if msg.Category != "" {
		payload.Tags = []resendTag{{Name: "category", Value: msg.Category}}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Receipt{}, &SendError{Provider: r.Name(), Message: "encode request", Err: err, Permanent: true}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL(r.BaseURL, DefaultResendURL)+"/emails", bytes.NewReader(body))
	if err != nil {
		return Receipt{}, &SendError{Provider: r.Name(), Message: "build request", Err: err, Permanent: true}
	}
	req.Header.Set("Authorization", "Bearer "+r.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if msg.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", msg.IdempotencyKey)
	}

	respBody, status, err := do(httpClient(r.Client), req)
	if err != nil {
		return Receipt{}, transportError(r.Name(), err)
	}
	if status < 200 || status > 299 {
		return Receipt{}, statusError(r.Name(), status, gjson.GetBytes(respBody, "message").String())
	}

	id := gjson.GetBytes(respBody, "id").String()
	if id == "" {
		return Receipt{}, &SendError{Provider: r.Name(), StatusCode: status, Message: "response has no id"}
	}
	return Receipt{Provider: r.Name(), MessageID: id}, nil
}

// do executes req and reads at most 1 MiB of the response body.
func do(client *http.Client, req *http.Request) ([]byte, int, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return data, resp.StatusCode, nil
}

func httpClient(c *http.Client) *http.Client {
	if c == nil {
		return http.DefaultClient
	}
	return c
}

func baseURL(configured, fallback string) string {
	if configured == "" {
		return fallback
	}
	return strings.TrimRight(configured, "/")
}

func checkMessage(provider string, msg Message) error {
	switch {
	case msg.To.Email == "":
		return &SendError{Provider: provider, Message: "missing recipient", Permanent: true}
	case msg.From.Email == "":
		return &SendError{Provider: provider, Message: "missing sender", Permanent: true}
	case msg.Subject == "":
		return &SendError{Provider: provider, Message: "missing subject", Permanent: true}
	}
	return nil
}
