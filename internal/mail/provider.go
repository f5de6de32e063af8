package mail

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	netmail "net/mail"
)

// Address is a mailbox with an optional display name.
type Address struct {
	Name  string
	Email string
}

// String formats a as an RFC 5322 mailbox. Display names are quoted, and
// non-ASCII names are RFC 2047 encoded.
func (a Address) String() string {
	if a.Name == "" {
		return a.Email
	}
	return (&netmail.Address{Name: a.Name, Address: a.Email}).String()
}

// Message is one outbound email.
type Message struct {
	From    Address
	To      Address
	ReplyTo string
	Subject string
	Text    string
	HTML    string

	// Category labels the message at the provider (the email kind).
	Category string

	// IdempotencyKey is stable across re-sends of the same notification.
	IdempotencyKey string
}

// Receipt reports which provider accepted a message and its id there.
type Receipt struct {
	Provider  string
	MessageID string
}

// Provider delivers messages.
type Provider interface {
	Name() string
	Send(ctx context.Context, msg Message) (Receipt, error)
}

// SendError is returned by every provider on failure.
type SendError struct {
	Provider   string
	StatusCode int // 0 for transport errors
	Message    string
	Permanent  bool
	Err        error
}

func (e *SendError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// IsPermanent reports whether err is a *SendError that must not be retried.
func IsPermanent(err error) bool {
	var se *SendError
	if errors.As(err, &se) {
		return se.Permanent
	}
	return false
}

// permanentStatus classifies an HTTP status: 4xx is permanent except
// 408 (timeout) and 429 (rate limited); 5xx is transient.
func permanentStatus(code int) bool {
	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
		return false
	}
	return code >= 400 && code < 500
}

func transportError(provider string, err error) *SendError {
	return &SendError{Provider: provider, Message: "request failed", Err: err}
}

func statusError(provider string, code int, message string) *SendError {
	if message == "" {
		message = http.StatusText(code)
	}
	return &SendError{
		Provider:   provider,
		StatusCode: code,
		Message:    message,
		Permanent:  permanentStatus(code),
	}
}
