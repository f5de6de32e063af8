// Package mail sends transactional email through interchangeable providers
// and renders the notification templates.
//
// Providers:
//   - Resend (https://resend.com), POST /emails with Bearer auth
//   - Brevo (https://brevo.com), POST /v3/smtp/email with an api-key header
//   - Log, which only logs the message (local development)
//
// Failover chains two providers: the secondary is tried only when the
// primary fails with a transient error.
//
// Every provider error is a *SendError. Permanent errors (bad request,
// rejected recipient, auth failure) must not be retried; transient errors
// (timeouts, 429, 5xx, network) may be.
package mail
