package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DamianAcri/menulink-sub001/internal/domain"
	"github.com/DamianAcri/menulink-sub001/internal/mail"
	"github.com/DamianAcri/menulink-sub001/internal/store"
)

// Defaults applied by New.
const (
	DefaultBatchSize   = 50
	DefaultMaxAttempts = 5
)

// Dispatcher sends due scheduled emails through a mail.Provider.
//
// Thread-safety: Sweep and SendNow may be called concurrently. Two
// overlapping calls can both send the same row; the loser's status update
// fails with store.ErrConflict and is counted as skipped.
type Dispatcher struct {
	store       *store.Store
	provider    mail.Provider
	renderer    *mail.Renderer
	clock       domain.Clock
	logger      *slog.Logger
	sender      mail.Address
	batchSize   int
	maxAttempts int
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock sets the clock used for due checks and timestamps.
func WithClock(c domain.Clock) Option {
	return func(d *Dispatcher) {
		d.clock = c
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// WithSender sets the From address. Customer emails are sent with the
// restaurant's name as display name and this address; owner emails use it
// unchanged.
func WithSender(a mail.Address) Option {
	return func(d *Dispatcher) {
		d.sender = a
	}
}

// WithBatchSize limits how many rows one Sweep reads.
func WithBatchSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.batchSize = n
		}
	}
}

// WithMaxAttempts sets after how many transient failures a row is failed.
func WithMaxAttempts(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxAttempts = n
		}
	}
}

// New creates a Dispatcher.
func New(st *store.Store, provider mail.Provider, renderer *mail.Renderer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:       st,
		provider:    provider,
		renderer:    renderer,
		clock:       domain.SystemClock{},
		logger:      slog.Default(),
		sender:      mail.Address{Name: "MenuLink", Email: "no-reply@menulink.app"},
		batchSize:   DefaultBatchSize,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Sweep delivers up to the batch size of due pending rows, oldest first.
//
// A store error on one row is logged and the sweep moves on; the first
// such error is returned alongside the partial result. Context
// cancellation stops the sweep between rows.
func (d *Dispatcher) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult

	due, err := d.store.DueEmails(ctx, d.clock.Now(), d.batchSize)
	if err != nil {
		return res, fmt.Errorf("sweep: %w", err)
	}
	res.Scanned = len(due)

	var firstErr error
	for _, e := range due {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		outcome, err := d.deliver(ctx, e)
		if err != nil {
			d.logger.Error("email delivery failed",
				"email_id", e.ID,
				"kind", e.Kind,
				"error", err,
			)
			if firstErr == nil {
				firstErr = err
			}
		}
		res.add(outcome)
	}

	if res.Scanned > 0 {
		d.logger.Info("email sweep finished",
			"scanned", res.Scanned,
			"sent", res.Sent,
			"retrying", res.Retrying,
			"failed", res.Failed,
			"cancelled", res.Cancelled,
		)
	}
	return res, firstErr
}

// SendNow delivers one row immediately if it is pending and due. Rows that
// are not are left alone (OutcomeSkipped). A delivery failure is recorded
// on the row exactly as Sweep would, so the next sweep retries it.
func (d *Dispatcher) SendNow(ctx context.Context, emailID string) (Outcome, error) {
	e, err := d.store.GetEmail(ctx, emailID)
	if err != nil {
		return OutcomeSkipped, &DeliveryError{EmailID: emailID, Stage: "load", Err: err}
	}
	if e.Status != domain.EmailPending || e.ScheduledFor.After(d.clock.Now()) {
		return OutcomeSkipped, nil
	}
	return d.deliver(ctx, e)
}

// deliver renders and sends one pending row and records the result.
func (d *Dispatcher) deliver(ctx context.Context, e domain.ScheduledEmail) (Outcome, error) {
	logger := d.logger.With("email_id", e.ID, "reservation_id", e.ReservationID, "kind", e.Kind)

	r, err := d.store.GetReservation(ctx, "", e.ReservationID)
	if errors.Is(err, store.ErrNotFound) {
		return d.fail(ctx, e, "reservation not found", true)
	}
	if err != nil {
		return OutcomeSkipped, &DeliveryError{EmailID: e.ID, Stage: "load reservation", Err: err}
	}

	if e.Kind.Deferred() && r.Status == domain.StatusCancelled {
		err := d.store.MarkEmailCancelled(ctx, e.ID, "reservation cancelled", d.clock.Now())
		if err != nil {
			return d.storeOutcome(e, "mark cancelled", err)
		}
		logger.Debug("email cancelled: reservation cancelled")
		return OutcomeCancelled, nil
	}

	restaurant, err := d.store.GetRestaurant(ctx, r.RestaurantID)
	if err != nil {
		return OutcomeSkipped, &DeliveryError{EmailID: e.ID, Stage: "load restaurant", Err: err}
	}
	settings, err := d.store.GetSettings(ctx, r.RestaurantID)
	if err != nil {
		return OutcomeSkipped, &DeliveryError{EmailID: e.ID, Stage: "load settings", Err: err}
	}

	rendered, err := d.renderer.Render(mail.RenderInput{
		Kind:        e.Kind,
		Restaurant:  restaurant,
		Reservation: r,
		Settings:    settings,
	})
	if err != nil {
		return d.fail(ctx, e, err.Error(), true)
	}

	msg := d.message(e, restaurant, r, settings, rendered)
	receipt, err := d.provider.Send(ctx, msg)
	if err != nil {
		if ctx.Err() != nil {
			// Shutting down: do not burn an attempt on our own cancellation.
			return OutcomeSkipped, ctx.Err()
		}
		logger.Warn("email send failed", "provider", d.provider.Name(), "error", err)
		return d.fail(ctx, e, err.Error(), mail.IsPermanent(err))
	}

	// The provider accepted the message; record it even if ctx was
	// cancelled meanwhile, or the next sweep sends it again.
	if err := d.store.MarkEmailSent(context.WithoutCancel(ctx), e.ID, receipt.Provider, receipt.MessageID, d.clock.Now()); err != nil {
		return d.storeOutcome(e, "mark sent", err)
	}
	logger.Info("email sent", "provider", receipt.Provider, "message_id", receipt.MessageID)
	return OutcomeSent, nil
}

// message builds the outbound message for row e.
func (d *Dispatcher) message(e domain.ScheduledEmail, restaurant domain.Restaurant, r domain.Reservation, settings domain.Settings, rendered mail.Rendered) mail.Message {
	msg := mail.Message{
		From:           d.sender,
		To:             mail.Address{Email: e.Recipient},
		Subject:        rendered.Subject,
		Text:           rendered.Text,
		HTML:           rendered.HTML,
		Category:       string(e.Kind),
		IdempotencyKey: domain.IdempotencyKey(e.ReservationID, e.Kind),
	}
	if e.Kind.ToOwner() {
		msg.To.Name = restaurant.Name
		msg.ReplyTo = r.CustomerEmail
		return msg
	}
	msg.From.Name = restaurant.Name
	msg.To.Name = r.CustomerName
	msg.ReplyTo = settings.ReplyTo
	if msg.ReplyTo == "" {
		msg.ReplyTo = restaurant.Email
	}
	return msg
}

// fail records a failed attempt and maps the resulting row status. The
// write is not cut short by ctx cancellation.
func (d *Dispatcher) fail(ctx context.Context, e domain.ScheduledEmail, reason string, permanent bool) (Outcome, error) {
	status, err := d.store.RecordEmailFailure(context.WithoutCancel(ctx), e.ID, reason, permanent, d.maxAttempts, d.clock.Now())
	if err != nil {
		return d.storeOutcome(e, "record failure", err)
	}
	if status == domain.EmailFailed {
		d.logger.Warn("email failed permanently",
			"email_id", e.ID,
			"kind", e.Kind,
			"attempts", e.Attempts+1,
			"error", reason,
		)
		return OutcomeFailed, nil
	}
	return OutcomeRetrying, nil
}

// storeOutcome handles a failed status update. ErrConflict means the row
// left pending underneath us (another sweep, or a cancellation) and is
// not an error.
func (d *Dispatcher) storeOutcome(e domain.ScheduledEmail, stage string, err error) (Outcome, error) {
	if errors.Is(err, store.ErrConflict) {
		d.logger.Debug("email no longer pending", "email_id", e.ID, "stage", stage)
		return OutcomeSkipped, nil
	}
	return OutcomeSkipped, &DeliveryError{EmailID: e.ID, Stage: stage, Err: err}
}
