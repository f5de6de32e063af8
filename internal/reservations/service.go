// Package reservations applies reservation lifecycle changes: it writes the
// reservation, keeps the CRM record in step, and schedules the
// notification emails that go with each change.
package reservations

import (
	"context"
	"log/slog"
	"time"

	"github.com/DamianAcri/menulink-sub001/internal/dispatch"
	"github.com/DamianAcri/menulink-sub001/internal/domain"
	"github.com/DamianAcri/menulink-sub001/internal/notify"
	"github.com/DamianAcri/menulink-sub001/internal/store"
)

// Sender delivers one scheduled email right away. *dispatch.Dispatcher
// implements it.
type Sender interface {
	SendNow(ctx context.Context, emailID string) (dispatch.Outcome, error)
}

// Service creates reservations and moves them through their lifecycle.
type Service struct {
	store  *store.Store
	sender Sender
	clock  domain.Clock
	ids    domain.IDGenerator
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock. Defaults to domain.SystemClock.
func WithClock(c domain.Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// WithIDs sets the id generator. Defaults to UUIDv7.
func WithIDs(g domain.IDGenerator) Option {
	return func(s *Service) {
		s.ids = g
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// New creates a Service. sender may be nil, in which case immediate emails
// wait for the next sweep.
func New(st *store.Store, sender Sender, opts ...Option) *Service {
	s := &Service{
		store:  st,
		sender: sender,
		clock:  domain.SystemClock{},
		ids:    domain.UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create books a reservation for restaurantID.
//
// The guest is upserted into the CRM by normalised email. The reservation
// starts pending, or confirmed when the restaurant auto-confirms. The
// reservation and its planned emails are written in one transaction, then
// the emails due now are sent. Email failures never fail the booking.
func (s *Service) Create(ctx context.Context, restaurantID string, in domain.ReservationInput) (domain.Reservation, error) {
	restaurant, err := s.store.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return domain.Reservation{}, err
	}
	settings, err := s.store.GetSettings(ctx, restaurantID)
	if err != nil {
		return domain.Reservation{}, err
	}

	in.Normalize()
	if err := in.Validate(); err != nil {
		return domain.Reservation{}, err
	}
	now := s.clock.Now()
	if !in.StartsAt.After(now) {
		return domain.Reservation{}, &domain.ValidationError{Field: "starts_at", Message: "must be in the future"}
	}
	if in.DurationMinutes == 0 {
		in.DurationMinutes = settings.DefaultDurationMinutes
	}

	customer, err := s.store.UpsertCustomer(ctx, domain.Customer{
		ID:           s.ids.NewID(),
		RestaurantID: restaurantID,
		Email:        in.CustomerEmail,
		Name:         in.CustomerName,
		Phone:        in.CustomerPhone,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return domain.Reservation{}, err
	}

	status := domain.StatusPending
	if settings.AutoConfirm {
		status = domain.StatusConfirmed
	}
	r := domain.Reservation{
		ID:              s.ids.NewID(),
		RestaurantID:    restaurantID,
		CustomerID:      customer.ID,
		CustomerName:    in.CustomerName,
		CustomerEmail:   in.CustomerEmail,
		CustomerPhone:   in.CustomerPhone,
		PartySize:       in.PartySize,
		StartsAt:        in.StartsAt,
		DurationMinutes: in.DurationMinutes,
		Status:          status,
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	plan := notify.PlanFor(notify.Created(status), r, target(restaurant, settings), now)
	inserted, err := s.store.CreateReservation(ctx, r, plan.Rows(r, s.ids, now))
	if err != nil {
		return domain.Reservation{}, err
	}

	s.logger.Info("reservation created",
		"reservation_id", r.ID,
		"restaurant_id", restaurantID,
		"status", r.Status,
		"emails", len(inserted),
	)
	s.sendDue(ctx, inserted, now)
	return r, nil
}

// Transition moves reservation id of restaurantID to status to.
//
// A same-state move returns the reservation unchanged and sends nothing.
// Disallowed moves return a *domain.TransitionError. The status change,
// CRM counters and email changes are applied atomically; if the status
// changed concurrently, store.ErrConflict is returned.
func (s *Service) Transition(ctx context.Context, restaurantID, id string, to domain.ReservationStatus) (domain.Reservation, error) {
	r, err := s.store.GetReservation(ctx, restaurantID, id)
	if err != nil {
		return domain.Reservation{}, err
	}
	if err := domain.CheckTransition(id, r.Status, to); err != nil {
		return domain.Reservation{}, err
	}
	if r.Status == to {
		return r, nil
	}

	restaurant, err := s.store.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return domain.Reservation{}, err
	}
	settings, err := s.store.GetSettings(ctx, restaurantID)
	if err != nil {
		return domain.Reservation{}, err
	}

	now := s.clock.Now()
	plan := notify.PlanFor(notify.Event{From: r.Status, To: to}, r, target(restaurant, settings), now)
	res, err := s.store.ApplyTransition(ctx, store.Transition{
		Reservation: r,
		To:          to,
		At:          now,
		Schedule:    plan.Rows(r, s.ids, now),
		CancelKinds: plan.CancelKinds,
		CancelAll:   plan.CancelAll,
	})
	if err != nil {
		return domain.Reservation{}, err
	}

	s.logger.Info("reservation status changed",
		"reservation_id", r.ID,
		"from", r.Status,
		"to", to,
		"emails_scheduled", len(res.Scheduled),
		"emails_cancelled", res.Cancelled,
	)

	r.Status = to
	r.UpdatedAt = now
	s.sendDue(ctx, res.Scheduled, now)
	return r, nil
}

// sendDue hands the rows due at now to the sender. Failures are logged;
// the rows stay pending for the sweep.
func (s *Service) sendDue(ctx context.Context, emails []domain.ScheduledEmail, now time.Time) {
	if s.sender == nil {
		return
	}
	for _, e := range emails {
		if e.ScheduledFor.After(now) {
			continue
		}
		outcome, err := s.sender.SendNow(ctx, e.ID)
		if err != nil {
			s.logger.Warn("immediate email send failed, leaving for sweep",
				"email_id", e.ID,
				"kind", e.Kind,
				"error", err,
			)
			continue
		}
		s.logger.Debug("immediate email", "email_id", e.ID, "kind", e.Kind, "outcome", outcome)
	}
}

func target(r domain.Restaurant, settings domain.Settings) notify.Target {
	return notify.Target{OwnerEmail: r.Email, Settings: settings}
}

