package notify

import (
	"time"

	"github.com/DamianAcri/menulink-sub001/internal/domain"
)

// MinReminderNotice is the shortest lead time for which a late reminder is
// still sent. When the configured reminder time has already passed but the
// reservation starts more than MinReminderNotice from now, the reminder
// goes out immediately; closer than that, no reminder is planned.
const MinReminderNotice = 2 * time.Hour

// Event is a reservation lifecycle event.
type Event struct {
	From domain.ReservationStatus // empty for creation
	To   domain.ReservationStatus
}

// Created is the event for a newly inserted reservation with the given
// initial status.
func Created(status domain.ReservationStatus) Event {
	return Event{To: status}
}

// IsCreation reports whether the event is a reservation being created.
func (e Event) IsCreation() bool {
	return e.From == ""
}

// Email is one planned notification.
type Email struct {
	Kind         domain.EmailKind
	Recipient    string
	ScheduledFor time.Time
}

// Immediate reports whether the email is due at or before now.
func (e Email) Immediate(now time.Time) bool {
	return !e.ScheduledFor.After(now)
}

// Plan is the set of email side effects of one event.
type Plan struct {
	Schedule    []Email
	CancelKinds []domain.EmailKind
	CancelAll   bool
}

// Empty reports whether the plan has no effect.
func (p Plan) Empty() bool {
	return len(p.Schedule) == 0 && len(p.CancelKinds) == 0 && !p.CancelAll
}

// Target carries the data Plan needs about the restaurant.
type Target struct {
	OwnerEmail string
	Settings   domain.Settings
}

// PlanFor returns the email plan for ev applied to r at now. r describes
// the reservation (its Status is ignored; ev is authoritative).
func PlanFor(ev Event, r domain.Reservation, t Target, now time.Time) Plan {
	now = now.UTC()
	var p Plan

	guest := func(kind domain.EmailKind, at time.Time) {
		p.Schedule = append(p.Schedule, Email{Kind: kind, Recipient: r.CustomerEmail, ScheduledFor: at})
	}
	owner := func(kind domain.EmailKind) {
		if t.Settings.NotifyOwner && t.OwnerEmail != "" {
			p.Schedule = append(p.Schedule, Email{Kind: kind, Recipient: t.OwnerEmail, ScheduledFor: now})
		}
	}
	reminder := func() {
		if at, ok := ReminderTime(r.StartsAt, t.Settings, now); ok {
			guest(domain.EmailReservationReminder, at)
		}
	}

	switch {
	case ev.IsCreation() && ev.To == domain.StatusPending:
		guest(domain.EmailReservationReceived, now)
		owner(domain.EmailOwnerNewReservation)

	case ev.IsCreation() && ev.To == domain.StatusConfirmed:
		guest(domain.EmailReservationConfirmed, now)
		owner(domain.EmailOwnerNewReservation)
		reminder()

	case ev.From == ev.To:
		// no-op transition

	case ev.To == domain.StatusConfirmed:
		guest(domain.EmailReservationConfirmed, now)
		reminder()

	case ev.To == domain.StatusCancelled:
		p.CancelAll = true
		guest(domain.EmailReservationCancelled, now)
		owner(domain.EmailOwnerCancellation)

	case ev.To == domain.StatusCompleted:
		p.CancelKinds = []domain.EmailKind{domain.EmailReservationReminder}
		if at, ok := ReviewTime(r, t.Settings, now); ok {
			guest(domain.EmailReviewRequest, at)
		}
	}

	return p
}

// ReminderTime computes when the reminder for a reservation starting at
// startsAt should fire. ok is false when reminders are disabled or the
// reservation is too close to warrant one.
func ReminderTime(startsAt time.Time, s domain.Settings, now time.Time) (at time.Time, ok bool) {
	if !s.RemindersEnabled {
		return time.Time{}, false
	}
	startsAt = startsAt.UTC()
	at = startsAt.Add(-s.ReminderLead())
	if at.After(now) {
		return at, true
	}
	if startsAt.Sub(now) > MinReminderNotice {
		return now, true
	}
	return time.Time{}, false
}

// ReviewTime computes when the review request fires for a completed
// reservation: review_delay after the later of now and the reservation's
// end. ok is false when reviews are disabled or no review URL is set.
func ReviewTime(r domain.Reservation, s domain.Settings, now time.Time) (at time.Time, ok bool) {
	if !s.ReviewsEnabled || s.ReviewURL == "" {
		return time.Time{}, false
	}
	base := r.EndsAt().UTC()
	if now.After(base) {
		base = now
	}
	return base.Add(s.ReviewDelay()), true
}
