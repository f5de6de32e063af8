package domain

import "fmt"

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
	StatusCompleted ReservationStatus = "completed"
)

// transitions lists the allowed moves out of each status.
var transitions = map[ReservationStatus][]ReservationStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
	StatusCancelled: nil,
	StatusCompleted: nil,
}

// Valid reports whether s is one of the four known statuses.
func (s ReservationStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further transition is possible from s.
func (s ReservationStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// ParseReservationStatus converts a string into a ReservationStatus.
func ParseReservationStatus(s string) (ReservationStatus, error) {
	st := ReservationStatus(s)
	if !st.Valid() {
		return "", &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", s)}
	}
	return st, nil
}

// CanTransition reports whether a reservation may move from -> to.
// A same-state move is allowed and treated as a no-op by callers.
func CanTransition(from, to ReservationStatus) bool {
	if from == to {
		return from.Valid()
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionError is returned when a status change is not allowed.
type TransitionError struct {
	ReservationID string
	From          ReservationStatus
	To            ReservationStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("reservation %s: cannot move from %s to %s", e.ReservationID, e.From, e.To)
}

// CheckTransition returns a *TransitionError when from -> to is not allowed.
func CheckTransition(reservationID string, from, to ReservationStatus) error {
	if !to.Valid() {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", to)}
	}
	if !CanTransition(from, to) {
		return &TransitionError{ReservationID: reservationID, From: from, To: to}
	}
	return nil
}

// EmailKind identifies which notification a scheduled email carries.
type EmailKind string

const (
	EmailReservationReceived  EmailKind = "reservation_received"
	EmailReservationConfirmed EmailKind = "reservation_confirmed"
	EmailReservationCancelled EmailKind = "reservation_cancelled"
	EmailReservationReminder  EmailKind = "reservation_reminder"
	EmailReviewRequest        EmailKind = "review_request"
	EmailOwnerNewReservation  EmailKind = "owner_new_reservation"
	EmailOwnerCancellation    EmailKind = "owner_cancellation"
)

// EmailKinds lists every kind in a stable order.
var EmailKinds = []EmailKind{
	EmailReservationReceived,
	EmailReservationConfirmed,
	EmailReservationCancelled,
	EmailReservationReminder,
	EmailReviewRequest,
	EmailOwnerNewReservation,
	EmailOwnerCancellation,
}

// Deferred reports whether the kind is a timer-driven email (reminder or
// review) rather than an immediate reaction to a transition. Deferred
// emails are dropped when their reservation is cancelled.
func (k EmailKind) Deferred() bool {
	return k == EmailReservationReminder || k == EmailReviewRequest
}

// ToOwner reports whether the email is addressed to the restaurant.
func (k EmailKind) ToOwner() bool {
	return k == EmailOwnerNewReservation || k == EmailOwnerCancellation
}

// Valid reports whether k is a known kind.
func (k EmailKind) Valid() bool {
	for _, known := range EmailKinds {
		if k == known {
			return true
		}
	}
	return false
}

// EmailStatus is the delivery state of a scheduled email row.
type EmailStatus string

const (
	EmailPending   EmailStatus = "pending"
	EmailSent      EmailStatus = "sent"
	EmailFailed    EmailStatus = "failed"
	EmailCancelled EmailStatus = "cancelled"
)

// Valid reports whether s is a known email status.
func (s EmailStatus) Valid() bool {
	switch s {
	case EmailPending, EmailSent, EmailFailed, EmailCancelled:
		return true
	}
	return false
}

// Terminal reports whether the row will never be dispatched again.
func (s EmailStatus) Terminal() bool {
	return s == EmailSent || s == EmailFailed || s == EmailCancelled
}
