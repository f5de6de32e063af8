package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/DamianAcri/menulink-sub001/internal/domain"
)

const reservationColumns = `id, restaurant_id, customer_id, customer_name, customer_email, customer_phone, party_size, starts_at, duration_minutes, status, notes, created_at, updated_at`

// CreateReservation inserts a reservation and its initial scheduled emails
// in one transaction. Returns the email rows actually inserted.
func (s *Store) CreateReservation(ctx context.Context, r domain.Reservation, emails []domain.ScheduledEmail) ([]domain.ScheduledEmail, error) {
	var inserted []domain.ScheduledEmail
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO reservations (`+reservationColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			r.ID, r.RestaurantID, r.CustomerID, r.CustomerName, r.CustomerEmail, r.CustomerPhone,
			r.PartySize, toUnix(r.StartsAt), r.DurationMinutes, string(r.Status), r.Notes,
			toUnix(r.CreatedAt), toUnix(r.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}
		inserted, err = scheduleEmails(ctx, tx, emails)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create reservation: %w", err)
	}
	return inserted, nil
}

// GetReservation returns a reservation by id. An empty restaurantID skips
// the tenant scope (used by the dispatcher).
func (s *Store) GetReservation(ctx context.Context, restaurantID, id string) (domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	args := []any{id}
	if restaurantID != "" {
		query += ` AND restaurant_id = ?`
		args = append(args, restaurantID)
	}
	r, err := scanReservation(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("get reservation %s: %w", id, err)
	}
	return r, nil
}

// ReservationFilter narrows ListReservations. Zero fields are ignored.
type ReservationFilter struct {
	RestaurantID string
	CustomerID   string
	Status       domain.ReservationStatus
	From         time.Time // starts_at >= From
	To           time.Time // starts_at < To
	Limit        int
}

// ListReservations returns reservations ordered by start time.
func (s *Store) ListReservations(ctx context.Context, f ReservationFilter) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE restaurant_id = ?`
	args := []any{f.RestaurantID}
	if f.CustomerID != "" {
		query += ` AND customer_id = ?`
		args = append(args, f.CustomerID)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	if !f.From.IsZero() {
		query += ` AND starts_at >= ?`
		args = append(args, toUnix(f.From))
	}
	if !f.To.IsZero() {
		query += ` AND starts_at < ?`
		args = append(args, toUnix(f.To))
	}
	query += ` ORDER BY starts_at ASC, id ASC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()

	list := []domain.Reservation{}
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", err)
	}
	return list, nil
}

// Transition describes one reservation status change and its email side
// effects, applied atomically by ApplyTransition.
type Transition struct {
	Reservation domain.Reservation // state before the change
	To          domain.ReservationStatus
	At          time.Time

	// Schedule lists emails to insert (idempotent per reservation and kind).
	Schedule []domain.ScheduledEmail

	// CancelKinds lists kinds whose pending rows are cancelled. CancelAll
	// cancels every pending row of the reservation.
	CancelKinds []domain.EmailKind
	CancelAll   bool
}

// TransitionResult reports what ApplyTransition wrote.
type TransitionResult struct {
	Scheduled []domain.ScheduledEmail
	Cancelled int64
}

// ApplyTransition moves a reservation to t.To, updates the CRM counters of
// its customer, and applies the email side effects, all in one transaction.
//
// The status update is a compare-and-set against t.Reservation.Status:
// if the row changed underneath, ErrConflict is returned and nothing is
// written.
func (s *Store) ApplyTransition(ctx context.Context, t Transition) (TransitionResult, error) {
	var out TransitionResult
	r := t.Reservation
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE reservations SET status = ?, updated_at = ?
			WHERE id = ? AND status = ?
		`, string(t.To), toUnix(t.At), r.ID, string(r.Status))
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update status: rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("reservation %s no longer %s: %w", r.ID, r.Status, ErrConflict)
		}

		switch t.To {
		case domain.StatusCompleted:
			_, err = tx.ExecContext(ctx, `
				UPDATE customers
				SET visit_count = visit_count + 1,
				    last_visit_at = MAX(COALESCE(last_visit_at, 0), ?),
				    updated_at = ?
				WHERE id = ?
			`, toUnix(r.StartsAt), toUnix(t.At), r.CustomerID)
		case domain.StatusCancelled:
			_, err = tx.ExecContext(ctx, `
				UPDATE customers
				SET cancellation_count = cancellation_count + 1, updated_at = ?
				WHERE id = ?
			`, toUnix(t.At), r.CustomerID)
		}
		if err != nil {
			return fmt.Errorf("update customer counters: %w", err)
		}

		if t.CancelAll {
			out.Cancelled, err = cancelPendingEmails(ctx, tx, r.ID, t.At, nil)
		} else if len(t.CancelKinds) > 0 {
			out.Cancelled, err = cancelPendingEmails(ctx, tx, r.ID, t.At, t.CancelKinds)
		}
		if err != nil {
			return err
		}

		out.Scheduled, err = scheduleEmails(ctx, tx, t.Schedule)
		return err
	})
	if err != nil {
		return TransitionResult{}, fmt.Errorf("apply transition %s -> %s: %w", r.Status, t.To, err)
	}
	return out, nil
}

func scanReservation(row rowScanner) (domain.Reservation, error) {
	var r domain.Reservation
	var status string
	var starts, created, updated int64
	err := row.Scan(&r.ID, &r.RestaurantID, &r.CustomerID, &r.CustomerName, &r.CustomerEmail,
		&r.CustomerPhone, &r.PartySize, &starts, &r.DurationMinutes, &status, &r.Notes,
		&created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Reservation{}, ErrNotFound
	}
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("scan reservation: %w", err)
	}
	r.Status = domain.ReservationStatus(status)
	r.StartsAt = fromUnix(starts)
	r.CreatedAt = fromUnix(created)
	r.UpdatedAt = fromUnix(updated)
	return r, nil
}
