package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DamianAcri/menulink-sub001/internal/domain"
)

const emailColumns = `id, restaurant_id, reservation_id, kind, recipient, scheduled_for, status, attempts, last_error, provider, provider_message_id, sent_at, created_at, updated_at`

// ScheduleEmail inserts one scheduled email. Uses ON CONFLICT DO NOTHING
// on (reservation_id, kind): a duplicate is silently ignored and
// inserted=false is returned.
func (s *Store) ScheduleEmail(ctx context.Context, e domain.ScheduledEmail) (inserted bool, err error) {
	rows, err := scheduleEmails(ctx, s.db, []domain.ScheduledEmail{e})
	if err != nil {
		return false, err
	}
	return len(rows) == 1, nil
}

// scheduleEmails inserts rows and returns those that were new.
func scheduleEmails(ctx context.Context, q queryer, emails []domain.ScheduledEmail) ([]domain.ScheduledEmail, error) {
	inserted := make([]domain.ScheduledEmail, 0, len(emails))
	for _, e := range emails {
		if e.Status == "" {
			e.Status = domain.EmailPending
		}
		res, err := q.ExecContext(ctx, `
			INSERT INTO scheduled_emails
			(id, restaurant_id, reservation_id, kind, recipient, scheduled_for, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(reservation_id, kind) DO NOTHING
		`,
			e.ID, e.RestaurantID, e.ReservationID, string(e.Kind), e.Recipient,
			toUnix(e.ScheduledFor), string(e.Status), toUnix(e.CreatedAt), toUnix(e.UpdatedAt),
		)
		if err != nil {
			return nil, fmt.Errorf("schedule email %s/%s: %w", e.ReservationID, e.Kind, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("schedule email: rows affected: %w", err)
		}
		if n > 0 {
			inserted = append(inserted, e)
		}
	}
	return inserted, nil
}

// cancelPendingEmails cancels pending rows of a reservation. A nil kinds
// list cancels every kind.
func cancelPendingEmails(ctx context.Context, q queryer, reservationID string, at time.Time, kinds []domain.EmailKind) (int64, error) {
	query := `UPDATE scheduled_emails SET status = 'cancelled', updated_at = ?
		WHERE reservation_id = ? AND status = 'pending'`
	args := []any{toUnix(at), reservationID}
	if kinds != nil {
		placeholders := make([]string, len(kinds))
		for i, k := range kinds {
			placeholders[i] = "?"
			args = append(args, string(k))
		}
		query += ` AND kind IN (` + strings.Join(placeholders, ", ") + `)`
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("cancel pending emails: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cancel pending emails: rows affected: %w", err)
	}
	return n, nil
}

// DueEmails returns up to limit pending rows whose scheduled_for is at or
// before now, oldest first. Order: scheduled_for ASC, id ASC.
func (s *Store) DueEmails(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledEmail, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.queryEmails(ctx, `
		SELECT `+emailColumns+` FROM scheduled_emails
		WHERE status = 'pending' AND scheduled_for <= ?
		ORDER BY scheduled_for ASC, id ASC
		LIMIT ?
	`, toUnix(now), limit)
}

// GetEmail returns one scheduled email by id.
func (s *Store) GetEmail(ctx context.Context, id string) (domain.ScheduledEmail, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+emailColumns+` FROM scheduled_emails WHERE id = ?`, id)
	e, err := scanEmail(row)
	if err != nil {
		return domain.ScheduledEmail{}, fmt.Errorf("get email %s: %w", id, err)
	}
	return e, nil
}

// EmailFilter narrows ListEmails. Zero fields are ignored.
type EmailFilter struct {
	RestaurantID  string
	ReservationID string
	Status        domain.EmailStatus
	Limit         int
}

// ListEmails returns scheduled emails ordered by scheduled_for, id.
func (s *Store) ListEmails(ctx context.Context, f EmailFilter) ([]domain.ScheduledEmail, error) {
	query := `SELECT ` + emailColumns + ` FROM scheduled_emails WHERE 1 = 1`
	var args []any
	if f.RestaurantID != "" {
		query += ` AND restaurant_id = ?`
		args = append(args, f.RestaurantID)
	}
	if f.ReservationID != "" {
		query += ` AND reservation_id = ?`
		args = append(args, f.ReservationID)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	query += ` ORDER BY scheduled_for ASC, id ASC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	return s.queryEmails(ctx, query, args...)
}

// MarkEmailSent records a provider acceptance. Only pending rows are
// updated; returns ErrConflict if the row was no longer pending.
func (s *Store) MarkEmailSent(ctx context.Context, id, provider, messageID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE scheduled_emails
		SET status = 'sent', attempts = attempts + 1, provider = ?, provider_message_id = ?,
		    sent_at = ?, last_error = '', updated_at = ?
		WHERE id = ? AND status = 'pending'
	`, provider, messageID, toUnix(at), toUnix(at), id)
	if err != nil {
		return fmt.Errorf("mark email sent: %w", err)
	}
	return expectPending(res, id)
}

// RecordEmailFailure increments attempts and stores errMsg. The row moves
// to failed when permanent is set or attempts reaches maxAttempts;
// otherwise it stays pending for the next sweep. Returns the new status.
func (s *Store) RecordEmailFailure(ctx context.Context, id, errMsg string, permanent bool, maxAttempts int, at time.Time) (domain.EmailStatus, error) {
	var status string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE scheduled_emails
			SET attempts = attempts + 1,
			    last_error = ?,
			    status = CASE WHEN ? OR attempts + 1 >= ? THEN 'failed' ELSE 'pending' END,
			    updated_at = ?
			WHERE id = ? AND status = 'pending'
		`, errMsg, permanent, maxAttempts, toUnix(at), id)
		if err != nil {
			return err
		}
		if err := expectPending(res, id); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx, `SELECT status FROM scheduled_emails WHERE id = ?`, id).Scan(&status)
	})
	if err != nil {
		return "", fmt.Errorf("record email failure: %w", err)
	}
	return domain.EmailStatus(status), nil
}

// MarkEmailCancelled cancels one pending row, recording reason.
func (s *Store) MarkEmailCancelled(ctx context.Context, id, reason string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE scheduled_emails SET status = 'cancelled', last_error = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'
	`, reason, toUnix(at), id)
	if err != nil {
		return fmt.Errorf("mark email cancelled: %w", err)
	}
	return expectPending(res, id)
}

// CountEmailsByStatus returns how many rows are in each status.
func (s *Store) CountEmailsByStatus(ctx context.Context) (map[domain.EmailStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM scheduled_emails GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count emails: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.EmailStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan email count: %w", err)
		}
		counts[domain.EmailStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate email counts: %w", err)
	}
	return counts, nil
}

func (s *Store) queryEmails(ctx context.Context, query string, args ...any) ([]domain.ScheduledEmail, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scheduled emails: %w", err)
	}
	defer rows.Close()

	list := []domain.ScheduledEmail{}
	for rows.Next() {
		e, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scheduled emails: %w", err)
	}
	return list, nil
}

func expectPending(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("email %s is not pending: %w", id, ErrConflict)
	}
	return nil
}

func scanEmail(row rowScanner) (domain.ScheduledEmail, error) {
	var e domain.ScheduledEmail
	var kind, status string
	var scheduled, created, updated int64
	var sent sql.NullInt64
	err := row.Scan(&e.ID, &e.RestaurantID, &e.ReservationID, &kind, &e.Recipient, &scheduled,
		&status, &e.Attempts, &e.LastError, &e.Provider, &e.ProviderMessageID, &sent,
		&created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ScheduledEmail{}, ErrNotFound
	}
	if err != nil {
		return domain.ScheduledEmail{}, fmt.Errorf("scan scheduled email: %w", err)
	}
	e.Kind = domain.EmailKind(kind)
	e.Status = domain.EmailStatus(status)
	e.ScheduledFor = fromUnix(scheduled)
	e.SentAt = fromNullUnix(sent)
	e.CreatedAt = fromUnix(created)
	e.UpdatedAt = fromUnix(updated)
	return e, nil
}
