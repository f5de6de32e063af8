package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/DamianAcri/menulink-sub001/internal/domain"
)

// CreateStaff inserts a staff member.
func (s *Store) CreateStaff(ctx context.Context, st domain.Staff) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO staff (id, restaurant_id, name, role, email, active) VALUES (?, ?, ?, ?, ?, ?)
	`, st.ID, st.RestaurantID, st.Name, st.Role, st.Email, st.Active)
	if err != nil {
		return fmt.Errorf("create staff: %w", err)
	}
	return nil
}

// GetStaff returns a staff member scoped to its restaurant.
func (s *Store) GetStaff(ctx context.Context, restaurantID, id string) (domain.Staff, error) {
	var st domain.Staff
	err := s.db.QueryRowContext(ctx, `
		SELECT id, restaurant_id, name, role, email, active FROM staff WHERE id = ? AND restaurant_id = ?
	`, id, restaurantID).Scan(&st.ID, &st.RestaurantID, &st.Name, &st.Role, &st.Email, &st.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Staff{}, fmt.Errorf("get staff %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.Staff{}, fmt.Errorf("get staff %s: %w", id, err)
	}
	return st, nil
}

// ListStaff returns a restaurant's staff ordered by name.
func (s *Store) ListStaff(ctx context.Context, restaurantID string) ([]domain.Staff, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, restaurant_id, name, role, email, active FROM staff
		WHERE restaurant_id = ? ORDER BY name ASC, id ASC
	`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("query staff: %w", err)
	}
	defer rows.Close()

	list := []domain.Staff{}
	for rows.Next() {
		var st domain.Staff
		if err := rows.Scan(&st.ID, &st.RestaurantID, &st.Name, &st.Role, &st.Email, &st.Active); err != nil {
			return nil, fmt.Errorf("scan staff: %w", err)
		}
		list = append(list, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate staff: %w", err)
	}
	return list, nil
}

// UpdateStaff replaces a staff member's name, role, email and active flag.
func (s *Store) UpdateStaff(ctx context.Context, st domain.Staff) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE staff SET name = ?, role = ?, email = ?, active = ? WHERE id = ? AND restaurant_id = ?
	`, st.Name, st.Role, st.Email, st.Active, st.ID, st.RestaurantID)
	if err != nil {
		return fmt.Errorf("update staff: %w", err)
	}
	return expectOneRow(res, "update staff "+st.ID)
}

// DeleteStaff removes a staff member together with their shifts.
func (s *Store) DeleteStaff(ctx context.Context, restaurantID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM staff WHERE id = ? AND restaurant_id = ?`, id, restaurantID)
	if err != nil {
		return fmt.Errorf("delete staff: %w", err)
	}
	return expectOneRow(res, "delete staff "+id)
}

const shiftColumns = `id, restaurant_id, staff_id, starts_at, ends_at, role, notes`

// CreateShift inserts a shift after checking, in the same transaction,
// that the staff member has no overlapping shift. Returns *OverlapError
// (which matches ErrConflict) on a clash.
func (s *Store) CreateShift(ctx context.Context, sh domain.Shift) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := checkShiftOverlap(ctx, tx, sh); err != nil {
			return fmt.Errorf("create shift: %w", err)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO shifts (`+shiftColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		`, sh.ID, sh.RestaurantID, sh.StaffID, toUnix(sh.StartsAt), toUnix(sh.EndsAt), sh.Role, sh.Notes)
		if err != nil {
			return fmt.Errorf("create shift: %w", err)
		}
		return nil
	})
}

// UpdateShift replaces a shift. The overlap check ignores the shift being
// updated, so moving a shift within its own slot is allowed.
func (s *Store) UpdateShift(ctx context.Context, sh domain.Shift) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := checkShiftOverlap(ctx, tx, sh); err != nil {
			return fmt.Errorf("update shift: %w", err)
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE shifts SET staff_id = ?, starts_at = ?, ends_at = ?, role = ?, notes = ?
			WHERE id = ? AND restaurant_id = ?
		`, sh.StaffID, toUnix(sh.StartsAt), toUnix(sh.EndsAt), sh.Role, sh.Notes, sh.ID, sh.RestaurantID)
		if err != nil {
			return fmt.Errorf("update shift: %w", err)
		}
		return expectOneRow(res, "update shift "+sh.ID)
	})
}

// checkShiftOverlap returns *OverlapError if sh's staff member has another
// shift (any id but sh.ID) sharing an instant with sh.
func checkShiftOverlap(ctx context.Context, q queryer, sh domain.Shift) error {
	var existing string
	err := q.QueryRowContext(ctx, `
		SELECT id FROM shifts
		WHERE staff_id = ? AND id <> ? AND starts_at < ? AND ends_at > ?
		ORDER BY starts_at ASC LIMIT 1
	`, sh.StaffID, sh.ID, toUnix(sh.EndsAt), toUnix(sh.StartsAt)).Scan(&existing)
	switch {
	case err == nil:
		return &OverlapError{StaffID: sh.StaffID, Existing: existing}
	case errors.Is(err, sql.ErrNoRows):
		return nil
	default:
		return fmt.Errorf("overlap check: %w", err)
	}
}

// ListShifts returns shifts that intersect [from, to), ordered by start.
func (s *Store) ListShifts(ctx context.Context, restaurantID string, from, to time.Time) ([]domain.Shift, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+shiftColumns+` FROM shifts
		WHERE restaurant_id = ? AND starts_at < ? AND ends_at > ?
		ORDER BY starts_at ASC, id ASC
	`, restaurantID, toUnix(to), toUnix(from))
	if err != nil {
		return nil, fmt.Errorf("query shifts: %w", err)
	}
	defer rows.Close()

	list := []domain.Shift{}
	for rows.Next() {
		var sh domain.Shift
		var starts, ends int64
		if err := rows.Scan(&sh.ID, &sh.RestaurantID, &sh.StaffID, &starts, &ends, &sh.Role, &sh.Notes); err != nil {
			return nil, fmt.Errorf("scan shift: %w", err)
		}
		sh.StartsAt = fromUnix(starts)
		sh.EndsAt = fromUnix(ends)
		list = append(list, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shifts: %w", err)
	}
	return list, nil
}

// DeleteShift removes a shift.
func (s *Store) DeleteShift(ctx context.Context, restaurantID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM shifts WHERE id = ? AND restaurant_id = ?`, id, restaurantID)
	if err != nil {
		return fmt.Errorf("delete shift: %w", err)
	}
	return expectOneRow(res, "delete shift "+id)
}
