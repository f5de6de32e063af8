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

const customerColumns = `id, restaurant_id, email, name, phone, visit_count, cancellation_count, last_visit_at, notes, tags, created_at, updated_at`

// UpsertCustomer finds the customer with c.Email in c.RestaurantID or
// inserts c. On a match the name and phone are refreshed (phone only when
// the new one is non-empty) and the stored record is returned.
func (s *Store) UpsertCustomer(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	tags, err := marshalStrings(c.Tags)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("upsert customer: %w", err)
	}

	var out domain.Customer
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO customers (id, restaurant_id, email, name, phone, notes, tags, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(restaurant_id, email) DO UPDATE SET
				name = excluded.name,
				phone = CASE WHEN excluded.phone != '' THEN excluded.phone ELSE customers.phone END,
				updated_at = excluded.updated_at
		`,
			c.ID, c.RestaurantID, c.Email, c.Name, c.Phone, c.Notes, tags,
			toUnix(c.CreatedAt), toUnix(c.UpdatedAt),
		)
		if err != nil {
			return err
		}
		row := tx.QueryRowContext(ctx, `
			SELECT `+customerColumns+` FROM customers WHERE restaurant_id = ? AND email = ?
		`, c.RestaurantID, c.Email)
		out, err = scanCustomer(row)
		return err
	})
	if err != nil {
		return domain.Customer{}, fmt.Errorf("upsert customer: %w", err)
	}
	return out, nil
}

// GetCustomer returns a customer scoped to its restaurant.
func (s *Store) GetCustomer(ctx context.Context, restaurantID, id string) (domain.Customer, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+customerColumns+` FROM customers WHERE id = ? AND restaurant_id = ?
	`, id, restaurantID)
	c, err := scanCustomer(row)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("get customer %s: %w", id, err)
	}
	return c, nil
}

// ListCustomers returns a restaurant's customers ordered by name. A
// non-empty query filters by case-insensitive substring of name or email.
func (s *Store) ListCustomers(ctx context.Context, restaurantID, query string) ([]domain.Customer, error) {
	sqlQuery := `SELECT ` + customerColumns + ` FROM customers WHERE restaurant_id = ?`
	args := []any{restaurantID}
	if q := strings.TrimSpace(query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		sqlQuery += ` AND (lower(name) LIKE ? OR email LIKE ?)`
		args = append(args, like, like)
	}
	sqlQuery += ` ORDER BY name ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	list := []domain.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return list, nil
}

// UpdateCustomerNotes replaces a customer's notes and tags.
func (s *Store) UpdateCustomerNotes(ctx context.Context, restaurantID, id, notes string, tags []string, at time.Time) error {
	encoded, err := marshalStrings(tags)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE customers SET notes = ?, tags = ?, updated_at = ?
		WHERE id = ? AND restaurant_id = ?
	`, notes, encoded, toUnix(at), id, restaurantID)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	return expectOneRow(res, "update customer "+id)
}

func scanCustomer(row rowScanner) (domain.Customer, error) {
	var c domain.Customer
	var lastVisit sql.NullInt64
	var tags string
	var created, updated int64
	err := row.Scan(&c.ID, &c.RestaurantID, &c.Email, &c.Name, &c.Phone, &c.VisitCount,
		&c.CancellationCount, &lastVisit, &c.Notes, &tags, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Customer{}, ErrNotFound
	}
	if err != nil {
		return domain.Customer{}, fmt.Errorf("scan customer: %w", err)
	}
	c.LastVisitAt = fromNullUnix(lastVisit)
	c.CreatedAt = fromUnix(created)
	c.UpdatedAt = fromUnix(updated)
	if c.Tags, err = unmarshalStrings(tags); err != nil {
		return domain.Customer{}, err
	}
	return c, nil
}
