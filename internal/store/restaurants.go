package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/DamianAcri/menulink-sub001/internal/domain"
)

const restaurantColumns = `id, slug, name, email, phone, address, timezone, api_key_hash, created_at, updated_at`

// CreateRestaurant inserts a restaurant together with its settings row.
// Returns ErrConflict if the slug is taken.
func (s *Store) CreateRestaurant(ctx context.Context, r domain.Restaurant, settings domain.Settings) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO restaurants (`+restaurantColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			r.ID, r.Slug, r.Name, r.Email, r.Phone, r.Address, r.Timezone, r.APIKeyHash,
			toUnix(r.CreatedAt), toUnix(r.UpdatedAt),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("create restaurant %q: %w", r.Slug, ErrConflict)
			}
			return fmt.Errorf("create restaurant: %w", err)
		}

		settings.RestaurantID = r.ID
		if err := upsertSettings(ctx, tx, settings); err != nil {
			return fmt.Errorf("create restaurant: %w", err)
		}
		return nil
	})
}

// GetRestaurant returns a restaurant by id.
func (s *Store) GetRestaurant(ctx context.Context, id string) (domain.Restaurant, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE id = ?`, id)
	r, err := scanRestaurant(row)
	if err != nil {
		return domain.Restaurant{}, fmt.Errorf("get restaurant %s: %w", id, err)
	}
	return r, nil
}

// GetRestaurantBySlug returns a restaurant by its public slug.
func (s *Store) GetRestaurantBySlug(ctx context.Context, slug string) (domain.Restaurant, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE slug = ?`, slug)
	r, err := scanRestaurant(row)
	if err != nil {
		return domain.Restaurant{}, fmt.Errorf("get restaurant by slug %q: %w", slug, err)
	}
	return r, nil
}

// ListRestaurants returns every restaurant ordered by slug.
func (s *Store) ListRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+restaurantColumns+` FROM restaurants ORDER BY slug ASC`)
	if err != nil {
		return nil, fmt.Errorf("query restaurants: %w", err)
	}
	defer rows.Close()

	list := []domain.Restaurant{}
	for rows.Next() {
		r, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate restaurants: %w", err)
	}
	return list, nil
}

// UpdateRestaurantProfile updates the editable profile fields.
func (s *Store) UpdateRestaurantProfile(ctx context.Context, r domain.Restaurant) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE restaurants
		SET name = ?, email = ?, phone = ?, address = ?, timezone = ?, updated_at = ?
		WHERE id = ?
	`, r.Name, r.Email, r.Phone, r.Address, r.Timezone, toUnix(r.UpdatedAt), r.ID)
	if err != nil {
		return fmt.Errorf("update restaurant: %w", err)
	}
	return expectOneRow(res, "update restaurant "+r.ID)
}

// GetSettings returns the settings row of a restaurant.
func (s *Store) GetSettings(ctx context.Context, restaurantID string) (domain.Settings, error) {
	var st domain.Settings
	err := s.db.QueryRowContext(ctx, `
		SELECT restaurant_id, reminders_enabled, reminder_lead_minutes, reviews_enabled,
		       review_delay_minutes, review_url, auto_confirm, default_duration_minutes,
		       notify_owner, reply_to
		FROM restaurant_settings WHERE restaurant_id = ?
	`, restaurantID).Scan(
		&st.RestaurantID, &st.RemindersEnabled, &st.ReminderLeadMinutes, &st.ReviewsEnabled,
		&st.ReviewDelayMinutes, &st.ReviewURL, &st.AutoConfirm, &st.DefaultDurationMinutes,
		&st.NotifyOwner, &st.ReplyTo,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Settings{}, fmt.Errorf("get settings %s: %w", restaurantID, ErrNotFound)
	}
	if err != nil {
		return domain.Settings{}, fmt.Errorf("get settings %s: %w", restaurantID, err)
	}
	return st, nil
}

// UpdateSettings replaces the settings row of a restaurant.
func (s *Store) UpdateSettings(ctx context.Context, settings domain.Settings) error {
	if _, err := s.GetRestaurant(ctx, settings.RestaurantID); err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	if err := upsertSettings(ctx, s.db, settings); err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}

func upsertSettings(ctx context.Context, q queryer, st domain.Settings) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO restaurant_settings
		(restaurant_id, reminders_enabled, reminder_lead_minutes, reviews_enabled,
		 review_delay_minutes, review_url, auto_confirm, default_duration_minutes,
		 notify_owner, reply_to)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(restaurant_id) DO UPDATE SET
			reminders_enabled = excluded.reminders_enabled,
			reminder_lead_minutes = excluded.reminder_lead_minutes,
			reviews_enabled = excluded.reviews_enabled,
			review_delay_minutes = excluded.review_delay_minutes,
			review_url = excluded.review_url,
			auto_confirm = excluded.auto_confirm,
			default_duration_minutes = excluded.default_duration_minutes,
			notify_owner = excluded.notify_owner,
			reply_to = excluded.reply_to
	`,
		st.RestaurantID, st.RemindersEnabled, st.ReminderLeadMinutes, st.ReviewsEnabled,
		st.ReviewDelayMinutes, st.ReviewURL, st.AutoConfirm, st.DefaultDurationMinutes,
		st.NotifyOwner, st.ReplyTo,
	)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRestaurant(row rowScanner) (domain.Restaurant, error) {
	var r domain.Restaurant
	var created, updated int64
	err := row.Scan(&r.ID, &r.Slug, &r.Name, &r.Email, &r.Phone, &r.Address, &r.Timezone,
		&r.APIKeyHash, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Restaurant{}, ErrNotFound
	}
	if err != nil {
		return domain.Restaurant{}, fmt.Errorf("scan restaurant: %w", err)
	}
	r.CreatedAt = fromUnix(created)
	r.UpdatedAt = fromUnix(updated)
	return r, nil
}

// expectOneRow turns a zero-row update/delete into ErrNotFound.
func expectOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
