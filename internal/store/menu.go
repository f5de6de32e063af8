package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/DamianAcri/menulink-sub001/internal/domain"
)

// CreateCategory inserts a menu category.
func (s *Store) CreateCategory(ctx context.Context, c domain.MenuCategory) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO menu_categories (id, restaurant_id, name, position) VALUES (?, ?, ?, ?)
	`, c.ID, c.RestaurantID, c.Name, c.Position)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// ListCategories returns a restaurant's categories by position then name.
func (s *Store) ListCategories(ctx context.Context, restaurantID string) ([]domain.MenuCategory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, restaurant_id, name, position FROM menu_categories
		WHERE restaurant_id = ?
		ORDER BY position ASC, name ASC, id ASC
	`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	list := []domain.MenuCategory{}
	for rows.Next() {
		var c domain.MenuCategory
		if err := rows.Scan(&c.ID, &c.RestaurantID, &c.Name, &c.Position); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return list, nil
}

// UpdateCategory renames or repositions a category.
func (s *Store) UpdateCategory(ctx context.Context, c domain.MenuCategory) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE menu_categories SET name = ?, position = ? WHERE id = ? AND restaurant_id = ?
	`, c.Name, c.Position, c.ID, c.RestaurantID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return expectOneRow(res, "update category "+c.ID)
}

// DeleteCategory removes a category. Its items become uncategorised.
func (s *Store) DeleteCategory(ctx context.Context, restaurantID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM menu_categories WHERE id = ? AND restaurant_id = ?`, id, restaurantID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return expectOneRow(res, "delete category "+id)
}

const menuItemColumns = `id, restaurant_id, category_id, name, description, price_cents, currency, allergens, available, position, updated_at`

// CreateMenuItem inserts a menu item.
func (s *Store) CreateMenuItem(ctx context.Context, m domain.MenuItem) error {
	allergens, err := marshalStrings(m.Allergens)
	if err != nil {
		return fmt.Errorf("create menu item: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO menu_items (`+menuItemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		m.ID, m.RestaurantID, nullString(m.CategoryID), m.Name, m.Description, m.PriceCents,
		m.Currency, allergens, m.Available, m.Position, toUnix(m.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create menu item: %w", err)
	}
	return nil
}

// UpdateMenuItem replaces the editable fields of a menu item.
func (s *Store) UpdateMenuItem(ctx context.Context, m domain.MenuItem) error {
	allergens, err := marshalStrings(m.Allergens)
	if err != nil {
		return fmt.Errorf("update menu item: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE menu_items
		SET category_id = ?, name = ?, description = ?, price_cents = ?, currency = ?,
		    allergens = ?, available = ?, position = ?, updated_at = ?
		WHERE id = ? AND restaurant_id = ?
	`,
		nullString(m.CategoryID), m.Name, m.Description, m.PriceCents, m.Currency,
		allergens, m.Available, m.Position, toUnix(m.UpdatedAt),
		m.ID, m.RestaurantID,
	)
	if err != nil {
		return fmt.Errorf("update menu item: %w", err)
	}
	return expectOneRow(res, "update menu item "+m.ID)
}

// DeleteMenuItem removes a menu item.
func (s *Store) DeleteMenuItem(ctx context.Context, restaurantID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = ? AND restaurant_id = ?`, id, restaurantID)
	if err != nil {
		return fmt.Errorf("delete menu item: %w", err)
	}
	return expectOneRow(res, "delete menu item "+id)
}

// GetMenuItem returns one menu item scoped to its restaurant.
func (s *Store) GetMenuItem(ctx context.Context, restaurantID, id string) (domain.MenuItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+menuItemColumns+` FROM menu_items WHERE id = ? AND restaurant_id = ?
	`, id, restaurantID)
	m, err := scanMenuItem(row)
	if err != nil {
		return domain.MenuItem{}, fmt.Errorf("get menu item %s: %w", id, err)
	}
	return m, nil
}

// ListMenuItems returns a restaurant's items by position then name. When
// availableOnly is set, unavailable items are skipped.
func (s *Store) ListMenuItems(ctx context.Context, restaurantID string, availableOnly bool) ([]domain.MenuItem, error) {
	query := `SELECT ` + menuItemColumns + ` FROM menu_items WHERE restaurant_id = ?`
	if availableOnly {
		query += ` AND available = 1`
	}
	query += ` ORDER BY position ASC, name ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("query menu items: %w", err)
	}
	defer rows.Close()

	list := []domain.MenuItem{}
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate menu items: %w", err)
	}
	return list, nil
}

func scanMenuItem(row rowScanner) (domain.MenuItem, error) {
	var m domain.MenuItem
	var category sql.NullString
	var allergens string
	var updated int64
	err := row.Scan(&m.ID, &m.RestaurantID, &category, &m.Name, &m.Description, &m.PriceCents,
		&m.Currency, &allergens, &m.Available, &m.Position, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MenuItem{}, ErrNotFound
	}
	if err != nil {
		return domain.MenuItem{}, fmt.Errorf("scan menu item: %w", err)
	}
	m.CategoryID = category.String
	m.UpdatedAt = fromUnix(updated)
	if m.Allergens, err = unmarshalStrings(allergens); err != nil {
		return domain.MenuItem{}, err
	}
	return m, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
