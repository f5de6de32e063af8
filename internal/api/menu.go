package api

import (
	"net/http"
	"strings"

	"github.com/DamianAcri/menulink-sub001/internal/domain"
)

type categoryInput struct {
	Name     string `json:"name"`
	Position int    `json:"position"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request, restaurant domain.Restaurant) {
	list, err := s.store.ListCategories(r.Context(), restaurant.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]domain.MenuCategory{"categories": list})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request, restaurant domain.Restaurant) {
	var in categoryInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		s.writeError(w, r, &domain.ValidationError{Field: "name", Message: "is required"})
		return
	}
	c := domain.MenuCategory{
		ID:           s.ids.NewID(),
		RestaurantID: restaurant.ID,
		Name:         name,
		Position:     in.Position,
	}
	if err := s.store.CreateCategory(r.Context(), c); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]domain.MenuCategory{"category": c})
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request, restaurant domain.Restaurant) {
	var in categoryInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		s.writeError(w, r, &domain.ValidationError{Field: "name", Message: "is required"})
		return
	}
	c := domain.MenuCategory{
		ID:           r.PathValue("id"),
		RestaurantID: restaurant.ID,
		Name:         name,
		Position:     in.Position,
	}
	if err := s.store.UpdateCategory(r.Context(), c); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.MenuCategory{"category": c})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request, restaurant domain.Restaurant) {
	if err := s.store.DeleteCategory(r.Context(), restaurant.ID, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request, restaurant domain.Restaurant) {
	list, err := s.store.ListMenuItems(r.Context(), restaurant.ID, false)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]domain.MenuItem{"items": list})
}

// itemInput is the writable part of a menu item. Available defaults to
// true and Currency to EUR.
type itemInput struct {
	CategoryID  string   `json:"category_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	PriceCents  int64    `json:"price_cents"`
	Currency    string   `json:"currency"`
	Allergens   []string `json:"allergens"`
	Available   *bool    `json:"available"`
	Position    int      `json:"position"`
}

// menuItem validates in and builds the item with the given id.
func (s *Server) menuItem(r *http.Request, restaurantID, id string, in itemInput) (domain.MenuItem, error) {
	m := domain.MenuItem{
		ID:           id,
		RestaurantID: restaurantID,
		CategoryID:   in.CategoryID,
		Name:         strings.TrimSpace(in.Name),
		Description:  strings.TrimSpace(in.Description),
		PriceCents:   in.PriceCents,
		Currency:     strings.ToUpper(strings.TrimSpace(in.Currency)),
		Allergens:    in.Allergens,
		Available:    in.Available == nil || *in.Available,
		Position:     in.Position,
		UpdatedAt:    s.clock.Now(),
	}
	if m.Currency == "" {
		m.Currency = "EUR"
	}
	if m.Allergens == nil {
		m.Allergens = []string{}
	}
	if err := m.Validate(); err != nil {
		return domain.MenuItem{}, err
	}
	if m.CategoryID != "" {
		categories, err := s.store.ListCategories(r.Context(), restaurantID)
		if err != nil {
			return domain.MenuItem{}, err
		}
		found := false
		for _, c := range categories {
			if c.ID == m.CategoryID {
				found = true
				break
			}
		}
		if !found {
			return domain.MenuItem{}, &domain.ValidationError{Field: "category_id", Message: "unknown category"}
		}
	}
	return m, nil
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request, restaurant domain.Restaurant) {
	var in itemInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := s.menuItem(r, restaurant.ID, s.ids.NewID(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.CreateMenuItem(r.Context(), m); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]domain.MenuItem{"item": m})
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request, restaurant domain.Restaurant) {
	id := r.PathValue("id")
	if _, err := s.store.GetMenuItem(r.Context(), restaurant.ID, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	var in itemInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := s.menuItem(r, restaurant.ID, id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.UpdateMenuItem(r.Context(), m); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.MenuItem{"item": m})
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request, restaurant domain.Restaurant) {
	if err := s.store.DeleteMenuItem(r.Context(), restaurant.ID, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
