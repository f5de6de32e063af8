package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/DamianAcri/menulink-sub001/internal/domain"
)

type publicRestaurant struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Address  string `json:"address,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Timezone string `json:"timezone"`
}

type publicItem struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	PriceCents  int64    `json:"price_cents"`
	Currency    string   `json:"currency"`
	Allergens   []string `json:"allergens"`
}

type publicCategory struct {
	ID    string       `json:"id,omitempty"`
	Name  string       `json:"name"`
	Items []publicItem `json:"items"`
}

type publicMenu struct {
	Restaurant publicRestaurant `json:"restaurant"`
	Categories []publicCategory `json:"categories"`
}

// buildPublicMenu groups available items under their categories, in
// category order. Items without a category (or whose category is gone)
// are listed last under "Other"; empty categories are omitted.
func buildPublicMenu(r domain.Restaurant, categories []domain.MenuCategory, items []domain.MenuItem) publicMenu {
	byCategory := make(map[string][]publicItem, len(categories))
	known := make(map[string]bool, len(categories))
	for _, c := range categories {
		known[c.ID] = true
	}
	var other []publicItem
	for _, it := range items {
		pi := publicItem{
			ID:          it.ID,
			Name:        it.Name,
			Description: it.Description,
			PriceCents:  it.PriceCents,
			Currency:    it.Currency,
			Allergens:   it.Allergens,
		}
		if pi.Allergens == nil {
			pi.Allergens = []string{}
		}
		if known[it.CategoryID] {
			byCategory[it.CategoryID] = append(byCategory[it.CategoryID], pi)
		} else {
			other = append(other, pi)
		}
	}

	menu := publicMenu{
		Restaurant: publicRestaurant{
			Name:     r.Name,
			Slug:     r.Slug,
			Address:  r.Address,
			Phone:    r.Phone,
			Timezone: r.Timezone,
		},
		Categories: []publicCategory{},
	}
	for _, c := range categories {
		if len(byCategory[c.ID]) == 0 {
			continue
		}
		menu.Categories = append(menu.Categories, publicCategory{ID: c.ID, Name: c.Name, Items: byCategory[c.ID]})
	}
	if len(other) > 0 {
		menu.Categories = append(menu.Categories, publicCategory{Name: "Other", Items: other})
	}
	return menu
}

// handlePublicMenu serves the menu with an ETag derived from the body, so
// clients polling an unchanged menu get 304 Not Modified.
func (s *Server) handlePublicMenu(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	restaurant, err := s.store.GetRestaurantBySlug(ctx, r.PathValue("slug"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	categories, err := s.store.ListCategories(ctx, restaurant.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	items, err := s.store.ListMenuItems(ctx, restaurant.ID, true)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	body, err := json.Marshal(buildPublicMenu(restaurant, categories, items))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	etag := fmt.Sprintf(`"%016x"`, xxhash.Sum64(body))

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=60")
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(append(body, '\n'))
}

// etagMatches implements the If-None-Match comparison: a list of
// (possibly weak) tags or "*".
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

type publicReservation struct {
	ID         string                   `json:"id"`
	Restaurant string                   `json:"restaurant"`
	Status     domain.ReservationStatus `json:"status"`
	PartySize  int                      `json:"party_size"`
	StartsAt   time.Time                `json:"starts_at"`
}

func (s *Server) handlePublicReservation(w http.ResponseWriter, r *http.Request) {
	restaurant, err := s.store.GetRestaurantBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in domain.ReservationInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.reservations.Create(r.Context(), restaurant.ID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]publicReservation{"reservation": {
		ID:         res.ID,
		Restaurant: restaurant.Name,
		Status:     res.Status,
		PartySize:  res.PartySize,
		StartsAt:   res.StartsAt,
	}})
}
