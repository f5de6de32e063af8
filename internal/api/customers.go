package api

import (
	"net/http"
	"strings"

	"github.com/DamianAcri/menulink-sub001/internal/domain"
	"github.com/DamianAcri/menulink-sub001/internal/store"
)

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request, restaurant domain.Restaurant) {
	list, err := s.store.ListCustomers(r.Context(), restaurant.ID, r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]domain.Customer{"customers": list})
}

type customerResponse struct {
	Customer     domain.Customer      `json:"customer"`
	Reservations []domain.Reservation `json:"reservations"`
}

// handleGetCustomer returns the CRM record with its reservation history.
func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request, restaurant domain.Restaurant) {
	ctx := r.Context()
	c, err := s.store.GetCustomer(ctx, restaurant.ID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	history, err := s.store.ListReservations(ctx, store.ReservationFilter{RestaurantID: restaurant.ID, CustomerID: c.ID})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customerResponse{Customer: c, Reservations: history})
}

type customerPatch struct {
	Notes *string   `json:"notes"`
	Tags  *[]string `json:"tags"`
}

// handlePatchCustomer updates notes and/or tags. Tags are trimmed,
// lower-cased and de-duplicated.
func (s *Server) handlePatchCustomer(w http.ResponseWriter, r *http.Request, restaurant domain.Restaurant) {
	ctx := r.Context()
	c, err := s.store.GetCustomer(ctx, restaurant.ID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in customerPatch
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if in.Notes != nil {
		c.Notes = strings.TrimSpace(*in.Notes)
	}
	if in.Tags != nil {
		c.Tags = cleanTags(*in.Tags)
	}
	if err := s.store.UpdateCustomerNotes(ctx, restaurant.ID, c.ID, c.Notes, c.Tags, s.clock.Now()); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err = s.store.GetCustomer(ctx, restaurant.ID, c.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.Customer{"customer": c})
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
