package api

import (
	"net/http"

	"github.com/DamianAcri/menulink-sub001/internal/domain"
	"github.com/DamianAcri/menulink-sub001/internal/store"
)

func (s *Server) handleListReservations(w http.ResponseWriter, r *http.Request, restaurant domain.Restaurant) {
	filter := store.ReservationFilter{
		RestaurantID: restaurant.ID,
		CustomerID:   r.URL.Query().Get("customer_id"),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := domain.ParseReservationStatus(raw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		filter.Status = status
	}
	var err error
	if filter.From, err = queryTime(r, "from"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if filter.To, err = queryTime(r, "to"); err != nil {
		s.writeError(w, r, err)
		return
	}

	list, err := s.store.ListReservations(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]domain.Reservation{"reservations": list})
}

func (s *Server) handleCreateReservation(w http.ResponseWriter, r *http.Request, restaurant domain.Restaurant) {
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
	writeJSON(w, http.StatusCreated, map[string]domain.Reservation{"reservation": res})
}

func (s *Server) handleGetReservation(w http.ResponseWriter, r *http.Request, restaurant domain.Restaurant) {
	res, err := s.store.GetReservation(r.Context(), restaurant.ID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.Reservation{"reservation": res})
}

type statusInput struct {
	Status string `json:"status"`
}

func (s *Server) handleReservationStatus(w http.ResponseWriter, r *http.Request, restaurant domain.Restaurant) {
	var in statusInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	to, err := domain.ParseReservationStatus(in.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.reservations.Transition(r.Context(), restaurant.ID, r.PathValue("id"), to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.Reservation{"reservation": res})
}

func (s *Server) handleReservationEmails(w http.ResponseWriter, r *http.Request, restaurant domain.Restaurant) {
	ctx := r.Context()
	res, err := s.store.GetReservation(ctx, restaurant.ID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	emails, err := s.store.ListEmails(ctx, store.EmailFilter{RestaurantID: restaurant.ID, ReservationID: res.ID})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]domain.ScheduledEmail{"emails": emails})
}
