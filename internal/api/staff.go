package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/DamianAcri/menulink-sub001/internal/domain"
	"github.com/DamianAcri/menulink-sub001/internal/store"
)

// defaultShiftWindow is the range listed when no "to" is given.
const defaultShiftWindow = 7 * 24 * time.Hour

func (s *Server) handleListStaff(w http.ResponseWriter, r *http.Request, restaurant domain.Restaurant) {
	list, err := s.store.ListStaff(r.Context(), restaurant.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]domain.Staff{"staff": list})
}

type staffInput struct {
	Name   string `json:"name"`
	Role   string `json:"role"`
	Email  string `json:"email"`
	Active *bool  `json:"active"`
}

func (s *Server) handleCreateStaff(w http.ResponseWriter, r *http.Request, restaurant domain.Restaurant) {
	var in staffInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	st := domain.Staff{
		ID:           s.ids.NewID(),
		RestaurantID: restaurant.ID,
		Name:         domain.NormalizeName(in.Name),
		Role:         strings.TrimSpace(in.Role),
		Email:        domain.NormalizeEmail(in.Email),
		Active:       in.Active == nil || *in.Active,
	}
	if st.Name == "" {
		s.writeError(w, r, &domain.ValidationError{Field: "name", Message: "is required"})
		return
	}
	if err := s.store.CreateStaff(r.Context(), st); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]domain.Staff{"staff": st})
}

// handleUpdateStaff replaces name, role and email. active keeps its
// current value when omitted.
func (s *Server) handleUpdateStaff(w http.ResponseWriter, r *http.Request, restaurant domain.Restaurant) {
	ctx := r.Context()
	var in staffInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	current, err := s.store.GetStaff(ctx, restaurant.ID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	st := domain.Staff{
		ID:           current.ID,
		RestaurantID: restaurant.ID,
		Name:         domain.NormalizeName(in.Name),
		Role:         strings.TrimSpace(in.Role),
		Email:        domain.NormalizeEmail(in.Email),
		Active:       current.Active,
	}
	if in.Active != nil {
		st.Active = *in.Active
	}
	if st.Name == "" {
		s.writeError(w, r, &domain.ValidationError{Field: "name", Message: "is required"})
		return
	}
	if err := s.store.UpdateStaff(ctx, st); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.Staff{"staff": st})
}

// handleDeleteStaff removes a staff member and their shifts.
func (s *Server) handleDeleteStaff(w http.ResponseWriter, r *http.Request, restaurant domain.Restaurant) {
	if err := s.store.DeleteStaff(r.Context(), restaurant.ID, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListShifts lists shifts intersecting [from, to). from defaults to
// now and to to one week after from.
func (s *Server) handleListShifts(w http.ResponseWriter, r *http.Request, restaurant domain.Restaurant) {
	from, err := queryTime(r, "from")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	to, err := queryTime(r, "to")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if from.IsZero() {
		from = s.clock.Now()
	}
	if to.IsZero() {
		to = from.Add(defaultShiftWindow)
	}
	if !to.After(from) {
		s.writeError(w, r, &domain.ValidationError{Field: "to", Message: "must be after from"})
		return
	}

	list, err := s.store.ListShifts(r.Context(), restaurant.ID, from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]domain.Shift{"shifts": list})
}

type shiftInput struct {
	StaffID  string    `json:"staff_id"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Role     string    `json:"role"`
	Notes    string    `json:"notes"`
}

func (s *Server) handleCreateShift(w http.ResponseWriter, r *http.Request, restaurant domain.Restaurant) {
	sh, ok := s.decodeShift(w, r, restaurant, s.ids.NewID())
	if !ok {
		return
	}
	if err := s.store.CreateShift(r.Context(), sh); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]domain.Shift{"shift": sh})
}

// handleUpdateShift replaces a shift. The overlap check skips the shift
// itself.
func (s *Server) handleUpdateShift(w http.ResponseWriter, r *http.Request, restaurant domain.Restaurant) {
	sh, ok := s.decodeShift(w, r, restaurant, r.PathValue("id"))
	if !ok {
		return
	}
	if err := s.store.UpdateShift(r.Context(), sh); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.Shift{"shift": sh})
}

// decodeShift reads and validates a shift body for id. On failure the
// error response is already written.
func (s *Server) decodeShift(w http.ResponseWriter, r *http.Request, restaurant domain.Restaurant, id string) (domain.Shift, bool) {
	var in shiftInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return domain.Shift{}, false
	}
	sh := domain.Shift{
		ID:           id,
		RestaurantID: restaurant.ID,
		StaffID:      in.StaffID,
		StartsAt:     in.StartsAt.UTC(),
		EndsAt:       in.EndsAt.UTC(),
		Role:         strings.TrimSpace(in.Role),
		Notes:        strings.TrimSpace(in.Notes),
	}
	if err := sh.Validate(); err != nil {
		s.writeError(w, r, err)
		return domain.Shift{}, false
	}
	if _, err := s.store.GetStaff(r.Context(), restaurant.ID, sh.StaffID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = &domain.ValidationError{Field: "staff_id", Message: "unknown staff member"}
		}
		s.writeError(w, r, err)
		return domain.Shift{}, false
	}
	return sh, true
}

func (s *Server) handleDeleteShift(w http.ResponseWriter, r *http.Request, restaurant domain.Restaurant) {
	if err := s.store.DeleteShift(r.Context(), restaurant.ID, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
