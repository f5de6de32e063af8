package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/DamianAcri/menulink-sub001/internal/domain"
)

type settingsResponse struct {
	Restaurant domain.Restaurant `json:"restaurant"`
	Settings   domain.Settings   `json:"settings"`
}

// profileInput is the editable part of a restaurant.
type profileInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Timezone string `json:"timezone"`
}

func (p profileInput) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return &domain.ValidationError{Field: "restaurant.name", Message: "is required"}
	}
	if !strings.Contains(p.Email, "@") {
		return &domain.ValidationError{Field: "restaurant.email", Message: "must be an email address"}
	}
	if p.Timezone != "" {
		if _, err := time.LoadLocation(p.Timezone); err != nil {
			return &domain.ValidationError{Field: "restaurant.timezone", Message: "unknown time zone"}
		}
	}
	return nil
}

type settingsInput struct {
	Restaurant *profileInput    `json:"restaurant"`
	Settings   *domain.Settings `json:"settings"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request, restaurant domain.Restaurant) {
	settings, err := s.store.GetSettings(r.Context(), restaurant.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{Restaurant: restaurant, Settings: settings})
}

// handlePutSettings updates the profile, the notification settings, or
// both. Both parts are validated before anything is written.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request, restaurant domain.Restaurant) {
	ctx := r.Context()
	var in settingsInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	if in.Restaurant != nil {
		in.Restaurant.Email = domain.NormalizeEmail(in.Restaurant.Email)
		if err := in.Restaurant.validate(); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if in.Settings != nil {
		in.Settings.RestaurantID = restaurant.ID
		if err := in.Settings.Validate(); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	if p := in.Restaurant; p != nil {
		restaurant.Name = strings.TrimSpace(p.Name)
		restaurant.Email = p.Email
		restaurant.Phone = strings.TrimSpace(p.Phone)
		restaurant.Address = strings.TrimSpace(p.Address)
		if p.Timezone != "" {
			restaurant.Timezone = p.Timezone
		}
		restaurant.UpdatedAt = s.clock.Now()
		if err := s.store.UpdateRestaurantProfile(ctx, restaurant); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if in.Settings != nil {
		if err := s.store.UpdateSettings(ctx, *in.Settings); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	s.handleGetSettings(w, r, restaurant)
}
