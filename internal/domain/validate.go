package domain

import (
	"strings"
	"time"
)

// ReservationInput is the data a guest submits when booking.
type ReservationInput struct {
	CustomerName    string    `json:"customer_name"`
	CustomerEmail   string    `json:"customer_email"`
	CustomerPhone   string    `json:"customer_phone,omitempty"`
	PartySize       int       `json:"party_size"`
	StartsAt        time.Time `json:"starts_at"`
	DurationMinutes int       `json:"duration_minutes,omitempty"`
	Notes           string    `json:"notes,omitempty"`
}

// Normalize trims and normalises the free-text fields in place.
func (in *ReservationInput) Normalize() {
	in.CustomerName = NormalizeName(in.CustomerName)
	in.CustomerEmail = NormalizeEmail(in.CustomerEmail)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.Notes = strings.TrimSpace(in.Notes)
	in.StartsAt = in.StartsAt.UTC()
}

// Validate performs the field presence checks for a booking.
func (in ReservationInput) Validate() error {
	if in.CustomerName == "" {
		return required("customer_name")
	}
	if in.CustomerEmail == "" {
		return required("customer_email")
	}
	if !strings.Contains(in.CustomerEmail, "@") {
		return &ValidationError{Field: "customer_email", Message: "must be an email address"}
	}
	if in.PartySize < 1 {
		return &ValidationError{Field: "party_size", Message: "must be at least 1"}
	}
	if in.StartsAt.IsZero() {
		return required("starts_at")
	}
	if in.DurationMinutes < 0 {
		return &ValidationError{Field: "duration_minutes", Message: "must not be negative"}
	}
	return nil
}

// Validate checks a shift's required fields and time range.
func (s Shift) Validate() error {
	if s.StaffID == "" {
		return required("staff_id")
	}
	if s.StartsAt.IsZero() {
		return required("starts_at")
	}
	if s.EndsAt.IsZero() {
		return required("ends_at")
	}
	if !s.EndsAt.After(s.StartsAt) {
		return &ValidationError{Field: "ends_at", Message: "must be after starts_at"}
	}
	return nil
}

// Validate checks a menu item's required fields.
func (m MenuItem) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return required("name")
	}
	if m.PriceCents < 0 {
		return &ValidationError{Field: "price_cents", Message: "must not be negative"}
	}
	if len(m.Currency) != 3 {
		return &ValidationError{Field: "currency", Message: "must be a 3-letter ISO code"}
	}
	return nil
}

// Validate checks the settings ranges.
func (s Settings) Validate() error {
	if s.ReminderLeadMinutes < 0 {
		return &ValidationError{Field: "reminder_lead_minutes", Message: "must not be negative"}
	}
	if s.ReviewDelayMinutes < 0 {
		return &ValidationError{Field: "review_delay_minutes", Message: "must not be negative"}
	}
	if s.DefaultDurationMinutes < 1 {
		return &ValidationError{Field: "default_duration_minutes", Message: "must be at least 1"}
	}
	if s.ReviewsEnabled && s.ReviewURL == "" {
		return &ValidationError{Field: "review_url", Message: "is required when reviews are enabled"}
	}
	return nil
}
