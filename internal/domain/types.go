package domain

import (
	"time"
	_ "time/tzdata"
)

// Restaurant is a tenant of the service.
type Restaurant struct {
	ID         string    `json:"id"`
	Slug       string    `json:"slug"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Address    string    `json:"address,omitempty"`
	Timezone   string    `json:"timezone"`
	APIKeyHash string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Location returns the restaurant's time zone, falling back to UTC when the
// stored name is empty or unknown.
func (r Restaurant) Location() *time.Location {
	if r.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Settings holds the per-restaurant notification and booking preferences.
type Settings struct {
	RestaurantID           string `json:"restaurant_id"`
	RemindersEnabled       bool   `json:"reminders_enabled"`
	ReminderLeadMinutes    int    `json:"reminder_lead_minutes"`
	ReviewsEnabled         bool   `json:"reviews_enabled"`
	ReviewDelayMinutes     int    `json:"review_delay_minutes"`
	ReviewURL              string `json:"review_url,omitempty"`
	AutoConfirm            bool   `json:"auto_confirm"`
	DefaultDurationMinutes int    `json:"default_duration_minutes"`
	NotifyOwner            bool   `json:"notify_owner"`
	ReplyTo                string `json:"reply_to,omitempty"`
}

// Settings defaults applied when a restaurant is created.
const (
	DefaultReminderLeadMinutes    = 24 * 60
	DefaultReviewDelayMinutes     = 120
	DefaultReservationDurationMin = 90
)

// DefaultSettings returns the settings a new restaurant starts with.
func DefaultSettings(restaurantID string) Settings {
	return Settings{
		RestaurantID:           restaurantID,
		RemindersEnabled:       true,
		ReminderLeadMinutes:    DefaultReminderLeadMinutes,
		ReviewsEnabled:         false,
		ReviewDelayMinutes:     DefaultReviewDelayMinutes,
		DefaultDurationMinutes: DefaultReservationDurationMin,
		NotifyOwner:            true,
	}
}

// ReminderLead is ReminderLeadMinutes as a duration.
func (s Settings) ReminderLead() time.Duration {
	return time.Duration(s.ReminderLeadMinutes) * time.Minute
}

// ReviewDelay is ReviewDelayMinutes as a duration.
func (s Settings) ReviewDelay() time.Duration {
	return time.Duration(s.ReviewDelayMinutes) * time.Minute
}

// MenuCategory groups menu items on the public menu.
type MenuCategory struct {
	ID           string `json:"id"`
	RestaurantID string `json:"restaurant_id"`
	Name         string `json:"name"`
	Position     int    `json:"position"`
}

// MenuItem is a dish or drink on the menu.
type MenuItem struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id"`
	CategoryID   string    `json:"category_id,omitempty"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	PriceCents   int64     `json:"price_cents"`
	Currency     string    `json:"currency"`
	Allergens    []string  `json:"allergens"`
	Available    bool      `json:"available"`
	Position     int       `json:"position"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Customer is a CRM record, unique per restaurant and normalised email.
type Customer struct {
	ID                string     `json:"id"`
	RestaurantID      string     `json:"restaurant_id"`
	Email             string     `json:"email"`
	Name              string     `json:"name"`
	Phone             string     `json:"phone,omitempty"`
	VisitCount        int        `json:"visit_count"`
	CancellationCount int        `json:"cancellation_count"`
	LastVisitAt       *time.Time `json:"last_visit_at,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	Tags              []string   `json:"tags"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Reservation is a customer's booking request.
type Reservation struct {
	ID              string            `json:"id"`
	RestaurantID    string            `json:"restaurant_id"`
	CustomerID      string            `json:"customer_id"`
	CustomerName    string            `json:"customer_name"`
	CustomerEmail   string            `json:"customer_email"`
	CustomerPhone   string            `json:"customer_phone,omitempty"`
	PartySize       int               `json:"party_size"`
	StartsAt        time.Time         `json:"starts_at"`
	DurationMinutes int               `json:"duration_minutes"`
	Status          ReservationStatus `json:"status"`
	Notes           string            `json:"notes,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// EndsAt is StartsAt plus the reservation duration.
func (r Reservation) EndsAt() time.Time {
	return r.StartsAt.Add(time.Duration(r.DurationMinutes) * time.Minute)
}

// Staff is an employee who can be assigned shifts.
type Staff struct {
	ID           string `json:"id"`
	RestaurantID string `json:"restaurant_id"`
	Name         string `json:"name"`
	Role         string `json:"role,omitempty"`
	Email        string `json:"email,omitempty"`
	Active       bool   `json:"active"`
}

// Shift is a block of work assigned to one staff member.
type Shift struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id"`
	StaffID      string    `json:"staff_id"`
	StartsAt     time.Time `json:"starts_at"`
	EndsAt       time.Time `json:"ends_at"`
	Role         string    `json:"role,omitempty"`
	Notes        string    `json:"notes,omitempty"`
}

// Overlaps reports whether two shifts share any instant. Touching
// boundaries (one ends when the other starts) do not overlap.
func (s Shift) Overlaps(o Shift) bool {
	return s.StartsAt.Before(o.EndsAt) && o.StartsAt.Before(s.EndsAt)
}

// ScheduledEmail is one outbound notification, dispatched once
// ScheduledFor has passed.
type ScheduledEmail struct {
	ID                string      `json:"id"`
	RestaurantID      string      `json:"restaurant_id"`
	ReservationID     string      `json:"reservation_id"`
	Kind              EmailKind   `json:"kind"`
	Recipient         string      `json:"recipient"`
	ScheduledFor      time.Time   `json:"scheduled_for"`
	Status            EmailStatus `json:"status"`
	Attempts          int         `json:"attempts"`
	LastError         string      `json:"last_error,omitempty"`
	Provider          string      `json:"provider,omitempty"`
	ProviderMessageID string      `json:"provider_message_id,omitempty"`
	SentAt            *time.Time  `json:"sent_at,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}
