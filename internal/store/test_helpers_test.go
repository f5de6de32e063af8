package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/DamianAcri/menulink-sub001/internal/domain"
)

var testNow = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

// createTestStore creates a new temp-dir store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedRestaurant inserts restaurant "r1" (slug "casa-pepe") with default settings.
func seedRestaurant(t *testing.T, s *Store) domain.Restaurant {
	t.Helper()
	r := domain.Restaurant{
		ID:        "r1",
		Slug:      "casa-pepe",
		Name:      "Casa Pepe",
		Email:     "owner@casapepe.test",
		Timezone:  "Europe/Madrid",
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	if err := s.CreateRestaurant(context.Background(), r, domain.DefaultSettings(r.ID)); err != nil {
		t.Fatalf("CreateRestaurant() failed: %v", err)
	}
	return r
}

// seedCustomer upserts customer "c1" for restaurant r1.
func seedCustomer(t *testing.T, s *Store) domain.Customer {
	t.Helper()
	c, err := s.UpsertCustomer(context.Background(), domain.Customer{
		ID:           "c1",
		RestaurantID: "r1",
		Email:        "ana@example.com",
		Name:         "Ana",
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	})
	if err != nil {
		t.Fatalf("UpsertCustomer() failed: %v", err)
	}
	return c
}

// createTestReservation builds a pending reservation for customer c1.
func createTestReservation(id string, startsAt time.Time) domain.Reservation {
	return domain.Reservation{
		ID:              id,
		RestaurantID:    "r1",
		CustomerID:      "c1",
		CustomerName:    "Ana",
		CustomerEmail:   "ana@example.com",
		PartySize:       2,
		StartsAt:        startsAt,
		DurationMinutes: 90,
		Status:          domain.StatusPending,
		CreatedAt:       testNow,
		UpdatedAt:       testNow,
	}
}

// createTestEmail builds a pending scheduled email.
func createTestEmail(id, reservationID string, kind domain.EmailKind, at time.Time) domain.ScheduledEmail {
	return domain.ScheduledEmail{
		ID:            id,
		RestaurantID:  "r1",
		ReservationID: reservationID,
		Kind:          kind,
		Recipient:     "ana@example.com",
		ScheduledFor:  at,
		Status:        domain.EmailPending,
		CreatedAt:     testNow,
		UpdatedAt:     testNow,
	}
}

// seedReservation inserts a reservation for r1/c1 without emails.
func seedReservation(t *testing.T, s *Store, id string, startsAt time.Time) domain.Reservation {
	t.Helper()
	r := createTestReservation(id, startsAt)
	if _, err := s.CreateReservation(context.Background(), r, nil); err != nil {
		t.Fatalf("CreateReservation() failed: %v", err)
	}
	return r
}
