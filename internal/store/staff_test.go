package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DamianAcri/menulink-sub001/internal/domain"
)

func TestShifts_OverlapRejected(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedRestaurant(t, s)
	require.NoError(t, s.CreateStaff(ctx, domain.Staff{ID: "st1", RestaurantID: "r1", Name: "Luis", Role: "waiter", Active: true}))

	at := func(h int) time.Time { return testNow.Truncate(24 * time.Hour).Add(time.Duration(h) * time.Hour) }
	first := domain.Shift{ID: "sh1", RestaurantID: "r1", StaffID: "st1", StartsAt: at(9), EndsAt: at(15)}
	require.NoError(t, s.CreateShift(ctx, first))

	clash := domain.Shift{ID: "sh2", RestaurantID: "r1", StaffID: "st1", StartsAt: at(14), EndsAt: at(20)}
	err := s.CreateShift(ctx, clash)
	require.Error(t, err)
	var overlap *OverlapError
	require.True(t, errors.As(err, &overlap))
	assert.Equal(t, "sh1", overlap.Existing)
	assert.ErrorIs(t, err, ErrConflict)

	adjacent := domain.Shift{ID: "sh3", RestaurantID: "r1", StaffID: "st1", StartsAt: at(15), EndsAt: at(20)}
	require.NoError(t, s.CreateShift(ctx, adjacent))

	list, err := s.ListShifts(ctx, "r1", at(0), at(24))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "sh1", list[0].ID)
	assert.Equal(t, "sh3", list[1].ID)

	window, err := s.ListShifts(ctx, "r1", at(16), at(17))
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "sh3", window[0].ID)

	require.NoError(t, s.DeleteShift(ctx, "r1", "sh1"))
	assert.ErrorIs(t, s.DeleteShift(ctx, "r1", "sh1"), ErrNotFound)
}

func TestStaff_ListAndGet(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedRestaurant(t, s)
	require.NoError(t, s.CreateStaff(ctx, domain.Staff{ID: "st2", RestaurantID: "r1", Name: "Marta", Active: true}))
	require.NoError(t, s.CreateStaff(ctx, domain.Staff{ID: "st1", RestaurantID: "r1", Name: "Luis", Active: false}))

	list, err := s.ListStaff(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Luis", list[0].Name)
	assert.False(t, list[0].Active)

	st, err := s.GetStaff(ctx, "r1", "st2")
	require.NoError(t, err)
	assert.Equal(t, "Marta", st.Name)

	_, err = s.GetStaff(ctx, "other", "st2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestShifts_UpdateRechecksOverlap(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedRestaurant(t, s)
	require.NoError(t, s.CreateStaff(ctx, domain.Staff{ID: "st1", RestaurantID: "r1", Name: "Luis", Active: true}))
	require.NoError(t, s.CreateStaff(ctx, domain.Staff{ID: "st2", RestaurantID: "r1", Name: "Marta", Active: true}))

	at := func(h int) time.Time { return testNow.Truncate(24 * time.Hour).Add(time.Duration(h) * time.Hour) }
	require.NoError(t, s.CreateShift(ctx, domain.Shift{ID: "sh1", RestaurantID: "r1", StaffID: "st1", StartsAt: at(9), EndsAt: at(15)}))
	require.NoError(t, s.CreateShift(ctx, domain.Shift{ID: "sh2", RestaurantID: "r1", StaffID: "st1", StartsAt: at(18), EndsAt: at(23)}))

	// Overlapping only its own old slot is fine.
	moved := domain.Shift{ID: "sh1", RestaurantID: "r1", StaffID: "st1", StartsAt: at(10), EndsAt: at(16), Role: "bar", Notes: "late start"}
	require.NoError(t, s.UpdateShift(ctx, moved))

	list, err := s.ListShifts(ctx, "r1", at(0), at(24))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, moved, list[0])

	clash := moved
	clash.EndsAt = at(19)
	err = s.UpdateShift(ctx, clash)
	var overlap *OverlapError
	require.True(t, errors.As(err, &overlap))
	assert.Equal(t, "sh2", overlap.Existing)
	assert.ErrorIs(t, err, ErrConflict)

	// Reassigning to a free staff member clears the clash.
	clash.StaffID = "st2"
	require.NoError(t, s.UpdateShift(ctx, clash))

	missing := moved
	missing.ID = "nope"
	assert.ErrorIs(t, s.UpdateShift(ctx, missing), ErrNotFound)

	other := moved
	other.RestaurantID = "other"
	assert.ErrorIs(t, s.UpdateShift(ctx, other), ErrNotFound)
}

func TestStaff_UpdateAndDelete(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedRestaurant(t, s)
	require.NoError(t, s.CreateStaff(ctx, domain.Staff{ID: "st1", RestaurantID: "r1", Name: "Luis", Role: "waiter", Active: true}))

	at := func(h int) time.Time { return testNow.Truncate(24 * time.Hour).Add(time.Duration(h) * time.Hour) }
	require.NoError(t, s.CreateShift(ctx, domain.Shift{ID: "sh1", RestaurantID: "r1", StaffID: "st1", StartsAt: at(9), EndsAt: at(15)}))

	updated := domain.Staff{ID: "st1", RestaurantID: "r1", Name: "Luis G.", Role: "head waiter", Email: "luis@casapepe.test", Active: false}
	require.NoError(t, s.UpdateStaff(ctx, updated))
	got, err := s.GetStaff(ctx, "r1", "st1")
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	wrong := updated
	wrong.RestaurantID = "other"
	assert.ErrorIs(t, s.UpdateStaff(ctx, wrong), ErrNotFound)
	assert.ErrorIs(t, s.DeleteStaff(ctx, "other", "st1"), ErrNotFound)

	require.NoError(t, s.DeleteStaff(ctx, "r1", "st1"))
	_, err = s.GetStaff(ctx, "r1", "st1")
	assert.ErrorIs(t, err, ErrNotFound)

	shifts, err := s.ListShifts(ctx, "r1", at(0), at(24))
	require.NoError(t, err)
	assert.Empty(t, shifts)
}
