package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/fleet-operations/internal/models"
)

func TestMemoryStore_TransactionRollsBackOnError(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.InsertTrip(ctx, &models.Trip{
		VehicleID: "V1", StartKm: 0, EndKm: 100,
		TripEndDate: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.WithTransaction(ctx, func(txCtx context.Context) error {
		require.NoError(t, store.UpdateTripOdometer(txCtx, id, 50, 150))
		return boom
	})
	require.ErrorIs(t, err, boom)

	trip, err := store.GetTrip(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), trip.StartKm)
	assert.Equal(t, int64(100), trip.EndKm)
}

func TestMemoryStore_TransactionCommitsOnSuccess(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.InsertTrip(ctx, &models.Trip{
		VehicleID: "V1", StartKm: 0, EndKm: 100,
		TripEndDate: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	err = store.WithTransaction(ctx, func(txCtx context.Context) error {
		return store.UpdateTripOdometer(txCtx, id, 50, 150)
	})
	require.NoError(t, err)

	trip, err := store.GetTrip(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(150), trip.EndKm)
}

func TestMemoryStore_ListTripsOrderedByEndDate(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	// Insert out of order to make the sort observable.
	for _, offset := range []int{2, 0, 1} {
		_, err := store.InsertTrip(ctx, &models.Trip{
			VehicleID:   "V1",
			StartKm:     int64(offset * 100),
			EndKm:       int64(offset*100 + 100),
			TripEndDate: base.Add(time.Duration(offset) * 24 * time.Hour),
		})
		require.NoError(t, err)
	}

	trips, err := store.ListTripsForVehicle(ctx, "V1", time.Time{})
	require.NoError(t, err)
	require.Len(t, trips, 3)
	for i := 1; i < len(trips); i++ {
		assert.True(t, !trips[i].TripEndDate.Before(trips[i-1].TripEndDate))
	}
}

func TestMemoryStore_ListTripsFromDate(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	for offset := 0; offset < 3; offset++ {
		_, err := store.InsertTrip(ctx, &models.Trip{
			VehicleID:   "V1",
			TripEndDate: base.Add(time.Duration(offset) * 24 * time.Hour),
		})
		require.NoError(t, err)
	}

	trips, err := store.ListTripsForVehicle(ctx, "V1", base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, trips, 2)
}

func TestMemoryStore_GetTripReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.InsertTrip(ctx, &models.Trip{VehicleID: "V1", EndKm: 100, TripEndDate: time.Now()})
	require.NoError(t, err)

	trip, err := store.GetTrip(ctx, id)
	require.NoError(t, err)
	trip.EndKm = 999

	again, err := store.GetTrip(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(100), again.EndKm)
}

func TestMemoryStore_TripNotFound(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.GetTrip(context.Background(), "65f000000000000000000000")
	assert.ErrorIs(t, err, ErrTripNotFound)
}

func TestMemoryStore_CorrectionHistoryMostRecentFirst(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i, reason := range []string{"first", "second"} {
		err := store.InsertCorrection(ctx, &models.Correction{
			TripID:      "trip1",
			Reason:      reason,
			CorrectedAt: time.Now().Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	corrections, err := store.ListCorrectionsForTrip(ctx, "trip1")
	require.NoError(t, err)
	require.Len(t, corrections, 2)
	assert.Equal(t, "second", corrections[0].Reason)
	assert.Equal(t, "first", corrections[1].Reason)
}

func TestMemoryStore_AuditEntriesFilteredByTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	err := store.InsertAuditEntries(ctx, []models.AuditEntry{
		{EntityType: models.EntityTypeTrip, EntityID: "trip1", Actor: "op"},
		{EntityType: models.EntityTypeTrip, EntityID: "trip2", Actor: "op"},
	})
	require.NoError(t, err)

	entries, err := store.ListAuditEntriesForTrip(ctx, "trip1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "trip1", entries[0].EntityID)
}
