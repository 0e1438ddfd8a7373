package correction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommit_AppliesAllChanges(t *testing.T) {
	store, ids := seedScenario(t)
	engine := NewEngine(store)
	gateway := NewGateway(store)
	ctx := context.Background()

	plan, err := engine.ComputeCascade(ctx, ids.t1, 120)
	require.NoError(t, err)
	require.NoError(t, gateway.Commit(ctx, plan))

	t1, err := store.GetTrip(ctx, ids.t1)
	require.NoError(t, err)
	assert.Equal(t, int64(40), t1.StartKm)
	assert.Equal(t, int64(120), t1.EndKm)

	t2, err := store.GetTrip(ctx, ids.t2)
	require.NoError(t, err)
	assert.Equal(t, int64(120), t2.StartKm)
	assert.Equal(t, int64(200), t2.EndKm)

	t3, err := store.GetTrip(ctx, ids.t3)
	require.NoError(t, err)
	assert.Equal(t, int64(200), t3.StartKm)
	assert.Equal(t, int64(280), t3.EndKm)
}

func TestCommit_ConflictWhenTargetChangedSincePlan(t *testing.T) {
	store, ids := seedScenario(t)
	engine := NewEngine(store)
	gateway := NewGateway(store)
	ctx := context.Background()

	plan, err := engine.ComputeCascade(ctx, ids.t1, 120)
	require.NoError(t, err)

	// Another writer corrects the target after the plan was computed.
	require.NoError(t, store.UpdateTripOdometer(ctx, ids.t1, 40, 110))

	err = gateway.Commit(ctx, plan)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, ids.t1, conflict.TripID)
	assert.Equal(t, int64(100), conflict.ExpectedEndKm)
	assert.Equal(t, int64(110), conflict.ActualEndKm)

	// The stale plan must not have touched the chain.
	t2, err := store.GetTrip(ctx, ids.t2)
	require.NoError(t, err)
	assert.Equal(t, int64(100), t2.StartKm)
	assert.Equal(t, int64(180), t2.EndKm)
}

func TestCommit_RollsBackOnPartialFailure(t *testing.T) {
	store, ids := seedScenario(t)
	engine := NewEngine(store)
	gateway := NewGateway(store)
	ctx := context.Background()

	plan, err := engine.ComputeCascade(ctx, ids.t1, 120)
	require.NoError(t, err)

	// Fail the second of the three odometer writes.
	store.FailOdometerWriteAt(1)
	err = gateway.Commit(ctx, plan)
	var persistence *PersistenceError
	require.ErrorAs(t, err, &persistence)
	assert.Equal(t, ids.t2, persistence.TripID)

	// None of the planned trips may show a change, including the one
	// whose write succeeded before the failure.
	for tripID, wantEnd := range map[string]int64{ids.t1: 100, ids.t2: 180, ids.t3: 260} {
		trip, err := store.GetTrip(ctx, tripID)
		require.NoError(t, err)
		assert.Equal(t, wantEnd, trip.EndKm, "trip %s", tripID)
	}
}
