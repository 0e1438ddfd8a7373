package correction

import (
	"context"
	"errors"

	"github.com/ukydev/fleet-operations/internal/db"
)

// Gateway commits cascade plans atomically. Either every planned odometer
// update becomes visible, or none do.
type Gateway struct {
	trips db.TripStore
}

// NewGateway creates a persistence gateway over the given trip store.
func NewGateway(trips db.TripStore) *Gateway {
	return &Gateway{trips: trips}
}

// Commit applies the plan inside one store transaction. Before writing it
// re-reads the target trip and fails with ConflictError if its end_km no
// longer matches the value the plan was computed from. Any write failure
// aborts the transaction and surfaces as PersistenceError naming the trip
// that failed.
func (g *Gateway) Commit(ctx context.Context, plan *Plan) error {
	err := g.trips.WithTransaction(ctx, func(txCtx context.Context) error {
		targetID := plan.Target.ID.Hex()

		current, err := g.trips.GetTrip(txCtx, targetID)
		if err != nil {
			return &PersistenceError{TripID: targetID, Err: err}
		}
		if current.EndKm != plan.Target.EndKm {
			return &ConflictError{
				TripID:        targetID,
				ExpectedEndKm: plan.Target.EndKm,
				ActualEndKm:   current.EndKm,
			}
		}

		for _, change := range plan.Changes {
			if err := g.trips.UpdateTripOdometer(txCtx, change.TripID, change.NewStartKm, change.NewEndKm); err != nil {
				return &PersistenceError{TripID: change.TripID, Err: err}
			}
		}
		return nil
	})
	if err == nil {
		return nil
	}

	var conflict *ConflictError
	var persistence *PersistenceError
	if errors.As(err, &conflict) || errors.As(err, &persistence) {
		return err
	}
	// Transaction machinery itself failed (session start, commit).
	return &PersistenceError{TripID: plan.Target.ID.Hex(), Err: err}
}
