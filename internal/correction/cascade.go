package correction

import (
	"context"
	"errors"
	"time"

	"github.com/ukydev/fleet-operations/internal/db"
	"github.com/ukydev/fleet-operations/internal/models"
)

// Plan is the computed update set for one odometer correction: the directly
// edited trip first, then every chronologically later trip of the same
// vehicle with its baseline shifted by the correction delta. Target holds
// the trip state as read at plan time; those values are what the audit trail
// records as "before".
type Plan struct {
	Target   models.Trip
	NewEndKm int64
	Delta    int64
	Changes  []models.TripChange
}

// AffectsSubsequent reports whether the correction shifts any trip beyond
// the directly edited one.
func (p *Plan) AffectsSubsequent() bool { return len(p.Changes) > 1 }

// FromDate is the start of the date range whose odometer values the plan can
// change, used to scope recalculation.
func (p *Plan) FromDate() time.Time { return p.Target.TripEndDate }

// Engine computes cascade plans. It reads current stored state and produces
// a plan without writing anything.
type Engine struct {
	trips db.TripStore
}

// NewEngine creates a cascade computation engine over the given trip store.
func NewEngine(trips db.TripStore) *Engine {
	return &Engine{trips: trips}
}

// ComputeCascade builds the update set for correcting tripID's end_km to
// newEndKm. The target trip keeps its start_km and gets the new end_km;
// every later trip of the vehicle (ordered by trip_end_date) has both
// readings shifted by the same delta, so each keeps its recorded distance.
// A correction to the current stored value yields a single no-op entry.
//
// The target is always re-read from the store, so repeated corrections of
// the same trip each compute from current state, never a cached value.
func (e *Engine) ComputeCascade(ctx context.Context, tripID string, newEndKm int64) (*Plan, error) {
	if newEndKm < 0 {
		return nil, &ValidationError{TripID: tripID, Reason: "new end_km must be non-negative"}
	}

	target, err := e.trips.GetTrip(ctx, tripID)
	if err != nil {
		if errors.Is(err, db.ErrTripNotFound) {
			return nil, &ValidationError{TripID: tripID, Reason: "trip not found", Err: err}
		}
		return nil, err
	}

	plan := &Plan{
		Target:   *target,
		NewEndKm: newEndKm,
		Delta:    newEndKm - target.EndKm,
	}
	plan.Changes = append(plan.Changes, models.TripChange{
		TripID:     target.ID.Hex(),
		SerialNo:   target.SerialNo,
		OldStartKm: target.StartKm,
		NewStartKm: target.StartKm, // the direct edit touches end_km only
		OldEndKm:   target.EndKm,
		NewEndKm:   newEndKm,
	})
	if plan.Delta == 0 {
		return plan, nil
	}

	subsequent, err := e.trips.ListTripsForVehicle(ctx, target.VehicleID, target.TripEndDate)
	if err != nil {
		return nil, err
	}
	for _, trip := range subsequent {
		if trip.ID == target.ID {
			continue
		}
		plan.Changes = append(plan.Changes, models.TripChange{
			TripID:     trip.ID.Hex(),
			SerialNo:   trip.SerialNo,
			OldStartKm: trip.StartKm,
			NewStartKm: trip.StartKm + plan.Delta,
			OldEndKm:   trip.EndKm,
			NewEndKm:   trip.EndKm + plan.Delta,
			Cascaded:   true,
		})
	}
	return plan, nil
}
