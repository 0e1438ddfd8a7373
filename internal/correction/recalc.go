package correction

import (
	"context"
	"math"
	"time"

	"github.com/ukydev/fleet-operations/internal/db"
)

// kmplEpsilon bounds float drift when deciding whether a stored kmpl figure
// already matches the re-derived one.
const kmplEpsilon = 1e-9

// Recalculator re-derives the calculated_kmpl figure for refueling trips.
// Re-running it on unchanged data produces no writes.
type Recalculator struct {
	trips db.TripStore
}

// NewRecalculator creates a mileage recalculator over the given trip store.
func NewRecalculator(trips db.TripStore) *Recalculator {
	return &Recalculator{trips: trips}
}

// Recalculate recomputes calculated_kmpl for every refueling trip of
// vehicleID with fuel_quantity > 0 and trip_end_date >= from, persisting
// only values that differ from the stored ones. It returns the number of
// trips updated. Scoping from the corrected trip's date forward is enough
// after a cascade: earlier trips cannot have changed.
func (r *Recalculator) Recalculate(ctx context.Context, vehicleID string, from time.Time) (int, error) {
	trips, err := r.trips.ListRefuelingTripsForVehicle(ctx, vehicleID, from)
	if err != nil {
		return 0, &RecalculationError{VehicleID: vehicleID, Err: err}
	}

	updated := 0
	for _, trip := range trips {
		kmpl, ok := trip.ComputeKmpl()
		if !ok {
			continue
		}
		if trip.CalculatedKmpl != nil && math.Abs(*trip.CalculatedKmpl-kmpl) <= kmplEpsilon {
			continue
		}
		if err := r.trips.UpdateCalculatedKmpl(ctx, trip.ID.Hex(), kmpl); err != nil {
			return updated, &RecalculationError{VehicleID: vehicleID, Err: err}
		}
		updated++
	}
	return updated, nil
}
