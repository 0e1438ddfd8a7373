package db

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/fleet-operations/internal/models"
)

// ErrInjectedFailure is returned by a MemoryStore write when fault injection
// is armed. Tests use it to simulate a backend failing mid-transaction.
var ErrInjectedFailure = errors.New("injected store failure")

type txKey struct{}

// MemoryStore is an in-memory implementation of TripStore and
// CorrectionStore used for tests and local development. A transaction takes
// a snapshot of the trips map and restores it when the callback fails, so
// the all-or-nothing contract matches the Mongo implementation.
type MemoryStore struct {
	mu          sync.Mutex
	trips       map[string]models.Trip
	corrections []models.Correction
	audits      []models.AuditEntry

	// Fault injection, configured before use.
	failOdometerAfter int // fail the Nth odometer write (0-based); -1 disables
	odometerWrites    int
	FailKmplWrites    bool
	FailAuditWrites   bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		trips:             make(map[string]models.Trip),
		failOdometerAfter: -1,
	}
}

// FailOdometerWriteAt arms fault injection: the n-th subsequent odometer
// write (0-based) returns ErrInjectedFailure. Pass -1 to disarm.
func (s *MemoryStore) FailOdometerWriteAt(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOdometerAfter = n
	s.odometerWrites = 0
}

// lock acquires the store mutex unless ctx is already inside a transaction,
// which holds the mutex for its whole duration.
func (s *MemoryStore) lock(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// GetTrip finds a trip by id. Returns a copy; callers cannot mutate stored
// state through it.
func (s *MemoryStore) GetTrip(ctx context.Context, id string) (*models.Trip, error) {
	defer s.lock(ctx)()
	trip, ok := s.trips[id]
	if !ok {
		return nil, ErrTripNotFound
	}
	return &trip, nil
}

// InsertTrip stores a trip and returns its hex id.
func (s *MemoryStore) InsertTrip(ctx context.Context, trip *models.Trip) (string, error) {
	defer s.lock(ctx)()
	if trip.ID.IsZero() {
		trip.ID = primitive.NewObjectID()
	}
	now := time.Now()
	if trip.CreatedAt.IsZero() {
		trip.CreatedAt = now
	}
	trip.UpdatedAt = now
	s.trips[trip.ID.Hex()] = *trip
	return trip.ID.Hex(), nil
}

// ListTripsForVehicle returns the vehicle's trips with trip_end_date >= from,
// ordered ascending by trip_end_date.
func (s *MemoryStore) ListTripsForVehicle(ctx context.Context, vehicleID string, from time.Time) ([]models.Trip, error) {
	defer s.lock(ctx)()
	var trips []models.Trip
	for _, trip := range s.trips {
		if trip.VehicleID == vehicleID && !trip.TripEndDate.Before(from) {
			trips = append(trips, trip)
		}
	}
	sort.Slice(trips, func(i, j int) bool {
		return trips[i].TripEndDate.Before(trips[j].TripEndDate)
	})
	return trips, nil
}

// ListRefuelingTripsForVehicle returns refueling trips with positive fuel
// quantity and trip_end_date >= from, ordered ascending.
func (s *MemoryStore) ListRefuelingTripsForVehicle(ctx context.Context, vehicleID string, from time.Time) ([]models.Trip, error) {
	defer s.lock(ctx)()
	var trips []models.Trip
	for _, trip := range s.trips {
		if trip.VehicleID == vehicleID && trip.RefuelingDone && trip.FuelQuantity > 0 && !trip.TripEndDate.Before(from) {
			trips = append(trips, trip)
		}
	}
	sort.Slice(trips, func(i, j int) bool {
		return trips[i].TripEndDate.Before(trips[j].TripEndDate)
	})
	return trips, nil
}

// UpdateTripOdometer sets both odometer readings of one trip.
func (s *MemoryStore) UpdateTripOdometer(ctx context.Context, id string, startKm, endKm int64) error {
	defer s.lock(ctx)()
	if s.failOdometerAfter >= 0 && s.odometerWrites == s.failOdometerAfter {
		return ErrInjectedFailure
	}
	s.odometerWrites++
	trip, ok := s.trips[id]
	if !ok {
		return ErrTripNotFound
	}
	trip.StartKm = startKm
	trip.EndKm = endKm
	trip.UpdatedAt = time.Now()
	s.trips[id] = trip
	return nil
}

// UpdateCalculatedKmpl sets the derived fuel-efficiency figure of one trip.
func (s *MemoryStore) UpdateCalculatedKmpl(ctx context.Context, id string, kmpl float64) error {
	defer s.lock(ctx)()
	if s.FailKmplWrites {
		return ErrInjectedFailure
	}
	trip, ok := s.trips[id]
	if !ok {
		return ErrTripNotFound
	}
	trip.CalculatedKmpl = &kmpl
	trip.UpdatedAt = time.Now()
	s.trips[id] = trip
	return nil
}

// WithTransaction holds the store lock for the whole callback and restores
// the pre-call trip state if fn returns an error.
func (s *MemoryStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(map[string]models.Trip, len(s.trips))
	for id, trip := range s.trips {
		snapshot[id] = trip
	}

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.trips = snapshot
		return err
	}
	return nil
}

// InsertCorrection appends one correction record.
func (s *MemoryStore) InsertCorrection(ctx context.Context, correction *models.Correction) error {
	defer s.lock(ctx)()
	if correction.ID.IsZero() {
		correction.ID = primitive.NewObjectID()
	}
	if correction.CorrectedAt.IsZero() {
		correction.CorrectedAt = time.Now()
	}
	s.corrections = append(s.corrections, *correction)
	return nil
}

// InsertAuditEntries appends audit entries.
func (s *MemoryStore) InsertAuditEntries(ctx context.Context, entries []models.AuditEntry) error {
	defer s.lock(ctx)()
	if s.FailAuditWrites {
		return ErrInjectedFailure
	}
	for _, entry := range entries {
		if entry.ID.IsZero() {
			entry.ID = primitive.NewObjectID()
		}
		s.audits = append(s.audits, entry)
	}
	return nil
}

// ListCorrectionsForTrip returns the trip's corrections, most recent first.
func (s *MemoryStore) ListCorrectionsForTrip(ctx context.Context, tripID string) ([]models.Correction, error) {
	defer s.lock(ctx)()
	var out []models.Correction
	for i := len(s.corrections) - 1; i >= 0; i-- {
		if s.corrections[i].TripID == tripID {
			out = append(out, s.corrections[i])
		}
	}
	return out, nil
}

// ListAuditEntriesForTrip returns the trip's audit entries, most recent first.
func (s *MemoryStore) ListAuditEntriesForTrip(ctx context.Context, tripID string) ([]models.AuditEntry, error) {
	defer s.lock(ctx)()
	var out []models.AuditEntry
	for i := len(s.audits) - 1; i >= 0; i-- {
		if s.audits[i].EntityType == models.EntityTypeTrip && s.audits[i].EntityID == tripID {
			out = append(out, s.audits[i])
		}
	}
	return out, nil
}
