package db

import (
	"context"
	"errors"
	"time"

	"github.com/ukydev/fleet-operations/internal/models"
)

// ErrTripNotFound is returned when a trip id does not resolve to a record.
var ErrTripNotFound = errors.New("trip not found")

// TripStore defines the narrow trip persistence surface the correction
// engine depends on. List results are ordered ascending by trip_end_date,
// which is the chronological ordering key for a vehicle's trips.
type TripStore interface {
	GetTrip(ctx context.Context, id string) (*models.Trip, error)
	InsertTrip(ctx context.Context, trip *models.Trip) (string, error)
	ListTripsForVehicle(ctx context.Context, vehicleID string, from time.Time) ([]models.Trip, error)
	ListRefuelingTripsForVehicle(ctx context.Context, vehicleID string, from time.Time) ([]models.Trip, error)
	UpdateTripOdometer(ctx context.Context, id string, startKm, endKm int64) error
	UpdateCalculatedKmpl(ctx context.Context, id string, kmpl float64) error

	// WithTransaction runs fn atomically: every write made through the
	// fn-scoped context is visible after a nil return, and none are
	// visible if fn returns an error.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// CorrectionStore persists correction history and audit entries. The surface
// is append-only: there are no update or delete methods.
type CorrectionStore interface {
	InsertCorrection(ctx context.Context, correction *models.Correction) error
	InsertAuditEntries(ctx context.Context, entries []models.AuditEntry) error
	ListCorrectionsForTrip(ctx context.Context, tripID string) ([]models.Correction, error)
	ListAuditEntriesForTrip(ctx context.Context, tripID string) ([]models.AuditEntry, error)
}
