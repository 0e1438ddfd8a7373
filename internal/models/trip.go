package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Trip represents one recorded vehicle movement. StartKm/EndKm are the
// odometer readings at trip start and end; TripEndDate is the chronological
// ordering key for a vehicle's trips (not the record creation time).
type Trip struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	VehicleID      string             `json:"vehicle_id" bson:"vehicle_id"`
	DriverID       string             `json:"driver_id" bson:"driver_id"`
	SerialNo       string             `json:"serial_no" bson:"serial_no"` // registration + per-vehicle sequence, assigned upstream
	StartKm        int64              `json:"start_km" bson:"start_km"`
	EndKm          int64              `json:"end_km" bson:"end_km"`
	TripEndDate    time.Time          `json:"trip_end_date" bson:"trip_end_date"`
	RefuelingDone  bool               `json:"refueling_done" bson:"refueling_done"`
	FuelQuantity   float64            `json:"fuel_quantity" bson:"fuel_quantity"` // in liters
	CalculatedKmpl *float64           `json:"calculated_kmpl" bson:"calculated_kmpl"`
	Notes          string             `json:"notes" bson:"notes"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}

// Distance returns the kilometers traveled on this trip.
func (t *Trip) Distance() int64 {
	return t.EndKm - t.StartKm
}

// ComputeKmpl derives the fuel efficiency for this trip. The second return
// value is false when the trip carries no usable fuel figure.
func (t *Trip) ComputeKmpl() (float64, bool) {
	if !t.RefuelingDone || t.FuelQuantity <= 0 {
		return 0, false
	}
	return float64(t.EndKm-t.StartKm) / t.FuelQuantity, true
}
