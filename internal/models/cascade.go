package models

// TripChange describes the planned or applied odometer change for one trip.
// The directly edited trip comes first with Cascaded=false; every subsequent
// trip in the vehicle's chain follows in chronological order.
type TripChange struct {
	TripID     string `json:"trip_id" bson:"trip_id"`
	SerialNo   string `json:"serial_no" bson:"serial_no"`
	OldStartKm int64  `json:"old_start_km" bson:"old_start_km"`
	NewStartKm int64  `json:"new_start_km" bson:"new_start_km"`
	OldEndKm   int64  `json:"old_end_km" bson:"old_end_km"`
	NewEndKm   int64  `json:"new_end_km" bson:"new_end_km"`
	Cascaded   bool   `json:"cascaded" bson:"cascaded"`
}

// CascadeResult is the outcome of a preview or a committed correction.
// Warnings carries non-fatal follow-up failures (recalculation, audit,
// notification) that do not invalidate an already committed correction.
type CascadeResult struct {
	Success       bool         `json:"success"`
	CorrelationID string       `json:"correlation_id,omitempty"`
	AffectedTrips []TripChange `json:"affected_trips"`
	Error         string       `json:"error,omitempty"`
	Warnings      []string     `json:"warnings,omitempty"`
}
