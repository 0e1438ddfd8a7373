package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Field names that corrections and audit entries refer to.
const (
	FieldStartKm = "start_km"
	FieldEndKm   = "end_km"
)

// FieldValue is a structured old/new value for one corrected field. Kept as
// a tagged record rather than a formatted string so history can be queried
// without parsing.
type FieldValue struct {
	Field string `json:"field" bson:"field"`
	Value int64  `json:"value" bson:"value"`
}

// Correction is one field-level edit applied to one trip. Corrections are
// append-only history; they are never updated or deleted.
type Correction struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TripID            string             `json:"trip_id" bson:"trip_id"`
	FieldName         string             `json:"field_name" bson:"field_name"`
	OldValue          FieldValue         `json:"old_value" bson:"old_value"`
	NewValue          FieldValue         `json:"new_value" bson:"new_value"`
	Reason            string             `json:"reason" bson:"reason"`
	AffectsSubsequent bool               `json:"affects_subsequent" bson:"affects_subsequent"`
	Actor             string             `json:"actor" bson:"actor"`
	CorrelationID     string             `json:"correlation_id" bson:"correlation_id"`
	CorrectedAt       time.Time          `json:"corrected_at" bson:"corrected_at"`
}
