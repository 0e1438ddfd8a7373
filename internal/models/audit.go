package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EntityTypeTrip is the entity type recorded on trip audit entries.
const EntityTypeTrip = "trip"

// AuditEntry is an immutable before/after record of one change to one
// entity. Before and After hold only the fields that actually changed, with
// the values read before the mutation was applied. CascadeSource is the id
// of the trip whose direct edit triggered this entry; it is empty on the
// entry for the direct edit itself.
type AuditEntry struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	EntityType    string             `json:"entity_type" bson:"entity_type"`
	EntityID      string             `json:"entity_id" bson:"entity_id"`
	Before        map[string]int64   `json:"before" bson:"before"`
	After         map[string]int64   `json:"after" bson:"after"`
	Reason        string             `json:"reason" bson:"reason"`
	CascadeSource string             `json:"cascade_source,omitempty" bson:"cascade_source,omitempty"`
	Actor         string             `json:"actor" bson:"actor"`
	CorrelationID string             `json:"correlation_id" bson:"correlation_id"`
	VehicleID     string             `json:"vehicle_id" bson:"vehicle_id"` // denormalized for readable history
	SerialNo      string             `json:"serial_no" bson:"serial_no"`
	Timestamp     time.Time          `json:"timestamp" bson:"timestamp"`
}
