package correction

import (
	"context"
	"time"

	"github.com/ukydev/fleet-operations/internal/db"
	"github.com/ukydev/fleet-operations/internal/models"
)

// Recorder writes the append-only correction history and audit trail.
type Recorder struct {
	store db.CorrectionStore
}

// NewRecorder creates an audit trail recorder over the given store.
func NewRecorder(store db.CorrectionStore) *Recorder {
	return &Recorder{store: store}
}

// BuildTrail derives the Correction record and one AuditEntry per changed
// trip from a committed plan. Before/after values come from the plan, which
// captured them when state was read, not from re-reading mutated records.
// Cascaded entries carry the directly edited trip's id as cascade_source.
func BuildTrail(plan *Plan, reason, actor, correlationID string, at time.Time) (*models.Correction, []models.AuditEntry) {
	targetID := plan.Target.ID.Hex()

	corr := &models.Correction{
		TripID:            targetID,
		FieldName:         models.FieldEndKm,
		OldValue:          models.FieldValue{Field: models.FieldEndKm, Value: plan.Target.EndKm},
		NewValue:          models.FieldValue{Field: models.FieldEndKm, Value: plan.NewEndKm},
		Reason:            reason,
		AffectsSubsequent: plan.AffectsSubsequent(),
		Actor:             actor,
		CorrelationID:     correlationID,
		CorrectedAt:       at,
	}

	entries := make([]models.AuditEntry, 0, len(plan.Changes))
	for _, change := range plan.Changes {
		entry := models.AuditEntry{
			EntityType:    models.EntityTypeTrip,
			EntityID:      change.TripID,
			Reason:        reason,
			Actor:         actor,
			CorrelationID: correlationID,
			VehicleID:     plan.Target.VehicleID,
			SerialNo:      change.SerialNo,
			Timestamp:     at,
		}
		if change.Cascaded {
			entry.CascadeSource = targetID
			entry.Before = map[string]int64{
				models.FieldStartKm: change.OldStartKm,
				models.FieldEndKm:   change.OldEndKm,
			}
			entry.After = map[string]int64{
				models.FieldStartKm: change.NewStartKm,
				models.FieldEndKm:   change.NewEndKm,
			}
		} else {
			// Only end_km changes on the direct edit.
			entry.Before = map[string]int64{models.FieldEndKm: change.OldEndKm}
			entry.After = map[string]int64{models.FieldEndKm: change.NewEndKm}
		}
		entries = append(entries, entry)
	}
	return corr, entries
}

// Record persists a correction and its audit entries. Failures surface as
// AuditError; the committed correction they describe is already durable.
func (r *Recorder) Record(ctx context.Context, correction *models.Correction, entries []models.AuditEntry) error {
	if err := r.store.InsertCorrection(ctx, correction); err != nil {
		return &AuditError{TripID: correction.TripID, Err: err}
	}
	if err := r.store.InsertAuditEntries(ctx, entries); err != nil {
		return &AuditError{TripID: correction.TripID, Err: err}
	}
	return nil
}
