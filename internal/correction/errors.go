package correction

import "fmt"

// ValidationError reports invalid input to a correction request. Nothing has
// been read beyond the target trip and no state has been touched.
type ValidationError struct {
	TripID string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.TripID != "" {
		return fmt.Sprintf("validation failed for trip %s: %s", e.TripID, e.Reason)
	}
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// PersistenceError reports a failed atomic commit. No partial state is
// visible; the caller may retry from preview.
type PersistenceError struct {
	TripID string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("commit failed at trip %s: %v", e.TripID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ConflictError reports that the target trip's end_km changed between plan
// computation and commit. The caller must re-preview before retrying.
type ConflictError struct {
	TripID        string
	ExpectedEndKm int64
	ActualEndKm   int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("trip %s was modified concurrently: end_km is %d, plan expected %d",
		e.TripID, e.ActualEndKm, e.ExpectedEndKm)
}

// RecalculationError reports a failed derived-metric recalculation. The
// committed correction remains authoritative; the failure is non-fatal.
type RecalculationError struct {
	VehicleID string
	Err       error
}

func (e *RecalculationError) Error() string {
	return fmt.Sprintf("kmpl recalculation failed for vehicle %s: %v", e.VehicleID, e.Err)
}

func (e *RecalculationError) Unwrap() error { return e.Err }

// AuditError reports a failed audit trail write after a committed
// correction. Non-fatal; remediation is expected to backfill the trail.
type AuditError struct {
	TripID string
	Err    error
}

func (e *AuditError) Error() string {
	return fmt.Sprintf("audit recording failed for correction of trip %s: %v", e.TripID, e.Err)
}

func (e *AuditError) Unwrap() error { return e.Err }
