package correction

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-operations/internal/db"
	"github.com/ukydev/fleet-operations/internal/models"
	"github.com/ukydev/fleet-operations/internal/notify"
)

// Service orchestrates odometer corrections: plan computation, atomic
// commit, derived-metric recalculation, audit recording, and notification.
// Corrections for one vehicle are serialized by a per-vehicle lock held from
// plan computation through commit; different vehicles proceed in parallel.
type Service struct {
	engine      *Engine
	gateway     *Gateway
	recalc      *Recalculator
	recorder    *Recorder
	corrections db.CorrectionStore
	notifier    notify.Publisher

	mu           sync.Mutex
	vehicleLocks map[string]*sync.Mutex
}

// NewService creates the correction service. notifier may be nil, in which
// case no correction events are published.
func NewService(trips db.TripStore, corrections db.CorrectionStore, notifier notify.Publisher) *Service {
	return &Service{
		engine:       NewEngine(trips),
		gateway:      NewGateway(trips),
		recalc:       NewRecalculator(trips),
		recorder:     NewRecorder(corrections),
		corrections:  corrections,
		notifier:     notifier,
		vehicleLocks: make(map[string]*sync.Mutex),
	}
}

func (s *Service) vehicleLock(vehicleID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.vehicleLocks[vehicleID]
	if !ok {
		lock = &sync.Mutex{}
		s.vehicleLocks[vehicleID] = lock
	}
	return lock
}

// PreviewCascadeImpact computes the full impact of correcting tripID's
// end_km to newEndKm without mutating anything. The returned affected-trip
// list is identical to what CascadeOdometerCorrection with the same inputs
// would apply.
func (s *Service) PreviewCascadeImpact(ctx context.Context, tripID string, newEndKm int64) (*models.CascadeResult, error) {
	plan, err := s.engine.ComputeCascade(ctx, tripID, newEndKm)
	if err != nil {
		return &models.CascadeResult{Success: false, Error: err.Error()}, err
	}
	return &models.CascadeResult{Success: true, AffectedTrips: plan.Changes}, nil
}

// CascadeOdometerCorrection corrects tripID's end_km to newEndKm, shifting
// every later trip of the vehicle by the same delta. On commit success the
// vehicle's fuel-efficiency figures are recalculated from the corrected
// trip's date forward and the full before/after trail is recorded; failures
// of those follow-up stages do not roll back the committed correction and
// are reported as warnings on the result.
func (s *Service) CascadeOdometerCorrection(ctx context.Context, tripID string, newEndKm int64, reason, actor string) (*models.CascadeResult, error) {
	if reason == "" {
		err := &ValidationError{TripID: tripID, Reason: "a correction reason is required"}
		return &models.CascadeResult{Success: false, Error: err.Error()}, err
	}

	correlationID := uuid.NewString()
	machine := newRequestMachine(correlationID, tripID)
	logger := log.WithFields(log.Fields{
		"correlation_id": correlationID,
		"trip_id":        tripID,
		"new_end_km":     newEndKm,
		"actor":          actor,
	})

	// The target must be read once outside the plan to learn which
	// vehicle's chain to lock; the plan itself re-reads under the lock.
	target, err := s.engine.trips.GetTrip(ctx, tripID)
	if err != nil {
		_ = machine.Event(ctx, eventFail)
		if errors.Is(err, db.ErrTripNotFound) {
			err = &ValidationError{TripID: tripID, Reason: "trip not found", Err: err}
		}
		return &models.CascadeResult{Success: false, CorrelationID: correlationID, Error: err.Error()}, err
	}

	lock := s.vehicleLock(target.VehicleID)
	lock.Lock()
	defer lock.Unlock()

	plan, err := s.engine.ComputeCascade(ctx, tripID, newEndKm)
	if err != nil {
		_ = machine.Event(ctx, eventFail)
		return &models.CascadeResult{Success: false, CorrelationID: correlationID, Error: err.Error()}, err
	}
	_ = machine.Event(ctx, eventPlan)

	if plan.Delta == 0 {
		_ = machine.Event(ctx, eventFinish)
		logger.Info("odometer correction is a no-op, nothing to update")
		return &models.CascadeResult{
			Success:       true,
			CorrelationID: correlationID,
			AffectedTrips: plan.Changes,
		}, nil
	}

	_ = machine.Event(ctx, eventCommit)
	if err := s.gateway.Commit(ctx, plan); err != nil {
		_ = machine.Event(ctx, eventFail)
		logger.WithError(err).Warn("odometer correction commit failed")
		return &models.CascadeResult{Success: false, CorrelationID: correlationID, Error: err.Error()}, err
	}
	_ = machine.Event(ctx, eventCommitted)

	result := &models.CascadeResult{
		Success:       true,
		CorrelationID: correlationID,
		AffectedTrips: plan.Changes,
	}

	_ = machine.Event(ctx, eventRecalculate)
	updated, err := s.recalc.Recalculate(ctx, plan.Target.VehicleID, plan.FromDate())
	if err != nil {
		// The corrected odometer values are already durable; derived
		// metrics catch up via remediation.
		logger.WithError(err).Error("kmpl recalculation failed after committed correction")
		result.Warnings = append(result.Warnings, err.Error())
	}

	_ = machine.Event(ctx, eventAudit)
	corr, entries := BuildTrail(plan, reason, actor, correlationID, time.Now())
	if err := s.recorder.Record(ctx, corr, entries); err != nil {
		logger.WithError(err).Error("audit recording failed after committed correction")
		result.Warnings = append(result.Warnings, err.Error())
	}

	if s.notifier != nil {
		if err := s.notifier.CorrectionApplied(ctx, plan.Target.VehicleID, result); err != nil {
			logger.WithError(err).Warn("correction event publish failed")
			result.Warnings = append(result.Warnings, err.Error())
		}
	}
	_ = machine.Event(ctx, eventFinish)

	logger.WithFields(log.Fields{
		"delta":          plan.Delta,
		"affected_trips": len(plan.Changes),
		"kmpl_updates":   updated,
		"final_state":    machine.Current(),
	}).Info("odometer correction committed")
	return result, nil
}

// GetCorrectionHistory returns the trip's corrections, most recent first.
func (s *Service) GetCorrectionHistory(ctx context.Context, tripID string) ([]models.Correction, error) {
	return s.corrections.ListCorrectionsForTrip(ctx, tripID)
}

// GetAuditTrail returns the trip's audit entries, most recent first,
// including entries cascaded onto it by corrections of earlier trips.
func (s *Service) GetAuditTrail(ctx context.Context, tripID string) ([]models.AuditEntry, error) {
	return s.corrections.ListAuditEntriesForTrip(ctx, tripID)
}
