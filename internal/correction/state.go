package correction

import (
	"context"

	"github.com/looplab/fsm"
	log "github.com/sirupsen/logrus"
)

// Lifecycle states of one correction request.
const (
	stateValidating    = "validating"
	statePlanned       = "planned"
	stateCommitting    = "committing"
	stateCommitted     = "committed"
	stateRecalculating = "recalculating"
	stateAuditing      = "auditing"
	stateDone          = "done"
	stateFailed        = "failed"
)

// Events driving the request lifecycle. Failures are terminal per request;
// there is no retry transition, the caller starts over from preview.
const (
	eventPlan        = "plan"
	eventCommit      = "commit"
	eventCommitted   = "committed"
	eventRecalculate = "recalculate"
	eventAudit       = "audit"
	eventFinish      = "finish"
	eventFail        = "fail"
)

// newRequestMachine builds the per-request state machine and logs every
// transition with the request's correlation id.
func newRequestMachine(correlationID, tripID string) *fsm.FSM {
	return fsm.NewFSM(
		stateValidating,
		fsm.Events{
			{Name: eventPlan, Src: []string{stateValidating}, Dst: statePlanned},
			{Name: eventCommit, Src: []string{statePlanned}, Dst: stateCommitting},
			{Name: eventCommitted, Src: []string{stateCommitting}, Dst: stateCommitted},
			{Name: eventRecalculate, Src: []string{stateCommitted}, Dst: stateRecalculating},
			{Name: eventAudit, Src: []string{stateRecalculating}, Dst: stateAuditing},
			// A no-op correction completes straight from planned.
			{Name: eventFinish, Src: []string{stateAuditing, statePlanned}, Dst: stateDone},
			{Name: eventFail, Src: []string{stateValidating, statePlanned, stateCommitting}, Dst: stateFailed},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				log.WithFields(log.Fields{
					"correlation_id": correlationID,
					"trip_id":        tripID,
					"from":           e.Src,
					"to":             e.Dst,
				}).Debug("correction request state changed")
			},
		},
	)
}
