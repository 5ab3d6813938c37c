package webhooks

import (
	"time"

	"github.com/goliatone/go-webhook-dispatch/core"
)

type Phase string

const (
	PhasePending    Phase = "pending"
	PhaseAttempting Phase = "attempting"
	PhaseRetrying   Phase = "retrying"
	PhaseDelivered  Phase = "delivered"
	PhaseFailed     Phase = "failed"
)

// State is the in-memory delivery state. Attempt is 1-based once attempting.
type State struct {
	Phase       Phase
	Attempt     int
	MaxAttempts int
}

// Start enters the first attempt. maxAttempts below one is treated as one.
func Start(maxAttempts int) State {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return State{Phase: PhaseAttempting, Attempt: 1, MaxAttempts: maxAttempts}
}

func (s State) Terminal() bool {
	return s.Phase == PhaseDelivered || s.Phase == PhaseFailed
}

// Next applies the outcome of the current attempt cycle.
func Next(s State, outcome AttemptOutcome) State {
	if s.Phase != PhaseAttempting {
		return s
	}
	switch {
	case outcome.Succeeded():
		s.Phase = PhaseDelivered
	case s.Attempt < s.MaxAttempts:
		s.Phase = PhaseRetrying
	default:
		s.Phase = PhaseFailed
	}
	return s
}

// Resume leaves the retrying phase for the next attempt. Any other phase is
// returned unchanged.
func Resume(s State) State {
	if s.Phase != PhaseRetrying || s.Attempt >= s.MaxAttempts {
		return s
	}
	s.Phase = PhaseAttempting
	s.Attempt++
	return s
}

// LedgerStatus maps a phase to the persisted delivery status.
func (s State) LedgerStatus() core.DeliveryStatus {
	switch s.Phase {
	case PhaseDelivered:
		return core.DeliveryStatusDelivered
	case PhaseFailed:
		return core.DeliveryStatusFailed
	case PhaseRetrying, PhaseAttempting:
		return core.DeliveryStatusRetrying
	default:
		return core.DeliveryStatusPending
	}
}

// DelayFor returns the wait after the given attempt, clamped to the last configured delay.
func DelayFor(delays []time.Duration, attempt int) time.Duration {
	if len(delays) == 0 {
		return 0
	}
	index := attempt - 1
	if index < 0 {
		index = 0
	}
	if index > len(delays)-1 {
		index = len(delays) - 1
	}
	if delays[index] < 0 {
		return 0
	}
	return delays[index]
}
