package core

import "time"

// Phase is the lifecycle stage of an auction, derived purely from the
// current time and the two configured boundaries.
type Phase int

const (
	// PhaseBidding accepts new bid commitments.
	PhaseBidding Phase = iota
	// PhaseRevealing accepts reveals of previously placed commitments.
	PhaseRevealing
	// PhaseClosed accepts only finalization (once) and withdrawals.
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseBidding:
		return "bidding"
	case PhaseRevealing:
		return "revealing"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// PhaseAt returns the phase in effect at now. Boundaries are half-open:
// biddingEnd itself already belongs to the revealing phase, revealEnd to the
// closed phase.
func PhaseAt(now, biddingEnd, revealEnd time.Time) Phase {
	if now.Before(biddingEnd) {
		return PhaseBidding
	}
	if now.Before(revealEnd) {
		return PhaseRevealing
	}
	return PhaseClosed
}
