package core

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/check"
)

func TestPhaseAt_Transitions(t *testing.T) {
	biddingEnd := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	revealEnd := biddingEnd.Add(1 * time.Hour)

	check.Equal(t, PhaseBidding, PhaseAt(biddingEnd.Add(-time.Second), biddingEnd, revealEnd))

	// Boundaries are half-open: the boundary instant belongs to the next phase.
	check.Equal(t, PhaseRevealing, PhaseAt(biddingEnd, biddingEnd, revealEnd))
	check.Equal(t, PhaseRevealing, PhaseAt(revealEnd.Add(-time.Second), biddingEnd, revealEnd))
	check.Equal(t, PhaseClosed, PhaseAt(revealEnd, biddingEnd, revealEnd))
	check.Equal(t, PhaseClosed, PhaseAt(revealEnd.Add(time.Hour), biddingEnd, revealEnd))
}

func TestPhase_String(t *testing.T) {
	check.Equal(t, "bidding", PhaseBidding.String())
	check.Equal(t, "revealing", PhaseRevealing.String())
	check.Equal(t, "closed", PhaseClosed.String())
	check.Equal(t, "unknown", Phase(42).String())
}
