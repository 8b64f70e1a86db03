package core

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrAlreadyFinalized is returned by Finalize after the first
	// successful call. Permanently non-retryable.
	ErrAlreadyFinalized = errors.New("auction already finalized")

	// ErrAmountOverflow is returned when an escrow accumulation would
	// exceed 256 bits. The whole operation aborts with no state change.
	ErrAmountOverflow = errors.New("amount accumulation overflows 256 bits")

	// ErrUnauthorized is returned by embeddings that restrict an
	// operation to a specific principal. The core itself never returns
	// it; it is defined here so hosts share one taxonomy.
	ErrUnauthorized = errors.New("operation restricted to a different principal")
)

// PhaseViolationError reports an operation invoked outside its allowed
// phase. Boundary is the timestamp at which the operation becomes valid
// (when called too early) or became invalid (when called too late), so the
// caller can decide whether to wait or abandon.
type PhaseViolationError struct {
	Op       string
	Phase    Phase // phase in effect at call time
	Boundary time.Time
}

func (e *PhaseViolationError) Error() string {
	return fmt.Sprintf("%s not allowed during %s phase (boundary %s)",
		e.Op, e.Phase, e.Boundary.UTC().Format(time.RFC3339))
}

// MalformedRevealError reports reveal input sequences whose lengths
// disagree with the caller's recorded bid count. No state change occurred.
type MalformedRevealError struct {
	Want    int // number of commitments the participant has placed
	Values  int
	Fakes   int
	Secrets int
}

func (e *MalformedRevealError) Error() string {
	return fmt.Sprintf("reveal shape mismatch: have %d commitments, got %d values, %d fakes, %d secrets",
		e.Want, e.Values, e.Fakes, e.Secrets)
}
