package core

import (
	"fmt"
	"sync"

	"github.com/holiman/uint256"
)

// Treasury executes outbound currency transfers. How funds physically move
// is a host concern; the engine only requires that a failed transfer return
// an error so the enclosing operation can roll back.
type Treasury interface {
	Transfer(to Participant, amount *uint256.Int) error
}

// RecordingTreasury is an in-memory Treasury that accumulates transfers per
// participant. Used by the engine host and by tests to observe payouts.
type RecordingTreasury struct {
	mu       sync.Mutex
	balances map[Participant]*uint256.Int
}

func NewRecordingTreasury() *RecordingTreasury {
	return &RecordingTreasury{balances: make(map[Participant]*uint256.Int)}
}

func (t *RecordingTreasury) Transfer(to Participant, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.balances == nil {
		t.balances = make(map[Participant]*uint256.Int)
	}
	bal, ok := t.balances[to]
	if !ok {
		t.balances[to] = amount.Clone()
		return nil
	}
	sum := new(uint256.Int)
	if _, overflow := sum.AddOverflow(bal, amount); overflow {
		return fmt.Errorf("transfer to %s: %w", to, ErrAmountOverflow)
	}
	t.balances[to] = sum
	return nil
}

// Paid returns the total amount transferred to the participant so far.
func (t *RecordingTreasury) Paid(p Participant) *uint256.Int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if bal, ok := t.balances[p]; ok {
		return bal.Clone()
	}
	return uint256.NewInt(0)
}

// TotalPaid returns the sum of all transfers across participants.
func (t *RecordingTreasury) TotalPaid() *uint256.Int {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := uint256.NewInt(0)
	for _, bal := range t.balances {
		total.Add(total, bal)
	}
	return total
}
