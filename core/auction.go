package core

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/holiman/uint256"
)

// Config describes one sealed-bid auction instance.
type Config struct {
	// Beneficiary receives the winning amount at finalization.
	Beneficiary Participant

	// BiddingEnd closes the bidding phase; RevealEnd closes the reveal
	// phase. BiddingEnd must precede RevealEnd.
	BiddingEnd time.Time
	RevealEnd  time.Time

	// Treasury executes outbound payments (refunds, withdrawals, the
	// final settlement).
	Treasury Treasury

	// Now supplies the current time for phase checks. Defaults to
	// time.Now.
	Now func() time.Time
}

// Auction is a sealed-bid auction engine. Participants place hash
// commitments with escrowed deposits during the bidding phase, reveal them
// during the reveal phase, and withdraw non-winning deposits at any time;
// the winning amount is settled to the beneficiary exactly once after the
// reveal window closes.
//
// Every operation is atomic: it either commits all of its mutations or, on
// any failure, commits none of them. Outbound payments run strictly after
// internal bookkeeping, so a recursive call arriving through the treasury
// can never observe a balance it could claim twice.
type Auction struct {
	mu    sync.Mutex
	cfg   Config
	state *ledgerState
	ended chan EndedEvent
}

// New validates cfg and returns a fresh auction in the bidding phase
// (assuming cfg.BiddingEnd is in the future).
func New(cfg Config) (*Auction, error) {
	if cfg.Treasury == nil {
		return nil, errors.New("auction config: treasury is required")
	}
	if cfg.Beneficiary == "" {
		return nil, errors.New("auction config: beneficiary is required")
	}
	if !cfg.BiddingEnd.Before(cfg.RevealEnd) {
		return nil, errors.New("auction config: bidding end must precede reveal end")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Auction{
		cfg:   cfg,
		state: newLedgerState(),
		ended: make(chan EndedEvent, 1),
	}, nil
}

// Phase returns the phase in effect right now.
func (a *Auction) Phase() Phase {
	return PhaseAt(a.cfg.Now(), a.cfg.BiddingEnd, a.cfg.RevealEnd)
}

// checkPhase gates op on the given phase, returning a PhaseViolationError
// carrying the boundary that makes (or made) the operation valid.
func (a *Auction) checkPhase(op string, want Phase) error {
	have := a.Phase()
	if have == want {
		return nil
	}
	boundary := a.cfg.BiddingEnd
	if have > want {
		// Too late: report the boundary that ended the window.
		switch want {
		case PhaseBidding:
			boundary = a.cfg.BiddingEnd
		case PhaseRevealing:
			boundary = a.cfg.RevealEnd
		}
	} else {
		// Too early: report the boundary that opens the window.
		switch want {
		case PhaseRevealing:
			boundary = a.cfg.BiddingEnd
		case PhaseClosed:
			boundary = a.cfg.RevealEnd
		}
	}
	return &PhaseViolationError{Op: op, Phase: have, Boundary: boundary}
}

// PlaceBid appends a new commitment to the participant's ledger with the
// escrowed deposit. Allowed any number of times per participant during the
// bidding phase, including with a zero deposit.
func (a *Auction) PlaceBid(p Participant, commitmentHash string, deposit *uint256.Int) error {
	if commitmentHash == "" {
		return errors.New("place bid: empty commitment hash")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.checkPhase("place_bid", PhaseBidding); err != nil {
		return err
	}
	a.state.appendBid(p, commitmentHash, deposit)
	return nil
}

// Reveal consumes the participant's full reveal batch. The three input
// sequences must align index-for-index with the participant's ledger.
// Per slot, a correct (value, fake, secret) triple consumes the slot and
// settles it; an incorrect triple is a silent no-op for that slot,
// re-attemptable in a later call within the reveal phase. The accumulated
// refund is paid out once, after all bookkeeping for the call has
// committed. Returns the refunded total.
func (a *Auction) Reveal(p Participant, values []*uint256.Int, fakes []bool, secrets [][]byte) (*uint256.Int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.checkPhase("reveal", PhaseRevealing); err != nil {
		return nil, err
	}

	prev := a.state
	have := len(prev.bids[p])
	if len(values) != have || len(fakes) != have || len(secrets) != have {
		return nil, &MalformedRevealError{
			Want:    have,
			Values:  len(values),
			Fakes:   len(fakes),
			Secrets: len(secrets),
		}
	}

	next := prev.clone()
	seq := next.bids[p]
	refund := uint256.NewInt(0)

	for i := range seq {
		slot := &seq[i]
		if slot.Consumed() {
			continue
		}
		if !VerifyBidCommitment(slot.CommitmentHash, values[i], fakes[i], secrets[i]) {
			// Wrong secret, value, or fake flag: leave the slot
			// intact for a future correct reveal.
			continue
		}
		slot.CommitmentHash = ""

		deposit := slot.EscrowedAmount
		contribution := deposit

		// A real bid that claims no more than its escrow and strictly
		// beats the current leader becomes the new leading bid; only
		// the excess over the claim is refunded. A claim exceeding
		// the deposit is malformed and falls back to a full refund
		// with no promotion.
		if !fakes[i] && !values[i].Gt(deposit) && values[i].Gt(next.highestBid) {
			if next.highestBidder != "" {
				if err := next.creditPending(next.highestBidder, next.highestBid); err != nil {
					return nil, fmt.Errorf("reveal: displaced bidder credit: %w", err)
				}
			}
			next.highestBidder = p
			next.highestBid = values[i].Clone()
			contribution = new(uint256.Int).Sub(deposit, values[i])
		}

		if _, overflow := refund.AddOverflow(refund, contribution); overflow {
			return nil, fmt.Errorf("reveal: refund accumulation: %w", ErrAmountOverflow)
		}
	}

	a.state = next

	if !refund.IsZero() {
		if err := a.cfg.Treasury.Transfer(p, refund); err != nil {
			a.state = prev
			return nil, fmt.Errorf("reveal: refund transfer: %w", err)
		}
	}
	return refund.Clone(), nil
}

// Withdraw pays out the participant's pending-returns balance and zeroes
// it. Returns the amount paid; zero (with no error and no transfer) when
// nothing was owed. Callable in any phase, including after finalization.
func (a *Auction) Withdraw(p Participant) (*uint256.Int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	bal, ok := a.state.pending[p]
	if !ok || bal.IsZero() {
		return uint256.NewInt(0), nil
	}

	amount := bal.Clone()
	// Zero before paying: a recursive call through the treasury sees an
	// already-empty balance.
	delete(a.state.pending, p)

	if err := a.cfg.Treasury.Transfer(p, amount); err != nil {
		a.state.pending[p] = amount.Clone()
		return nil, fmt.Errorf("withdraw: payout transfer: %w", err)
	}
	return amount, nil
}

// Finalize ends the auction: it marks the auction ended, transfers the
// winning amount to the beneficiary, and emits the auction-ended event.
// Valid only after the reveal window closes, and only once. With no
// promoted bid it still succeeds and settles zero.
func (a *Auction) Finalize() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.checkPhase("finalize", PhaseClosed); err != nil {
		return err
	}
	if a.state.ended {
		return ErrAlreadyFinalized
	}

	a.state.ended = true
	amount := a.state.highestBid.Clone()

	if !amount.IsZero() {
		if err := a.cfg.Treasury.Transfer(a.cfg.Beneficiary, amount); err != nil {
			a.state.ended = false
			return fmt.Errorf("finalize: settlement transfer: %w", err)
		}
	}

	// Buffer size 1 and the ended flag together guarantee this send
	// happens at most once and never blocks.
	a.ended <- EndedEvent{Winner: a.state.highestBidder, Amount: amount}
	return nil
}

// EndedEvents returns the channel on which the single auction-ended
// notification is delivered.
func (a *Auction) EndedEvents() <-chan EndedEvent {
	return a.ended
}

// HighestBid returns the current leading bid amount (zero if none).
func (a *Auction) HighestBid() *uint256.Int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.highestBid.Clone()
}

// HighestBidder returns the current leading bidder, ok=false if no bid has
// been promoted yet.
func (a *Auction) HighestBidder() (Participant, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.highestBidder, a.state.highestBidder != ""
}

// Ended reports whether Finalize has completed.
func (a *Auction) Ended() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.ended
}

// BiddingEnd returns the bidding-phase boundary.
func (a *Auction) BiddingEnd() time.Time { return a.cfg.BiddingEnd }

// RevealEnd returns the reveal-phase boundary.
func (a *Auction) RevealEnd() time.Time { return a.cfg.RevealEnd }

// Beneficiary returns the configured settlement recipient.
func (a *Auction) Beneficiary() Participant { return a.cfg.Beneficiary }

// PendingReturns returns the participant's withdrawable balance.
func (a *Auction) PendingReturns(p Participant) *uint256.Int {
	a.mu.Lock()
	defer a.mu.Unlock()

	if bal, ok := a.state.pending[p]; ok {
		return bal.Clone()
	}
	return uint256.NewInt(0)
}

// BidCount returns the number of commitments the participant has placed.
func (a *Auction) BidCount(p Participant) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.state.bids[p])
}

// BidAt returns the commitment metadata at the given ledger index.
func (a *Auction) BidAt(p Participant, i int) (BidInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	seq := a.state.bids[p]
	if i < 0 || i >= len(seq) {
		return BidInfo{}, fmt.Errorf("bid index %d out of range for %s (have %d)", i, p, len(seq))
	}
	b := seq[i]
	return BidInfo{
		CommitmentHash: b.CommitmentHash,
		EscrowedAmount: b.EscrowedAmount.Clone(),
		Consumed:       b.Consumed(),
	}, nil
}

// Participants returns every participant with at least one ledger entry,
// sorted for deterministic iteration.
func (a *Auction) Participants() []Participant {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]Participant, 0, len(a.state.bids))
	for p := range a.state.bids {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// EscrowedUnrevealed returns the sum of deposits still held in unconsumed
// ledger slots across all participants. Exposed for conservation auditing.
func (a *Auction) EscrowedUnrevealed() (*uint256.Int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	total := uint256.NewInt(0)
	for _, seq := range a.state.bids {
		for i := range seq {
			if seq[i].Consumed() {
				continue
			}
			if _, overflow := total.AddOverflow(total, seq[i].EscrowedAmount); overflow {
				return nil, ErrAmountOverflow
			}
		}
	}
	return total, nil
}

// TotalPendingReturns returns the sum of all withdrawable balances.
// Exposed for conservation auditing.
func (a *Auction) TotalPendingReturns() (*uint256.Int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	total := uint256.NewInt(0)
	for _, bal := range a.state.pending {
		if _, overflow := total.AddOverflow(total, bal); overflow {
			return nil, ErrAmountOverflow
		}
	}
	return total, nil
}
