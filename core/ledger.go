package core

import (
	"github.com/holiman/uint256"
)

// ledgerState is the complete mutable state of one auction: the bid ledger,
// the pending-returns escrow, and the highest-bid record. Operations mutate
// a deep copy and commit it by pointer swap, so any failure leaves the live
// state untouched.
type ledgerState struct {
	bids          map[Participant][]BidCommitment
	pending       map[Participant]*uint256.Int
	highestBid    *uint256.Int
	highestBidder Participant // "" = none
	ended         bool
}

func newLedgerState() *ledgerState {
	return &ledgerState{
		bids:       make(map[Participant][]BidCommitment),
		pending:    make(map[Participant]*uint256.Int),
		highestBid: uint256.NewInt(0),
	}
}

func (s *ledgerState) clone() *ledgerState {
	c := &ledgerState{
		bids:          make(map[Participant][]BidCommitment, len(s.bids)),
		pending:       make(map[Participant]*uint256.Int, len(s.pending)),
		highestBid:    s.highestBid.Clone(),
		highestBidder: s.highestBidder,
		ended:         s.ended,
	}
	for p, seq := range s.bids {
		dup := make([]BidCommitment, len(seq))
		for i, b := range seq {
			dup[i] = BidCommitment{
				CommitmentHash: b.CommitmentHash,
				EscrowedAmount: b.EscrowedAmount.Clone(),
			}
		}
		c.bids[p] = dup
	}
	for p, amt := range s.pending {
		c.pending[p] = amt.Clone()
	}
	return c
}

// appendBid records a new commitment at the end of the participant's
// sequence. Insertion order is significant: reveal batches align
// index-for-index with it.
func (s *ledgerState) appendBid(p Participant, commitmentHash string, deposit *uint256.Int) {
	s.bids[p] = append(s.bids[p], BidCommitment{
		CommitmentHash: commitmentHash,
		EscrowedAmount: deposit.Clone(),
	})
}

// creditPending adds amount to the participant's withdrawable balance,
// failing closed on 256-bit overflow.
func (s *ledgerState) creditPending(p Participant, amount *uint256.Int) error {
	bal, ok := s.pending[p]
	if !ok {
		s.pending[p] = amount.Clone()
		return nil
	}
	sum := new(uint256.Int)
	if _, overflow := sum.AddOverflow(bal, amount); overflow {
		return ErrAmountOverflow
	}
	s.pending[p] = sum
	return nil
}
