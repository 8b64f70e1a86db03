package core

import (
	"github.com/holiman/uint256"
)

// Participant is an opaque principal identifier. Participants exist only as
// keys into the bid ledger and the pending-returns escrow.
type Participant string

// BidCommitment is one slot in a participant's bid ledger: the hash the
// bidder committed to during the bidding phase plus the amount escrowed with
// it. CommitmentHash is cleared (set to "") once the slot has been revealed
// and settled, so a repeated reveal cannot re-apply its effect.
// EscrowedAmount is never mutated after placement.
type BidCommitment struct {
	CommitmentHash string
	EscrowedAmount *uint256.Int
}

// Consumed reports whether this slot has already been settled by a reveal.
func (b *BidCommitment) Consumed() bool {
	return b.CommitmentHash == ""
}

// BidInfo is the read-only view of a ledger slot returned by queries.
type BidInfo struct {
	CommitmentHash string       `json:"commitment_hash"`
	EscrowedAmount *uint256.Int `json:"escrowed_amount"`
	Consumed       bool         `json:"consumed"`
}

// EndedEvent is the auction-ended notification emitted by Finalize.
// Winner is empty when no valid bid was ever promoted; Amount is then zero.
type EndedEvent struct {
	Winner Participant  `json:"winner,omitempty"`
	Amount *uint256.Int `json:"amount"`
}
