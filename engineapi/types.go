package engineapi

import (
	"encoding/base64"
	"fmt"
)

// Request type tags dispatched by the engine server.
const (
	TypePing          = "ping"
	TypeCreateAuction = "create_auction"
	TypePlaceBid      = "place_bid"
	TypeReveal        = "reveal"
	TypeWithdraw      = "withdraw"
	TypeFinalize      = "finalize"
	TypeStatus        = "status"
	TypeKeyRequest    = "key_request"
)

// BaseRequest carries the fields every request shares. The server decodes
// this first to dispatch on Type.
type BaseRequest struct {
	Type        string `json:"type"`
	AuctionID   string `json:"auction_id,omitempty"`
	Participant string `json:"participant,omitempty"`
}

// CreateAuctionRequest registers a new auction. Durations are relative to
// the engine's clock at creation time.
type CreateAuctionRequest struct {
	Type              string `json:"type"`
	Beneficiary       string `json:"beneficiary"`
	BiddingDurationMS int64  `json:"bidding_duration_ms"`
	RevealDurationMS  int64  `json:"reveal_duration_ms"`
}

// CreateAuctionResponse returns the assigned auction ID and the phase
// boundaries derived from the requested durations.
type CreateAuctionResponse struct {
	Type       string `json:"type"`
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	AuctionID  string `json:"auction_id"`
	BiddingEnd int64  `json:"bidding_end_unix_ms"`
	RevealEnd  int64  `json:"reveal_end_unix_ms"`
}

// PlaceBidRequest records a commitment with an escrowed deposit. Deposit is
// a decimal amount string (e.g. "3.5").
type PlaceBidRequest struct {
	Type           string `json:"type"`
	AuctionID      string `json:"auction_id"`
	Participant    string `json:"participant"`
	CommitmentHash string `json:"commitment_hash"`
	Deposit        string `json:"deposit"`
}

// PlaceBidResponse acknowledges a recorded commitment.
type PlaceBidResponse struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// RevealRequest carries a participant's full reveal batch, aligned
// index-for-index with their bid ledger. Values are decimal amount strings;
// Secrets are base64-encoded.
type RevealRequest struct {
	Type        string   `json:"type"`
	AuctionID   string   `json:"auction_id"`
	Participant string   `json:"participant"`
	Values      []string `json:"values"`
	Fakes       []bool   `json:"fakes"`
	Secrets     []string `json:"secrets"`
}

// DecodeSecrets decodes the base64 secrets into raw bytes.
func (r *RevealRequest) DecodeSecrets() ([][]byte, error) {
	secrets := make([][]byte, len(r.Secrets))
	for i, s := range r.Secrets {
		raw, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("decode secret %d: %w", i, err)
		}
		secrets[i] = raw
	}
	return secrets, nil
}

// EncodeSecrets is the client-side counterpart of DecodeSecrets.
func EncodeSecrets(secrets [][]byte) []string {
	out := make([]string, len(secrets))
	for i, s := range secrets {
		out[i] = base64.StdEncoding.EncodeToString(s)
	}
	return out
}

// RevealResponse reports the total refunded by the batched settlement.
type RevealResponse struct {
	Type     string `json:"type"`
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Refunded string `json:"refunded"`
}

// WithdrawRequest claims the participant's pending-returns balance.
type WithdrawRequest struct {
	Type        string `json:"type"`
	AuctionID   string `json:"auction_id"`
	Participant string `json:"participant"`
}

// WithdrawResponse reports the amount paid out ("0" when nothing was owed).
type WithdrawResponse struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Amount  string `json:"amount"`
}

// FinalizeRequest settles the auction to its beneficiary. The host accepts
// it only from the beneficiary itself.
type FinalizeRequest struct {
	Type        string `json:"type"`
	AuctionID   string `json:"auction_id"`
	Participant string `json:"participant"`
}

// FinalizeResponse carries the auction-ended notification plus a signed
// settlement receipt consumers can verify offline.
type FinalizeResponse struct {
	Type    string            `json:"type"`
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Winner  string            `json:"winner,omitempty"`
	Amount  string            `json:"amount"`
	Receipt ReceiptCOSEBase64 `json:"receipt,omitempty"`
}

// StatusRequest queries observable auction state. Participant is optional;
// when present the response includes that participant's pending balance and
// ledger slots.
type StatusRequest struct {
	Type        string `json:"type"`
	AuctionID   string `json:"auction_id"`
	Participant string `json:"participant,omitempty"`
}

// BidSlot is the wire view of one ledger slot.
type BidSlot struct {
	CommitmentHash string `json:"commitment_hash"`
	EscrowedAmount string `json:"escrowed_amount"`
	Consumed       bool   `json:"consumed"`
}

// StatusResponse mirrors the core's read-only queries.
type StatusResponse struct {
	Type           string    `json:"type"`
	Success        bool      `json:"success"`
	Message        string    `json:"message,omitempty"`
	Phase          string    `json:"phase"`
	HighestBid     string    `json:"highest_bid"`
	HighestBidder  string    `json:"highest_bidder,omitempty"`
	Ended          bool      `json:"ended"`
	BiddingEnd     int64     `json:"bidding_end_unix_ms"`
	RevealEnd      int64     `json:"reveal_end_unix_ms"`
	PendingReturns string    `json:"pending_returns,omitempty"`
	BidCount       int       `json:"bid_count,omitempty"`
	Bids           []BidSlot `json:"bids,omitempty"`
}

// KeyResponse publishes the engine's receipt-verification public key,
// optionally wrapped in an enclave attestation when the engine runs inside
// a Nitro enclave.
type KeyResponse struct {
	Type         string            `json:"type"`
	Success      bool              `json:"success"`
	Message      string            `json:"message,omitempty"`
	KeyAlgorithm string            `json:"key_algorithm"` // e.g. "ECDSA-P384"
	PublicKey    string            `json:"public_key"`    // PEM-encoded
	Attestation  ReceiptCOSEBase64 `json:"attestation,omitempty"`
}

// ErrorResponse is the uniform failure shape for all request types.
type ErrorResponse struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}
