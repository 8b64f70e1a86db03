package engineapi

import (
	"encoding/base64"
	"fmt"
)

// ReceiptCOSE holds raw COSE_Sign1 bytes of a signed settlement receipt.
type ReceiptCOSE []byte

// EncodeBase64 encodes raw COSE bytes for JSON transport.
func (r ReceiptCOSE) EncodeBase64() ReceiptCOSEBase64 {
	return ReceiptCOSEBase64(base64.StdEncoding.EncodeToString(r))
}

// ReceiptCOSEBase64 is a base64-encoded COSE_Sign1 settlement receipt.
type ReceiptCOSEBase64 string

func (r ReceiptCOSEBase64) String() string { return string(r) }

// Decode returns the raw COSE bytes.
func (r ReceiptCOSEBase64) Decode() (ReceiptCOSE, error) {
	raw, err := base64.StdEncoding.DecodeString(string(r))
	if err != nil {
		return nil, fmt.Errorf("decode receipt: %w", err)
	}
	return ReceiptCOSE(raw), nil
}

// SettlementReceipt is the CBOR payload signed into a COSE_Sign1 document
// when an auction finalizes. Amounts are decimal strings at the engine's
// monetary precision.
type SettlementReceipt struct {
	ReceiptID   string `cbor:"receipt_id"`
	AuctionID   string `cbor:"auction_id"`
	Beneficiary string `cbor:"beneficiary"`
	Winner      string `cbor:"winner,omitempty"`
	Amount      string `cbor:"amount"`

	// CommitmentDigest binds the receipt to every commitment placed in
	// the auction, in per-participant ledger order.
	CommitmentDigest string `cbor:"commitment_digest"`

	Nonce         string `cbor:"nonce"`
	TimestampUnix int64  `cbor:"timestamp_unix"`
}
