package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/veraison/go-cose"

	"github.com/cloudx-io/blindauction/core"
	"github.com/cloudx-io/blindauction/engineapi"
)

// generateSecureRandomBytes generates cryptographically secure random bytes.
// Uses crypto/rand which automatically leverages the best available entropy:
// - In NSM enclave: crypto/rand uses NSM-enhanced kernel entropy pool
// - In development: crypto/rand uses standard kernel entropy pool
func generateSecureRandomBytes(length int) ([]byte, error) {
	randomBytes := make([]byte, length)
	if _, err := rand.Read(randomBytes); err != nil {
		return nil, fmt.Errorf("entropy generation failed: %w", err)
	}
	return randomBytes, nil
}

func generateNonce() (string, error) {
	randomBytes, err := generateSecureRandomBytes(32) // 256 bits of entropy
	if err != nil {
		return "", fmt.Errorf("failed to generate secure nonce - %w", err)
	}
	return hex.EncodeToString(randomBytes), nil
}

// computeLedgerDigest hashes the auction's final ledger state: every
// participant's slots in ledger order, with the consumed flag and escrowed
// amount, salted with the receipt nonce.
//
// Formula: SHA256(nonce + "|" + participant + ":" + index + ":" + hash + ":" + amount + ":" + consumed + "|" + ...)
// Participants are sorted to ensure deterministic digest calculation.
func computeLedgerDigest(a *core.Auction, nonce string) (string, error) {
	data := nonce
	for _, p := range a.Participants() {
		count := a.BidCount(p)
		for i := 0; i < count; i++ {
			info, err := a.BidAt(p, i)
			if err != nil {
				return "", fmt.Errorf("ledger digest: %w", err)
			}
			data += fmt.Sprintf("|%s:%d:%s:%s:%t",
				p, i, info.CommitmentHash, core.FormatAmount(info.EscrowedAmount), info.Consumed)
		}
	}
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash), nil
}

// GenerateSettlementReceipt signs a COSE_Sign1 settlement receipt for a
// finalized auction, binding the outcome to the final ledger state.
func GenerateSettlementReceipt(signer *SignerManager, auctionID string, a *core.Auction, ev core.EndedEvent) (engineapi.ReceiptCOSE, error) {
	if signer == nil {
		return nil, fmt.Errorf("receipt signer is nil")
	}

	nonce, err := generateNonce()
	if err != nil {
		return nil, fmt.Errorf("failed to generate receipt nonce: %w", err)
	}

	digest, err := computeLedgerDigest(a, nonce)
	if err != nil {
		return nil, err
	}

	receipt := engineapi.SettlementReceipt{
		ReceiptID:        uuid.NewString(),
		AuctionID:        auctionID,
		Beneficiary:      string(a.Beneficiary()),
		Winner:           string(ev.Winner),
		Amount:           core.FormatAmount(ev.Amount),
		CommitmentDigest: digest,
		Nonce:            nonce,
		TimestampUnix:    time.Now().Unix(),
	}

	payload, err := cbor.Marshal(receipt)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal receipt payload: %w", err)
	}

	coseSigner, err := signer.coseSigner()
	if err != nil {
		return nil, err
	}

	headers := cose.Headers{
		Protected: cose.ProtectedHeader{
			cose.HeaderLabelAlgorithm: cose.AlgorithmES384,
		},
	}
	signed, err := cose.Sign1(rand.Reader, coseSigner, headers, payload, nil)
	if err != nil {
		return nil, fmt.Errorf("COSE signing failed: %w", err)
	}

	log.Printf("INFO: Settlement receipt %s signed for auction %s: %d bytes", receipt.ReceiptID, auctionID, len(signed))
	return engineapi.ReceiptCOSE(signed), nil
}
