package main

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/cloudx-io/blindauction/core"
	"github.com/cloudx-io/blindauction/validation"
)

func newClosedAuction(t *testing.T) *core.Auction {
	t.Helper()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start}
	a, err := core.New(core.Config{
		Beneficiary: "beneficiary",
		BiddingEnd:  start.Add(time.Hour),
		RevealEnd:   start.Add(2 * time.Hour),
		Treasury:    core.NewRecordingTreasury(),
		Now:         clock.Now,
	})
	assert.Nil(t, err)

	secret := []byte("s")
	value := uint256.NewInt(20000)
	err = a.PlaceBid("alice", core.ComputeBidCommitment(value, false, secret), uint256.NewInt(20000))
	assert.Nil(t, err)

	clock.now = a.BiddingEnd()
	_, err = a.Reveal("alice", []*uint256.Int{value}, []bool{false}, [][]byte{secret})
	assert.Nil(t, err)

	clock.now = a.RevealEnd()
	assert.Nil(t, a.Finalize())
	return a
}

func TestGenerateSettlementReceipt_VerifiesAndDecodes(t *testing.T) {
	a := newClosedAuction(t)
	ev := <-a.EndedEvents()

	signer, err := NewSignerManager()
	assert.Nil(t, err)

	auctionID := uuid.NewString()
	raw, err := GenerateSettlementReceipt(signer, auctionID, a, ev)
	assert.Nil(t, err)

	keyPEM, err := signer.PublicKeyPEM()
	assert.Nil(t, err)
	check.Nil(t, validation.VerifyReceiptSignature(raw.EncodeBase64(), keyPEM))

	receipt, err := validation.ParseReceipt(raw)
	assert.Nil(t, err)
	check.Equal(t, auctionID, receipt.AuctionID)
	check.Equal(t, "alice", receipt.Winner)
	check.Equal(t, "2", receipt.Amount)
	check.Equal(t, "beneficiary", receipt.Beneficiary)
	check.Equal(t, 64, len(receipt.CommitmentDigest))
	check.NotEqual(t, "", receipt.Nonce)

	_, err = uuid.Parse(receipt.ReceiptID)
	check.Nil(t, err)
}

func TestGenerateSettlementReceipt_WrongKeyFailsVerification(t *testing.T) {
	a := newClosedAuction(t)
	ev := <-a.EndedEvents()

	signer, err := NewSignerManager()
	assert.Nil(t, err)
	raw, err := GenerateSettlementReceipt(signer, "auction-1", a, ev)
	assert.Nil(t, err)

	other, err := NewSignerManager()
	assert.Nil(t, err)
	otherPEM, err := other.PublicKeyPEM()
	assert.Nil(t, err)

	check.Error(t, validation.VerifyReceiptSignature(raw.EncodeBase64(), otherPEM))
}

func TestComputeLedgerDigest_DeterministicPerNonce(t *testing.T) {
	a := newClosedAuction(t)

	d1, err := computeLedgerDigest(a, "nonce-1")
	assert.Nil(t, err)
	d2, err := computeLedgerDigest(a, "nonce-1")
	assert.Nil(t, err)
	d3, err := computeLedgerDigest(a, "nonce-2")
	assert.Nil(t, err)

	check.Equal(t, d1, d2)
	check.NotEqual(t, d1, d3)
}
