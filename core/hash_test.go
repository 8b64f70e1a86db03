package core

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/peterldowns/testy/check"
)

func TestComputeBidCommitment_Deterministic(t *testing.T) {
	value := uint256.NewInt(31000)
	secret := []byte("y")

	h1 := ComputeBidCommitment(value, false, secret)
	h2 := ComputeBidCommitment(value, false, secret)

	check.Equal(t, h1, h2)
	check.Equal(t, 64, len(h1)) // sha256 hex
}

func TestComputeBidCommitment_DistinguishesInputs(t *testing.T) {
	value := uint256.NewInt(31000)
	secret := []byte("y")
	base := ComputeBidCommitment(value, false, secret)

	// Any change to value, fake flag, or secret produces a different hash.
	check.NotEqual(t, base, ComputeBidCommitment(uint256.NewInt(31001), false, secret))
	check.NotEqual(t, base, ComputeBidCommitment(value, true, secret))
	check.NotEqual(t, base, ComputeBidCommitment(value, false, []byte("z")))
}

func TestVerifyBidCommitment(t *testing.T) {
	value := uint256.NewInt(20000)
	secret := []byte("x")
	commitment := ComputeBidCommitment(value, true, secret)

	check.True(t, VerifyBidCommitment(commitment, value, true, secret))
	check.False(t, VerifyBidCommitment(commitment, value, false, secret))
	check.False(t, VerifyBidCommitment(commitment, uint256.NewInt(20001), true, secret))
	check.False(t, VerifyBidCommitment(commitment, value, true, []byte("X")))
}

func TestVerifyBidCommitment_ConsumedSlotNeverMatches(t *testing.T) {
	// A zeroed slot hash must not verify against any triple, including
	// the empty string itself.
	check.False(t, VerifyBidCommitment("", uint256.NewInt(0), false, nil))
	check.False(t, VerifyBidCommitment("", uint256.NewInt(0), true, []byte{}))
}
