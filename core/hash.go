package core

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"github.com/holiman/uint256"
)

// ComputeBidCommitment computes the commitment hash binding a bidder to a
// claimed value, a fake flag, and a secret. This is used by both bidders
// (to generate commitments before bidding) and the engine (to verify them
// during reveal).
//
// Formula: SHA256(value_decimal + "|" + fake + "|" + hex(secret))
//
// The value is rendered in decimal to ensure consistent hashing regardless
// of how the integer is represented in memory.
func ComputeBidCommitment(value *uint256.Int, fake bool, secret []byte) string {
	data := fmt.Sprintf("%s|%t|%x", value.Dec(), fake, secret)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// VerifyBidCommitment reports whether the claimed (value, fake, secret)
// triple hashes to commitment. No side effects. The comparison is
// constant-time so a mismatched reveal leaks nothing about the stored hash.
func VerifyBidCommitment(commitment string, value *uint256.Int, fake bool, secret []byte) bool {
	computed := ComputeBidCommitment(value, fake, secret)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(commitment)) == 1
}
