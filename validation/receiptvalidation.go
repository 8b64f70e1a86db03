package validation

import (
	"fmt"

	"github.com/cloudx-io/blindauction/core"
	"github.com/cloudx-io/blindauction/engineapi"
)

// ReceiptValidationInput contains all inputs needed to validate a
// settlement receipt.
type ReceiptValidationInput struct {
	// ReceiptCOSEBase64 is the receipt as returned by finalize.
	ReceiptCOSEBase64 engineapi.ReceiptCOSEBase64

	// PublicKeyPEM is the engine's published verification key.
	PublicKeyPEM string

	// ExpectedAuctionID must match the receipt when non-empty.
	ExpectedAuctionID string

	// ExpectedWinner and ExpectedAmount describe the outcome the caller
	// observed (amount is a decimal string). Checked when ExpectedAmount
	// is non-empty; an auction with no winner has ExpectedWinner == ""
	// and ExpectedAmount == "0".
	ExpectedWinner string
	ExpectedAmount string

	// WinnerCommitment, together with the winner's revealed
	// (value, fake, secret) triple, lets a consumer confirm that the
	// claimed winning value matches the commitment the winner published
	// at bid time. All four fields are optional as a group.
	WinnerCommitment string
	WinnerValue      string
	WinnerFake       bool
	WinnerSecret     []byte
}

// ValidateSettlementReceipt verifies a settlement receipt end to end:
// signature, payload decoding, claimed outcome, and (optionally) the
// winner's published commitment against the revealed triple.
//
// Returns the detailed result (call result.IsValid() for overall status)
// and the decoded receipt when the payload parses; a non-nil error means
// validation could not be performed at all.
func ValidateSettlementReceipt(input *ReceiptValidationInput) (*ReceiptValidationResult, *engineapi.SettlementReceipt, error) {
	if input == nil {
		return nil, nil, fmt.Errorf("validation input is nil")
	}
	if input.ReceiptCOSEBase64 == "" {
		return nil, nil, fmt.Errorf("receipt is required")
	}
	if input.PublicKeyPEM == "" {
		return nil, nil, fmt.Errorf("public key is required")
	}

	result := &ReceiptValidationResult{}

	if err := VerifyReceiptSignature(input.ReceiptCOSEBase64, input.PublicKeyPEM); err != nil {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Signature verification failed: %v", err))
	} else {
		result.SignatureValid = true
	}

	coseBytes, err := input.ReceiptCOSEBase64.Decode()
	if err != nil {
		return nil, nil, fmt.Errorf("decode receipt: %w", err)
	}
	receipt, err := ParseReceipt(coseBytes)
	if err != nil {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Payload parsing failed: %v", err))
		return result, nil, nil
	}
	result.PayloadValid = true

	result.OutcomeValid = validateOutcome(input, receipt, result)
	result.CommitmentValid = validateWinnerCommitment(input, result)

	return result, receipt, nil
}

func validateOutcome(input *ReceiptValidationInput, receipt *engineapi.SettlementReceipt, result *ReceiptValidationResult) bool {
	valid := true

	if input.ExpectedAuctionID != "" && receipt.AuctionID != input.ExpectedAuctionID {
		result.ValidationDetails = append(result.ValidationDetails,
			fmt.Sprintf("Auction ID mismatch: receipt has %s, expected %s", receipt.AuctionID, input.ExpectedAuctionID))
		valid = false
	}

	if input.ExpectedAmount != "" {
		if receipt.Winner != input.ExpectedWinner {
			result.ValidationDetails = append(result.ValidationDetails,
				fmt.Sprintf("Winner mismatch: receipt has %q, expected %q", receipt.Winner, input.ExpectedWinner))
			valid = false
		}
		// Compare amounts in base units so "3.50" equals "3.5".
		want, err := core.ParseAmount(input.ExpectedAmount)
		if err != nil {
			result.ValidationDetails = append(result.ValidationDetails,
				fmt.Sprintf("Expected amount invalid: %v", err))
			return false
		}
		got, err := core.ParseAmount(receipt.Amount)
		if err != nil {
			result.ValidationDetails = append(result.ValidationDetails,
				fmt.Sprintf("Receipt amount invalid: %v", err))
			return false
		}
		if !want.Eq(got) {
			result.ValidationDetails = append(result.ValidationDetails,
				fmt.Sprintf("Amount mismatch: receipt has %s, expected %s", receipt.Amount, input.ExpectedAmount))
			valid = false
		}
	}
	return valid
}

func validateWinnerCommitment(input *ReceiptValidationInput, result *ReceiptValidationResult) bool {
	if input.WinnerCommitment == "" {
		return true // nothing to check
	}

	value, err := core.ParseAmount(input.WinnerValue)
	if err != nil {
		result.ValidationDetails = append(result.ValidationDetails,
			fmt.Sprintf("Winner value invalid: %v", err))
		return false
	}
	if !core.VerifyBidCommitment(input.WinnerCommitment, value, input.WinnerFake, input.WinnerSecret) {
		result.ValidationDetails = append(result.ValidationDetails,
			"Winner commitment does not match the revealed (value, fake, secret) triple")
		return false
	}
	return true
}
