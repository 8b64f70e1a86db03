package validation

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/veraison/go-cose"

	"github.com/cloudx-io/blindauction/core"
	"github.com/cloudx-io/blindauction/engineapi"
)

// signTestReceipt signs a receipt payload the way the engine does, returning
// the base64 COSE document and the verification key PEM.
func signTestReceipt(t *testing.T, receipt engineapi.SettlementReceipt) (engineapi.ReceiptCOSEBase64, string) {
	t.Helper()

	privateKey, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	assert.Nil(t, err)

	payload, err := cbor.Marshal(receipt)
	assert.Nil(t, err)

	signer, err := cose.NewSigner(cose.AlgorithmES384, privateKey)
	assert.Nil(t, err)

	headers := cose.Headers{
		Protected: cose.ProtectedHeader{cose.HeaderLabelAlgorithm: cose.AlgorithmES384},
	}
	signed, err := cose.Sign1(rand.Reader, signer, headers, payload, nil)
	assert.Nil(t, err)

	derBytes, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	assert.Nil(t, err)
	keyPEM := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: derBytes}))

	return engineapi.ReceiptCOSE(signed).EncodeBase64(), keyPEM
}

func testReceipt() engineapi.SettlementReceipt {
	return engineapi.SettlementReceipt{
		ReceiptID:        "r-1",
		AuctionID:        "a-1",
		Beneficiary:      "beneficiary",
		Winner:           "alice",
		Amount:           "3.1",
		CommitmentDigest: "00112233",
		Nonce:            "abcd",
		TimestampUnix:    time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC).Unix(),
	}
}

func TestValidateSettlementReceipt_Valid(t *testing.T) {
	receiptB64, keyPEM := signTestReceipt(t, testReceipt())

	result, receipt, err := ValidateSettlementReceipt(&ReceiptValidationInput{
		ReceiptCOSEBase64: receiptB64,
		PublicKeyPEM:      keyPEM,
		ExpectedAuctionID: "a-1",
		ExpectedWinner:    "alice",
		ExpectedAmount:    "3.10", // equal in base units
	})
	assert.Nil(t, err)
	check.True(t, result.IsValid())
	check.Equal(t, "alice", receipt.Winner)
	check.Equal(t, 0, len(result.ValidationDetails))
}

func TestValidateSettlementReceipt_WrongKey(t *testing.T) {
	receiptB64, _ := signTestReceipt(t, testReceipt())
	_, otherKeyPEM := signTestReceipt(t, testReceipt())

	result, _, err := ValidateSettlementReceipt(&ReceiptValidationInput{
		ReceiptCOSEBase64: receiptB64,
		PublicKeyPEM:      otherKeyPEM,
	})
	assert.Nil(t, err)
	check.False(t, result.SignatureValid)
	check.False(t, result.IsValid())
	// Payload still parses, for diagnostics.
	check.True(t, result.PayloadValid)
}

func TestValidateSettlementReceipt_OutcomeMismatch(t *testing.T) {
	receiptB64, keyPEM := signTestReceipt(t, testReceipt())

	result, _, err := ValidateSettlementReceipt(&ReceiptValidationInput{
		ReceiptCOSEBase64: receiptB64,
		PublicKeyPEM:      keyPEM,
		ExpectedWinner:    "bob",
		ExpectedAmount:    "3.1",
	})
	assert.Nil(t, err)
	check.True(t, result.SignatureValid)
	check.False(t, result.OutcomeValid)
	check.False(t, result.IsValid())
}

func TestValidateSettlementReceipt_WinnerCommitment(t *testing.T) {
	receiptB64, keyPEM := signTestReceipt(t, testReceipt())

	value, err := core.ParseAmount("3.1")
	assert.Nil(t, err)
	secret := []byte("y")
	commitment := core.ComputeBidCommitment(value, false, secret)

	result, _, err := ValidateSettlementReceipt(&ReceiptValidationInput{
		ReceiptCOSEBase64: receiptB64,
		PublicKeyPEM:      keyPEM,
		WinnerCommitment:  commitment,
		WinnerValue:       "3.1",
		WinnerSecret:      secret,
	})
	assert.Nil(t, err)
	check.True(t, result.CommitmentValid)
	check.True(t, result.IsValid())

	// A different secret breaks the commitment check only.
	result, _, err = ValidateSettlementReceipt(&ReceiptValidationInput{
		ReceiptCOSEBase64: receiptB64,
		PublicKeyPEM:      keyPEM,
		WinnerCommitment:  commitment,
		WinnerValue:       "3.1",
		WinnerSecret:      []byte("z"),
	})
	assert.Nil(t, err)
	check.True(t, result.SignatureValid)
	check.False(t, result.CommitmentValid)
}

func TestValidateSettlementReceipt_TamperedPayload(t *testing.T) {
	receiptB64, keyPEM := signTestReceipt(t, testReceipt())

	raw, err := receiptB64.Decode()
	assert.Nil(t, err)

	// Re-sign a different payload with a different key, then present it
	// under the original key: signature must fail.
	tampered := testReceipt()
	tampered.Amount = "999"
	tamperedB64, _ := signTestReceipt(t, tampered)

	result, _, err := ValidateSettlementReceipt(&ReceiptValidationInput{
		ReceiptCOSEBase64: tamperedB64,
		PublicKeyPEM:      keyPEM,
	})
	assert.Nil(t, err)
	check.False(t, result.SignatureValid)

	// Corrupting the COSE bytes themselves is caught at parse time.
	raw[len(raw)-1] ^= 0xff
	result, _, err = ValidateSettlementReceipt(&ReceiptValidationInput{
		ReceiptCOSEBase64: engineapi.ReceiptCOSE(raw).EncodeBase64(),
		PublicKeyPEM:      keyPEM,
	})
	assert.Nil(t, err)
	check.False(t, result.IsValid())
}

func TestValidateSettlementReceipt_InputErrors(t *testing.T) {
	_, _, err := ValidateSettlementReceipt(nil)
	check.Error(t, err)

	_, _, err = ValidateSettlementReceipt(&ReceiptValidationInput{PublicKeyPEM: "x"})
	check.Error(t, err)

	_, _, err = ValidateSettlementReceipt(&ReceiptValidationInput{ReceiptCOSEBase64: "x"})
	check.Error(t, err)
}

func TestExtractReceiptPayload_Garbage(t *testing.T) {
	_, err := ExtractReceiptPayload([]byte("not cbor at all"))
	check.Error(t, err)
}
