package validation

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/veraison/go-cose"

	"github.com/cloudx-io/blindauction/engineapi"
)

// ExtractReceiptPayload extracts the signed payload from a COSE_Sign1
// settlement receipt without verifying the signature.
func ExtractReceiptPayload(coseBytes []byte) ([]byte, error) {
	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(coseBytes); err != nil {
		return nil, fmt.Errorf("parse COSE_Sign1: %w", err)
	}
	if len(msg.Payload) == 0 {
		return nil, fmt.Errorf("empty payload in COSE structure")
	}
	return msg.Payload, nil
}

// ParseReceipt decodes the CBOR settlement receipt carried by a COSE_Sign1
// document. No signature verification is performed.
func ParseReceipt(coseBytes []byte) (*engineapi.SettlementReceipt, error) {
	payload, err := ExtractReceiptPayload(coseBytes)
	if err != nil {
		return nil, err
	}
	var receipt engineapi.SettlementReceipt
	if err := cbor.Unmarshal(payload, &receipt); err != nil {
		return nil, fmt.Errorf("decode receipt payload: %w", err)
	}
	return &receipt, nil
}

// parsePublicKeyPEM parses the engine's published ECDSA verification key.
func parsePublicKeyPEM(publicKeyPEM string) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, fmt.Errorf("no PEM block in public key")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	ecdsaKey, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not ECDSA")
	}
	return ecdsaKey, nil
}

// VerifyReceiptSignature verifies a COSE_Sign1 receipt signature given
// base64-encoded COSE bytes and the engine's PEM-encoded public key.
// Receipts are signed with ES384 (ECDSA P-384 with SHA-384).
func VerifyReceiptSignature(receiptB64 engineapi.ReceiptCOSEBase64, publicKeyPEM string) error {
	coseBytes, err := receiptB64.Decode()
	if err != nil {
		return fmt.Errorf("decode COSE bytes: %w", err)
	}

	ecdsaKey, err := parsePublicKeyPEM(publicKeyPEM)
	if err != nil {
		return err
	}

	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(coseBytes); err != nil {
		return fmt.Errorf("parse COSE_Sign1: %w", err)
	}

	verifier, err := cose.NewVerifier(cose.AlgorithmES384, ecdsaKey)
	if err != nil {
		return fmt.Errorf("create verifier: %w", err)
	}

	if err := msg.Verify(nil, verifier); err != nil {
		return fmt.Errorf("COSE signature verification failed: %w", err)
	}
	return nil
}
