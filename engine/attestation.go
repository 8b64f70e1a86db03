package main

import (
	"encoding/json"
	"fmt"
	"log"

	enclave "github.com/edgebitio/nitro-enclaves-sdk-go"

	"github.com/cloudx-io/blindauction/engineapi"
)

// EnclaveAttester interface for dependency injection and testing
type EnclaveAttester interface {
	Attest(options enclave.AttestationOptions) ([]byte, error)
}

// getEnclaveAttester attempts to get the NSM attester, returns error if not available
func getEnclaveAttester() (EnclaveAttester, error) {
	handle, err := enclave.GetOrInitializeHandle()
	if err != nil {
		return nil, fmt.Errorf("NSM not available: %w", err)
	}
	return handle, nil
}

// keyAttestationUserData is embedded in the Nitro attestation document so
// consumers can bind the receipt verification key to the enclave image.
type keyAttestationUserData struct {
	KeyAlgorithm string `json:"key_algorithm"`
	PublicKey    string `json:"public_key"` // PEM-encoded
}

// GenerateKeyAttestation wraps the receipt verification key in a Nitro
// attestation document. Only meaningful inside an enclave; callers degrade
// to publishing the bare key when no attester is available.
func GenerateKeyAttestation(attester EnclaveAttester, publicKeyPEM string) (engineapi.ReceiptCOSE, error) {
	if attester == nil {
		return nil, fmt.Errorf("enclave attester is nil")
	}

	userData := &keyAttestationUserData{
		KeyAlgorithm: SignerKeyAlgorithm,
		PublicKey:    publicKeyPEM,
	}
	userDataBytes, err := json.Marshal(userData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key user data: %w", err)
	}

	randomNonce, err := generateNonce()
	if err != nil {
		return nil, fmt.Errorf("failed to generate attestation nonce: %w", err)
	}

	attestationCBOR, err := attester.Attest(enclave.AttestationOptions{
		UserData: userDataBytes,
		Nonce:    []byte(randomNonce),
	})
	if err != nil {
		log.Printf("ERROR: NSM key attestation failed: %v", err)
		return nil, fmt.Errorf("NSM key attestation failed: %w", err)
	}

	log.Printf("Key attestation generated: %d bytes", len(attestationCBOR))
	return engineapi.ReceiptCOSE(attestationCBOR), nil
}
