package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/veraison/go-cose"
)

// SignerKeyAlgorithm names the receipt signing algorithm, published
// alongside the key so validators pick the right COSE verifier.
const SignerKeyAlgorithm = "ECDSA-P384"

// SignerManager manages the engine's ECDSA P-384 key pair used to sign
// settlement receipts (COSE ES384).
type SignerManager struct {
	privateKey *ecdsa.PrivateKey // Keep private - sensitive!
	PublicKey  *ecdsa.PublicKey
}

// NewSignerManager generates a fresh P-384 key pair.
// In a TEE environment, crypto/rand uses NSM-enhanced entropy.
func NewSignerManager() (*SignerManager, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate P-384 key pair: %w", err)
	}
	return &SignerManager{
		privateKey: privateKey,
		PublicKey:  &privateKey.PublicKey,
	}, nil
}

// PublicKeyPEM returns the verification key in PEM format.
func (m *SignerManager) PublicKeyPEM() (string, error) {
	derBytes, err := x509.MarshalPKIXPublicKey(m.PublicKey)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}

	pemBlock := &pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: derBytes,
	}
	return string(pem.EncodeToMemory(pemBlock)), nil
}

// coseSigner wraps the private key as an ES384 COSE signer.
func (m *SignerManager) coseSigner() (cose.Signer, error) {
	signer, err := cose.NewSigner(cose.AlgorithmES384, m.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create COSE signer: %w", err)
	}
	return signer, nil
}
