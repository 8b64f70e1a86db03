package main

import (
	"strings"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestSignerManager_GeneratesDistinctKeys(t *testing.T) {
	m1, err := NewSignerManager()
	assert.Nil(t, err)
	m2, err := NewSignerManager()
	assert.Nil(t, err)

	check.False(t, m1.PublicKey.Equal(m2.PublicKey))
}

func TestSignerManager_PublicKeyPEM(t *testing.T) {
	m, err := NewSignerManager()
	assert.Nil(t, err)

	pemStr, err := m.PublicKeyPEM()
	assert.Nil(t, err)
	check.True(t, strings.HasPrefix(pemStr, "-----BEGIN PUBLIC KEY-----"))
	check.True(t, strings.Contains(pemStr, "-----END PUBLIC KEY-----"))
}

func TestSignerManager_COSESigner(t *testing.T) {
	m, err := NewSignerManager()
	assert.Nil(t, err)

	signer, err := m.coseSigner()
	assert.Nil(t, err)
	check.NotNil(t, signer)
}
