package engineapi

import (
	"encoding/json"
	"testing"

	"github.com/peterldowns/testy/check"
)

func TestReceiptCOSE_Base64RoundTrip(t *testing.T) {
	raw := ReceiptCOSE([]byte("mock-cose-receipt-bytes"))

	encoded := raw.EncodeBase64()
	check.NotEqual(t, ReceiptCOSEBase64(""), encoded)

	decoded, err := encoded.Decode()
	check.Nil(t, err)
	check.Equal(t, raw, decoded)
}

func TestReceiptCOSEBase64_DecodeRejectsGarbage(t *testing.T) {
	_, err := ReceiptCOSEBase64("not base64!!!").Decode()
	check.Error(t, err)
}

func TestRevealRequest_SecretsRoundTrip(t *testing.T) {
	secrets := [][]byte{[]byte("x"), []byte("longer secret"), {0x00, 0xff}}

	req := RevealRequest{
		Type:        TypeReveal,
		AuctionID:   "a1",
		Participant: "alice",
		Secrets:     EncodeSecrets(secrets),
	}

	decoded, err := req.DecodeSecrets()
	check.Nil(t, err)
	check.Equal(t, secrets, decoded)
}

func TestRevealRequest_DecodeSecretsRejectsGarbage(t *testing.T) {
	req := RevealRequest{Secrets: []string{"%%%"}}
	_, err := req.DecodeSecrets()
	check.Error(t, err)
}

func TestBaseRequest_DispatchFields(t *testing.T) {
	// The server decodes BaseRequest first; make sure the dispatch fields
	// survive a round trip through any concrete request type.
	payload, err := json.Marshal(PlaceBidRequest{
		Type:           TypePlaceBid,
		AuctionID:      "a1",
		Participant:    "alice",
		CommitmentHash: "deadbeef",
		Deposit:        "3.5",
	})
	check.Nil(t, err)

	var base BaseRequest
	check.Nil(t, json.Unmarshal(payload, &base))
	check.Equal(t, TypePlaceBid, base.Type)
	check.Equal(t, "a1", base.AuctionID)
	check.Equal(t, "alice", base.Participant)
}
