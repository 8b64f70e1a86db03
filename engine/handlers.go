package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/holiman/uint256"

	"github.com/cloudx-io/blindauction/core"
	"github.com/cloudx-io/blindauction/engineapi"
)

func errorResponse(format string, args ...any) engineapi.ErrorResponse {
	return engineapi.ErrorResponse{
		Type:    "error",
		Success: false,
		Message: fmt.Sprintf(format, args...),
	}
}

// handleRequest decodes and dispatches one request, returning the response
// value to encode back to the caller.
func (s *EngineServer) handleRequest(raw []byte) any {
	var base engineapi.BaseRequest
	if err := json.Unmarshal(raw, &base); err != nil {
		log.Printf("ERROR: Failed to decode base request: %v", err)
		return errorResponse("Failed to decode request: %v", err)
	}

	log.Printf("INFO: Received request type: %s", base.Type)

	switch base.Type {
	case engineapi.TypePing:
		return map[string]any{
			"type":      "pong",
			"message":   "auction engine is healthy",
			"timestamp": time.Now().Unix(),
		}
	case engineapi.TypeCreateAuction:
		return s.handleCreateAuction(raw)
	case engineapi.TypePlaceBid:
		return s.handlePlaceBid(raw)
	case engineapi.TypeReveal:
		return s.handleReveal(raw)
	case engineapi.TypeWithdraw:
		return s.handleWithdraw(raw)
	case engineapi.TypeFinalize:
		return s.handleFinalize(raw)
	case engineapi.TypeStatus:
		return s.handleStatus(raw)
	case engineapi.TypeKeyRequest:
		return s.handleKeyRequest()
	default:
		return errorResponse("Unknown request type: %s", base.Type)
	}
}

// lookupAuction resolves the auction for a request, shaping the not-found
// failure uniformly.
func (s *EngineServer) lookupAuction(auctionID string) (*core.Auction, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("auction_id is required")
	}
	auction, ok := s.registry.Get(auctionID)
	if !ok {
		return nil, fmt.Errorf("unknown auction %s", auctionID)
	}
	return auction, nil
}

func (s *EngineServer) handleCreateAuction(raw []byte) any {
	var req engineapi.CreateAuctionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return errorResponse("Failed to decode create_auction request: %v", err)
	}

	id, auction, err := s.registry.Create(
		core.Participant(req.Beneficiary),
		time.Duration(req.BiddingDurationMS)*time.Millisecond,
		time.Duration(req.RevealDurationMS)*time.Millisecond,
	)
	if err != nil {
		log.Printf("ERROR: %v", err)
		return errorResponse("%v", err)
	}

	log.Printf("INFO: Auction %s created: bidding until %s, reveal until %s",
		id, auction.BiddingEnd().UTC().Format(time.RFC3339), auction.RevealEnd().UTC().Format(time.RFC3339))

	return engineapi.CreateAuctionResponse{
		Type:       "create_auction_response",
		Success:    true,
		AuctionID:  id,
		BiddingEnd: auction.BiddingEnd().UnixMilli(),
		RevealEnd:  auction.RevealEnd().UnixMilli(),
	}
}

func (s *EngineServer) handlePlaceBid(raw []byte) any {
	var req engineapi.PlaceBidRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return errorResponse("Failed to decode place_bid request: %v", err)
	}
	if req.Participant == "" {
		return errorResponse("participant is required")
	}

	auction, err := s.lookupAuction(req.AuctionID)
	if err != nil {
		return errorResponse("%v", err)
	}

	deposit, err := core.ParseAmount(req.Deposit)
	if err != nil {
		return errorResponse("Invalid deposit: %v", err)
	}

	if err := auction.PlaceBid(core.Participant(req.Participant), req.CommitmentHash, deposit); err != nil {
		log.Printf("INFO: place_bid rejected for %s on %s: %v", req.Participant, req.AuctionID, err)
		return errorResponse("%v", err)
	}

	log.Printf("INFO: Bid recorded for %s on auction %s (escrow %s)", req.Participant, req.AuctionID, req.Deposit)
	return engineapi.PlaceBidResponse{
		Type:    "place_bid_response",
		Success: true,
	}
}

func (s *EngineServer) handleReveal(raw []byte) any {
	var req engineapi.RevealRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return errorResponse("Failed to decode reveal request: %v", err)
	}
	if req.Participant == "" {
		return errorResponse("participant is required")
	}

	auction, err := s.lookupAuction(req.AuctionID)
	if err != nil {
		return errorResponse("%v", err)
	}

	parsed, err := parseValues(req.Values)
	if err != nil {
		return errorResponse("Invalid values: %v", err)
	}
	secrets, err := req.DecodeSecrets()
	if err != nil {
		return errorResponse("Invalid secrets: %v", err)
	}

	refunded, err := auction.Reveal(core.Participant(req.Participant), parsed, req.Fakes, secrets)
	if err != nil {
		log.Printf("INFO: reveal rejected for %s on %s: %v", req.Participant, req.AuctionID, err)
		return errorResponse("%v", err)
	}

	log.Printf("INFO: Reveal settled for %s on auction %s: refunded %s", req.Participant, req.AuctionID, core.FormatAmount(refunded))
	return engineapi.RevealResponse{
		Type:     "reveal_response",
		Success:  true,
		Refunded: core.FormatAmount(refunded),
	}
}

func (s *EngineServer) handleWithdraw(raw []byte) any {
	var req engineapi.WithdrawRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return errorResponse("Failed to decode withdraw request: %v", err)
	}
	if req.Participant == "" {
		return errorResponse("participant is required")
	}

	auction, err := s.lookupAuction(req.AuctionID)
	if err != nil {
		return errorResponse("%v", err)
	}

	amount, err := auction.Withdraw(core.Participant(req.Participant))
	if err != nil {
		log.Printf("ERROR: withdraw failed for %s on %s: %v", req.Participant, req.AuctionID, err)
		return errorResponse("%v", err)
	}

	log.Printf("INFO: Withdrawal for %s on auction %s: %s", req.Participant, req.AuctionID, core.FormatAmount(amount))
	return engineapi.WithdrawResponse{
		Type:    "withdraw_response",
		Success: true,
		Amount:  core.FormatAmount(amount),
	}
}

func (s *EngineServer) handleFinalize(raw []byte) any {
	var req engineapi.FinalizeRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return errorResponse("Failed to decode finalize request: %v", err)
	}

	auction, err := s.lookupAuction(req.AuctionID)
	if err != nil {
		return errorResponse("%v", err)
	}

	// The core leaves authorization to its host: only the beneficiary may
	// trigger settlement here.
	if core.Participant(req.Participant) != auction.Beneficiary() {
		err := fmt.Errorf("finalize by %q: %w", req.Participant, core.ErrUnauthorized)
		log.Printf("INFO: finalize rejected on auction %s: %v", req.AuctionID, err)
		return errorResponse("%v", err)
	}

	if err := auction.Finalize(); err != nil {
		if errors.Is(err, core.ErrAlreadyFinalized) {
			log.Printf("INFO: finalize repeated on auction %s", req.AuctionID)
		} else {
			log.Printf("INFO: finalize rejected on auction %s: %v", req.AuctionID, err)
		}
		return errorResponse("%v", err)
	}

	ev := <-auction.EndedEvents()
	log.Printf("INFO: Auction %s ended: winner=%s amount=%s", req.AuctionID, winnerName(ev.Winner), core.FormatAmount(ev.Amount))

	resp := engineapi.FinalizeResponse{
		Type:    "finalize_response",
		Success: true,
		Winner:  string(ev.Winner),
		Amount:  core.FormatAmount(ev.Amount),
	}

	receipt, err := GenerateSettlementReceipt(s.signer, req.AuctionID, auction, ev)
	if err != nil {
		// The auction is settled either way; the receipt is advisory.
		log.Printf("ERROR: settlement receipt generation failed for %s: %v", req.AuctionID, err)
		resp.Message = fmt.Sprintf("settled without receipt: %v", err)
		return resp
	}
	resp.Receipt = receipt.EncodeBase64()
	return resp
}

func (s *EngineServer) handleStatus(raw []byte) any {
	var req engineapi.StatusRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return errorResponse("Failed to decode status request: %v", err)
	}

	auction, err := s.lookupAuction(req.AuctionID)
	if err != nil {
		return errorResponse("%v", err)
	}

	resp := engineapi.StatusResponse{
		Type:       "status_response",
		Success:    true,
		Phase:      auction.Phase().String(),
		HighestBid: core.FormatAmount(auction.HighestBid()),
		Ended:      auction.Ended(),
		BiddingEnd: auction.BiddingEnd().UnixMilli(),
		RevealEnd:  auction.RevealEnd().UnixMilli(),
	}
	if bidder, ok := auction.HighestBidder(); ok {
		resp.HighestBidder = string(bidder)
	}

	if req.Participant != "" {
		p := core.Participant(req.Participant)
		resp.PendingReturns = core.FormatAmount(auction.PendingReturns(p))
		resp.BidCount = auction.BidCount(p)
		resp.Bids = make([]engineapi.BidSlot, 0, resp.BidCount)
		for i := 0; i < resp.BidCount; i++ {
			info, err := auction.BidAt(p, i)
			if err != nil {
				return errorResponse("%v", err)
			}
			resp.Bids = append(resp.Bids, engineapi.BidSlot{
				CommitmentHash: info.CommitmentHash,
				EscrowedAmount: core.FormatAmount(info.EscrowedAmount),
				Consumed:       info.Consumed,
			})
		}
	}
	return resp
}

func (s *EngineServer) handleKeyRequest() any {
	publicKeyPEM, err := s.signer.PublicKeyPEM()
	if err != nil {
		log.Printf("ERROR: Key request failed: %v", err)
		return errorResponse("Failed to export public key: %v", err)
	}

	resp := engineapi.KeyResponse{
		Type:         "key_response",
		Success:      true,
		KeyAlgorithm: SignerKeyAlgorithm,
		PublicKey:    publicKeyPEM,
	}

	attester, err := getEnclaveAttester()
	if err != nil {
		// Outside an enclave the bare key is still useful.
		log.Printf("INFO: Publishing unattested key: %v", err)
		return resp
	}

	attestation, err := GenerateKeyAttestation(attester, publicKeyPEM)
	if err != nil {
		log.Printf("ERROR: Key attestation failed: %v", err)
		return errorResponse("Key attestation failed: %v", err)
	}
	resp.Attestation = attestation.EncodeBase64()
	return resp
}

// parseValues converts decimal amount strings to base units.
func parseValues(in []string) ([]*uint256.Int, error) {
	out := make([]*uint256.Int, len(in))
	for i, s := range in {
		v, err := core.ParseAmount(s)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func winnerName(p core.Participant) string {
	if p == "" {
		return "none"
	}
	return string(p)
}
