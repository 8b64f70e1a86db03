package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cloudx-io/blindauction/core"
)

// auctionEntry pairs an auction with the treasury recording its payouts.
type auctionEntry struct {
	auction  *core.Auction
	treasury *core.RecordingTreasury
}

// AuctionRegistry owns every auction hosted by this engine, keyed by a
// UUIDv4 assigned at creation.
type AuctionRegistry struct {
	mu       sync.Mutex
	auctions map[string]auctionEntry
	now      func() time.Time
}

func NewAuctionRegistry(now func() time.Time) *AuctionRegistry {
	if now == nil {
		now = time.Now
	}
	return &AuctionRegistry{
		auctions: make(map[string]auctionEntry),
		now:      now,
	}
}

// Create registers a new auction whose bidding window opens immediately.
func (r *AuctionRegistry) Create(beneficiary core.Participant, biddingDur, revealDur time.Duration) (string, *core.Auction, error) {
	if biddingDur <= 0 || revealDur <= 0 {
		return "", nil, fmt.Errorf("create auction: durations must be positive (bidding %s, reveal %s)", biddingDur, revealDur)
	}

	start := r.now()
	treasury := core.NewRecordingTreasury()
	auction, err := core.New(core.Config{
		Beneficiary: beneficiary,
		BiddingEnd:  start.Add(biddingDur),
		RevealEnd:   start.Add(biddingDur + revealDur),
		Treasury:    treasury,
		Now:         r.now,
	})
	if err != nil {
		return "", nil, fmt.Errorf("create auction: %w", err)
	}

	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.auctions[id] = auctionEntry{auction: auction, treasury: treasury}
	return id, auction, nil
}

// Get returns the auction registered under id.
func (r *AuctionRegistry) Get(id string) (*core.Auction, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.auctions[id]
	return entry.auction, ok
}

// Treasury returns the payout recorder for the auction registered under id.
func (r *AuctionRegistry) Treasury(id string) (*core.RecordingTreasury, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.auctions[id]
	return entry.treasury, ok
}

// Len returns the number of hosted auctions.
func (r *AuctionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.auctions)
}
