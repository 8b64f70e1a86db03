package main

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/cloudx-io/blindauction/core"
)

func TestRegistry_CreateAssignsUUID(t *testing.T) {
	r := NewAuctionRegistry(nil)

	id, auction, err := r.Create("beneficiary", time.Hour, time.Hour)
	assert.Nil(t, err)
	check.NotNil(t, auction)
	check.Equal(t, 1, r.Len())

	parsed, err := uuid.Parse(id)
	check.Nil(t, err)
	check.Equal(t, uuid.Version(4), parsed.Version())

	got, ok := r.Get(id)
	check.True(t, ok)
	check.True(t, got == auction)

	_, ok = r.Get("missing")
	check.False(t, ok)
}

func TestRegistry_CreateRejectsBadDurations(t *testing.T) {
	r := NewAuctionRegistry(nil)

	_, _, err := r.Create("beneficiary", 0, time.Hour)
	check.Error(t, err)
	_, _, err = r.Create("beneficiary", time.Hour, -time.Hour)
	check.Error(t, err)
	check.Equal(t, 0, r.Len())
}

func TestRegistry_BoundariesFollowClock(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start}
	r := NewAuctionRegistry(clock.Now)

	id, auction, err := r.Create("beneficiary", time.Hour, 30*time.Minute)
	assert.Nil(t, err)

	check.Equal(t, start.Add(time.Hour), auction.BiddingEnd())
	check.Equal(t, start.Add(90*time.Minute), auction.RevealEnd())
	check.Equal(t, core.PhaseBidding, auction.Phase())

	treasury, ok := r.Treasury(id)
	check.True(t, ok)
	check.True(t, treasury.TotalPaid().IsZero())
}

// fakeClock drives phase transitions deterministically in tests.
type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }
