package services

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bumpbot/domain/entities"
	"bumpbot/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOffer(memberID, offerID string) entities.PendingOffer {
	return entities.PendingOffer{
		ID:           offerID,
		Member:       entities.Member{ID: memberID, Tag: "member-" + memberID},
		GuildID:      "guild-1",
		ChannelID:    "bump-channel",
		GameUsername: "Steve",
	}
}

func TestOfferRegistry_PutRejectsSecondOffer(t *testing.T) {
	t.Parallel()

	registry := NewOfferRegistry(testhelpers.NewFakeScheduler())

	require.NoError(t, registry.Put(testOffer("u1", "o1"), time.Minute, func(entities.PendingOffer) {}))
	err := registry.Put(testOffer("u1", "o2"), time.Minute, func(entities.PendingOffer) {})
	assert.ErrorIs(t, err, ErrOfferPending)

	live, ok := registry.Get("u1")
	require.True(t, ok)
	assert.Equal(t, "o1", live.ID)
	assert.Equal(t, 1, registry.Len())
}

func TestOfferRegistry_ClaimCancelsDeadline(t *testing.T) {
	t.Parallel()

	scheduler := testhelpers.NewFakeScheduler()
	registry := NewOfferRegistry(scheduler)

	expired := 0
	require.NoError(t, registry.Put(testOffer("u1", "o1"), time.Minute, func(entities.PendingOffer) { expired++ }))

	offer, ok := registry.Claim("u1", "o1")
	require.True(t, ok)
	assert.Equal(t, "o1", offer.ID)
	assert.Equal(t, 0, registry.Len())

	timers := scheduler.WithDelay(time.Minute)
	require.Len(t, timers, 1)
	assert.True(t, timers[0].Stopped())

	// a deadline already in flight when the claim happened finds nothing to expire
	timers[0].ForceFire()
	assert.Equal(t, 0, expired)
}

func TestOfferRegistry_ClaimMatching(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		memberID string
		offerID  string
		wantOK   bool
	}{
		{name: "exact offer", memberID: "u1", offerID: "o1", wantOK: true},
		{name: "any offer of member", memberID: "u1", offerID: "", wantOK: true},
		{name: "stale offer id", memberID: "u1", offerID: "o-old", wantOK: false},
		{name: "other member", memberID: "u2", offerID: "o1", wantOK: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			registry := NewOfferRegistry(testhelpers.NewFakeScheduler())
			require.NoError(t, registry.Put(testOffer("u1", "o1"), time.Minute, func(entities.PendingOffer) {}))

			_, ok := registry.Claim(tt.memberID, tt.offerID)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, 0, registry.Len())
			} else {
				assert.Equal(t, 1, registry.Len())
			}
		})
	}
}

func TestOfferRegistry_ExpiryRemovesEntryOnce(t *testing.T) {
	t.Parallel()

	scheduler := testhelpers.NewFakeScheduler()
	registry := NewOfferRegistry(scheduler)

	var expired []entities.PendingOffer
	require.NoError(t, registry.Put(testOffer("u1", "o1"), 2*time.Minute, func(o entities.PendingOffer) {
		expired = append(expired, o)
	}))
	require.True(t, registry.AttachPrompt("u1", "o1", entities.MessageRef{ChannelID: "c", MessageID: "m"}))

	assert.Equal(t, 1, scheduler.FireDue(2*time.Minute))
	require.Len(t, expired, 1)
	assert.Equal(t, "m", expired[0].Prompt.MessageID)

	_, ok := registry.Claim("u1", "o1")
	assert.False(t, ok)
	assert.Equal(t, 0, scheduler.FireDue(2*time.Minute))
	assert.Len(t, expired, 1)
}

func TestOfferRegistry_StaleDeadlineDoesNotExpireNewOffer(t *testing.T) {
	t.Parallel()

	scheduler := testhelpers.NewFakeScheduler()
	registry := NewOfferRegistry(scheduler)

	expired := 0
	require.NoError(t, registry.Put(testOffer("u1", "o1"), time.Minute, func(entities.PendingOffer) { expired++ }))
	first := scheduler.Timers()[0]

	_, ok := registry.Claim("u1", "o1")
	require.True(t, ok)
	require.NoError(t, registry.Put(testOffer("u1", "o2"), time.Minute, func(entities.PendingOffer) { expired++ }))

	first.ForceFire()
	assert.Equal(t, 0, expired)

	live, ok := registry.Get("u1")
	require.True(t, ok)
	assert.Equal(t, "o2", live.ID)
}

func TestOfferRegistry_ConcurrentResolutionIsExactlyOnce(t *testing.T) {
	t.Parallel()

	scheduler := testhelpers.NewFakeScheduler()
	registry := NewOfferRegistry(scheduler)

	var resolved atomic.Int32
	require.NoError(t, registry.Put(testOffer("u1", "o1"), time.Minute, func(entities.PendingOffer) {
		resolved.Add(1)
	}))
	deadline := scheduler.Timers()[0]

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := registry.Claim("u1", "o1"); ok {
				resolved.Add(1)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		deadline.ForceFire()
	}()
	wg.Wait()

	assert.Equal(t, int32(1), resolved.Load())
}

func TestOfferRegistry_Refresh(t *testing.T) {
	t.Parallel()

	registry := NewOfferRegistry(testhelpers.NewFakeScheduler())
	assert.False(t, registry.Refresh("u1", "Alex"))

	require.NoError(t, registry.Put(testOffer("u1", "o1"), time.Minute, func(entities.PendingOffer) {}))
	assert.True(t, registry.Refresh("u1", "Alex"))

	offer, ok := registry.Claim("u1", "")
	require.True(t, ok)
	assert.Equal(t, "Alex", offer.GameUsername)
}

func TestOfferRegistry_Close(t *testing.T) {
	t.Parallel()

	scheduler := testhelpers.NewFakeScheduler()
	registry := NewOfferRegistry(scheduler)

	require.NoError(t, registry.Put(testOffer("u1", "o1"), time.Minute, func(entities.PendingOffer) {}))
	require.NoError(t, registry.Put(testOffer("u2", "o2"), time.Minute, func(entities.PendingOffer) {}))

	dropped := registry.Close()
	assert.Len(t, dropped, 2)
	assert.Equal(t, 0, registry.Len())
	for _, timer := range scheduler.Timers() {
		assert.True(t, timer.Stopped())
	}

	err := registry.Put(testOffer("u3", "o3"), time.Minute, func(entities.PendingOffer) {})
	assert.ErrorIs(t, err, ErrRegistryClosed)
}
