package services

import (
	"errors"
	"sync"
	"time"

	"bumpbot/domain/entities"
	"bumpbot/domain/interfaces"
)

var (
	// ErrOfferPending is returned when the member already has a live offer
	ErrOfferPending = errors.New("member already has a pending role offer")
	// ErrRegistryClosed is returned after shutdown
	ErrRegistryClosed = errors.New("offer registry is closed")
)

type offerEntry struct {
	offer entities.PendingOffer
	timer interfaces.Timer
}

// OfferRegistry holds at most one live role offer per member, each bound to
// a deadline timer. Every removal path goes through the same lock, so an offer
// is handed out to exactly one resolver.
type OfferRegistry struct {
	mu        sync.Mutex
	scheduler interfaces.Scheduler
	entries   map[string]*offerEntry
	closed    bool
}

func NewOfferRegistry(scheduler interfaces.Scheduler) *OfferRegistry {
	return &OfferRegistry{
		scheduler: scheduler,
		entries:   make(map[string]*offerEntry),
	}
}

// Put stores offer and arms its deadline. onExpire runs at most once, only if
// the offer is still live when the deadline fires.
func (r *OfferRegistry) Put(offer entities.PendingOffer, ttl time.Duration, onExpire func(entities.PendingOffer)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRegistryClosed
	}
	if _, exists := r.entries[offer.Member.ID]; exists {
		return ErrOfferPending
	}

	entry := &offerEntry{offer: offer}
	r.entries[offer.Member.ID] = entry

	memberID, offerID := offer.Member.ID, offer.ID
	entry.timer = r.scheduler.AfterFunc(ttl, func() {
		if expired, ok := r.take(memberID, offerID, false); ok {
			onExpire(expired)
		}
	})
	return nil
}

// AttachPrompt records the prompt message of a live offer
func (r *OfferRegistry) AttachPrompt(memberID, offerID string, prompt entities.MessageRef) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[memberID]
	if !ok || entry.offer.ID != offerID {
		return false
	}
	entry.offer.Prompt = prompt
	return true
}

// Refresh replaces the game username carried by a live offer
func (r *OfferRegistry) Refresh(memberID, gameUsername string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[memberID]
	if !ok {
		return false
	}
	entry.offer.GameUsername = gameUsername
	return true
}

// Claim removes the member's live offer and cancels its deadline.
// An empty offerID matches whatever offer the member holds.
func (r *OfferRegistry) Claim(memberID, offerID string) (entities.PendingOffer, bool) {
	return r.take(memberID, offerID, true)
}

// Get returns a copy of the member's live offer
func (r *OfferRegistry) Get(memberID string) (entities.PendingOffer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[memberID]
	if !ok {
		return entities.PendingOffer{}, false
	}
	return entry.offer, true
}

// Len returns the number of live offers
func (r *OfferRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Close cancels every deadline and drops all live offers, returning them.
// Later Puts fail with ErrRegistryClosed.
func (r *OfferRegistry) Close() []entities.PendingOffer {
	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := make([]entities.PendingOffer, 0, len(r.entries))
	for memberID, entry := range r.entries {
		if entry.timer != nil {
			entry.timer.Stop()
		}
		dropped = append(dropped, entry.offer)
		delete(r.entries, memberID)
	}
	r.closed = true
	return dropped
}

func (r *OfferRegistry) take(memberID, offerID string, stopTimer bool) (entities.PendingOffer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[memberID]
	if !ok {
		return entities.PendingOffer{}, false
	}
	if offerID != "" && entry.offer.ID != offerID {
		return entities.PendingOffer{}, false
	}
	delete(r.entries, memberID)
	if stopTimer && entry.timer != nil {
		entry.timer.Stop()
	}
	return entry.offer, true
}
