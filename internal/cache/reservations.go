// Package cache holds short-lived, process-local read caches.
// Nothing here is authoritative: every entry can be dropped at any time and
// the caller falls back to the database.
package cache

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/pkordes/flight-booking/internal/domain"
)

// ReservationCache stores each user's full reservation list, newest first.
//
// Every Invalidate bumps the user's version. A reader takes Version before
// loading from the database and passes it to Set, which refuses the list if a
// write landed in between, so a list loaded before a write is never cached
// after it.
type ReservationCache struct {
	lru *expirable.LRU[string, []domain.ReservationView]

	mu       sync.Mutex
	versions map[uuid.UUID]uint64 // grows with the number of users who wrote
}

// NewReservationCache returns a cache holding at most size users' lists,
// each expiring ttl after it was written.
func NewReservationCache(size int, ttl time.Duration) *ReservationCache {
	return &ReservationCache{
		lru:      expirable.NewLRU[string, []domain.ReservationView](size, nil, ttl),
		versions: make(map[uuid.UUID]uint64),
	}
}

// UserReservationsKey is the cache key of a user's reservation list.
func UserReservationsKey(userID uuid.UUID) string {
	return "user_reservations_" + userID.String()
}

// Get returns a copy of the cached list so callers can filter it freely.
func (c *ReservationCache) Get(userID uuid.UUID) ([]domain.ReservationView, bool) {
	views, ok := c.lru.Get(UserReservationsKey(userID))
	if !ok {
		return nil, false
	}
	out := make([]domain.ReservationView, len(views))
	copy(out, views)
	return out, true
}

// Version returns the current write version of userID's list.
func (c *ReservationCache) Version(userID uuid.UUID) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[userID]
}

// Set caches views for userID if no Invalidate happened since version was
// read, and reports whether it did.
func (c *ReservationCache) Set(userID uuid.UUID, version uint64, views []domain.ReservationView) bool {
	stored := make([]domain.ReservationView, len(views))
	copy(stored, views)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions[userID] != version {
		return false
	}
	c.lru.Add(UserReservationsKey(userID), stored)
	return true
}

// Invalidate drops the cached list for userID and bumps its version. The
// error return lets a remote cache slot in behind the same interface; this
// one never fails.
func (c *ReservationCache) Invalidate(userID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[userID]++
	c.lru.Remove(UserReservationsKey(userID))
	return nil
}

// Len reports the number of cached users.
func (c *ReservationCache) Len() int {
	return c.lru.Len()
}
