package client

import "sync"

// AttemptCounter counts retry attempts per key. A single mutex guards every
// read-modify-write so concurrent retries never lose an update.
type AttemptCounter[K comparable] struct {
	mu     sync.Mutex
	counts map[K]int
}

// NewAttemptCounter creates an empty counter.
func NewAttemptCounter[K comparable]() *AttemptCounter[K] {
	return &AttemptCounter[K]{counts: make(map[K]int)}
}

// Get returns the count for key (0 if unknown).
func (a *AttemptCounter[K]) Get(key K) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counts[key]
}

// Set overwrites the count for key.
func (a *AttemptCounter[K]) Set(key K, n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counts[key] = n
}

// Increment adds one to the count for key and returns the new value.
func (a *AttemptCounter[K]) Increment(key K) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counts[key]++
	return a.counts[key]
}

// Reset forgets key.
func (a *AttemptCounter[K]) Reset(key K) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.counts, key)
}
