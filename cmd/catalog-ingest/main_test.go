package main

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupClaim_FirstWins(t *testing.T) {
	dd := newDedup()

	assert.True(t, dd.claim("prod-1|S"))
	assert.False(t, dd.claim("prod-1|S"))
	assert.False(t, dd.claim("prod-1|S"))

	// Other keys are unaffected.
	assert.True(t, dd.claim("prod-1|M"))
	assert.True(t, dd.claim("prod-2|S"))
}

func TestDedupClaim_ConcurrentSingleWinner(t *testing.T) {
	dd := newDedup()

	const claimers = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	var wins int

	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if dd.claim("prod-9|L") {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}
