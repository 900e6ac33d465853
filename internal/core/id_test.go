package core

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDGeneratorSameMillisecond(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	g := &IDGenerator{now: func() time.Time { return fixed }}

	a, b, c := g.Next(), g.Next(), g.Next()
	assert.Equal(t, int64(1_700_000_000_000), a)
	assert.Equal(t, a+1, b)
	assert.Equal(t, b+1, c)
}

func TestIDGeneratorClockGoingBackwards(t *testing.T) {
	ts := time.UnixMilli(2_000)
	g := &IDGenerator{now: func() time.Time { return ts }}

	first := g.Next()
	ts = time.UnixMilli(1_000)
	assert.Greater(t, g.Next(), first)
}

func TestIDGeneratorConcurrentUnique(t *testing.T) {
	g := NewIDGenerator()
	const n = 500

	var (
		mu   sync.Mutex
		seen = make(map[int64]struct{}, n)
		wg   sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := g.Next()
			mu.Lock()
			seen[id] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()
	require.Len(t, seen, n)
}
