package client

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWatermark_ObserveIsFirstTimeOnly(t *testing.T) {
	req := require.New(t)
	w := NewWatermark()

	req.True(w.Observe(1))
	req.False(w.Observe(1))
	req.True(w.Observe(3))
	req.Equal(int64(3), w.Last())

	// Ids at or below the watermark are never first-time, even unseen ones:
	// the poll path already covered them.
	req.False(w.Observe(2))
	req.Equal(int64(3), w.Last())
}

func TestWatermark_NeverDecreases(t *testing.T) {
	req := require.New(t)
	w := NewWatermark()

	w.Observe(10)
	w.Observe(5)
	w.Observe(7)
	req.Equal(int64(10), w.Last())
}

func TestWatermark_ConcurrentObserversSeeEachIdOnce(t *testing.T) {
	req := require.New(t)
	w := NewWatermark()

	// Push and poll paths race to observe the same ids; each id must be
	// first-time for exactly one of them.
	const maxID = 200
	firstTimes := make(chan int64, 2*maxID)

	var wg sync.WaitGroup
	for path := 0; path < 2; path++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := int64(1); id <= maxID; id++ {
				if w.Observe(id) {
					firstTimes <- id
				}
			}
		}()
	}
	wg.Wait()
	close(firstTimes)

	seen := make(map[int64]int)
	for id := range firstTimes {
		seen[id]++
	}
	for id, count := range seen {
		req.Equal(1, count, "id %d observed first-time %d times", id, count)
	}
	req.Equal(int64(maxID), w.Last())
}
