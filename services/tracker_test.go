package services_test

import (
	"sync"
	"testing"

	"uriscan/services"

	"github.com/stretchr/testify/require"
)

func TestSessionTrackerAdvance(t *testing.T) {
	tracker := services.NewSessionTracker()

	require.True(t, tracker.Advance("user1", "2026-08-30", "hw1"))
	require.False(t, tracker.Advance("user1", "2026-08-30", "hw1"))
	require.True(t, tracker.Advance("user1", "2026-08-30", "hw2"))

	// Users are tracked independently
	require.True(t, tracker.Advance("user2", "2026-08-30", "hw1"))
}

func TestSessionTrackerLast(t *testing.T) {
	tracker := services.NewSessionTracker()

	_, ok := tracker.Last("user1")
	require.False(t, ok)

	tracker.Advance("user1", "2026-08-30", "hw1")
	marker, ok := tracker.Last("user1")
	require.True(t, ok)
	require.Equal(t, "2026-08-30/hw1", marker)
}

func TestSessionTrackerConcurrentAdvance(t *testing.T) {
	tracker := services.NewSessionTracker()

	var wg sync.WaitGroup
	var mu sync.Mutex
	advanced := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tracker.Advance("user1", "2026-08-30", "hw1") {
				mu.Lock()
				advanced++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Exactly one goroutine wins the first observation
	require.Equal(t, 1, advanced)
}
