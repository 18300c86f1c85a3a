package crdt

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLamportClock(t *testing.T) {
	clock := NewLamportClock("")

	require.NotNil(t, clock)
	assert.Equal(t, int64(0), clock.Now(), "Initial counter should be 0")
	assert.NotEmpty(t, clock.ReplicaID(), "ReplicaID should be generated")

	named := NewLamportClock("replica-123")
	assert.Equal(t, "replica-123", named.ReplicaID())
}

func TestLamportClock_Next(t *testing.T) {
	clock := NewLamportClock("node")

	for want := int64(1); want <= 5; want++ {
		id := clock.Next()
		assert.Equal(t, want, id.Clock, "Next should return incremented value")
		assert.Equal(t, "node", id.Replica)
		assert.Equal(t, want, clock.Now())
	}
}

func TestLamportClock_Observe(t *testing.T) {
	tests := []struct {
		name     string
		local    int64
		remote   int64
		expected int64
	}{
		{name: "remote greater than local", local: 5, remote: 10, expected: 11},
		{name: "remote less than local", local: 15, remote: 10, expected: 16},
		{name: "remote equal to local", local: 10, remote: 10, expected: 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := NewLamportClock("node")
			for i := int64(0); i < tt.local; i++ {
				clock.Next()
			}

			clock.Observe(tt.remote)
			// Следующая локальная операция должна быть новее удаленной
			assert.Equal(t, tt.expected, clock.Next().Clock)
		})
	}
}

func TestLamportClock_Concurrent(t *testing.T) {
	clock := NewLamportClock("node")

	var wg sync.WaitGroup
	seen := make(chan int64, 200)
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			seen <- clock.Next().Clock
		}()
		go func(remote int64) {
			defer wg.Done()
			clock.Observe(remote)
		}(int64(i))
	}
	wg.Wait()
	close(seen)

	unique := make(map[int64]bool)
	for v := range seen {
		assert.False(t, unique[v], "every local id must be unique")
		unique[v] = true
	}
	assert.Len(t, unique, 100)
}
