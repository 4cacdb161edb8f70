// Connection registry tests in Smeta.

package sse

import (
	"Smeta/pkg/log"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testLogger() log.Logger {
	return log.New("test")
}

func TestRegistryRegisterReportsInStats(t *testing.T) {
	registry := NewRegistry(testLogger())

	queue := registry.Register(1, "c1")
	assert.NotNil(t, queue)
	assert.Equal(t, queueCapacity, cap(queue))

	stats := registry.Stats()
	assert.Equal(t, 1, stats.TotalUsers)
	assert.Equal(t, 1, stats.TotalConnections)
	assert.Equal(t, 1, stats.Users[1])
}

func TestRegistryMultipleConnectionsPerUser(t *testing.T) {
	registry := NewRegistry(testLogger())

	registry.Register(1, "c1")
	registry.Register(1, "c2")
	registry.Register(2, "c3")

	stats := registry.Stats()
	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, 3, stats.TotalConnections)
	assert.Equal(t, 2, stats.Users[1])
	assert.Equal(t, 1, stats.Users[2])
}

func TestRegistryUnregisterPrunesEmptyUsers(t *testing.T) {
	registry := NewRegistry(testLogger())

	queue := registry.Register(1, "c1")
	registry.Register(1, "c2")

	registry.Unregister(1, "c1")
	stats := registry.Stats()
	assert.Equal(t, 1, stats.Users[1])
	// Queue of the removed connection is closed so its drain loop exits
	_, open := <-queue
	assert.False(t, open)

	registry.Unregister(1, "c2")
	stats = registry.Stats()
	assert.Equal(t, 0, stats.TotalUsers)
	assert.Equal(t, 0, stats.TotalConnections)
	// No empty entry is left behind
	_, tracked := stats.Users[1]
	assert.False(t, tracked)
}

func TestRegistryUnregisterIsIdempotent(t *testing.T) {
	registry := NewRegistry(testLogger())

	registry.Register(1, "c1")
	registry.Unregister(1, "c1")
	// Second removal of the same connection must be a harmless no-op,
	// disconnect cleanup can race with slow-consumer eviction
	registry.Unregister(1, "c1")
	// As must removing something never registered
	registry.Unregister(42, "ghost")

	assert.Equal(t, 0, registry.Stats().TotalConnections)
}

func TestRegistryHasUser(t *testing.T) {
	registry := NewRegistry(testLogger())

	assert.False(t, registry.HasUser(1))
	registry.Register(1, "c1")
	assert.True(t, registry.HasUser(1))
	registry.Unregister(1, "c1")
	assert.False(t, registry.HasUser(1))
}

func TestRegistryConcurrentSetupTeardown(t *testing.T) {
	registry := NewRegistry(testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			userID := uint64(n % 5)
			connID := string(rune('a' + n))
			registry.Register(userID, connID)
			registry.Unregister(userID, connID)
		}(i)
	}
	wg.Wait()

	stats := registry.Stats()
	assert.Equal(t, 0, stats.TotalUsers)
	assert.Equal(t, 0, stats.TotalConnections)
}

func TestRegistryCloseDisconnectsEveryone(t *testing.T) {
	registry := NewRegistry(testLogger())

	q1 := registry.Register(1, "c1")
	q2 := registry.Register(2, "c2")

	registry.Close()

	_, open := <-q1
	assert.False(t, open)
	_, open = <-q2
	assert.False(t, open)
	assert.Equal(t, 0, registry.Stats().TotalConnections)
}
