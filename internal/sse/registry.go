// Connection registry of the Smeta notification layer.
// Tracks every live subscriber stream keyed by user id, each with its own
// bounded event queue.

package sse

import (
	"Smeta/internal/entity"
	"Smeta/pkg/log"
	"sync"
)

// queueCapacity bounds every per-connection queue. A consumer which falls
// this many events behind is treated as dead and evicted.
const queueCapacity = 100

// Registry is the in-memory index of user id -> active connections -> queues.
// A user may hold several simultaneous connections (several tabs or devices).
// Constructed once at startup and passed around as an explicit dependency,
// a single coarse lock guards the map since all operations run at
// connection setup/teardown or publish frequency.
type Registry struct {
	mu       sync.Mutex
	clients  map[uint64]map[string]chan entity.Event
	capacity int
	logger   log.Logger
}

// Returns a new Registry ready to accept connections.
func NewRegistry(logger log.Logger) *Registry {
	return &Registry{
		clients:  make(map[uint64]map[string]chan entity.Event),
		capacity: queueCapacity,
		logger:   logger,
	}
}

// Register creates a bounded queue for (userID, connID), stores it and returns it.
// Safe under concurrent calls from multiple connection handlers.
func (r *Registry) Register(userID uint64, connID string) chan entity.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[userID]; !ok {
		r.clients[userID] = make(map[string]chan entity.Event)
	}
	queue := make(chan entity.Event, r.capacity)
	r.clients[userID][connID] = queue
	r.logger.Info().Msgf("SSE client added: user_id=%d, connection_id=%s", userID, connID)
	return queue
}

// Unregister removes (userID, connID) and closes its queue so the draining
// handler observes termination. Removing the last connection of a user drops
// the user entry entirely, no empty sets persist. No-op if the connection is
// already gone since disconnect cleanup can race with slow-consumer eviction.
func (r *Registry) Unregister(userID uint64, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(userID, connID)
}

// removeLocked must be called with r.mu held. Closing the queue is safe here
// because every enqueue also runs under r.mu and checks the map first.
func (r *Registry) removeLocked(userID uint64, connID string) {
	conns, ok := r.clients[userID]
	if !ok {
		return
	}
	queue, ok := conns[connID]
	if !ok {
		return
	}
	delete(conns, connID)
	if len(conns) == 0 {
		delete(r.clients, userID)
	}
	close(queue)
	r.logger.Info().Msgf("SSE client removed: user_id=%d, connection_id=%s", userID, connID)
}

// Stats returns a point-in-time snapshot of the registry for diagnostics.
func (r *Registry) Stats() entity.RegistryStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := entity.RegistryStats{
		TotalUsers: len(r.clients),
		Users:      make(map[uint64]int, len(r.clients)),
	}
	for userID, conns := range r.clients {
		stats.Users[userID] = len(conns)
		stats.TotalConnections += len(conns)
	}
	return stats
}

// HasUser reports whether the user currently holds at least one connection.
func (r *Registry) HasUser(userID uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.clients[userID]
	return ok
}

// Close evicts every connection, closing their queues so the streaming
// handlers drain out. Called once during server shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, conns := range r.clients {
		for connID, queue := range conns {
			delete(conns, connID)
			close(queue)
		}
		delete(r.clients, userID)
	}
	r.logger.Info().Msg("SSE registry closed, all clients disconnected")
}
