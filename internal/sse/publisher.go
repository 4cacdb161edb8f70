// Event publisher of the Smeta notification layer.
// Resolves "who should receive this event" and enqueues a copy of it onto
// every target connection's queue.

package sse

import (
	"Smeta/internal/entity"
	"Smeta/pkg/log"
	"context"
)

// RoleResolver resolves a role name to the ids of its current members.
// Satisfied by user.Repository.
type RoleResolver interface {
	GetUsersByRole(ctx context.Context, logger log.Logger, roleName string) ([]uint64, error)
}

// Publisher fans events out to the queues tracked by the Registry.
// Every enqueue is non-blocking, a stalled reader gets evicted instead of
// backpressuring the publish path.
type Publisher struct {
	registry *Registry
	roles    RoleResolver
	logger   log.Logger
}

// Returns a new Publisher fanning out over registry, resolving roles via roles.
func NewPublisher(registry *Registry, roles RoleResolver, logger log.Logger) *Publisher {
	return &Publisher{registry: registry, roles: roles, logger: logger}
}

// SendToUser enqueues the event onto every connection held by userID.
// No-op for users with no live connections. A connection whose queue is full
// is removed from the registry as if it had disconnected, trading its event
// delivery for publisher liveness. The data map must not be mutated after
// this call, queues share it.
func (p *Publisher) SendToUser(ctx context.Context, userID uint64, eventType string, data map[string]interface{}) {
	event := entity.NewEvent(eventType, data)
	r := p.registry
	r.mu.Lock()
	defer r.mu.Unlock()
	conns, ok := r.clients[userID]
	if !ok {
		return
	}
	for connID, queue := range conns {
		select {
		case queue <- event:
			p.logger.WithCtx(ctx).Debug().Msgf("Event %s sent to user %d, connection %s", eventType, userID, connID)
		default:
			// Queue full, the consumer stalled. Drop the connection, not the
			// event for everyone else.
			p.logger.WithCtx(ctx).Warn().Msgf("Queue full for user %d, connection %s. Removing client.", userID, connID)
			r.removeLocked(userID, connID)
		}
	}
}

// SendToRole fans the event out to every user currently holding roleName,
// skipping excludeUserID. Role resolution errors are logged and swallowed,
// nothing on the publish path may surface into a domain write.
func (p *Publisher) SendToRole(ctx context.Context, roleName string, eventType string, data map[string]interface{}, excludeUserID uint64) {
	members, err := p.roles.GetUsersByRole(ctx, p.logger, roleName)
	if err != nil {
		p.logger.WithCtx(ctx).Error().Err(err).Msgf("Error broadcasting to role %s", roleName)
		return
	}
	for _, userID := range members {
		if excludeUserID != 0 && userID == excludeUserID {
			continue
		}
		p.SendToUser(ctx, userID, eventType, data)
	}
}

// SendToAll targets every user currently present in the registry, which is
// only users with at least one live connection, skipping excludeUserID.
// The actor who caused a change already knows the result from their own
// request, excluding them avoids a redundant self-notification.
func (p *Publisher) SendToAll(ctx context.Context, eventType string, data map[string]interface{}, excludeUserID uint64) {
	r := p.registry
	r.mu.Lock()
	targets := make([]uint64, 0, len(r.clients))
	for userID := range r.clients {
		if excludeUserID != 0 && userID == excludeUserID {
			continue
		}
		targets = append(targets, userID)
	}
	r.mu.Unlock()
	for _, userID := range targets {
		p.SendToUser(ctx, userID, eventType, data)
	}
}
