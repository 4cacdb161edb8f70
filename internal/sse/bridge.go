// Change-Event Bridge of the Smeta notification layer.
// The repository/service layer performing a durable write calls the bridge
// right after its commit. The bridge shapes a flat payload and hands the
// publish off to a bounded worker pool, so a slow or stalled subscriber set
// can never add latency to the triggering request. Publish-path failures are
// logged here and never reach the caller.

package sse

import (
	"Smeta/internal/entity"
	"Smeta/pkg/log"
	"context"
	"sync"
	"time"
)

const (
	bridgeWorkers = 4
	bridgeBacklog = 256
)

// Bridge originates events from domain writes and manual dispatch calls.
type Bridge struct {
	publisher *Publisher
	mu        sync.Mutex
	closed    bool
	jobs      chan func(ctx context.Context)
	wg        sync.WaitGroup
	closeOnce sync.Once
	logger    log.Logger
}

// Returns a new Bridge with its worker pool already running.
func NewBridge(publisher *Publisher, logger log.Logger) *Bridge {
	b := &Bridge{
		publisher: publisher,
		jobs:      make(chan func(ctx context.Context), bridgeBacklog),
		logger:    logger,
	}
	for i := 0; i < bridgeWorkers; i++ {
		b.wg.Add(1)
		go b.worker()
	}
	return b
}

func (b *Bridge) worker() {
	defer b.wg.Done()
	// Jobs run on a detached context, the triggering request has already
	// been answered by the time a publish happens.
	ctx := context.Background()
	for job := range b.jobs {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					b.logger.Error().Msgf("Recovered panic in SSE bridge worker: %v", rec)
				}
			}()
			job(ctx)
		}()
	}
}

// submit hands a publish job to the pool without ever blocking the caller.
// A full backlog drops the notification with a warning, live updates are
// best-effort and the write itself has already committed. Submissions racing
// or following Close are dropped the same way, the server keeps answering
// requests while shutdown operations run.
func (b *Bridge) submit(job func(ctx context.Context)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		b.logger.Warn().Msg("SSE bridge closed, dropping change notification")
		return
	}
	select {
	case b.jobs <- job:
	default:
		b.logger.Warn().Msg("SSE bridge backlog full, dropping change notification")
	}
}

// Close drains the pool, letting already queued notifications finish.
// Called once during server shutdown. The closed flag is flipped under the
// same lock submit holds, so no job can be sent on the closed channel.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		b.mu.Unlock()
		close(b.jobs)
	})
	b.wg.Wait()
}

// NotifyEstimateChange broadcasts a change event for a committed estimate write.
// The actor is excluded when known (nonzero): whoever performed the write
// already sees the result in their own response cycle.
func (b *Bridge) NotifyEstimateChange(ctx context.Context, change entity.EstimateChange) {
	eventType := "estimate." + string(change.Op)
	data := estimatePayload(change)
	estimateID := change.Estimate.ID
	exclude := change.ActorID
	b.submit(func(ctx context.Context) {
		b.publisher.SendToAll(ctx, eventType, data, exclude)
		b.logger.Info().Msgf("SSE event broadcast: %s for estimate %d, exclude_user=%d", eventType, estimateID, exclude)
	})
}

// NotifyProjectChange broadcasts a change event for a committed project write.
func (b *Bridge) NotifyProjectChange(ctx context.Context, change entity.ProjectChange) {
	eventType := "project." + string(change.Op)
	data := projectPayload(change.Project)
	projectID := change.Project.ID
	exclude := change.ActorID
	b.submit(func(ctx context.Context) {
		b.publisher.SendToAll(ctx, eventType, data, exclude)
		b.logger.Info().Msgf("SSE event broadcast: %s for project %d, exclude_user=%d", eventType, projectID, exclude)
	})
}

// NotifyRole dispatches an arbitrary event to every member of a role.
func (b *Bridge) NotifyRole(ctx context.Context, roleName string, eventType string, data map[string]interface{}, excludeUserID uint64) {
	b.submit(func(ctx context.Context) {
		b.publisher.SendToRole(ctx, roleName, eventType, data, excludeUserID)
	})
}

// NotifyAll dispatches an arbitrary event to every connected user.
func (b *Bridge) NotifyAll(ctx context.Context, eventType string, data map[string]interface{}, excludeUserID uint64) {
	b.submit(func(ctx context.Context) {
		b.publisher.SendToAll(ctx, eventType, data, excludeUserID)
	})
}

// estimatePayload flattens an estimate snapshot into the shape the frontend
// renders: ids plus display names for every reference.
func estimatePayload(change entity.EstimateChange) map[string]interface{} {
	e := change.Estimate
	if change.Op == entity.ChangeDeleted {
		// Deletions only need enough to drop the row client-side
		return map[string]interface{}{
			"estimate_id":     e.ID,
			"estimate_number": e.Number,
			"project_id":      idOrNil(e.ProjectID),
			"foreman_id":      idOrNil(e.ForemanID),
		}
	}
	return map[string]interface{}{
		"estimate_id":     e.ID,
		"estimate_number": e.Number,
		// Estimates are displayed by their number
		"name":         e.Number,
		"project_id":   idOrNil(e.ProjectID),
		"project_name": strOrNil(e.ProjectName),
		"foreman_id":   idOrNil(e.ForemanID),
		"foreman_name": strOrNil(e.ForemanName),
		"creator_id":   idOrNil(e.CreatorID),
		"creator_name": strOrNil(e.CreatorName),
		"status":       strOrNil(e.Status),
		"created_at":   timeOrNil(e.CreatedAt),
	}
}

func projectPayload(p entity.Project) map[string]interface{} {
	return map[string]interface{}{
		"project_id":   p.ID,
		"project_name": p.Name,
		"address":      p.Address,
		"description":  p.Description,
		"created_at":   timeOrNil(p.CreatedAt),
	}
}

// Optional references serialize as null when unset, the frontend checks for it.

func idOrNil(id uint64) interface{} {
	if id == 0 {
		return nil
	}
	return id
}

func strOrNil(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func timeOrNil(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339)
}
