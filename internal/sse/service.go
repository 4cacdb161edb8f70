// Service layer of Server Side Events (SSE) in Smeta.

package sse

import (
	"Smeta/internal/entity"
	"Smeta/internal/errors"
	"Smeta/pkg/log"
	"context"
	"time"

	"github.com/asaskevich/govalidator"
)

// Default wait on an idle stream before a keepalive is synthesized.
const defaultKeepAlive = 5 * time.Second

type Service interface {
	// Connect registers a new stream connection and returns its event queue.
	Connect(ctx context.Context, userID uint64, connID string) <-chan entity.Event
	// Disconnect tears the connection down, idempotent.
	Disconnect(ctx context.Context, userID uint64, connID string)
	// Stats returns a snapshot of the live connection registry.
	Stats(ctx context.Context) entity.RegistryStats
	// Notify validates and dispatches a manually originated event.
	Notify(ctx context.Context, request entity.NotifyRequest) error
	// KeepAliveInterval is how long a stream waits for an event before
	// emitting a keepalive to the client.
	KeepAliveInterval() time.Duration
}

// Object of this will be passed around from main to routers to API.
// Helps to access the service layer interface and call methods.
// Also helps to pass objects to be used from outer layer.
type service struct {
	registry  *Registry
	bridge    *Bridge
	sseRepo   Repository
	keepAlive time.Duration
	logger    log.Logger
}

// Helps to access the service layer interface and call methods. Service object is passed from main.
// keepAlive <= 0 falls back to the 5s default.
func NewService(registry *Registry, bridge *Bridge, sseRepo Repository, keepAlive time.Duration, logger log.Logger) Service {
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	return service{registry: registry, bridge: bridge, sseRepo: sseRepo, keepAlive: keepAlive, logger: logger}
}

func (s service) Connect(ctx context.Context, userID uint64, connID string) <-chan entity.Event {
	queue := s.registry.Register(userID, connID)
	if dberr := s.sseRepo.AddClient(ctx, s.logger, userID); dberr != nil {
		// Diagnostics mirror only, a failed write must not break the stream
		s.logger.WithCtx(ctx).Warn().Msgf("Couldn't mirror SSE client %d into the DB", userID)
	}
	return queue
}

func (s service) Disconnect(ctx context.Context, userID uint64, connID string) {
	s.registry.Unregister(userID, connID)
	if !s.registry.HasUser(userID) {
		if dberr := s.sseRepo.RemoveClient(ctx, s.logger, userID); dberr != nil {
			s.logger.WithCtx(ctx).Warn().Msgf("Couldn't remove SSE client %d from the DB", userID)
		}
	}
}

func (s service) Stats(ctx context.Context) entity.RegistryStats {
	return s.registry.Stats()
}

func (s service) Notify(ctx context.Context, request entity.NotifyRequest) error {
	// Validate the received request data against validation-tags mentioned in its entity
	_, valerr := govalidator.ValidateStruct(request)
	if valerr != nil {
		valerrs := valerr.(govalidator.Errors).Errors()
		return errors.GenerateValidationErrorResponse(valerrs)
	}
	if request.Role != "" {
		s.bridge.NotifyRole(ctx, request.Role, request.Event, request.Data, request.ExcludeUserID)
	} else {
		s.bridge.NotifyAll(ctx, request.Event, request.Data, request.ExcludeUserID)
	}
	return nil
}

func (s service) KeepAliveInterval() time.Duration {
	return s.keepAlive
}
