// SSE service layer tests in Smeta.

package sse

import (
	"Smeta/internal/entity"
	"Smeta/internal/errors"
	"Smeta/pkg/log"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSseRepo records the diagnostics mirror calls instead of touching Redis.
type fakeSseRepo struct {
	added   []uint64
	removed []uint64
}

func (f *fakeSseRepo) AddClient(ctx context.Context, logger log.Logger, userID uint64) error {
	f.added = append(f.added, userID)
	return nil
}

func (f *fakeSseRepo) RemoveClient(ctx context.Context, logger log.Logger, userID uint64) error {
	f.removed = append(f.removed, userID)
	return nil
}

func newTestService(keepAlive time.Duration) (Service, *Registry, *fakeSseRepo) {
	logger := testLogger()
	registry := NewRegistry(logger)
	publisher := NewPublisher(registry, fakeRoles{members: map[string][]uint64{"менеджер": {1}}}, logger)
	bridge := NewBridge(publisher, logger)
	repo := &fakeSseRepo{}
	return NewService(registry, bridge, repo, keepAlive, logger), registry, repo
}

func TestServiceConnectDisconnectMirrorsClients(t *testing.T) {
	service, registry, repo := newTestService(0)
	ctx := context.Background()

	service.Connect(ctx, 1, "c1")
	service.Connect(ctx, 1, "c2")
	assert.Equal(t, []uint64{1, 1}, repo.added)

	// The mirror entry stays while a second tab is still open
	service.Disconnect(ctx, 1, "c1")
	assert.Len(t, repo.removed, 0)

	service.Disconnect(ctx, 1, "c2")
	assert.Equal(t, []uint64{1}, repo.removed)
	assert.False(t, registry.HasUser(1))
}

func TestServiceStatsSnapshot(t *testing.T) {
	service, _, _ := newTestService(0)
	ctx := context.Background()

	service.Connect(ctx, 1, "c1")
	service.Connect(ctx, 2, "c2")

	stats := service.Stats(ctx)
	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, 2, stats.TotalConnections)
}

func TestServiceNotifyRejectsMissingEvent(t *testing.T) {
	service, _, _ := newTestService(0)

	err := service.Notify(context.Background(), entity.NotifyRequest{})
	require.Error(t, err)

	resp, ok := err.(errors.ErrorResponse)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
}

func TestServiceNotifyBroadcasts(t *testing.T) {
	service, registry, _ := newTestService(0)
	queue := registry.Register(2, "c1")

	err := service.Notify(context.Background(), entity.NotifyRequest{
		Event: "announcement",
		Data:  map[string]interface{}{"msg": "премия"},
	})
	require.NoError(t, err)

	event := receiveEvent(t, queue)
	assert.Equal(t, "announcement", event.Event)
	assert.Equal(t, "премия", event.Data["msg"])
}

func TestServiceNotifyRoleTargeting(t *testing.T) {
	service, registry, _ := newTestService(0)
	manager := registry.Register(1, "c1")
	foreman := registry.Register(2, "c2")

	err := service.Notify(context.Background(), entity.NotifyRequest{
		Event: "price.requested",
		Role:  "менеджер",
	})
	require.NoError(t, err)

	event := receiveEvent(t, manager)
	assert.Equal(t, "price.requested", event.Event)
	assert.Len(t, foreman, 0)
}

func TestServiceKeepAliveDefaultsToFiveSeconds(t *testing.T) {
	service, _, _ := newTestService(0)
	assert.Equal(t, 5*time.Second, service.KeepAliveInterval())

	custom, _, _ := newTestService(250 * time.Millisecond)
	assert.Equal(t, 250*time.Millisecond, custom.KeepAliveInterval())
}
