package service

import (
	"context"
	"testing"
	"time"

	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/changefeed"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/hub"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/model"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/pkg/logger"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopSink struct{}

func (nopSink) Toast(uuid.UUID, hub.Event, time.Duration) {}
func (nopSink) Sound(uuid.UUID, model.Category)           {}
func (nopSink) Badge(uuid.UUID, int64)                    {}

type nopPush struct{}

func (nopPush) Push(context.Context, uuid.UUID, hub.Event) error { return nil }

func newTestService(t *testing.T) (*NotificationService, *memory.NotificationRepository, *memory.MessageRepository) {
	t.Helper()

	source := changefeed.NewMemorySource()
	t.Cleanup(func() { _ = source.Close() })

	notifications := memory.NewNotificationRepository()
	messages := memory.NewMessageRepository()

	svc := NewNotificationService(source, nopSink{}, nopPush{}, notifications, messages, logger.NewNopLogger())
	return svc, notifications, messages
}

func TestServiceAttachDetachRefcount(t *testing.T) {
	svc, _, _ := newTestService(t)
	principal := model.Principal{ID: uuid.New(), Role: model.RoleUser}

	h1, err := svc.Attach(context.Background(), principal)
	require.NoError(t, err)

	// Second tab on the same account shares the hub.
	h2, err := svc.Attach(context.Background(), principal)
	require.NoError(t, err)
	assert.Same(t, h1, h2)

	svc.Detach(principal.ID)
	_, ok := svc.HubFor(principal.ID)
	assert.True(t, ok, "hub survives while one client remains")

	svc.Detach(principal.ID)
	_, ok = svc.HubFor(principal.ID)
	assert.False(t, ok, "last detach stops the hub")

	// Detach on an unknown user is a no-op.
	svc.Detach(principal.ID)
}

func TestServiceAttachRoleChangeRebuildsSubscriptions(t *testing.T) {
	svc, _, _ := newTestService(t)
	id := uuid.New()

	h, err := svc.Attach(context.Background(), model.Principal{ID: id, Role: model.RoleUser})
	require.NoError(t, err)
	userChannels := h.ActiveChannels()

	h2, err := svc.Attach(context.Background(), model.Principal{ID: id, Role: model.RoleNutritionist})
	require.NoError(t, err)
	assert.Same(t, h, h2)
	assert.Greater(t, len(h2.ActiveChannels()), len(userChannels), "staff catalogue is larger")
	assert.Contains(t, h2.ActiveChannels(), "staff-signups")

	svc.Detach(id)
	svc.Detach(id)
}

func TestServiceCountUnreadSumsSources(t *testing.T) {
	svc, notifications, messages := newTestService(t)
	userID := uuid.New()

	messages.SetUnread(userID, 2)
	require.NoError(t, notifications.Create(context.Background(), &model.Notification{
		UserID: userID, Category: model.CategoryGeneral, Title: "n",
	}))

	count, err := svc.CountUnread(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestServiceMarkAllAsReadResyncsAttachedHub(t *testing.T) {
	svc, notifications, _ := newTestService(t)
	principal := model.Principal{ID: uuid.New(), Role: model.RoleUser}

	for i := 0; i < 3; i++ {
		require.NoError(t, notifications.Create(context.Background(), &model.Notification{
			UserID: principal.ID, Category: model.CategoryGeneral, Title: "n",
		}))
	}

	h, err := svc.Attach(context.Background(), principal)
	require.NoError(t, err)
	defer svc.Detach(principal.ID)
	assert.Equal(t, int64(3), h.UnreadCount())

	require.NoError(t, svc.MarkAllAsRead(context.Background(), principal.ID))
	assert.Equal(t, int64(0), h.UnreadCount())
}

func TestServiceReconcileWithoutHubFallsBackToQuery(t *testing.T) {
	svc, _, messages := newTestService(t)
	userID := uuid.New()
	messages.SetUnread(userID, 5)

	count, err := svc.Reconcile(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}
