package hub

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/model"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcilerOverwritesOptimisticCount(t *testing.T) {
	messages := memory.NewMessageRepository()
	notifications := memory.NewNotificationRepository()
	sink := &sinkRecorder{}
	var unread atomic.Int64

	r := NewReconciler(messages, notifications, &unread, sink, testLogger())

	// Optimistic counter drifted to 7; database says 2.
	unread.Store(7)
	messages.SetUnread(clientID, 2)

	require.NoError(t, r.Reconcile(context.Background(), clientPrincipal))
	assert.Equal(t, int64(2), unread.Load())

	badge, ok := sink.lastBadge()
	require.True(t, ok)
	assert.Equal(t, int64(2), badge)
}

func TestReconcilerSumsMessagesAndNotifications(t *testing.T) {
	messages := memory.NewMessageRepository()
	notifications := memory.NewNotificationRepository()
	var unread atomic.Int64

	r := NewReconciler(messages, notifications, &unread, &sinkRecorder{}, testLogger())

	messages.SetUnread(clientID, 3)
	for i := 0; i < 2; i++ {
		require.NoError(t, notifications.Create(context.Background(), &model.Notification{
			UserID:   clientID,
			Category: model.CategoryGeneral,
			Title:    "n",
		}))
	}

	require.NoError(t, r.Reconcile(context.Background(), clientPrincipal))
	assert.Equal(t, int64(5), unread.Load())
}

func TestReconcilerIdempotent(t *testing.T) {
	messages := memory.NewMessageRepository()
	notifications := memory.NewNotificationRepository()
	var unread atomic.Int64

	r := NewReconciler(messages, notifications, &unread, &sinkRecorder{}, testLogger())
	messages.SetUnread(clientID, 4)

	require.NoError(t, r.Reconcile(context.Background(), clientPrincipal))
	require.NoError(t, r.Reconcile(context.Background(), clientPrincipal))
	require.NoError(t, r.Reconcile(context.Background(), clientPrincipal))

	assert.Equal(t, int64(4), unread.Load())
}

func TestReconcilerKeepsPreviousCountOnFailure(t *testing.T) {
	messages := memory.NewMessageRepository()
	notifications := memory.NewNotificationRepository()
	var unread atomic.Int64

	r := NewReconciler(messages, notifications, &unread, &sinkRecorder{}, testLogger())
	unread.Store(7)

	messages.Err = errors.New("connection refused")
	err := r.Reconcile(context.Background(), clientPrincipal)
	assert.Error(t, err)
	assert.Equal(t, int64(7), unread.Load(), "stale beats zero")

	messages.Err = nil
	notifications.Err = errors.New("connection refused")
	err = r.Reconcile(context.Background(), clientPrincipal)
	assert.Error(t, err)
	assert.Equal(t, int64(7), unread.Load())
}
