package hub

import (
	"context"
	"sync"
	"time"

	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/model"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/pkg/logger"

	"github.com/google/uuid"
)

// sinkRecorder captures every ClientSink call for assertions.
type sinkRecorder struct {
	mu     sync.Mutex
	toasts []Event
	sounds []model.Category
	badges []int64
}

func (s *sinkRecorder) Toast(userID uuid.UUID, e Event, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toasts = append(s.toasts, e)
}

func (s *sinkRecorder) Sound(userID uuid.UUID, category model.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sounds = append(s.sounds, category)
}

func (s *sinkRecorder) Badge(userID uuid.UUID, count int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.badges = append(s.badges, count)
}

func (s *sinkRecorder) toastCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.toasts)
}

func (s *sinkRecorder) soundCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sounds)
}

func (s *sinkRecorder) lastBadge() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.badges) == 0 {
		return 0, false
	}
	return s.badges[len(s.badges)-1], true
}

func (s *sinkRecorder) lastToast() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.toasts) == 0 {
		return Event{}, false
	}
	return s.toasts[len(s.toasts)-1], true
}

// pushRecorder captures Push calls and optionally fails them.
type pushRecorder struct {
	mu     sync.Mutex
	pushed []Event
	err    error
}

func (p *pushRecorder) Push(ctx context.Context, userID uuid.UUID, e Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushed = append(p.pushed, e)
	return p.err
}

func (p *pushRecorder) pushCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pushed)
}

func testLogger() logger.ILogger {
	return logger.NewNopLogger()
}
