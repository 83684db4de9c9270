package hub

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrySubscribeEmit(t *testing.T) {
	r := NewRegistry()

	id, ch := r.Subscribe(4)
	require.NotEmpty(t, id)
	assert.Equal(t, 1, r.Len())

	r.Emit(Event{Title: "first"})
	r.Emit(Event{Title: "second"})

	assert.Equal(t, "first", (<-ch).Title)
	assert.Equal(t, "second", (<-ch).Title)
}

func TestRegistryUnsubscribeClosesChannel(t *testing.T) {
	r := NewRegistry()

	id, ch := r.Subscribe(1)
	r.Unsubscribe(id)

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, r.Len())

	// Second unsubscribe is a no-op, not a double close.
	r.Unsubscribe(id)
}

func TestRegistryEmitDropsWhenFull(t *testing.T) {
	r := NewRegistry()

	_, ch := r.Subscribe(1)
	r.Emit(Event{Title: "kept"})
	r.Emit(Event{Title: "dropped"})

	assert.Equal(t, "kept", (<-ch).Title)
	select {
	case e := <-ch:
		t.Fatalf("expected no further event, got %q", e.Title)
	default:
	}
}

func TestRegistryUnsubscribeDuringEmit(t *testing.T) {
	r := NewRegistry()

	// Many listeners churning while emits run. The race detector flags any
	// send-on-closed-channel window here.
	stop := make(chan struct{})
	emitterDone := make(chan struct{})
	go func() {
		defer close(emitterDone)
		for {
			select {
			case <-stop:
				return
			default:
				r.Emit(Event{Title: "churn"})
			}
		}
	}()

	var churners sync.WaitGroup
	for i := 0; i < 20; i++ {
		churners.Add(1)
		go func() {
			defer churners.Done()
			for j := 0; j < 100; j++ {
				id, ch := r.Subscribe(1)
				select {
				case <-ch:
				default:
				}
				r.Unsubscribe(id)
			}
		}()
	}

	churners.Wait()
	close(stop)
	<-emitterDone

	assert.Equal(t, 0, r.Len())
}

func TestRegistryDefaultBuffer(t *testing.T) {
	r := NewRegistry()

	_, ch := r.Subscribe(0)
	for i := 0; i < defaultListenerBuffer; i++ {
		r.Emit(Event{Title: "fill"})
	}

	count := 0
	for {
		select {
		case <-ch:
			count++
			continue
		default:
		}
		break
	}
	assert.Equal(t, defaultListenerBuffer, count)
}
