package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/hub"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/model"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Frame kinds pushed to clients. Toast carries the notification copy, sound
// tells the client to play the chime, badge carries the unread count (0
// clears the badge).
const (
	FrameToast = "toast"
	FrameSound = "sound"
	FrameBadge = "badge"
)

// Hub fans UI frames out to connected clients and implements the delivery
// pipeline's ClientSink. Every send is non-blocking: a client that cannot
// keep up is dropped, not waited on.
type Hub struct {
	// Registered clients map: UserID -> List of Clients (multi-device)
	clients map[uuid.UUID][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance fan-out
	rdb *redis.Client

	logger logger.ILogger
}

var _ hub.ClientSink = (*Hub)(nil)

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": client.UserID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.UserID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.UserID]) == 0 {
					delete(h.clients, client.UserID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Toast implements hub.ClientSink. The duration is a client-side
// auto-dismiss hint in milliseconds.
func (h *Hub) Toast(userID uuid.UUID, e hub.Event, duration time.Duration) {
	h.send(userID, FrameToast, map[string]interface{}{
		"title":       e.Title,
		"description": e.Description,
		"category":    e.Category,
		"url":         e.URL,
		"variant":     "default",
		"duration_ms": duration.Milliseconds(),
		"at":          e.At,
	})
}

// Sound implements hub.ClientSink. Playback is entirely the client's
// problem; an autoplay-blocked browser just stays quiet.
func (h *Hub) Sound(userID uuid.UUID, category model.Category) {
	h.send(userID, FrameSound, map[string]interface{}{
		"category": category,
	})
}

// Badge implements hub.ClientSink.
func (h *Hub) Badge(userID uuid.UUID, count int64) {
	h.send(userID, FrameBadge, map[string]interface{}{
		"count": count,
		"clear": count == 0,
	})
}

// BroadcastToast pushes a toast frame to every connected client, local and
// remote. Used by the staff system-broadcast endpoint.
func (h *Hub) BroadcastToast(e hub.Event, duration time.Duration) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": FrameToast,
		"data": map[string]interface{}{
			"title":       e.Title,
			"description": e.Description,
			"category":    e.Category,
			"url":         e.URL,
			"variant":     "default",
			"duration_ms": duration.Milliseconds(),
			"at":          e.At,
		},
	})

	h.mu.RLock()
	for _, clients := range h.clients {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				close(client.Send)
				h.unregister <- client
			}
		}
	}
	h.mu.RUnlock()

	if h.rdb != nil {
		h.publishToRedis("*", data)
	}
}

func (h *Hub) send(userID uuid.UUID, kind string, payload map[string]interface{}) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": kind,
		"data": payload,
	})

	h.mu.RLock()
	clients, localFound := h.clients[userID]
	h.mu.RUnlock()

	if localFound {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				h.logger.Warn("Hub", "Client send buffer full, dropping frame", map[string]interface{}{"user_id": userID, "kind": kind})
				close(client.Send)
				h.unregister <- client
			}
		}
	}

	// Other instances may hold this user's remaining devices.
	if h.rdb != nil {
		h.publishToRedis(userID.String(), data)
	}
}

func (h *Hub) publishToRedis(target string, data []byte) {
	payload := map[string]interface{}{
		"target_user_id": target,
		"message":        json.RawMessage(data),
	}
	jsonPayload, _ := json.Marshal(payload)
	h.rdb.Publish(context.Background(), "cluster_events", jsonPayload)
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "cluster_events")
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		var payload struct {
			TargetUserID string          `json:"target_user_id"`
			Message      json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		if payload.TargetUserID == "*" {
			h.mu.RLock()
			for _, clients := range h.clients {
				for _, client := range clients {
					select {
					case client.Send <- payload.Message:
					default:
						close(client.Send)
						h.unregister <- client
					}
				}
			}
			h.mu.RUnlock()
			continue
		}

		uid, err := uuid.Parse(payload.TargetUserID)
		if err != nil {
			continue
		}

		h.mu.RLock()
		clients, ok := h.clients[uid]
		h.mu.RUnlock()

		if ok {
			for _, client := range clients {
				select {
				case client.Send <- payload.Message:
				default:
					close(client.Send)
					h.unregister <- client
				}
			}
		}
	}
}
