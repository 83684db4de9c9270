package push

import (
	"context"
	"encoding/json"
	"fmt"

	pktNats "github.com/Ahmed-S-Salim/greenofig-sub002/pkg/nats"

	"github.com/google/uuid"
)

// WebPushProvider is the rich backend: it hands the payload to the per-user
// NATS push subject, where the edge agents translate it into a Web Push
// message for subscribed browsers.
type WebPushProvider struct {
	publisher *pktNats.Publisher
}

func NewWebPushProvider(publisher *pktNats.Publisher) *WebPushProvider {
	return &WebPushProvider{publisher: publisher}
}

func (p *WebPushProvider) Name() string { return "webpush" }

func (p *WebPushProvider) Available() bool {
	return p.publisher != nil && p.publisher.Connected()
}

func (p *WebPushProvider) Send(ctx context.Context, userID uuid.UUID, payload *Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal push payload: %w", err)
	}
	return p.publisher.PublishPush(userID.String(), data)
}
