package bus

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// Channel returns the pub/sub channel carrying one auction's room events.
func Channel(auctionID string) string {
	return "auc:" + auctionID + ":events"
}

// Publisher pushes auction events through Redis pub/sub; the websocket
// layer subscribes per auction and fans messages into the local hub.
type Publisher struct {
	rdc *redis.Client
}

func NewPublisher(rdc *redis.Client) *Publisher {
	return &Publisher{rdc: rdc}
}

// Publish marshals the event payload with its name embedded, matching what
// the subscription side unwraps into the websocket envelope.
func (p *Publisher) Publish(ctx context.Context, auctionID, event string, body map[string]any) error {
	msg := make(map[string]any, len(body)+1)
	for k, v := range body {
		msg[k] = v
	}
	msg["event"] = event

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.rdc.Publish(ctx, Channel(auctionID), payload).Err()
}
