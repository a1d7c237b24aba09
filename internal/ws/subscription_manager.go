package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"auctionhousego/internal/bus"
)

// subscriptionManager guarantees exactly one Redis subscription per
// auction channel, no matter how many websocket clients join the room.
type subscriptionManager struct {
	rdc  *redis.Client
	hub  *Hub
	mu   sync.Mutex
	subs map[string]*subEntry // auctionID -> subscription data
}

type subEntry struct {
	refCnt int
	cancel context.CancelFunc
}

func newSubscriptionManager(rdc *redis.Client, hub *Hub) *subscriptionManager {
	return &subscriptionManager{
		rdc:  rdc,
		hub:  hub,
		subs: make(map[string]*subEntry),
	}
}

// Subscribe ensures the process listens on the auction's channel;
// subsequent calls for the same auction only bump the ref-counter.
func (sm *subscriptionManager) Subscribe(auctionID string) {
	sm.mu.Lock()
	if e, ok := sm.subs[auctionID]; ok {
		e.refCnt++
		sm.mu.Unlock()
		return
	}

	// First consumer: create the Redis SUB and the fan-out loop.
	ctx, cancel := context.WithCancel(context.Background())
	ps := sm.rdc.Subscribe(ctx, bus.Channel(auctionID))

	sm.subs[auctionID] = &subEntry{refCnt: 1, cancel: cancel}
	sm.mu.Unlock()

	go func() {
		defer ps.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ps.Channel():
				if !ok {
					return
				}

				wrapped, err := wrapBusEvent(m.Payload)
				if err != nil {
					zap.L().Warn("ws.wrap_event_failed", zap.Error(err))
					wrapped = []byte(m.Payload) // forward as-is
				}
				sm.hub.Broadcast(auctionID, wrapped)
			}
		}
	}()
}

// Unsubscribe decrements the ref-counter and tears the subscription down
// when the last websocket client leaves the room.
func (sm *subscriptionManager) Unsubscribe(auctionID string) {
	sm.mu.Lock()
	e, ok := sm.subs[auctionID]
	if !ok {
		sm.mu.Unlock()
		return
	}
	e.refCnt--
	if e.refCnt > 0 {
		sm.mu.Unlock()
		return
	}
	delete(sm.subs, auctionID)
	sm.mu.Unlock()

	// Outside the lock: stop the fan-out goroutine.
	e.cancel()
}

// wrapBusEvent turns the flat bus payload
//
//	{"event":"new-bid","amount":10500,...}
//
// into the websocket envelope
//
//	{"event":"auctions/new-bid","body":{"amount":10500,...}}
func wrapBusEvent(payload string) ([]byte, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, err
	}

	evt, _ := raw["event"].(string)
	if evt == "" {
		evt = "unknown"
	}
	delete(raw, "event") // avoid duplication inside the body

	return json.Marshal(Envelope{
		Event: "auctions/" + evt,
		Body:  mustRaw(raw),
	})
}

func mustRaw(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}
