package ws

import (
	"sync"
)

// Hub keeps the room per auction.
type Hub struct {
	rooms sync.Map // auctionID -> *room
}

func NewHub() *Hub { return &Hub{} }

// Broadcast delivers msg to every member of the auction's room, in the
// order Broadcast is called for that auction.
func (h *Hub) Broadcast(auctionID string, msg []byte) {
	if v, ok := h.rooms.Load(auctionID); ok {
		v.(*room).broadcast(msg)
	}
}

func (h *Hub) Join(auctionID string, c *clientConn) {
	r, _ := h.rooms.LoadOrStore(auctionID, newRoom())
	r.(*room).add(c)
}

func (h *Hub) Leave(auctionID string, c *clientConn) {
	if v, ok := h.rooms.Load(auctionID); ok {
		v.(*room).remove(c)
	}
}

// Members reports the current room size, 0 for unknown auctions.
func (h *Hub) Members(auctionID string) int {
	if v, ok := h.rooms.Load(auctionID); ok {
		return v.(*room).size()
	}
	return 0
}
