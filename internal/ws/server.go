package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"auctionhousego/internal/services/auction"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 20 * time.Second // must be < pongWait

	dispatchTimeout = 1900 * time.Millisecond
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 512,
	CheckOrigin:     func(r *http.Request) bool { return true }, // dev-only
}

type WsServer struct {
	hub        *Hub
	subMgr     *subscriptionManager
	router     *Router
	auctionSvc auction.IAuctionService
}

func NewWsServer(hub *Hub, rdc *redis.Client, auctionSvc auction.IAuctionService) *WsServer {
	srv := &WsServer{
		hub:        hub,
		subMgr:     newSubscriptionManager(rdc, hub),
		router:     NewRouter(),
		auctionSvc: auctionSvc,
	}
	srv.registerHandlers() // all WS endpoints configured here
	return srv
}

// Handle is the gin entry point: joining the auction's room doubles as the
// "join" event, carried by the query string.
func (s *WsServer) Handle(ginCtx *gin.Context) {
	auctionID := ginCtx.Query("auction_id")
	userID := ginCtx.Query("user_id")
	if auctionID == "" || userID == "" {
		ginCtx.JSON(http.StatusBadRequest, gin.H{"error": "auction_id and user_id are required"})
		return
	}

	rawConn, err := upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.upgrade", zap.Error(err))
		return
	}
	rawConn.SetReadLimit(512)

	conn := &clientConn{rawConn: rawConn}
	s.hub.Join(auctionID, conn)
	s.subMgr.Subscribe(auctionID) // no-op when the room already has a sub
	zap.L().Debug("ws.join",
		zap.String("auction_id", auctionID),
		zap.String("user_id", userID),
		zap.Int("room_size", s.hub.Members(auctionID)),
	)

	if err := s.pushSnapshot(ginCtx.Request.Context(), auctionID, conn); err != nil {
		zap.L().Warn("ws.snapshot", zap.String("auction_id", auctionID), zap.Error(err))
	}

	go s.reader(auctionID, userID, conn)
	go s.pinger(conn)
}

func (s *WsServer) registerHandlers() {
	Register(
		s.router,
		"auctions/bid",
		func(ctx context.Context, cc *ConnContext, req BidRequest) (auction.BidReceipt, error) {
			return s.auctionSvc.PlaceBid(ctx, cc.AuctionID, cc.UserID, req.Amount)
		},
	)
}

// pushSnapshot hands the freshly joined client the same state the polling
// endpoint serves, so it never starts blind.
func (s *WsServer) pushSnapshot(ctx context.Context, auctionID string, conn *clientConn) error {
	ctx, cancel := context.WithTimeout(ctx, 4*time.Second)
	defer cancel()

	st, err := s.auctionSvc.TopStatus(ctx, auctionID)
	if err != nil {
		return err
	}
	return conn.writeJSON(map[string]any{
		"event": "auctions/snapshot",
		"body": SnapshotBody{
			TopAmount:    st.TopAmount,
			MinIncrement: st.MinIncrement,
			EndsAt:       st.EndsAt.Format(time.RFC3339),
			Status:       st.Status,
		},
	})
}

func (s *WsServer) reader(auctionID, userID string, conn *clientConn) {
	defer func() {
		s.hub.Leave(auctionID, conn)
		s.subMgr.Unsubscribe(auctionID)
		conn.rawConn.Close() // stops the pinger on its next tick
		zap.L().Debug("ws.leave",
			zap.String("auction_id", auctionID),
			zap.Int("room_size", s.hub.Members(auctionID)),
		)
	}()

	cc := &ConnContext{AuctionID: auctionID, UserID: userID}

	_ = conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	conn.rawConn.SetPongHandler(func(string) error {
		return conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env Envelope
		if err := conn.rawConn.ReadJSON(&env); err != nil {
			return // client closed or errored
		}

		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		res, err := s.router.dispatch(ctx, cc, env)
		cancel()

		// Rejections go only to the offending connection; accepted bids
		// reach the whole room through the fan-out.
		if err != nil {
			_ = conn.writeJSON(map[string]any{
				"event": "auctions/bid-rejected",
				"body":  ErrorBody{Error: err.Error()},
			})
			continue
		}

		reply := map[string]any{"event": env.Event + "-ack"}
		if res != nil {
			reply["body"] = res
		}
		_ = conn.writeJSON(reply)
	}
}

func (s *WsServer) pinger(conn *clientConn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.ping(); err != nil {
			conn.rawConn.Close()
			return
		}
	}
}
