package ws

import (
	"fmt"
	"net/http"
	"strings"

	drepo "finbot/internal/domain/repository"
	applogger "finbot/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// MarketHandler serves the per-symbol snapshot stream at
// /ws/market/:symbol.
type MarketHandler struct {
	hub     *Hub
	store   drepo.SnapshotRepository
	metrics drepo.Metrics
	log     *applogger.Logger
}

// NewMarketHandler creates the WebSocket handler.
func NewMarketHandler(hub *Hub, store drepo.SnapshotRepository, metrics drepo.Metrics, log *applogger.Logger) *MarketHandler {
	return &MarketHandler{hub: hub, store: store, metrics: metrics, log: log}
}

// RegisterRoutes registers the WebSocket endpoint.
func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/market/:symbol", h.handleMarket)
}

func (h *MarketHandler) handleMarket(c echo.Context) error {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "symbol is required"})
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.metrics.RecordError("ws_upgrade")
		return err
	}

	sessionID := h.hub.Register(symbol, conn)
	defer func() {
		h.hub.Unregister(symbol, sessionID)
		_ = conn.Close()
	}()

	ctx := c.Request().Context()

	// push the latest snapshot immediately so clients render without
	// waiting for the next broadcast cycle
	h.pushLatest(c, symbol, sessionID)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("ws read error",
					applogger.String("symbol", symbol),
					applogger.String("session", sessionID),
					applogger.Error(err),
				)
			}
			return nil
		}

		switch strings.ToLower(strings.TrimSpace(string(msg))) {
		case "refresh":
			h.pushLatest(c, symbol, sessionID)
		default:
			// ignore unknown commands
		}
	}
}

func (h *MarketHandler) pushLatest(c echo.Context, symbol, sessionID string) {
	snap, err := h.store.FindLatest(c.Request().Context(), symbol)
	if err != nil {
		h.metrics.RecordError("ws_snapshot_read")
		_ = h.hub.SendError(symbol, sessionID, fmt.Sprintf("No data available for %s", symbol))
		return
	}
	if snap == nil {
		_ = h.hub.SendError(symbol, sessionID, fmt.Sprintf("No data available for %s", symbol))
		return
	}
	_ = h.hub.Send(symbol, sessionID, snap)
}
