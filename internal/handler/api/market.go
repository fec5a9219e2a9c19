package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	drepo "finbot/internal/domain/repository"
	xhttp "finbot/pkg/http"
	applogger "finbot/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ConnStatus reports the upstream exchange connection state.
type ConnStatus interface {
	IsConnected() bool
}

// MarketHandler exposes the REST surface: latest snapshot per symbol
// and a health endpoint.
type MarketHandler struct {
	store  drepo.SnapshotRepository
	status ConnStatus
	log    *applogger.Logger
}

// NewMarketHandler creates the REST handler.
func NewMarketHandler(store drepo.SnapshotRepository, status ConnStatus, log *applogger.Logger) *MarketHandler {
	return &MarketHandler{store: store, status: status, log: log}
}

// RegisterRoutes registers the REST endpoints.
func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/market/:symbol", h.getLatest)
	e.GET("/healthz", h.health)
}

// latestRequest binds the path parameter for GET /api/market/:symbol.
type latestRequest struct {
	Symbol string `param:"symbol" validate:"required,alphanum,max=12"`
}

func (h *MarketHandler) getLatest(c echo.Context) error {
	var req latestRequest
	if verr := xhttp.ReadAndValidateRequest(c, &req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbol := strings.ToUpper(req.Symbol)

	snap, err := h.store.FindLatest(c.Request().Context(), symbol)
	if err != nil {
		h.log.Error("snapshot read failed",
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("read snapshot for %s", symbol))
	}
	if snap == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no snapshot for %s", symbol))
	}
	return xhttp.SuccessResponse(c, snap)
}

func (h *MarketHandler) health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := map[string]interface{}{
		"status":    "ok",
		"stream":    h.status != nil && h.status.IsConnected(),
		"snapshots": true,
	}

	if err := h.store.Health(ctx); err != nil {
		status["status"] = "degraded"
		status["snapshots"] = false
		return c.JSON(http.StatusServiceUnavailable, status)
	}
	return c.JSON(http.StatusOK, status)
}
