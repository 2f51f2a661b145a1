package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	models "TradeForge/internal/domain/models"
	domrepo "TradeForge/internal/domain/repository"
	"TradeForge/internal/paper"
	icache "TradeForge/internal/service/cache"
	"TradeForge/internal/service/ratelimit"
	"TradeForge/internal/symbol"
	xhttp "TradeForge/pkg/http"
	xlogger "TradeForge/pkg/logger"

	"github.com/labstack/echo/v4"
)

const statsCacheTTL = 30 * time.Second

// CycleTrigger requests an out-of-band evaluation cycle. Implementations
// report false when a run is already pending.
type CycleTrigger interface {
	TriggerRun(symbol string) bool
}

// DashboardHandler exposes the read-side of the engine over Echo: decisions,
// per-strategy stats, open positions, trades and risk state, plus a manual
// run trigger.
type DashboardHandler struct {
	logger  *xlogger.Logger
	store   domrepo.TraceStore
	ledger  *paper.Ledger
	risk    *paper.RiskGuard
	stream  domrepo.MarketStream
	trigger CycleTrigger
	cache   icache.BytesCache
	rl      *ratelimit.Limiter
	started time.Time
}

func NewDashboardHandler(
	logger *xlogger.Logger,
	store domrepo.TraceStore,
	ledger *paper.Ledger,
	risk *paper.RiskGuard,
	stream domrepo.MarketStream,
	trigger CycleTrigger,
	cache icache.BytesCache,
) *DashboardHandler {
	return &DashboardHandler{
		logger:  logger,
		store:   store,
		ledger:  ledger,
		risk:    risk,
		stream:  stream,
		trigger: trigger,
		cache:   cache,
		rl:      ratelimit.New(),
		started: time.Now().UTC(),
	}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/healthz", h.Health)
	g := e.Group("/api")
	g.GET("/decisions/latest", h.LatestDecision)
	g.GET("/decisions/history", h.DecisionHistory)
	g.GET("/strategies/stats", h.StrategyStats)
	g.GET("/strategies/agreement", h.Agreement)
	g.GET("/positions", h.Positions)
	g.GET("/trades", h.Trades)
	g.GET("/risk", h.Risk)
	g.GET("/status", h.Status)
	g.POST("/run-now", h.RunNow)
}

func (h *DashboardHandler) LatestDecision(c echo.Context) error {
	req := &models.LatestDecisionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	sym, err := symbol.Normalize(req.Symbol)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	tr, err := h.store.LatestDecision(c.Request().Context(), sym)
	if err != nil {
		if errors.Is(err, domrepo.ErrNotFound) {
			return xhttp.NotFoundResponse(c, "no decisions recorded for "+sym)
		}
		h.logger.Error("latest decision query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, tr)
}

func (h *DashboardHandler) DecisionHistory(c echo.Context) error {
	req := &models.DecisionHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	sym, err := symbol.Normalize(req.Symbol)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}
	from, to, err := parseWindow(req.From, req.To)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	rows, err := h.store.History(c.Request().Context(), sym, from, to, req.Limit)
	if err != nil {
		h.logger.Error("history query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *DashboardHandler) StrategyStats(c echo.Context) error {
	req := &models.StrategyStatsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	lookback := time.Duration(req.LookbackHours) * time.Hour

	key := "stats:" + lookback.String()
	if b, ok := h.cached(key); ok {
		return jsonBytes(c, b)
	}
	stats, err := h.store.StrategyStats(c.Request().Context(), lookback)
	if err != nil {
		h.logger.Error("strategy stats query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	h.remember(key, stats)
	return xhttp.SuccessResponse(c, stats)
}

func (h *DashboardHandler) Agreement(c echo.Context) error {
	req := &models.AgreementRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	lookback := time.Duration(req.LookbackHours) * time.Hour

	key := "agreement:" + lookback.String()
	if b, ok := h.cached(key); ok {
		return jsonBytes(c, b)
	}
	matrix, err := h.store.Agreement(c.Request().Context(), lookback)
	if err != nil {
		h.logger.Error("agreement query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	h.remember(key, matrix)
	return xhttp.SuccessResponse(c, matrix)
}

func (h *DashboardHandler) Positions(c echo.Context) error {
	rows := h.ledger.All()
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *DashboardHandler) Trades(c echo.Context) error {
	req := &models.TradesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	sym := req.Symbol
	if sym != "" {
		var err error
		if sym, err = symbol.Normalize(sym); err != nil {
			return xhttp.BadRequestResponse(c, err.Error())
		}
	}

	rows, err := h.store.Trades(c.Request().Context(), sym, req.Limit)
	if err != nil {
		h.logger.Error("trades query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *DashboardHandler) Risk(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.risk.Stats())
}

func (h *DashboardHandler) RunNow(c echo.Context) error {
	if !h.rl.Allow(c.RealIP()+":run-now", 3, 0.5) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}
	req := &models.RunNowRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	sym := req.Symbol
	if sym != "" {
		var err error
		if sym, err = symbol.Normalize(sym); err != nil {
			return xhttp.BadRequestResponse(c, err.Error())
		}
	}

	queued := h.trigger.TriggerRun(sym)
	if !queued {
		return xhttp.DataResponse(c, http.StatusConflict, map[string]any{
			"queued": false,
			"reason": "a manual run is already pending",
		})
	}
	h.logger.Info("manual cycle requested", xlogger.String("symbol", sym))
	return xhttp.SuccessResponse(c, map[string]any{"queued": true, "symbol": sym})
}

func (h *DashboardHandler) Status(c echo.Context) error {
	storeStatus := "ok"
	if err := h.store.Health(c.Request().Context()); err != nil {
		storeStatus = err.Error()
	}
	return xhttp.SuccessResponse(c, map[string]any{
		"uptime_seconds":   int64(time.Since(h.started).Seconds()),
		"stream_connected": h.stream.IsConnected(),
		"store":            storeStatus,
		"risk":             h.risk.Stats(),
		"open_positions":   len(h.ledger.All()),
	})
}

func (h *DashboardHandler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (h *DashboardHandler) cached(key string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}
	b, ok, err := h.cache.GetBytes(key)
	if err != nil {
		h.logger.Warn("cache get failed", xlogger.Error(err))
		return nil, false
	}
	return b, ok
}

func (h *DashboardHandler) remember(key string, v any) {
	if h.cache == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := h.cache.SetBytes(key, b, statsCacheTTL); err != nil {
		h.logger.Warn("cache set failed", xlogger.Error(err))
	}
}

func jsonBytes(c echo.Context, b []byte) error {
	return xhttp.SuccessResponse(c, json.RawMessage(b))
}

// parseWindow interprets optional RFC3339 bounds, defaulting to the last 24h.
func parseWindow(fromRaw, toRaw string) (time.Time, time.Time, error) {
	to := time.Now().UTC()
	if toRaw != "" {
		t, err := time.Parse(time.RFC3339, toRaw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("to must be RFC3339")
		}
		to = t
	}
	from := to.Add(-24 * time.Hour)
	if fromRaw != "" {
		t, err := time.Parse(time.RFC3339, fromRaw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("from must be RFC3339")
		}
		from = t
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, errors.New("from must not be after to")
	}
	return from, to, nil
}
