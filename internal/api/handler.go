// Package api serves normalized series over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"avseries/internal/aggregate"
	"avseries/internal/alphavantage"
	"avseries/internal/provider"
	"avseries/internal/timeseries"
	"avseries/internal/tradingcal"
)

// maxSymbols caps /api/latest fan-out.
const maxSymbols = 100

// SeriesStore is the subset of store.Store the handlers use.
type SeriesStore interface {
	UpsertSeries(ctx context.Context, ts timeseries.TimeSeries) error
	FindSeries(ctx context.Context, symbol string, interval timeseries.Interval, limit int) (timeseries.TimeSeries, error)
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type SeriesResponse struct {
	Symbol   string                      `json:"symbol"`
	Interval timeseries.Interval         `json:"interval"`
	Adjusted bool                        `json:"adjusted"`
	Source   string                      `json:"source"`
	Data     []timeseries.AssetTradeInfo `json:"data"`
}

type LatestResponse struct {
	Latest []aggregate.Latest `json:"latest"`
	// Errors holds per-symbol failures when some symbols could not be fetched.
	Errors map[string]string `json:"errors,omitempty"`
}

// Handler serves series from a provider. A nil store disables
// persistence and the /api/stored route.
type Handler struct {
	p           provider.Provider
	store       SeriesStore
	timeout     time.Duration
	concurrency int
}

func NewHandler(p provider.Provider, store SeriesStore, timeout time.Duration, concurrency int) *Handler {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Handler{p: p, store: store, timeout: timeout, concurrency: concurrency}
}

// Health reports liveness.
func Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GetSeries handles GET /api/series/:symbol?interval=1day&adjusted=false&full=false&limit=0.
func (h *Handler) GetSeries(c *gin.Context) {
	req, ok := bindRequest(c, c.Param("symbol"))
	if !ok {
		return
	}
	limit, ok := queryLimit(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	ts, err := h.p.Fetch(ctx, req)
	if err != nil {
		slog.Warn("fetch series failed", "provider", h.p.Name(), "symbol", req.Symbol, "interval", req.Interval, "error", err)
		c.JSON(errorStatus(err), ErrorResponse{Error: err.Error()})
		return
	}
	h.persist(ctx, ts)

	out := ts.Tail(limit)
	c.JSON(http.StatusOK, SeriesResponse{
		Symbol:   out.Symbol,
		Interval: out.Interval,
		Adjusted: req.Adjusted,
		Source:   h.p.Name(),
		Data:     out.Data,
	})
}

// GetStored handles GET /api/stored/:symbol?interval=1day&limit=0.
func (h *Handler) GetStored(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "storage is not configured"})
		return
	}
	interval, err := timeseries.ParseInterval(c.Query("interval"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	ts, err := h.store.FindSeries(c.Request.Context(), symbol, interval, limit)
	if err != nil {
		slog.Error("find stored series failed", "symbol", symbol, "interval", interval, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "storage error"})
		return
	}
	c.JSON(http.StatusOK, SeriesResponse{
		Symbol:   ts.Symbol,
		Interval: ts.Interval,
		Source:   "store",
		Data:     ts.Data,
	})
}

// GetLatest handles GET /api/latest?symbols=IBM,MSFT&interval=1day&adjusted=false.
// Symbols are fetched concurrently; it fails only when none succeed.
func (h *Handler) GetLatest(c *gin.Context) {
	symbols := splitCSV(c.Query("symbols"))
	if len(symbols) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing symbols query param"})
		return
	}
	if len(symbols) > maxSymbols {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "too many symbols (max " + strconv.Itoa(maxSymbols) + ")"})
		return
	}
	base, ok := bindRequest(c, symbols[0])
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	var (
		mu     sync.Mutex
		series = make([]timeseries.TimeSeries, 0, len(symbols))
		errs   = map[string]string{}
		status = http.StatusBadGateway
	)
	g := new(errgroup.Group)
	g.SetLimit(h.concurrency)
	for _, sym := range symbols {
		req := base
		req.Symbol = sym
		g.Go(func() error {
			ts, err := h.p.Fetch(ctx, req)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Warn("fetch latest failed", "provider", h.p.Name(), "symbol", sym, "error", err)
				errs[sym] = err.Error()
				status = errorStatus(err)
				return nil
			}
			series = append(series, ts)
			return nil
		})
	}
	_ = g.Wait()

	for _, ts := range series {
		h.persist(ctx, ts)
	}
	if len(series) == 0 {
		c.JSON(status, LatestResponse{Latest: []aggregate.Latest{}, Errors: errs})
		return
	}
	resp := LatestResponse{Latest: aggregate.LatestBySymbol(series)}
	if len(errs) > 0 {
		resp.Errors = errs
	}
	c.JSON(http.StatusOK, resp)
}

type GapsResponse struct {
	Symbol  string   `json:"symbol"`
	From    string   `json:"from,omitempty"`
	To      string   `json:"to,omitempty"`
	Missing []string `json:"missing"`
}

// GetGaps handles GET /api/gaps/:symbol?adjusted=false&full=false. It lists
// exchange trading days absent from the daily series.
func (h *Handler) GetGaps(c *gin.Context) {
	req, ok := bindRequest(c, c.Param("symbol"))
	if !ok {
		return
	}
	if req.Interval != timeseries.Daily {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "gaps are only defined for 1day series"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	ts, err := h.p.Fetch(ctx, req)
	if err != nil {
		slog.Warn("fetch series failed", "provider", h.p.Name(), "symbol", req.Symbol, "error", err)
		c.JSON(errorStatus(err), ErrorResponse{Error: err.Error()})
		return
	}

	resp := GapsResponse{Symbol: req.Symbol, Missing: []string{}}
	sorted := ts.Tail(0)
	if n := len(sorted.Data); n > 0 {
		resp.From = sorted.Data[0].Timestamp.Format(time.DateOnly)
		resp.To = sorted.Data[n-1].Timestamp.Format(time.DateOnly)
	}
	for _, d := range tradingcal.ForSymbol(req.Symbol).MissingDays(ts) {
		resp.Missing = append(resp.Missing, d.Format(time.DateOnly))
	}
	c.JSON(http.StatusOK, resp)
}

// persist stores ts when a store is configured. Failures are logged only.
func (h *Handler) persist(ctx context.Context, ts timeseries.TimeSeries) {
	if h.store == nil {
		return
	}
	if err := h.store.UpsertSeries(ctx, ts); err != nil {
		slog.Warn("persist series failed", "symbol", ts.Symbol, "interval", ts.Interval, "error", err)
	}
}

// bindRequest reads interval, adjusted and full from the query. It writes
// a 400 and returns false on invalid input.
func bindRequest(c *gin.Context, symbol string) (provider.Request, bool) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing symbol"})
		return provider.Request{}, false
	}
	interval, err := timeseries.ParseInterval(c.Query("interval"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return provider.Request{}, false
	}
	adjusted, err := queryBool(c, "adjusted")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return provider.Request{}, false
	}
	full, err := queryBool(c, "full")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return provider.Request{}, false
	}
	return provider.Request{
		Symbol:      strings.ToUpper(symbol),
		Interval:    interval,
		Adjusted:    adjusted,
		FullHistory: full,
	}, true
}

func queryBool(c *gin.Context, name string) (bool, error) {
	v := c.Query(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.New("invalid " + name + " query param")
	}
	return b, nil
}

func queryLimit(c *gin.Context) (int, bool) {
	v := c.Query("limit")
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit query param"})
		return 0, false
	}
	return n, true
}

// errorStatus maps a provider error to an HTTP status.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case alphavantage.IsKind(err, alphavantage.KindAPI),
		alphavantage.IsKind(err, alphavantage.KindHTTP),
		alphavantage.IsKind(err, alphavantage.KindDecode):
		return http.StatusBadGateway
	case alphavantage.IsKind(err, alphavantage.KindURL):
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
