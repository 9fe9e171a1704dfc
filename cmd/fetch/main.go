package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"avseries/internal/aggregate"
	"avseries/internal/app"
	"avseries/internal/config"
	"avseries/internal/provider"
	"avseries/internal/timeseries"
)

type output struct {
	Series []timeseries.TimeSeries `json:"series"`
	Latest []aggregate.Latest      `json:"latest"`
	Errors map[string]string       `json:"errors,omitempty"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		slog.Error("fetch", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		symbolsCSV = fs.String("symbols", getenv("SYMBOLS", "IBM"), "comma-separated ticker symbols")
		interval   = fs.String("interval", "1day", "sampling interval: 1day, 1week or 1month")
		adjusted   = fs.Bool("adjusted", false, "fetch split/dividend adjusted series")
		full       = fs.Bool("full", false, "fetch the full history instead of the latest 100 points")
		limit      = fs.Int("limit", 10, "print only the last n points per series (0 = all)")
		configPath = fs.String("config", getenv("CONFIG_FILE", ""), "path to config.yaml (optional)")
		save       = fs.Bool("save", false, "persist fetched series to the configured store")
		timeout    = fs.Int("timeout", 0, "overall timeout seconds (0 = derived from config)")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	slog.SetDefault(cfg.Log.Logger(stderr))

	iv, err := timeseries.ParseInterval(*interval)
	if err != nil {
		return err
	}
	symbols := splitCSV(*symbolsCSV)
	if len(symbols) == 0 {
		return errors.New("no symbols provided")
	}

	d := time.Duration(*timeout) * time.Second
	if d <= 0 {
		// each symbol may wait for a rate limit slot
		d = time.Duration(cfg.Server.RequestTimeoutSec*len(symbols)) * time.Second
		if cfg.AlphaVantage.MaxRequestsPerMinute > 0 {
			d += time.Duration(len(symbols)) * time.Minute / time.Duration(cfg.AlphaVantage.MaxRequestsPerMinute)
		}
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	var st interface {
		UpsertSeries(context.Context, timeseries.TimeSeries) error
	}
	if *save {
		s, err := app.OpenStore(ctx, cfg.Store)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		if s == nil {
			return errors.New("-save requires store.driver and store.dsn")
		}
		defer s.Close()
		st = s
	}

	rdb := app.NewRedis(ctx, cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	}
	p := app.NewProvider(cfg, rdb)

	var (
		mu  sync.Mutex
		out = output{Errors: map[string]string{}}
	)
	g := new(errgroup.Group)
	g.SetLimit(max(cfg.AlphaVantage.MaxConcurrency, 1))
	for _, sym := range symbols {
		req := provider.Request{Symbol: sym, Interval: iv, Adjusted: *adjusted, FullHistory: *full}
		g.Go(func() error {
			ts, err := p.Fetch(ctx, req)
			if err == nil && st != nil {
				if serr := st.UpsertSeries(ctx, ts); serr != nil {
					slog.Warn("save failed", "symbol", sym, "error", serr)
				} else {
					slog.Info("saved", "symbol", sym, "points", ts.Len())
				}
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Warn("fetch failed", "symbol", sym, "error", err)
				out.Errors[sym] = err.Error()
				return nil
			}
			slog.Info("fetched", "symbol", sym, "interval", ts.Interval, "points", ts.Len())
			out.Series = append(out.Series, ts)
			return nil
		})
	}
	_ = g.Wait()

	if len(out.Series) == 0 {
		return fmt.Errorf("no series received (%d errors)", len(out.Errors))
	}
	sort.Slice(out.Series, func(i, j int) bool { return out.Series[i].Symbol < out.Series[j].Symbol })
	out.Latest = aggregate.LatestBySymbol(out.Series)
	for i, ts := range out.Series {
		out.Series[i] = ts.Tail(*limit)
	}
	if len(out.Errors) == 0 {
		out.Errors = nil
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
