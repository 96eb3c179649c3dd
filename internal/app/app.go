// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rovshanmuradov/openpump/internal/api"
	"github.com/rovshanmuradov/openpump/internal/blockchain"
	"github.com/rovshanmuradov/openpump/internal/blockchain/solbc"
	"github.com/rovshanmuradov/openpump/internal/cache"
	"github.com/rovshanmuradov/openpump/internal/config"
	"github.com/rovshanmuradov/openpump/internal/dex/pumpfun"
	"github.com/rovshanmuradov/openpump/internal/discovery"
	"github.com/rovshanmuradov/openpump/internal/eventlistener"
	"github.com/rovshanmuradov/openpump/internal/events"
	"github.com/rovshanmuradov/openpump/internal/metadata"
	"github.com/rovshanmuradov/openpump/internal/pricing"
	"github.com/rovshanmuradov/openpump/internal/token"
	"github.com/rovshanmuradov/openpump/internal/utils/metrics"
	"go.uber.org/zap"
)

// DefaultStartupTimeout bounds the retries of the first log subscription.
const DefaultStartupTimeout = 60 * time.Second

// App owns every long-lived service of the process.
type App struct {
	Config   *config.Config
	Registry *prometheus.Registry
	Metrics  *metrics.Collector
	Cache    cache.Cache
	Chain    blockchain.Client
	Bus      *events.Bus
	Curves   *pumpfun.CurveService
	Metadata *metadata.Service
	Prices   *pricing.Service
	Scanner  *discovery.Scanner
	Tokens   *token.Service
	Pipeline *eventlistener.Pipeline

	shutdown *ShutdownHandler
	root     *zap.Logger
	logger   *zap.Logger
}

// New wires the services described by cfg. Nothing touches the network
// except the optional Redis ping.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	return newApp(ctx, cfg, nil, logger)
}

// newApp lets tests replace the chain client.
func newApp(ctx context.Context, cfg *config.Config, chain blockchain.Client, logger *zap.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	log := logger.Named("app")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewCollector(reg)

	a := &App{
		Config:   cfg,
		Registry: reg,
		Metrics:  m,
		Bus:      events.NewBus(logger),
		shutdown: NewShutdownHandler(logger, DefaultShutdownTimeout),
		root:     logger,
		logger:   log,
	}
	// closed last
	a.shutdown.AddFunc("event_bus", func() error {
		a.Bus.Shutdown()
		return nil
	})

	a.Cache = cache.New(ctx, cfg.RedisURL, logger)
	if closer, ok := a.Cache.(io.Closer); ok {
		a.shutdown.Add("cache", closer)
	}

	if chain == nil {
		chain = solbc.NewClient(cfg.RPCURL, cfg.WebSocketURL, m, logger)
	}
	a.Chain = chain

	curveCfg := pumpfun.GetDefaultConfig()
	curveCfg.CacheTTL = config.Seconds(cfg.Cache.BondingCurveTTL)
	a.Curves = pumpfun.NewCurveService(chain, a.Cache, curveCfg, m, logger)

	// без Helius ключа DAS недоступен и метаданные приходят только из событий
	var assets metadata.AssetSource
	if cfg.HeliusAPIKey != "" {
		assets = metadata.NewHeliusClient(cfg.DASURL(), m, logger)
	} else {
		log.Info("helius_api_key not set, token metadata lookups are disabled")
	}
	a.Metadata = metadata.NewService(
		assets,
		metadata.NewIPFSClient(cfg.IPFSGateways, m, logger),
		metadata.Options{
			Mints:    chain,
			Cache:    a.Cache,
			CacheTTL: config.Seconds(cfg.Cache.MetadataTTL),
			Metrics:  m,
		},
		logger,
	)

	a.Prices = pricing.NewService(
		a.Curves,
		pricing.NewGeckoClient(cfg.GeckoTerminalURL, m, logger),
		a.Cache,
		pricing.Config{
			PriceTTL:    config.Seconds(cfg.Cache.PriceTTL),
			SOLFallback: cfg.SOLPriceFallback,
		},
		logger,
	)

	a.Scanner = discovery.NewScanner(chain, a.Curves, a.Cache, discovery.Config{
		SignatureLimit:    cfg.Discovery.SignatureLimit,
		ScanLimit:         cfg.Discovery.ScanLimit,
		RequestsPerSecond: cfg.Discovery.RequestsPerSecond,
		CacheTTL:          config.Seconds(cfg.Cache.RecentTokensTTL),
	}, m, logger)

	a.Tokens = token.NewService(a.Curves, a.Metadata, a.Prices, a.Scanner, a.Cache, logger)

	pipeCfg := eventlistener.DefaultConfig()
	pipeCfg.DedupCapacity = cfg.DedupCapacity
	pipeCfg.MaxInFlight = cfg.MaxInFlight
	pipeCfg.EnrichmentConcurrency = cfg.EnrichmentConcurrency
	a.Pipeline = eventlistener.NewPipeline(chain, a.Curves, a.Metadata, a.Bus, pipeCfg, m, logger)

	log.Info("Services initialized",
		zap.String("rpc", redactURL(cfg.RPCURL)),
		zap.Bool("redis", cfg.RedisURL != ""),
		zap.Bool("helius", cfg.HeliusAPIKey != ""))
	return a, nil
}

// StartPipeline subscribes to the program logs, retrying with exponential
// backoff until the subscription is established or timeout elapses.
func (a *App) StartPipeline(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultStartupTimeout
	}
	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		if err := a.Pipeline.Start(ctx); err != nil {
			a.logger.Warn("Pipeline start failed",
				zap.Int("attempt", attempt),
				zap.Error(err))
			return struct{}{}, err
		}
		return struct{}{}, nil
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(timeout),
	)
	if err != nil {
		return fmt.Errorf("failed to start realtime pipeline: %w", err)
	}

	a.shutdown.AddFunc("pipeline", func() error {
		err := a.Pipeline.Stop()
		a.Pipeline.Wait()
		return err
	})
	return nil
}

// NewServer builds the HTTP server over the app's services and registers
// it for shutdown.
func (a *App) NewServer(cfg api.ServerConfig) *api.Server {
	hub := api.NewHub(a.Bus, a.Pipeline.Status, a.Metrics, a.root)
	srv := api.NewServer(cfg, api.Deps{
		Tokens:   a.Tokens,
		Hub:      hub,
		Status:   a.Pipeline.Status,
		Metrics:  a.Metrics,
		Gatherer: a.Registry,
	}, a.root)

	a.shutdown.AddFunc("http_server", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})
	return srv
}

// OnShutdown registers an extra closer; closers run in reverse order.
func (a *App) OnShutdown(name string, closer io.Closer) {
	a.shutdown.Add(name, closer)
}

// Shutdown stops everything New and the Start methods created.
func (a *App) Shutdown(ctx context.Context) error {
	return a.shutdown.Shutdown(ctx)
}

// redactURL hides the api key some RPC providers carry in the query.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid"
	}
	q := u.Query()
	if q.Has("api-key") {
		q.Set("api-key", "redacted")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
