// internal/eventlistener/pipeline.go
package eventlistener

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/openpump/internal/blockchain"
	"github.com/rovshanmuradov/openpump/internal/dedup"
	"github.com/rovshanmuradov/openpump/internal/dex/pumpfun"
	"github.com/rovshanmuradov/openpump/internal/events"
	"github.com/rovshanmuradov/openpump/internal/metadata"
	"github.com/rovshanmuradov/openpump/internal/utils/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Publisher receives pipeline events.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// CurveValuator values a mint's bonding curve.
type CurveValuator interface {
	ValuateKey(ctx context.Context, mint solana.PublicKey) (*pumpfun.Valuation, error)
}

// MetadataFetcher resolves off-chain token metadata.
type MetadataFetcher interface {
	GetTokenMetadata(ctx context.Context, mint string) (*metadata.TokenMetadata, error)
}

// Config tunes the ingestion pipeline.
type Config struct {
	ProgramID solana.PublicKey

	// DedupCapacity bounds both the signature and the mint windows.
	DedupCapacity int
	// MaxInFlight bounds concurrent trade fetches; excess trade messages are
	// dropped. Creations are always fetched.
	MaxInFlight int64
	// EnrichmentConcurrency bounds concurrent curve/metadata lookups.
	EnrichmentConcurrency int64

	FetchTimeout  time.Duration
	EnrichTimeout time.Duration

	// ReconnectInterval is the first delay before re-subscribing a broken stream.
	ReconnectInterval    time.Duration
	ReconnectMaxInterval time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		ProgramID:             pumpfun.PumpFunProgramID,
		DedupCapacity:         dedup.DefaultCapacity,
		MaxInFlight:           32,
		EnrichmentConcurrency: 5,
		FetchTimeout:          10 * time.Second,
		EnrichTimeout:         15 * time.Second,
		ReconnectInterval:     500 * time.Millisecond,
		ReconnectMaxInterval:  30 * time.Second,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.ProgramID.IsZero() {
		c.ProgramID = d.ProgramID
	}
	if c.DedupCapacity <= 0 {
		c.DedupCapacity = d.DedupCapacity
	}
	if c.MaxInFlight <= 0 {
		c.MaxInFlight = d.MaxInFlight
	}
	if c.EnrichmentConcurrency <= 0 {
		c.EnrichmentConcurrency = d.EnrichmentConcurrency
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = d.FetchTimeout
	}
	if c.EnrichTimeout <= 0 {
		c.EnrichTimeout = d.EnrichTimeout
	}
	if c.ReconnectInterval <= 0 {
		c.ReconnectInterval = d.ReconnectInterval
	}
	if c.ReconnectMaxInterval <= 0 {
		c.ReconnectMaxInterval = d.ReconnectMaxInterval
	}
}

// Status is a snapshot of the pipeline lifecycle.
type Status struct {
	Running        bool    `json:"running"`
	SubscriptionID *uint64 `json:"subscription_id"`
	ProcessedCount int     `json:"processed_count"`
}

// Pipeline turns the platform's log stream into new_token, token_enriched
// and trade events.
//
// The stream loop owns the signature window. Every creation gets its own
// fetch goroutine; trade fetches are bounded by MaxInFlight. The mint
// window is shared through CheckAndAdd only. Fetch and decode failures
// drop the message.
type Pipeline struct {
	streamer blockchain.LogStreamer
	fetcher  blockchain.TransactionFetcher
	curves   CurveValuator
	meta     MetadataFetcher
	bus      Publisher
	cfg      Config
	metrics  *metrics.Collector
	logger   *zap.Logger

	signatures *dedup.Window
	mints      *dedup.Window
	inflight   *semaphore.Weighted
	enrichSem  *semaphore.Weighted
	tasks      sync.WaitGroup

	mu     sync.Mutex
	subID  *uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPipeline wires a pipeline. curves and meta may be nil, in which case
// no enrichment is attempted for the missing source.
func NewPipeline(
	client blockchain.Client,
	curves CurveValuator,
	meta MetadataFetcher,
	bus Publisher,
	cfg Config,
	m *metrics.Collector,
	logger *zap.Logger,
) *Pipeline {
	return newPipeline(client, client, curves, meta, bus, cfg, m, logger)
}

func newPipeline(
	streamer blockchain.LogStreamer,
	fetcher blockchain.TransactionFetcher,
	curves CurveValuator,
	meta MetadataFetcher,
	bus Publisher,
	cfg Config,
	m *metrics.Collector,
	logger *zap.Logger,
) *Pipeline {
	cfg.applyDefaults()
	return &Pipeline{
		streamer:   streamer,
		fetcher:    fetcher,
		curves:     curves,
		meta:       meta,
		bus:        bus,
		cfg:        cfg,
		metrics:    m,
		logger:     logger.Named("pipeline"),
		signatures: dedup.New(cfg.DedupCapacity),
		mints:      dedup.New(cfg.DedupCapacity),
		inflight:   semaphore.NewWeighted(cfg.MaxInFlight),
		enrichSem:  semaphore.NewWeighted(cfg.EnrichmentConcurrency),
	}
}

// Start subscribes to the program logs and begins processing. Calling
// Start on a running pipeline is a no-op. Only a failure to establish the
// subscription is returned; later stream failures are re-subscribed.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done != nil {
		p.logger.Debug("Pipeline already running")
		return nil
	}

	sub, err := p.streamer.SubscribeLogs(ctx, p.cfg.ProgramID)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s logs: %w", p.cfg.ProgramID, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	id := sub.ID()
	p.subID = &id
	p.cancel = cancel
	p.done = done
	p.metrics.SetPipelineRunning(true)

	p.logger.Info("Realtime pipeline started",
		zap.String("program", p.cfg.ProgramID.String()),
		zap.Uint64("subscription_id", id))

	go p.run(runCtx, sub, done)
	return nil
}

// Stop cancels the stream and unsubscribes. Stopping an idle pipeline is a
// no-op. In-flight enrichment may still publish after Stop returns.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	if done == nil {
		p.logger.Debug("Pipeline not running")
		return nil
	}

	cancel()
	<-done
	p.logger.Info("Realtime pipeline stopped")
	return nil
}

// Wait blocks until in-flight fetch and enrichment goroutines finish.
func (p *Pipeline) Wait() {
	p.tasks.Wait()
}

// Status returns the lifecycle snapshot.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := Status{
		Running:        p.done != nil,
		ProcessedCount: p.signatures.Len(),
	}
	if p.subID != nil {
		id := *p.subID
		st.SubscriptionID = &id
	}
	return st
}

func (p *Pipeline) run(ctx context.Context, sub blockchain.LogSubscription, done chan struct{}) {
	defer func() {
		if sub != nil {
			sub.Unsubscribe()
		}
		p.mu.Lock()
		if p.done == done {
			p.done = nil
			p.cancel = nil
			p.subID = nil
		}
		p.mu.Unlock()
		p.metrics.SetPipelineRunning(false)
		close(done)
	}()

	for {
		msg, err := sub.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("Log stream broken, resubscribing", zap.Error(err))
			sub.Unsubscribe()
			sub = p.resubscribe(ctx)
			if sub == nil {
				return
			}
			continue
		}
		p.handleMessage(ctx, msg)
	}
}

// resubscribe retries with exponential backoff until it succeeds or ctx ends.
func (p *Pipeline) resubscribe(ctx context.Context) blockchain.LogSubscription {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = p.cfg.ReconnectInterval
	policy.MaxInterval = p.cfg.ReconnectMaxInterval

	for {
		sub, err := p.streamer.SubscribeLogs(ctx, p.cfg.ProgramID)
		if err == nil {
			id := sub.ID()
			p.mu.Lock()
			p.subID = &id
			p.mu.Unlock()
			p.logger.Info("Log stream resubscribed", zap.Uint64("subscription_id", id))
			return sub
		}

		wait := policy.NextBackOff()
		p.logger.Warn("Resubscribe failed",
			zap.Error(err),
			zap.Duration("retry_in", wait))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// handleMessage runs on the stream loop goroutine.
func (p *Pipeline) handleMessage(ctx context.Context, msg *blockchain.LogMessage) {
	if msg == nil {
		return
	}
	if !p.signatures.CheckAndAdd(msg.Signature.String()) {
		p.metrics.RecordStreamMessage("duplicate")
		return
	}
	if msg.Err != nil {
		p.metrics.RecordStreamMessage("failed_tx")
		return
	}

	kind := Classify(msg.Logs, p.cfg.ProgramID)
	p.metrics.RecordStreamMessage(kind.String())
	if kind == KindNone {
		return
	}

	if kind == KindCreation {
		p.tasks.Add(1)
		go func() {
			defer p.tasks.Done()
			p.handleCreation(ctx, msg)
		}()
		return
	}

	// only trades are shed; a creation is never lost to a trade burst
	if !p.inflight.TryAcquire(1) {
		p.metrics.RecordDrop("saturated")
		p.logger.Debug("Trade fetch capacity saturated, dropping message",
			zap.String("signature", msg.Signature.String()),
			zap.Stringer("kind", kind))
		return
	}

	p.tasks.Add(1)
	go func() {
		defer p.tasks.Done()
		defer p.inflight.Release(1)
		p.handleTrade(ctx, msg, kind)
	}()
}

func (p *Pipeline) fetch(ctx context.Context, sig solana.Signature) (*blockchain.ParsedTransaction, bool) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
	defer cancel()

	tx, err := p.fetcher.GetParsedTransaction(fetchCtx, sig)
	if err != nil || tx == nil {
		p.metrics.RecordDrop("fetch_failed")
		p.logger.Debug("Transaction fetch failed, dropping",
			zap.String("signature", sig.String()),
			zap.Error(err))
		return nil, false
	}
	return tx, true
}

func (p *Pipeline) handleCreation(ctx context.Context, msg *blockchain.LogMessage) {
	tx, ok := p.fetch(ctx, msg.Signature)
	if !ok {
		return
	}

	mint, ok := ExtractMint(tx, p.cfg.ProgramID)
	if !ok {
		p.metrics.RecordDrop("no_mint")
		p.logger.Debug("Could not extract mint", zap.String("signature", msg.Signature.String()))
		return
	}
	if !p.mints.CheckAndAdd(mint.String()) {
		p.metrics.RecordDrop("duplicate_mint")
		return
	}

	ev := events.NewTokenEvent{
		BaseEvent: events.BaseEvent{EventType: events.NewToken, EventTime: time.Now().UTC()},
		Mint:      mint.String(),
		Signature: msg.Signature.String(),
	}
	if payer := tx.FeePayer(); !payer.IsZero() {
		ev.Creator = payer.String()
	}

	p.logger.Info("New token detected",
		zap.String("mint", ev.Mint),
		zap.String("signature", ev.Signature))

	fast := ev
	p.publish(ctx, &fast)

	if p.curves == nil && p.meta == nil {
		return
	}
	p.tasks.Add(1)
	go p.enrich(ctx, mint, ev)
}

// enrich looks up curve and metadata concurrently and publishes
// token_enriched when at least one resolved. Failures are swallowed.
func (p *Pipeline) enrich(ctx context.Context, mint solana.PublicKey, base events.NewTokenEvent) {
	defer p.tasks.Done()

	if err := p.enrichSem.Acquire(ctx, 1); err != nil {
		return
	}
	defer p.enrichSem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, p.cfg.EnrichTimeout)
	defer cancel()

	var (
		valuation *pumpfun.Valuation
		meta      *metadata.TokenMetadata
		g         errgroup.Group
	)
	if p.curves != nil {
		g.Go(func() error {
			v, err := p.curves.ValuateKey(ctx, mint)
			if err != nil {
				p.logger.Debug("Curve enrichment failed", zap.String("mint", mint.String()), zap.Error(err))
				return nil
			}
			valuation = v
			return nil
		})
	}
	if p.meta != nil {
		g.Go(func() error {
			md, err := p.meta.GetTokenMetadata(ctx, mint.String())
			if err != nil {
				p.logger.Debug("Metadata enrichment failed", zap.String("mint", mint.String()), zap.Error(err))
				return nil
			}
			meta = md
			return nil
		})
	}
	_ = g.Wait()

	if valuation == nil && meta == nil {
		return
	}

	enriched := base
	enriched.EventType = events.TokenEnriched
	enriched.EventTime = time.Now().UTC()
	if meta != nil {
		enriched.Name = meta.Name
		enriched.Symbol = meta.Symbol
		enriched.Description = meta.Description
		enriched.Image = meta.Image
	}
	if valuation != nil {
		enriched.BondingCurve = &events.CurveSnapshot{
			Progress:     valuation.Progress,
			SolRaised:    valuation.SolRaised,
			CurrentPrice: valuation.CurrentPrice,
			MarketCap:    valuation.MarketCap,
			Category:     string(valuation.Category),
			Complete:     valuation.Complete,
		}
	}
	p.publish(ctx, &enriched)
}

func (p *Pipeline) handleTrade(ctx context.Context, msg *blockchain.LogMessage, kind Kind) {
	tx, ok := p.fetch(ctx, msg.Signature)
	if !ok {
		return
	}

	trade, decoded := DecodeTradeLog(msg.Logs)
	if !decoded && len(tx.LogMessages) > 0 {
		trade, decoded = DecodeTradeLog(tx.LogMessages)
	}

	mint, ok := ExtractMint(tx, p.cfg.ProgramID)
	if !ok && decoded {
		mint, ok = trade.Mint, true
	}
	if !ok {
		p.metrics.RecordDrop("no_mint")
		return
	}

	ev := &events.TradeEvent{
		BaseEvent: events.BaseEvent{EventType: events.Trade, EventTime: time.Now().UTC()},
		Side:      events.SideBuy,
		Mint:      mint.String(),
		Signature: msg.Signature.String(),
	}
	if kind == KindSell {
		ev.Side = events.SideSell
	}
	if payer := tx.FeePayer(); !payer.IsZero() {
		ev.Trader = payer.String()
	}
	if decoded && trade.Mint.Equals(mint) {
		ev.SolAmount = trade.SolAmount
		ev.TokenAmount = trade.TokenAmount
		if !trade.User.IsZero() {
			ev.Trader = trade.User.String()
		}
	}
	p.publish(ctx, ev)
}

func (p *Pipeline) publish(ctx context.Context, ev events.Event) {
	if err := p.bus.Publish(ctx, ev); err != nil {
		p.logger.Debug("Publish reported errors",
			zap.String("event_type", string(ev.Type())),
			zap.Error(err))
	}
	p.metrics.RecordEvent(string(ev.Type()))
}
