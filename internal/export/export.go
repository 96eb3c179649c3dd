// Package export records bus events to CSV or JSON-lines files.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rovshanmuradov/openpump/internal/events"
	"github.com/rovshanmuradov/openpump/internal/logger"
	"go.uber.org/zap"
)

// ExportFormat represents the export file format
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "jsonl"
)

const defaultFlushInterval = time.Second

// CSVHeaders is the column layout of CSV recordings.
var CSVHeaders = []string{
	"timestamp", "type", "mint", "signature", "creator", "side", "trader",
	"sol_amount", "token_amount", "name", "symbol", "progress", "market_cap",
}

// ExportOptions configures what gets recorded and where.
type ExportOptions struct {
	Path          string
	Format        ExportFormat // пусто – по расширению Path
	TokenFilter   string       // только этот mint
	SideFilter    events.TradeSide
	Types         []events.EventType // пусто – все типы
	FlushInterval time.Duration
}

// ExportSummary aggregates what a Recorder has written.
type ExportSummary struct {
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	NewTokens       int       `json:"new_tokens"`
	Enriched        int       `json:"enriched"`
	BuyCount        int       `json:"buy_count"`
	SellCount       int       `json:"sell_count"`
	TotalBuyVolume  float64   `json:"total_buy_volume_sol"`
	TotalSellVolume float64   `json:"total_sell_volume_sol"`
	UniqueTokens    int       `json:"unique_tokens"`
}

// Recorder is an events.Handler appending every matching event to a file.
type Recorder struct {
	opts   ExportOptions
	csv    *logger.SafeCSVWriter
	jsonl  *logger.SafeFileWriter
	logger *zap.Logger

	mu      sync.Mutex
	summary ExportSummary
	tokens  map[string]struct{}
}

// FormatFromPath picks JSON lines for .json/.jsonl files and CSV otherwise.
func FormatFromPath(path string) ExportFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonl", ".ndjson":
		return FormatJSON
	default:
		return FormatCSV
	}
}

// GenerateFilename builds a timestamped recording name.
func GenerateFilename(format ExportFormat, tokenFilter string, now time.Time) string {
	prefix := "events_all"
	if tokenFilter != "" {
		prefix = "events_" + logger.ShortenAddress(tokenFilter)
		prefix = strings.ReplaceAll(prefix, "...", "_")
	}
	return fmt.Sprintf("%s_%s.%s", prefix, now.Format("20060102_150405"), format)
}

// NewRecorder opens the output file. Existing files are appended to.
func NewRecorder(opts ExportOptions, log *zap.Logger) (*Recorder, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("export path is required")
	}
	if opts.Format == "" {
		opts.Format = FormatFromPath(opts.Path)
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = defaultFlushInterval
	}

	r := &Recorder{
		opts:   opts,
		logger: log.Named("export"),
		tokens: make(map[string]struct{}),
	}

	var err error
	switch opts.Format {
	case FormatCSV:
		r.csv, err = logger.NewSafeCSVWriter(opts.Path, CSVHeaders, opts.FlushInterval, r.logger)
	case FormatJSON:
		r.jsonl, err = logger.NewSafeFileWriter(opts.Path, opts.FlushInterval, r.logger)
	default:
		err = fmt.Errorf("unsupported format: %s", opts.Format)
	}
	if err != nil {
		return nil, err
	}

	r.logger.Info("Recording events",
		zap.String("file", opts.Path),
		zap.String("format", string(opts.Format)))
	return r, nil
}

// Attach subscribes the recorder to the configured event types.
func (r *Recorder) Attach(bus *events.Bus) events.Subscription {
	types := r.opts.Types
	if len(types) == 0 {
		types = []events.EventType{events.NewToken, events.TokenEnriched, events.Trade}
	}
	return bus.Subscribe(r, types...)
}

// Handle implements events.Handler.
func (r *Recorder) Handle(_ context.Context, ev events.Event) error {
	if !r.matches(ev) {
		return nil
	}

	var err error
	if r.csv != nil {
		err = r.csv.WriteRecord(toCSV(ev))
	} else {
		var line []byte
		line, err = json.Marshal(ev)
		if err == nil {
			err = r.jsonl.WriteLine(line)
		}
	}
	if err != nil {
		return fmt.Errorf("record %s: %w", ev.Type(), err)
	}

	r.account(ev)
	return nil
}

func (r *Recorder) matches(ev events.Event) bool {
	switch e := ev.(type) {
	case *events.NewTokenEvent:
		if r.opts.SideFilter != "" {
			return false
		}
		return r.opts.TokenFilter == "" || e.Mint == r.opts.TokenFilter
	case *events.TradeEvent:
		if r.opts.SideFilter != "" && e.Side != r.opts.SideFilter {
			return false
		}
		return r.opts.TokenFilter == "" || e.Mint == r.opts.TokenFilter
	default:
		return false
	}
}

func (r *Recorder) account(ev events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &r.summary
	if s.StartDate.IsZero() {
		s.StartDate = ev.Timestamp()
	}
	s.EndDate = ev.Timestamp()

	switch e := ev.(type) {
	case *events.NewTokenEvent:
		if e.Type() == events.TokenEnriched {
			s.Enriched++
		} else {
			s.NewTokens++
		}
		r.tokens[e.Mint] = struct{}{}
	case *events.TradeEvent:
		sol := float64(e.SolAmount) / 1e9
		if e.Side == events.SideBuy {
			s.BuyCount++
			s.TotalBuyVolume += sol
		} else {
			s.SellCount++
			s.TotalSellVolume += sol
		}
		r.tokens[e.Mint] = struct{}{}
	}
	s.UniqueTokens = len(r.tokens)
}

// Summary returns the running totals.
func (r *Recorder) Summary() ExportSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary
}

// Close flushes and closes the file, then logs the summary.
func (r *Recorder) Close() error {
	var err error
	if r.csv != nil {
		err = r.csv.Close()
	} else {
		err = r.jsonl.Close()
	}

	s := r.Summary()
	r.logger.Info("Recording finished",
		zap.String("file", r.opts.Path),
		zap.Int("new_tokens", s.NewTokens),
		zap.Int("trades", s.BuyCount+s.SellCount),
		zap.Int("unique_tokens", s.UniqueTokens))
	return err
}

func toCSV(ev events.Event) []string {
	row := make([]string, len(CSVHeaders))
	row[0] = ev.Timestamp().UTC().Format(time.RFC3339Nano)
	row[1] = string(ev.Type())

	switch e := ev.(type) {
	case *events.NewTokenEvent:
		row[2], row[3], row[4] = e.Mint, e.Signature, e.Creator
		row[9], row[10] = e.Name, e.Symbol
		if e.BondingCurve != nil {
			row[11] = strconv.FormatFloat(e.BondingCurve.Progress, 'f', 2, 64)
			row[12] = strconv.FormatFloat(e.BondingCurve.MarketCap, 'f', 4, 64)
		}
	case *events.TradeEvent:
		row[2], row[3] = e.Mint, e.Signature
		row[5], row[6] = string(e.Side), e.Trader
		row[7] = strconv.FormatUint(e.SolAmount, 10)
		row[8] = strconv.FormatUint(e.TokenAmount, 10)
	}
	return row
}
