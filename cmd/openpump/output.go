// cmd/openpump/output.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rovshanmuradov/openpump/internal/app"
	"github.com/rovshanmuradov/openpump/internal/utils/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

var outputFormat string

func addFormatFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputFormat, "format", "o", formatTable, "Output format: table, json")
}

func validateFormat() error {
	switch strings.ToLower(outputFormat) {
	case formatTable, formatJSON:
		return nil
	default:
		return fmt.Errorf("unsupported format %q (use table or json)", outputFormat)
	}
}

func wantJSON() bool {
	return strings.EqualFold(outputFormat, formatJSON)
}

func outputJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// withApp runs fn against a fully wired app without starting the pipeline.
// Logs go to the file and, for warnings, to stderr.
func withApp(cmd *cobra.Command, timeout time.Duration, fn func(ctx context.Context, a *app.App, log *logger.Logger) error) error {
	if err := validateFormat(); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, stderrCore(cfg.DebugLogging))
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	a, err := app.New(ctx, cfg, log.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Shutdown(context.Background()) }()

	log.WithComponent("cli").Debug("Services ready", zap.String("command", cmd.CommandPath()))
	return fn(ctx, a, log)
}

func formatTime(ms int64) string {
	if ms <= 0 {
		return "-"
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04:05")
}
