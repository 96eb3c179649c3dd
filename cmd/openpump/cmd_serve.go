// cmd/openpump/cmd_serve.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rovshanmuradov/openpump/internal/api"
	"github.com/rovshanmuradov/openpump/internal/app"
	"github.com/rovshanmuradov/openpump/internal/export"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API, websocket stream and realtime pipeline",
	Long: `Start the realtime ingestion pipeline and serve the HTTP API.

Examples:
  openpump serve
  openpump serve --listen :8080
  openpump serve --record events.csv
  openpump serve --no-stream          # REST only, no log subscription`,
	RunE: runServe,
}

var (
	serveListen       string
	serveNoStream     bool
	serveStartTimeout time.Duration
	serveOrigins      []string
	recordPath        string
	recordMint        string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (overrides listen_addr)")
	serveCmd.Flags().BoolVar(&serveNoStream, "no-stream", false, "Do not subscribe to program logs")
	serveCmd.Flags().DurationVar(&serveStartTimeout, "start-timeout", app.DefaultStartupTimeout, "How long to retry the initial log subscription")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "cors-origin", []string{"*"}, "Allowed CORS origins")
	addRecordFlags(serveCmd)
}

func addRecordFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&recordPath, "record", "", "Append bus events to this file (.csv or .jsonl) or a new file in this directory")
	cmd.Flags().StringVar(&recordMint, "record-mint", "", "Only record events of this mint")
}

// attachRecorder starts recording when --record is set. Recording stops on
// app shutdown: unsubscribe first, then close the file.
func attachRecorder(a *app.App, log *zap.Logger) error {
	if recordPath == "" {
		return nil
	}
	path := recordPath
	// a directory gets a timestamped csv file
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, export.GenerateFilename(export.FormatCSV, recordMint, time.Now()))
	}
	rec, err := export.NewRecorder(export.ExportOptions{
		Path:        path,
		TokenFilter: recordMint,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to open recording: %w", err)
	}
	log.Info("Recording events", zap.String("path", path))
	sub := rec.Attach(a.Bus)
	a.OnShutdown("recorder", app.CloseFunc(func() error {
		sub.Unsubscribe()
		return rec.Close()
	}))
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveListen != "" {
		cfg.ListenAddr = serveListen
	}

	log, err := newLogger(cfg, nil)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("🚀 Starting OpenPump", zap.String("version", api.Version))

	a, err := app.New(ctx, cfg, log.Logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.DefaultShutdownTimeout)
		defer cancel()
		if err := a.Shutdown(shutdownCtx); err != nil {
			log.LogError("Shutdown finished with errors", err)
		}
	}()

	if err := attachRecorder(a, log.Logger); err != nil {
		return err
	}

	if serveNoStream {
		log.Info("Realtime pipeline disabled")
	} else {
		done := log.TrackPerformance("pipeline_start")
		err := a.StartPipeline(ctx, serveStartTimeout)
		done()
		if err != nil {
			return err
		}
	}

	srvCfg := api.DefaultServerConfig()
	srvCfg.Addr = cfg.ListenAddr
	srvCfg.AllowedOrigins = serveOrigins
	srv := a.NewServer(srvCfg)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case <-ctx.Done():
		log.Info("📡 Shutdown signal received")
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	}
}
