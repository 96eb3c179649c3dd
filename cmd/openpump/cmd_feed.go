// cmd/openpump/cmd_feed.go
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rovshanmuradov/openpump/internal/app"
	"github.com/rovshanmuradov/openpump/internal/events"
	prettylog "github.com/rovshanmuradov/openpump/internal/logger"
	"github.com/rovshanmuradov/openpump/internal/ui"
	"github.com/rovshanmuradov/openpump/internal/ui/component"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Live terminal feed of token creations and trades",
	Long: `Subscribe to the pump.fun program and show new tokens, enrichments and
trades as they happen. Press ? for key bindings, q to quit.`,
	RunE: runFeed,
}

var (
	feedBuffer       int
	feedLogLines     int
	feedSpill        string
	feedStartTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(feedCmd)

	feedCmd.Flags().IntVar(&feedBuffer, "buffer", 512, "Event queue between the bus and the UI")
	feedCmd.Flags().IntVar(&feedLogLines, "log-lines", 500, "Log entries kept in memory for the log pane")
	feedCmd.Flags().StringVar(&feedSpill, "log-spill", "", "Write log entries evicted from the pane to this file")
	feedCmd.Flags().DurationVar(&feedStartTimeout, "start-timeout", app.DefaultStartupTimeout, "How long to retry the initial log subscription")
	addRecordFlags(feedCmd)
}

func runFeed(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// the alt screen owns the terminal, logs go to the pane and the file
	logs, err := prettylog.NewLogBuffer(feedLogLines, feedSpill, nil)
	if err != nil {
		return err
	}
	defer logs.Close()
	if feedSpill != "" {
		stopFlush := logs.StartPeriodicFlush(5 * time.Second)
		defer close(stopFlush)
	}

	level := zapcore.InfoLevel
	if cfg.DebugLogging {
		level = zapcore.DebugLevel
	}
	log, err := newLogger(cfg, prettylog.NewBufferCore(logs, level))
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	// subscribe before the pipeline starts so the first events are not lost
	ch, sub := a.Bus.SubscribeChan(feedBuffer, events.NewToken, events.TokenEnriched, events.Trade)
	defer sub.Unsubscribe()

	fmt.Println("Connecting to the pump.fun log stream...")
	if err := a.StartPipeline(ctx, feedStartTimeout); err != nil {
		return err
	}

	status := func() component.StreamStatus {
		st := a.Pipeline.Status()
		return component.StreamStatus{
			Running:        st.Running,
			SubscriptionID: st.SubscriptionID,
			Processed:      st.ProcessedCount,
		}
	}

	// channel and buffer outlive a crashed program, a restart keeps the stream
	rh := ui.NewRecoveryHandler(log.Logger.Named("ui"), func() (tea.Model, []tea.ProgramOption) {
		model := ui.NewSafeUIWrapper(ui.NewFeedModel(ch, status, logs), log.Logger)
		return model, []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	})

	go func() {
		<-ctx.Done()
		rh.Stop()
	}()

	if err := rh.RunWithRecovery(ctx); err != nil {
		return err
	}
	log.Info("Feed closed", zap.Int("restarts", rh.GetRestartCount()))
	return nil
}
