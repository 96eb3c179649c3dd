// cmd/openpump/main.go
package main

import (
	"fmt"
	"os"

	"github.com/rovshanmuradov/openpump/internal/config"
	prettylog "github.com/rovshanmuradov/openpump/internal/logger"
	"github.com/rovshanmuradov/openpump/internal/utils/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

var (
	configPath   string
	debugLogging bool
	logFilePath  string
)

// rootCmd is the base command for the OpenPump CLI
var rootCmd = &cobra.Command{
	Use:   "openpump",
	Short: "Pump.fun bonding curve intelligence service",
	Long: `OpenPump watches the pump.fun program on Solana, values bonding curves
and serves token data over REST and a websocket stream.

Configuration comes from an optional JSON/YAML file and OPENPUMP_* environment
variables (OPENPUMP_RPC_URL, OPENPUMP_HELIUS_API_KEY, OPENPUMP_REDIS_URL, ...).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (json or yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugLogging, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFilePath, "log-file", "", "Log file path (overrides log_file)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig applies the persistent flags on top of the file/env config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if debugLogging {
		cfg.DebugLogging = true
	}
	if logFilePath != "" {
		cfg.LogFile = logFilePath
	}
	return cfg, nil
}

// newLogger builds the process logger. console nil keeps pretty stdout output.
func newLogger(cfg *config.Config, console zapcore.Core) (*logger.Logger, error) {
	lc := logger.DefaultConfig()
	lc.LogFile = cfg.LogFile
	lc.Debug = cfg.DebugLogging
	lc.Console = console
	log, err := logger.New(lc)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return log, nil
}

// stderrCore keeps one-shot command output on stdout clean: only warnings
// reach the terminal unless --debug is set.
func stderrCore(debug bool) zapcore.Core {
	level := zapcore.WarnLevel
	if debug {
		level = zapcore.DebugLevel
	}
	return zapcore.NewCore(prettylog.PrettyEncoder(), zapcore.Lock(os.Stderr), level)
}
