// cmd/openpump/cmd_simulate.go
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/rovshanmuradov/openpump/internal/app"
	"github.com/rovshanmuradov/openpump/internal/dex/pumpfun"
	"github.com/rovshanmuradov/openpump/internal/utils/logger"
	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Quote a trade against the live bonding curve",
	Long: `Simulate a buy or sell using the constant product formula of the curve.
Nothing is signed or sent.

Examples:
  openpump simulate buy <mint> 0.5      # spend 0.5 SOL
  openpump simulate sell <mint> 100000  # sell 100k tokens`,
}

var simulateBuyCmd = &cobra.Command{
	Use:   "buy <mint> <sol>",
	Short: "Quote the tokens received for a SOL amount",
	Args:  cobra.ExactArgs(2),
	RunE:  runSimulateBuy,
}

var simulateSellCmd = &cobra.Command{
	Use:   "sell <mint> <tokens>",
	Short: "Quote the SOL received for a token amount",
	Args:  cobra.ExactArgs(2),
	RunE:  runSimulateSell,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.AddCommand(simulateBuyCmd)
	simulateCmd.AddCommand(simulateSellCmd)
	simulateCmd.PersistentFlags().StringVarP(&outputFormat, "format", "o", formatTable, "Output format: table, json")
}

func parseAmount(raw string) (float64, error) {
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil || amount <= 0 {
		return 0, fmt.Errorf("amount must be a positive number, got %q", raw)
	}
	return amount, nil
}

func runSimulateBuy(cmd *cobra.Command, args []string) error {
	sol, err := parseAmount(args[1])
	if err != nil {
		return err
	}
	return withApp(cmd, lookupTimeout, func(ctx context.Context, a *app.App, log *logger.Logger) error {
		log.WithMint(args[0]).Debug("Looking up token")
		q, err := a.Tokens.SimulateBuy(ctx, args[0], sol)
		if err != nil {
			return err
		}
		if wantJSON() {
			return outputJSON(os.Stdout, q)
		}
		w := newTable(os.Stdout)
		fmt.Fprintf(w, "SOL in:\t%.9f\n", float64(q.SolIn)/pumpfun.LamportsPerSOL)
		fmt.Fprintf(w, "Tokens out:\t%.6f\n", q.TokensOutUI)
		fmt.Fprintf(w, "New price (lamports/unit):\t%.10f\n", q.NewPrice)
		fmt.Fprintf(w, "Price impact:\t%+.4f%%\n", q.PriceImpact)
		return w.Flush()
	})
}

func runSimulateSell(cmd *cobra.Command, args []string) error {
	tokens, err := parseAmount(args[1])
	if err != nil {
		return err
	}
	return withApp(cmd, lookupTimeout, func(ctx context.Context, a *app.App, log *logger.Logger) error {
		log.WithMint(args[0]).Debug("Looking up token")
		q, err := a.Tokens.SimulateSell(ctx, args[0], tokens)
		if err != nil {
			return err
		}
		if wantJSON() {
			return outputJSON(os.Stdout, q)
		}
		w := newTable(os.Stdout)
		fmt.Fprintf(w, "Tokens in:\t%.6f\n", float64(q.TokensIn)/pumpfun.TokenDecimalScale)
		fmt.Fprintf(w, "SOL out:\t%.9f\n", q.SolOutUI)
		fmt.Fprintf(w, "New price (lamports/unit):\t%.10f\n", q.NewPrice)
		fmt.Fprintf(w, "Price impact:\t%+.4f%%\n", q.PriceImpact)
		return w.Flush()
	})
}
