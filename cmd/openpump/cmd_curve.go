// cmd/openpump/cmd_curve.go
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rovshanmuradov/openpump/internal/app"
	"github.com/rovshanmuradov/openpump/internal/dex/pumpfun"
	"github.com/rovshanmuradov/openpump/internal/utils/logger"
	"github.com/spf13/cobra"
)

var curveCmd = &cobra.Command{
	Use:   "curve <mint>",
	Short: "Show the bonding curve valuation of a token",
	Args:  cobra.ExactArgs(1),
	RunE:  runCurve,
}

var tokenCmd = &cobra.Command{
	Use:   "token <mint>",
	Short: "Show the aggregated view of a token (metadata, curve, price)",
	Args:  cobra.ExactArgs(1),
	RunE:  runToken,
}

const lookupTimeout = 30 * time.Second

func init() {
	rootCmd.AddCommand(curveCmd)
	rootCmd.AddCommand(tokenCmd)
	addFormatFlag(curveCmd)
	// token always prints json
}

func runCurve(cmd *cobra.Command, args []string) error {
	return withApp(cmd, lookupTimeout, func(ctx context.Context, a *app.App, log *logger.Logger) error {
		log.WithMint(args[0]).Debug("Looking up token")
		v, err := a.Tokens.GetBondingCurve(ctx, args[0])
		if err != nil {
			return err
		}
		if wantJSON() {
			return outputJSON(os.Stdout, v)
		}
		return printValuation(v)
	})
}

func runToken(cmd *cobra.Command, args []string) error {
	outputFormat = formatJSON
	return withApp(cmd, lookupTimeout, func(ctx context.Context, a *app.App, log *logger.Logger) error {
		log.WithMint(args[0]).Debug("Looking up token")
		view, err := a.Tokens.GetToken(ctx, args[0])
		if err != nil {
			return err
		}
		return outputJSON(os.Stdout, view)
	})
}

func printValuation(v *pumpfun.Valuation) error {
	w := newTable(os.Stdout)
	rows := []struct {
		k string
		v string
	}{
		{"Mint", v.Mint},
		{"Bonding curve", v.BondingCurve},
		{"Category", string(v.Category)},
		{"Complete", fmt.Sprintf("%t", v.Complete)},
		{"Progress", fmt.Sprintf("%.2f%%", v.Progress)},
		{"SOL raised", fmt.Sprintf("%.4f", v.SolRaised)},
		{"SOL remaining", fmt.Sprintf("%.4f", v.SolRemaining)},
		{"Price (SOL)", fmt.Sprintf("%.10f", v.PriceSOL)},
		{"Market cap (SOL)", fmt.Sprintf("%.2f", v.MarketCap)},
		{"Virtual SOL", fmt.Sprintf("%.4f", v.VirtualSolReserves)},
		{"Virtual tokens", fmt.Sprintf("%.2f", v.VirtualTokenReserves)},
		{"Real SOL", fmt.Sprintf("%.4f", v.RealSolReserves)},
		{"Real tokens", fmt.Sprintf("%.2f", v.RealTokenReserves)},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s:\t%s\n", r.k, r.v)
	}
	return w.Flush()
}
