// cmd/openpump/cmd_discover.go
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rovshanmuradov/openpump/internal/app"
	"github.com/rovshanmuradov/openpump/internal/token"
	"github.com/rovshanmuradov/openpump/internal/utils/logger"
	"github.com/spf13/cobra"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List recently created pump.fun tokens",
	Long: `Scan recent program signatures for token creations and value their
bonding curves.

Examples:
  openpump discover
  openpump discover --limit 10 --sort market_cap
  openpump discover --category final_stretch --format json`,
	RunE: runDiscover,
}

var (
	discoverLimit    int
	discoverSort     string
	discoverCategory string
	discoverTimeout  time.Duration
)

func init() {
	rootCmd.AddCommand(discoverCmd)

	discoverCmd.Flags().IntVarP(&discoverLimit, "limit", "n", 20, "Maximum number of tokens (1-100)")
	discoverCmd.Flags().StringVar(&discoverSort, "sort", token.SortCreated, "Sort by: created_timestamp, market_cap")
	discoverCmd.Flags().StringVar(&discoverCategory, "category", "all", "Filter: all, new, rising, final_stretch, graduated")
	discoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", 90*time.Second, "Overall scan timeout")
	addFormatFlag(discoverCmd)
}

func runDiscover(cmd *cobra.Command, _ []string) error {
	if discoverLimit < 1 || discoverLimit > token.MaxListLimit {
		return fmt.Errorf("--limit must be between 1 and %d", token.MaxListLimit)
	}

	return withApp(cmd, discoverTimeout, func(ctx context.Context, a *app.App, _ *logger.Logger) error {
		listings := a.Tokens.ListTokens(ctx, token.ListParams{
			Limit:      discoverLimit,
			Sort:       discoverSort,
			Descending: true,
			Category:   discoverCategory,
		})
		if wantJSON() {
			return outputJSON(os.Stdout, listings)
		}
		return printListings(listings)
	})
}

func printListings(listings []token.Listing) error {
	if len(listings) == 0 {
		fmt.Println("No tokens found")
		return nil
	}

	w := newTable(os.Stdout)
	fmt.Fprintln(w, "MINT\tSYMBOL\tNAME\tCATEGORY\tPROGRESS\tMCAP (SOL)\tPRICE (SOL)\tCREATED")
	for _, l := range listings {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f%%\t%.2f\t%.10f\t%s\n",
			l.Mint,
			dash(l.Symbol),
			truncate(dash(l.Name), 24),
			l.Category,
			l.Progress,
			l.MarketCapSOL,
			l.PriceSOL,
			formatTime(l.CreatedTimestamp))
	}
	return w.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
