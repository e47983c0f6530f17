package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quantsweep/quantsweep/internal/candle"
)

var (
	candlesDSN      string
	candlesSymbol   string
	candlesInterval string
	candlesCSV      string
	candlesFrom     string
	candlesTo       string
)

var candlesCmd = &cobra.Command{
	Use:   "candles",
	Short: "Manage the Postgres candle store",
}

var candlesImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a candle CSV file into the store",
	RunE:  runCandlesImport,
}

var candlesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export candles from the store to CSV on stdout",
	RunE:  runCandlesExport,
}

func init() {
	candlesCmd.PersistentFlags().StringVar(&candlesDSN, "dsn", "", "Postgres DSN (required)")
	candlesCmd.PersistentFlags().StringVar(&candlesSymbol, "symbol", "", "symbol (required)")
	candlesCmd.PersistentFlags().StringVar(&candlesInterval, "interval", "1d", "candle interval")
	candlesCmd.MarkPersistentFlagRequired("dsn")
	candlesCmd.MarkPersistentFlagRequired("symbol")

	candlesImportCmd.Flags().StringVar(&candlesCSV, "csv", "", "candle CSV file (required)")
	candlesImportCmd.MarkFlagRequired("csv")

	candlesExportCmd.Flags().StringVar(&candlesFrom, "from", "", "start date YYYY-MM-DD")
	candlesExportCmd.Flags().StringVar(&candlesTo, "to", "", "end date YYYY-MM-DD")

	candlesCmd.AddCommand(candlesImportCmd)
	candlesCmd.AddCommand(candlesExportCmd)
	rootCmd.AddCommand(candlesCmd)
}

func runCandlesImport(cmd *cobra.Command, args []string) error {
	candles, err := candle.ReadFile(candlesCSV)
	if err != nil {
		return fmt.Errorf("reading %s: %w", candlesCSV, err)
	}
	if err := candle.Validate(candles); err != nil {
		return err
	}

	repo, err := candle.Open(candlesDSN)
	if err != nil {
		return fmt.Errorf("connecting to candle store: %w", err)
	}
	defer repo.Close()

	ctx := context.Background()
	if err := repo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	if err := repo.Save(ctx, candlesSymbol, candlesInterval, candles); err != nil {
		return fmt.Errorf("saving candles: %w", err)
	}

	fmt.Printf("Imported %d candles for %s (%s)\n", len(candles), candlesSymbol, candlesInterval)
	return nil
}

func runCandlesExport(cmd *cobra.Command, args []string) error {
	from, to, err := parseDateRange(candlesFrom, candlesTo)
	if err != nil {
		return err
	}

	repo, err := candle.Open(candlesDSN)
	if err != nil {
		return fmt.Errorf("connecting to candle store: %w", err)
	}
	defer repo.Close()

	candles, err := repo.LoadRange(context.Background(), candlesSymbol, candlesInterval, from, to)
	if err != nil {
		return fmt.Errorf("loading candles: %w", err)
	}

	return candle.WriteCSV(os.Stdout, candles)
}
