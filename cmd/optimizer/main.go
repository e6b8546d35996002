// Grid-search optimizer CLI.
// Exhaustively backtests parameterized trading strategies over a CSV bar
// series and writes ranked result tables plus per-trade ledgers.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/gridott/internal/config"
	"github.com/ajitpratap0/gridott/internal/indicator"
	"github.com/ajitpratap0/gridott/internal/metrics"
	"github.com/ajitpratap0/gridott/internal/series"
	"github.com/ajitpratap0/gridott/internal/validation"
	"github.com/ajitpratap0/gridott/pkg/backtest"
)

func usage(program string) {
	fmt.Fprintf(os.Stderr, "Usage: %s <csv_file> [options]\n", program)
	fmt.Fprintln(os.Stderr, "Options:")
	fmt.Fprintln(os.Stderr, "  --strategies=s1,s2,...  Strategies to optimize (default: OTT)")
	fmt.Fprintln(os.Stderr, "  --threads=N             Number of worker threads (default: CPU cores)")
	fmt.Fprintln(os.Stderr, "  --min-trades=N          Minimum trades filter (default: 5)")
	fmt.Fprintln(os.Stderr, "  --min-winrate=N         Minimum win rate filter (default: 55)")
	fmt.Fprintln(os.Stderr, "  --no-sl                 Disable stop loss")
	fmt.Fprintln(os.Stderr, "  --no-tp                 Disable take profit")
	fmt.Fprintln(os.Stderr, "  --pyramiding            Enable pyramiding")
	fmt.Fprintln(os.Stderr, "  --exclude-sl            Exclude stop loss trades from win rate calculation")
	fmt.Fprintln(os.Stderr, "  --config=path           Optional YAML configuration file")
	fmt.Fprintln(os.Stderr, "  --metrics-addr=h:p      Optional Prometheus/health endpoint")
	fmt.Fprintln(os.Stderr, "  --verify-indicators     Run the indicator cross-check diagnostic")
	fmt.Fprintln(os.Stderr, "  --verbose               Debug-level logging")
	fmt.Fprintln(os.Stderr, "  --output=dir            Base directory for results (default: results)")
	fmt.Fprintln(os.Stderr, "Available strategies: OTT, TOTT, OTT_CHANNEL, RISOTTO, SOTT, HOTT-LOTT, ROTT, FT, RTR, MOTT, BOOTS")
	fmt.Fprintf(os.Stderr, "Example: %s data.csv --strategies=OTT,SOTT,MOTT --threads=8\n", program)
}

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) < 2 || strings.HasPrefix(os.Args[1], "-") {
		usage(os.Args[0])
		return 1
	}
	csvFile := os.Args[1]

	flags := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flags.Usage = func() { usage(os.Args[0]) }

	var (
		strategies  = flags.String("strategies", "", "comma-separated strategy families")
		threads     = flags.Int("threads", 0, "worker threads")
		minTrades   = flags.Int("min-trades", -1, "minimum trades filter")
		minWinRate  = flags.Float64("min-winrate", -1, "minimum win rate filter")
		noSL        = flags.Bool("no-sl", false, "disable stop loss")
		noTP        = flags.Bool("no-tp", false, "disable take profit")
		pyramiding  = flags.Bool("pyramiding", false, "enable pyramiding")
		excludeSL   = flags.Bool("exclude-sl", false, "exclude SL trades from win rate")
		configPath  = flags.String("config", "", "YAML configuration file")
		metricsAddr = flags.String("metrics-addr", "", "Prometheus endpoint address")
		verifyInd   = flags.Bool("verify-indicators", false, "run indicator cross-check")
		verbose     = flags.Bool("verbose", false, "debug-level logging")
		output      = flags.String("output", "", "results base directory")
	)

	if err := flags.Parse(os.Args[2:]); err != nil {
		return 1
	}

	level := "info"
	if *verbose {
		level = "debug"
	}
	config.InitLogger(level, "console")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return 1
	}

	// CLI flags win over file and environment values.
	if *strategies != "" {
		cfg.Strategies = strings.Split(*strategies, ",")
	}
	if *threads != 0 {
		cfg.Threads = *threads
	}
	if cfg.Threads == 0 {
		cfg.Threads = runtime.NumCPU()
	}
	if *minTrades >= 0 {
		cfg.MinTrades = *minTrades
	}
	if *minWinRate >= 0 {
		cfg.MinWinRate = *minWinRate
	}
	if *noSL {
		cfg.UseSL = false
	}
	if *noTP {
		cfg.UseTP = false
	}
	if *pyramiding {
		cfg.Pyramiding = true
	}
	if *excludeSL {
		cfg.ExcludeSL = true
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if *output != "" {
		cfg.OutputDir = *output
	}

	v := validation.NewOptimizerConfigValidator()
	v.ValidateThreads(cfg.Threads)
	v.ValidateMinTrades(cfg.MinTrades)
	v.ValidateMinWinRate(cfg.MinWinRate)
	v.ValidateStrategies(cfg.Strategies)
	v.ValidatePercentGrid("sl_grid", cfg.SLGrid)
	v.ValidatePercentGrid("tp_grid", cfg.TPGrid)
	v.ValidateConfigFile(*configPath)
	if v.HasErrors() {
		fmt.Fprintln(os.Stderr, v.Errors().Error())
		usage(os.Args[0])
		return 1
	}

	log.Info().Str("file", csvFile).Msg("Loading data")
	bars, err := series.LoadCSV(csvFile)
	if err != nil {
		log.Error().Err(err).Str("file", csvFile).Msg("Failed to load data")
		return 1
	}

	if cfg.MetricsAddr != "" {
		server := metrics.NewServer(cfg.MetricsAddr, log.Logger)
		if err := server.Start(); err != nil {
			log.Warn().Err(err).Msg("Metrics endpoint disabled")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				server.Shutdown(ctx) //nolint:errcheck
			}()
		}
	}

	coordinator := backtest.NewCoordinator(bars, cfg, log.Logger)

	if *verifyInd {
		indicator.CrossCheck(coordinator.Cache(), bars.Closes, 14, 20, log.Logger)
	}

	if err := coordinator.Run(context.Background()); err != nil {
		log.Error().Err(err).Msg("Optimization failed")
		return 1
	}

	return 0
}
