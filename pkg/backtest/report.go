package backtest

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/gridott/internal/series"
	"github.com/ajitpratap0/gridott/internal/strategy"
)

// TopTradeLedgers is how many top-ranked results get a per-trade ledger
// file alongside the summary table.
const TopTradeLedgers = 10

// WriteResults writes one strategy family's ranked summary table plus
// trade ledgers for the top results under <baseDir>/<family>/. An empty
// result set still produces a (header-only) summary file and a stderr
// notice.
func WriteResults(baseDir string, family strategy.Family, results []Result, bars []series.Bar) error {
	dir := filepath.Join(baseDir, sanitizeName(string(family)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create results dir %s: %w", dir, err)
	}

	if err := writeSummary(filepath.Join(dir, "summary.csv"), results); err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Fprintf(os.Stderr, "no %s combination passed the filters\n", family)
		log.Warn().Str("strategy", string(family)).Msg("Empty result set")
		return nil
	}

	top := len(results)
	if top > TopTradeLedgers {
		top = TopTradeLedgers
	}
	for rank := 0; rank < top; rank++ {
		r := results[rank]
		name := fmt.Sprintf("trades_%02d_%s.csv", rank+1, sanitizeName(r.ParamsStr))
		if err := writeTrades(filepath.Join(dir, name), r.Trades, bars); err != nil {
			return err
		}
	}

	log.Info().
		Str("strategy", string(family)).
		Str("dir", dir).
		Int("results", len(results)).
		Int("trade_ledgers", top).
		Msg("Wrote results")

	return nil
}

func writeSummary(path string, results []Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"params_str", "total_trades", "win_rate", "sl_win_rate",
		"net_profit", "profit_factor", "max_drawdown", "profit_percent",
		"sl_trades", "winning_trades", "losing_trades",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range results {
		row := []string{
			r.ParamsStr,
			strconv.Itoa(r.TotalTrades),
			fnum(r.WinRate),
			fnum(r.SLWinRate),
			fnum(r.NetProfit),
			fnum(r.ProfitFactor),
			fnum(r.MaxDrawdown),
			fnum(r.ProfitPercent),
			strconv.Itoa(r.SLTrades),
			strconv.Itoa(r.WinningTrades),
			strconv.Itoa(r.LosingTrades),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func writeTrades(path string, trades []Trade, bars []series.Bar) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"entry_index", "entry_date", "exit_index", "exit_date",
		"is_long", "entry_price", "exit_price", "profit", "exit_reason",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, t := range trades {
		row := []string{
			strconv.Itoa(t.EntryIndex),
			bars[t.EntryIndex].Date,
			strconv.Itoa(t.ExitIndex),
			bars[t.ExitIndex].Date,
			strconv.FormatBool(t.IsLong),
			fnum(t.EntryPrice),
			fnum(t.ExitPrice),
			fnum(t.Profit),
			string(t.ExitReason),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// fnum renders a float with the shortest exact representation so output
// files are byte-identical across runs and thread counts. Infinite profit
// factors (no losing trades) render as "inf".
func fnum(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// sanitizeName makes a canonical parameter string safe as a file name:
// spaces become '_' and '/', '\\', ':' become '-'. The mapping is not
// injective ('_' already occurs in OTT_CHANNEL), so a file name is not
// mechanically reversible to its params_str.
func sanitizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ':
			return '_'
		case '/', '\\', ':':
			return '-'
		default:
			return r
		}
	}, s)
}
