package backtest

import (
	"context"
	"fmt"
	"math"
	"os"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/gridott/internal/config"
	"github.com/ajitpratap0/gridott/internal/indicator"
	"github.com/ajitpratap0/gridott/internal/metrics"
	"github.com/ajitpratap0/gridott/internal/series"
	"github.com/ajitpratap0/gridott/internal/strategy"
)

// InitialCapital anchors the equity curve for drawdown and profit-percent
// reporting. Profits are raw price differences; no position sizing.
const InitialCapital = 10000.0

// OptimizerOptions carries the shared grid-search settings every family
// run uses: the SL/TP axes, filter thresholds, and worker pool size.
type OptimizerOptions struct {
	SLGrid     []float64
	TPGrid     []float64
	UseSL      bool
	UseTP      bool
	Pyramiding bool
	MinTrades  int
	MinWinRate float64
	ExcludeSL  bool
	Threads    int

	// EnableMetrics mirrors progress to the Prometheus gauges.
	EnableMetrics bool
}

// Optimizer runs the exhaustive grid search for one strategy family over
// a shared bar series and indicator cache.
type Optimizer struct {
	series *series.Series
	cache  *indicator.Cache
	opts   OptimizerOptions
	log    zerolog.Logger
}

// NewOptimizer creates a grid-search driver sharing the given series and
// indicator cache.
func NewOptimizer(s *series.Series, cache *indicator.Cache, opts OptimizerOptions, log zerolog.Logger) *Optimizer {
	if opts.Threads <= 0 {
		opts.Threads = runtime.NumCPU()
	}
	return &Optimizer{
		series: s,
		cache:  cache,
		opts:   opts,
		log:    log.With().Str("component", "driver").Logger(),
	}
}

// enumerate expands the Cartesian product of the family's parameter grid
// plus the SL/TP axes into concrete Params instances, in a fixed order.
func (o *Optimizer) enumerate(family strategy.Family, grid config.ParameterGrid) ([]strategy.Params, error) {
	fields := strategy.FieldOrder(family)
	if fields == nil {
		return nil, fmt.Errorf("backtest: unknown strategy family %q", family)
	}

	axes := make([][]interface{}, len(fields))
	for i, f := range fields {
		values, ok := grid[f]
		if !ok || len(values) == 0 {
			return nil, fmt.Errorf("backtest: no grid values for %s.%s", family, f)
		}
		axes[i] = values
	}

	var params []strategy.Params
	current := make(map[string]interface{}, len(fields))

	var expand func(axis int) error
	expand = func(axis int) error {
		if axis == len(fields) {
			for _, sl := range o.opts.SLGrid {
				for _, tp := range o.opts.TPGrid {
					common := strategy.Common{
						SLPercent:  sl,
						TPPercent:  tp,
						UseSL:      o.opts.UseSL,
						UseTP:      o.opts.UseTP,
						Pyramiding: o.opts.Pyramiding,
					}
					p, err := strategy.Build(family, common, current)
					if err != nil {
						return err
					}
					params = append(params, p)
				}
			}
			return nil
		}
		for _, v := range axes[axis] {
			current[fields[axis]] = v
			if err := expand(axis + 1); err != nil {
				return err
			}
		}
		return nil
	}

	if err := expand(0); err != nil {
		return nil, err
	}
	return params, nil
}

// Optimize enumerates every parameter combination for the family,
// dispatches the backtests across the worker pool, filters by the
// configured thresholds, deduplicates by canonical parameter string, and
// returns the surviving results ranked by win rate.
func (o *Optimizer) Optimize(ctx context.Context, family strategy.Family, grid config.ParameterGrid) ([]Result, error) {
	params, err := o.enumerate(family, grid)
	if err != nil {
		return nil, err
	}
	total := len(params)

	o.log.Info().
		Str("strategy", string(family)).
		Int("combinations", total).
		Int("threads", o.opts.Threads).
		Msg("Starting grid search")

	if o.opts.EnableMetrics {
		metrics.TotalTasks.WithLabelValues(string(family)).Set(float64(total))
		metrics.CompletedTasks.WithLabelValues(string(family)).Set(0)
	}

	var (
		resultMu   sync.Mutex
		results    []Result
		seen       = make(map[string]bool)
		progress   atomic.Int64
		progressMu sync.Mutex
		start      = time.Now()
	)

	// Report roughly every 5% of the grid, at least every 1000 tasks.
	reportEvery := total / 20
	if reportEvery == 0 || reportEvery > 1000 {
		reportEvery = 1000
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Threads)

	for _, p := range params {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			o.runTask(family, p, &resultMu, &results, seen)

			done := progress.Add(1)
			if done%int64(reportEvery) == 0 || done == int64(total) {
				progressMu.Lock()
				fmt.Fprintf(os.Stderr, "%d/%d (%.1f%%)\n", done, total, float64(done)/float64(total)*100)
				progressMu.Unlock()
				if o.opts.EnableMetrics {
					metrics.CompletedTasks.WithLabelValues(string(family)).Set(float64(done))
					metrics.ElapsedSeconds.WithLabelValues(string(family)).Set(time.Since(start).Seconds())
				}
			}
			return nil
		})
	}
	_ = g.Wait() // tasks never return errors; panics are recovered inside
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	sortResults(results)

	if o.opts.EnableMetrics {
		metrics.ResultsEmitted.WithLabelValues(string(family)).Add(float64(len(results)))
		metrics.ElapsedSeconds.WithLabelValues(string(family)).Set(time.Since(start).Seconds())
	}

	o.log.Info().
		Str("strategy", string(family)).
		Int("combinations", total).
		Int("results", len(results)).
		Dur("elapsed", time.Since(start)).
		Msg("Grid search complete")

	return results, nil
}

// runTask executes one backtest: generate, simulate, aggregate, filter,
// deduplicate, append. A panic inside the task is recovered and logged so
// one bad combination cannot take down the whole family run.
func (o *Optimizer) runTask(family strategy.Family, p strategy.Params, resultMu *sync.Mutex, results *[]Result, seen map[string]bool) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error().
				Str("strategy", string(family)).
				Interface("panic", r).
				Msg("Backtest task panicked")
		}
	}()

	paramsStr, err := p.CanonicalString()
	if err != nil {
		o.log.Error().Err(err).Str("strategy", string(family)).Msg("Failed to render params")
		return
	}

	dir, err := strategy.Generate(p, o.series.Closes, o.series.Highs, o.series.Lows, o.cache)
	if err != nil {
		o.log.Error().Err(err).Str("params", paramsStr).Msg("Signal generation failed")
		return
	}

	trades := Simulate(dir, o.series.Opens, o.series.Highs, o.series.Lows, o.series.Closes, SimConfig{
		UseSL:      p.Common.UseSL,
		UseTP:      p.Common.UseTP,
		Pyramiding: p.Common.Pyramiding,
		SLPercent:  p.Common.SLPercent,
		TPPercent:  p.Common.TPPercent,
	})

	result := Aggregate(trades, InitialCapital, paramsStr, string(family))

	if result.TotalTrades < o.opts.MinTrades {
		return
	}
	rate := result.WinRate
	if o.opts.ExcludeSL {
		rate = result.SLWinRate
	}
	if rate < o.opts.MinWinRate {
		return
	}

	resultMu.Lock()
	if !seen[paramsStr] {
		seen[paramsStr] = true
		*results = append(*results, result)
	}
	resultMu.Unlock()
}

// sortResults restores a total order on the concurrent results: win rate
// descending, net profit descending, then canonical string ascending so
// ties break deterministically regardless of thread count.
func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].WinRate != results[j].WinRate {
			return results[i].WinRate > results[j].WinRate
		}
		ni, nj := results[i].NetProfit, results[j].NetProfit
		if ni != nj && !(math.IsNaN(ni) || math.IsNaN(nj)) {
			return ni > nj
		}
		return results[i].ParamsStr < results[j].ParamsStr
	})
}

// Coordinator runs the grid-search driver once per selected strategy
// family, sharing one indicator cache and one bar series, and hands each
// family's ranked results to the sink. A failure in one family is logged
// and does not abort the others.
type Coordinator struct {
	series *series.Series
	cache  *indicator.Cache
	cfg    *config.OptimizerConfig
	log    zerolog.Logger
}

// NewCoordinator creates a coordinator over the loaded bar series.
func NewCoordinator(s *series.Series, cfg *config.OptimizerConfig, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		series: s,
		cache:  indicator.NewCache(),
		cfg:    cfg,
		log:    log.With().Str("component", "coordinator").Logger(),
	}
}

// Cache exposes the shared indicator cache (used by the startup
// cross-check diagnostic).
func (c *Coordinator) Cache() *indicator.Cache { return c.cache }

// Run optimizes every requested family sequentially and writes each
// family's output under the configured results directory.
func (c *Coordinator) Run(ctx context.Context) error {
	defer c.cache.Clear()

	opts := OptimizerOptions{
		SLGrid:        c.cfg.SLGrid,
		TPGrid:        c.cfg.TPGrid,
		UseSL:         c.cfg.UseSL,
		UseTP:         c.cfg.UseTP,
		Pyramiding:    c.cfg.Pyramiding,
		MinTrades:     c.cfg.MinTrades,
		MinWinRate:    c.cfg.MinWinRate,
		ExcludeSL:     c.cfg.ExcludeSL,
		Threads:       c.cfg.Threads,
		EnableMetrics: c.cfg.MetricsAddr != "",
	}
	driver := NewOptimizer(c.series, c.cache, opts, c.log)

	var failures int
	for _, name := range c.cfg.Strategies {
		family := strategy.Family(name)
		grid, ok := c.cfg.Grids[name]
		if !ok {
			c.log.Error().Str("strategy", name).Msg("No parameter grid configured, skipping")
			failures++
			continue
		}

		c.log.Info().Str("strategy", name).Msg("Optimizing strategy family")

		results, err := driver.Optimize(ctx, family, grid)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			c.log.Error().Err(err).Str("strategy", name).Msg("Optimization failed, continuing with next family")
			failures++
			continue
		}

		if err := WriteResults(c.cfg.OutputDir, family, results, c.series.Bars); err != nil {
			c.log.Error().Err(err).Str("strategy", name).Msg("Failed to write results, continuing with next family")
			failures++
		}
	}

	if failures == len(c.cfg.Strategies) && failures > 0 {
		return fmt.Errorf("backtest: all %d strategy families failed", failures)
	}
	return nil
}
