// Package metrics exposes optional Prometheus gauges and an HTTP endpoint
// for watching a long optimization run externally. It is a pure
// observability side-channel: nothing here influences the result set.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CompletedTasks tracks backtest tasks finished for the strategy
	// family currently being optimized.
	CompletedTasks = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gridott_completed_tasks",
		Help: "Completed backtest tasks for the running strategy family",
	}, []string{"strategy"})

	// TotalTasks tracks the total parameter combinations for the family.
	TotalTasks = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gridott_total_tasks",
		Help: "Total backtest tasks for the running strategy family",
	}, []string{"strategy"})

	// ResultsEmitted counts results that survived filtering and
	// deduplication, per family.
	ResultsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gridott_results_emitted_total",
		Help: "Results kept after filtering and deduplication",
	}, []string{"strategy"})

	// ElapsedSeconds reports wall-clock seconds spent on the family
	// currently being optimized.
	ElapsedSeconds = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gridott_elapsed_seconds",
		Help: "Elapsed seconds for the running strategy family",
	}, []string{"strategy"})
)
