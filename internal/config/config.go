package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ParameterGrid holds the admissible values for each tunable field of one
// strategy family, keyed by field name (e.g. "support_length", "ott_multiplier").
type ParameterGrid map[string][]interface{}

// OptimizerConfig is the fully assembled configuration for a grid-search run,
// layered from built-in defaults, an optional YAML file, environment
// variables (GRIDOPT_ prefix), and CLI flags, in ascending priority.
type OptimizerConfig struct {
	Strategies  []string                 `mapstructure:"strategies"`
	Threads     int                      `mapstructure:"threads"`
	MinTrades   int                      `mapstructure:"min_trades"`
	MinWinRate  float64                  `mapstructure:"min_winrate"`
	UseSL       bool                     `mapstructure:"use_sl"`
	UseTP       bool                     `mapstructure:"use_tp"`
	Pyramiding  bool                     `mapstructure:"pyramiding"`
	ExcludeSL   bool                     `mapstructure:"exclude_sl"`
	OutputDir   string                   `mapstructure:"output_dir"`
	MetricsAddr string                   `mapstructure:"metrics_addr"`
	SLGrid      []float64                `mapstructure:"sl_grid"`
	TPGrid      []float64                `mapstructure:"tp_grid"`
	Grids       map[string]ParameterGrid `mapstructure:"grids"`
}

// Load assembles an OptimizerConfig from built-in defaults, an optional YAML
// file (explicit path, or ./optimizer.yaml / ./configs/optimizer.yaml if
// present), and GRIDOPT_-prefixed environment variables. CLI flags are
// layered on top by the caller after Load returns, since flag.FlagSet
// parsing happens independently of viper in this codebase.
func Load(configPath string) (*OptimizerConfig, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("optimizer")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("GRIDOPT")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg OptimizerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Grids = canonicalizeGrids(cfg.Grids)

	return &cfg, nil
}

// canonicalFamilies maps the lowercase family keys viper produces back to
// the canonical names the rest of the system (and --strategies) uses.
var canonicalFamilies = map[string]string{
	"ott": "OTT", "tott": "TOTT", "ott_channel": "OTT_CHANNEL",
	"risotto": "RISOTTO", "sott": "SOTT", "hott-lott": "HOTT-LOTT",
	"rott": "ROTT", "ft": "FT", "rtr": "RTR", "mott": "MOTT", "boots": "BOOTS",
}

// canonicalizeGrids restores canonical family names on the grid map;
// viper lowercases every map key during unmarshalling.
func canonicalizeGrids(grids map[string]ParameterGrid) map[string]ParameterGrid {
	out := make(map[string]ParameterGrid, len(grids))
	for k, g := range grids {
		if canon, ok := canonicalFamilies[strings.ToLower(k)]; ok {
			out[canon] = g
		} else {
			out[k] = g
		}
	}
	return out
}

// setDefaults installs the built-in defaults: the family grids and SL/TP
// grids fixed by the external contract, plus the driver/filter thresholds.
func setDefaults(v *viper.Viper) {
	v.SetDefault("strategies", []string{"OTT"})
	v.SetDefault("threads", 0) // 0 means runtime.NumCPU() at startup
	v.SetDefault("min_trades", 5)
	v.SetDefault("min_winrate", 55.0)
	v.SetDefault("use_sl", true)
	v.SetDefault("use_tp", true)
	v.SetDefault("pyramiding", false)
	v.SetDefault("exclude_sl", false)
	v.SetDefault("output_dir", "results")
	v.SetDefault("metrics_addr", "")

	v.SetDefault("sl_grid", []float64{0.5, 1.0, 1.5, 2.0, 2.5, 3.0})
	v.SetDefault("tp_grid", []float64{0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0})

	v.SetDefault("grids.OTT.support_length", []interface{}{10, 20, 30, 40, 50})
	v.SetDefault("grids.OTT.ott_multiplier", []interface{}{0.5, 0.7, 0.9, 1.1, 1.3, 1.5})

	v.SetDefault("grids.TOTT.support_length", []interface{}{20, 30, 40, 50})
	v.SetDefault("grids.TOTT.ott_multiplier", []interface{}{0.3, 0.4, 0.5, 0.6})
	v.SetDefault("grids.TOTT.band_multiplier", []interface{}{0.0004, 0.0005, 0.0006})

	v.SetDefault("grids.OTT_CHANNEL.ma_length", []interface{}{10, 20, 30, 40, 50})
	v.SetDefault("grids.OTT_CHANNEL.ott_multiplier", []interface{}{0.3, 0.5, 0.7, 0.9})
	v.SetDefault("grids.OTT_CHANNEL.upper_multiplier", []interface{}{0.1, 0.2, 0.3, 0.4, 0.5})
	v.SetDefault("grids.OTT_CHANNEL.lower_multiplier", []interface{}{0.1, 0.2, 0.3, 0.4, 0.5})
	v.SetDefault("grids.OTT_CHANNEL.channel_type", []interface{}{"Half Channel", "Full Channel"})

	v.SetDefault("grids.RISOTTO.rsi_length", []interface{}{8, 12, 16, 20, 24})
	v.SetDefault("grids.RISOTTO.support_length", []interface{}{10, 20, 30, 40, 50})
	v.SetDefault("grids.RISOTTO.ott_multiplier", []interface{}{0.5, 0.7, 0.9, 1.1, 1.3, 1.5})

	v.SetDefault("grids.SOTT.stoch_k_length", []interface{}{200, 300, 400, 500})
	v.SetDefault("grids.SOTT.stoch_d_length", []interface{}{100, 150, 200})
	v.SetDefault("grids.SOTT.ott_multiplier", []interface{}{0.5, 0.6, 0.7, 0.8, 0.9, 1.0})

	v.SetDefault("grids.HOTT-LOTT.hl_length", []interface{}{5, 10, 15, 20, 25, 30})
	v.SetDefault("grids.HOTT-LOTT.ott_multiplier", []interface{}{0.5, 0.7, 0.9, 1.1, 1.3, 1.5})
	v.SetDefault("grids.HOTT-LOTT.use_sum", []interface{}{false, true})
	v.SetDefault("grids.HOTT-LOTT.sum_n_bars", []interface{}{2, 3, 4, 5})

	v.SetDefault("grids.ROTT.support_length", []interface{}{10, 15, 20, 25, 30, 35, 40, 45, 50})
	v.SetDefault("grids.ROTT.ott_multiplier", []interface{}{0.5, 0.7, 0.9, 1.1, 1.3, 1.5})

	v.SetDefault("grids.FT.support_length", []interface{}{10, 20, 30, 40, 50})
	v.SetDefault("grids.FT.major_multiplier", []interface{}{0.5, 0.7, 0.9, 1.1, 1.3, 1.5})
	v.SetDefault("grids.FT.minor_multiplier", []interface{}{0.1, 0.3, 0.5, 0.7, 0.9})

	v.SetDefault("grids.RTR.atr_length", []interface{}{5, 10, 15, 20, 25, 30})
	v.SetDefault("grids.RTR.ma_length", []interface{}{10, 15, 20, 25, 30, 35, 40, 45, 50})

	v.SetDefault("grids.MOTT.support_length", []interface{}{10, 20, 30, 40, 50})
	v.SetDefault("grids.MOTT.hl_length", []interface{}{5, 10, 15, 20, 25, 30})
	v.SetDefault("grids.MOTT.ott_multiplier", []interface{}{0.5, 0.7, 0.9, 1.1, 1.3, 1.5})
	v.SetDefault("grids.MOTT.reference", []interface{}{0, 5, 10, 15})

	v.SetDefault("grids.BOOTS.support_length", []interface{}{10, 20, 30, 40, 50})
	v.SetDefault("grids.BOOTS.bb_length", []interface{}{10, 20, 30, 40, 50})
	v.SetDefault("grids.BOOTS.ott_multiplier", []interface{}{0.5, 0.7, 0.9, 1.1, 1.3, 1.5})
}
