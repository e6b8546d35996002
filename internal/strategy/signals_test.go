package strategy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/gridott/internal/indicator"
)

// syntheticSeries builds an oscillating price path long enough for every
// family's warm-up.
func syntheticSeries(n int) (closes, highs, lows []float64) {
	closes = make([]float64, n)
	highs = make([]float64, n)
	lows = make([]float64, n)
	for i := 0; i < n; i++ {
		closes[i] = 100 + 15*math.Sin(float64(i)/8) + 0.05*float64(i)
		highs[i] = closes[i] + 1
		lows[i] = closes[i] - 1
	}
	return
}

func TestGenerate_OTT_WarmupThenLong(t *testing.T) {
	cache := indicator.NewCache()
	closes := []float64{10, 11, 12, 13, 12, 11, 10, 11, 12, 13}
	highs := make([]float64, len(closes))
	lows := make([]float64, len(closes))
	copy(highs, closes)
	copy(lows, closes)

	p := Params{Family: FamilyOTT, OTT: &OttParams{SupportLength: 3, OttMultiplier: 1.0}}
	dir, err := Generate(p, closes, highs, lows, cache)
	require.NoError(t, err)
	require.Len(t, dir, len(closes))

	// Warm-up: the trail is 0 for the first two bars.
	assert.Equal(t, 0, dir[0])
	assert.Equal(t, 0, dir[1])

	// The basis stays at 10 until the 9-bar efficiency window fills, and
	// the trail settles below it, so the side is long once the trail is set.
	assert.Equal(t, 1, dir[3])
	assert.Equal(t, 1, dir[4])
}

func TestGenerate_OTT_SustainedDeclineGoesShort(t *testing.T) {
	cache := indicator.NewCache()
	n := 60
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		if i < 30 {
			closes[i] = 100 + float64(i)
		} else {
			closes[i] = 130 - 2*float64(i-30)
		}
	}
	highs := make([]float64, n)
	lows := make([]float64, n)
	copy(highs, closes)
	copy(lows, closes)

	p := Params{Family: FamilyOTT, OTT: &OttParams{SupportLength: 3, OttMultiplier: 1.0}}
	dir, err := Generate(p, closes, highs, lows, cache)
	require.NoError(t, err)

	// Long during the rise, short once the decline drags the basis below
	// the ratcheted trail.
	assert.Equal(t, 1, dir[25])
	assert.Equal(t, -1, dir[n-1], "dir=%v", dir)
}

func TestGenerate_WarmupStaysFlat(t *testing.T) {
	cache := indicator.NewCache()
	closes, highs, lows := syntheticSeries(120)

	for _, p := range []Params{
		{Family: FamilyOTT, OTT: &OttParams{SupportLength: 10, OttMultiplier: 1.0}},
		{Family: FamilyRtr, Rtr: &RtrParams{AtrLength: 10, MaLength: 20}},
		{Family: FamilyBoots, Boots: &BootsParams{SupportLength: 10, BbLength: 20, OttMultiplier: 1.0}},
	} {
		dir, err := Generate(p, closes, highs, lows, cache)
		require.NoError(t, err)
		assert.Equal(t, 0, dir[0], "family %s", p.Family)
		assert.Equal(t, 0, dir[1], "family %s", p.Family)
	}
}

func TestGenerate_AllFamiliesProduceValidDirections(t *testing.T) {
	cache := indicator.NewCache()
	closes, highs, lows := syntheticSeries(300)

	common := Common{SLPercent: 1, TPPercent: 0.5, UseSL: true, UseTP: true}
	values := map[string]interface{}{
		"support_length": 10, "ott_multiplier": 0.7, "band_multiplier": 0.0005,
		"ma_length": 10, "upper_multiplier": 0.2, "lower_multiplier": 0.3,
		"channel_type": "Full Channel", "rsi_length": 8, "stoch_k_length": 20,
		"stoch_d_length": 10, "hl_length": 10, "use_sum": false, "sum_n_bars": 3,
		"major_multiplier": 1.1, "minor_multiplier": 0.5, "atr_length": 10,
		"reference": 5, "bb_length": 10,
	}

	for _, f := range Families {
		p, err := Build(f, common, values)
		require.NoError(t, err, "family %s", f)

		dir, err := Generate(p, closes, highs, lows, cache)
		require.NoError(t, err, "family %s", f)
		require.Len(t, dir, len(closes), "family %s", f)

		nonZero := 0
		for i, d := range dir {
			assert.Contains(t, []int{-1, 0, 1}, d, "family %s index %d", f, i)
			if d != 0 {
				nonZero++
			}
		}
		assert.Greater(t, nonZero, 0, "family %s produced no signals", f)
	}
}

func TestGenerate_HottLottSumRequiresConsecutiveBars(t *testing.T) {
	closes, highs, lows := syntheticSeries(200)

	plain, err := Generate(Params{
		Family:   FamilyHottLott,
		HottLott: &HottLottParams{HlLength: 5, OttMultiplier: 0.5, UseSum: false, SumNBars: 3},
	}, closes, highs, lows, indicator.NewCache())
	require.NoError(t, err)

	gated, err := Generate(Params{
		Family:   FamilyHottLott,
		HottLott: &HottLottParams{HlLength: 5, OttMultiplier: 0.5, UseSum: true, SumNBars: 4},
	}, closes, highs, lows, indicator.NewCache())
	require.NoError(t, err)

	// The gated variant can never flip earlier than the plain one.
	firstNonZero := func(dir []int) int {
		for i, d := range dir {
			if d != 0 {
				return i
			}
		}
		return len(dir)
	}
	assert.GreaterOrEqual(t, firstNonZero(gated), firstNonZero(plain))
}

func TestGenerate_MottReferenceZeroMatchesUnlagged(t *testing.T) {
	cache := indicator.NewCache()
	closes, highs, lows := syntheticSeries(150)

	base := Params{Family: FamilyMott, Mott: &MottParams{SupportLength: 10, HlLength: 5, OttMultiplier: 0.7, Reference: 0}}
	lagged := Params{Family: FamilyMott, Mott: &MottParams{SupportLength: 10, HlLength: 5, OttMultiplier: 0.7, Reference: 10}}

	dirBase, err := Generate(base, closes, highs, lows, cache)
	require.NoError(t, err)
	dirLagged, err := Generate(lagged, closes, highs, lows, cache)
	require.NoError(t, err)

	assert.NotEqual(t, dirBase, dirLagged)
	// Reference bars at the start cannot be compared and stay flat.
	for i := 0; i < 10; i++ {
		assert.Equal(t, 0, dirLagged[i], "index %d", i)
	}
}

func TestGenerate_UnknownFamilyErrors(t *testing.T) {
	_, err := Generate(Params{Family: Family("NOPE")}, nil, nil, nil, indicator.NewCache())
	assert.Error(t, err)
}

func TestGenerate_MissingVariantErrors(t *testing.T) {
	closes, highs, lows := syntheticSeries(50)
	_, err := Generate(Params{Family: FamilyOTT}, closes, highs, lows, indicator.NewCache())
	assert.Error(t, err)
}
