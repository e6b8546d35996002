package strategy

import (
	"fmt"

	"github.com/ajitpratap0/gridott/internal/indicator"
)

// Generate produces the per-bar direction sequence for p over the given
// price vectors: dir[i] is +1 (long), -1 (short), or 0 (flat), meaning the
// strategy's side at bar i. The simulator executes a side change at the
// next bar's open. Warm-up bars where the indicators are still undefined
// stay flat. The function is pure aside from reads through the shared
// indicator cache.
func Generate(p Params, closes, highs, lows []float64, cache *indicator.Cache) ([]int, error) {
	switch p.Family {
	case FamilyOTT:
		return generateOtt(p.OTT, closes, cache)
	case FamilyTOTT:
		return generateTott(p.TOTT, closes, cache)
	case FamilyOTTChannel:
		return generateOttChannel(p.OTTChannel, closes, cache)
	case FamilyRisotto:
		return generateRisotto(p.Risotto, closes, cache)
	case FamilySott:
		return generateSott(p.Sott, closes, highs, lows, cache)
	case FamilyHottLott:
		return generateHottLott(p.HottLott, closes, cache)
	case FamilyRott:
		return generateRott(p.Rott, closes, cache)
	case FamilyFt:
		return generateFt(p.Ft, closes, cache)
	case FamilyRtr:
		return generateRtr(p.Rtr, closes, highs, lows, cache)
	case FamilyMott:
		return generateMott(p.Mott, closes, cache)
	case FamilyBoots:
		return generateBoots(p.Boots, closes, cache)
	default:
		return nil, fmt.Errorf("strategy: unknown family %q", p.Family)
	}
}

// trailSign renders the basis-vs-trail comparison shared by the OTT-style
// families: long above the trail, short below, carry while equal. Bars
// where the trail is still 0 (warm-up) stay flat.
func trailSign(basis, trail []float64) []int {
	dir := make([]int, len(basis))
	for i := range basis {
		if trail[i] == 0 {
			continue
		}
		switch {
		case basis[i] > trail[i]:
			dir[i] = 1
		case basis[i] < trail[i]:
			dir[i] = -1
		default:
			if i > 0 {
				dir[i] = dir[i-1]
			}
		}
	}
	return dir
}

func generateOtt(p *OttParams, closes []float64, cache *indicator.Cache) ([]int, error) {
	if p == nil {
		return nil, fmt.Errorf("strategy: OTT params missing")
	}
	basis := cache.Vidya(closes, p.SupportLength)
	trail := cache.OTT(basis, p.OttMultiplier)
	return trailSign(basis, trail), nil
}

func generateTott(p *TottParams, closes []float64, cache *indicator.Cache) ([]int, error) {
	if p == nil {
		return nil, fmt.Errorf("strategy: TOTT params missing")
	}
	basis := cache.Vidya(closes, p.SupportLength)
	trail := cache.OTT(basis, p.OttMultiplier)

	dir := make([]int, len(closes))
	for i := range closes {
		if trail[i] == 0 {
			continue
		}
		upper := trail[i] * (1 + p.BandMultiplier)
		lower := trail[i] * (1 - p.BandMultiplier)
		switch {
		case basis[i] > upper:
			dir[i] = 1
		case basis[i] < lower:
			dir[i] = -1
		default:
			if i > 0 {
				dir[i] = dir[i-1]
			}
		}
	}
	return dir, nil
}

func generateOttChannel(p *OttChannelParams, closes []float64, cache *indicator.Cache) ([]int, error) {
	if p == nil {
		return nil, fmt.Errorf("strategy: OTT_CHANNEL params missing")
	}
	basis := cache.Vidya(closes, p.MaLength)
	trail := cache.OTT(basis, p.OttMultiplier)

	// Half Channel places the breakout lines at half the configured
	// distance from the trail; Full Channel uses the full distance.
	scale := 1.0
	if p.ChannelType == "Half Channel" {
		scale = 0.5
	}

	dir := make([]int, len(closes))
	for i := range closes {
		if trail[i] == 0 {
			continue
		}
		upper := trail[i] * (1 + scale*p.UpperMultiplier/100)
		lower := trail[i] * (1 - scale*p.LowerMultiplier/100)
		switch {
		case closes[i] > upper:
			dir[i] = 1
		case closes[i] < lower:
			dir[i] = -1
		default:
			if i > 0 {
				dir[i] = dir[i-1]
			}
		}
	}
	return dir, nil
}

func generateRisotto(p *RisottoParams, closes []float64, cache *indicator.Cache) ([]int, error) {
	if p == nil {
		return nil, fmt.Errorf("strategy: RISOTTO params missing")
	}
	rsi := cache.RSI(closes, p.RsiLength)
	basis := cache.Vidya(rsi, p.SupportLength)
	trail := cache.OTT(basis, p.OttMultiplier)
	return trailSign(basis, trail), nil
}

func generateSott(p *SottParams, closes, highs, lows []float64, cache *indicator.Cache) ([]int, error) {
	if p == nil {
		return nil, fmt.Errorf("strategy: SOTT params missing")
	}
	stoch := cache.Stochastic(closes, highs, lows, p.StochKLength)
	basis := cache.Vidya(stoch, p.StochDLength)
	trail := cache.OTT(basis, p.OttMultiplier)
	return trailSign(basis, trail), nil
}

func generateHottLott(p *HottLottParams, closes []float64, cache *indicator.Cache) ([]int, error) {
	if p == nil {
		return nil, fmt.Errorf("strategy: HOTT-LOTT params missing")
	}
	hott := cache.OTT(cache.Vidya(cache.Highest(closes, p.HlLength), p.HlLength), p.OttMultiplier)
	lott := cache.OTT(cache.Vidya(cache.Lowest(closes, p.HlLength), p.HlLength), p.OttMultiplier)

	need := 1
	if p.UseSum {
		need = p.SumNBars
	}

	dir := make([]int, len(closes))
	longRun, shortRun := 0, 0
	for i := range closes {
		if hott[i] == 0 || lott[i] == 0 {
			continue
		}
		if closes[i] > hott[i] {
			longRun++
		} else {
			longRun = 0
		}
		if closes[i] < lott[i] {
			shortRun++
		} else {
			shortRun = 0
		}

		switch {
		case longRun >= need:
			dir[i] = 1
		case shortRun >= need:
			dir[i] = -1
		default:
			if i > 0 {
				dir[i] = dir[i-1]
			}
		}
	}
	return dir, nil
}

func generateRott(p *RottParams, closes []float64, cache *indicator.Cache) ([]int, error) {
	if p == nil {
		return nil, fmt.Errorf("strategy: ROTT params missing")
	}
	basis := cache.Vidya(cache.Vidya(closes, p.SupportLength), p.SupportLength)
	trail := cache.OTT(basis, p.OttMultiplier)
	return trailSign(basis, trail), nil
}

func generateFt(p *FtParams, closes []float64, cache *indicator.Cache) ([]int, error) {
	if p == nil {
		return nil, fmt.Errorf("strategy: FT params missing")
	}
	basis := cache.Vidya(closes, p.SupportLength)
	major := cache.OTT(basis, p.MajorMultiplier)
	minor := cache.OTT(basis, p.MinorMultiplier)

	dir := make([]int, len(closes))
	for i := range closes {
		if major[i] == 0 || minor[i] == 0 {
			continue
		}
		switch {
		case basis[i] > major[i] && basis[i] > minor[i]:
			dir[i] = 1
		case basis[i] < major[i] && basis[i] < minor[i]:
			dir[i] = -1
		default:
			if i > 0 {
				dir[i] = dir[i-1]
			}
		}
	}
	return dir, nil
}

func generateRtr(p *RtrParams, closes, highs, lows []float64, cache *indicator.Cache) ([]int, error) {
	if p == nil {
		return nil, fmt.Errorf("strategy: RTR params missing")
	}
	basis := cache.Vidya(closes, p.MaLength)
	atr := cache.ATR(highs, lows, closes, p.AtrLength)

	dir := make([]int, len(closes))
	for i := range closes {
		if atr[i] == 0 {
			continue
		}
		switch {
		case closes[i] > basis[i]+atr[i]:
			dir[i] = 1
		case closes[i] < basis[i]-atr[i]:
			dir[i] = -1
		default:
			if i > 0 {
				dir[i] = dir[i-1]
			}
		}
	}
	return dir, nil
}

func generateMott(p *MottParams, closes []float64, cache *indicator.Cache) ([]int, error) {
	if p == nil {
		return nil, fmt.Errorf("strategy: MOTT params missing")
	}
	// The basis smooths the midline of the rolling hl_length-bar extremes,
	// and each bar compares against the trail value reference bars back.
	highest := cache.Highest(closes, p.HlLength)
	lowest := cache.Lowest(closes, p.HlLength)
	mid := make([]float64, len(closes))
	for i := range closes {
		mid[i] = (highest[i] + lowest[i]) / 2
	}
	basis := cache.Vidya(mid, p.SupportLength)
	trail := cache.OTT(basis, p.OttMultiplier)

	dir := make([]int, len(closes))
	for i := range closes {
		j := i - p.Reference
		if j < 0 || trail[j] == 0 {
			continue
		}
		switch {
		case basis[i] > trail[j]:
			dir[i] = 1
		case basis[i] < trail[j]:
			dir[i] = -1
		default:
			if i > 0 {
				dir[i] = dir[i-1]
			}
		}
	}
	return dir, nil
}

func generateBoots(p *BootsParams, closes []float64, cache *indicator.Cache) ([]int, error) {
	if p == nil {
		return nil, fmt.Errorf("strategy: BOOTS params missing")
	}
	basis := cache.Vidya(closes, p.SupportLength)
	upper := cache.BBUpper(closes, p.BbLength, p.OttMultiplier)
	lower := cache.BBLower(closes, p.BbLength, p.OttMultiplier)

	dir := make([]int, len(closes))
	for i := range closes {
		if upper[i] == 0 || lower[i] == 0 {
			continue
		}
		switch {
		case closes[i] > basis[i] && closes[i] > upper[i]:
			dir[i] = 1
		case closes[i] < basis[i] && closes[i] < lower[i]:
			dir[i] = -1
		default:
			if i > 0 {
				dir[i] = dir[i-1]
			}
		}
	}
	return dir, nil
}
