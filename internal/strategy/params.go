// Package strategy defines the closed enumeration of parameterized
// trading-strategy families this optimizer evaluates, their canonical
// string/equality representation, and the per-family signal generators.
package strategy

import (
	"fmt"
	"strconv"
)

// Family names one of the eleven closed strategy variants.
type Family string

const (
	FamilyOTT        Family = "OTT"
	FamilyTOTT       Family = "TOTT"
	FamilyOTTChannel Family = "OTT_CHANNEL"
	FamilyRisotto    Family = "RISOTTO"
	FamilySott       Family = "SOTT"
	FamilyHottLott   Family = "HOTT-LOTT"
	FamilyRott       Family = "ROTT"
	FamilyFt         Family = "FT"
	FamilyRtr        Family = "RTR"
	FamilyMott       Family = "MOTT"
	FamilyBoots      Family = "BOOTS"
)

// Families lists every supported family in the order the external
// interface documents them.
var Families = []Family{
	FamilyOTT, FamilyTOTT, FamilyOTTChannel, FamilyRisotto, FamilySott,
	FamilyHottLott, FamilyRott, FamilyFt, FamilyRtr, FamilyMott, FamilyBoots,
}

// Common carries the fields every family shares: stop-loss/take-profit
// percentages and gates, and whether repeated same-direction signals
// pyramid into independent additional trades.
type Common struct {
	SLPercent  float64
	TPPercent  float64
	UseSL      bool
	UseTP      bool
	Pyramiding bool
}

// OttParams tunes the baseline OTT family.
type OttParams struct {
	SupportLength int
	OttMultiplier float64
}

// TottParams tunes TOTT, which bands the OTT trail symmetrically.
type TottParams struct {
	SupportLength  int
	OttMultiplier  float64
	BandMultiplier float64
}

// OttChannelParams tunes OTT_CHANNEL's asymmetric upper/lower bands.
type OttChannelParams struct {
	MaLength        int
	OttMultiplier   float64
	UpperMultiplier float64
	LowerMultiplier float64
	ChannelType     string // "Half Channel" or "Full Channel"
}

// RisottoParams tunes RISOTTO, which runs VIDYA/OTT over RSI rather than closes.
type RisottoParams struct {
	RsiLength     int
	SupportLength int
	OttMultiplier float64
}

// SottParams tunes SOTT, which runs VIDYA/OTT over stochastic %K.
type SottParams struct {
	StochKLength  int
	StochDLength  int
	OttMultiplier float64
}

// HottLottParams tunes HOTT-LOTT's dual rolling-extreme channels.
type HottLottParams struct {
	HlLength      int
	OttMultiplier float64
	UseSum        bool
	SumNBars      int
}

// RottParams tunes ROTT, VIDYA-of-VIDYA.
type RottParams struct {
	SupportLength int
	OttMultiplier float64
}

// FtParams tunes FT's dual-multiplier trail agreement.
type FtParams struct {
	SupportLength   int
	MajorMultiplier float64
	MinorMultiplier float64
}

// RtrParams tunes RTR's ATR-banded moving average. It has no OTT multiplier.
type RtrParams struct {
	AtrLength int
	MaLength  int
}

// MottParams tunes MOTT, OTT compared against a lagged reference bar.
type MottParams struct {
	SupportLength int
	HlLength      int
	OttMultiplier float64
	Reference     int
}

// BootsParams tunes BOOTS, VIDYA gated by Bollinger Band breach.
type BootsParams struct {
	SupportLength int
	BbLength      int
	OttMultiplier float64
}

// Params is a tagged union over every family's tunable fields. Exactly one
// of the per-family pointers is non-nil, selected by Family. This replaces
// the reference implementation's virtual-dispatch base class with a sum
// type and a set of dispatching functions, since Go has no inheritance.
type Params struct {
	Family Family
	Common Common

	OTT        *OttParams
	TOTT       *TottParams
	OTTChannel *OttChannelParams
	Risotto    *RisottoParams
	Sott       *SottParams
	HottLott   *HottLottParams
	Rott       *RottParams
	Ft         *FtParams
	Rtr        *RtrParams
	Mott       *MottParams
	Boots      *BootsParams
}

func fnum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func slTpSuffix(c Common) string {
	sl := "off"
	if c.UseSL {
		sl = fnum(c.SLPercent)
	}
	tp := "off"
	if c.UseTP {
		tp = fnum(c.TPPercent)
	}
	pyr := "off"
	if c.Pyramiding {
		pyr = "on"
	}
	return fmt.Sprintf("-SL=%s-TP=%s-Pyramiding=%s", sl, tp, pyr)
}

// CanonicalString renders the params as the fixed, family-specific
// `Strategy=NAME-Field=Val-...` form used for deduplication, output rows,
// and file names. Field order and names per family are fixed by the
// external interface; see DESIGN.md for the authoritative list.
func (p Params) CanonicalString() (string, error) {
	switch p.Family {
	case FamilyOTT:
		if p.OTT == nil {
			return "", fmt.Errorf("strategy: OTT params missing")
		}
		return fmt.Sprintf("Strategy=%s-SupportLength=%d-OTTMultiplier=%s%s",
			p.Family, p.OTT.SupportLength, fnum(p.OTT.OttMultiplier), slTpSuffix(p.Common)), nil

	case FamilyTOTT:
		if p.TOTT == nil {
			return "", fmt.Errorf("strategy: TOTT params missing")
		}
		return fmt.Sprintf("Strategy=%s-SupportLength=%d-OTTMultiplier=%s-BandMultiplier=%s%s",
			p.Family, p.TOTT.SupportLength, fnum(p.TOTT.OttMultiplier), fnum(p.TOTT.BandMultiplier), slTpSuffix(p.Common)), nil

	case FamilyOTTChannel:
		if p.OTTChannel == nil {
			return "", fmt.Errorf("strategy: OTT_CHANNEL params missing")
		}
		c := p.OTTChannel
		return fmt.Sprintf("Strategy=%s-ChannelType=%s-MALength=%d-OTTMultiplier=%s-UpperMultiplier=%s-LowerMultiplier=%s%s",
			p.Family, c.ChannelType, c.MaLength, fnum(c.OttMultiplier), fnum(c.UpperMultiplier), fnum(c.LowerMultiplier), slTpSuffix(p.Common)), nil

	case FamilyRisotto:
		if p.Risotto == nil {
			return "", fmt.Errorf("strategy: RISOTTO params missing")
		}
		r := p.Risotto
		return fmt.Sprintf("Strategy=%s-RSILength=%d-SupportLength=%d-OTTMultiplier=%s%s",
			p.Family, r.RsiLength, r.SupportLength, fnum(r.OttMultiplier), slTpSuffix(p.Common)), nil

	case FamilySott:
		if p.Sott == nil {
			return "", fmt.Errorf("strategy: SOTT params missing")
		}
		s := p.Sott
		return fmt.Sprintf("Strategy=%s-StochKLength=%d-StochDLength=%d-OTTMultiplier=%s%s",
			p.Family, s.StochKLength, s.StochDLength, fnum(s.OttMultiplier), slTpSuffix(p.Common)), nil

	case FamilyHottLott:
		if p.HottLott == nil {
			return "", fmt.Errorf("strategy: HOTT-LOTT params missing")
		}
		h := p.HottLott
		useSum := "off"
		if h.UseSum {
			useSum = "on"
		}
		s := fmt.Sprintf("Strategy=%s-HLLength=%d-OTTMultiplier=%s-UseSumNBars=%s",
			p.Family, h.HlLength, fnum(h.OttMultiplier), useSum)
		if h.UseSum {
			s += fmt.Sprintf("-SumNBars=%d", h.SumNBars)
		}
		return s + slTpSuffix(p.Common), nil

	case FamilyRott:
		if p.Rott == nil {
			return "", fmt.Errorf("strategy: ROTT params missing")
		}
		return fmt.Sprintf("Strategy=%s-SupportLength=%d-OTTMultiplier=%s%s",
			p.Family, p.Rott.SupportLength, fnum(p.Rott.OttMultiplier), slTpSuffix(p.Common)), nil

	case FamilyFt:
		if p.Ft == nil {
			return "", fmt.Errorf("strategy: FT params missing")
		}
		f := p.Ft
		return fmt.Sprintf("Strategy=%s-SupportLength=%d-MajorOTTMultiplier=%s-MinorOTTMultiplier=%s%s",
			p.Family, f.SupportLength, fnum(f.MajorMultiplier), fnum(f.MinorMultiplier), slTpSuffix(p.Common)), nil

	case FamilyRtr:
		if p.Rtr == nil {
			return "", fmt.Errorf("strategy: RTR params missing")
		}
		return fmt.Sprintf("Strategy=%s-ATRLength=%d-MALength=%d%s",
			p.Family, p.Rtr.AtrLength, p.Rtr.MaLength, slTpSuffix(p.Common)), nil

	case FamilyMott:
		if p.Mott == nil {
			return "", fmt.Errorf("strategy: MOTT params missing")
		}
		m := p.Mott
		return fmt.Sprintf("Strategy=%s-SupportLength=%d-HLLength=%d-OTTMultiplier=%s-Reference=%d%s",
			p.Family, m.SupportLength, m.HlLength, fnum(m.OttMultiplier), m.Reference, slTpSuffix(p.Common)), nil

	case FamilyBoots:
		if p.Boots == nil {
			return "", fmt.Errorf("strategy: BOOTS params missing")
		}
		b := p.Boots
		return fmt.Sprintf("Strategy=%s-SupportLength=%d-BBLength=%d-OTTMultiplier=%s%s",
			p.Family, b.SupportLength, b.BbLength, fnum(b.OttMultiplier), slTpSuffix(p.Common)), nil

	default:
		return "", fmt.Errorf("strategy: unknown family %q", p.Family)
	}
}

// Equal reports whether two Params instances are interchangeable for
// deduplication purposes. Equality is derived entirely from the canonical
// string, since that string already uniquely determines every field —
// there is no need to reimplement the reference prototype's hand-rolled
// hash_combine.
func Equal(a, b Params) bool {
	as, aerr := a.CanonicalString()
	bs, berr := b.CanonicalString()
	if aerr != nil || berr != nil {
		return false
	}
	return as == bs
}

// FieldOrder lists, in grid-enumeration order, the family-specific tunable
// field names for a family (excluding the shared SL/TP/pyramiding axes,
// which the driver enumerates separately).
func FieldOrder(f Family) []string {
	switch f {
	case FamilyOTT:
		return []string{"support_length", "ott_multiplier"}
	case FamilyTOTT:
		return []string{"support_length", "ott_multiplier", "band_multiplier"}
	case FamilyOTTChannel:
		return []string{"ma_length", "ott_multiplier", "upper_multiplier", "lower_multiplier", "channel_type"}
	case FamilyRisotto:
		return []string{"rsi_length", "support_length", "ott_multiplier"}
	case FamilySott:
		return []string{"stoch_k_length", "stoch_d_length", "ott_multiplier"}
	case FamilyHottLott:
		return []string{"hl_length", "ott_multiplier", "use_sum", "sum_n_bars"}
	case FamilyRott:
		return []string{"support_length", "ott_multiplier"}
	case FamilyFt:
		return []string{"support_length", "major_multiplier", "minor_multiplier"}
	case FamilyRtr:
		return []string{"atr_length", "ma_length"}
	case FamilyMott:
		return []string{"support_length", "hl_length", "ott_multiplier", "reference"}
	case FamilyBoots:
		return []string{"support_length", "bb_length", "ott_multiplier"}
	default:
		return nil
	}
}

func asInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("strategy: expected int, got %T", v)
	}
}

func asFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("strategy: expected float64, got %T", v)
	}
}

func asBool(v interface{}) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("strategy: expected bool, got %T", v)
	}
	return b, nil
}

func asString(v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("strategy: expected string, got %T", v)
	}
	return s, nil
}

// Build constructs a Params for the given family from a field-name →
// grid-value map (as produced by enumerating the Cartesian product of a
// ParameterGrid) plus the shared SL/TP/pyramiding settings.
func Build(f Family, common Common, values map[string]interface{}) (Params, error) {
	p := Params{Family: f, Common: common}

	get := func(name string) interface{} { return values[name] }

	switch f {
	case FamilyOTT:
		sl, err := asInt(get("support_length"))
		if err != nil {
			return p, err
		}
		m, err := asFloat(get("ott_multiplier"))
		if err != nil {
			return p, err
		}
		p.OTT = &OttParams{SupportLength: sl, OttMultiplier: m}

	case FamilyTOTT:
		sl, err := asInt(get("support_length"))
		if err != nil {
			return p, err
		}
		m, err := asFloat(get("ott_multiplier"))
		if err != nil {
			return p, err
		}
		bm, err := asFloat(get("band_multiplier"))
		if err != nil {
			return p, err
		}
		p.TOTT = &TottParams{SupportLength: sl, OttMultiplier: m, BandMultiplier: bm}

	case FamilyOTTChannel:
		ma, err := asInt(get("ma_length"))
		if err != nil {
			return p, err
		}
		m, err := asFloat(get("ott_multiplier"))
		if err != nil {
			return p, err
		}
		um, err := asFloat(get("upper_multiplier"))
		if err != nil {
			return p, err
		}
		lm, err := asFloat(get("lower_multiplier"))
		if err != nil {
			return p, err
		}
		ct, err := asString(get("channel_type"))
		if err != nil {
			return p, err
		}
		p.OTTChannel = &OttChannelParams{MaLength: ma, OttMultiplier: m, UpperMultiplier: um, LowerMultiplier: lm, ChannelType: ct}

	case FamilyRisotto:
		rl, err := asInt(get("rsi_length"))
		if err != nil {
			return p, err
		}
		sl, err := asInt(get("support_length"))
		if err != nil {
			return p, err
		}
		m, err := asFloat(get("ott_multiplier"))
		if err != nil {
			return p, err
		}
		p.Risotto = &RisottoParams{RsiLength: rl, SupportLength: sl, OttMultiplier: m}

	case FamilySott:
		kl, err := asInt(get("stoch_k_length"))
		if err != nil {
			return p, err
		}
		dl, err := asInt(get("stoch_d_length"))
		if err != nil {
			return p, err
		}
		m, err := asFloat(get("ott_multiplier"))
		if err != nil {
			return p, err
		}
		p.Sott = &SottParams{StochKLength: kl, StochDLength: dl, OttMultiplier: m}

	case FamilyHottLott:
		hl, err := asInt(get("hl_length"))
		if err != nil {
			return p, err
		}
		m, err := asFloat(get("ott_multiplier"))
		if err != nil {
			return p, err
		}
		useSum, err := asBool(get("use_sum"))
		if err != nil {
			return p, err
		}
		sumN := 3
		if useSum {
			sumN, err = asInt(get("sum_n_bars"))
			if err != nil {
				return p, err
			}
		}
		p.HottLott = &HottLottParams{HlLength: hl, OttMultiplier: m, UseSum: useSum, SumNBars: sumN}

	case FamilyRott:
		sl, err := asInt(get("support_length"))
		if err != nil {
			return p, err
		}
		m, err := asFloat(get("ott_multiplier"))
		if err != nil {
			return p, err
		}
		p.Rott = &RottParams{SupportLength: sl, OttMultiplier: m}

	case FamilyFt:
		sl, err := asInt(get("support_length"))
		if err != nil {
			return p, err
		}
		maj, err := asFloat(get("major_multiplier"))
		if err != nil {
			return p, err
		}
		min, err := asFloat(get("minor_multiplier"))
		if err != nil {
			return p, err
		}
		p.Ft = &FtParams{SupportLength: sl, MajorMultiplier: maj, MinorMultiplier: min}

	case FamilyRtr:
		al, err := asInt(get("atr_length"))
		if err != nil {
			return p, err
		}
		ml, err := asInt(get("ma_length"))
		if err != nil {
			return p, err
		}
		p.Rtr = &RtrParams{AtrLength: al, MaLength: ml}

	case FamilyMott:
		sl, err := asInt(get("support_length"))
		if err != nil {
			return p, err
		}
		hl, err := asInt(get("hl_length"))
		if err != nil {
			return p, err
		}
		m, err := asFloat(get("ott_multiplier"))
		if err != nil {
			return p, err
		}
		ref, err := asInt(get("reference"))
		if err != nil {
			return p, err
		}
		p.Mott = &MottParams{SupportLength: sl, HlLength: hl, OttMultiplier: m, Reference: ref}

	case FamilyBoots:
		sl, err := asInt(get("support_length"))
		if err != nil {
			return p, err
		}
		bb, err := asInt(get("bb_length"))
		if err != nil {
			return p, err
		}
		m, err := asFloat(get("ott_multiplier"))
		if err != nil {
			return p, err
		}
		p.Boots = &BootsParams{SupportLength: sl, BbLength: bb, OttMultiplier: m}

	default:
		return p, fmt.Errorf("strategy: unknown family %q", f)
	}

	return p, nil
}
