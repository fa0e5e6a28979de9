package payoff

import (
	"math"

	"github.com/aristath/structura/internal/modules/schedule"
)

// Parameter keys.
const (
	KeyCouponRate           = "couponRate"
	KeyProtectionBarrier    = "protectionBarrier"
	KeyBarrierType          = "barrierType"
	KeyBarrierObservation   = "barrierObservation"
	KeyStrike               = "strike"
	KeyMemoryCoupon         = "memoryCoupon"
	KeyMemoryAutocall       = "memoryAutocall"
	KeyOneStar              = "oneStar"
	KeyUpperBarrier         = "upperBarrier"
	KeyLowerBarrier         = "lowerBarrier"
	KeyRebateValue          = "rebateValue"
	KeyFloorLevel           = "floorLevel"
	KeyReferencePerformance = "referencePerformance"
)

// BarrierType says when a protection barrier breach is observed.
type BarrierType string

const (
	American BarrierType = "american" // any time during the life of the product
	European BarrierType = "european" // at final observation only
)

// BarrierObservation is the monitoring frequency of an American barrier.
type BarrierObservation string

const (
	AtMaturity BarrierObservation = "at_maturity"
	DailyClose BarrierObservation = "daily_close"
	Continuous BarrierObservation = "continuous"
)

// ReferencePerformance aggregates a basket into one performance figure.
type ReferencePerformance string

const (
	WorstOf ReferencePerformance = "worst_of"
	BestOf  ReferencePerformance = "best_of"
	Average ReferencePerformance = "average"
)

// Kind is the value type of a parameter.
type Kind string

const (
	KindNumber Kind = "number"
	KindBool   Kind = "bool"
	KindEnum   Kind = "enum"
)

// KeySpec declares one parameter: its type, default and valid range.
type KeySpec struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Kind    Kind     `json:"kind"`
	Default any      `json:"default"`
	Min     float64  `json:"min,omitempty"`
	Max     float64  `json:"max,omitempty"`
	Options []string `json:"options,omitempty"`
}

var specs = map[string]KeySpec{
	KeyCouponRate:        {Key: KeyCouponRate, Label: "Coupon rate (% p.a.)", Kind: KindNumber, Default: 8.0, Min: 0, Max: 100},
	KeyProtectionBarrier: {Key: KeyProtectionBarrier, Label: "Protection barrier (%)", Kind: KindNumber, Default: 60.0, Min: 50, Max: 100},
	KeyBarrierType: {Key: KeyBarrierType, Label: "Barrier type", Kind: KindEnum, Default: string(European),
		Options: []string{string(American), string(European)}},
	KeyBarrierObservation: {Key: KeyBarrierObservation, Label: "Barrier observation", Kind: KindEnum, Default: string(AtMaturity),
		Options: []string{string(AtMaturity), string(DailyClose), string(Continuous)}},
	KeyStrike:         {Key: KeyStrike, Label: "Strike (%)", Kind: KindNumber, Default: 100.0, Min: 80, Max: 120},
	KeyMemoryCoupon:   {Key: KeyMemoryCoupon, Label: "Memory coupon", Kind: KindBool, Default: false},
	KeyMemoryAutocall: {Key: KeyMemoryAutocall, Label: "Memory autocall", Kind: KindBool, Default: false},
	KeyOneStar:        {Key: KeyOneStar, Label: "One star", Kind: KindBool, Default: false},
	KeyUpperBarrier:   {Key: KeyUpperBarrier, Label: "Upper barrier (%)", Kind: KindNumber, Default: 130.0, Min: 100, Max: 300},
	KeyLowerBarrier:   {Key: KeyLowerBarrier, Label: "Lower barrier (%)", Kind: KindNumber, Default: 70.0, Min: 0, Max: 100},
	KeyRebateValue:    {Key: KeyRebateValue, Label: "Rebate (%)", Kind: KindNumber, Default: 0.0, Min: 0, Max: 100},
	KeyFloorLevel:     {Key: KeyFloorLevel, Label: "Floor (%)", Kind: KindNumber, Default: 90.0, Min: 0, Max: 100},
	KeyReferencePerformance: {Key: KeyReferencePerformance, Label: "Reference performance", Kind: KindEnum, Default: string(WorstOf),
		Options: []string{string(WorstOf), string(BestOf), string(Average)}},
}

type entry struct {
	title    string
	features schedule.Features
	keys     []string
}

var catalog = map[Variant]entry{
	Phoenix: {
		title:    "Phoenix Autocallable",
		features: schedule.Features{Layout: schedule.LayoutPeriodic},
		keys: []string{KeyCouponRate, KeyProtectionBarrier, KeyBarrierType, KeyBarrierObservation, KeyStrike,
			KeyMemoryCoupon, KeyMemoryAutocall, KeyOneStar, KeyReferencePerformance},
	},
	Orion: {
		title:    "Orion Memory",
		features: schedule.Features{Layout: schedule.LayoutPeriodic},
		keys: []string{KeyCouponRate, KeyProtectionBarrier, KeyBarrierType, KeyUpperBarrier, KeyLowerBarrier,
			KeyReferencePerformance},
	},
	Himalaya: {
		title:    "Himalaya",
		features: schedule.Features{Layout: schedule.LayoutPerUnderlying},
		keys:     []string{KeyCouponRate, KeyStrike, KeyFloorLevel},
	},
	Shark: {
		title:    "Shark Note",
		features: schedule.Features{Layout: schedule.LayoutNone},
		keys: []string{KeyStrike, KeyUpperBarrier, KeyRebateValue, KeyFloorLevel, KeyBarrierObservation,
			KeyReferencePerformance},
	},
	ReverseConvertible: {
		title:    "Reverse Convertible",
		features: schedule.Features{Layout: schedule.LayoutNone},
		keys: []string{KeyCouponRate, KeyStrike, KeyProtectionBarrier, KeyBarrierType, KeyBarrierObservation,
			KeyReferencePerformance},
	},
	ReverseConvertibleBond: {
		title:    "Reverse Convertible (Bond)",
		features: schedule.Features{Layout: schedule.LayoutPeriodic},
		keys:     []string{KeyCouponRate, KeyStrike, KeyProtectionBarrier, KeyBarrierType, KeyBarrierObservation},
	},
	Participation: {
		title:    "Participation Note",
		features: schedule.Features{Layout: schedule.LayoutPeriodic, Rebates: true},
		keys:     []string{KeyStrike, KeyFloorLevel, KeyUpperBarrier, KeyRebateValue, KeyReferencePerformance},
	},
	Generic: {
		title:    "Generic Composable",
		features: schedule.Features{Layout: schedule.LayoutPeriodic},
		keys:     []string{KeyReferencePerformance},
	},
}

// normalize keeps only the keys v recognizes, filling defaults and clamping
// numbers into range. Enum values outside the options fall back to the default.
func normalize(v Variant, raw Values) Values {
	out := make(Values, len(catalog[v].keys))
	for _, key := range catalog[v].keys {
		spec := specs[key]
		switch spec.Kind {
		case KindNumber:
			n, ok := raw.Number(key)
			if !ok || math.IsNaN(n) {
				n = spec.Default.(float64)
			}
			out[key] = math.Min(math.Max(n, spec.Min), spec.Max)
		case KindBool:
			b, ok := raw.Bool(key)
			if !ok {
				b = spec.Default.(bool)
			}
			out[key] = b
		case KindEnum:
			s, ok := raw.String(key)
			if !ok || !contains(spec.Options, s) {
				s = spec.Default.(string)
			}
			out[key] = s
		}
	}
	return out
}

func contains(options []string, s string) bool {
	for _, o := range options {
		if o == s {
			return true
		}
	}
	return false
}
