package payoff

import (
	"fmt"
)

// Params is the typed parameter set of one variant. The set of
// implementations is closed; switch on the concrete type to read it.
type Params interface {
	Variant() Variant
	Values() Values
	Narrative() string
	isParams()
}

// Protection is a capital protection barrier.
type Protection struct {
	Level float64     `json:"protectionBarrier"`
	Type  BarrierType `json:"barrierType"`
}

// Gearing is the number of reference units delivered per unit of notional
// below the barrier.
func (p Protection) Gearing() float64 {
	if p.Level <= 0 {
		return 0
	}
	return 100 / p.Level
}

type PhoenixParams struct {
	CouponRate     float64
	Protection     Protection
	Observation    BarrierObservation
	Strike         float64
	MemoryCoupon   bool
	MemoryAutocall bool
	OneStar        bool
	Reference      ReferencePerformance
}

type OrionParams struct {
	CouponRate   float64
	Protection   Protection
	UpperBarrier float64
	LowerBarrier float64
	Reference    ReferencePerformance
}

type HimalayaParams struct {
	CouponRate float64
	Strike     float64
	Floor      float64
}

type SharkParams struct {
	Strike       float64
	UpperBarrier float64
	Rebate       float64
	Floor        float64
	Observation  BarrierObservation
	Reference    ReferencePerformance
}

type ReverseConvertibleParams struct {
	CouponRate  float64
	Strike      float64
	Protection  Protection
	Observation BarrierObservation
	Reference   ReferencePerformance
}

// ReverseConvertibleBondParams pays periodic coupons on the schedule and has
// a single bond reference, so there is no basket aggregation.
type ReverseConvertibleBondParams struct {
	CouponRate  float64
	Strike      float64
	Protection  Protection
	Observation BarrierObservation
}

type ParticipationParams struct {
	Strike       float64
	Floor        float64
	UpperBarrier float64
	Rebate       float64
	Reference    ReferencePerformance
}

// GenericParams carries no structure of its own; the component graph does.
type GenericParams struct {
	Reference ReferencePerformance
}

func (PhoenixParams) Variant() Variant                { return Phoenix }
func (OrionParams) Variant() Variant                  { return Orion }
func (HimalayaParams) Variant() Variant               { return Himalaya }
func (SharkParams) Variant() Variant                  { return Shark }
func (ReverseConvertibleParams) Variant() Variant     { return ReverseConvertible }
func (ReverseConvertibleBondParams) Variant() Variant { return ReverseConvertibleBond }
func (ParticipationParams) Variant() Variant          { return Participation }
func (GenericParams) Variant() Variant                { return Generic }

func (PhoenixParams) isParams()                {}
func (OrionParams) isParams()                  {}
func (HimalayaParams) isParams()               {}
func (SharkParams) isParams()                  {}
func (ReverseConvertibleParams) isParams()     {}
func (ReverseConvertibleBondParams) isParams() {}
func (ParticipationParams) isParams()          {}
func (GenericParams) isParams()                {}

// Defaults returns the parameters of a freshly selected variant.
func Defaults(v Variant) (Params, error) {
	return Decode(v, nil)
}

// Decode builds the typed parameters of v from a bag. Keys v does not
// recognize are dropped, missing keys take their default and numbers are
// clamped into range.
func Decode(v Variant, raw Values) (Params, error) {
	if !v.Known() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, v)
	}
	n := normalize(v, raw)

	num := func(key string) float64 { return n[key].(float64) }
	flag := func(key string) bool { return n[key].(bool) }
	protection := func() Protection {
		return Protection{Level: num(KeyProtectionBarrier), Type: BarrierType(n[KeyBarrierType].(string))}
	}
	observation := func() BarrierObservation { return BarrierObservation(n[KeyBarrierObservation].(string)) }
	reference := func() ReferencePerformance { return ReferencePerformance(n[KeyReferencePerformance].(string)) }

	switch v {
	case Phoenix:
		return PhoenixParams{
			CouponRate:     num(KeyCouponRate),
			Protection:     protection(),
			Observation:    observation(),
			Strike:         num(KeyStrike),
			MemoryCoupon:   flag(KeyMemoryCoupon),
			MemoryAutocall: flag(KeyMemoryAutocall),
			OneStar:        flag(KeyOneStar),
			Reference:      reference(),
		}, nil
	case Orion:
		return OrionParams{
			CouponRate:   num(KeyCouponRate),
			Protection:   protection(),
			UpperBarrier: num(KeyUpperBarrier),
			LowerBarrier: num(KeyLowerBarrier),
			Reference:    reference(),
		}, nil
	case Himalaya:
		return HimalayaParams{
			CouponRate: num(KeyCouponRate),
			Strike:     num(KeyStrike),
			Floor:      num(KeyFloorLevel),
		}, nil
	case Shark:
		return SharkParams{
			Strike:       num(KeyStrike),
			UpperBarrier: num(KeyUpperBarrier),
			Rebate:       num(KeyRebateValue),
			Floor:        num(KeyFloorLevel),
			Observation:  observation(),
			Reference:    reference(),
		}, nil
	case ReverseConvertible:
		return ReverseConvertibleParams{
			CouponRate:  num(KeyCouponRate),
			Strike:      num(KeyStrike),
			Protection:  protection(),
			Observation: observation(),
			Reference:   reference(),
		}, nil
	case ReverseConvertibleBond:
		return ReverseConvertibleBondParams{
			CouponRate:  num(KeyCouponRate),
			Strike:      num(KeyStrike),
			Protection:  protection(),
			Observation: observation(),
		}, nil
	case Participation:
		return ParticipationParams{
			Strike:       num(KeyStrike),
			Floor:        num(KeyFloorLevel),
			UpperBarrier: num(KeyUpperBarrier),
			Rebate:       num(KeyRebateValue),
			Reference:    reference(),
		}, nil
	default:
		return GenericParams{Reference: reference()}, nil
	}
}

// Switch moves parameters to another variant. Values of keys both variants
// recognize carry over; everything else is dropped, so switching back later
// restores defaults rather than stale values.
func Switch(p Params, to Variant) (Params, error) {
	var current Values
	if p != nil {
		current = p.Values()
	}
	return Decode(to, current)
}

// Update merges changes into p and re-validates. Keys p's variant does not
// recognize are ignored.
func Update(p Params, changes Values) (Params, error) {
	merged := p.Values()
	for k, val := range changes {
		merged[k] = val
	}
	return Decode(p.Variant(), merged)
}

func (p PhoenixParams) Values() Values {
	return Values{
		KeyCouponRate:           p.CouponRate,
		KeyProtectionBarrier:    p.Protection.Level,
		KeyBarrierType:          string(p.Protection.Type),
		KeyBarrierObservation:   string(p.Observation),
		KeyStrike:               p.Strike,
		KeyMemoryCoupon:         p.MemoryCoupon,
		KeyMemoryAutocall:       p.MemoryAutocall,
		KeyOneStar:              p.OneStar,
		KeyReferencePerformance: string(p.Reference),
	}
}

func (p OrionParams) Values() Values {
	return Values{
		KeyCouponRate:           p.CouponRate,
		KeyProtectionBarrier:    p.Protection.Level,
		KeyBarrierType:          string(p.Protection.Type),
		KeyUpperBarrier:         p.UpperBarrier,
		KeyLowerBarrier:         p.LowerBarrier,
		KeyReferencePerformance: string(p.Reference),
	}
}

func (p HimalayaParams) Values() Values {
	return Values{
		KeyCouponRate: p.CouponRate,
		KeyStrike:     p.Strike,
		KeyFloorLevel: p.Floor,
	}
}

func (p SharkParams) Values() Values {
	return Values{
		KeyStrike:               p.Strike,
		KeyUpperBarrier:         p.UpperBarrier,
		KeyRebateValue:          p.Rebate,
		KeyFloorLevel:           p.Floor,
		KeyBarrierObservation:   string(p.Observation),
		KeyReferencePerformance: string(p.Reference),
	}
}

func (p ReverseConvertibleParams) Values() Values {
	return Values{
		KeyCouponRate:           p.CouponRate,
		KeyStrike:               p.Strike,
		KeyProtectionBarrier:    p.Protection.Level,
		KeyBarrierType:          string(p.Protection.Type),
		KeyBarrierObservation:   string(p.Observation),
		KeyReferencePerformance: string(p.Reference),
	}
}

func (p ReverseConvertibleBondParams) Values() Values {
	return Values{
		KeyCouponRate:         p.CouponRate,
		KeyStrike:             p.Strike,
		KeyProtectionBarrier:  p.Protection.Level,
		KeyBarrierType:        string(p.Protection.Type),
		KeyBarrierObservation: string(p.Observation),
	}
}

func (p ParticipationParams) Values() Values {
	return Values{
		KeyStrike:               p.Strike,
		KeyFloorLevel:           p.Floor,
		KeyUpperBarrier:         p.UpperBarrier,
		KeyRebateValue:          p.Rebate,
		KeyReferencePerformance: string(p.Reference),
	}
}

func (p GenericParams) Values() Values {
	return Values{KeyReferencePerformance: string(p.Reference)}
}
