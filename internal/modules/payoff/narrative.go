package payoff

import (
	"fmt"
	"strings"
)

func (p PhoenixParams) Narrative() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pays a conditional coupon of %s%% p.a. on each observation where the %s performance is at or above the coupon barrier", num(p.CouponRate), p.Reference.label())
	if p.MemoryCoupon {
		b.WriteString(", with missed coupons remembered and paid later")
	}
	b.WriteString(". Redeems early at par once the autocall level is reached on a callable observation")
	if p.MemoryAutocall {
		b.WriteString(" (each underlying only needs to have touched its level once)")
	}
	if p.OneStar {
		b.WriteString("; one underlying above its initial level is enough to call")
	}
	fmt.Fprintf(&b, ". At maturity capital is protected down to a %s%% %s barrier; below it the investor takes a loss with gearing %s.",
		num(p.Protection.Level), p.Protection.Type, num(p.Protection.Gearing()))
	return b.String()
}

func (p OrionParams) Narrative() string {
	return fmt.Sprintf("Memory coupon of %s%% p.a. paid on each observation where the %s performance lies between %s%% and %s%%; "+
		"missed coupons are paid once the range is hit again. Capital is protected down to a %s%% %s barrier.",
		num(p.CouponRate), p.Reference.label(), num(p.LowerBarrier), num(p.UpperBarrier), num(p.Protection.Level), p.Protection.Type)
}

func (p HimalayaParams) Narrative() string {
	return fmt.Sprintf("On each observation the best performing underlying is locked in and removed from the basket. "+
		"At maturity pays the average of the locked performances above a %s%% strike, with a floor of %s%%, plus %s%% p.a.",
		num(p.Strike), num(p.Floor), num(p.CouponRate))
}

func (p SharkParams) Narrative() string {
	return fmt.Sprintf("Participates in the %s performance above a %s%% strike up to a %s%% knock-out level (%s). "+
		"If the knock-out level is breached the note pays a fixed %s%% rebate instead. Redemption is floored at %s%%.",
		p.Reference.label(), num(p.Strike), num(p.UpperBarrier), p.Observation.label(), num(p.Rebate), num(p.Floor))
}

func (p ReverseConvertibleParams) Narrative() string {
	return fmt.Sprintf("Pays a fixed coupon of %s%% p.a. If the %s performance ends below the %s%% %s barrier, "+
		"redemption is converted into the underlying at a %s%% strike (gearing %s); otherwise it redeems at par.",
		num(p.CouponRate), p.Reference.label(), num(p.Protection.Level), p.Protection.Type, num(p.Strike), num(p.Protection.Gearing()))
}

func (p ReverseConvertibleBondParams) Narrative() string {
	return fmt.Sprintf("Pays a fixed coupon of %s%% p.a. on each scheduled date. If the reference bond ends below the %s%% %s barrier, "+
		"the investor receives the bond at a %s%% strike instead of par.",
		num(p.CouponRate), num(p.Protection.Level), p.Protection.Type, num(p.Strike))
}

func (p ParticipationParams) Narrative() string {
	return fmt.Sprintf("Participates in the %s performance above a %s%% strike, capped at %s%% and floored at %s%%. "+
		"Scheduled rebates of up to %s%% are paid on the observation dates.",
		p.Reference.label(), num(p.Strike), num(p.UpperBarrier), num(p.Floor), num(p.Rebate))
}

func (p GenericParams) Narrative() string {
	return fmt.Sprintf("Composed from the component graph, evaluated per observation on the %s performance.", p.Reference.label())
}

func (r ReferencePerformance) label() string {
	switch r {
	case BestOf:
		return "best-of"
	case Average:
		return "average"
	default:
		return "worst-of"
	}
}

func (o BarrierObservation) label() string {
	switch o {
	case DailyClose:
		return "observed on daily closes"
	case Continuous:
		return "observed continuously"
	default:
		return "observed at maturity"
	}
}

func num(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
