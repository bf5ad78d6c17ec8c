// Package cost estimates the landed cost of primary aluminum in BRL per
// tonne from a market snapshot. This is the one place a business default is
// allowed: premiums and freight fall back to zero, but every such
// substitution is flagged in the estimate's warnings.
package cost

import (
	"fmt"

	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/market"
)

// Exchange legs selectable as the cost basis.
const (
	BasisThreeMonth = "3m"
	BasisCash       = "cash"
)

// Params are the buyer-supplied cost inputs. Nil numeric inputs default to
// zero with a warning; they are never silently assumed.
type Params struct {
	// Basis picks the exchange leg, BasisThreeMonth by default. When the
	// preferred leg is absent the other leg is used with a warning.
	Basis string
	// Regional delivery premium, USD per tonne.
	RegionalPremiumUSD *float64
	// Product (billet/extrusion) premium, USD per tonne.
	ProductPremiumUSD *float64
	// Freight to destination, USD per tonne.
	FreightUSD *float64
	// FXRateBRL overrides the snapshot's PTAX rate when set.
	FXRateBRL *float64
}

// Estimate is the landed-cost breakdown. Warnings are specific to the cost
// calculation; snapshot warnings are not repeated here.
type Estimate struct {
	BasisUsed string   `json:"basis_used"`
	BaseUSD   *float64 `json:"lme_base_usd_t"`
	TotalUSD  *float64 `json:"total_usd_t"`
	TotalBRL  *float64 `json:"total_brl_t"`
	FXRateBRL *float64 `json:"fx_brl_usd"`
	Warnings  []string `json:"warnings"`
}

// Compute builds the estimate. It never fails: missing inputs produce absent
// outputs plus warnings.
func Compute(snap *market.Snapshot, p Params) Estimate {
	est := Estimate{Warnings: []string{}}

	basis := p.Basis
	switch basis {
	case "":
		basis = BasisThreeMonth
	case BasisThreeMonth, BasisCash:
	default:
		est.Warnings = append(est.Warnings, fmt.Sprintf("cost: unknown basis %q, using %s", basis, BasisThreeMonth))
		basis = BasisThreeMonth
	}

	est.BaseUSD, est.BasisUsed = selectBase(snap, basis, &est.Warnings)
	if est.BaseUSD == nil {
		est.Warnings = append(est.Warnings, "cost: no exchange price available, cost not computed")
		return est
	}

	regional := defaulted(p.RegionalPremiumUSD, "regional premium", &est.Warnings)
	product := defaulted(p.ProductPremiumUSD, "product premium", &est.Warnings)
	freight := defaulted(p.FreightUSD, "freight", &est.Warnings)

	totalUSD := *est.BaseUSD + regional + product + freight
	est.TotalUSD = &totalUSD

	fx := p.FXRateBRL
	if fx == nil {
		fx = snap.FXRateBRL
	}
	if fx == nil {
		est.Warnings = append(est.Warnings, "cost: FX rate unavailable, BRL total not computed")
		return est
	}
	est.FXRateBRL = fx
	totalBRL := totalUSD * *fx
	est.TotalBRL = &totalBRL

	return est
}

// selectBase returns the preferred exchange leg, falling back to the other
// leg with a warning when the preferred one is absent.
func selectBase(snap *market.Snapshot, basis string, warnings *[]string) (*float64, string) {
	preferred, other := snap.ThreeMonthUSD, snap.CashUSD
	otherName := BasisCash
	if basis == BasisCash {
		preferred, other = snap.CashUSD, snap.ThreeMonthUSD
		otherName = BasisThreeMonth
	}

	if preferred != nil {
		return preferred, basis
	}
	if other != nil {
		*warnings = append(*warnings, fmt.Sprintf("cost: %s price unavailable, using %s basis", basis, otherName))
		return other, otherName
	}
	return nil, ""
}

// defaulted substitutes zero for a missing input and flags the substitution.
func defaulted(v *float64, name string, warnings *[]string) float64 {
	if v != nil {
		return *v
	}
	*warnings = append(*warnings, fmt.Sprintf("cost: %s not supplied, assuming 0", name))
	return 0
}
