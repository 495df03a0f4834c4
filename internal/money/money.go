// Package money holds the pure pricing arithmetic shared by quotes and
// invoices. Nothing here touches the database or validates input: callers
// are expected to have rejected bad quantities, prices and rates already.
package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// PermittedTVARates are the only tax rates accepted on a line (French
// reduced and standard VAT, expressed in percent).
var PermittedTVARates = []decimal.Decimal{
	decimal.NewFromInt(10),
	decimal.NewFromInt(20),
}

// PermittedRate reports whether rate is one of the allowed VAT rates.
func PermittedRate(rate decimal.Decimal) bool {
	for _, r := range PermittedTVARates {
		if rate.Equal(r) {
			return true
		}
	}
	return false
}

// Line is the pricing view of a line item.
type Line struct {
	Quantite     decimal.Decimal
	PrixUnitaire decimal.Decimal
	TauxTVA      decimal.Decimal
}

// Totals are the three aggregate figures of a document.
type Totals struct {
	HT  decimal.Decimal
	TVA decimal.Decimal
	TTC decimal.Decimal
}

// LineAmount returns the pre-tax amount of a line, quantity × unit price,
// kept at full precision.
func LineAmount(quantite, prixUnitaire decimal.Decimal) decimal.Decimal {
	return quantite.Mul(prixUnitaire)
}

// LineTax returns the tax owed on a pre-tax line amount at the given
// percent rate.
func LineTax(montantHT, tauxTVA decimal.Decimal) decimal.Decimal {
	return montantHT.Mul(tauxTVA).Div(hundred)
}

// DocumentTotals folds a line set into the document aggregates:
// HT = Σ line amounts, TVA = Σ line taxes, TTC = HT + TVA.
func DocumentTotals(lines []Line) Totals {
	ht := decimal.Zero
	tva := decimal.Zero
	for _, l := range lines {
		amount := LineAmount(l.Quantite, l.PrixUnitaire)
		ht = ht.Add(amount)
		tva = tva.Add(LineTax(amount, l.TauxTVA))
	}
	return Totals{HT: ht, TVA: tva, TTC: ht.Add(tva)}
}
