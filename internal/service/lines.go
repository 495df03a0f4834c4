package service

import (
	"fmt"

	"backend/internal/model"
	"backend/internal/money"

	"github.com/shopspring/decimal"
)

// LineInput is the shared wire shape of a quote or invoice line.
type LineInput struct {
	Description  string          `json:"description"`
	Quantite     decimal.Decimal `json:"quantite"`
	Unite        string          `json:"unite"`
	PrixUnitaire decimal.Decimal `json:"prix_unitaire"`
	TauxTVA      decimal.Decimal `json:"taux_tva"`
}

// validateLines rejects an empty line set and any individually invalid line.
// The money package itself trusts its inputs; this is the gate in front of it.
func validateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: au moins une ligne requise", ErrValidation)
	}
	for i, l := range lines {
		if l.Description == "" {
			return fmt.Errorf("%w: ligne %d: description requise", ErrValidation, i+1)
		}
		if !l.Quantite.IsPositive() {
			return fmt.Errorf("%w: ligne %d: quantite doit etre positive", ErrValidation, i+1)
		}
		if !model.ValidUnit(l.Unite) {
			return fmt.Errorf("%w: ligne %d: unite inconnue %q", ErrValidation, i+1, l.Unite)
		}
		if l.PrixUnitaire.IsNegative() {
			return fmt.Errorf("%w: ligne %d: prix unitaire negatif", ErrValidation, i+1)
		}
		if !money.PermittedRate(l.TauxTVA) {
			return fmt.Errorf("%w: ligne %d: taux TVA %s non autorise", ErrValidation, i+1, l.TauxTVA)
		}
	}
	return nil
}

// pricedLines projects inputs into the calculator's shape.
func pricedLines(lines []LineInput) []money.Line {
	out := make([]money.Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, money.Line{
			Quantite:     l.Quantite,
			PrixUnitaire: l.PrixUnitaire,
			TauxTVA:      l.TauxTVA,
		})
	}
	return out
}
