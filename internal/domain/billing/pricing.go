package billing

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Prices is the price breakdown of an invoice. Amounts keep full precision;
// they are rounded to two fractional digits only when rendered.
type Prices struct {
	Subtotal  decimal.Decimal
	VAT       decimal.Decimal
	Total     decimal.Decimal
	Promotion decimal.Decimal
	Deposit   decimal.Decimal
	Final     decimal.Decimal
}

// CalculatePrices derives the breakdown of a list of line items.
// The promotion percentage applies to the VAT-inclusive total, then the
// deposit is subtracted from the promoted total. Out of range percentages
// and negative prices are used as given.
func CalculatePrices(fields []InvoiceField, promotionPct *int, deposit decimal.NullDecimal) Prices {
	var p Prices
	for _, f := range fields {
		p.Subtotal = p.Subtotal.Add(f.Price)
		p.VAT = p.VAT.Add(f.Price.Mul(decimal.NewFromInt(int64(f.VAT))).Div(hundred))
	}
	p.Total = p.Subtotal.Add(p.VAT)

	if promotionPct != nil {
		p.Promotion = p.Total.Mul(decimal.NewFromInt(int64(*promotionPct))).Div(hundred)
	}
	if deposit.Valid {
		p.Deposit = deposit.Decimal
	}
	p.Final = p.Total.Sub(p.Promotion).Sub(p.Deposit)
	return p
}

// MarshalJSON renders every amount as a number with two fractional digits
func (p Prices) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Subtotal  json.Number `json:"subtotal"`
		VAT       json.Number `json:"vat"`
		Total     json.Number `json:"total"`
		Promotion json.Number `json:"promotion"`
		Deposit   json.Number `json:"deposit"`
		Final     json.Number `json:"final"`
	}{
		Subtotal:  money(p.Subtotal),
		VAT:       money(p.VAT),
		Total:     money(p.Total),
		Promotion: money(p.Promotion),
		Deposit:   money(p.Deposit),
		Final:     money(p.Final),
	})
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}
