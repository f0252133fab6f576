package billing

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ChartDays is the number of days covered by the daily invoice chart
const ChartDays = 14

// DayLayout is the key format of the daily chart
const DayLayout = "2006-01-02"

// Charts is the dashboard summary of a team
type Charts struct {
	Daily     map[string]int `json:"daily"`
	Invoices  InvoiceStats   `json:"invoices"`
	Prices    StatusPrices   `json:"prices"`
	Customers int64          `json:"customers"`
}

// InvoiceStats counts invoices per status
type InvoiceStats struct {
	Total    int `json:"total"`
	Waiting  int `json:"waiting"`
	Paid     int `json:"paid"`
	Canceled int `json:"canceled"`
}

// StatusPrices sums invoice amounts per status
type StatusPrices struct {
	Waiting  PriceSummary `json:"waiting"`
	Paid     PriceSummary `json:"paid"`
	Canceled PriceSummary `json:"canceled"`
}

// PriceSummary holds the summed amounts of a group of invoices.
// Value excludes VAT, Total includes it.
type PriceSummary struct {
	Value decimal.Decimal `json:"value"`
	Total decimal.Decimal `json:"total"`
	Tax   decimal.Decimal `json:"tax"`
}

func (s *PriceSummary) add(p Prices) {
	s.Value = s.Value.Add(p.Subtotal)
	s.Total = s.Total.Add(p.Total)
	s.Tax = s.Tax.Add(p.VAT)
}

// BuildCharts aggregates the invoices of a single team. Invoices must have
// their fields loaded. The daily chart covers the ChartDays UTC days ending
// with the day of now, with a zero entry for days without invoices.
func BuildCharts(now time.Time, invoices []Invoice, customers int64) Charts {
	charts := Charts{
		Daily:     make(map[string]int, ChartDays),
		Customers: customers,
	}

	today := now.UTC().Truncate(24 * time.Hour)
	first := today.AddDate(0, 0, -(ChartDays - 1))
	for d := 0; d < ChartDays; d++ {
		charts.Daily[first.AddDate(0, 0, d).Format(DayLayout)] = 0
	}

	for i := range invoices {
		inv := &invoices[i]

		day := inv.CreatedAt.UTC().Format(DayLayout)
		if _, ok := charts.Daily[day]; ok {
			charts.Daily[day]++
		}

		prices := inv.Prices()
		switch inv.Status {
		case InvoiceStatusPaid:
			charts.Invoices.Paid++
			charts.Prices.Paid.add(prices)
		case InvoiceStatusWaiting:
			charts.Invoices.Waiting++
			charts.Prices.Waiting.add(prices)
		case InvoiceStatusCanceled:
			charts.Invoices.Canceled++
			charts.Prices.Canceled.add(prices)
		}
		charts.Invoices.Total++
	}
	return charts
}

// MarshalJSON renders the amounts with two fractional digits
func (s PriceSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Value json.Number `json:"value"`
		Total json.Number `json:"total"`
		Tax   json.Number `json:"tax"`
	}{
		Value: money(s.Value),
		Total: money(s.Total),
		Tax:   money(s.Tax),
	})
}
