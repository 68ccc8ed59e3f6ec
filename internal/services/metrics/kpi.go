package metrics

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"salesdash/internal/models"
)

// KPISummary is the headline reduction of a record set.
// Mean is nil when there are no records. Records without an order id
// count toward Total and Records but not DistinctOrders.
type KPISummary struct {
	Total          float64  `json:"total"`
	Mean           *float64 `json:"mean"`
	DistinctOrders int      `json:"distinct_orders"`
	Records        int      `json:"records"`
}

// Summarize totals transaction_amount, averages it per record and counts
// distinct non-empty order ids. It keeps no state between calls.
func Summarize(records []models.Record) KPISummary {
	total := decimal.Zero
	orders := make(map[string]struct{}, len(records))
	for i := range records {
		total = total.Add(decimal.NewFromFloat(records[i].Amount))
		if id := records[i].OrderID; id != "" {
			orders[id] = struct{}{}
		}
	}

	summary := KPISummary{
		Total:          total.InexactFloat64(),
		DistinctOrders: len(orders),
		Records:        len(records),
	}
	if len(records) > 0 {
		mean := total.Div(decimal.NewFromInt(int64(len(records)))).InexactFloat64()
		summary.Mean = &mean
	}
	return summary
}

// KPIDisplay holds the card strings shown above the charts
type KPIDisplay struct {
	TotalSales     string `json:"total_sales"`
	AverageSale    string `json:"average_sale"`
	DistinctOrders string `json:"distinct_orders"`
}

var printer = message.NewPrinter(language.English)

// FormatKPI renders a summary as "$1,234.56" style strings. An undefined
// mean renders as "n/a".
func FormatKPI(s KPISummary) KPIDisplay {
	avg := "n/a"
	if s.Mean != nil {
		avg = printer.Sprintf("$%.2f", *s.Mean)
	}
	return KPIDisplay{
		TotalSales:     printer.Sprintf("$%.2f", s.Total),
		AverageSale:    avg,
		DistinctOrders: printer.Sprintf("%d", s.DistinctOrders),
	}
}
