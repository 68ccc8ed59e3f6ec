package filter

import (
	"slices"
	"time"

	"github.com/samber/lo"

	"salesdash/internal/models"
)

// Options describes the values a UI can offer for each constraint. Category
// lists are in first-seen order; months ascend.
type Options struct {
	ItemTypes      []string          `json:"item_types"`
	ItemNames      []string          `json:"item_names"`
	PaymentMethods []string          `json:"payment_methods"`
	TimesOfSale    []string          `json:"times_of_sale"`
	Months         []models.MonthKey `json:"months"`
	MinDate        time.Time         `json:"min_date"`
	MaxDate        time.Time         `json:"max_date"`
	AmountMin      float64           `json:"amount_min"`
	AmountMax      float64           `json:"amount_max"`
	QuantityMin    int               `json:"quantity_min"`
	QuantityMax    int               `json:"quantity_max"`
}

// OptionsFor collects the distinct categories and numeric extents of records
func OptionsFor(records []models.Record) Options {
	opts := Options{
		ItemTypes:      lo.Uniq(lo.Map(records, func(r models.Record, _ int) string { return r.ItemType })),
		ItemNames:      lo.Uniq(lo.Map(records, func(r models.Record, _ int) string { return r.ItemName })),
		PaymentMethods: lo.Uniq(lo.Map(records, func(r models.Record, _ int) string { return r.TransactionType })),
		TimesOfSale:    models.TimeOfSaleLabels(),
		Months:         lo.Uniq(lo.Map(records, func(r models.Record, _ int) models.MonthKey { return r.YearMonth })),
	}
	slices.Sort(opts.Months)

	if len(records) == 0 {
		return opts
	}

	first := records[0]
	opts.MinDate, opts.MaxDate = first.Date, first.Date
	opts.AmountMin, opts.AmountMax = first.Amount, first.Amount
	opts.QuantityMin, opts.QuantityMax = first.Quantity, first.Quantity
	for _, r := range records[1:] {
		if r.Date.Before(opts.MinDate) {
			opts.MinDate = r.Date
		}
		if r.Date.After(opts.MaxDate) {
			opts.MaxDate = r.Date
		}
		opts.AmountMin = min(opts.AmountMin, r.Amount)
		opts.AmountMax = max(opts.AmountMax, r.Amount)
		opts.QuantityMin = min(opts.QuantityMin, r.Quantity)
		opts.QuantityMax = max(opts.QuantityMax, r.Quantity)
	}
	return opts
}
