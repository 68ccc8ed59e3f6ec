// Package filter applies user-selected constraints to a record set.
package filter

import (
	"fmt"
	"time"

	"salesdash/internal/models"
)

// DateRange is an inclusive calendar-date range
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AmountRange is an inclusive bound on transaction_amount
type AmountRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// QuantityRange is an inclusive bound on quantity
type QuantityRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Constraints is the conjunction of predicates a record must satisfy.
// Nil ranges and empty sets impose no restriction.
type Constraints struct {
	DateRange      *DateRange          `json:"date_range,omitempty"`
	AmountRange    *AmountRange        `json:"amount_range,omitempty"`
	QuantityRange  *QuantityRange      `json:"quantity_range,omitempty"`
	ItemTypes      []string            `json:"item_types,omitempty"`
	ItemNames      []string            `json:"item_names,omitempty"`
	PaymentMethods []string            `json:"payment_methods,omitempty"`
	TimesOfSale    []models.TimeOfSale `json:"times_of_sale,omitempty"`
	Month          models.MonthKey     `json:"month,omitempty"`
}

// Validate rejects inverted ranges. Bounds are never swapped.
func (c Constraints) Validate() error {
	if c.DateRange != nil && c.DateRange.Start.After(c.DateRange.End) {
		return fmt.Errorf("%w: date start %s is after end %s", models.ErrInvalidRange,
			c.DateRange.Start.Format("2006-01-02"), c.DateRange.End.Format("2006-01-02"))
	}
	if c.AmountRange != nil && c.AmountRange.Min > c.AmountRange.Max {
		return fmt.Errorf("%w: amount min %v > max %v", models.ErrInvalidRange, c.AmountRange.Min, c.AmountRange.Max)
	}
	if c.QuantityRange != nil && c.QuantityRange.Min > c.QuantityRange.Max {
		return fmt.Errorf("%w: quantity min %d > max %d", models.ErrInvalidRange, c.QuantityRange.Min, c.QuantityRange.Max)
	}
	for _, t := range c.TimesOfSale {
		if !t.Valid() {
			return fmt.Errorf("%w: %d", models.ErrUnknownTimeOfSale, int(t))
		}
	}
	return nil
}

// IsEmpty returns true if no predicate is set
func (c Constraints) IsEmpty() bool {
	return c.DateRange == nil && c.AmountRange == nil && c.QuantityRange == nil &&
		len(c.ItemTypes) == 0 && len(c.ItemNames) == 0 && len(c.PaymentMethods) == 0 &&
		len(c.TimesOfSale) == 0 && c.Month == ""
}

// compiled holds lookup sets built once per Apply call
type compiled struct {
	c          Constraints
	startDay   time.Time
	endDay     time.Time
	itemTypes  map[string]bool
	itemNames  map[string]bool
	payments   map[string]bool
	timeOfSale map[models.TimeOfSale]bool
}

func compile(c Constraints) *compiled {
	cc := &compiled{
		c:         c,
		itemTypes: toSet(c.ItemTypes),
		itemNames: toSet(c.ItemNames),
		payments:  toSet(c.PaymentMethods),
	}
	if c.DateRange != nil {
		cc.startDay = dayOf(c.DateRange.Start)
		cc.endDay = dayOf(c.DateRange.End)
	}
	if len(c.TimesOfSale) > 0 {
		cc.timeOfSale = make(map[models.TimeOfSale]bool, len(c.TimesOfSale))
		for _, t := range c.TimesOfSale {
			cc.timeOfSale[t] = true
		}
	}
	return cc
}

func (cc *compiled) match(r *models.Record) bool {
	c := cc.c
	if c.DateRange != nil {
		d := dayOf(r.Date)
		if d.Before(cc.startDay) || d.After(cc.endDay) {
			return false
		}
	}
	if c.AmountRange != nil && (r.Amount < c.AmountRange.Min || r.Amount > c.AmountRange.Max) {
		return false
	}
	if c.QuantityRange != nil && (r.Quantity < c.QuantityRange.Min || r.Quantity > c.QuantityRange.Max) {
		return false
	}
	if cc.itemTypes != nil && !cc.itemTypes[r.ItemType] {
		return false
	}
	if cc.itemNames != nil && !cc.itemNames[r.ItemName] {
		return false
	}
	if cc.payments != nil && !cc.payments[r.TransactionType] {
		return false
	}
	if cc.timeOfSale != nil && !cc.timeOfSale[r.TimeOfSale] {
		return false
	}
	if c.Month != "" && r.YearMonth != c.Month {
		return false
	}
	return true
}

// Apply returns the records that satisfy every constraint, in input order.
// The result is a new slice; records is never modified. An empty result is
// not an error.
func Apply(records []models.Record, c Constraints) ([]models.Record, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	result := make([]models.Record, 0, len(records))
	if c.IsEmpty() {
		return append(result, records...), nil
	}

	cc := compile(c)
	for i := range records {
		if cc.match(&records[i]) {
			result = append(result, records[i])
		}
	}
	return result, nil
}

func toSet(items []string) map[string]bool {
	if len(items) == 0 {
		return nil
	}
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

// dayOf drops the clock so inclusive bounds compare whole calendar days
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
