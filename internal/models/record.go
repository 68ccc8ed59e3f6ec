package models

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/samber/lo"
)

// RawRow is one untyped source row keyed by canonical field name
// (order_id, date, item_name, ...). Values are whatever the source held.
type RawRow map[string]string

// Canonical raw field names, in the column order of the source dataset
const (
	FieldOrderID         = "order_id"
	FieldDate            = "date"
	FieldItemName        = "item_name"
	FieldItemType        = "item_type"
	FieldItemPrice       = "item_price"
	FieldQuantity        = "quantity"
	FieldAmount          = "transaction_amount"
	FieldTransactionType = "transaction_type"
	FieldReceivedBy      = "received_by"
	FieldTimeOfSale      = "time_of_sale"
)

// Fields lists the canonical field names in source column order
func Fields() []string {
	return []string{
		FieldOrderID, FieldDate, FieldItemName, FieldItemType, FieldItemPrice,
		FieldQuantity, FieldAmount, FieldTransactionType, FieldReceivedBy, FieldTimeOfSale,
	}
}

// MonthKey is a calendar month in "2006-01" form. It sorts lexically.
type MonthKey string

const monthKeyLayout = "2006-01"

// MonthOf truncates a date to its month key
func MonthOf(t time.Time) MonthKey {
	return MonthKey(t.Format(monthKeyLayout))
}

// ParseMonthKey validates a "YYYY-MM" string
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse(monthKeyLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid month %q: %w", s, err)
	}
	return MonthOf(t), nil
}

// Start returns midnight UTC on the first day of the month
func (m MonthKey) Start() time.Time {
	t, err := time.Parse(monthKeyLayout, string(m))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Record is one normalized sale line
type Record struct {
	OrderID         string     `json:"order_id"`
	Date            time.Time  `json:"date"`
	ItemName        string     `json:"item_name"`
	ItemType        string     `json:"item_type"`
	ItemPrice       float64    `json:"item_price"`
	Quantity        int        `json:"quantity"`
	Amount          float64    `json:"transaction_amount"`
	TransactionType string     `json:"transaction_type"`
	ReceivedBy      string     `json:"received_by"`
	TimeOfSale      TimeOfSale `json:"time_of_sale"`

	// Derived at normalization time
	YearMonth MonthKey `json:"year_month"`
}

// RecordSet is an immutable snapshot of normalized records. A reload builds
// a new RecordSet; an existing one is never changed.
type RecordSet struct {
	ID             string         `json:"id"`
	Source         string         `json:"source"`
	LoadedAt       time.Time      `json:"loaded_at"`
	Rejected       int            `json:"rejected"`
	RejectedByKind map[string]int `json:"rejected_by_kind,omitempty"`

	records []Record
}

// NewRecordSet copies records into a new snapshot
func NewRecordSet(id, source string, records []Record) *RecordSet {
	owned := make([]Record, len(records))
	copy(owned, records)
	return &RecordSet{
		ID:       id,
		Source:   source,
		LoadedAt: time.Now().UTC(),
		records:  owned,
	}
}

// Records returns the snapshot's records. The slice is shared and must be
// treated as read-only.
func (rs *RecordSet) Records() []Record {
	if rs == nil {
		return nil
	}
	return slices.Clip(rs.records)
}

// Len returns the number of records
func (rs *RecordSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.records)
}

// MinDate returns the earliest record date
func (rs *RecordSet) MinDate() time.Time {
	if rs.Len() == 0 {
		return time.Time{}
	}
	minDate := rs.records[0].Date
	for _, r := range rs.records[1:] {
		if r.Date.Before(minDate) {
			minDate = r.Date
		}
	}
	return minDate
}

// MaxDate returns the latest record date
func (rs *RecordSet) MaxDate() time.Time {
	if rs.Len() == 0 {
		return time.Time{}
	}
	maxDate := rs.records[0].Date
	for _, r := range rs.records[1:] {
		if r.Date.After(maxDate) {
			maxDate = r.Date
		}
	}
	return maxDate
}

// Months returns the distinct year_month keys in ascending order
func (rs *RecordSet) Months() []MonthKey {
	seen := make(map[MonthKey]bool)
	var months []MonthKey
	for _, r := range rs.Records() {
		if !seen[r.YearMonth] {
			seen[r.YearMonth] = true
			months = append(months, r.YearMonth)
		}
	}
	sort.Slice(months, func(i, j int) bool { return months[i] < months[j] })
	return months
}

// ItemTypes returns the distinct item types in first-seen order
func (rs *RecordSet) ItemTypes() []string {
	return distinct(rs.Records(), func(r Record) string { return r.ItemType })
}

// ItemNames returns the distinct item names in first-seen order
func (rs *RecordSet) ItemNames() []string {
	return distinct(rs.Records(), func(r Record) string { return r.ItemName })
}

// PaymentMethods returns the distinct transaction types in first-seen order
func (rs *RecordSet) PaymentMethods() []string {
	return distinct(rs.Records(), func(r Record) string { return r.TransactionType })
}

func distinct(records []Record, field func(Record) string) []string {
	return lo.Uniq(lo.Map(records, func(r Record, _ int) string { return field(r) }))
}
