package aggregate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"salesdash/internal/models"
)

// Dimension is a field (or time bucket) records can be grouped by
type Dimension int

const (
	Day Dimension = iota
	Week
	Month
	ItemName
	ItemType
	PaymentMethod
	TimeOfSale
	ReceivedBy
	DayOfWeek

	dimensionCount
)

var dimensionNames = [dimensionCount]string{
	Day:           "day",
	Week:          "week",
	Month:         "month",
	ItemName:      "item_name",
	ItemType:      "item_type",
	PaymentMethod: "transaction_type",
	TimeOfSale:    "time_of_sale",
	ReceivedBy:    "received_by",
	DayOfWeek:     "day_of_week",
}

// weekdayOrder starts the week on Monday, matching ISO week buckets
var weekdayOrder = []string{
	time.Monday.String(), time.Tuesday.String(), time.Wednesday.String(),
	time.Thursday.String(), time.Friday.String(), time.Saturday.String(), time.Sunday.String(),
}

func (d Dimension) String() string {
	if d < 0 || d >= dimensionCount {
		return "Dimension(" + strconv.Itoa(int(d)) + ")"
	}
	return dimensionNames[d]
}

// ParseDimension accepts the names returned by String
func ParseDimension(s string) (Dimension, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range dimensionNames {
		if s == name {
			return Dimension(i), nil
		}
	}
	return 0, fmt.Errorf("unknown dimension %q", s)
}

// IsTime reports whether the dimension is a time bucket
func (d Dimension) IsTime() bool {
	return d == Day || d == Week || d == Month
}

// Vocabulary returns the fixed category order for dimensions that have one,
// or nil when categories are open-ended
func (d Dimension) Vocabulary() []string {
	switch d {
	case TimeOfSale:
		return models.TimeOfSaleLabels()
	case DayOfWeek:
		out := make([]string, len(weekdayOrder))
		copy(out, weekdayOrder)
		return out
	default:
		return nil
	}
}

// Key returns the group label of r along this dimension. Time buckets are
// labelled by their start: day and week as 2006-01-02, month as year_month.
func (d Dimension) Key(r *models.Record) string {
	switch d {
	case Day:
		return r.Date.Format("2006-01-02")
	case Week:
		return WeekStart(r.Date).Format("2006-01-02")
	case Month:
		return string(r.YearMonth)
	case ItemName:
		return r.ItemName
	case ItemType:
		return r.ItemType
	case PaymentMethod:
		return r.TransactionType
	case TimeOfSale:
		return r.TimeOfSale.String()
	case ReceivedBy:
		return r.ReceivedBy
	case DayOfWeek:
		return r.Date.Weekday().String()
	default:
		return ""
	}
}

// WeekStart returns the Monday that starts the ISO week containing t
func WeekStart(t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// Measure is the record field a reducer reads
type Measure int

const (
	Amount Measure = iota
	Quantity
	OrderID
)

func (m Measure) String() string {
	switch m {
	case Amount:
		return "transaction_amount"
	case Quantity:
		return "quantity"
	case OrderID:
		return "order_id"
	default:
		return "Measure(" + strconv.Itoa(int(m)) + ")"
	}
}

// ParseMeasure accepts the names returned by String plus "amount"
func ParseMeasure(s string) (Measure, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "transaction_amount", "amount":
		return Amount, nil
	case "quantity":
		return Quantity, nil
	case "order_id":
		return OrderID, nil
	}
	return 0, fmt.Errorf("unknown measure %q", s)
}

func (m Measure) numeric() bool {
	return m == Amount || m == Quantity
}

func (m Measure) value(r *models.Record) float64 {
	switch m {
	case Amount:
		return r.Amount
	case Quantity:
		return float64(r.Quantity)
	default:
		return 0
	}
}

func (m Measure) distinctKey(r *models.Record) string {
	switch m {
	case Amount:
		return strconv.FormatFloat(r.Amount, 'f', -1, 64)
	case Quantity:
		return strconv.Itoa(r.Quantity)
	default:
		return r.OrderID
	}
}

// Reducer folds a group's records into one number
type Reducer int

const (
	Sum Reducer = iota
	Count
	DistinctCount
	Mean
)

func (r Reducer) String() string {
	switch r {
	case Sum:
		return "sum"
	case Count:
		return "count"
	case DistinctCount:
		return "distinct_count"
	case Mean:
		return "mean"
	default:
		return "Reducer(" + strconv.Itoa(int(r)) + ")"
	}
}

// ParseReducer accepts the names returned by String
func ParseReducer(s string) (Reducer, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sum":
		return Sum, nil
	case "count":
		return Count, nil
	case "distinct_count", "distinct-count", "nunique":
		return DistinctCount, nil
	case "mean", "avg":
		return Mean, nil
	}
	return 0, fmt.Errorf("unknown reducer %q", s)
}
