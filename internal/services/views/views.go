// Package views maps a view name to the structure its chart is drawn from.
package views

import (
	"fmt"
	"strings"

	"salesdash/internal/models"
	"salesdash/internal/services/aggregate"
	"salesdash/internal/services/metrics"
)

// Kind is one of the dashboard views
type Kind int

const (
	Day Kind = iota
	Week
	Month
	Interactive
	TimeOfDay
	SalesTrends
	PaymentMethods
	StaffPerformance
	ItemPreferences
	TopSelling
	HighRevenue
	DayOfWeek
	Popularity
	Flow
	KPI

	kindCount
)

// AllName selects every view at once
const AllName = "all"

// Settings tune the derived series
type Settings struct {
	MovingAverageWindow int
	TopN                int
}

// DefaultSettings returns the dashboard defaults: a 3 period window and top 5
func DefaultSettings() Settings {
	return Settings{MovingAverageWindow: metrics.DefaultWindow, TopN: 5}
}

type builder func(records []models.Record, s Settings) (any, error)

type entry struct {
	name  string
	build builder
}

var table = [kindCount]entry{
	Day:              {"day", timeSeries(aggregate.Day)},
	Week:             {"week", timeSeries(aggregate.Week)},
	Month:            {"month", timeSeries(aggregate.Month)},
	Interactive:      {"interactive", interactive},
	TimeOfDay:        {"time_of_day", breakdown(aggregate.Amount, aggregate.TimeOfSale)},
	SalesTrends:      {"sales_trends", salesTrends},
	PaymentMethods:   {"payment_methods", breakdown(aggregate.Amount, aggregate.PaymentMethod)},
	StaffPerformance: {"staff_performance", breakdown(aggregate.Amount, aggregate.ReceivedBy)},
	ItemPreferences:  {"item_preferences", breakdown(aggregate.Quantity, aggregate.ItemName, aggregate.ItemType)},
	TopSelling:       {"top_selling", ranked(aggregate.Quantity)},
	HighRevenue:      {"high_revenue", ranked(aggregate.Amount)},
	DayOfWeek:        {"day_of_week", breakdown(aggregate.Amount, aggregate.DayOfWeek)},
	Popularity:       {"popularity", popularity},
	Flow:             {"flow", flowGraph},
	KPI:              {"kpi", kpi},
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return table[k].name
}

// Kinds lists every view in dashboard order
func Kinds() []Kind {
	out := make([]Kind, kindCount)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// Names lists every view name plus the "all" selector
func Names() []string {
	names := make([]string, 0, kindCount+1)
	for _, e := range table {
		names = append(names, e.name)
	}
	return append(names, AllName)
}

// Parse resolves a view name. "all" is not a Kind; callers check for it
// before calling Parse.
func Parse(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, e := range table {
		if e.name == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", models.ErrUnknownView, name)
}

// Build computes one view over records
func Build(k Kind, records []models.Record, s Settings) (any, error) {
	if k < 0 || k >= kindCount {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownView, k)
	}
	v, err := table[k].build(records, s)
	if err != nil {
		return nil, fmt.Errorf("build %s view: %w", k, err)
	}
	return v, nil
}

// Bundle holds every view keyed by name
type Bundle map[string]any

// BuildAll computes every view over the same records
func BuildAll(records []models.Record, s Settings) (Bundle, error) {
	b := make(Bundle, kindCount)
	for _, k := range Kinds() {
		v, err := Build(k, records, s)
		if err != nil {
			return nil, err
		}
		b[k.String()] = v
	}
	return b, nil
}

// Select resolves name, including "all", and builds the result
func Select(name string, records []models.Record, s Settings) (any, error) {
	if strings.EqualFold(strings.TrimSpace(name), AllName) {
		return BuildAll(records, s)
	}
	k, err := Parse(name)
	if err != nil {
		return nil, err
	}
	return Build(k, records, s)
}
