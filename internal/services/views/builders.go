package views

import (
	"github.com/samber/lo"

	"salesdash/internal/models"
	"salesdash/internal/services/aggregate"
	"salesdash/internal/services/flow"
	"salesdash/internal/services/metrics"
)

// Series is a grouped measure with its optional derived lines
type Series struct {
	GroupBy       []string              `json:"group_by"`
	Measure       string                `json:"measure"`
	Groups        []aggregate.Group     `json:"groups"`
	MovingAverage []float64             `json:"moving_average,omitempty"`
	Changes       []float64             `json:"changes,omitempty"`
	Range         *metrics.DisplayRange `json:"range,omitempty"`
	Peak          *metrics.PeakPoint    `json:"peak,omitempty"`
}

// Labels returns the display label of each group
func (s Series) Labels() []string {
	return aggregate.Labels(s.Groups)
}

// Values returns each group's value
func (s Series) Values() []float64 {
	return aggregate.Values(s.Groups)
}

// KPIView pairs the raw summary with its card strings
type KPIView struct {
	Summary metrics.KPISummary `json:"summary"`
	Display metrics.KPIDisplay `json:"display"`
}

func series(records []models.Record, measure aggregate.Measure, dims ...aggregate.Dimension) (Series, error) {
	groups, err := aggregate.Aggregate(records, aggregate.Spec{GroupBy: dims, Measure: measure, Reducer: aggregate.Sum})
	if err != nil {
		return Series{}, err
	}
	return Series{
		GroupBy: lo.Map(dims, func(d aggregate.Dimension, _ int) string { return d.String() }),
		Measure: measure.String(),
		Groups:  groups,
	}, nil
}

func withRange(s *Series) {
	if r, ok := metrics.RobustRange(s.Values()); ok {
		s.Range = &r
	}
}

func withPeak(s *Series) {
	if p, ok := metrics.Peak(s.Groups); ok {
		s.Peak = &p
	}
}

// timeSeries sums sales per time bucket with a robust axis range
func timeSeries(d aggregate.Dimension) builder {
	return func(records []models.Record, _ Settings) (any, error) {
		s, err := series(records, aggregate.Amount, d)
		if err != nil {
			return nil, err
		}
		withRange(&s)
		return s, nil
	}
}

func interactive(records []models.Record, cfg Settings) (any, error) {
	s, err := series(records, aggregate.Amount, aggregate.Month)
	if err != nil {
		return nil, err
	}
	s.MovingAverage = metrics.MovingAverage(s.Values(), cfg.MovingAverageWindow)
	return s, nil
}

// salesTrends is the monthly line with moving average, month-over-month
// change and the highest-sales annotation
func salesTrends(records []models.Record, cfg Settings) (any, error) {
	s, err := series(records, aggregate.Amount, aggregate.Month)
	if err != nil {
		return nil, err
	}
	values := s.Values()
	s.MovingAverage = metrics.MovingAverage(values, cfg.MovingAverageWindow)
	s.Changes = metrics.PeriodChanges(values)
	withRange(&s)
	withPeak(&s)
	return s, nil
}

func breakdown(measure aggregate.Measure, dims ...aggregate.Dimension) builder {
	return func(records []models.Record, _ Settings) (any, error) {
		s, err := series(records, measure, dims...)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// ranked keeps the TopN items by the summed measure
func ranked(measure aggregate.Measure) builder {
	return func(records []models.Record, cfg Settings) (any, error) {
		s, err := series(records, measure, aggregate.ItemName)
		if err != nil {
			return nil, err
		}
		s.Groups = metrics.TopN(s.Groups, cfg.TopN)
		return s, nil
	}
}

func popularity(records []models.Record, _ Settings) (any, error) {
	return aggregate.BuildPivot(records, aggregate.TimeOfSale, aggregate.ItemName, aggregate.Quantity, aggregate.Sum)
}

func flowGraph(records []models.Record, _ Settings) (any, error) {
	return flow.Build(records), nil
}

func kpi(records []models.Record, _ Settings) (any, error) {
	summary := metrics.Summarize(records)
	return KPIView{Summary: summary, Display: metrics.FormatKPI(summary)}, nil
}
