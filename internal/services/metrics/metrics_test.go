package metrics

import (
	"math"
	"reflect"
	"testing"

	"salesdash/internal/models"
	"salesdash/internal/services/aggregate"
	"salesdash/internal/testutil"
)

func TestMovingAverage(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		window int
		want   []float64
	}{
		{"short series passes through", []float64{10, 5}, 3, []float64{10, 5}},
		{"trailing mean once full", []float64{1, 2, 3, 4, 5}, 3, []float64{1, 2, 2, 3, 4}},
		{"window of one", []float64{4, 8}, 1, []float64{4, 8}},
		{"empty", nil, 3, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MovingAverage(tt.values, tt.window)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MovingAverage = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMovingAverageHasNoLookAhead(t *testing.T) {
	base := []float64{3, 9, 4, 7, 1, 8, 2}
	before := MovingAverage(base, 3)

	for k := range base {
		perturbed := append([]float64(nil), base...)
		perturbed[k] += 1000
		after := MovingAverage(perturbed, 3)
		for i := 0; i < k; i++ {
			if before[i] != after[i] {
				t.Fatalf("changing position %d moved the average at %d", k, i)
			}
		}
	}
}

func TestTwoMonthScenario(t *testing.T) {
	records := []models.Record{
		testutil.Rec("1", "2022-01-05", "Burger", "Fastfood", "Cash", models.Morning, 1, 10),
		testutil.Rec("2", "2022-02-10", "Soda", "Beverages", "Card", models.Evening, 1, 5),
	}
	groups, err := aggregate.Aggregate(records, aggregate.Spec{
		GroupBy: []aggregate.Dimension{aggregate.Month},
		Measure: aggregate.Amount,
		Reducer: aggregate.Sum,
	})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	values := aggregate.Values(groups)
	if !reflect.DeepEqual(values, []float64{10, 5}) {
		t.Fatalf("monthly sums = %v, want [10 5]", values)
	}
	if got := MovingAverage(values, DefaultWindow); !reflect.DeepEqual(got, values) {
		t.Errorf("moving average = %v, want the raw values", got)
	}
}

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	tests := []struct {
		q    float64
		want float64
	}{
		{0, 1},
		{0.25, 1.75},
		{0.5, 2.5},
		{0.75, 3.25},
		{1, 4},
	}
	for _, tt := range tests {
		if got := Quantile(sorted, tt.q); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Quantile(%v) = %v, want %v", tt.q, got, tt.want)
		}
	}
	if !math.IsNaN(Quantile(nil, 0.5)) {
		t.Error("Quantile of empty slice should be NaN")
	}
}

func TestRobustRange(t *testing.T) {
	values := []float64{4, 1, 3, 2}
	r, ok := RobustRange(values)
	if !ok {
		t.Fatal("expected a range")
	}
	want := DisplayRange{Q1: 1.75, Q3: 3.25, IQR: 1.5, Lower: -0.5, Upper: 5.5}
	if r != want {
		t.Errorf("RobustRange = %+v, want %+v", r, want)
	}
	if values[0] != 4 {
		t.Error("RobustRange must not reorder its input")
	}

	if _, ok := RobustRange(nil); ok {
		t.Error("expected no range for an empty series")
	}
}

func itemAmounts(t *testing.T) []aggregate.Group {
	t.Helper()
	groups, err := aggregate.Aggregate(testutil.SampleRecords(), aggregate.Spec{
		GroupBy: []aggregate.Dimension{aggregate.ItemName},
		Measure: aggregate.Amount,
		Reducer: aggregate.Sum,
	})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	return groups
}

func TestTopN(t *testing.T) {
	groups := itemAmounts(t)

	top := TopN(groups, 3)
	if got := aggregate.Labels(top); !reflect.DeepEqual(got, []string{"Sandwich", "Burger", "Soda"}) {
		t.Errorf("TopN labels = %v, want ties in first-seen order", got)
	}
	if got := TopN(groups, 10); len(got) != len(groups) {
		t.Errorf("TopN beyond length returned %d groups", len(got))
	}
	if got := TopN(groups, 0); len(got) != 0 {
		t.Errorf("TopN(0) = %v", got)
	}
	if groups[0].Label() != "Burger" {
		t.Error("TopN must not reorder its input")
	}
}

func TestPeak(t *testing.T) {
	groups, _ := aggregate.Aggregate(testutil.SampleRecords(), aggregate.Spec{
		GroupBy: []aggregate.Dimension{aggregate.Month},
		Measure: aggregate.Amount,
		Reducer: aggregate.Sum,
	})
	p, ok := Peak(groups)
	if !ok || p.Label != "2022-02" || p.Value != 80 || p.Index != 1 {
		t.Errorf("Peak = %+v, %v", p, ok)
	}

	tied := []aggregate.Group{{Keys: []string{"a"}, Value: 2}, {Keys: []string{"b"}, Value: 2}}
	if p, _ := Peak(tied); p.Label != "a" {
		t.Errorf("Peak on tie = %s, want the first", p.Label)
	}

	if _, ok := Peak(nil); ok {
		t.Error("expected no peak for empty groups")
	}
}

func TestPeriodChanges(t *testing.T) {
	got := PeriodChanges([]float64{20, 80, 40, 0})
	want := []float64{0, 300, -50, -100}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PeriodChanges = %v, want %v", got, want)
	}
	if PercentChange(5, 0) != 100 || PercentChange(0, 0) != 0 {
		t.Error("unexpected change from a zero baseline")
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(testutil.SampleRecords())
	if s.Total != 155 {
		t.Errorf("Total = %v, want 155", s.Total)
	}
	if s.Mean == nil || *s.Mean != 19.375 {
		t.Errorf("Mean = %v, want 19.375", s.Mean)
	}
	if s.DistinctOrders != 7 || s.Records != 8 {
		t.Errorf("counts = %d/%d, want 7/8", s.DistinctOrders, s.Records)
	}
}

func TestSummarizeSkipsEmptyOrderIDs(t *testing.T) {
	records := []models.Record{
		{OrderID: "A", Amount: 10},
		{OrderID: "", Amount: 5},
		{OrderID: "", Amount: 5},
		{OrderID: "B", Amount: 20},
	}
	s := Summarize(records)
	if s.DistinctOrders != 2 || s.Records != 4 || s.Total != 40 {
		t.Errorf("Summarize = %+v, want 2 orders over 4 records totalling 40", s)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 || s.Mean != nil || s.DistinctOrders != 0 || s.Records != 0 {
		t.Errorf("Summarize(nil) = %+v", s)
	}
	d := FormatKPI(s)
	if d.AverageSale != "n/a" || d.TotalSales != "$0.00" || d.DistinctOrders != "0" {
		t.Errorf("FormatKPI = %+v", d)
	}
}

func TestFormatKPI(t *testing.T) {
	mean := 19.375
	d := FormatKPI(KPISummary{Total: 1234.5, Mean: &mean, DistinctOrders: 12034})
	want := KPIDisplay{TotalSales: "$1,234.50", AverageSale: "$19.38", DistinctOrders: "12,034"}
	if d != want {
		t.Errorf("FormatKPI = %+v, want %+v", d, want)
	}
}
