package aggregate

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"salesdash/internal/models"
	"salesdash/internal/testutil"
)

type kv struct {
	key   string
	value float64
}

func flatten(groups []Group) []kv {
	out := make([]kv, len(groups))
	for i, g := range groups {
		out[i] = kv{g.Label(), g.Value}
	}
	return out
}

func TestAggregateSingleDimension(t *testing.T) {
	records := testutil.SampleRecords()

	tests := []struct {
		name string
		spec Spec
		want []kv
	}{
		{
			name: "month sum ascending",
			spec: Spec{GroupBy: []Dimension{Month}, Measure: Amount, Reducer: Sum},
			want: []kv{{"2022-01", 20}, {"2022-02", 80}, {"2022-03", 55}},
		},
		{
			name: "day sum ascending",
			spec: Spec{GroupBy: []Dimension{Day}, Measure: Amount, Reducer: Sum},
			want: []kv{
				{"2022-01-05", 15}, {"2022-01-12", 5}, {"2022-02-10", 60}, {"2022-02-14", 20},
				{"2022-03-01", 10}, {"2022-03-15", 25}, {"2022-03-20", 20},
			},
		},
		{
			name: "iso week keyed by monday",
			spec: Spec{GroupBy: []Dimension{Week}, Measure: Amount, Reducer: Sum},
			want: []kv{
				{"2022-01-03", 15}, {"2022-01-10", 5}, {"2022-02-07", 60},
				{"2022-02-14", 20}, {"2022-02-28", 10}, {"2022-03-14", 45},
			},
		},
		{
			name: "time of sale follows vocabulary including unseen",
			spec: Spec{GroupBy: []Dimension{TimeOfSale}, Measure: Quantity, Reducer: Sum},
			want: []kv{{"Morning", 6}, {"Afternoon", 2}, {"Evening", 8}, {"Night", 3}, {"Midnight", 0}},
		},
		{
			name: "distinct orders by payment in first-seen order",
			spec: Spec{GroupBy: []Dimension{PaymentMethod}, Measure: OrderID, Reducer: DistinctCount},
			want: []kv{{"Cash", 4}, {"Card", 1}, {"Online", 2}},
		},
		{
			name: "row count by item type",
			spec: Spec{GroupBy: []Dimension{ItemType}, Measure: OrderID, Reducer: Count},
			want: []kv{{"Fastfood", 5}, {"Beverages", 3}},
		},
		{
			name: "day of week monday first",
			spec: Spec{GroupBy: []Dimension{DayOfWeek}, Measure: Amount, Reducer: Sum},
			want: []kv{
				{"Monday", 20}, {"Tuesday", 35}, {"Wednesday", 20}, {"Thursday", 60},
				{"Friday", 0}, {"Saturday", 0}, {"Sunday", 20},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups, err := Aggregate(records, tt.spec)
			if err != nil {
				t.Fatalf("Aggregate failed: %v", err)
			}
			if got := flatten(groups); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v\nwant %v", got, tt.want)
			}
		})
	}
}

func TestAggregateMeanIsSumOverCount(t *testing.T) {
	groups, err := Aggregate(testutil.SampleRecords(), Spec{GroupBy: []Dimension{ItemType}, Measure: Amount, Reducer: Mean})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].Value != 21 {
		t.Errorf("Fastfood mean = %v, want 21", groups[0].Value)
	}
	if math.Abs(groups[1].Value-50.0/3) > 1e-9 {
		t.Errorf("Beverages mean = %v, want %v", groups[1].Value, 50.0/3)
	}
}

func TestAggregateTuples(t *testing.T) {
	records := testutil.SampleRecords()

	groups, err := Aggregate(records, Spec{GroupBy: []Dimension{ItemName, ItemType}, Measure: Quantity, Reducer: Sum})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	want := []kv{{"Burger / Fastfood", 5}, {"Soda / Beverages", 5}, {"Sandwich / Fastfood", 4}, {"Tea / Beverages", 5}}
	if got := flatten(groups); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v\nwant %v", got, want)
	}

	groups, err = Aggregate(records, Spec{GroupBy: []Dimension{TimeOfSale, ItemName}, Measure: Quantity, Reducer: Sum})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	want = []kv{
		{"Morning / Burger", 2}, {"Morning / Soda", 4},
		{"Afternoon / Soda", 1}, {"Afternoon / Sandwich", 1},
		{"Evening / Sandwich", 3}, {"Evening / Tea", 5},
		{"Night / Burger", 3},
	}
	if got := flatten(groups); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v\nwant %v", got, want)
	}

	groups, err = Aggregate(records, Spec{GroupBy: []Dimension{ItemName, ItemType, PaymentMethod}, Measure: OrderID, Reducer: Count})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(groups) != 7 {
		t.Errorf("got %d triples, want 7", len(groups))
	}
}

func TestAggregateTupleLeavesUnseenToPivot(t *testing.T) {
	records := testutil.SampleRecords()

	groups, err := Aggregate(records, Spec{GroupBy: []Dimension{ItemName, TimeOfSale}, Measure: Amount, Reducer: Sum})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	for _, g := range groups {
		if g.Keys[1] == models.Midnight.String() {
			t.Errorf("tuple grouping produced unseen group %s", g.Label())
		}
	}

	p, err := BuildPivot(records, TimeOfSale, ItemName, Amount, Sum)
	if err != nil {
		t.Fatalf("BuildPivot failed: %v", err)
	}
	if !reflect.DeepEqual(p.Rows, models.TimeOfSaleLabels()) {
		t.Errorf("pivot rows = %v, want every time of sale", p.Rows)
	}
	if v := p.Value(models.Midnight.String(), "Burger"); v != 0 {
		t.Errorf("Midnight/Burger = %v, want 0", v)
	}
}

func TestAggregateConservesTotals(t *testing.T) {
	records := testutil.SampleRecords()
	var want float64
	for _, r := range records {
		want += r.Amount
	}

	for _, d := range []Dimension{Day, Week, Month, ItemName, ItemType, PaymentMethod, TimeOfSale, ReceivedBy, DayOfWeek} {
		groups, err := Aggregate(records, Spec{GroupBy: []Dimension{d}, Measure: Amount, Reducer: Sum})
		if err != nil {
			t.Fatalf("%s: Aggregate failed: %v", d, err)
		}
		if got := Total(groups); math.Abs(got-want) > 1e-9 {
			t.Errorf("%s: total = %v, want %v", d, got, want)
		}
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	groups, err := Aggregate(nil, Spec{GroupBy: []Dimension{Month}, Measure: Amount, Reducer: Sum})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("got %d groups, want 0", len(groups))
	}

	groups, err = Aggregate(nil, Spec{GroupBy: []Dimension{TimeOfSale}, Measure: Quantity, Reducer: Mean})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(groups) != 5 {
		t.Fatalf("got %d groups, want the 5 time-of-sale categories", len(groups))
	}
	for _, g := range groups {
		if g.Value != 0 || g.Count != 0 {
			t.Errorf("group %s = %v/%d, want zero", g.Label(), g.Value, g.Count)
		}
	}
}

func TestAggregateUnsupportedMeasure(t *testing.T) {
	for _, r := range []Reducer{Sum, Mean} {
		_, err := Aggregate(testutil.SampleRecords(), Spec{GroupBy: []Dimension{Month}, Measure: OrderID, Reducer: r})
		if !errors.Is(err, models.ErrUnsupportedMeasure) {
			t.Errorf("%s of order_id: error = %v, want ErrUnsupportedMeasure", r, err)
		}
	}
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2022-01-03", "2022-01-03"}, // Monday
		{"2022-01-09", "2022-01-03"}, // Sunday
		{"2022-01-01", "2021-12-27"}, // Saturday, ISO week 52 of 2021
	}
	for _, tt := range tests {
		d, _ := time.Parse("2006-01-02", tt.date)
		if got := WeekStart(d).Format("2006-01-02"); got != tt.want {
			t.Errorf("WeekStart(%s) = %s, want %s", tt.date, got, tt.want)
		}
	}
}

func TestParseNames(t *testing.T) {
	for i := Dimension(0); i < dimensionCount; i++ {
		got, err := ParseDimension(i.String())
		if err != nil || got != i {
			t.Errorf("ParseDimension(%q) = %v, %v", i.String(), got, err)
		}
	}
	if _, err := ParseDimension("color"); err == nil {
		t.Error("Expected error for unknown dimension")
	}
	if m, err := ParseMeasure("amount"); err != nil || m != Amount {
		t.Errorf("ParseMeasure(amount) = %v, %v", m, err)
	}
	if r, err := ParseReducer("distinct-count"); err != nil || r != DistinctCount {
		t.Errorf("ParseReducer(distinct-count) = %v, %v", r, err)
	}
}

func TestBuildPivotIsDense(t *testing.T) {
	records := testutil.SampleRecords()
	p, err := BuildPivot(records, TimeOfSale, ItemName, Quantity, Sum)
	if err != nil {
		t.Fatalf("BuildPivot failed: %v", err)
	}

	if !reflect.DeepEqual(p.Rows, models.TimeOfSaleLabels()) {
		t.Errorf("Rows = %v, want full vocabulary", p.Rows)
	}
	if !reflect.DeepEqual(p.Columns, []string{"Burger", "Soda", "Sandwich", "Tea"}) {
		t.Errorf("Columns = %v", p.Columns)
	}
	if len(p.Cells) != len(p.Rows)*len(p.Columns) {
		t.Fatalf("got %d cells, want %d", len(p.Cells), len(p.Rows)*len(p.Columns))
	}

	first := p.Cells[0]
	if first.Row != "Morning" || first.Column != "Burger" || first.Value != 2 {
		t.Errorf("first cell = %+v, want Morning/Burger=2", first)
	}
	if second := p.Cells[1]; second.Row != "Afternoon" || second.Column != "Burger" || second.Value != 0 {
		t.Errorf("second cell = %+v, want Afternoon/Burger=0", second)
	}
	if v := p.Value("Night", "Burger"); v != 3 {
		t.Errorf("Night/Burger = %v, want 3", v)
	}
	if v := p.Value("Midnight", "Tea"); v != 0 {
		t.Errorf("Midnight/Tea = %v, want 0", v)
	}

	var total float64
	for _, c := range p.Cells {
		total += c.Value
	}
	if total != 19 {
		t.Errorf("cell total = %v, want 19", total)
	}
}

func TestBuildPivotEmpty(t *testing.T) {
	p, err := BuildPivot(nil, TimeOfSale, ItemName, Quantity, Sum)
	if err != nil {
		t.Fatalf("BuildPivot failed: %v", err)
	}
	if len(p.Rows) != 5 || len(p.Columns) != 0 || len(p.Cells) != 0 {
		t.Errorf("got rows=%d cols=%d cells=%d, want 5, 0, 0", len(p.Rows), len(p.Columns), len(p.Cells))
	}
}
