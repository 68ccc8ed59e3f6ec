package filter

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"salesdash/internal/models"
	"salesdash/internal/testutil"
)

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func TestApplyDateRangeKeepsJanuary(t *testing.T) {
	records := []models.Record{
		testutil.Rec("1", "2022-01-05", "Burger", "Fastfood", "Cash", models.Morning, 1, 10),
		testutil.Rec("2", "2022-02-10", "Soda", "Beverages", "Card", models.Evening, 1, 5),
	}

	got, err := Apply(records, Constraints{
		DateRange: &DateRange{Start: day("2022-01-01"), End: day("2022-01-31")},
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(got) != 1 || got[0].ItemName != "Burger" {
		t.Errorf("got %+v, want only the Burger record", got)
	}
}

func TestApplyPredicates(t *testing.T) {
	records := testutil.SampleRecords()

	tests := []struct {
		name   string
		c      Constraints
		orders []string
	}{
		{"no constraints", Constraints{}, []string{"O1", "O2", "O2", "O3", "O4", "O5", "O6", "O7"}},
		{"inclusive date bounds", Constraints{DateRange: &DateRange{Start: day("2022-01-12"), End: day("2022-02-10")}}, []string{"O2", "O3"}},
		{"amount range", Constraints{AmountRange: &AmountRange{Min: 10, Max: 20}}, []string{"O1", "O4", "O5", "O7"}},
		{"quantity range", Constraints{QuantityRange: &QuantityRange{Min: 3, Max: 5}}, []string{"O3", "O4", "O6"}},
		{"item types", Constraints{ItemTypes: []string{"Beverages"}}, []string{"O2", "O4", "O6"}},
		{"item names", Constraints{ItemNames: []string{"Burger", "Tea"}}, []string{"O1", "O2", "O5", "O6"}},
		{"payment methods", Constraints{PaymentMethods: []string{"Online"}}, []string{"O3", "O6"}},
		{"times of sale", Constraints{TimesOfSale: []models.TimeOfSale{models.Night}}, []string{"O2", "O5"}},
		{"month", Constraints{Month: "2022-03"}, []string{"O5", "O6", "O7"}},
		{"conjunction", Constraints{ItemTypes: []string{"Fastfood"}, PaymentMethods: []string{"Cash"}, Month: "2022-03"}, []string{"O5", "O7"}},
		{"nothing matches", Constraints{ItemNames: []string{"Pizza"}}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(records, tt.c)
			if err != nil {
				t.Fatalf("Apply failed: %v", err)
			}
			orders := make([]string, 0, len(got))
			for _, r := range got {
				orders = append(orders, r.OrderID)
			}
			if !reflect.DeepEqual(orders, tt.orders) {
				t.Errorf("orders = %v, want %v", orders, tt.orders)
			}
		})
	}
}

func TestApplyResultSatisfiesConstraints(t *testing.T) {
	c := Constraints{
		DateRange:     &DateRange{Start: day("2022-01-01"), End: day("2022-03-10")},
		AmountRange:   &AmountRange{Min: 5, Max: 60},
		QuantityRange: &QuantityRange{Min: 1, Max: 4},
		ItemTypes:     []string{"Fastfood", "Beverages"},
	}
	records := testutil.SampleRecords()
	got, err := Apply(records, c)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	kept := make(map[int]bool)
	for _, r := range got {
		if r.Date.Before(c.DateRange.Start) || r.Date.After(c.DateRange.End) {
			t.Errorf("record %s outside date range", r.OrderID)
		}
		if r.Amount < 5 || r.Amount > 60 || r.Quantity < 1 || r.Quantity > 4 {
			t.Errorf("record %s outside numeric ranges", r.OrderID)
		}
	}
	for i, r := range records {
		inRange := !r.Date.After(c.DateRange.End) && r.Amount >= 5 && r.Amount <= 60 && r.Quantity >= 1 && r.Quantity <= 4
		if inRange {
			kept[i] = true
		}
	}
	if len(kept) != len(got) {
		t.Errorf("got %d records, want %d", len(got), len(kept))
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	c := Constraints{ItemTypes: []string{"Fastfood"}, AmountRange: &AmountRange{Min: 0, Max: 30}}
	once, err := Apply(testutil.SampleRecords(), c)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	twice, err := Apply(once, c)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second pass changed the result:\n%v\n%v", once, twice)
	}
}

func TestApplyDoesNotShareStorage(t *testing.T) {
	records := testutil.SampleRecords()
	got, err := Apply(records, Constraints{})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	got[0].ItemName = "changed"
	if records[0].ItemName != "Burger" {
		t.Error("mutating the result must not change the source")
	}
}

func TestValidateInvalidRanges(t *testing.T) {
	tests := []struct {
		name string
		c    Constraints
	}{
		{"dates", Constraints{DateRange: &DateRange{Start: day("2022-02-01"), End: day("2022-01-01")}}},
		{"amount", Constraints{AmountRange: &AmountRange{Min: 50, Max: 10}}},
		{"quantity", Constraints{QuantityRange: &QuantityRange{Min: 5, Max: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply(testutil.SampleRecords(), tt.c)
			if !errors.Is(err, models.ErrInvalidRange) {
				t.Errorf("error = %v, want ErrInvalidRange", err)
			}
		})
	}
}

func TestValidateUnknownTimeOfSale(t *testing.T) {
	c := Constraints{TimesOfSale: []models.TimeOfSale{models.TimeOfSale(9)}}
	if err := c.Validate(); !errors.Is(err, models.ErrUnknownTimeOfSale) {
		t.Errorf("Validate = %v, want ErrUnknownTimeOfSale", err)
	}
}

func TestOptionsFor(t *testing.T) {
	opts := OptionsFor(testutil.SampleRecords())

	if !reflect.DeepEqual(opts.ItemTypes, []string{"Fastfood", "Beverages"}) {
		t.Errorf("ItemTypes = %v", opts.ItemTypes)
	}
	if !reflect.DeepEqual(opts.ItemNames, []string{"Burger", "Soda", "Sandwich", "Tea"}) {
		t.Errorf("ItemNames = %v", opts.ItemNames)
	}
	if !reflect.DeepEqual(opts.PaymentMethods, []string{"Cash", "Card", "Online"}) {
		t.Errorf("PaymentMethods = %v", opts.PaymentMethods)
	}
	if !reflect.DeepEqual(opts.Months, []models.MonthKey{"2022-01", "2022-02", "2022-03"}) {
		t.Errorf("Months = %v", opts.Months)
	}
	if opts.AmountMin != 5 || opts.AmountMax != 60 {
		t.Errorf("amount extent = [%v, %v], want [5, 60]", opts.AmountMin, opts.AmountMax)
	}
	if opts.QuantityMin != 1 || opts.QuantityMax != 5 {
		t.Errorf("quantity extent = [%d, %d], want [1, 5]", opts.QuantityMin, opts.QuantityMax)
	}
	if !opts.MinDate.Equal(day("2022-01-05")) || !opts.MaxDate.Equal(day("2022-03-20")) {
		t.Errorf("date extent = [%v, %v]", opts.MinDate, opts.MaxDate)
	}
	if len(opts.TimesOfSale) != 5 {
		t.Errorf("TimesOfSale = %v, want the full vocabulary", opts.TimesOfSale)
	}
}

func TestOptionsForEmpty(t *testing.T) {
	opts := OptionsFor(nil)
	if len(opts.ItemNames) != 0 || !opts.MinDate.IsZero() {
		t.Errorf("expected empty options, got %+v", opts)
	}
}
