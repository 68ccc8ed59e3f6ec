// Package export writes a record set as CSV or as an Excel workbook.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"salesdash/internal/models"
	"salesdash/internal/services/aggregate"
	"salesdash/internal/services/metrics"
)

// Header is the column order of exported files: the source layout plus
// the derived year_month
func Header() []string {
	return append(models.Fields(), "year_month")
}

func row(r *models.Record) []string {
	return []string{
		r.OrderID,
		r.Date.Format("2006-01-02"),
		r.ItemName,
		r.ItemType,
		strconv.FormatFloat(r.ItemPrice, 'f', -1, 64),
		strconv.Itoa(r.Quantity),
		strconv.FormatFloat(r.Amount, 'f', -1, 64),
		r.TransactionType,
		r.ReceivedBy,
		r.TimeOfSale.String(),
		string(r.YearMonth),
	}
}

// WriteCSV writes a header line and one line per record
func WriteCSV(w io.Writer, records []models.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}
	for i := range records {
		if err := cw.Write(row(&records[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

const (
	transactionsSheet = "Transactions"
	summarySheet      = "Summary"
)

// WriteXLSX writes a workbook with a Transactions sheet and a Summary sheet
// holding the KPIs and monthly totals
func WriteXLSX(w io.Writer, records []models.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", transactionsSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#2D3436"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return err
	}

	if err := writeTransactions(f, records, headerStyle, moneyStyle); err != nil {
		return err
	}
	if err := writeSummary(f, records, headerStyle, moneyStyle); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeTransactions(f *excelize.File, records []models.Record, headerStyle, moneyStyle int) error {
	header := Header()
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(transactionsSheet, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(transactionsSheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for i := range records {
		r := &records[i]
		values := []any{
			r.OrderID, r.Date.Format("2006-01-02"), r.ItemName, r.ItemType, r.ItemPrice,
			r.Quantity, r.Amount, r.TransactionType, r.ReceivedBy, r.TimeOfSale.String(), string(r.YearMonth),
		}
		start, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(transactionsSheet, start, &values); err != nil {
			return err
		}
	}

	if n := len(records); n > 0 {
		// item_price (E) and transaction_amount (G)
		for _, col := range []string{"E", "G"} {
			if err := f.SetCellStyle(transactionsSheet, col+"2", fmt.Sprintf("%s%d", col, n+1), moneyStyle); err != nil {
				return err
			}
		}
	}
	return f.SetColWidth(transactionsSheet, "A", "K", 16)
}

func writeSummary(f *excelize.File, records []models.Record, headerStyle, moneyStyle int) error {
	kpi := metrics.Summarize(records)
	var mean any = "n/a"
	if kpi.Mean != nil {
		mean = *kpi.Mean
	}

	rows := [][]any{
		{"Metric", "Value"},
		{"Total sales", kpi.Total},
		{"Average sale", mean},
		{"Distinct orders", kpi.DistinctOrders},
		{"Records", kpi.Records},
		{},
		{"Month", "Sales"},
	}

	monthly, err := aggregate.Aggregate(records, aggregate.Spec{
		GroupBy: []aggregate.Dimension{aggregate.Month},
		Measure: aggregate.Amount,
		Reducer: aggregate.Sum,
	})
	if err != nil {
		return err
	}
	for _, g := range monthly {
		rows = append(rows, []any{g.Label(), g.Value})
	}

	for i, values := range rows {
		if len(values) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &values); err != nil {
			return err
		}
	}

	for _, hdr := range []int{1, 7} {
		if err := f.SetCellStyle(summarySheet, fmt.Sprintf("A%d", hdr), fmt.Sprintf("B%d", hdr), headerStyle); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(summarySheet, "B2", "B3", moneyStyle); err != nil {
		return err
	}
	if len(monthly) > 0 {
		if err := f.SetCellStyle(summarySheet, "B8", fmt.Sprintf("B%d", 7+len(monthly)), moneyStyle); err != nil {
			return err
		}
	}
	return f.SetColWidth(summarySheet, "A", "B", 18)
}
