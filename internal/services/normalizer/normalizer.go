// Package normalizer turns raw source rows into validated sale records.
package normalizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"salesdash/internal/models"
)

// primaryDateLayouts are tried in order: YYYY-MM-DD, MM/DD/YYYY, DD-MM-YYYY.
// Month and day accept one or two digits.
var primaryDateLayouts = []string{
	"2006-1-2",
	"1/2/2006",
	"2-1-2006",
}

// fallbackDateLayouts is the permissive pass for anything the primary
// layouts reject
var fallbackDateLayouts = []string{
	"2006/1/2",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"20060102",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
}

// nullTokens are spreadsheet spellings of an empty cell
var nullTokens = map[string]bool{
	"":     true,
	"null": true,
	"nan":  true,
	"none": true,
	"n/a":  true,
	"na":   true,
}

var currencyStripper = strings.NewReplacer("$", "", ",", "", "₹", "", "€", "", "£", "", " ", "")

// Result is the outcome of normalizing a batch
type Result struct {
	Records  []models.Record
	Rejected int
	Issues   []*models.RowError
	ByKind   map[string]int
}

// Normalize validates every row and returns the accepted records in input
// order. Rejected rows are counted and described in Issues; they never
// abort the batch. rows is not modified.
func Normalize(rows []models.RawRow) Result {
	res := Result{
		Records: make([]models.Record, 0, len(rows)),
		ByKind:  make(map[string]int),
	}

	for i, row := range rows {
		rec, rowErr := normalizeRow(row)
		if rowErr != nil {
			rowErr.Row = i + 1
			res.Rejected++
			res.Issues = append(res.Issues, rowErr)
			res.ByKind[rowErr.Kind()]++
			continue
		}
		res.Records = append(res.Records, rec)
	}

	return res
}

func normalizeRow(row models.RawRow) (models.Record, *models.RowError) {
	var rec models.Record

	rawDate := row[models.FieldDate]
	date, err := ParseDate(rawDate)
	if err != nil {
		return rec, &models.RowError{Field: models.FieldDate, Value: rawDate, Err: err}
	}

	paymentRaw := row[models.FieldTransactionType]
	payment, ok := category(paymentRaw)
	if !ok {
		return rec, &models.RowError{Field: models.FieldTransactionType, Value: paymentRaw, Err: models.ErrMissingCategory}
	}

	todRaw := row[models.FieldTimeOfSale]
	tod, err := models.ParseTimeOfSale(todRaw)
	if err != nil {
		return rec, &models.RowError{Field: models.FieldTimeOfSale, Value: todRaw, Err: models.ErrUnknownTimeOfSale}
	}

	// only date and payment method drop a row; a blank item keeps its sale
	// in the totals under the empty label
	itemName, _ := category(row[models.FieldItemName])
	itemType, _ := category(row[models.FieldItemType])

	qtyRaw := row[models.FieldQuantity]
	qty, err := parseQuantity(qtyRaw)
	if err != nil {
		return rec, &models.RowError{Field: models.FieldQuantity, Value: qtyRaw, Err: err}
	}

	amountRaw := row[models.FieldAmount]
	amount, err := parseAmount(amountRaw)
	if err != nil {
		return rec, &models.RowError{Field: models.FieldAmount, Value: amountRaw, Err: err}
	}

	// item_price is informational; a bad value is zeroed rather than rejected
	price, err := parseAmount(row[models.FieldItemPrice])
	if err != nil {
		price = 0
	}

	receivedBy, _ := category(row[models.FieldReceivedBy])

	rec = models.Record{
		OrderID:         strings.TrimSpace(row[models.FieldOrderID]),
		Date:            date,
		ItemName:        itemName,
		ItemType:        itemType,
		ItemPrice:       price,
		Quantity:        qty,
		Amount:          amount,
		TransactionType: payment,
		ReceivedBy:      receivedBy,
		TimeOfSale:      tod,
		YearMonth:       models.MonthOf(date),
	}
	return rec, nil
}

// ParseDate tries the primary layouts in order, then the permissive
// fallbacks. The result is the calendar date at midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", models.ErrInvalidDate)
	}

	for _, layout := range primaryDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), nil
		}
	}
	for _, layout := range fallbackDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", models.ErrInvalidDate, s)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// category trims a categorical value and reports false for empty/null cells
func category(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if nullTokens[strings.ToLower(s)] {
		return "", false
	}
	return s, true
}

func parseAmount(s string) (float64, error) {
	cleaned := currencyStripper.Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, fmt.Errorf("%w: empty amount", models.ErrInvalidNumber)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrInvalidNumber, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: negative amount %s", models.ErrInvalidNumber, d)
	}
	return d.InexactFloat64(), nil
}

func parseQuantity(s string) (int, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if cleaned == "" {
		return 0, fmt.Errorf("%w: empty quantity", models.ErrInvalidNumber)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrInvalidNumber, err)
	}
	if d.IsNegative() || !d.IsInteger() {
		return 0, fmt.Errorf("%w: quantity %s is not a non-negative integer", models.ErrInvalidNumber, d)
	}
	return int(d.IntPart()), nil
}
