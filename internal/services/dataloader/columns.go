package dataloader

import (
	"strings"

	"salesdash/internal/models"
)

// columnMappings maps header spellings seen in POS exports to canonical
// field names. Headers are compared after lowercasing and turning spaces
// and dashes into underscores.
var columnMappings = map[string][]string{
	models.FieldOrderID:         {"order_id", "order", "order_no", "order_number", "invoice", "invoice_no", "receipt"},
	models.FieldDate:            {"date", "sale_date", "order_date", "transaction_date", "sold_on"},
	models.FieldItemName:        {"item_name", "item", "product", "product_name", "menu_item"},
	models.FieldItemType:        {"item_type", "type", "category", "item_category", "product_type"},
	models.FieldItemPrice:       {"item_price", "price", "unit_price"},
	models.FieldQuantity:        {"quantity", "qty", "units", "count"},
	models.FieldAmount:          {"transaction_amount", "amount", "total", "sale_amount", "line_total"},
	models.FieldTransactionType: {"transaction_type", "payment", "payment_method", "payment_type", "tender"},
	models.FieldReceivedBy:      {"received_by", "staff", "cashier", "server", "employee"},
	models.FieldTimeOfSale:      {"time_of_sale", "time_of_day", "shift", "daypart"},
}

// requiredFields must be present in a header. item_price and received_by
// are optional.
var requiredFields = []string{
	models.FieldOrderID,
	models.FieldDate,
	models.FieldItemName,
	models.FieldItemType,
	models.FieldQuantity,
	models.FieldAmount,
	models.FieldTransactionType,
	models.FieldTimeOfSale,
}

var aliases = func() map[string]string {
	m := make(map[string]string)
	for canonical, variants := range columnMappings {
		for _, v := range variants {
			m[v] = canonical
		}
	}
	return m
}()

// normalizeColumnName maps a header to its canonical field name, or returns
// the folded header when no mapping exists
func normalizeColumnName(col string) string {
	folded := strings.ToLower(strings.TrimSpace(col))
	folded = strings.NewReplacer(" ", "_", "-", "_").Replace(folded)
	if canonical, ok := aliases[folded]; ok {
		return canonical
	}
	return folded
}

// buildColumnIndex maps canonical names to header positions; the first
// column to claim a name wins
func buildColumnIndex(header []string) map[string]int {
	colIndex := make(map[string]int)
	for i, col := range header {
		normalized := normalizeColumnName(col)
		if _, exists := colIndex[normalized]; !exists {
			colIndex[normalized] = i
		}
	}
	return colIndex
}

// missingColumns lists required fields absent from colIndex
func missingColumns(colIndex map[string]int) []string {
	var missing []string
	for _, f := range requiredFields {
		if _, ok := colIndex[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}
