package dataloader

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"salesdash/internal/models"
)

// SQLiteSource reads rows from a table laid out like the CSV export
type SQLiteSource struct {
	Path  string
	Table string
}

// NewSQLiteSource reads table from the database file at path
func NewSQLiteSource(path, table string) *SQLiteSource {
	return &SQLiteSource{Path: path, Table: table}
}

// Name is the database file and table
func (s *SQLiteSource) Name() string {
	return filepath.Base(s.Path) + ":" + s.Table
}

type sqlRow struct {
	OrderID         sql.NullString `db:"order_id"`
	Date            sql.NullString `db:"date"`
	ItemName        sql.NullString `db:"item_name"`
	ItemType        sql.NullString `db:"item_type"`
	ItemPrice       sql.NullString `db:"item_price"`
	Quantity        sql.NullString `db:"quantity"`
	Amount          sql.NullString `db:"transaction_amount"`
	TransactionType sql.NullString `db:"transaction_type"`
	ReceivedBy      sql.NullString `db:"received_by"`
	TimeOfSale      sql.NullString `db:"time_of_sale"`
}

func (r sqlRow) raw() models.RawRow {
	row := make(models.RawRow)
	set := func(field string, v sql.NullString) {
		if v.Valid {
			row[field] = v.String
		}
	}
	set(models.FieldOrderID, r.OrderID)
	set(models.FieldDate, r.Date)
	set(models.FieldItemName, r.ItemName)
	set(models.FieldItemType, r.ItemType)
	set(models.FieldItemPrice, r.ItemPrice)
	set(models.FieldQuantity, r.Quantity)
	set(models.FieldAmount, r.Amount)
	set(models.FieldTransactionType, r.TransactionType)
	set(models.FieldReceivedBy, r.ReceivedBy)
	set(models.FieldTimeOfSale, r.TimeOfSale)
	return row
}

// Rows selects every row of the table in insertion order. NULL columns
// are left out of the raw row so the normalizer treats them as missing.
func (s *SQLiteSource) Rows(ctx context.Context) ([]models.RawRow, error) {
	db, err := sqlx.Open("sqlite3", "file:"+s.Path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Path, err)
	}
	defer db.Close()

	q := `SELECT order_id, date, item_name, item_type, item_price, quantity,
		transaction_amount, transaction_type, received_by, time_of_sale
		FROM ` + quoteIdent(s.Table) + ` ORDER BY rowid`

	var out []sqlRow
	if err := db.SelectContext(ctx, &out, q); err != nil {
		return nil, fmt.Errorf("select from %s: %w", s.Name(), err)
	}

	rows := make([]models.RawRow, len(out))
	for i, r := range out {
		rows[i] = r.raw()
	}
	return rows, nil
}

// quoteIdent quotes a SQLite identifier, doubling embedded quotes
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

const schema = `CREATE TABLE IF NOT EXISTS %s (
	order_id TEXT,
	date TEXT,
	item_name TEXT,
	item_type TEXT,
	item_price REAL,
	quantity INTEGER,
	transaction_amount REAL,
	transaction_type TEXT,
	received_by TEXT,
	time_of_sale TEXT
)`

// WriteSQLite creates table if needed and appends records to it in one
// transaction
func WriteSQLite(ctx context.Context, path, table string, records []models.Record) error {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer db.Close()

	quoted := quoteIdent(table)
	if _, err := db.ExecContext(ctx, fmt.Sprintf(schema, quoted)); err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}
	if len(records) == 0 {
		return nil
	}

	type insertRow struct {
		OrderID         string  `db:"order_id"`
		Date            string  `db:"date"`
		ItemName        string  `db:"item_name"`
		ItemType        string  `db:"item_type"`
		ItemPrice       float64 `db:"item_price"`
		Quantity        int     `db:"quantity"`
		Amount          float64 `db:"transaction_amount"`
		TransactionType string  `db:"transaction_type"`
		ReceivedBy      string  `db:"received_by"`
		TimeOfSale      string  `db:"time_of_sale"`
	}
	batch := make([]insertRow, len(records))
	for i, r := range records {
		batch[i] = insertRow{
			OrderID:         r.OrderID,
			Date:            r.Date.Format("2006-01-02"),
			ItemName:        r.ItemName,
			ItemType:        r.ItemType,
			ItemPrice:       r.ItemPrice,
			Quantity:        r.Quantity,
			Amount:          r.Amount,
			TransactionType: r.TransactionType,
			ReceivedBy:      r.ReceivedBy,
			TimeOfSale:      r.TimeOfSale.String(),
		}
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	q := `INSERT INTO ` + quoted + ` (order_id, date, item_name, item_type, item_price, quantity,
		transaction_amount, transaction_type, received_by, time_of_sale)
		VALUES (:order_id, :date, :item_name, :item_type, :item_price, :quantity,
		:transaction_amount, :transaction_type, :received_by, :time_of_sale)`
	if _, err := tx.NamedExecContext(ctx, q, batch); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return tx.Commit()
}
