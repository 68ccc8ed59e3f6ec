package aggregate

import (
	"salesdash/internal/models"
)

// Cell is one (row, column) entry of a pivot
type Cell struct {
	Row    string  `json:"row"`
	Column string  `json:"column"`
	Value  float64 `json:"value"`
}

// Pivot is a dense two-dimensional aggregate flattened to cells
type Pivot struct {
	RowDimension    string   `json:"row_dimension"`
	ColumnDimension string   `json:"column_dimension"`
	Rows            []string `json:"rows"`
	Columns         []string `json:"columns"`
	Cells           []Cell   `json:"cells"`
}

// Value looks up a cell, returning 0 for unknown coordinates
func (p Pivot) Value(row, column string) float64 {
	for _, c := range p.Cells {
		if c.Row == row && c.Column == column {
			return c.Value
		}
	}
	return 0
}

// BuildPivot cross-joins the row vocabulary with the column vocabulary and
// fills each cell with the reduced value of its records, or 0 when none.
// Fixed-vocabulary dimensions contribute their whole vocabulary; other
// dimensions contribute the values observed in records. Cells are listed a
// column at a time, every row within each column, so
// len(Cells) == len(Rows) * len(Columns).
func BuildPivot(records []models.Record, row, column Dimension, measure Measure, reducer Reducer) (Pivot, error) {
	spec := Spec{GroupBy: []Dimension{row, column}, Measure: measure, Reducer: reducer}
	groups, err := Aggregate(records, spec)
	if err != nil {
		return Pivot{}, err
	}

	rows, err := axis(records, row, measure, reducer)
	if err != nil {
		return Pivot{}, err
	}
	columns, err := axis(records, column, measure, reducer)
	if err != nil {
		return Pivot{}, err
	}

	actual := make(map[[2]string]float64, len(groups))
	for _, g := range groups {
		actual[[2]string{g.Keys[0], g.Keys[1]}] = g.Value
	}

	cells := make([]Cell, 0, len(rows)*len(columns))
	for _, col := range columns {
		for _, r := range rows {
			cells = append(cells, Cell{Row: r, Column: col, Value: actual[[2]string{r, col}]})
		}
	}

	return Pivot{
		RowDimension:    row.String(),
		ColumnDimension: column.String(),
		Rows:            rows,
		Columns:         columns,
		Cells:           cells,
	}, nil
}

// axis lists one pivot axis in the same order Aggregate would use
func axis(records []models.Record, d Dimension, measure Measure, reducer Reducer) ([]string, error) {
	groups, err := Aggregate(records, Spec{GroupBy: []Dimension{d}, Measure: measure, Reducer: reducer})
	if err != nil {
		return nil, err
	}
	labels := make([]string, len(groups))
	for i, g := range groups {
		labels[i] = g.Keys[0]
	}
	return labels, nil
}
