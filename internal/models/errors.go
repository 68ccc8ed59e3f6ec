package models

import (
	"errors"
	"fmt"
)

// Row-level failures. A row that hits one of these is dropped and the
// batch continues.
var (
	ErrInvalidDate       = errors.New("invalid date")
	ErrMissingCategory   = errors.New("missing category")
	ErrUnknownTimeOfSale = errors.New("unknown time of sale")
	ErrInvalidNumber     = errors.New("invalid number")
)

// Caller errors, surfaced immediately.
var (
	ErrUnknownView        = errors.New("unknown view")
	ErrInvalidRange       = errors.New("invalid range")
	ErrUnsupportedMeasure = errors.New("unsupported measure for reducer")
)

// RowError records why a raw row was rejected during normalization
type RowError struct {
	Row   int    `json:"row"`
	Field string `json:"field"`
	Value string `json:"value"`
	Err   error  `json:"-"`
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s %q: %v", e.Row, e.Field, e.Value, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Kind returns a short name for the wrapped sentinel, used as a counter key
func (e *RowError) Kind() string {
	switch {
	case errors.Is(e.Err, ErrInvalidDate):
		return "invalid_date"
	case errors.Is(e.Err, ErrMissingCategory):
		return "missing_category"
	case errors.Is(e.Err, ErrUnknownTimeOfSale):
		return "unknown_time_of_sale"
	case errors.Is(e.Err, ErrInvalidNumber):
		return "invalid_number"
	default:
		return "other"
	}
}
