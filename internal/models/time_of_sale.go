package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TimeOfSale is the part of the day a sale happened in. The numeric value
// is the display order: Morning < Afternoon < Evening < Night < Midnight.
type TimeOfSale int

const (
	Morning TimeOfSale = iota
	Afternoon
	Evening
	Night
	Midnight

	timeOfSaleCount
)

var timeOfSaleNames = [timeOfSaleCount]string{
	Morning:   "Morning",
	Afternoon: "Afternoon",
	Evening:   "Evening",
	Night:     "Night",
	Midnight:  "Midnight",
}

// AllTimesOfSale returns the full vocabulary in display order
func AllTimesOfSale() []TimeOfSale {
	out := make([]TimeOfSale, timeOfSaleCount)
	for i := range out {
		out[i] = TimeOfSale(i)
	}
	return out
}

// TimeOfSaleLabels returns the vocabulary labels in display order
func TimeOfSaleLabels() []string {
	out := make([]string, timeOfSaleCount)
	copy(out, timeOfSaleNames[:])
	return out
}

// ParseTimeOfSale matches a label case-insensitively after trimming
func ParseTimeOfSale(s string) (TimeOfSale, error) {
	s = strings.TrimSpace(s)
	for i, name := range timeOfSaleNames {
		if strings.EqualFold(s, name) {
			return TimeOfSale(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTimeOfSale, s)
}

// Valid reports whether t is one of the five known values
func (t TimeOfSale) Valid() bool {
	return t >= 0 && t < timeOfSaleCount
}

func (t TimeOfSale) String() string {
	if !t.Valid() {
		return fmt.Sprintf("TimeOfSale(%d)", int(t))
	}
	return timeOfSaleNames[t]
}

// MarshalJSON encodes the label rather than the ordinal
func (t TimeOfSale) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts a label
func (t *TimeOfSale) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfSale(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
