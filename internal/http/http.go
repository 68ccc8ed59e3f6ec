package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"salesdash/internal/logger"
	"salesdash/internal/models"
	"salesdash/internal/services/filter"
)

// ErrBadParameter marks a query parameter that could not be parsed
var ErrBadParameter = errors.New("bad parameter")

// WriteJSON encodes v with the given status
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// ErrorResponse sends {"error": message} with a status derived from err
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("request failed")
	} else {
		log.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	WriteJSON(w, status, map[string]string{"error": err.Error()})
}

// StatusFor maps domain errors to HTTP status codes
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrUnknownView):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidRange),
		errors.Is(err, models.ErrUnknownTimeOfSale),
		errors.Is(err, models.ErrUnsupportedMeasure),
		errors.Is(err, ErrBadParameter):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func badParam(name, value string, err error) error {
	return fmt.Errorf("%w %s=%q: %v", ErrBadParameter, name, value, err)
}

// ParseConstraints reads filter constraints from the query string.
//
//	start, end            inclusive dates, YYYY-MM-DD
//	amount_min, amount_max
//	qty_min, qty_max
//	item_type, item_name, payment, time_of_sale   repeatable or comma separated
//	month                 YYYY-MM, "all" or empty for no restriction
//
// A range with only one bound takes the other from open-ended defaults.
// The result is validated, so an inverted range fails with ErrInvalidRange.
func ParseConstraints(q url.Values) (filter.Constraints, error) {
	var c filter.Constraints

	start, end := q.Get("start"), q.Get("end")
	if start != "" || end != "" {
		dr := &filter.DateRange{End: time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)}
		if start != "" {
			t, err := time.Parse("2006-01-02", start)
			if err != nil {
				return c, badParam("start", start, err)
			}
			dr.Start = t
		}
		if end != "" {
			t, err := time.Parse("2006-01-02", end)
			if err != nil {
				return c, badParam("end", end, err)
			}
			dr.End = t
		}
		c.DateRange = dr
	}

	lo, hi, ok, err := floatPair(q, "amount_min", "amount_max")
	if err != nil {
		return c, err
	}
	if ok {
		c.AmountRange = &filter.AmountRange{Min: lo, Max: hi}
	}

	qlo, qhi, ok, err := intPair(q, "qty_min", "qty_max")
	if err != nil {
		return c, err
	}
	if ok {
		c.QuantityRange = &filter.QuantityRange{Min: qlo, Max: qhi}
	}

	c.ItemTypes = multi(q, "item_type")
	c.ItemNames = multi(q, "item_name")
	c.PaymentMethods = multi(q, "payment")
	for _, raw := range multi(q, "time_of_sale") {
		tod, err := models.ParseTimeOfSale(raw)
		if err != nil {
			return c, err
		}
		c.TimesOfSale = append(c.TimesOfSale, tod)
	}

	if m := strings.TrimSpace(q.Get("month")); m != "" && !strings.EqualFold(m, "all") {
		key, err := models.ParseMonthKey(m)
		if err != nil {
			return c, badParam("month", m, err)
		}
		c.Month = key
	}

	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// multi collects repeated and comma separated values, dropping blanks
func multi(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func floatPair(q url.Values, minKey, maxKey string) (lo, hi float64, ok bool, err error) {
	lo, hi = 0, 1e308
	if s := q.Get(minKey); s != "" {
		if lo, err = strconv.ParseFloat(s, 64); err != nil {
			return 0, 0, false, badParam(minKey, s, err)
		}
		ok = true
	}
	if s := q.Get(maxKey); s != "" {
		if hi, err = strconv.ParseFloat(s, 64); err != nil {
			return 0, 0, false, badParam(maxKey, s, err)
		}
		ok = true
	}
	return lo, hi, ok, nil
}

func intPair(q url.Values, minKey, maxKey string) (lo, hi int, ok bool, err error) {
	lo, hi = 0, int(^uint(0)>>1)
	if s := q.Get(minKey); s != "" {
		if lo, err = strconv.Atoi(s); err != nil {
			return 0, 0, false, badParam(minKey, s, err)
		}
		ok = true
	}
	if s := q.Get(maxKey); s != "" {
		if hi, err = strconv.Atoi(s); err != nil {
			return 0, 0, false, badParam(maxKey, s, err)
		}
		ok = true
	}
	return lo, hi, ok, nil
}
