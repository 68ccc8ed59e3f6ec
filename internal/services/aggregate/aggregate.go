// Package aggregate groups records along one or more dimensions and reduces
// each group to a single value.
package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"salesdash/internal/models"
)

// Spec describes one aggregation
type Spec struct {
	GroupBy []Dimension
	Measure Measure
	Reducer Reducer
}

// Validate rejects measure/reducer pairs that have no meaning
func (s Spec) Validate() error {
	if (s.Reducer == Sum || s.Reducer == Mean) && !s.Measure.numeric() {
		return fmt.Errorf("%w: %s of %s", models.ErrUnsupportedMeasure, s.Reducer, s.Measure)
	}
	for _, d := range s.GroupBy {
		if d < 0 || d >= dimensionCount {
			return fmt.Errorf("unknown dimension %d", int(d))
		}
	}
	return nil
}

// Group is one reduced group. Keys line up with Spec.GroupBy.
type Group struct {
	Keys  []string `json:"keys"`
	Value float64  `json:"value"`
	Count int      `json:"count"`
}

// Label joins the keys for display
func (g Group) Label() string {
	return strings.Join(g.Keys, " / ")
}

type accumulator struct {
	keys     []string
	sum      float64
	count    int
	distinct map[string]struct{}
}

const keySep = "\x1f"

// Aggregate groups records by spec.GroupBy and reduces each group.
//
// Ordering: time dimensions ascend, fixed-vocabulary dimensions (time of
// sale, day of week) follow their vocabulary, everything else keeps
// first-seen order. When grouping by a single fixed-vocabulary dimension
// every category is present, with a zero value if unseen. An empty input
// yields an empty result (or the zero-filled vocabulary).
//
// Tuple groupings are sparse: only observed key combinations appear, still
// ordered by any vocabulary dimension among them. Use BuildPivot for a dense
// two-dimensional grid where unseen categories read as zero.
func Aggregate(records []models.Record, spec Spec) ([]Group, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var accs []*accumulator

	for i := range records {
		r := &records[i]
		keys := make([]string, len(spec.GroupBy))
		for j, d := range spec.GroupBy {
			keys[j] = d.Key(r)
		}
		joined := strings.Join(keys, keySep)

		pos, ok := index[joined]
		if !ok {
			pos = len(accs)
			index[joined] = pos
			accs = append(accs, &accumulator{keys: keys})
		}
		a := accs[pos]
		a.count++
		a.sum += spec.Measure.value(r)
		if spec.Reducer == DistinctCount {
			if a.distinct == nil {
				a.distinct = make(map[string]struct{})
			}
			a.distinct[spec.Measure.distinctKey(r)] = struct{}{}
		}
	}

	if len(spec.GroupBy) == 1 {
		for _, label := range spec.GroupBy[0].Vocabulary() {
			if _, ok := index[label]; !ok {
				index[label] = len(accs)
				accs = append(accs, &accumulator{keys: []string{label}})
			}
		}
	}

	groups := make([]Group, len(accs))
	for i, a := range accs {
		groups[i] = Group{Keys: a.keys, Value: reduce(a, spec.Reducer), Count: a.count}
	}

	sortGroups(groups, spec.GroupBy)
	return groups, nil
}

func reduce(a *accumulator, r Reducer) float64 {
	switch r {
	case Sum:
		return a.sum
	case Count:
		return float64(a.count)
	case DistinctCount:
		return float64(len(a.distinct))
	case Mean:
		if a.count == 0 {
			return 0
		}
		return a.sum / float64(a.count)
	default:
		return 0
	}
}

// sortGroups orders by the ordered dimensions only; a stable sort leaves
// first-seen order among groups those dimensions do not separate
func sortGroups(groups []Group, dims []Dimension) {
	ranks := make([]map[string]int, len(dims))
	ordered := false
	for i, d := range dims {
		if vocab := d.Vocabulary(); vocab != nil {
			ranks[i] = make(map[string]int, len(vocab))
			for pos, label := range vocab {
				ranks[i][label] = pos
			}
			ordered = true
		} else if d.IsTime() {
			ordered = true
		}
	}
	if !ordered {
		return
	}

	sort.SliceStable(groups, func(a, b int) bool {
		for i, d := range dims {
			ka, kb := groups[a].Keys[i], groups[b].Keys[i]
			switch {
			case ranks[i] != nil:
				ra, rb := rankOf(ranks[i], ka), rankOf(ranks[i], kb)
				if ra != rb {
					return ra < rb
				}
			case d.IsTime():
				if ka != kb {
					return ka < kb
				}
			}
		}
		return false
	})
}

// rankOf puts labels outside the vocabulary after every known label
func rankOf(rank map[string]int, label string) int {
	if r, ok := rank[label]; ok {
		return r
	}
	return len(rank)
}

// Values returns each group's value in order
func Values(groups []Group) []float64 {
	return lo.Map(groups, func(g Group, _ int) float64 { return g.Value })
}

// Labels returns each group's display label in order
func Labels(groups []Group) []string {
	return lo.Map(groups, func(g Group, _ int) string { return g.Label() })
}

// Total sums every group's value
func Total(groups []Group) float64 {
	return lo.SumBy(groups, func(g Group) float64 { return g.Value })
}
