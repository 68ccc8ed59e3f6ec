// Package flow builds the item -> item type -> payment method graph that
// feeds the Sankey diagram.
package flow

import (
	"encoding/json"

	"github.com/samber/lo"

	"salesdash/internal/models"
	"salesdash/internal/services/aggregate"
)

// Role is the field a node label came from
type Role int

const (
	RoleItem Role = iota
	RoleItemType
	RolePayment
)

func (r Role) String() string {
	switch r {
	case RoleItem:
		return "item_name"
	case RoleItemType:
		return "item_type"
	case RolePayment:
		return "transaction_type"
	default:
		return "unknown"
	}
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// Node is identified by role and label together, so "Cash" as an item and
// "Cash" as a payment method are two nodes.
type Node struct {
	Role  Role   `json:"role"`
	Label string `json:"label"`
}

// Edge connects two node indexes. Weight is a row count.
type Edge struct {
	Source int `json:"source"`
	Target int `json:"target"`
	Weight int `json:"weight"`
}

// Graph is the node list plus edges indexing into it
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Labels returns node labels by index
func (g Graph) Labels() []string {
	return lo.Map(g.Nodes, func(n Node, _ int) string { return n.Label })
}

var tripleSpec = aggregate.Spec{
	GroupBy: []aggregate.Dimension{aggregate.ItemName, aggregate.ItemType, aggregate.PaymentMethod},
	Measure: aggregate.OrderID,
	Reducer: aggregate.Count,
}

// Build counts rows per (item_name, item_type, transaction_type) triple.
// Nodes are the distinct item names, then item types, then payment
// methods, each in first-seen order. Every triple adds an item -> type edge
// and a type -> payment edge carrying its count; all item -> type edges
// come first. Parallel edges from different triples stay separate.
func Build(records []models.Record) Graph {
	triples, err := aggregate.Aggregate(records, tripleSpec)
	if err != nil {
		// tripleSpec is a valid count spec
		panic(err)
	}

	g := Graph{Nodes: []Node{}, Edges: make([]Edge, 0, 2*len(triples))}
	index := make(map[Node]int)
	for role := RoleItem; role <= RolePayment; role++ {
		labels := lo.Uniq(lo.Map(triples, func(t aggregate.Group, _ int) string { return t.Keys[role] }))
		for _, label := range labels {
			n := Node{Role: role, Label: label}
			index[n] = len(g.Nodes)
			g.Nodes = append(g.Nodes, n)
		}
	}

	for _, hop := range []Role{RoleItem, RoleItemType} {
		for _, t := range triples {
			g.Edges = append(g.Edges, Edge{
				Source: index[Node{Role: hop, Label: t.Keys[hop]}],
				Target: index[Node{Role: hop + 1, Label: t.Keys[hop+1]}],
				Weight: t.Count,
			})
		}
	}
	return g
}

// Merged returns a copy whose parallel edges are summed into one, keeping
// the position of the first occurrence
func (g Graph) Merged() Graph {
	out := Graph{Nodes: append([]Node(nil), g.Nodes...), Edges: []Edge{}}
	seen := make(map[[2]int]int)
	for _, e := range g.Edges {
		key := [2]int{e.Source, e.Target}
		if pos, ok := seen[key]; ok {
			out.Edges[pos].Weight += e.Weight
			continue
		}
		seen[key] = len(out.Edges)
		out.Edges = append(out.Edges, e)
	}
	return out
}

// WeightByHop sums edge weights leaving nodes of the given role
func (g Graph) WeightByHop(from Role) int {
	var total int
	for _, e := range g.Edges {
		if g.Nodes[e.Source].Role == from {
			total += e.Weight
		}
	}
	return total
}
