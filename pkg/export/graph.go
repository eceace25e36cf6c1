// Package export renders the derived schema graph in the JSON shape a D3
// force-directed layout consumes.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/dgarant/qed/pkg/logic"
)

// D3Node is one node in the force-directed graph: a table or an attribute.
type D3Node struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`            // "table" or "attribute"
	Group string `json:"group,omitempty"` // tables group as "table", attributes by data kind
}

// D3Link is one edge: attribute membership or a foreign-key relationship.
type D3Link struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Relation string  `json:"relation"`
	Weight   float64 `json:"weight,omitempty"`
}

// D3Graph is the full structure for D3.js.
type D3Graph struct {
	Nodes []D3Node `json:"nodes"`
	Links []D3Link `json:"links"`
}

// BuildGraph queries the engine for the schema's tables, attributes and
// relationships and assembles the graph. Relationship links run from the one
// side to the many side and carry the average child-set size as weight when
// the statistic was derivable.
func BuildGraph(e *logic.Engine) (*D3Graph, error) {
	nodes := make(map[string]D3Node)

	tables, err := e.Query("table(T)")
	if err != nil {
		return nil, fmt.Errorf("tables: %w", err)
	}
	for _, s := range tables {
		id := s["T"]
		nodes[id] = D3Node{ID: id, Name: id, Kind: "table", Group: "table"}
	}

	kinds := make(map[string]string)
	types, err := e.Query("dataType(A, K)")
	if err != nil {
		return nil, fmt.Errorf("data types: %w", err)
	}
	for _, s := range types {
		kinds[s["A"]] = s["K"]
	}

	var links []D3Link
	attrs, err := e.Query("attribute(A, T)")
	if err != nil {
		return nil, fmt.Errorf("attributes: %w", err)
	}
	for _, s := range attrs {
		id, table := s["A"], s["T"]
		if _, ok := nodes[id]; !ok {
			nodes[id] = D3Node{ID: id, Name: id, Kind: "attribute", Group: kinds[id]}
		}
		links = append(links, D3Link{Source: id, Target: table, Relation: "attribute"})
	}

	weights := make(map[string]float64)
	sizes, err := e.Query("averageManySize(R, S)")
	if err != nil {
		return nil, fmt.Errorf("relationship sizes: %w", err)
	}
	for _, s := range sizes {
		var w float64
		if _, err := fmt.Sscanf(s["S"], "%g", &w); err == nil {
			weights[s["R"]] = w
		}
	}

	rels, err := e.Query("related(One, Many, R)")
	if err != nil {
		return nil, fmt.Errorf("relationships: %w", err)
	}
	for _, s := range rels {
		links = append(links, D3Link{
			Source:   s["One"],
			Target:   s["Many"],
			Relation: s["R"],
			Weight:   weights[s["R"]],
		})
	}

	g := &D3Graph{Nodes: make([]D3Node, 0, len(nodes)), Links: dedupLinks(links)}
	for _, n := range nodes {
		g.Nodes = append(g.Nodes, n)
	}
	sort.Slice(g.Nodes, func(i, j int) bool { return g.Nodes[i].ID < g.Nodes[j].ID })
	return g, nil
}

// dedupLinks drops repeated edges, keeping first occurrence order. Duplicate
// facts in a seeded rule file would otherwise double every edge.
func dedupLinks(links []D3Link) []D3Link {
	seen := make(map[string]bool, len(links))
	out := make([]D3Link, 0, len(links))
	for _, l := range links {
		key := l.Source + "\x00" + l.Target + "\x00" + l.Relation
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, l)
	}
	return out
}

// SaveGraph writes the graph to a JSON file, indented for inspection.
func SaveGraph(g *D3Graph, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(g)
}
