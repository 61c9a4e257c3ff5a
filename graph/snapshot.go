package graph

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/teranos/taxgraph/taxon"
)

const defaultLinkWeight = 1.0

var statusColors = map[taxon.Status]string{
	taxon.Accepted: "#b8bb26",
	taxon.Synonym:  "#83a598",
	taxon.Doubtful: "#fabd2f",
	taxon.BareName: "rgba(149, 165, 166, 0.6)",
}

var relColors = map[RelType]string{
	ParentOf:   "#a89984",
	SynonymOf:  "#83a598",
	BasionymOf: "#d3869b",
}

// Snapshot renders the store as a Graph. Node IDs are the decimal handles.
func (s *Store) Snapshot() *Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g := &Graph{
		Nodes: make([]Node, 0, len(s.nodes)),
		Links: make([]Link, 0, len(s.edges)),
	}
	statusCounts := make(map[taxon.Status]int)
	relCounts := make(map[RelType]int)
	stats := Stats{Issues: make(map[string]int)}

	for _, u := range s.nodes {
		statusCounts[u.Status]++
		if u.Root {
			stats.Roots++
		}
		if u.Origin.IsPlaceholder() {
			stats.Placeholders++
		}
		if u.Issues != 0 {
			stats.Flagged++
			for _, name := range u.Issues.Strings() {
				stats.Issues[name]++
			}
		}
		g.Nodes = append(g.Nodes, nodeFor(u))
	}

	for src := range s.out {
		for _, t := range RelTypes() {
			for _, dst := range s.out[src][t] {
				relCounts[t]++
				g.Links = append(g.Links, Link{
					Source: strconv.Itoa(src),
					Target: strconv.Itoa(int(dst)),
					Type:   t.String(),
					Weight: defaultLinkWeight,
				})
			}
		}
	}

	stats.TotalNodes = len(g.Nodes)
	stats.TotalEdges = len(g.Links)
	g.Meta = Meta{
		GeneratedAt:       time.Now().UTC(),
		Stats:             stats,
		NodeTypes:         collectNodeTypeInfo(statusCounts),
		RelationshipTypes: collectRelationshipTypeInfo(relCounts),
	}
	return g
}

func nodeFor(u *Usage) Node {
	meta := map[string]interface{}{
		"origin": u.Origin.String(),
	}
	if u.TaxonID != "" {
		meta["taxon_id"] = u.TaxonID
	}
	if u.Issues != 0 {
		meta["issues"] = u.Issues.Strings()
	}
	if len(u.Remarks) > 0 {
		meta["remarks"] = append([]string(nil), u.Remarks...)
	}
	if !u.Classification.IsEmpty() {
		meta["classification"] = u.Classification.ToMap()
	}

	group := 0
	if u.Rank.IsComparable() {
		group = int(u.Rank) + 1
	}
	return Node{
		ID:       strconv.Itoa(int(u.ID)),
		Type:     strings.ToLower(u.Status.String()),
		Label:    u.Label(),
		Rank:     u.Rank.String(),
		Root:     u.Root,
		Group:    group,
		Metadata: meta,
	}
}

// collectNodeTypeInfo lists statuses present in the graph, most common first.
func collectNodeTypeInfo(counts map[taxon.Status]int) []NodeTypeInfo {
	var out []NodeTypeInfo
	for status, count := range counts {
		name := status.String()
		out = append(out, NodeTypeInfo{
			Type:  strings.ToLower(name),
			Label: strings.ReplaceAll(name, "_", " "),
			Color: statusColors[status],
			Count: count,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// collectRelationshipTypeInfo lists edge types present in the graph, most common first.
func collectRelationshipTypeInfo(counts map[RelType]int) []RelationshipTypeInfo {
	var out []RelationshipTypeInfo
	for t, count := range counts {
		out = append(out, RelationshipTypeInfo{
			Type:  t.String(),
			Label: strings.ToLower(strings.ReplaceAll(t.String(), "_", " ")),
			Color: relColors[t],
			Count: count,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}
