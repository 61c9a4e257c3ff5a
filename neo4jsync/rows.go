package neo4jsync

import (
	"encoding/json"

	"github.com/teranos/taxgraph/graph"
)

// NodeRows builds one property map per usage, in node id order. Neo4j
// properties cannot be maps, so the classification travels as JSON.
func NodeRows(store *graph.Store, dataset, syncedAt string) []map[string]any {
	rows := make([]map[string]any, 0, store.Len())
	for i := 0; i < store.Len(); i++ {
		u := store.MustNode(graph.NodeID(i))

		classification := ""
		if !u.Classification.IsEmpty() {
			if b, err := json.Marshal(u.Classification); err == nil {
				classification = string(b)
			}
		}
		remarks := u.Remarks
		if remarks == nil {
			remarks = []string{}
		}

		rows = append(rows, map[string]any{
			"dataset":             dataset,
			"node_id":             int64(u.ID),
			"taxon_id":            u.TaxonID,
			"name":                u.Name,
			"authorship":          u.Authorship,
			"label":               u.Label(),
			"rank":                u.Rank.String(),
			"status":              u.Status.String(),
			"origin":              u.Origin.String(),
			"root":                u.Root,
			"classification_json": classification,
			"issues":              u.Issues.Strings(),
			"remarks":             remarks,
			"synced_at":           syncedAt,
		})
	}
	return rows
}

// RelationshipRows builds one row per edge of type t.
func RelationshipRows(store *graph.Store, t graph.RelType, dataset string) []map[string]any {
	edges := store.Edges(t)
	rows := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		rows = append(rows, map[string]any{
			"dataset": dataset,
			"source":  int64(e.Source),
			"target":  int64(e.Target),
		})
	}
	return rows
}

// Batches splits rows into consecutive chunks of at most size rows.
func Batches(rows []map[string]any, size int) [][]map[string]any {
	if size <= 0 {
		size = defaultBatchSize
	}
	var out [][]map[string]any
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		out = append(out, rows[start:end])
	}
	return out
}
