package graph

import (
	"time"
)

// Graph is a JSON-friendly view of a Store for export and inspection
type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
	Meta  Meta   `json:"meta"`
}

// Node represents a usage in the exported graph
type Node struct {
	ID       string                 `json:"id"`
	Type     string                 `json:"type"`  // Status: "accepted", "synonym", "doubtful", "bare_name"
	Label    string                 `json:"label"` // Scientific name with authorship
	Rank     string                 `json:"rank"`
	Root     bool                   `json:"root,omitempty"`
	Group    int                    `json:"group,omitempty"` // Rank position for clustering
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Link represents an edge between usages
type Link struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Type   string  `json:"type"`  // PARENT_OF, SYNONYM_OF, BASIONYM_OF
	Weight float64 `json:"value"` // D3 uses "value"
}

// Meta contains metadata about the graph
type Meta struct {
	GeneratedAt       time.Time              `json:"generated_at"`
	Stats             Stats                  `json:"stats"`
	Config            map[string]string      `json:"config,omitempty"`
	NodeTypes         []NodeTypeInfo         `json:"node_types"`
	RelationshipTypes []RelationshipTypeInfo `json:"relationship_types"`
}

// NodeTypeInfo describes one usage status present in the graph
type NodeTypeInfo struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Color string `json:"color,omitempty"`
	Count int    `json:"count,omitempty"`
}

// RelationshipTypeInfo describes one edge type present in the graph
type RelationshipTypeInfo struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Color string `json:"color,omitempty"`
	Count int    `json:"count,omitempty"`
}

// Stats provides graph statistics
type Stats struct {
	TotalNodes   int            `json:"total_nodes"`
	TotalEdges   int            `json:"total_edges"`
	Roots        int            `json:"roots"`
	Placeholders int            `json:"placeholders"`
	Flagged      int            `json:"flagged"`
	Issues       map[string]int `json:"issues,omitempty"`
}
