// Package graph is the in-memory arena the normalizer works on: usage
// records addressed by integer handle plus typed adjacency indexes.
package graph

import (
	"strings"

	"github.com/teranos/taxgraph/errors"
	"github.com/teranos/taxgraph/taxon"
)

// NodeID addresses a usage inside a Store. IDs are dense and start at 0.
type NodeID int

// NoNode is returned where a lookup finds nothing.
const NoNode NodeID = -1

// RelType is the type of a directed edge.
type RelType uint8

const (
	// ParentOf points from a parent to its child.
	ParentOf RelType = iota
	// SynonymOf points from a synonym to its accepted (or doubtful) usage.
	SynonymOf
	// BasionymOf points from an original name to its recombination.
	BasionymOf

	relTypeCount
)

var relTypeNames = [...]string{
	ParentOf:   "PARENT_OF",
	SynonymOf:  "SYNONYM_OF",
	BasionymOf: "BASIONYM_OF",
}

func (t RelType) String() string {
	if t >= relTypeCount {
		return "UNKNOWN"
	}
	return relTypeNames[t]
}

// RelTypes lists every edge type.
func RelTypes() []RelType {
	return []RelType{ParentOf, SynonymOf, BasionymOf}
}

// ParseRelType parses an edge type name.
func ParseRelType(s string) (RelType, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	for i, name := range relTypeNames {
		if name == key {
			return RelType(i), nil
		}
	}
	return 0, errors.NewInvalidInputError("unknown relation type %q", s)
}

// Edge is one directed, typed edge.
type Edge struct {
	Source NodeID
	Target NodeID
	Type   RelType
}

// Verbatim holds the raw relation references of a source record.
// Each relation may be given by ID, by name, or both.
type Verbatim struct {
	AcceptedID   string `toml:"accepted_id" json:"accepted_id,omitempty"`
	AcceptedName string `toml:"accepted_name" json:"accepted_name,omitempty"`
	ParentID     string `toml:"parent_id" json:"parent_id,omitempty"`
	ParentName   string `toml:"parent_name" json:"parent_name,omitempty"`
	BasionymID   string `toml:"basionym_id" json:"basionym_id,omitempty"`
	BasionymName string `toml:"basionym_name" json:"basionym_name,omitempty"`
}

// IsEmpty reports whether no reference is set.
func (v *Verbatim) IsEmpty() bool {
	return v == nil || *v == Verbatim{}
}

// Usage is one taxonomic name-usage.
type Usage struct {
	ID             NodeID
	TaxonID        string
	Name           string
	Authorship     string
	Rank           taxon.Rank
	Status         taxon.Status
	Origin         taxon.Origin
	Root           bool
	Classification taxon.Classification
	Issues         taxon.IssueSet
	Remarks        []string

	// Verbatim is nil for synthesized usages.
	Verbatim *Verbatim
}

// Label is the display name, including the authorship when known.
func (u Usage) Label() string {
	if u.Authorship == "" {
		return u.Name
	}
	return u.Name + " " + u.Authorship
}

// IsSynonym reports whether the usage carries synonym status.
func (u Usage) IsSynonym() bool {
	return u.Status.IsSynonym()
}

func (u *Usage) clone() Usage {
	c := *u
	if u.Remarks != nil {
		c.Remarks = append([]string(nil), u.Remarks...)
	}
	if u.Verbatim != nil {
		v := *u.Verbatim
		c.Verbatim = &v
	}
	return c
}

func nameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
