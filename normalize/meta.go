// Package normalize turns a store of loosely referenced usages into a
// consistent taxonomic graph. Passes run in a fixed order: relation
// resolution, classification reconciliation, synonym cycle and chain
// repair, synonym/parent prioritization, then parent cycle, basionym chain
// and rank order repair.
package normalize

import (
	"strings"
)

// Field names a verbatim relation reference.
type Field string

const (
	FieldAccepted Field = "accepted"
	FieldParent   Field = "parent"
	FieldBasionym Field = "basionym"
)

// commonDelimiters are tried in order when a field has no configured delimiters.
const commonDelimiters = "|;, "

// InsertMetadata describes what the ingestion layer mapped.
type InsertMetadata struct {
	ParentMapped         bool `toml:"parent_mapped" json:"parent_mapped"`
	AcceptedMapped       bool `toml:"accepted_mapped" json:"accepted_mapped"`
	BasionymMapped       bool `toml:"basionym_mapped" json:"basionym_mapped"`
	ClassificationMapped bool `toml:"classification_mapped" json:"classification_mapped"`

	// Delimiters holds per-field multi-value delimiter characters.
	Delimiters map[Field]string `toml:"delimiters" json:"delimiters,omitempty"`
}

// DelimitersFor returns the delimiter characters for f, falling back to the
// common set.
func (m *InsertMetadata) DelimitersFor(f Field) string {
	if m != nil && m.Delimiters != nil {
		if d, ok := m.Delimiters[f]; ok && d != "" {
			return d
		}
	}
	return commonDelimiters
}

// SplitIDs splits a multi-value ID string. Delimiters are tried one at a
// time in order; the first that yields more than one non-empty part wins.
// A value with no delimiter comes back as a single part.
func SplitIDs(raw, delimiters string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, d := range delimiters {
		parts := splitNonEmpty(raw, d)
		if len(parts) > 1 {
			return parts
		}
	}
	return []string{raw}
}

func splitNonEmpty(s string, sep rune) []string {
	var out []string
	for _, p := range strings.Split(s, string(sep)) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
