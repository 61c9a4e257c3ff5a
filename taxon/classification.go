package taxon

import (
	"encoding/json"
	"strings"

	"github.com/teranos/taxgraph/errors"
)

// ClassificationRanks are the ranks a flat classification can carry, coarsest first.
var ClassificationRanks = [...]Rank{
	Kingdom,
	Phylum,
	Subphylum,
	Class,
	Subclass,
	Order,
	Suborder,
	Superfamily,
	Family,
	Subfamily,
	Tribe,
	Genus,
	Subgenus,
}

func classificationIndex(r Rank) int {
	for i, cr := range ClassificationRanks {
		if cr == r {
			return i
		}
	}
	return -1
}

// IsClassificationRank reports whether r can appear in a Classification.
func IsClassificationRank(r Rank) bool {
	return classificationIndex(r) >= 0
}

// Classification is a flat rank -> name mapping attached to a record. It is
// a value type; assignment copies it.
type Classification struct {
	names [len(ClassificationRanks)]string
}

// ByRank returns the name at r, or "" when absent or r is not a classification rank.
func (c Classification) ByRank(r Rank) string {
	if i := classificationIndex(r); i >= 0 {
		return c.names[i]
	}
	return ""
}

// SetByRank sets the name at r. It reports false when r is not a classification rank.
func (c *Classification) SetByRank(r Rank, name string) bool {
	i := classificationIndex(r)
	if i < 0 {
		return false
	}
	c.names[i] = strings.TrimSpace(name)
	return true
}

// Clear removes the entry at r.
func (c *Classification) Clear(r Rank) {
	c.SetByRank(r, "")
}

// ClearRankAndBelow removes r and every finer entry. An uncomparable r is a no-op.
func (c *Classification) ClearRankAndBelow(r Rank) {
	if r.IsUncomparable() {
		return
	}
	for i := len(ClassificationRanks) - 1; i >= 0; i-- {
		if ClassificationRanks[i].HigherThan(r) {
			break
		}
		c.names[i] = ""
	}
}

// LowestExistingRank returns the finest rank holding a name.
func (c Classification) LowestExistingRank() (Rank, bool) {
	for i := len(ClassificationRanks) - 1; i >= 0; i-- {
		if c.names[i] != "" {
			return ClassificationRanks[i], true
		}
	}
	return Unranked, false
}

// EqualsAboveRank reports whether c and o agree on every rank strictly higher than lowest.
func (c Classification) EqualsAboveRank(o *Classification, lowest Rank) bool {
	if o == nil {
		return false
	}
	for i, r := range ClassificationRanks {
		if !r.HigherThan(lowest) {
			return true
		}
		if !strings.EqualFold(c.names[i], o.names[i]) {
			return false
		}
	}
	return true
}

// IsEmpty reports whether no rank holds a name.
func (c Classification) IsEmpty() bool {
	for _, n := range c.names {
		if n != "" {
			return false
		}
	}
	return true
}

// Copy returns an independent copy.
func (c Classification) Copy() Classification {
	return c
}

// Entry is one rank/name pair of a classification.
type Entry struct {
	Rank Rank
	Name string
}

// Entries lists the present entries coarsest first.
func (c Classification) Entries() []Entry {
	var out []Entry
	for i, n := range c.names {
		if n != "" {
			out = append(out, Entry{Rank: ClassificationRanks[i], Name: n})
		}
	}
	return out
}

// ToMap returns the entries keyed by lower-case rank name.
func (c Classification) ToMap() map[string]string {
	m := make(map[string]string)
	for _, e := range c.Entries() {
		m[strings.ToLower(e.Rank.String())] = e.Name
	}
	return m
}

// ClassificationFromMap builds a classification from rank-name keys.
func ClassificationFromMap(m map[string]string) (Classification, error) {
	var c Classification
	for k, v := range m {
		r, err := ParseRank(k)
		if err != nil {
			return c, err
		}
		if !c.SetByRank(r, v) {
			return c, errors.NewInvalidInputError("rank %s cannot appear in a classification", r)
		}
	}
	return c, nil
}

// MarshalJSON encodes the classification as an object keyed by rank name.
func (c Classification) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.ToMap())
}

// UnmarshalJSON decodes an object keyed by rank name.
func (c *Classification) UnmarshalJSON(b []byte) error {
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return errors.Wrap(err, "decode classification")
	}
	parsed, err := ClassificationFromMap(m)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
