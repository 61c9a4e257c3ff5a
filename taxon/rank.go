// Package taxon holds the vocabulary shared by every normalization pass:
// ranks, statuses, origins, issue flags and the flat classification.
package taxon

import (
	"strings"

	"github.com/teranos/taxgraph/errors"
)

// Rank is a taxonomic level. Comparable ranks are declared coarsest first,
// so a smaller value is a higher rank.
type Rank int

const (
	Kingdom Rank = iota
	Subkingdom
	Phylum
	Subphylum
	Class
	Subclass
	Order
	Suborder
	Superfamily
	Family
	Subfamily
	Tribe
	Subtribe
	Genus
	Subgenus
	Section
	Series
	SpeciesAggregate
	Species
	Subspecies
	Variety
	Subvariety
	Form

	// Uncomparable ranks sit outside the linear order.
	Other
	Unranked
)

var rankNames = [...]string{
	Kingdom:          "KINGDOM",
	Subkingdom:       "SUBKINGDOM",
	Phylum:           "PHYLUM",
	Subphylum:        "SUBPHYLUM",
	Class:            "CLASS",
	Subclass:         "SUBCLASS",
	Order:            "ORDER",
	Suborder:         "SUBORDER",
	Superfamily:      "SUPERFAMILY",
	Family:           "FAMILY",
	Subfamily:        "SUBFAMILY",
	Tribe:            "TRIBE",
	Subtribe:         "SUBTRIBE",
	Genus:            "GENUS",
	Subgenus:         "SUBGENUS",
	Section:          "SECTION",
	Series:           "SERIES",
	SpeciesAggregate: "SPECIES_AGGREGATE",
	Species:          "SPECIES",
	Subspecies:       "SUBSPECIES",
	Variety:          "VARIETY",
	Subvariety:       "SUBVARIETY",
	Form:             "FORM",
	Other:            "OTHER",
	Unranked:         "UNRANKED",
}

// rankAliases maps common source spellings onto ranks.
var rankAliases = map[string]Rank{
	"SP":                 Species,
	"SSP":                Subspecies,
	"SUBSP":              Subspecies,
	"VAR":                Variety,
	"F":                  Form,
	"FORMA":              Form,
	"DIVISION":           Phylum,
	"AGGREGATE":          SpeciesAggregate,
	"":                   Unranked,
	"NO RANK":            Unranked,
	"INFRASPECIFIC_NAME": Other,
}

func (r Rank) String() string {
	if r < 0 || int(r) >= len(rankNames) {
		return "UNRANKED"
	}
	return rankNames[r]
}

// ParseRank parses a rank name case-insensitively. Spaces and dashes are
// treated as underscores.
func ParseRank(s string) (Rank, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	if r, ok := rankAliases[key]; ok {
		return r, nil
	}
	key = strings.NewReplacer(" ", "_", "-", "_", ".", "").Replace(key)
	for i, name := range rankNames {
		if name == key {
			return Rank(i), nil
		}
	}
	if r, ok := rankAliases[key]; ok {
		return r, nil
	}
	return Unranked, errors.NewInvalidInputError("unknown rank %q", s)
}

// IsUncomparable reports whether r lies outside the linear rank order.
func (r Rank) IsUncomparable() bool {
	return r == Other || r == Unranked
}

// IsComparable is the negation of IsUncomparable.
func (r Rank) IsComparable() bool {
	return !r.IsUncomparable()
}

// HigherThan reports whether r is strictly coarser than other. Uncomparable
// ranks are never higher or lower than anything.
func (r Rank) HigherThan(other Rank) bool {
	if r.IsUncomparable() || other.IsUncomparable() {
		return false
	}
	return r < other
}

// NotLowerThan reports whether r is equal to or coarser than other, both comparable.
func (r Rank) NotLowerThan(other Rank) bool {
	if r.IsUncomparable() || other.IsUncomparable() {
		return false
	}
	return r <= other
}

// MarshalText implements encoding.TextMarshaler.
func (r Rank) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Rank) UnmarshalText(b []byte) error {
	parsed, err := ParseRank(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
