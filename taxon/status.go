package taxon

import (
	"strings"

	"github.com/teranos/taxgraph/errors"
)

// Status is the taxonomic status of a usage.
type Status int

const (
	Accepted Status = iota
	Synonym
	Doubtful
	BareName
)

var statusNames = [...]string{
	Accepted: "ACCEPTED",
	Synonym:  "SYNONYM",
	Doubtful: "DOUBTFUL",
	BareName: "BARE_NAME",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "DOUBTFUL"
	}
	return statusNames[s]
}

// IsSynonym reports whether s is the synonym status.
func (s Status) IsSynonym() bool {
	return s == Synonym
}

// ParseStatus parses a status name case-insensitively.
func ParseStatus(s string) (Status, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	switch key {
	case "", "ACCEPTED", "VALID":
		return Accepted, nil
	case "HETEROTYPIC_SYNONYM", "HOMOTYPIC_SYNONYM", "PROPARTE_SYNONYM", "MISAPPLIED":
		return Synonym, nil
	}
	for i, name := range statusNames {
		if name == key {
			return Status(i), nil
		}
	}
	return Doubtful, errors.NewInvalidInputError("unknown status %q", s)
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Origin records how a usage came into the graph.
type Origin int

const (
	// Source usages were loaded from an input record.
	Source Origin = iota
	MissingAccepted
	VerbatimAccepted
	VerbatimParent
	VerbatimBasionym
	DenormedClassification
)

var originNames = [...]string{
	Source:                 "SOURCE",
	MissingAccepted:        "MISSING_ACCEPTED",
	VerbatimAccepted:       "VERBATIM_ACCEPTED",
	VerbatimParent:         "VERBATIM_PARENT",
	VerbatimBasionym:       "VERBATIM_BASIONYM",
	DenormedClassification: "DENORMED_CLASSIFICATION",
}

func (o Origin) String() string {
	if o < 0 || int(o) >= len(originNames) {
		return "SOURCE"
	}
	return originNames[o]
}

// IsPlaceholder reports whether the usage was synthesized during normalization.
func (o Origin) IsPlaceholder() bool {
	return o != Source
}

// ParseOrigin parses an origin name.
func ParseOrigin(s string) (Origin, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	if key == "" {
		return Source, nil
	}
	for i, name := range originNames {
		if name == key {
			return Origin(i), nil
		}
	}
	return Source, errors.NewInvalidInputError("unknown origin %q", s)
}

func (o Origin) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Origin) UnmarshalText(b []byte) error {
	parsed, err := ParseOrigin(string(b))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
