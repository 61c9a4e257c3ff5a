package taxon

import (
	"encoding/json"
	"strings"

	"github.com/teranos/taxgraph/errors"
)

// Issue flags a problem found, or a repair applied, while normalizing a usage.
type Issue uint8

const (
	AcceptedNameMissing Issue = iota
	AcceptedNameUsageIDInvalid
	ParentNameUsageIDInvalid
	OriginalNameUsageIDInvalid
	NameNotUnique
	ChainedSynonym
	ParentCycle
	ClassificationNotApplied
	ChainedBasionym
	SynonymParent
	ClassificationRankOrderInvalid

	issueCount
)

var issueNames = [...]string{
	AcceptedNameMissing:            "ACCEPTED_NAME_MISSING",
	AcceptedNameUsageIDInvalid:     "ACCEPTED_NAME_USAGE_ID_INVALID",
	ParentNameUsageIDInvalid:       "PARENT_NAME_USAGE_ID_INVALID",
	OriginalNameUsageIDInvalid:     "ORIGINAL_NAME_USAGE_ID_INVALID",
	NameNotUnique:                  "NAME_NOT_UNIQUE",
	ChainedSynonym:                 "CHAINED_SYNONYM",
	ParentCycle:                    "PARENT_CYCLE",
	ClassificationNotApplied:       "CLASSIFICATION_NOT_APPLIED",
	ChainedBasionym:                "CHAINED_BASIONYM",
	SynonymParent:                  "SYNONYM_PARENT",
	ClassificationRankOrderInvalid: "CLASSIFICATION_RANK_ORDER_INVALID",
}

func (i Issue) String() string {
	if i >= issueCount {
		return "UNKNOWN_ISSUE"
	}
	return issueNames[i]
}

// ParseIssue parses an issue flag name.
func ParseIssue(s string) (Issue, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	for i, name := range issueNames {
		if name == key {
			return Issue(i), nil
		}
	}
	return 0, errors.NewInvalidInputError("unknown issue %q", s)
}

// AllIssues lists every issue flag in declaration order.
func AllIssues() []Issue {
	out := make([]Issue, 0, issueCount)
	for i := Issue(0); i < issueCount; i++ {
		out = append(out, i)
	}
	return out
}

// IssueSet is a set of issue flags. The zero value is empty.
type IssueSet uint32

// Add returns the set with i added.
func (s IssueSet) Add(i Issue) IssueSet {
	return s | 1<<i
}

// Has reports whether i is in the set.
func (s IssueSet) Has(i Issue) bool {
	return s&(1<<i) != 0
}

// Len returns the number of flags in the set.
func (s IssueSet) Len() int {
	n := 0
	for ; s != 0; s &= s - 1 {
		n++
	}
	return n
}

// Issues returns the flags in declaration order.
func (s IssueSet) Issues() []Issue {
	var out []Issue
	for i := Issue(0); i < issueCount; i++ {
		if s.Has(i) {
			out = append(out, i)
		}
	}
	return out
}

// Strings returns the flag names in declaration order.
func (s IssueSet) Strings() []string {
	issues := s.Issues()
	out := make([]string, len(issues))
	for i, is := range issues {
		out[i] = is.String()
	}
	return out
}

func (s IssueSet) String() string {
	return strings.Join(s.Strings(), ",")
}

// MarshalJSON encodes the set as an array of flag names.
func (s IssueSet) MarshalJSON() ([]byte, error) {
	names := s.Strings()
	if names == nil {
		names = []string{}
	}
	return json.Marshal(names)
}

// UnmarshalJSON decodes an array of flag names.
func (s *IssueSet) UnmarshalJSON(b []byte) error {
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return errors.Wrap(err, "decode issue set")
	}
	var set IssueSet
	for _, n := range names {
		i, err := ParseIssue(n)
		if err != nil {
			return err
		}
		set = set.Add(i)
	}
	*s = set
	return nil
}
