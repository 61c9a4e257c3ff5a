// Package fixture reads small checklists written in TOML. They seed import
// stores and drive scenario tests.
package fixture

import (
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/teranos/taxgraph/errors"
	"github.com/teranos/taxgraph/graph"
	"github.com/teranos/taxgraph/normalize"
	"github.com/teranos/taxgraph/taxon"
)

// Checklist is a decoded fixture file.
//
//	[meta]
//	accepted_mapped = true
//
//	[[usage]]
//	id = "t2"
//	name = "Larus major"
//	status = "synonym"
//	accepted_id = "t1"
type Checklist struct {
	Title  string                   `toml:"title"`
	Meta   normalize.InsertMetadata `toml:"meta"`
	Usages []Record                 `toml:"usage"`
}

// Record is one checklist row.
type Record struct {
	ID           string `toml:"id"`
	Name         string `toml:"name"`
	Authorship   string `toml:"authorship"`
	Rank         string `toml:"rank"`
	Status       string `toml:"status"`
	AcceptedID   string `toml:"accepted_id"`
	AcceptedName string `toml:"accepted_name"`
	ParentID     string `toml:"parent_id"`
	ParentName   string `toml:"parent_name"`
	BasionymID   string `toml:"basionym_id"`
	BasionymName string `toml:"basionym_name"`

	Classification map[string]string `toml:"classification"`
	Remarks        []string          `toml:"remarks"`
}

// Decode parses a fixture. Unknown keys are rejected so typos surface.
func Decode(data string) (*Checklist, error) {
	var c Checklist
	md, err := toml.Decode(data, &c)
	if err != nil {
		return nil, errors.Wrap(err, "decode checklist")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, errors.WithHint(
			errors.NewInvalidInputError("unknown checklist keys: %s", strings.Join(keys, ", ")),
			"see fixture.Record for the supported fields")
	}
	return &c, nil
}

// LoadFile reads and decodes a fixture file.
func LoadFile(path string) (*Checklist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read checklist %s", path)
	}
	c, err := Decode(string(data))
	if err != nil {
		return nil, errors.Wrapf(err, "checklist %s", path)
	}
	return c, nil
}

// Usage converts the record into a bare usage, all relations still verbatim.
func (r *Record) Usage() (graph.Usage, error) {
	if strings.TrimSpace(r.Name) == "" {
		return graph.Usage{}, errors.NewInvalidInputError("usage %q has no name", r.ID)
	}

	rank := taxon.Unranked
	if r.Rank != "" {
		parsed, err := taxon.ParseRank(r.Rank)
		if err != nil {
			return graph.Usage{}, errors.Wrapf(err, "usage %q", r.ID)
		}
		rank = parsed
	}
	status := taxon.Accepted
	if r.Status != "" {
		parsed, err := taxon.ParseStatus(r.Status)
		if err != nil {
			return graph.Usage{}, errors.Wrapf(err, "usage %q", r.ID)
		}
		status = parsed
	}
	cl, err := taxon.ClassificationFromMap(r.Classification)
	if err != nil {
		return graph.Usage{}, errors.Wrapf(err, "usage %q", r.ID)
	}

	u := graph.Usage{
		TaxonID:        r.ID,
		Name:           r.Name,
		Authorship:     r.Authorship,
		Rank:           rank,
		Status:         status,
		Origin:         taxon.Source,
		Classification: cl,
		Remarks:        r.Remarks,
	}
	v := graph.Verbatim{
		AcceptedID:   r.AcceptedID,
		AcceptedName: r.AcceptedName,
		ParentID:     r.ParentID,
		ParentName:   r.ParentName,
		BasionymID:   r.BasionymID,
		BasionymName: r.BasionymName,
	}
	if !v.IsEmpty() {
		u.Verbatim = &v
	}
	return u, nil
}

// Build loads every record into a fresh store, in file order.
func (c *Checklist) Build() (*graph.Store, *normalize.InsertMetadata, error) {
	store := graph.NewStore()
	for i := range c.Usages {
		u, err := c.Usages[i].Usage()
		if err != nil {
			return nil, nil, errors.Wrapf(err, "record %d", i+1)
		}
		if _, err := store.Add(u); err != nil {
			return nil, nil, errors.Wrapf(err, "record %d", i+1)
		}
	}
	meta := c.Meta
	return store, &meta, nil
}

// Load reads a fixture file and builds its store.
func Load(path string) (*graph.Store, *normalize.InsertMetadata, error) {
	c, err := LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return c.Build()
}
